package progress

import "testing"

func TestFromStatusDownloading(t *testing.T) {
	event, ok := FromStatus(map[string]any{
		"status":           "downloading",
		"downloaded_bytes": float64(50),
		"total_bytes":      float64(200),
		"_speed_str":       "1.2MiB/s",
		"_eta_str":         "00:12",
		"_total_bytes_str": "200.00B",
	})
	if !ok {
		t.Fatal("expected a progress event")
	}
	if event.Phase != PhaseDownloading {
		t.Errorf("expected Downloading phase, got %s", event.Phase)
	}
	if event.Percent != 25.0 {
		t.Errorf("expected percent 25.0, got %v", event.Percent)
	}
	if event.Speed != "1.2MiB/s" || event.ETA != "00:12" || event.TotalSize != "200.00B" {
		t.Errorf("unexpected text fields: %q %q %q", event.Speed, event.ETA, event.TotalSize)
	}
}

func TestFromStatusUnknownTotal(t *testing.T) {
	event, ok := FromStatus(map[string]any{
		"status":           "downloading",
		"downloaded_bytes": float64(1024),
	})
	if !ok {
		t.Fatal("expected a progress event")
	}
	if event.Percent != 0 {
		t.Errorf("expected percent 0 when total is unknown, got %v", event.Percent)
	}
	if event.Phase != PhaseDownloading {
		t.Errorf("phase must still be meaningful, got %s", event.Phase)
	}
}

func TestFromStatusEstimateFallback(t *testing.T) {
	event, ok := FromStatus(map[string]any{
		"status":               "downloading",
		"downloaded_bytes":     float64(100),
		"total_bytes":          "NA",
		"total_bytes_estimate": float64(400),
	})
	if !ok {
		t.Fatal("expected a progress event")
	}
	if event.Percent != 25.0 {
		t.Errorf("expected percent 25.0 from estimate, got %v", event.Percent)
	}
}

func TestFromStatusFinished(t *testing.T) {
	event, ok := FromStatus(map[string]any{
		"status":           "finished",
		"_total_bytes_str": "3.5MiB",
	})
	if !ok {
		t.Fatal("expected a progress event")
	}
	if event.Phase != PhaseConverting {
		t.Errorf("finished status must map to Converting, got %s", event.Phase)
	}
	if event.Percent != 100 {
		t.Errorf("expected percent 100, got %v", event.Percent)
	}
	if event.Speed != "-" || event.ETA != "0s" {
		t.Errorf("unexpected speed/eta: %q %q", event.Speed, event.ETA)
	}
}

func TestFromStatusUnknownTag(t *testing.T) {
	if _, ok := FromStatus(map[string]any{"status": "postprocessing"}); ok {
		t.Error("unknown status tags must not produce events")
	}
	if _, ok := FromStatus(map[string]any{}); ok {
		t.Error("missing status tag must not produce an event")
	}
}

func TestFromStatusStringNumbers(t *testing.T) {
	event, ok := FromStatus(map[string]any{
		"status":           "downloading",
		"downloaded_bytes": "512",
		"total_bytes":      "1024",
	})
	if !ok {
		t.Fatal("expected a progress event")
	}
	if event.Percent != 50.0 {
		t.Errorf("expected percent 50.0 from string fields, got %v", event.Percent)
	}
}

func TestFromStatusStripsControlSequences(t *testing.T) {
	event, ok := FromStatus(map[string]any{
		"status":           "downloading",
		"downloaded_bytes": float64(1),
		"total_bytes":      float64(2),
		"_speed_str":       "\x1b[0;32m1.2MiB/s\x1b[0m",
		"_eta_str":         "00:^H12",
	})
	if !ok {
		t.Fatal("expected a progress event")
	}
	if event.Speed != "1.2MiB/s" {
		t.Errorf("expected ANSI stripped speed, got %q", event.Speed)
	}
}

func TestPercentMonotonic(t *testing.T) {
	statuses := []map[string]any{
		{"status": "downloading", "downloaded_bytes": float64(10), "total_bytes": float64(200)},
		{"status": "downloading", "downloaded_bytes": float64(50), "total_bytes": float64(200)},
		{"status": "downloading", "downloaded_bytes": float64(125), "total_bytes": float64(200)},
		{"status": "downloading", "downloaded_bytes": float64(200), "total_bytes": float64(200)},
	}
	last := -1.0
	for i, status := range statuses {
		event, ok := FromStatus(status)
		if !ok {
			t.Fatalf("status %d produced no event", i)
		}
		if event.Percent < last {
			t.Fatalf("percent regressed at %d: %v < %v", i, event.Percent, last)
		}
		last = event.Percent
	}
	if last != 100 {
		t.Errorf("expected final percent 100, got %v", last)
	}
}

func TestFromStatusClampsOverrunPercent(t *testing.T) {
	event, ok := FromStatus(map[string]any{
		"status":               "downloading",
		"downloaded_bytes":     float64(450),
		"total_bytes":          "NA",
		"total_bytes_estimate": float64(400),
	})
	if !ok {
		t.Fatal("expected a progress event")
	}
	if event.Percent != 100 {
		t.Errorf("downloaded beyond the estimate must clamp to 100, got %v", event.Percent)
	}
}

func TestFromStatusFormatsSizeWhenStringMissing(t *testing.T) {
	event, ok := FromStatus(map[string]any{
		"status":               "downloading",
		"downloaded_bytes":     float64(512),
		"total_bytes":          "NA",
		"total_bytes_estimate": float64(3 * 1024 * 1024),
		"_total_bytes_str":     "NA",
	})
	if !ok {
		t.Fatal("expected a progress event")
	}
	if event.TotalSize != "3.00 MB" {
		t.Errorf("expected size formatted from the byte count, got %q", event.TotalSize)
	}
}

func TestStripControl(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"\x1b[1;31mred\x1b[0m", "red"},
		{"tab\there", "tabhere"},
		{"pre\x1bMpost", "prepost"},
	}
	for _, tc := range cases {
		if got := StripControl(tc.in); got != tc.want {
			t.Errorf("StripControl(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
