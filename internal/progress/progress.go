package progress

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tubegrab/tubegrab/internal/utils"
)

// Phase describes where a download currently is in its life. Converting
// follows Downloading because audio extraction runs after the fetch.
type Phase int

const (
	PhaseDownloading Phase = iota
	PhaseConverting
	PhaseFinished
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseDownloading:
		return "downloading"
	case PhaseConverting:
		return "converting"
	case PhaseFinished:
		return "finished"
	case PhaseErrored:
		return "errored"
	}
	return "unknown"
}

// Event is the canonical progress record surfaced to consumers. The text
// fields arrive pre-formatted from the backend tool and are stripped of
// control sequences before they get here.
type Event struct {
	Phase        Phase
	Percent      float64
	Speed        string
	ETA          string
	TotalSize    string
	ErrorMessage string
}

// Finished builds the terminal success event.
func Finished() Event {
	return Event{Phase: PhaseFinished, Percent: 100}
}

// Errored builds the terminal failure event carrying a human-readable message.
func Errored(msg string) Event {
	return Event{Phase: PhaseErrored, ErrorMessage: msg}
}

var ansiEscape = regexp.MustCompile(`\x1B(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// StripControl removes ANSI escape sequences and other control characters
// from text emitted by the backend tool.
func StripControl(text string) string {
	clean := ansiEscape.ReplaceAllString(text, "")
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, clean)
}

// FromStatus normalizes one raw status record from the backend's progress
// hook. Records are loosely typed: numeric fields may arrive as numbers or
// strings, text fields may carry formatting artifacts. The second return is
// false when the status tag is not a progress report.
func FromStatus(status map[string]any) (Event, bool) {
	tag, _ := status["status"].(string)
	switch tag {
	case "downloading":
		total := asInt64(status["total_bytes"])
		if total <= 0 {
			total = asInt64(status["total_bytes_estimate"])
		}
		downloaded := asInt64(status["downloaded_bytes"])
		var percent float64
		if total > 0 {
			percent = float64(downloaded) / float64(total) * 100
		}
		if percent > 100 {
			// downloaded_bytes can outrun a total estimate.
			percent = 100
		}
		totalSize := textField(status, "_total_bytes_str")
		if (totalSize == "N/A" || totalSize == "NA") && total > 0 {
			totalSize = utils.FormatBytes(uint64(total))
		}
		return Event{
			Phase:     PhaseDownloading,
			Percent:   percent,
			Speed:     textField(status, "_speed_str"),
			ETA:       textField(status, "_eta_str"),
			TotalSize: totalSize,
		}, true
	case "finished":
		// Download done, audio extraction starts now.
		return Event{
			Phase:     PhaseConverting,
			Percent:   100,
			Speed:     "-",
			ETA:       "0s",
			TotalSize: textField(status, "_total_bytes_str"),
		}, true
	}
	return Event{}, false
}

func textField(status map[string]any, key string) string {
	raw, ok := status[key].(string)
	if !ok || raw == "" {
		return "N/A"
	}
	return strings.TrimSpace(StripControl(raw))
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return int64(parsed)
	}
	return 0
}
