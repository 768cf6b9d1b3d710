package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tubegrab/tubegrab/internal/utils"
)

func TestNewClientMissingKey(t *testing.T) {
	if _, err := NewClient("", nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

// fakeAPI serves the three endpoints the client uses, with a two-page
// uploads playlist.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			http.Error(w, "missing key", http.StatusForbidden)
			return
		}
		if r.URL.Query().Get("q") != "@Example" {
			fmt.Fprint(w, `{"items":[]}`)
			return
		}
		fmt.Fprint(w, `{"items":[{"snippet":{"channelId":"UCexample"}}]}`)
	})
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "UCexample" {
			fmt.Fprint(w, `{"items":[]}`)
			return
		}
		fmt.Fprint(w, `{"items":[{"snippet":{"title":"Example Channel"},"contentDetails":{"relatedPlaylists":{"uploads":"UUexample"}}}]}`)
	})
	mux.HandleFunc("/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("playlistId") != "UUexample" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		switch r.URL.Query().Get("pageToken") {
		case "":
			fmt.Fprint(w, `{"nextPageToken":"page2","items":[
				{"snippet":{"title":"First","publishedAt":"2024-02-01T00:00:00Z","thumbnails":{"high":{"url":"http://img/1"}}},"contentDetails":{"videoId":"vid1"}},
				{"snippet":{"title":"Second","publishedAt":"2024-01-01T00:00:00Z","thumbnails":{}},"contentDetails":{"videoId":"vid2"}}]}`)
		case "page2":
			fmt.Fprint(w, `{"items":[
				{"snippet":{"title":"Third","publishedAt":"2023-12-01T00:00:00Z","thumbnails":{"high":{"url":"http://img/3"}}},"contentDetails":{"videoId":"vid3"}}]}`)
		default:
			http.Error(w, "bad token", http.StatusBadRequest)
		}
	})
	return httptest.NewServer(mux)
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient("test-key", utils.NewHTTPClient(utils.HTTPClientConfig{}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.baseURL = baseURL
	return client
}

func TestChannelVideosPaginatesHandle(t *testing.T) {
	server := fakeAPI(t)
	defer server.Close()
	client := newTestClient(t, server.URL)

	videos, err := client.ChannelVideos(context.Background(), "https://youtube.com/@Example")
	if err != nil {
		t.Fatalf("ChannelVideos: %v", err)
	}
	if len(videos) != 3 {
		t.Fatalf("expected 3 videos across pages, got %d", len(videos))
	}
	wantIDs := []string{"vid1", "vid2", "vid3"}
	for i, want := range wantIDs {
		if videos[i].ID != want {
			t.Errorf("video %d: got ID %q, want %q", i, videos[i].ID, want)
		}
		if videos[i].Channel != "Example Channel" {
			t.Errorf("video %d: got channel %q", i, videos[i].Channel)
		}
	}
	if videos[0].ThumbnailURL != "http://img/1" {
		t.Errorf("unexpected thumbnail: %q", videos[0].ThumbnailURL)
	}
	if videos[1].ThumbnailURL != "" {
		t.Errorf("expected empty thumbnail when high variant missing, got %q", videos[1].ThumbnailURL)
	}
	if videos[0].PublishedAt != "2024-02-01T00:00:00Z" {
		t.Errorf("unexpected publishedAt: %q", videos[0].PublishedAt)
	}
}

func TestChannelVideosRawID(t *testing.T) {
	server := fakeAPI(t)
	defer server.Close()
	client := newTestClient(t, server.URL)

	videos, err := client.ChannelVideos(context.Background(), "UCexample")
	if err != nil {
		t.Fatalf("ChannelVideos: %v", err)
	}
	if len(videos) != 3 {
		t.Fatalf("expected 3 videos, got %d", len(videos))
	}
}

func TestChannelVideosHandleNotFound(t *testing.T) {
	server := fakeAPI(t)
	defer server.Close()
	client := newTestClient(t, server.URL)

	_, err := client.ChannelVideos(context.Background(), "@Missing")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected a not-found error, got %v", err)
	}
}

func TestChannelVideosUnknownID(t *testing.T) {
	server := fakeAPI(t)
	defer server.Close()
	client := newTestClient(t, server.URL)

	_, err := client.ChannelVideos(context.Background(), "UCnope")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected a not-found error, got %v", err)
	}
}

func TestSortVideos(t *testing.T) {
	videos := []Video{
		{Title: "beta", PublishedAt: "2024-01-02T00:00:00Z"},
		{Title: "Alpha", PublishedAt: "2024-03-01T00:00:00Z"},
		{Title: "gamma", PublishedAt: "2023-11-01T00:00:00Z"},
	}

	SortVideos(videos, "published", true)
	if videos[0].Title != "Alpha" || videos[2].Title != "gamma" {
		t.Errorf("unexpected newest-first order: %v", videos)
	}

	SortVideos(videos, "title", false)
	if videos[0].Title != "Alpha" || videos[1].Title != "beta" || videos[2].Title != "gamma" {
		t.Errorf("unexpected title order: %v", videos)
	}
}
