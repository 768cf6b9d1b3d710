package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/tubegrab/tubegrab/internal/utils"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

const pageSize = 50

// ErrMissingAPIKey is returned before any lookup when no credential is
// configured.
var ErrMissingAPIKey = errors.New("youtube api key is missing")

// Video is one entry of a channel's upload catalog.
type Video struct {
	ID           string
	Title        string
	PublishedAt  string // ISO-8601, as reported by the API
	ThumbnailURL string
	Channel      string
}

type Client struct {
	apiKey  string
	baseURL string
	client  utils.HTTPDoer
}

func NewClient(apiKey string, httpClient utils.HTTPDoer) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if httpClient == nil {
		httpClient = utils.NewHTTPClient(utils.HTTPClientConfig{})
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  httpClient,
	}, nil
}

type searchResponse struct {
	Items []struct {
		Snippet struct {
			ChannelID string `json:"channelId"`
		} `json:"snippet"`
	} `json:"items"`
}

type channelsResponse struct {
	Items []struct {
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
			Thumbnails  map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// ChannelVideos resolves a channel reference and returns the channel's full
// upload catalog, paging through the uploads playlist until exhausted.
func (c *Client) ChannelVideos(ctx context.Context, ref string) ([]Video, error) {
	ref = NormalizeChannelRef(ref)
	log := utils.GetLogger("catalog")

	channelID := ref
	if strings.HasPrefix(ref, "@") {
		resolved, err := c.resolveHandle(ctx, ref)
		if err != nil {
			return nil, err
		}
		channelID = resolved
	}

	uploadsID, channelTitle, err := c.channelUploads(ctx, channelID)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("op", "catalog/videos").Str("channel", channelTitle).Msgf("Uploads playlist %s", uploadsID)

	var videos []Video
	pageToken := ""
	for {
		var page playlistItemsResponse
		params := url.Values{
			"part":       {"snippet,contentDetails"},
			"playlistId": {uploadsID},
			"maxResults": {fmt.Sprint(pageSize)},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		if err := c.get(ctx, "playlistItems", params, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			thumbnail := ""
			if high, ok := item.Snippet.Thumbnails["high"]; ok {
				thumbnail = high.URL
			}
			videos = append(videos, Video{
				ID:           item.ContentDetails.VideoID,
				Title:        item.Snippet.Title,
				PublishedAt:  item.Snippet.PublishedAt,
				ThumbnailURL: thumbnail,
				Channel:      channelTitle,
			})
		}
		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}
	log.Debug().Str("op", "catalog/videos").Msgf("Fetched %d videos", len(videos))
	return videos, nil
}

func (c *Client) resolveHandle(ctx context.Context, handle string) (string, error) {
	var resp searchResponse
	params := url.Values{
		"part":       {"snippet"},
		"q":          {handle},
		"type":       {"channel"},
		"maxResults": {"1"},
	}
	if err := c.get(ctx, "search", params, &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("channel handle %q not found", handle)
	}
	return resp.Items[0].Snippet.ChannelID, nil
}

func (c *Client) channelUploads(ctx context.Context, channelID string) (string, string, error) {
	var resp channelsResponse
	params := url.Values{
		"part": {"contentDetails,snippet"},
		"id":   {channelID},
	}
	if err := c.get(ctx, "channels", params, &resp); err != nil {
		return "", "", err
	}
	if len(resp.Items) == 0 {
		return "", "", fmt.Errorf("channel ID %q not found", channelID)
	}
	uploads := resp.Items[0].ContentDetails.RelatedPlaylists.Uploads
	if uploads == "" {
		return "", "", fmt.Errorf("channel %q has no uploads playlist", channelID)
	}
	return uploads, resp.Items[0].Snippet.Title, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, v any) error {
	params.Set("key", c.apiKey)
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return fmt.Errorf("error creating API request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error calling %s endpoint: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s request failed with status code: %d", endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("error decoding %s response: %w", endpoint, err)
	}
	return nil
}

// SortVideos orders a catalog in place by "published" or "title". The
// published timestamps are ISO-8601 so plain string comparison sorts them
// chronologically.
func SortVideos(videos []Video, by string, descending bool) {
	less := func(i, j int) bool { return videos[i].PublishedAt < videos[j].PublishedAt }
	if by == "title" {
		less = func(i, j int) bool {
			return strings.ToLower(videos[i].Title) < strings.ToLower(videos[j].Title)
		}
	}
	sort.SliceStable(videos, less)
	if descending {
		for i, j := 0, len(videos)-1; i < j; i, j = i+1, j-1 {
			videos[i], videos[j] = videos[j], videos[i]
		}
	}
}
