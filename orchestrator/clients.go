package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"space-video-pipeline/types"
)

// NewsClient talks to the scraper service's /scrape-news surface.
type NewsClient struct {
	baseURL string
	client  *http.Client
}

// NewNewsClient builds a client for the news scraping service.
func NewNewsClient(baseURL string) *NewsClient {
	return &NewsClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Latest fetches the current per-source headline map.
func (c *NewsClient) Latest(ctx context.Context, refresh bool) (map[string][]types.HeadlineItem, error) {
	url := c.baseURL + "/scrape-news"
	if refresh {
		url += "?refresh=true"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status string                          `json:"status"`
		Data   map[string][]types.HeadlineItem `json:"data"`
		Error  string                          `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parse news response: %w", err)
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("news service error: %s", body.Error)
	}
	return body.Data, nil
}

// Health reports whether the news service answers its health endpoint.
func (c *NewsClient) Health(ctx context.Context) bool {
	return probe(ctx, c.client, c.baseURL+"/health", 10*time.Second)
}

// VideoClient talks to the video production service's /process surface.
type VideoClient struct {
	baseURL string
	client  *http.Client
}

// NewVideoClient builds a client for the video production service. Video
// processing is slow, so the timeout is generous.
func NewVideoClient(baseURL string) *VideoClient {
	return &VideoClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

type processRequest struct {
	AudioURL  string   `json:"audio_url"`
	MediaURLs []string `json:"media_urls"`
	Title     string   `json:"title"`
}

// Process submits one assembly job and returns the published video URL.
func (c *VideoClient) Process(ctx context.Context, audioURL string, mediaURLs []string, title string) (string, error) {
	payload, err := json.Marshal(processRequest{
		AudioURL:  audioURL,
		MediaURLs: mediaURLs,
		Title:     title,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("process request: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
		Data   struct {
			VideoURL string `json:"video_url"`
			Message  string `json:"message"`
		} `json:"data"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("parse process response: %w", err)
	}
	if body.Status != "success" || body.Data.VideoURL == "" {
		msg := body.Error
		if msg == "" {
			msg = body.Data.Message
		}
		return "", fmt.Errorf("video production failed: %s", msg)
	}
	return body.Data.VideoURL, nil
}

// Health reports whether the video service answers its health endpoint.
func (c *VideoClient) Health(ctx context.Context) bool {
	return probe(ctx, c.client, c.baseURL+"/health", 10*time.Second)
}

func probe(ctx context.Context, client *http.Client, url string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
