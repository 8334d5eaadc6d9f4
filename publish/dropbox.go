package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"

	"space-video-pipeline/config"
	"space-video-pipeline/types"
)

// Publisher uploads finished artifacts to Dropbox and returns a shareable
// link. A single attempt per call; retry policy belongs to the caller.
type Publisher struct {
	client     *http.Client
	contentURL string
	apiURL     string
	log        *slog.Logger
}

// New builds a publisher from the DROPBOX_TOKEN credential.
func New(ctx context.Context, log *slog.Logger) (*Publisher, error) {
	token, err := config.Credential("DROPBOX_TOKEN")
	if err != nil {
		return nil, err
	}
	return NewWithEndpoints(ctx, token, "https://content.dropboxapi.com", "https://api.dropboxapi.com", log), nil
}

// NewWithEndpoints wires explicit endpoints; tests point these at fakes.
func NewWithEndpoints(ctx context.Context, token, contentURL, apiURL string, log *slog.Logger) *Publisher {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := oauth2.NewClient(ctx, src)
	client.Timeout = 2 * time.Minute
	return &Publisher{
		client:     client,
		contentURL: contentURL,
		apiURL:     apiURL,
		log:        log,
	}
}

// Publish uploads localPath as remoteName (overwriting any previous version)
// and returns a shared link for it.
func (p *Publisher) Publish(ctx context.Context, localPath, remoteName string) (string, error) {
	if err := p.upload(ctx, localPath, remoteName); err != nil {
		return "", &types.PublishError{Op: "upload", Err: err}
	}
	link, err := p.sharedLink(ctx, remoteName)
	if err != nil {
		return "", &types.PublishError{Op: "shared link", Err: err}
	}
	p.log.Info("artifact published", "remote", remoteName, "url", link)
	return link, nil
}

func (p *Publisher) upload(ctx context.Context, localPath, remoteName string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	arg, err := json.Marshal(map[string]any{
		"path": "/" + remoteName,
		"mode": "overwrite",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.contentURL+"/2/files/upload", f)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Dropbox-API-Arg", string(arg))

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, bytes.TrimSpace(body))
	}
	return nil
}

func (p *Publisher) sharedLink(ctx context.Context, remoteName string) (string, error) {
	payload, err := json.Marshal(map[string]string{"path": "/" + remoteName})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.apiURL+"/2/sharing/create_shared_link_with_settings", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("unexpected status %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("no url in shared link response")
	}
	return out.URL, nil
}
