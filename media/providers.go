package media

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"space-video-pipeline/types"
)

// Provider is one keyword-searchable media source.
type Provider interface {
	Name() types.MediaProvider
	Search(ctx context.Context, query string, count int) ([]types.MediaAsset, error)
}

func newClient() *http.Client {
	return &http.Client{Timeout: 20 * time.Second}
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Pexels searches the Pexels photo API.
type Pexels struct {
	key     string
	baseURL string
	client  *http.Client
}

// NewPexels builds a Pexels provider. baseURL is overridable for tests; pass
// "" for the production endpoint.
func NewPexels(key, baseURL string) *Pexels {
	if baseURL == "" {
		baseURL = "https://api.pexels.com"
	}
	return &Pexels{key: key, baseURL: baseURL, client: newClient()}
}

func (p *Pexels) Name() types.MediaProvider { return types.ProviderPexels }

func (p *Pexels) Search(ctx context.Context, query string, count int) ([]types.MediaAsset, error) {
	if count > 80 {
		count = 80
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", fmt.Sprint(count))
	q.Set("orientation", "landscape")

	var body struct {
		Photos []struct {
			Src struct {
				Large string `json:"large"`
			} `json:"src"`
			Photographer string `json:"photographer"`
			Alt          string `json:"alt"`
		} `json:"photos"`
	}
	header := http.Header{"Authorization": {p.key}}
	if err := getJSON(ctx, p.client, p.baseURL+"/v1/search?"+q.Encode(), header, &body); err != nil {
		return nil, fmt.Errorf("pexels search: %w", err)
	}

	assets := make([]types.MediaAsset, 0, len(body.Photos))
	for _, photo := range body.Photos {
		alt := photo.Alt
		if alt == "" {
			alt = query
		}
		assets = append(assets, types.MediaAsset{
			URL:         photo.Src.Large,
			Provider:    types.ProviderPexels,
			Kind:        types.MediaImage,
			Attribution: photo.Photographer,
			Description: alt,
		})
	}
	return assets, nil
}

// Unsplash searches the Unsplash photo API.
type Unsplash struct {
	key     string
	baseURL string
	client  *http.Client
}

// NewUnsplash builds an Unsplash provider; baseURL "" means production.
func NewUnsplash(key, baseURL string) *Unsplash {
	if baseURL == "" {
		baseURL = "https://api.unsplash.com"
	}
	return &Unsplash{key: key, baseURL: baseURL, client: newClient()}
}

func (u *Unsplash) Name() types.MediaProvider { return types.ProviderUnsplash }

func (u *Unsplash) Search(ctx context.Context, query string, count int) ([]types.MediaAsset, error) {
	if count > 30 {
		count = 30
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", fmt.Sprint(count))
	q.Set("orientation", "landscape")

	var body struct {
		Results []struct {
			URLs struct {
				Regular string `json:"regular"`
			} `json:"urls"`
			User struct {
				Name string `json:"name"`
			} `json:"user"`
			AltDescription string `json:"alt_description"`
		} `json:"results"`
	}
	header := http.Header{"Authorization": {"Client-ID " + u.key}}
	if err := getJSON(ctx, u.client, u.baseURL+"/search/photos?"+q.Encode(), header, &body); err != nil {
		return nil, fmt.Errorf("unsplash search: %w", err)
	}

	assets := make([]types.MediaAsset, 0, len(body.Results))
	for _, photo := range body.Results {
		alt := photo.AltDescription
		if alt == "" {
			alt = query
		}
		assets = append(assets, types.MediaAsset{
			URL:         photo.URLs.Regular,
			Provider:    types.ProviderUnsplash,
			Kind:        types.MediaImage,
			Attribution: photo.User.Name,
			Description: alt,
		})
	}
	return assets, nil
}

// NASA searches the NASA image and video library. It needs no key.
type NASA struct {
	baseURL string
	client  *http.Client
}

// NewNASA builds a NASA provider; baseURL "" means production.
func NewNASA(baseURL string) *NASA {
	if baseURL == "" {
		baseURL = "https://images-api.nasa.gov"
	}
	return &NASA{baseURL: baseURL, client: newClient()}
}

func (n *NASA) Name() types.MediaProvider { return types.ProviderNASA }

func (n *NASA) Search(ctx context.Context, query string, count int) ([]types.MediaAsset, error) {
	if count > 100 {
		count = 100
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("media_type", "image,video")
	q.Set("page_size", fmt.Sprint(count))

	var body struct {
		Collection struct {
			Items []struct {
				Data []struct {
					Title       string `json:"title"`
					Description string `json:"description"`
				} `json:"data"`
				Links []struct {
					Href string `json:"href"`
				} `json:"links"`
			} `json:"items"`
		} `json:"collection"`
	}
	if err := getJSON(ctx, n.client, n.baseURL+"/search?"+q.Encode(), nil, &body); err != nil {
		return nil, fmt.Errorf("nasa search: %w", err)
	}

	var assets []types.MediaAsset
	for _, item := range body.Collection.Items {
		if len(item.Links) == 0 {
			continue
		}
		href := item.Links[0].Href
		kind := types.MediaImage
		if strings.Contains(strings.ToLower(href), "mp4") {
			kind = types.MediaVideo
		}
		asset := types.MediaAsset{
			URL:         href,
			Provider:    types.ProviderNASA,
			Kind:        kind,
			Attribution: "NASA",
			Description: query,
		}
		if len(item.Data) > 0 {
			if item.Data[0].Title != "" {
				asset.Description = item.Data[0].Title
			}
		}
		assets = append(assets, asset)
	}
	return assets, nil
}
