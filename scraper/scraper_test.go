package scraper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"space-video-pipeline/config"
	"space-video-pipeline/logging"
	"space-video-pipeline/scraper"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Breaking Space News</title>
    <item>
      <title>Artemis crew announced</title>
      <link>https://example.com/artemis</link>
      <pubDate>Mon, 17 Aug 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>New exoplanet found</title>
      <link>https://example.com/exoplanet</link>
      <pubDate>Sun, 16 Aug 2026 09:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Third story</title>
      <link>https://example.com/third</link>
    </item>
  </channel>
</rss>`

const htmlPage = `<!DOCTYPE html>
<html>
<head><title>Mission Updates</title></head>
<body>
  <h2><a href="/updates/starship">Starship test flight</a></h2>
  <h2><a href="/updates/dragon">Dragon returns from orbit</a></h2>
  <h2><a href=""> </a></h2>
</body>
</html>`

func serve(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHeadlinesFromRSS(t *testing.T) {
	srv := serve(t, "application/rss+xml", rssFeed)
	s := scraper.New([]config.Source{{Name: "NASA", URL: srv.URL, RSS: true}}, 5, logging.New("test"))

	items, err := s.Headlines(context.Background(), "NASA")
	require.NoError(t, err)
	require.Len(t, items, 3)

	require.Equal(t, "Artemis crew announced", items[0].Title)
	require.Equal(t, "https://example.com/artemis", items[0].URL)
	require.Equal(t, "NASA", items[0].Source)
	require.NotNil(t, items[0].Published)
	require.Nil(t, items[2].Published)
}

func TestHeadlinesRSSCapped(t *testing.T) {
	srv := serve(t, "application/rss+xml", rssFeed)
	s := scraper.New([]config.Source{{Name: "NASA", URL: srv.URL, RSS: true}}, 2, logging.New("test"))

	items, err := s.Headlines(context.Background(), "NASA")
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestHeadlinesFromHTML(t *testing.T) {
	srv := serve(t, "text/html", htmlPage)
	s := scraper.New([]config.Source{{Name: "SpaceX", URL: srv.URL, RSS: false}}, 5, logging.New("test"))

	items, err := s.Headlines(context.Background(), "SpaceX")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Starship test flight", items[0].Title)
	require.Equal(t, "/updates/starship", items[0].URL)
	require.Equal(t, "SpaceX", items[0].Source)
}

func TestHeadlinesHTMLFallsBackToPageTitle(t *testing.T) {
	srv := serve(t, "text/html", `<html><head><title>Mission Updates</title></head><body><p>nothing here</p></body></html>`)
	s := scraper.New([]config.Source{{Name: "SpaceX", URL: srv.URL, RSS: false}}, 5, logging.New("test"))

	items, err := s.Headlines(context.Background(), "SpaceX")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Mission Updates", items[0].Title)
	require.Equal(t, srv.URL, items[0].URL)
}

func TestHeadlinesUnknownSource(t *testing.T) {
	s := scraper.New(nil, 5, logging.New("test"))
	_, err := s.Headlines(context.Background(), "Nowhere")
	require.Error(t, err)
}

func TestHeadlinesBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	s := scraper.New([]config.Source{{Name: "NASA", URL: srv.URL, RSS: true}}, 5, logging.New("test"))
	_, err := s.Headlines(context.Background(), "NASA")
	require.Error(t, err)
}

func TestSourceNames(t *testing.T) {
	names := scraper.SourceNames([]config.Source{{Name: "NASA"}, {Name: "ESA"}})
	require.Equal(t, []string{"NASA", "ESA"}, names)
}
