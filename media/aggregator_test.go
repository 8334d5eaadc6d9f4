package media_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"space-video-pipeline/logging"
	"space-video-pipeline/media"
	"space-video-pipeline/types"
)

const pexelsBody = `{"photos":[
	{"src":{"large":"https://img.example/p1.jpg"},"photographer":"Ann","alt":"red planet"},
	{"src":{"large":"https://img.example/p2.jpg"},"photographer":"Bob","alt":""}
]}`

const unsplashBody = `{"results":[
	{"urls":{"regular":"https://img.example/u1.jpg"},"user":{"name":"Cleo"},"alt_description":"mars dust"}
]}`

const nasaBody = `{"collection":{"items":[
	{"data":[{"title":"Mars Rover","description":"rover"}],"links":[{"href":"https://img.example/n1.jpg"}]},
	{"data":[{"title":"Launch"}],"links":[{"href":"https://img.example/n2.mp4"}]}
]}}`

func fakeProviderServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "provider down", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPexelsSearchParsesAssets(t *testing.T) {
	srv := fakeProviderServer(t, pexelsBody, http.StatusOK)
	p := media.NewPexels("key", srv.URL)

	assets, err := p.Search(context.Background(), "mars", 5)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	require.Equal(t, types.ProviderPexels, assets[0].Provider)
	require.Equal(t, types.MediaImage, assets[0].Kind)
	require.Equal(t, "Ann", assets[0].Attribution)
	require.Equal(t, "red planet", assets[0].Description)
	// Empty alt falls back to the query.
	require.Equal(t, "mars", assets[1].Description)
}

func TestNASASearchDetectsVideo(t *testing.T) {
	srv := fakeProviderServer(t, nasaBody, http.StatusOK)
	n := media.NewNASA(srv.URL)

	assets, err := n.Search(context.Background(), "mars", 5)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	require.Equal(t, types.MediaImage, assets[0].Kind)
	require.Equal(t, types.MediaVideo, assets[1].Kind)
	require.Equal(t, "NASA", assets[0].Attribution)
}

func TestCollectSurvivesOneFailingProvider(t *testing.T) {
	okPexels := fakeProviderServer(t, pexelsBody, http.StatusOK)
	okNASA := fakeProviderServer(t, nasaBody, http.StatusOK)
	broken := fakeProviderServer(t, "", http.StatusInternalServerError)

	agg := media.NewAggregator([]media.Provider{
		media.NewPexels("key", okPexels.URL),
		media.NewUnsplash("key", broken.URL),
		media.NewNASA(okNASA.URL),
	}, logging.New("test"))

	assets, warnings := agg.Collect(context.Background(), []string{"mars"}, 10)

	require.NotEmpty(t, assets)
	require.LessOrEqual(t, len(assets), 10)
	for _, asset := range assets {
		require.NotEqual(t, types.ProviderUnsplash, asset.Provider)
	}
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "unsplash")
}

func TestCollectCapsTotal(t *testing.T) {
	okPexels := fakeProviderServer(t, pexelsBody, http.StatusOK)
	okUnsplash := fakeProviderServer(t, unsplashBody, http.StatusOK)
	okNASA := fakeProviderServer(t, nasaBody, http.StatusOK)

	agg := media.NewAggregator([]media.Provider{
		media.NewPexels("key", okPexels.URL),
		media.NewUnsplash("key", okUnsplash.URL),
		media.NewNASA(okNASA.URL),
	}, logging.New("test"))

	assets, warnings := agg.Collect(context.Background(), []string{"mars", "galaxy"}, 3)
	require.Empty(t, warnings)
	require.Len(t, assets, 3)
}

func TestCollectEmptyKeywords(t *testing.T) {
	agg := media.NewAggregator([]media.Provider{media.NewNASA("")}, logging.New("test"))
	assets, warnings := agg.Collect(context.Background(), nil, 10)
	require.Empty(t, assets)
	require.Empty(t, warnings)
}

func TestSampleKeywords(t *testing.T) {
	pool := []string{"a", "b", "c", "d", "e"}

	got := media.SampleKeywords(pool, 3)
	require.Len(t, got, 3)
	for _, k := range got {
		require.Contains(t, pool, k)
	}

	// Asking for more than the pool returns the whole pool.
	require.ElementsMatch(t, pool, media.SampleKeywords(pool, 10))
}
