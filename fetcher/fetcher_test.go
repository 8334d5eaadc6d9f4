package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"space-video-pipeline/fetcher"
	"space-video-pipeline/logging"
	"space-video-pipeline/types"
)

func TestFetchRemoteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "clip.jpg")
	f := fetcher.New(logging.New("test"))

	degraded, err := f.Fetch(context.Background(), srv.URL, dest, fetcher.RoleMedia)
	require.NoError(t, err)
	require.False(t, degraded)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "image bytes", string(data))
}

func TestFetchRemoteFailureIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "clip.jpg")
	f := fetcher.New(logging.New("test"))

	_, err := f.Fetch(context.Background(), srv.URL, dest, fetcher.RoleMedia)
	var fetchErr *types.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, srv.URL, fetchErr.Locator)
}

func TestFetchAudioFailureWritesSilentWAV(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "audio.wav")
	f := fetcher.New(logging.New("test"))

	degraded, err := f.Fetch(context.Background(), "http://127.0.0.1:1/audio.wav", dest, fetcher.RoleAudio)
	require.NoError(t, err)
	require.True(t, degraded)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)

	// 44-byte RIFF header + 1s of 16-bit mono 44.1kHz silence.
	require.Len(t, data, 44+88200)
	require.Equal(t, "RIFF", string(data[0:4]))
	require.Equal(t, "WAVE", string(data[8:12]))
	require.Equal(t, "data", string(data[36:40]))
}

func TestFetchMissingLocalAudioDegrades(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "audio.wav")
	f := fetcher.New(logging.New("test"))

	degraded, err := f.Fetch(context.Background(), "/no/such/file.wav", dest, fetcher.RoleAudio)
	require.NoError(t, err)
	require.True(t, degraded)
	require.FileExists(t, dest)
}

func TestFetchLocalCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	require.NoError(t, os.WriteFile(src, []byte("local bytes"), 0644))

	dest := filepath.Join(dir, "dst.jpg")
	f := fetcher.New(logging.New("test"))

	degraded, err := f.Fetch(context.Background(), src, dest, fetcher.RoleMedia)
	require.NoError(t, err)
	require.False(t, degraded)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "local bytes", string(data))
}

func TestFetchMissingLocalMediaFails(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "dst.jpg")
	f := fetcher.New(logging.New("test"))

	_, err := f.Fetch(context.Background(), "/no/such/file.jpg", dest, fetcher.RoleMedia)
	var fetchErr *types.FetchError
	require.ErrorAs(t, err, &fetchErr)
}
