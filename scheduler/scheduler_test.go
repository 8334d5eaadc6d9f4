package scheduler

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"space-video-pipeline/logging"
)

func TestMaybeRunPersistsMarker(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "last_run.json")
	r := New(time.Hour, time.Hour, statePath, logging.New("test"))

	calls := 0
	r.maybeRun(context.Background(), func(ctx context.Context) string {
		calls++
		return "completed"
	})
	require.Equal(t, 1, calls)

	data, err := os.ReadFile(statePath)
	require.NoError(t, err)
	var marker lastRun
	require.NoError(t, json.Unmarshal(data, &marker))
	require.Equal(t, "completed", marker.Status)
	require.WithinDuration(t, time.Now().UTC(), marker.Timestamp, 5*time.Second)
}

func TestMaybeRunSkipsWithinMinGap(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "last_run.json")
	r := New(time.Hour, time.Hour, statePath, logging.New("test"))

	calls := 0
	job := func(ctx context.Context) string {
		calls++
		return "completed"
	}

	r.maybeRun(context.Background(), job)
	r.maybeRun(context.Background(), job)
	require.Equal(t, 1, calls)
}

func TestMaybeRunIgnoresCorruptMarker(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "last_run.json")
	require.NoError(t, os.WriteFile(statePath, []byte("not json"), 0644))

	r := New(time.Hour, time.Hour, statePath, logging.New("test"))

	calls := 0
	r.maybeRun(context.Background(), func(ctx context.Context) string {
		calls++
		return "completed"
	})
	require.Equal(t, 1, calls)
}

func TestMaybeRunWithoutStatePath(t *testing.T) {
	r := New(time.Hour, time.Hour, "", logging.New("test"))

	calls := 0
	job := func(ctx context.Context) string {
		calls++
		return "completed"
	}

	// With no marker there is nothing to gate on; every trigger runs.
	r.maybeRun(context.Background(), job)
	r.maybeRun(context.Background(), job)
	require.Equal(t, 2, calls)
}

func TestStartStopsOnCancel(t *testing.T) {
	r := New(time.Hour, 0, "", logging.New("test"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx, func(ctx context.Context) string { return "completed" })
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
