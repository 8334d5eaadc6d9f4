package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"space-video-pipeline/assembly"
	"space-video-pipeline/config"
	"space-video-pipeline/fetcher"
	"space-video-pipeline/newscache"
	"space-video-pipeline/types"
)

// Assembler is the video muxing collaborator.
type Assembler interface {
	Assemble(ctx context.Context, mediaPaths []string, audioPath string, policy assembly.ClipDuration, workDir string) (string, error)
}

// Publisher ships a finished artifact to remote storage.
type Publisher interface {
	Publish(ctx context.Context, localPath, remoteName string) (string, error)
}

// ImageSearcher backs the /search-images endpoint.
type ImageSearcher interface {
	Search(ctx context.Context, query string, count int) ([]types.MediaAsset, error)
}

// Server exposes the scraping, caching and video production surface over
// HTTP. Publisher and ImageSearcher may be nil when their credentials are
// absent; the matching endpoints then answer with a configuration error.
type Server struct {
	cfg       *config.Config
	cache     *newscache.Cache
	fetch     *fetcher.Fetcher
	assembler Assembler
	publisher Publisher
	images    ImageSearcher
	log       *slog.Logger
}

// New wires the HTTP service.
func New(cfg *config.Config, cache *newscache.Cache, fetch *fetcher.Fetcher, asm Assembler, pub Publisher, images ImageSearcher, log *slog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		cache:     cache,
		fetch:     fetch,
		assembler: asm,
		publisher: pub,
		images:    images,
		log:       log,
	}
}

// Routes builds the chi router for the service.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/scrape-news", s.handleScrapeNews)
	r.Post("/cache/clear", s.handleCacheClear)
	r.Get("/search-images", s.handleSearchImages)
	r.Post("/process", s.handleProcess)
	return r
}

type envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: map[string]string{"message": "ok"}})
}

func (s *Server) handleScrapeNews(w http.ResponseWriter, r *http.Request) {
	refresh := strings.EqualFold(r.URL.Query().Get("refresh"), "true")

	results := make(map[string][]types.HeadlineItem, len(s.cfg.Sources))
	for _, src := range s.cfg.Sources {
		entry := s.cache.Get(r.Context(), src.Name, refresh)
		results[src.Name] = entry.Headlines
	}
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: results})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		s.cache.EvictAll()
		writeJSON(w, http.StatusOK, envelope{Status: "success", Data: map[string]string{"message": "Cache cleared for all sources"}})
		return
	}

	if err := s.cache.Evict(source); err != nil {
		var notFound *types.NotFoundError
		if errors.As(err, &notFound) {
			writeJSON(w, http.StatusNotFound, envelope{Status: "error", Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, envelope{Status: "error", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: map[string]string{"message": fmt.Sprintf("Cache cleared for %s", source)}})
}

func (s *Server) handleSearchImages(w http.ResponseWriter, r *http.Request) {
	if s.images == nil {
		writeJSON(w, http.StatusInternalServerError, envelope{Status: "error", Error: "Missing PIXABAY-compatible image search key in environment"})
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		query = "space"
	}
	count := 5
	if raw := r.URL.Query().Get("count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			count = n
		}
	}

	assets, err := s.images.Search(r.Context(), query, count)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{Status: "error", Error: err.Error()})
		return
	}
	urls := make([]string, 0, len(assets))
	for _, asset := range assets {
		urls = append(urls, asset.URL)
	}
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: urls})
}

type processPayload struct {
	AudioURL  string   `json:"audio_url"`
	MediaURLs []string `json:"media_urls"`
	Title     string   `json:"title"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var payload processPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Status: "error", Error: "invalid JSON body"})
		return
	}
	if payload.AudioURL == "" || len(payload.MediaURLs) == 0 {
		writeJSON(w, http.StatusBadRequest, envelope{Status: "error", Error: "Missing audio_url or media_urls"})
		return
	}
	if s.publisher == nil {
		writeJSON(w, http.StatusInternalServerError, envelope{Status: "error", Error: "Missing Dropbox token"})
		return
	}

	// All intermediate files live in one temp dir and vanish with the
	// request, success or failure.
	tmpDir, err := os.MkdirTemp("", "process_*")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{Status: "error", Error: err.Error()})
		return
	}
	defer os.RemoveAll(tmpDir)

	ctx := r.Context()

	audioPath := filepath.Join(tmpDir, "audio.wav")
	if degraded, err := s.fetch.Fetch(ctx, payload.AudioURL, audioPath, fetcher.RoleAudio); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Status: "error", Error: fmt.Sprintf("Audio handling failed: %v", err)})
		return
	} else if degraded {
		s.log.Warn("narration unavailable, video will be silent", "audio_url", payload.AudioURL)
	}

	mediaPaths := make([]string, 0, len(payload.MediaURLs))
	for i, url := range payload.MediaURLs {
		dest := filepath.Join(tmpDir, fmt.Sprintf("clip_%d%s", i, clipExt(url)))
		if _, err := s.fetch.Fetch(ctx, url, dest, fetcher.RoleMedia); err != nil {
			writeJSON(w, http.StatusBadRequest, envelope{Status: "error", Error: fmt.Sprintf("Failed to download media: %s (%v)", url, err)})
			return
		}
		mediaPaths = append(mediaPaths, dest)
	}

	videoPath, err := s.assembler.Assemble(ctx, mediaPaths, audioPath, assembly.FixedSeconds(s.cfg.Video.ClipSeconds), tmpDir)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{Status: "error", Error: err.Error()})
		return
	}

	link, err := s.publisher.Publish(ctx, videoPath, "final_video.mp4")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{Status: "error", Error: fmt.Sprintf("Upload failed: %v", err)})
		return
	}

	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: map[string]string{"video_url": link}})
}

// clipExt keeps the remote extension so the assembler can tell images from
// video clips; unknown extensions default to jpg.
func clipExt(url string) string {
	ext := strings.ToLower(filepath.Ext(strings.SplitN(url, "?", 2)[0]))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".mp4", ".mov", ".webm":
		return ext
	}
	return ".jpg"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
