package narration

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

	"space-video-pipeline/config"
)

// Service converts script text into an audio file through an external
// speech API. One synchronous request per script.
type Service struct {
	endpoint string
	apiKey   string
	voice    string
	speed    float64
	client   *http.Client
	log      *slog.Logger
}

// New builds the service. The TTS_API_KEY credential is required.
func New(cfg config.NarrationConfig, log *slog.Logger) (*Service, error) {
	key, err := config.Credential("TTS_API_KEY")
	if err != nil {
		return nil, err
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://ttsopenai.com/api/v1"
	}
	speed := cfg.Speed
	if speed <= 0 {
		speed = 1.0
	}
	return &Service{
		endpoint: endpoint,
		apiKey:   key,
		voice:    cfg.Voice,
		speed:    speed,
		client:   &http.Client{Timeout: 60 * time.Second},
		log:      log,
	}, nil
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	Speed          float64 `json:"speed"`
	ResponseFormat string  `json:"response_format"`
}

// Synthesize converts text to speech and returns the path of a temporary
// mp3 file. The caller owns the file and must remove it when done.
func (s *Service) Synthesize(ctx context.Context, text, voice string) (string, error) {
	if voice == "" {
		voice = s.voice
	}
	payload, err := json.Marshal(speechRequest{
		Model:          "tts-1",
		Input:          text,
		Voice:          voice,
		Speed:          s.speed,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tts request: unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "narration_*.mp3")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("save narration: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	s.log.Info("narration synthesized", "file", tmp.Name(), "voice", voice)
	return tmp.Name(), nil
}

// Healthy probes the speech API with a tiny synthesis request and discards
// the result.
func (s *Service) Healthy(ctx context.Context) bool {
	path, err := s.Synthesize(ctx, "Testing connection", "")
	if err != nil {
		s.log.Warn("tts health probe failed", "err", err)
		return false
	}
	os.Remove(path)
	return true
}
