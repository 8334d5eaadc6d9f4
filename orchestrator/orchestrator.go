package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"space-video-pipeline/config"
	"space-video-pipeline/media"
	"space-video-pipeline/narration"
	"space-video-pipeline/script"
	"space-video-pipeline/types"
)

// NewsSource provides current headlines and a health probe.
type NewsSource interface {
	Latest(ctx context.Context, refresh bool) (map[string][]types.HeadlineItem, error)
	Health(ctx context.Context) bool
}

// VideoProducer turns narration plus media URLs into a published video.
type VideoProducer interface {
	Process(ctx context.Context, audioURL string, mediaURLs []string, title string) (string, error)
	Health(ctx context.Context) bool
}

// MediaCollector gathers media assets for a keyword set.
type MediaCollector interface {
	Collect(ctx context.Context, keywords []string, total int) ([]types.MediaAsset, []string)
}

// SpeechSynthesizer converts script text into a local audio file.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (string, error)
	Healthy(ctx context.Context) bool
}

// ScriptComposer turns headlines into narration text.
type ScriptComposer interface {
	Compose(items []types.HeadlineItem, targetSeconds int) string
}

// Deps wires every collaborator into the orchestrator.
type Deps struct {
	News     NewsSource
	Video    VideoProducer
	Media    MediaCollector
	Speech   SpeechSynthesizer
	Composer ScriptComposer
}

// Stage result payloads, keyed into WorkflowRun.Stages.
type (
	NewsStage struct {
		ItemsFound int      `json:"items_found"`
		Sources    []string `json:"sources"`
	}
	ScriptStage struct {
		WordCount         int     `json:"word_count"`
		EstimatedDuration float64 `json:"estimated_duration"`
	}
	TTSStage struct {
		AudioFile string `json:"audio_file"`
		VoiceUsed string `json:"voice_used"`
	}
	MediaStage struct {
		TotalItems int      `json:"total_items"`
		Sources    []string `json:"sources"`
		Types      []string `json:"types"`
	}
	PreparationStage struct {
		MediaURLCount int    `json:"media_urls_count"`
		VideoTitle    string `json:"video_title"`
		AudioReady    bool   `json:"audio_ready"`
	}
	ProductionStage struct {
		VideoURL string `json:"video_url"`
	}
)

var fallbackTitles = []string{
	"Amazing Space Discoveries This Week!",
	"Space Exploration Updates You Need to Know",
	"Incredible Cosmic News and Updates",
	"This Week in Space: Amazing Discoveries",
	"Space News: Latest Updates from the Cosmos",
}

// Orchestrator sequences the full workflow: health gate, news, script,
// narration, media, assembly and publish, with per-stage results and
// guaranteed temp cleanup.
type Orchestrator struct {
	deps Deps
	cfg  *config.Config
	log  *slog.Logger
}

// New wires an orchestrator from explicit collaborators.
func New(deps Deps, cfg *config.Config, log *slog.Logger) *Orchestrator {
	return &Orchestrator{deps: deps, cfg: cfg, log: log}
}

// FromConfig builds the production wiring: HTTP clients against the
// collaborator service, real media providers and the TTS service.
func FromConfig(cfg *config.Config, log *slog.Logger) (*Orchestrator, error) {
	speech, err := narration.New(cfg.Narration, log.With("component", "narration"))
	if err != nil {
		return nil, err
	}

	providers := []media.Provider{
		media.NewPexels(config.OptionalCredential("PEXELS_API_KEY", ""), ""),
		media.NewUnsplash(config.OptionalCredential("UNSPLASH_ACCESS_KEY", ""), ""),
		media.NewNASA(""),
	}

	deps := Deps{
		News:     NewNewsClient(cfg.Services.NewsURL),
		Video:    NewVideoClient(cfg.Services.VideoURL),
		Media:    media.NewAggregator(providers, log.With("component", "media")),
		Speech:   speech,
		Composer: script.NewComposer(cfg.Script.MaxHeadlines, cfg.Script.WordsPerMinute),
	}
	return New(deps, cfg, log), nil
}

// HealthCheck probes every dependent service and reports a per-service map.
func (o *Orchestrator) HealthCheck(ctx context.Context) map[string]bool {
	return map[string]bool{
		"news_scraper":   o.deps.News.Health(ctx),
		"video_producer": o.deps.Video.Health(ctx),
		"tts_service":    o.deps.Speech.Healthy(ctx),
		"media_apis":     os.Getenv("PEXELS_API_KEY") != "" && os.Getenv("UNSPLASH_ACCESS_KEY") != "",
	}
}

// Run executes the complete workflow and always returns a structured run
// record, never a bare error. Optional-stage failures degrade to warnings;
// precondition failures terminate the run as Failed. The narration temp file
// is released on every exit path.
func (o *Orchestrator) Run(ctx context.Context, targetSeconds int, voice string) *types.WorkflowRun {
	start := time.Now()
	run := &types.WorkflowRun{
		ID:        uuid.NewString()[:8],
		StartedAt: start.UTC(),
		Status:    types.RunStarted,
		Stages:    make(map[string]any),
		Errors:    []string{},
	}

	var audioFile string
	defer func() {
		if audioFile != "" {
			if err := os.Remove(audioFile); err != nil && !os.IsNotExist(err) {
				o.log.Warn("audio cleanup failed", "file", audioFile, "err", err)
			} else {
				o.log.Info("cleaned up narration audio", "file", audioFile)
			}
		}
		run.CompletedAt = time.Now().UTC()
		run.TotalSeconds = time.Since(start).Seconds()
		o.log.Info("workflow finished", "run", run.ID, "status", run.Status, "seconds", run.TotalSeconds)
	}()

	o.log.Info("workflow started", "run", run.ID, "target_seconds", targetSeconds, "voice", voice)

	// Step 1: health check. Advisory only; degraded services are warned
	// about and the run advances regardless.
	health := o.HealthCheck(ctx)
	run.Stages["health_check"] = health
	var down []string
	for service, ok := range health {
		if !ok {
			down = append(down, service)
		}
	}
	if len(down) > 0 {
		sort.Strings(down)
		warn := fmt.Sprintf("Services not available: %s", strings.Join(down, ", "))
		run.Warnings = append(run.Warnings, warn)
		o.log.Warn(warn)
	}

	// Step 2: scrape news. A scrape failure is survivable; the composer
	// falls back to its topic pool.
	var headlines []types.HeadlineItem
	bySource, err := o.deps.News.Latest(ctx, false)
	if err != nil {
		run.Warnings = append(run.Warnings, fmt.Sprintf("news scraping degraded: %v", err))
		o.log.Warn("news scraping degraded", "err", err)
	} else {
		headlines = flatten(bySource)
	}
	run.Stages["news_scraping"] = NewsStage{
		ItemsFound: len(headlines),
		Sources:    sourceSet(headlines),
	}

	// Step 3: compose script.
	text := o.deps.Composer.Compose(headlines, targetSeconds)
	words := len(strings.Fields(text))
	if words == 0 {
		return o.fail(run, "empty script produced")
	}
	run.Stages["script_generation"] = ScriptStage{
		WordCount:         words,
		EstimatedDuration: float64(words) / 150.0 * 60.0,
	}

	// Step 4: synthesize narration. Hard precondition for assembly.
	audioFile, err = o.deps.Speech.Synthesize(ctx, text, voice)
	if err != nil {
		return o.fail(run, fmt.Sprintf("failed to generate TTS audio: %v", err))
	}
	run.Stages["tts_generation"] = TTSStage{AudioFile: audioFile, VoiceUsed: voice}

	// Step 5: collect media. An empty set is fatal.
	keywords := media.SampleKeywords(o.cfg.Media.Keywords, o.cfg.Media.KeywordsPerRun)
	assets, warnings := o.deps.Media.Collect(ctx, keywords, o.cfg.Media.TotalCount)
	run.Warnings = append(run.Warnings, warnings...)
	run.Stages["media_collection"] = MediaStage{
		TotalItems: len(assets),
		Sources:    providerSet(assets),
		Types:      kindSet(assets),
	}
	if len(assets) == 0 {
		return o.fail(run, "no media items collected")
	}

	// Step 6: prepare production inputs.
	urls := make([]string, 0, len(assets))
	for _, asset := range assets {
		if asset.URL != "" {
			urls = append(urls, asset.URL)
		}
	}
	title := videoTitle(headlines)
	run.Stages["video_preparation"] = PreparationStage{
		MediaURLCount: len(urls),
		VideoTitle:    title,
		AudioReady:    audioFile != "",
	}

	// Step 7: produce and publish.
	videoURL, err := o.deps.Video.Process(ctx, audioFile, urls, title)
	if err != nil {
		return o.fail(run, fmt.Sprintf("video production failed: %v", err))
	}
	run.Stages["video_production"] = ProductionStage{VideoURL: videoURL}
	run.FinalVideoURL = videoURL
	run.Status = types.RunCompleted
	return run
}

func (o *Orchestrator) fail(run *types.WorkflowRun, msg string) *types.WorkflowRun {
	run.Errors = append(run.Errors, "Workflow failed: "+msg)
	run.Status = types.RunFailed
	o.log.Error("workflow failed", "run", run.ID, "err", msg)
	return run
}

// flatten orders the per-source map deterministically by source name, then
// newest-first across sources.
func flatten(bySource map[string][]types.HeadlineItem) []types.HeadlineItem {
	names := make([]string, 0, len(bySource))
	for name := range bySource {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []types.HeadlineItem
	for _, name := range names {
		out = append(out, bySource[name]...)
	}
	types.SortByPublished(out)
	return out
}

func videoTitle(headlines []types.HeadlineItem) string {
	for _, item := range headlines {
		if item.Source != "" {
			return fmt.Sprintf("Latest Space News: %s Updates & More!", item.Source)
		}
	}
	return fallbackTitles[rand.Intn(len(fallbackTitles))]
}

func sourceSet(items []types.HeadlineItem) []string {
	return uniqueStrings(items, func(h types.HeadlineItem) string { return h.Source })
}

func providerSet(assets []types.MediaAsset) []string {
	return uniqueStrings(assets, func(a types.MediaAsset) string { return string(a.Provider) })
}

func kindSet(assets []types.MediaAsset) []string {
	return uniqueStrings(assets, func(a types.MediaAsset) string { return string(a.Kind) })
}

func uniqueStrings[T any](items []T, key func(T) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range items {
		k := key(item)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
