package types

import (
	"sort"
	"time"
)

// HeadlineItem is one scraped news entry. Ordering within a source follows
// provider order; across sources newest-first (see SortByPublished).
type HeadlineItem struct {
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Source    string     `json:"source"`
	Published *time.Time `json:"published,omitempty"`
}

// MediaProvider identifies where a media asset was found.
type MediaProvider string

const (
	ProviderPexels   MediaProvider = "pexels"
	ProviderUnsplash MediaProvider = "unsplash"
	ProviderNASA     MediaProvider = "nasa"
)

// MediaKind distinguishes still images from video clips.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaAsset is one search hit from a media provider. Assets live only for
// the duration of a single workflow run.
type MediaAsset struct {
	URL         string        `json:"url"`
	Provider    MediaProvider `json:"source"`
	Kind        MediaKind     `json:"type"`
	Attribution string        `json:"photographer"`
	Description string        `json:"alt"`
}

// RunStatus is the terminal-or-progress state of a workflow run.
type RunStatus string

const (
	RunStarted   RunStatus = "started"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// WorkflowRun is the auditable record of one end-to-end pipeline execution.
// Only the orchestrator mutates it.
type WorkflowRun struct {
	ID            string         `json:"id"`
	StartedAt     time.Time      `json:"started_at"`
	Status        RunStatus      `json:"status"`
	Stages        map[string]any `json:"steps"`
	Errors        []string       `json:"errors"`
	Warnings      []string       `json:"warnings,omitempty"`
	FinalVideoURL string         `json:"final_video_url,omitempty"`
	CompletedAt   time.Time      `json:"completed_at"`
	TotalSeconds  float64        `json:"total_duration_seconds"`
}

// SortByPublished orders headlines newest-first. Items without a parseable
// publish time sort last; ties keep their incoming order.
func SortByPublished(items []HeadlineItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Published, items[j].Published
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
