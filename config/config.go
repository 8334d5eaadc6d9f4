package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"space-video-pipeline/types"
)

// Config holds every tunable of the pipeline, one section per component.
type Config struct {
	Cache     CacheConfig     `yaml:"cache"`
	Sources   []Source        `yaml:"sources"`
	Media     MediaConfig     `yaml:"media"`
	Script    ScriptConfig    `yaml:"script"`
	Narration NarrationConfig `yaml:"narration"`
	Video     VideoConfig     `yaml:"video"`
	Server    ServerConfig    `yaml:"server"`
	Services  ServicesConfig  `yaml:"services"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Paths     PathsConfig     `yaml:"paths"`
}

// Source describes one headline source. RSS sources go through the feed
// parser, the rest through HTML extraction.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	RSS  bool   `yaml:"rss"`
}

type CacheConfig struct {
	TTL      time.Duration `yaml:"ttl"`
	PageSize int           `yaml:"page_size"`
}

type MediaConfig struct {
	TotalCount     int      `yaml:"total_count"`
	Keywords       []string `yaml:"keywords"`
	KeywordsPerRun int      `yaml:"keywords_per_run"`
}

type ScriptConfig struct {
	MaxHeadlines   int `yaml:"max_headlines"`
	WordsPerMinute int `yaml:"words_per_minute"`
}

type NarrationConfig struct {
	Endpoint string  `yaml:"endpoint"`
	Voice    string  `yaml:"voice"`
	Speed    float64 `yaml:"speed"`
}

type VideoConfig struct {
	FPS         int     `yaml:"fps"`
	ClipSeconds float64 `yaml:"clip_seconds"`
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
}

type ServerConfig struct {
	BindAddr string `yaml:"bind_addr"`
}

type ServicesConfig struct {
	NewsURL  string `yaml:"news_url"`
	VideoURL string `yaml:"video_url"`
}

type ScheduleConfig struct {
	Interval time.Duration `yaml:"interval"`
	MinGap   time.Duration `yaml:"min_gap"`
}

type PathsConfig struct {
	Output  string `yaml:"output"`
	LastRun string `yaml:"last_run"`
}

// Load reads a yaml config file, applies env overrides and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv honors the runtime overrides the service has always accepted.
func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("CACHE_TTL_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Cache.TTL = time.Duration(n) * time.Second
		}
	}
	if v, ok := os.LookupEnv("CLIP_DURATION"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Video.ClipSeconds = float64(n)
		}
	}
}

func (c *Config) validate() error {
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Cache.PageSize <= 0 {
		return fmt.Errorf("cache.page_size must be positive")
	}
	if c.Video.FPS <= 0 {
		return fmt.Errorf("video.fps must be positive")
	}
	if c.Video.ClipSeconds <= 0 {
		return fmt.Errorf("video.clip_seconds must be positive")
	}
	if c.Media.TotalCount <= 0 {
		return fmt.Errorf("media.total_count must be positive")
	}
	if c.Script.WordsPerMinute <= 0 {
		c.Script.WordsPerMinute = 150
	}
	if c.Script.MaxHeadlines <= 0 {
		c.Script.MaxHeadlines = 3
	}
	return nil
}

// Credential returns the named env credential or a ConfigurationError.
func Credential(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", &types.ConfigurationError{Name: name}
	}
	return v, nil
}

// OptionalCredential returns the env value with a fallback, never failing.
func OptionalCredential(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
