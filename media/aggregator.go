package media

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"space-video-pipeline/types"
)

// Aggregator fans keyword searches out across every configured provider,
// merges the hits and caps the final count.
type Aggregator struct {
	providers []Provider
	log       *slog.Logger
}

// NewAggregator builds an aggregator over the given providers.
func NewAggregator(providers []Provider, log *slog.Logger) *Aggregator {
	return &Aggregator{providers: providers, log: log}
}

// Collect queries every provider for every keyword concurrently. A provider
// failure for one keyword contributes zero assets and a warning; it never
// aborts the aggregation. Results are shuffled for visual variety (plain
// math/rand, nothing cryptographic) and truncated to total.
func (a *Aggregator) Collect(ctx context.Context, keywords []string, total int) ([]types.MediaAsset, []string) {
	if len(keywords) == 0 || len(a.providers) == 0 || total <= 0 {
		return nil, nil
	}

	perSource := total / (len(keywords) * len(a.providers))
	if perSource < 1 {
		perSource = 1
	}

	var (
		mu       sync.Mutex
		all      []types.MediaAsset
		warnings []string
		wg       sync.WaitGroup
	)

	for _, keyword := range keywords {
		for _, provider := range a.providers {
			wg.Add(1)
			go func(keyword string, provider Provider) {
				defer wg.Done()

				assets, err := provider.Search(ctx, keyword, perSource)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					warning := fmt.Sprintf("%s search for %q failed: %v", provider.Name(), keyword, err)
					a.log.Warn("provider search failed", "provider", provider.Name(), "keyword", keyword, "err", err)
					warnings = append(warnings, warning)
					return
				}
				all = append(all, assets...)
			}(keyword, provider)
		}
	}
	wg.Wait()

	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if len(all) > total {
		all = all[:total]
	}
	return all, warnings
}

// SampleKeywords picks up to n keywords at random from the configured pool.
func SampleKeywords(pool []string, n int) []string {
	if n <= 0 || n >= len(pool) {
		out := make([]string, len(pool))
		copy(out, pool)
		return out
	}
	idx := rand.Perm(len(pool))[:n]
	out := make([]string, 0, n)
	for _, i := range idx {
		out = append(out, pool[i])
	}
	return out
}
