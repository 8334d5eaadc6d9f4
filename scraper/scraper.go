package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"space-video-pipeline/config"
	"space-video-pipeline/types"
)

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/120.0.0.0 Safari/537.36"

// Scraper pulls headlines for the configured sources, over RSS where the
// source provides a feed and plain HTML otherwise.
type Scraper struct {
	client   *http.Client
	parser   *gofeed.Parser
	sources  map[string]config.Source
	maxItems int
	log      *slog.Logger
}

// New builds a scraper over the configured source list. maxItems caps how
// many headlines one source may contribute.
func New(sources []config.Source, maxItems int, log *slog.Logger) *Scraper {
	byName := make(map[string]config.Source, len(sources))
	for _, s := range sources {
		byName[s.Name] = s
	}
	return &Scraper{
		client:   &http.Client{Timeout: 10 * time.Second},
		parser:   gofeed.NewParser(),
		sources:  byName,
		maxItems: maxItems,
		log:      log,
	}
}

// Headlines fetches the latest headlines for one named source.
func (s *Scraper) Headlines(ctx context.Context, source string) ([]types.HeadlineItem, error) {
	src, ok := s.sources[source]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", source)
	}
	s.log.Debug("scraping source", "source", src.Name, "rss", src.RSS)
	if src.RSS {
		return s.fromFeed(ctx, src)
	}
	return s.fromHTML(ctx, src)
}

func (s *Scraper) fromFeed(ctx context.Context, src config.Source) ([]types.HeadlineItem, error) {
	resp, err := s.get(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.URL, err)
	}

	items := make([]types.HeadlineItem, 0, s.maxItems)
	for _, entry := range feed.Items {
		if len(items) >= s.maxItems {
			break
		}
		link := strings.TrimSpace(entry.Link)
		if link == "" {
			link = src.URL
		}
		item := types.HeadlineItem{
			Title:  strings.TrimSpace(entry.Title),
			URL:    link,
			Source: src.Name,
		}
		if entry.PublishedParsed != nil {
			item.Published = entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			item.Published = entry.UpdatedParsed
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Scraper) fromHTML(ctx context.Context, src config.Source) ([]types.HeadlineItem, error) {
	resp, err := s.get(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", src.URL, err)
	}

	var items []types.HeadlineItem
	doc.Find("h2 a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Text())
		if title == "" {
			return true
		}
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			href = src.URL
		}
		items = append(items, types.HeadlineItem{Title: title, URL: href, Source: src.Name})
		return len(items) < s.maxItems
	})

	if len(items) == 0 {
		// No headline markup on the page; fall back to its title.
		title := strings.TrimSpace(doc.Find("title").First().Text())
		if title == "" {
			title = fmt.Sprintf("Fetched page: %s", src.URL)
		}
		items = append(items, types.HeadlineItem{Title: title, URL: src.URL, Source: src.Name})
	}
	return items, nil
}

func (s *Scraper) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUA)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}
	return resp, nil
}

// SourceNames lists the configured sources in declaration order.
func SourceNames(sources []config.Source) []string {
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name)
	}
	return names
}
