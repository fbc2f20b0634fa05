// Package collector pages through the comments of one post and appends
// them to the comment table, and optionally to the archive.
package collector

import (
	"context"
	"errors"
	"fmt"
	"weibo-analysis/internal/archive"
	"weibo-analysis/internal/comments"
	"weibo-analysis/internal/components/assert"
	"weibo-analysis/internal/components/failure"
	"weibo-analysis/internal/components/telemetry"
	"weibo-analysis/internal/scrapers/weibo"
	"weibo-analysis/pkg/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_collector_run  = "collector.run"
	report_collector_sink = "collector.sink"
)

const (
	DefaultMaxPages = 5
	DefaultOutput   = "data/comments.csv"
)

type Config struct {
	weibo.Config
	PostID    string `json:"post_id"`
	MaxPages  int    `json:"max_pages"`
	Output    string `json:"output"`
	Overwrite bool   `json:"overwrite"`
	// Archive is an optional sqlite path or libsql url that also receives every page.
	Archive string `json:"archive"`
}

func (c Config) WithDefaults() Config {
	c.Config = c.Config.WithDefaults()
	if c.MaxPages == 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	return c
}

// Validate reports missing or invalid values as failure.ErrConfig.
func (c Config) Validate() error {
	var errs []error
	if c.PostID == "" {
		errs = append(errs, fmt.Errorf("post id is required"))
	}
	if c.Cookie == "" {
		errs = append(errs, fmt.Errorf("cookie is required"))
	}
	if c.MaxPages <= 0 {
		errs = append(errs, fmt.Errorf("max pages must be positive, got %d", c.MaxPages))
	}
	if c.Output == "" {
		errs = append(errs, fmt.Errorf("output path is required"))
	}
	if c.RetryCount < 0 {
		errs = append(errs, fmt.Errorf("retry count must not be negative, got %d", c.RetryCount))
	}
	if c.RequestsPerSecond < 0 && c.RequestsPerSecond != weibo.NoRateLimit {
		errs = append(errs, fmt.Errorf("requests per second must not be negative, got %v", c.RequestsPerSecond))
	}
	if len(errs) > 0 {
		return failure.Config("collect", errors.Join(errs...))
	}
	return nil
}

type Result struct {
	RunID string
	// Pages is the number of committed pages, including a final empty one.
	Pages    int
	Comments int
	Output   string
}

// sink receives every fetched page, a page is committed once every sink
// accepted it.
type sink interface {
	WritePage(ctx context.Context, rows []comments.Comment) error
	Close() error
}

type tableSink struct {
	w *comments.Writer
}

func (s tableSink) WritePage(_ context.Context, rows []comments.Comment) error {
	return s.w.WritePage(rows)
}

func (s tableSink) Close() error {
	return s.w.Close()
}

type archiveSink struct {
	store *archive.Store
	runID string
}

func (s archiveSink) WritePage(ctx context.Context, rows []comments.Comment) error {
	return s.store.Insert(ctx, s.runID, rows)
}

func (s archiveSink) Close() error {
	return s.store.Close()
}

type pageFetcher interface {
	FetchPage(ctx context.Context, postID string, page int, cursor int64) (weibo.Page, error)
}

type Collector struct {
	cfg     Config
	client  pageFetcher
	tel     telemetry.API
	pages   metric.Int64Counter
	entries metric.Int64Counter
}

// New builds a collector for `cfg`, defaults are applied and the result is
// validated. `output` receives http dumps and may be nil.
func New(cfg Config, tel telemetry.API, output telemetry.MessageOutput) (*Collector, error) {
	assert.NotNil(tel)

	cfg = cfg.WithDefaults()
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	client, err := weibo.NewClient(cfg.Config, tel, output)
	if err != nil {
		return nil, err
	}
	return newCollector(cfg, client, tel)
}

func newCollector(cfg Config, client pageFetcher, tel telemetry.API) (*Collector, error) {
	meter := otel.Meter("weibo-analysis/internal/collector")
	pages, err := meter.Int64Counter(
		"collector.pages",
		metric.WithDescription("Comment pages committed to the table."),
	)
	if err != nil {
		return nil, err
	}
	entries, err := meter.Int64Counter(
		"collector.comments",
		metric.WithDescription("Comments committed to the table."),
	)
	if err != nil {
		return nil, err
	}

	return &Collector{
		cfg:     cfg,
		client:  client,
		tel:     telemetry.NewScopedAPI("collector", tel),
		pages:   pages,
		entries: entries,
	}, nil
}

// openSinks returns the table sink last, a page only reaches the table once
// every other sink accepted it.
func (c *Collector) openSinks(ctx context.Context, runID string) ([]sink, error) {
	var sinks []sink
	if c.cfg.Archive != "" {
		store, err := archive.Open(ctx, c.cfg.Archive)
		if err != nil {
			return nil, failure.Data("collect", fmt.Errorf("open archive: %w", err))
		}
		sinks = append(sinks, archiveSink{store: store, runID: runID})
	}

	w, err := comments.OpenWriter(c.cfg.Output, c.cfg.Overwrite)
	if err != nil {
		for _, s := range sinks {
			s.Close()
		}
		return nil, failure.Data("collect", fmt.Errorf("open output: %w", err))
	}
	return append(sinks, tableSink{w: w}), nil
}

// Run fetches pages until one comes back empty or the page limit is
// reached. When it fails, everything up to the last committed page stays on
// disk and the returned Result counts those pages.
func (c *Collector) Run(ctx context.Context) (result Result, err error) {
	result.RunID = timezone.Now().Format("20060102T150405.000000000")
	result.Output = c.cfg.Output

	sinks, err := c.openSinks(ctx, result.RunID)
	if err != nil {
		return result, err
	}
	defer func() {
		for _, s := range sinks {
			closeErr := s.Close()
			if closeErr != nil {
				c.tel.ReportBroken(report_collector_sink, fmt.Errorf("close: %w", closeErr))
				if err == nil {
					err = failure.Data("collect", closeErr)
				}
			}
		}
	}()

	attrs := metric.WithAttributes(attribute.String("post_id", c.cfg.PostID))

	var cursor int64
	for page := 1; page <= c.cfg.MaxPages; page++ {
		fetched, err := c.client.FetchPage(ctx, c.cfg.PostID, page, cursor)
		if err != nil {
			return result, fmt.Errorf("%d pages committed: %w", result.Pages, err)
		}

		for _, s := range sinks {
			err = s.WritePage(ctx, fetched.Comments)
			if err != nil {
				c.tel.ReportBroken(report_collector_sink, err, page)
				return result, fmt.Errorf(
					"%d pages committed: %w",
					result.Pages,
					failure.Data(fmt.Sprintf("collect page %d", page), err),
				)
			}
		}
		result.Pages++
		result.Comments += len(fetched.Comments)
		c.pages.Add(ctx, 1, attrs)
		c.entries.Add(ctx, int64(len(fetched.Comments)), attrs)
		c.tel.ReportDebug(report_collector_run, "committed page", page, len(fetched.Comments))

		if len(fetched.Comments) == 0 {
			break
		}
		cursor = fetched.MaxID
	}

	c.tel.ReportCount(report_collector_run, int64(result.Comments))
	return result, nil
}
