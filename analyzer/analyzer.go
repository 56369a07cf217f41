package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seo-optimizer/auditor/keywords"
	"github.com/seo-optimizer/auditor/stats"
)

// Recorder receives operational counters
type Recorder interface {
	IncrementStats(delta stats.MonthlyStats)
}

// Analyzer runs every analyzer family against a fetched page
type Analyzer struct {
	fetcher      *Fetcher
	robots       *RobotsSitemapAnalyzer
	safeBrowsing *SafeBrowsingAnalyzer
	recorder     Recorder
	logger       *zap.Logger
	now          func() time.Time
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// WithHTTPClient sets the client used for page, robots.txt, sitemap and reputation requests
func WithHTTPClient(c *http.Client) Option {
	return func(a *Analyzer) {
		a.fetcher.Client = c
		a.robots.Client = c
		a.safeBrowsing.Client = c
	}
}

// WithUserAgent sets the User-Agent for outgoing requests
func WithUserAgent(ua string) Option {
	return func(a *Analyzer) {
		a.fetcher.UserAgent = ua
		a.robots.UserAgent = ua
	}
}

// WithSafeBrowsing enables API mode. An empty key keeps heuristic mode.
func WithSafeBrowsing(apiKey, endpoint string) Option {
	return func(a *Analyzer) {
		a.safeBrowsing.APIKey = apiKey
		a.safeBrowsing.Endpoint = endpoint
	}
}

// WithTimeouts overrides the auxiliary fetch and reputation lookup timeouts
func WithTimeouts(auxFetch, reputation time.Duration) Option {
	return func(a *Analyzer) {
		a.robots.Timeout = auxFetch
		a.safeBrowsing.Timeout = reputation
	}
}

// WithRecorder sets where operational counters go
func WithRecorder(r Recorder) Option {
	return func(a *Analyzer) {
		a.recorder = r
	}
}

// WithClock replaces time.Now for report timestamps
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// New creates a new Analyzer instance
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		fetcher:      NewFetcher(15*time.Second, "SEOAuditor/1.0"),
		robots:       &RobotsSitemapAnalyzer{Timeout: defaultAuxFetchTimeout},
		safeBrowsing: &SafeBrowsingAnalyzer{Timeout: defaultSafeBrowsingTimeout},
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	a.robots.Client = a.fetcher.Client
	a.robots.UserAgent = a.fetcher.UserAgent
	a.safeBrowsing.Client = a.fetcher.Client

	for _, opt := range opts {
		opt(a)
	}
	a.robots.Logger = a.logger
	a.safeBrowsing.Logger = a.logger
	return a
}

// SafeBrowsingMode reports the configured reputation strategy
func (a *Analyzer) SafeBrowsingMode() string {
	return a.safeBrowsing.Mode()
}

// Fetch retrieves and parses a page
func (a *Analyzer) Fetch(ctx context.Context, rawURL string) (*FetchedPage, error) {
	page, err := a.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		a.record(stats.MonthlyStats{FetchFailures: 1})
		return nil, err
	}
	return page, nil
}

// AuditURL fetches the page and audits it. Only the fetch can fail.
// The report's URL is rawURL; FinalURL is where redirects ended.
func (a *Analyzer) AuditURL(ctx context.Context, rawURL string) (*Report, error) {
	page, err := a.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("audit %s: %w", rawURL, err)
	}
	report := a.Audit(ctx, page)
	report.URL = strings.TrimSpace(rawURL)
	return report, nil
}

// Audit runs the four analyzer families concurrently, discovers keywords and scores the result
func (a *Analyzer) Audit(ctx context.Context, page *FetchedPage) *Report {
	start := a.now()

	var (
		technical, security, robots, safety []Check
		mode                                string
	)

	// Analyzers never return errors, so the group only provides the join
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		technical = AnalyzeTechnical(page.Document, page.URL, page.StatusCode, page.Headers, page.FetchTime)
		return nil
	})
	g.Go(func() error {
		security = AnalyzeSecurityHeaders(page.Headers)
		return nil
	})
	g.Go(func() error {
		robots = a.robots.Analyze(gctx, page.URL)
		return nil
	})
	g.Go(func() error {
		safety, mode = a.safeBrowsing.Analyze(gctx, page.URL)
		return nil
	})
	_ = g.Wait()

	categories := []Category{
		NewCategory(CategoryTechnical, technical),
		NewCategory(CategorySecurity, security),
		NewCategory(CategoryRobotsSitemap, robots),
		NewCategory(CategorySafeBrowsing, safety),
	}
	score := OverallScore(categories)

	report := &Report{
		URL:              page.URL,
		FinalURL:         page.URL,
		HTTPStatus:       page.StatusCode,
		FetchTimeMs:      page.FetchTime.Milliseconds(),
		PageSize:         page.Size,
		Categories:       categories,
		Score:            score,
		Grade:            Grade(score),
		Keywords:         keywords.Discover(page.Document, page.URL),
		SafeBrowsingMode: mode,
		AuditedAt:        start,
		DurationMs:       a.now().Sub(start).Milliseconds(),
	}

	delta := stats.MonthlyStats{Audits: 1}
	if a.safeBrowsing.Mode() == ModeAPI {
		delta.ReputationLookups = 1
		if mode == ModeHeuristic {
			delta.HeuristicFallbacks = 1
		}
	}
	a.record(delta)

	a.logger.Info("audit complete",
		zap.String("url", page.URL),
		zap.Float64("score", report.Score),
		zap.String("grade", report.Grade),
		zap.Int("page_size", page.Size),
		zap.String("safe_browsing_mode", mode),
		zap.Int64("duration_ms", report.DurationMs),
	)
	return report
}

// DiscoverKeywords runs only keyword discovery against a fetched page
func (a *Analyzer) DiscoverKeywords(page *FetchedPage) []keywords.DiscoveredKeyword {
	return keywords.Discover(page.Document, page.URL)
}

func (a *Analyzer) record(delta stats.MonthlyStats) {
	if a.recorder != nil {
		a.recorder.IncrementStats(delta)
	}
}
