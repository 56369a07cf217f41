package analyzer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// Robots/sitemap check ids
const (
	CheckRobotsTxt        = "robots-txt"
	CheckSitemapXML       = "sitemap-xml"
	CheckSitemapReference = "sitemap-reference"
)

const (
	defaultAuxFetchTimeout = 5 * time.Second
	maxAuxBodyBytes        = 2 << 20
)

var (
	userAgentDirective = regexp.MustCompile(`(?i)user-agent\s*:`)
	sitemapDirective   = regexp.MustCompile(`(?i)sitemap\s*:`)
)

// RobotsSitemapAnalyzer fetches robots.txt and the sitemap of the audited origin
type RobotsSitemapAnalyzer struct {
	Client    *http.Client
	Timeout   time.Duration // per fetch
	UserAgent string
	Logger    *zap.Logger
}

// robotsFile is what was learned from robots.txt
type robotsFile struct {
	found      bool
	blocking   bool
	referenced bool
	sitemapURL string
}

// Analyze returns the robots.txt, sitemap and sitemap-reference checks. Fetch failures and
// timeouts count as "not found"; three checks are always returned.
func (a *RobotsSitemapAnalyzer) Analyze(ctx context.Context, pageURL string) []Check {
	origin, err := originOf(pageURL)
	if err != nil {
		a.logger().Debug("robots: unusable url", zap.String("url", pageURL), zap.Error(err))
		return []Check{
			robotsCheck(robotsFile{}),
			sitemapCheck("", false),
			sitemapReferenceCheck(robotsFile{}),
		}
	}

	robots := a.inspectRobots(ctx, origin)

	sitemapURL := robots.sitemapURL
	if sitemapURL == "" {
		sitemapURL = origin + "/sitemap.xml"
	}
	sitemapFound := false
	if body, ok := a.fetch(ctx, sitemapURL); ok {
		sitemapFound = strings.Contains(body, "<urlset") || strings.Contains(body, "<sitemapindex")
	}

	return []Check{
		robotsCheck(robots),
		sitemapCheck(sitemapURL, sitemapFound),
		sitemapReferenceCheck(robots),
	}
}

func (a *RobotsSitemapAnalyzer) inspectRobots(ctx context.Context, origin string) robotsFile {
	body, ok := a.fetch(ctx, origin+"/robots.txt")
	if !ok || !userAgentDirective.MatchString(body) {
		return robotsFile{}
	}

	rf := robotsFile{
		found:      true,
		referenced: sitemapDirective.MatchString(body),
	}

	data, err := robotstxt.FromString(body)
	if err != nil {
		a.logger().Debug("robots: parse failed", zap.String("origin", origin), zap.Error(err))
		return rf
	}
	// Only a site-wide disallow for every crawler is treated as blocking
	rf.blocking = !data.TestAgent("/", "*")
	if len(data.Sitemaps) > 0 {
		rf.sitemapURL = strings.TrimSpace(data.Sitemaps[0])
	}
	return rf
}

// fetch performs a single bounded GET. Any error, timeout or non-2xx response reports ok=false.
func (a *RobotsSitemapAnalyzer) fetch(ctx context.Context, target string) (string, bool) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = defaultAuxFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", false
	}
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	resp, err := a.client().Do(req)
	if err != nil {
		a.logger().Debug("robots: fetch failed", zap.String("url", target), zap.Error(err))
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAuxBodyBytes))
	if err != nil {
		return "", false
	}
	return string(body), true
}

func (a *RobotsSitemapAnalyzer) client() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	return http.DefaultClient
}

func (a *RobotsSitemapAnalyzer) logger() *zap.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return zap.NewNop()
}

func originOf(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("not an absolute http(s) url: %q", pageURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

func robotsCheck(rf robotsFile) Check {
	c := Check{
		ID:           CheckRobotsTxt,
		Title:        "Robots.txt",
		Description:  "robots.txt tells crawlers which parts of the site they may visit.",
		Severity:     SeverityMajor,
		LearnMoreURL: "https://developers.google.com/search/docs/crawling-indexing/robots/intro",
	}
	switch {
	case !rf.found:
		c.Status = StatusFail
		c.Details = "No robots.txt with a User-agent directive was found."
		c.Recommendation = "Publish a robots.txt at the site root."
		c.CodeSnippet = "User-agent: *\nAllow: /\n\nSitemap: https://example.com/sitemap.xml"
	case rf.blocking:
		c.Status = StatusWarning
		c.Severity = SeverityCritical
		c.Value = "Disallow: /"
		c.Details = "robots.txt disallows the whole site for all crawlers."
		c.Recommendation = "Remove the site-wide Disallow unless the site must stay out of search engines."
	default:
		c.Status = StatusPass
		c.Value = "found"
	}
	return c
}

func sitemapCheck(sitemapURL string, found bool) Check {
	c := Check{
		ID:           CheckSitemapXML,
		Title:        "XML Sitemap",
		Description:  "A sitemap lists the URLs search engines should crawl.",
		Severity:     SeverityMajor,
		LearnMoreURL: "https://www.sitemaps.org/protocol.html",
	}
	if sitemapURL != "" {
		c.Value = sitemapURL
	}
	if found {
		c.Status = StatusPass
		return c
	}
	c.Status = StatusFail
	c.Details = "No valid sitemap (urlset or sitemapindex) was found."
	c.Recommendation = "Generate an XML sitemap and publish it at /sitemap.xml."
	return c
}

func sitemapReferenceCheck(rf robotsFile) Check {
	c := Check{
		ID:          CheckSitemapReference,
		Title:       "Sitemap Reference in Robots.txt",
		Description: "robots.txt should point crawlers at the sitemap.",
	}
	switch {
	case !rf.found:
		c.Status = StatusInfo
		c.Severity = SeverityInfo
		c.Details = "robots.txt is missing, so it cannot reference a sitemap."
	case rf.referenced:
		c.Status = StatusPass
		c.Severity = SeverityMinor
		if rf.sitemapURL != "" {
			c.Value = rf.sitemapURL
		}
	default:
		c.Status = StatusWarning
		c.Severity = SeverityMinor
		c.Recommendation = "Add a Sitemap: line to robots.txt."
		c.CodeSnippet = "Sitemap: https://example.com/sitemap.xml"
	}
	return c
}
