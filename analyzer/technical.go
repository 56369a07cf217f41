package analyzer

import (
	"fmt"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Technical check ids
const (
	CheckHTTPS          = "https"
	CheckHTTPStatus     = "http-status"
	CheckTTFB           = "ttfb"
	CheckViewport       = "viewport"
	CheckFavicon        = "favicon"
	CheckOpenGraph      = "open-graph"
	CheckTwitterCard    = "twitter-card"
	CheckHTMLLang       = "html-lang"
	CheckMetaRobots     = "meta-robots"
	CheckCharset        = "charset"
	CheckResourceCount  = "resource-count"
	CheckRenderBlocking = "render-blocking"
)

// Thresholds for the technical checks
const (
	ttfbGoodMs        = 200
	ttfbAcceptableMs  = 500
	resourceWarnCount = 30
	resourceFailCount = 40
	blockingWarnCount = 2
	blockingFailCount = 5
)

// AnalyzeTechnical evaluates the page markup, response metadata and timing.
// It always returns the same twelve checks in the same order.
func AnalyzeTechnical(doc *goquery.Document, pageURL string, httpStatus int, headers Headers, fetchTime time.Duration) []Check {
	if doc == nil {
		doc = emptyDocument()
	}

	return []Check{
		checkHTTPS(pageURL),
		checkHTTPStatus(httpStatus),
		checkTTFB(fetchTime),
		checkViewport(doc),
		checkFavicon(doc),
		checkOpenGraph(doc),
		checkTwitterCard(doc),
		checkHTMLLang(doc),
		checkMetaRobots(doc),
		checkCharset(doc, headers),
		checkResourceCount(doc),
		checkRenderBlocking(doc),
	}
}

func emptyDocument() *goquery.Document {
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader("<html><head></head><body></body></html>"))
	return doc
}

func checkHTTPS(pageURL string) Check {
	c := Check{
		ID:           CheckHTTPS,
		Title:        "HTTPS",
		Description:  "The page should be served over an encrypted connection.",
		Severity:     SeverityCritical,
		Expected:     "https",
		LearnMoreURL: "https://developers.google.com/search/docs/crawling-indexing/http-https",
	}

	scheme := ""
	if u, err := url.Parse(pageURL); err == nil {
		scheme = strings.ToLower(u.Scheme)
	}
	c.Value = scheme

	if scheme == "https" {
		c.Status = StatusPass
		return c
	}
	c.Status = StatusFail
	c.Details = "The page is served without TLS."
	c.Recommendation = "Install a TLS certificate and redirect all HTTP traffic to HTTPS."
	return c
}

func checkHTTPStatus(status int) Check {
	c := Check{
		ID:          CheckHTTPStatus,
		Title:       "HTTP Status Code",
		Description: "The page should respond with 200 OK.",
		Severity:    SeverityCritical,
		Value:       status,
		Expected:    "200",
	}
	if status == 200 {
		c.Status = StatusPass
		return c
	}
	c.Status = StatusFail
	c.Details = fmt.Sprintf("The page responded with status %d.", status)
	c.Recommendation = "Make sure the audited URL resolves directly to a 200 response without redirects or errors."
	return c
}

func checkTTFB(fetchTime time.Duration) Check {
	ms := fetchTime.Milliseconds()
	c := Check{
		ID:           CheckTTFB,
		Title:        "Time to First Byte",
		Description:  "How long the server took to start responding.",
		Value:        ms,
		Expected:     fmt.Sprintf("<= %dms", ttfbGoodMs),
		LearnMoreURL: "https://web.dev/articles/ttfb",
	}

	switch {
	case ms <= ttfbGoodMs:
		c.Status = StatusPass
		c.Severity = SeverityMinor
	case ms <= ttfbAcceptableMs:
		c.Status = StatusWarning
		c.Severity = SeverityMinor
		c.Details = fmt.Sprintf("Server responded in %dms.", ms)
		c.Recommendation = "Enable server-side caching or a CDN to bring response time under 200ms."
	default:
		c.Status = StatusFail
		c.Severity = SeverityMajor
		c.Details = fmt.Sprintf("Server responded in %dms.", ms)
		c.Recommendation = "Investigate slow backend work, database queries and hosting location; serve cached HTML from a CDN."
	}
	return c
}

func checkViewport(doc *goquery.Document) Check {
	c := Check{
		ID:          CheckViewport,
		Title:       "Viewport Meta Tag",
		Description: "A viewport declaration is required for pages to render properly on mobile devices.",
		Severity:    SeverityCritical,
	}
	content, exists := metaNamed(doc, "viewport", "name").Attr("content")
	if exists {
		c.Status = StatusPass
		c.Value = content
		return c
	}
	c.Status = StatusFail
	c.Recommendation = "Add a viewport meta tag to the document head."
	c.CodeSnippet = `<meta name="viewport" content="width=device-width, initial-scale=1">`
	return c
}

func checkFavicon(doc *goquery.Document) Check {
	c := Check{
		ID:          CheckFavicon,
		Title:       "Favicon",
		Description: "A favicon identifies the site in browser tabs and search results.",
		Severity:    SeverityMinor,
	}
	href, exists := doc.Find("link[rel~='icon'], link[rel='shortcut icon'], link[rel='apple-touch-icon']").First().Attr("href")
	if exists {
		c.Status = StatusPass
		c.Value = href
		return c
	}
	c.Status = StatusWarning
	c.Recommendation = "Declare a favicon in the document head."
	c.CodeSnippet = `<link rel="icon" href="/favicon.ico">`
	return c
}

func checkOpenGraph(doc *goquery.Document) Check {
	c := Check{
		ID:           CheckOpenGraph,
		Title:        "Open Graph Tags",
		Description:  "og:title and og:image control how the page looks when shared.",
		Severity:     SeverityMajor,
		LearnMoreURL: "https://ogp.me/",
	}
	hasTitle := metaNamed(doc, "og:title", "property", "name").Length() > 0
	hasImage := metaNamed(doc, "og:image", "property", "name").Length() > 0

	switch {
	case hasTitle && hasImage:
		c.Status = StatusPass
		c.Value = "og:title, og:image"
	case hasTitle || hasImage:
		c.Status = StatusWarning
		if hasTitle {
			c.Value = "og:title"
			c.Details = "og:image is missing."
		} else {
			c.Value = "og:image"
			c.Details = "og:title is missing."
		}
		c.Recommendation = "Provide both og:title and og:image."
	default:
		c.Status = StatusFail
		c.Recommendation = "Add Open Graph tags so social platforms can build a preview."
		c.CodeSnippet = "<meta property=\"og:title\" content=\"Page title\">\n<meta property=\"og:image\" content=\"https://example.com/preview.png\">"
	}
	return c
}

// metaNamed returns the first meta element whose value for any of attrs equals name.
// Meta names are matched case-insensitively.
func metaNamed(doc *goquery.Document, name string, attrs ...string) *goquery.Selection {
	return doc.Find("meta").FilterFunction(func(_ int, s *goquery.Selection) bool {
		for _, attr := range attrs {
			if v, ok := s.Attr(attr); ok && strings.EqualFold(strings.TrimSpace(v), name) {
				return true
			}
		}
		return false
	}).First()
}

func checkTwitterCard(doc *goquery.Document) Check {
	c := Check{
		ID:          CheckTwitterCard,
		Title:       "Twitter Card",
		Description: "twitter:card selects the preview layout on X/Twitter.",
		Severity:    SeverityMinor,
	}
	content, exists := metaNamed(doc, "twitter:card", "name", "property").Attr("content")
	if exists {
		c.Status = StatusPass
		c.Value = content
		return c
	}
	c.Status = StatusWarning
	c.Details = "Twitter falls back to Open Graph tags."
	c.Recommendation = "Add a twitter:card meta tag."
	c.CodeSnippet = `<meta name="twitter:card" content="summary_large_image">`
	return c
}

func checkHTMLLang(doc *goquery.Document) Check {
	c := Check{
		ID:          CheckHTMLLang,
		Title:       "Language Attribute",
		Description: "The html element should declare the page language.",
		Severity:    SeverityMajor,
	}
	lang, _ := doc.Find("html").First().Attr("lang")
	lang = strings.TrimSpace(lang)
	if lang != "" {
		c.Status = StatusPass
		c.Value = lang
		return c
	}
	c.Status = StatusFail
	c.Recommendation = "Set the lang attribute on the html element."
	c.CodeSnippet = `<html lang="en">`
	return c
}

func checkMetaRobots(doc *goquery.Document) Check {
	c := Check{
		ID:          CheckMetaRobots,
		Title:       "Meta Robots",
		Description: "Robots directives control whether search engines index the page and follow its links.",
	}
	content, _ := metaNamed(doc, "robots", "name").Attr("content")
	content = strings.ToLower(strings.TrimSpace(content))
	if content != "" {
		c.Value = content
	}

	if strings.Contains(content, "noindex") || strings.Contains(content, "nofollow") {
		c.Status = StatusWarning
		c.Severity = SeverityCritical
		c.Details = "The page asks search engines not to index it or not to follow its links."
		c.Recommendation = "Remove noindex/nofollow unless the page is meant to stay out of search results."
		return c
	}
	c.Status = StatusPass
	c.Severity = SeverityInfo
	return c
}

func checkCharset(doc *goquery.Document, headers Headers) Check {
	c := Check{
		ID:          CheckCharset,
		Title:       "Character Encoding",
		Description: "The page should declare UTF-8 encoding.",
		Severity:    SeverityMinor,
		Expected:    "utf-8",
	}

	charset := declaredCharset(doc, headers)
	if charset == "" {
		c.Status = StatusFail
		c.Recommendation = "Declare the character encoding as the first element in the head."
		c.CodeSnippet = `<meta charset="utf-8">`
		return c
	}
	c.Value = charset
	if charset == "utf-8" || charset == "utf8" {
		c.Status = StatusPass
		return c
	}
	c.Status = StatusWarning
	c.Details = fmt.Sprintf("The page declares %s.", charset)
	c.Recommendation = "Serve the page as UTF-8."
	return c
}

// declaredCharset looks at <meta charset>, then the http-equiv form, then the Content-Type header
func declaredCharset(doc *goquery.Document, headers Headers) string {
	if cs, ok := doc.Find("meta[charset]").First().Attr("charset"); ok && strings.TrimSpace(cs) != "" {
		return strings.ToLower(strings.TrimSpace(cs))
	}

	var fromEquiv string
	doc.Find("meta[http-equiv]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		equiv, _ := s.Attr("http-equiv")
		if !strings.EqualFold(equiv, "content-type") {
			return true
		}
		content, _ := s.Attr("content")
		fromEquiv = charsetParam(content)
		return false
	})
	if fromEquiv != "" {
		return fromEquiv
	}

	return charsetParam(headers.Get("Content-Type"))
}

func charsetParam(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(params["charset"]))
}

func checkResourceCount(doc *goquery.Document) Check {
	scripts := doc.Find("script[src]").Length()
	styles := doc.Find("link[rel~='stylesheet']").Length()
	total := scripts + styles

	c := Check{
		ID:          CheckResourceCount,
		Title:       "External Resources",
		Description: "Each script and stylesheet is an extra request on page load.",
		Severity:    SeverityMinor,
		Value:       total,
		Expected:    fmt.Sprintf("<= %d", resourceWarnCount),
	}

	switch {
	case total > resourceFailCount:
		c.Status = StatusFail
		c.Severity = SeverityMajor
	case total > resourceWarnCount:
		c.Status = StatusWarning
	default:
		c.Status = StatusPass
		return c
	}
	c.Details = fmt.Sprintf("%d scripts and %d stylesheets are loaded.", scripts, styles)
	c.Recommendation = "Bundle scripts and stylesheets and drop unused third-party tags."
	return c
}

func checkRenderBlocking(doc *goquery.Document) Check {
	blocking := 0
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		_, async := s.Attr("async")
		_, deferred := s.Attr("defer")
		typ, _ := s.Attr("type")
		if !async && !deferred && !strings.EqualFold(typ, "module") {
			blocking++
		}
	})
	doc.Find("link[rel~='stylesheet']").Each(func(_ int, s *goquery.Selection) {
		media, _ := s.Attr("media")
		if !strings.EqualFold(strings.TrimSpace(media), "print") {
			blocking++
		}
	})

	c := Check{
		ID:           CheckRenderBlocking,
		Title:        "Render-Blocking Resources",
		Description:  "Synchronous scripts and stylesheets delay the first paint.",
		Severity:     SeverityMinor,
		Value:        blocking,
		Expected:     fmt.Sprintf("<= %d", blockingWarnCount),
		LearnMoreURL: "https://developer.chrome.com/docs/lighthouse/performance/render-blocking-resources",
	}

	switch {
	case blocking > blockingFailCount:
		c.Status = StatusFail
		c.Severity = SeverityMajor
	case blocking > blockingWarnCount:
		c.Status = StatusWarning
	default:
		c.Status = StatusPass
		return c
	}
	c.Details = fmt.Sprintf("%d render-blocking resources found.", blocking)
	c.Recommendation = "Load scripts with async or defer and inline critical CSS."
	c.CodeSnippet = `<script src="/app.js" defer></script>`
	return c
}
