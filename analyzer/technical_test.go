package analyzer

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func findCheck(t *testing.T, checks []Check, id string) Check {
	t.Helper()
	for _, c := range checks {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("check %q not found", id)
	return Check{}
}

const wellFormedPage = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <link rel="icon" href="/favicon.ico">
  <meta property="og:title" content="Example">
  <meta property="og:image" content="https://example.com/og.png">
  <meta name="twitter:card" content="summary">
  <meta name="robots" content="index, follow">
  <title>Example</title>
  <link rel="stylesheet" href="/site.css">
  <script src="/app.js" defer></script>
</head>
<body><h1>Hello</h1></body>
</html>`

func TestAnalyzeTechnicalWellFormedPage(t *testing.T) {
	doc := mustDoc(t, wellFormedPage)
	checks := AnalyzeTechnical(doc, "https://example.com/", 200, NewHeaders(), 120*time.Millisecond)

	if len(checks) != 12 {
		t.Fatalf("expected 12 checks, got %d", len(checks))
	}
	for _, c := range checks {
		if c.Status != StatusPass {
			t.Errorf("check %s: status %s, want pass (%s)", c.ID, c.Status, c.Details)
		}
	}
}

func TestAnalyzeTechnicalEmptyPage(t *testing.T) {
	checks := AnalyzeTechnical(nil, "http://example.com", 404, NewHeaders(), 2*time.Second)
	if len(checks) != 12 {
		t.Fatalf("expected 12 checks, got %d", len(checks))
	}

	want := map[string]Status{
		CheckHTTPS:          StatusFail,
		CheckHTTPStatus:     StatusFail,
		CheckTTFB:           StatusFail,
		CheckViewport:       StatusFail,
		CheckFavicon:        StatusWarning,
		CheckOpenGraph:      StatusFail,
		CheckTwitterCard:    StatusWarning,
		CheckHTMLLang:       StatusFail,
		CheckMetaRobots:     StatusPass,
		CheckCharset:        StatusFail,
		CheckResourceCount:  StatusPass,
		CheckRenderBlocking: StatusPass,
	}
	for id, status := range want {
		if got := findCheck(t, checks, id).Status; got != status {
			t.Errorf("%s: status %s, want %s", id, got, status)
		}
	}
	if got := findCheck(t, checks, CheckViewport).Severity; got != SeverityCritical {
		t.Errorf("missing viewport severity %s, want critical", got)
	}
}

func TestTTFBThresholds(t *testing.T) {
	tests := []struct {
		ms       int
		status   Status
		severity Severity
	}{
		{0, StatusPass, SeverityMinor},
		{200, StatusPass, SeverityMinor},
		{201, StatusWarning, SeverityMinor},
		{500, StatusWarning, SeverityMinor},
		{501, StatusFail, SeverityMajor},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dms", tt.ms), func(t *testing.T) {
			c := checkTTFB(time.Duration(tt.ms) * time.Millisecond)
			if c.Status != tt.status || c.Severity != tt.severity {
				t.Errorf("got %s/%s, want %s/%s", c.Status, c.Severity, tt.status, tt.severity)
			}
		})
	}
}

func TestHTTPStatusCheck(t *testing.T) {
	for _, code := range []int{200, 301, 302, 404, 500} {
		c := checkHTTPStatus(code)
		want := StatusFail
		if code == 200 {
			want = StatusPass
		}
		if c.Status != want {
			t.Errorf("status %d: got %s, want %s", code, c.Status, want)
		}
	}
}

func pageWithResources(scripts, styles int, attrs string) string {
	var b strings.Builder
	b.WriteString("<html><head>")
	for i := 0; i < scripts; i++ {
		fmt.Fprintf(&b, `<script src="/s%d.js" %s></script>`, i, attrs)
	}
	for i := 0; i < styles; i++ {
		fmt.Fprintf(&b, `<link rel="stylesheet" href="/c%d.css">`, i)
	}
	b.WriteString("</head><body></body></html>")
	return b.String()
}

func TestResourceCountThresholds(t *testing.T) {
	tests := []struct {
		scripts, styles int
		want            Status
	}{
		{20, 10, StatusPass},
		{21, 10, StatusWarning},
		{30, 10, StatusWarning},
		{31, 10, StatusFail},
	}
	for _, tt := range tests {
		total := tt.scripts + tt.styles
		t.Run(fmt.Sprintf("%d", total), func(t *testing.T) {
			doc := mustDoc(t, pageWithResources(tt.scripts, tt.styles, "async"))
			c := checkResourceCount(doc)
			if c.Status != tt.want {
				t.Errorf("%d resources: got %s, want %s", total, c.Status, tt.want)
			}
			if c.Value != total {
				t.Errorf("value = %v, want %d", c.Value, total)
			}
		})
	}
}

func TestRenderBlockingResources(t *testing.T) {
	tests := []struct {
		name string
		html string
		want Status
	}{
		{"deferred scripts only", pageWithResources(10, 0, "defer"), StatusPass},
		{"two stylesheets", pageWithResources(0, 2, ""), StatusPass},
		{"three sync scripts", pageWithResources(3, 0, ""), StatusWarning},
		{"five mixed", pageWithResources(3, 2, ""), StatusWarning},
		{"six mixed", pageWithResources(3, 3, ""), StatusFail},
		{"print stylesheet ignored", `<html><head>
			<link rel="stylesheet" href="a.css"><link rel="stylesheet" href="b.css">
			<link rel="stylesheet" href="p.css" media="print"></head></html>`, StatusPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkRenderBlocking(mustDoc(t, tt.html)).Status; got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOpenGraphCheck(t *testing.T) {
	tests := []struct {
		name string
		head string
		want Status
	}{
		{"both", `<meta property="og:title" content="t"><meta property="og:image" content="i">`, StatusPass},
		{"title only", `<meta property="og:title" content="t">`, StatusWarning},
		{"image only", `<meta property="og:image" content="i">`, StatusWarning},
		{"neither", ``, StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := checkOpenGraph(mustDoc(t, "<html><head>"+tt.head+"</head></html>"))
			if c.Status != tt.want {
				t.Errorf("got %s, want %s", c.Status, tt.want)
			}
		})
	}
}

func TestMetaRobotsCheck(t *testing.T) {
	blocking := checkMetaRobots(mustDoc(t, `<html><head><meta name="robots" content="NOINDEX, follow"></head></html>`))
	if blocking.Status != StatusWarning || blocking.Severity != SeverityCritical {
		t.Errorf("noindex: got %s/%s, want warning/critical", blocking.Status, blocking.Severity)
	}

	open := checkMetaRobots(mustDoc(t, `<html><head><meta name="robots" content="index"></head></html>`))
	if open.Status != StatusPass || open.Severity != SeverityInfo {
		t.Errorf("index: got %s/%s, want pass/info", open.Status, open.Severity)
	}
}

func TestMetaNamesIgnoreCase(t *testing.T) {
	doc := mustDoc(t, `<html><head>
<meta name="Viewport" content="width=device-width">
<meta name="ROBOTS" content="noindex, nofollow">
<meta name="Twitter:Card" content="summary">
<meta property="OG:Title" content="t"><meta property="og:IMAGE" content="i">
</head></html>`)

	if c := checkViewport(doc); c.Status != StatusPass {
		t.Errorf("viewport: got %s, want pass", c.Status)
	}
	if c := checkMetaRobots(doc); c.Status != StatusWarning || c.Severity != SeverityCritical {
		t.Errorf("meta robots: got %s/%s, want warning/critical", c.Status, c.Severity)
	}
	if c := checkTwitterCard(doc); c.Status != StatusPass || c.Value != "summary" {
		t.Errorf("twitter card: got %s (%v), want pass", c.Status, c.Value)
	}
	if c := checkOpenGraph(doc); c.Status != StatusPass {
		t.Errorf("open graph: got %s, want pass", c.Status)
	}
}

func TestCharsetCheck(t *testing.T) {
	tests := []struct {
		name    string
		head    string
		headers Headers
		want    Status
	}{
		{"meta utf-8", `<meta charset="UTF-8">`, NewHeaders(), StatusPass},
		{"http-equiv", `<meta http-equiv="Content-Type" content="text/html; charset=utf-8">`, NewHeaders(), StatusPass},
		{"header only", ``, NewHeaders("content-type", "text/html; charset=UTF-8"), StatusPass},
		{"latin1", `<meta charset="iso-8859-1">`, NewHeaders(), StatusWarning},
		{"none", ``, NewHeaders("Content-Type", "text/html"), StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := checkCharset(mustDoc(t, "<html><head>"+tt.head+"</head></html>"), tt.headers)
			if c.Status != tt.want {
				t.Errorf("got %s, want %s", c.Status, tt.want)
			}
			if c.Severity != SeverityMinor {
				t.Errorf("severity %s, want minor", c.Severity)
			}
		})
	}
}

func TestAnalyzeTechnicalDeterministic(t *testing.T) {
	doc := mustDoc(t, pageWithResources(4, 4, ""))
	headers := NewHeaders("Content-Type", "text/html; charset=windows-1252")
	first := AnalyzeTechnical(doc, "https://example.com", 200, headers, 300*time.Millisecond)
	for i := 0; i < 5; i++ {
		again := AnalyzeTechnical(doc, "https://example.com", 200, headers, 300*time.Millisecond)
		if !reflect.DeepEqual(first, again) {
			t.Fatal("technical checks differ between runs")
		}
	}
}
