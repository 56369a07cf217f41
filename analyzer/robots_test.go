package analyzer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// siteServer serves robots.txt and sitemap bodies; an empty body means 404
func siteServer(t *testing.T, robots, sitemap string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body string
		switch r.URL.Path {
		case "/robots.txt":
			body = robots
		case "/sitemap.xml", "/custom-sitemap.xml":
			body = sitemap
		}
		if body == "" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRobotsAnalyzer(srv *httptest.Server) *RobotsSitemapAnalyzer {
	return &RobotsSitemapAnalyzer{Client: srv.Client(), Timeout: 2 * time.Second}
}

const sitemapBody = `<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"></urlset>`

func TestRobotsSitemapAllPresent(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			w.Write([]byte("User-agent: *\nAllow: /\nSitemap: " + srv.URL + "/custom-sitemap.xml\n"))
		case "/custom-sitemap.xml":
			w.Write([]byte(sitemapBody))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	checks := newRobotsAnalyzer(srv).Analyze(context.Background(), srv.URL+"/some/page")
	if len(checks) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(checks))
	}
	for _, c := range checks {
		if c.Status != StatusPass {
			t.Errorf("%s: status %s, want pass", c.ID, c.Status)
		}
	}
	if got := findCheck(t, checks, CheckSitemapXML).Value; got != srv.URL+"/custom-sitemap.xml" {
		t.Errorf("sitemap url = %v, want the one declared in robots.txt", got)
	}
}

func TestSitemapReferenceCheck(t *testing.T) {
	tests := []struct {
		name   string
		robots string
		want   Status
	}{
		{"referenced", "User-agent: *\nDisallow: /admin\nSitemap: https://x.com/sitemap.xml\n", StatusPass},
		{"not referenced", "User-agent: *\nDisallow: /admin\n", StatusWarning},
		{"robots missing", "", StatusInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := siteServer(t, tt.robots, sitemapBody)
			checks := newRobotsAnalyzer(srv).Analyze(context.Background(), srv.URL)
			if got := findCheck(t, checks, CheckSitemapReference).Status; got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRobotsRequiresUserAgent(t *testing.T) {
	srv := siteServer(t, "<html>not a robots file</html>", "")
	checks := newRobotsAnalyzer(srv).Analyze(context.Background(), srv.URL)

	if got := findCheck(t, checks, CheckRobotsTxt).Status; got != StatusFail {
		t.Errorf("robots without user-agent: got %s, want fail", got)
	}
	if got := findCheck(t, checks, CheckSitemapXML).Status; got != StatusFail {
		t.Errorf("missing sitemap: got %s, want fail", got)
	}
}

func TestRobotsBlockingDisallow(t *testing.T) {
	tests := []struct {
		name     string
		robots   string
		status   Status
		severity Severity
	}{
		{"site wide", "User-agent: *\nDisallow: /\n", StatusWarning, SeverityCritical},
		{"narrow path", "User-agent: *\nDisallow: /private/\n", StatusPass, SeverityMajor},
		{"single bot", "User-agent: BadBot\nDisallow: /\n\nUser-agent: *\nAllow: /\n", StatusPass, SeverityMajor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := siteServer(t, tt.robots, sitemapBody)
			c := findCheck(t, newRobotsAnalyzer(srv).Analyze(context.Background(), srv.URL), CheckRobotsTxt)
			if c.Status != tt.status || c.Severity != tt.severity {
				t.Errorf("got %s/%s, want %s/%s", c.Status, c.Severity, tt.status, tt.severity)
			}
		})
	}
}

func TestSitemapRequiresSitemapMarkup(t *testing.T) {
	srv := siteServer(t, "User-agent: *\n", "<html>soft 404</html>")
	c := findCheck(t, newRobotsAnalyzer(srv).Analyze(context.Background(), srv.URL), CheckSitemapXML)
	if c.Status != StatusFail {
		t.Errorf("got %s, want fail", c.Status)
	}

	srv = siteServer(t, "User-agent: *\n", `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"></sitemapindex>`)
	c = findCheck(t, newRobotsAnalyzer(srv).Analyze(context.Background(), srv.URL), CheckSitemapXML)
	if c.Status != StatusPass {
		t.Errorf("sitemap index: got %s, want pass", c.Status)
	}
}

func TestRobotsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	a := &RobotsSitemapAnalyzer{Client: srv.Client(), Timeout: 50 * time.Millisecond}

	start := time.Now()
	checks := a.Analyze(context.Background(), srv.URL)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Analyze took %v, expected the timeout to cut it short", elapsed)
	}
	if len(checks) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(checks))
	}
	if got := findCheck(t, checks, CheckRobotsTxt).Status; got != StatusFail {
		t.Errorf("stalled robots.txt: got %s, want fail", got)
	}
	if got := findCheck(t, checks, CheckSitemapReference).Status; got != StatusInfo {
		t.Errorf("sitemap reference: got %s, want info", got)
	}
}

func TestRobotsUnreachableAndInvalidURL(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a := &RobotsSitemapAnalyzer{Timeout: time.Second}
	for _, target := range []string{url, "not a url", "mailto:someone@example.com"} {
		checks := a.Analyze(context.Background(), target)
		if len(checks) != 3 {
			t.Fatalf("%q: expected 3 checks, got %d", target, len(checks))
		}
		if got := findCheck(t, checks, CheckRobotsTxt).Status; got != StatusFail {
			t.Errorf("%q: robots status %s, want fail", target, got)
		}
	}
}
