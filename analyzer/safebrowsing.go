package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Safe browsing modes
const (
	ModeAPI       = "api"
	ModeHeuristic = "heuristic"
)

const (
	DefaultSafeBrowsingEndpoint = "https://safebrowsing.googleapis.com/v4/threatMatches:find"
	defaultSafeBrowsingTimeout  = 8 * time.Second

	maxSubdomainDepth  = 3
	maxURLLength       = 500
	minKeywordHits     = 2
	safeBrowsingClient = "seo-auditor"
)

var threatTypes = []string{
	"MALWARE",
	"SOCIAL_ENGINEERING",
	"UNWANTED_SOFTWARE",
	"POTENTIALLY_HARMFUL_APPLICATION",
}

var threatTitles = map[string]string{
	"MALWARE":                         "Malware",
	"SOCIAL_ENGINEERING":              "Social Engineering",
	"UNWANTED_SOFTWARE":               "Unwanted Software",
	"POTENTIALLY_HARMFUL_APPLICATION": "Potentially Harmful Application",
}

var suspiciousKeywords = []string{"login", "signin", "verify", "account", "update", "secure", "banking"}

// SafeBrowsingAnalyzer checks the URL against a threat lookup service when an API key is
// configured, and against local URL heuristics otherwise or when the lookup fails.
type SafeBrowsingAnalyzer struct {
	APIKey        string
	Endpoint      string
	ClientVersion string
	Client        *http.Client
	Timeout       time.Duration
	Logger        *zap.Logger
}

// Mode reports which strategy Analyze starts with
func (a *SafeBrowsingAnalyzer) Mode() string {
	if strings.TrimSpace(a.APIKey) != "" {
		return ModeAPI
	}
	return ModeHeuristic
}

// Analyze never fails; it always returns at least one check.
// The second value is the mode that produced the checks.
// An unparseable URL is never sent to the lookup service.
func (a *SafeBrowsingAnalyzer) Analyze(ctx context.Context, pageURL string) ([]Check, string) {
	if _, ok := parseCheckedURL(pageURL); !ok {
		return []Check{unavailableCheck(pageURL)}, ModeHeuristic
	}
	if a.Mode() == ModeHeuristic {
		return AnalyzeURLHeuristics(pageURL), ModeHeuristic
	}

	checks, err := a.lookup(ctx, pageURL)
	if err != nil {
		a.logger().Warn("safe browsing lookup failed, using heuristics",
			zap.String("url", pageURL),
			zap.Error(err),
		)
		return AnalyzeURLHeuristics(pageURL), ModeHeuristic
	}
	return checks, ModeAPI
}

type sbRequest struct {
	Client     sbClient     `json:"client"`
	ThreatInfo sbThreatInfo `json:"threatInfo"`
}

type sbClient struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type sbThreatInfo struct {
	ThreatTypes      []string  `json:"threatTypes"`
	PlatformTypes    []string  `json:"platformTypes"`
	ThreatEntryTypes []string  `json:"threatEntryTypes"`
	ThreatEntries    []sbEntry `json:"threatEntries"`
}

type sbEntry struct {
	URL string `json:"url"`
}

type sbResponse struct {
	Matches []struct {
		ThreatType string `json:"threatType"`
	} `json:"matches"`
}

// lookup queries the threat service. Any error means the caller should fall back to heuristics.
func (a *SafeBrowsingAnalyzer) lookup(ctx context.Context, pageURL string) ([]Check, error) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = defaultSafeBrowsingTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	version := a.ClientVersion
	if version == "" {
		version = "1.0"
	}
	payload, err := json.Marshal(sbRequest{
		Client: sbClient{ClientID: safeBrowsingClient, ClientVersion: version},
		ThreatInfo: sbThreatInfo{
			ThreatTypes:      threatTypes,
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []sbEntry{{URL: pageURL}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode lookup request: %w", err)
	}

	endpoint := a.Endpoint
	if endpoint == "" {
		endpoint = DefaultSafeBrowsingEndpoint
	}
	endpoint += "?key=" + url.QueryEscape(a.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("lookup returned status %d", resp.StatusCode)
	}

	var decoded sbResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decoded); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}

	matched := make([]string, 0, len(decoded.Matches))
	seen := make(map[string]bool)
	for _, m := range decoded.Matches {
		if m.ThreatType == "" || seen[m.ThreatType] {
			continue
		}
		seen[m.ThreatType] = true
		matched = append(matched, m.ThreatType)
	}
	return threatChecks(matched), nil
}

func threatChecks(matched []string) []Check {
	if len(matched) == 0 {
		return []Check{{
			ID:          "sb-no-threats",
			Title:       "Safe Browsing",
			Description: "The URL was checked against known malware and phishing lists.",
			Status:      StatusPass,
			Severity:    SeverityCritical,
			Value:       "no threats found",
		}}
	}

	checks := make([]Check, 0, len(matched))
	for _, threat := range matched {
		severity := SeverityCritical
		if threat == "UNWANTED_SOFTWARE" {
			severity = SeverityMajor
		}
		title, ok := threatTitles[threat]
		if !ok {
			title = threat
		}
		checks = append(checks, Check{
			ID:             "sb-threat-" + strings.ToLower(strings.ReplaceAll(threat, "_", "-")),
			Title:          title + " Detected",
			Description:    "The URL is listed by a threat intelligence service.",
			Status:         StatusFail,
			Severity:       severity,
			Value:          threat,
			Details:        "Browsers may show an interstitial warning to visitors of this URL.",
			Recommendation: "Clean the site, then request a review in Google Search Console.",
			LearnMoreURL:   "https://developers.google.com/search/docs/monitor-debug/security/malware",
		})
	}
	return checks
}

// urlRisk is the outcome of the heuristic URL inspection
type urlRisk struct {
	https           bool
	suspiciousCount int
	reasons         []string
}

// AnalyzeURLHeuristics inspects the URL string without any network access
func AnalyzeURLHeuristics(pageURL string) []Check {
	u, ok := parseCheckedURL(pageURL)
	if !ok {
		return []Check{unavailableCheck(pageURL)}
	}

	risk := inspectURL(pageURL, u)
	return []Check{
		heuristicHTTPSCheck(risk),
		urlSafetyCheck(risk),
		mixedContentCheck(risk),
	}
}

// parseCheckedURL accepts any URL with a scheme; http(s) URLs also need a host
func parseCheckedURL(pageURL string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || u.Scheme == "" || (isWebScheme(u.Scheme) && u.Host == "") {
		return nil, false
	}
	return u, true
}

func unavailableCheck(pageURL string) Check {
	return Check{
		ID:          "sb-unavailable",
		Title:       "Safe Browsing",
		Description: "The URL could not be parsed, so no safety analysis was performed.",
		Status:      StatusInfo,
		Severity:    SeverityInfo,
		Value:       pageURL,
	}
}

func isWebScheme(scheme string) bool {
	scheme = strings.ToLower(scheme)
	return scheme == "http" || scheme == "https"
}

func inspectURL(raw string, u *url.URL) urlRisk {
	risk := urlRisk{https: strings.EqualFold(u.Scheme, "https")}
	flag := func(reason string) {
		risk.suspiciousCount++
		risk.reasons = append(risk.reasons, reason)
	}

	host := u.Hostname()
	if ip := net.ParseIP(host); ip != nil {
		flag("URL uses a bare IP address instead of a domain name")
	} else if labels := strings.Split(host, "."); len(labels)-2 > maxSubdomainDepth {
		flag(fmt.Sprintf("URL has %d levels of subdomains", len(labels)-2))
	}

	if len(raw) > maxURLLength {
		flag(fmt.Sprintf("URL is unusually long (%d characters)", len(raw)))
	}

	lower := strings.ToLower(raw)
	var hits []string
	for _, kw := range suspiciousKeywords {
		if strings.Contains(lower, kw) {
			hits = append(hits, kw)
		}
	}
	if len(hits) >= minKeywordHits {
		flag("URL contains phishing-style keywords: " + strings.Join(hits, ", "))
	}

	switch strings.ToLower(u.Scheme) {
	case "data", "javascript":
		flag("URL uses the " + strings.ToLower(u.Scheme) + ": scheme")
	}
	return risk
}

func heuristicHTTPSCheck(risk urlRisk) Check {
	c := Check{
		ID:          "sb-https",
		Title:       "HTTPS Protocol",
		Description: "Encrypted transport protects visitors from tampering and eavesdropping.",
		Severity:    SeverityCritical,
	}
	if risk.https {
		c.Status = StatusPass
		c.Value = "https"
		return c
	}
	c.Status = StatusFail
	c.Recommendation = "Serve the site over HTTPS."
	return c
}

func urlSafetyCheck(risk urlRisk) Check {
	c := Check{
		ID:          "sb-url-safety",
		Title:       "URL Safety",
		Description: "Heuristic scan of the URL for patterns common in phishing and malware links.",
		Severity:    SeverityMajor,
		Value:       risk.suspiciousCount,
	}
	switch {
	case risk.suspiciousCount == 0:
		c.Status = StatusPass
		return c
	case risk.suspiciousCount == 1:
		c.Status = StatusWarning
	default:
		c.Status = StatusFail
		c.Severity = SeverityCritical
	}
	c.Details = strings.Join(risk.reasons, "; ")
	c.Recommendation = "Use a plain domain name and descriptive paths; configure a Safe Browsing API key for a full reputation check."
	return c
}

func mixedContentCheck(risk urlRisk) Check {
	c := Check{
		ID:          "sb-mixed-content",
		Title:       "Mixed Content Risk",
		Description: "Pages served over HTTP expose every subresource to interception.",
	}
	if risk.https {
		c.Status = StatusPass
		c.Severity = SeverityMinor
		return c
	}
	c.Status = StatusWarning
	c.Severity = SeverityMajor
	c.Details = "The page is not served over HTTPS, so none of its resources are protected."
	c.Recommendation = "Move the page and all of its resources to HTTPS."
	return c
}

func (a *SafeBrowsingAnalyzer) logger() *zap.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return zap.NewNop()
}
