package analyzer

import (
	"strings"
)

// securityHeaderSpec describes how one response header is evaluated
type securityHeaderSpec struct {
	ID             string
	Header         string
	Title          string
	Description    string
	Severity       Severity
	MissingStatus  Status
	Recommendation string
	Snippet        string
	LearnMoreURL   string
	// Quality inspects a present value and returns a problem description, or "" when acceptable
	Quality func(value string) string
}

// securityHeaderSpecs is evaluated in order; the slice order is the check order
var securityHeaderSpecs = []securityHeaderSpec{
	{
		ID:             "hsts",
		Header:         "Strict-Transport-Security",
		Title:          "HTTP Strict Transport Security",
		Description:    "Forces browsers to use HTTPS for all future requests to this host.",
		Severity:       SeverityCritical,
		MissingStatus:  StatusFail,
		Recommendation: "Send Strict-Transport-Security with a long max-age on every HTTPS response.",
		Snippet:        "Strict-Transport-Security: max-age=31536000; includeSubDomains; preload",
		LearnMoreURL:   "https://developer.mozilla.org/en-US/docs/Web/HTTP/Headers/Strict-Transport-Security",
		Quality:        hstsQuality,
	},
	{
		ID:             "csp",
		Header:         "Content-Security-Policy",
		Title:          "Content Security Policy",
		Description:    "Restricts where scripts, styles and other resources may load from.",
		Severity:       SeverityMajor,
		MissingStatus:  StatusWarning,
		Recommendation: "Define a Content-Security-Policy appropriate for the site.",
		Snippet:        "Content-Security-Policy: default-src 'self'",
		LearnMoreURL:   "https://developer.mozilla.org/en-US/docs/Web/HTTP/CSP",
	},
	{
		ID:             "x-frame-options",
		Header:         "X-Frame-Options",
		Title:          "X-Frame-Options",
		Description:    "Prevents the page from being framed by other sites (clickjacking).",
		Severity:       SeverityMinor,
		MissingStatus:  StatusWarning,
		Recommendation: "Send X-Frame-Options: DENY or SAMEORIGIN.",
		Snippet:        "X-Frame-Options: SAMEORIGIN",
		Quality:        frameOptionsQuality,
	},
	{
		ID:             "x-content-type-options",
		Header:         "X-Content-Type-Options",
		Title:          "X-Content-Type-Options",
		Description:    "Stops browsers from MIME-sniffing responses.",
		Severity:       SeverityMinor,
		MissingStatus:  StatusWarning,
		Recommendation: "Send X-Content-Type-Options: nosniff.",
		Snippet:        "X-Content-Type-Options: nosniff",
		Quality:        contentTypeOptionsQuality,
	},
	{
		ID:             "referrer-policy",
		Header:         "Referrer-Policy",
		Title:          "Referrer-Policy",
		Description:    "Controls how much referrer information is sent with requests.",
		Severity:       SeverityMinor,
		MissingStatus:  StatusWarning,
		Recommendation: "Send Referrer-Policy: strict-origin-when-cross-origin.",
		Snippet:        "Referrer-Policy: strict-origin-when-cross-origin",
	},
	{
		ID:             "permissions-policy",
		Header:         "Permissions-Policy",
		Title:          "Permissions-Policy",
		Description:    "Limits which browser features the page and its frames may use.",
		Severity:       SeverityInfo,
		MissingStatus:  StatusWarning,
		Recommendation: "Disable browser features the site does not need.",
		Snippet:        "Permissions-Policy: geolocation=(), microphone=(), camera=()",
	},
	{
		ID:             "x-xss-protection",
		Header:         "X-XSS-Protection",
		Title:          "X-XSS-Protection",
		Description:    "Legacy header for the XSS filter of older browsers.",
		Severity:       SeverityInfo,
		MissingStatus:  StatusWarning,
		Recommendation: "Send X-XSS-Protection: 0 and rely on Content-Security-Policy.",
		Snippet:        "X-XSS-Protection: 0",
	},
}

// AnalyzeSecurityHeaders checks the seven security response headers. Always returns seven checks.
func AnalyzeSecurityHeaders(headers Headers) []Check {
	checks := make([]Check, 0, len(securityHeaderSpecs))
	for _, spec := range securityHeaderSpecs {
		checks = append(checks, evaluateSecurityHeader(spec, headers))
	}
	return checks
}

func evaluateSecurityHeader(spec securityHeaderSpec, headers Headers) Check {
	c := Check{
		ID:           spec.ID,
		Title:        spec.Title,
		Description:  spec.Description,
		Severity:     spec.Severity,
		LearnMoreURL: spec.LearnMoreURL,
	}

	value := strings.TrimSpace(headers.Get(spec.Header))
	if value == "" {
		c.Status = spec.MissingStatus
		c.Details = spec.Header + " header is not set."
		c.Recommendation = spec.Recommendation
		c.CodeSnippet = spec.Snippet
		return c
	}

	c.Value = value
	if spec.Quality != nil {
		if problem := spec.Quality(value); problem != "" {
			c.Status = StatusWarning
			c.Details = problem
			c.Recommendation = spec.Recommendation
			c.CodeSnippet = spec.Snippet
			return c
		}
	}
	c.Status = StatusPass
	return c
}

func hstsQuality(value string) string {
	for _, directive := range strings.Split(strings.ToLower(value), ";") {
		directive = strings.TrimSpace(directive)
		if strings.HasPrefix(directive, "max-age=") {
			age := strings.Trim(strings.TrimPrefix(directive, "max-age="), `"`)
			if age == "0" {
				return "max-age is 0, which disables HSTS."
			}
			return ""
		}
	}
	return "max-age directive is missing."
}

func frameOptionsQuality(value string) string {
	switch strings.ToUpper(value) {
	case "DENY", "SAMEORIGIN":
		return ""
	}
	return "Only DENY and SAMEORIGIN are supported by current browsers."
}

func contentTypeOptionsQuality(value string) string {
	if strings.EqualFold(value, "nosniff") {
		return ""
	}
	return "The only valid value is nosniff."
}
