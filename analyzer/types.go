package analyzer

import (
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/seo-optimizer/auditor/keywords"
)

// Status is the outcome of a single check for the audited page
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusWarning Status = "warning"
	StatusInfo    Status = "info"
)

// Severity is the impact weight of a check, independent of its status
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
	SeverityInfo     Severity = "info"
)

// Check is one evaluated audit rule
type Check struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Status         Status   `json:"status"`
	Severity       Severity `json:"severity"`
	Value          any      `json:"value,omitempty"`
	Expected       string   `json:"expected,omitempty"`
	Details        string   `json:"details,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
	CodeSnippet    string   `json:"codeSnippet,omitempty"`
	LearnMoreURL   string   `json:"learnMoreUrl,omitempty"`
}

// Category groups the checks produced by one analyzer family
type Category struct {
	Name         string  `json:"name"`
	Label        string  `json:"label"`
	Checks       []Check `json:"checks"`
	PassCount    int     `json:"passCount"`
	FailCount    int     `json:"failCount"`
	WarningCount int     `json:"warningCount"`
	InfoCount    int     `json:"infoCount"`
	Score        int     `json:"score"`
}

// Category names
const (
	CategoryTechnical     = "technical"
	CategorySecurity      = "security"
	CategoryRobotsSitemap = "robots-sitemap"
	CategorySafeBrowsing  = "safe-browsing"
)

// FetchedPage is the snapshot of a fetched page that every analyzer works from
type FetchedPage struct {
	Document   *goquery.Document
	URL        string // final URL after redirects
	StatusCode int
	Headers    Headers
	FetchTime  time.Duration
	Size       int // body bytes read
}

// Report is the complete audit of one page
type Report struct {
	URL              string                       `json:"url"`      // as requested
	FinalURL         string                       `json:"finalUrl"` // after redirects
	HTTPStatus       int                          `json:"httpStatus"`
	FetchTimeMs      int64                        `json:"fetchTimeMs"`
	PageSize         int                          `json:"pageSize"` // bytes read, capped at 5 MiB
	Categories       []Category                   `json:"categories"`
	Score            float64                      `json:"score"`
	Grade            string                       `json:"grade"`
	Keywords         []keywords.DiscoveredKeyword `json:"keywords"`
	SafeBrowsingMode string                       `json:"safeBrowsingMode"`
	AuditedAt        time.Time                    `json:"auditedAt"`
	DurationMs       int64                        `json:"durationMs"`
}

// Category returns the named category of the report
func (r *Report) Category(name string) (Category, bool) {
	for _, c := range r.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}
