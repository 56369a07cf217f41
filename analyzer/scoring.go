package analyzer

import (
	"math"
)

// severityPenalty is deducted from a category's 100 points for each failed check.
// Warnings cost half.
var severityPenalty = map[Severity]float64{
	SeverityCritical: 25,
	SeverityMajor:    15,
	SeverityMinor:    5,
	SeverityInfo:     0,
}

// categoryWeights drive the overall score
var categoryWeights = map[string]float64{
	CategoryTechnical:     0.35,
	CategorySecurity:      0.25,
	CategorySafeBrowsing:  0.25,
	CategoryRobotsSitemap: 0.15,
}

var categoryLabels = map[string]string{
	CategoryTechnical:     "Technical SEO",
	CategorySecurity:      "Security Headers",
	CategoryRobotsSitemap: "Robots & Sitemap",
	CategorySafeBrowsing:  "Safe Browsing",
}

// NewCategory tallies and scores a set of checks
func NewCategory(name string, checks []Check) Category {
	label, ok := categoryLabels[name]
	if !ok {
		label = name
	}
	cat := Category{
		Name:   name,
		Label:  label,
		Checks: checks,
	}
	for _, c := range checks {
		switch c.Status {
		case StatusPass:
			cat.PassCount++
		case StatusFail:
			cat.FailCount++
		case StatusWarning:
			cat.WarningCount++
		default:
			cat.InfoCount++
		}
	}
	cat.Score = CategoryScore(checks)
	return cat
}

// CategoryScore is 100 minus severity-weighted deductions, clamped to [0,100]
func CategoryScore(checks []Check) int {
	score := 100.0
	for _, c := range checks {
		penalty := severityPenalty[c.Severity]
		switch c.Status {
		case StatusFail:
			score -= penalty
		case StatusWarning:
			score -= penalty / 2
		}
	}
	return int(math.Round(clamp(score, 0, 100)))
}

// OverallScore is the weighted average of the category scores, renormalised over the categories
// present and rounded to one decimal
func OverallScore(categories []Category) float64 {
	var total, weights float64
	for _, cat := range categories {
		w, ok := categoryWeights[cat.Name]
		if !ok {
			continue
		}
		total += float64(cat.Score) * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return math.Round(total/weights*10) / 10
}

// Grade maps a score to a letter
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
