package analyzer

import "testing"

func TestNewCategoryCounts(t *testing.T) {
	checks := []Check{
		{ID: "a", Status: StatusPass, Severity: SeverityCritical},
		{ID: "b", Status: StatusFail, Severity: SeverityMajor},
		{ID: "c", Status: StatusWarning, Severity: SeverityMinor},
		{ID: "d", Status: StatusInfo, Severity: SeverityInfo},
	}
	cat := NewCategory(CategoryRobotsSitemap, checks)

	if cat.PassCount != 1 || cat.FailCount != 1 || cat.WarningCount != 1 || cat.InfoCount != 1 {
		t.Errorf("unexpected counts %+v", cat)
	}
	if cat.PassCount+cat.FailCount+cat.WarningCount+cat.InfoCount != len(cat.Checks) {
		t.Error("counts must add up to the number of checks")
	}
	if cat.Label != "Robots & Sitemap" {
		t.Errorf("label = %q", cat.Label)
	}
	// 100 - 15 (major fail) - 2.5 (minor warning) = 82.5
	if cat.Score != 83 {
		t.Errorf("score = %d, want 83", cat.Score)
	}
}

func TestCategoryScoreClamped(t *testing.T) {
	var checks []Check
	for i := 0; i < 10; i++ {
		checks = append(checks, Check{Status: StatusFail, Severity: SeverityCritical})
	}
	if got := CategoryScore(checks); got != 0 {
		t.Errorf("score = %d, want 0", got)
	}
	if got := CategoryScore(nil); got != 100 {
		t.Errorf("empty score = %d, want 100", got)
	}
}

func TestOverallScore(t *testing.T) {
	categories := []Category{
		{Name: CategoryTechnical, Score: 100},
		{Name: CategorySecurity, Score: 60},
	}
	// (100*0.35 + 60*0.25) / 0.6
	if got := OverallScore(categories); got != 83.3 {
		t.Errorf("score = %v, want 83.3", got)
	}
	if got := OverallScore(nil); got != 0 {
		t.Errorf("empty score = %v, want 0", got)
	}
}

func TestGrade(t *testing.T) {
	tests := map[float64]string{95: "A", 90: "A", 85.5: "B", 70: "C", 60: "D", 59.9: "F"}
	for score, want := range tests {
		if got := Grade(score); got != want {
			t.Errorf("Grade(%v) = %s, want %s", score, got, want)
		}
	}
}
