package report

import (
	"context"
	"strings"
	"testing"

	"github.com/joelkehle/elasticity-lab/internal/fixtures"
	"github.com/joelkehle/elasticity-lab/internal/scenario"
)

func demoResult(t *testing.T) scenario.SimulationResult {
	t.Helper()
	set := fixtures.Demo()
	session := scenario.NewSession(set.Table, set.Weekly, set.Scenarios)
	result, err := session.Simulate(context.Background(), "ads-modest-increase", scenario.SimulateOptions{})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	return result
}

func TestBuildMarkdownSections(t *testing.T) {
	md := BuildMarkdown(demoResult(t))
	for _, heading := range []string{
		"# Price Elasticity Scenario Report",
		"## Model Inputs",
		"## Baseline vs Forecast",
		"## 12-Month Trajectory",
		"## Constraints",
	} {
		if !strings.Contains(md, heading) {
			t.Fatalf("markdown missing %q", heading)
		}
	}
	if !strings.Contains(md, "| 0 |") || !strings.Contains(md, "| 12 |") {
		t.Fatal("trajectory table should cover months 0 through 12")
	}
	if !strings.Contains(md, "All pricing constraints are satisfied.") {
		t.Fatal("compliant scenario should report constraints satisfied")
	}
}

func TestBuildMarkdownFlagsConstraintFailure(t *testing.T) {
	result := demoResult(t)
	result.ConstraintsMet = false
	md := BuildMarkdown(result)
	if !strings.Contains(md, "NOT satisfied") {
		t.Fatal("failed constraints should be called out")
	}
}

func TestBuildMarkdownIncludesWarnings(t *testing.T) {
	result := demoResult(t)
	result.Warnings = []string{"Price increase of 25.0% may be too aggressive"}
	md := BuildMarkdown(result)
	if !strings.Contains(md, "## Warnings") || !strings.Contains(md, "too aggressive") {
		t.Fatal("warnings section missing")
	}
}

func TestToHTMLRendersTables(t *testing.T) {
	html, err := ToHTML(BuildMarkdown(demoResult(t)))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(html, "<table>") {
		t.Fatal("GFM tables should render as <table>")
	}
	if !strings.Contains(html, "<h2") {
		t.Fatal("headings should render")
	}
}

func TestBuildDocumentEscapesTitle(t *testing.T) {
	doc, err := buildDocument("# x", `<script>alert(1)</script>`)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if strings.Contains(doc, "<script>alert") {
		t.Fatal("title must be escaped")
	}
}

func TestSanitizeStripsNewlines(t *testing.T) {
	if got := sanitize("a\nb\rc"); got != "a b c" {
		t.Fatalf("unexpected sanitize output: %q", got)
	}
}
