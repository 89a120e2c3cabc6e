// Package dashboard renders a market report as a static HTML page.
//
// The page is self-contained except for the plotly.js CDN script; charts are
// built client-side from the report embedded in the page.
package dashboard

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"

	"marketscope/data"
)

//go:embed dashboard.html.tmpl
var templateSource string

var page = template.Must(template.New("dashboard").Parse(templateSource))

// LatestReport returns the path of the newest report for the given market in
// dir. Report filenames embed their timestamp, so lexical order is
// chronological order.
func LatestReport(dir, market string) (string, error) {
	pattern := filepath.Join(dir, fmt.Sprintf("%s_insights_*.json", market))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("error listing reports in '%s': %w", dir, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no report for market '%s' in '%s' (run analyze first): %w", market, dir, os.ErrNotExist)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// Render reads the report at reportPath and writes the dashboard page to
// outPath. The page is built in memory first, so a failed render leaves no
// partial output.
func Render(reportPath, outPath string) error {
	bs, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("error reading report '%s': %w", reportPath, err)
	}
	var report data.Report
	if err := json.Unmarshal(bs, &report); err != nil {
		return fmt.Errorf("error decoding report '%s': %w", reportPath, err)
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, pageData(&report)); err != nil {
		return fmt.Errorf("error rendering dashboard for '%s': %w", report.Market, err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("error creating dir for '%s': %w", outPath, err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("error writing dashboard to '%s': %w", outPath, err)
	}
	return nil
}

type viewData struct {
	Report     *data.Report
	ReportJSON template.JS
}

func pageData(report *data.Report) *viewData {
	// the page's charts are driven by the raw report; html/template escaping
	// would mangle it inside a <script> block, so it is embedded as JS.
	bs, err := json.Marshal(report)
	if err != nil {
		bs = []byte("null")
	}
	return &viewData{Report: report, ReportJSON: template.JS(bs)}
}
