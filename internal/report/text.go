package report

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/civic-data/caseload.report/internal/aggregate"
)

// narrativeFilename is the main text artifact.
const narrativeFilename = "policy_analysis_report.txt"

const narrativeTemplate = `================================================================================
MUNICIPAL COURT POLICY ANALYSIS REPORT
================================================================================

Report Generated: {{.Summary.GeneratedAt.Format "2006-01-02 15:04:05"}}
Source: {{.Summary.SourcePath}}
Total Cases Analyzed: {{.Summary.TotalCases}}
Records Skipped (schema errors): {{.Summary.SkippedRecords}}
Date Range: {{.Summary.DateStart.Format "January 2, 2006"}} to {{.Summary.DateEnd.Format "January 2, 2006"}}

CASE TYPE DISTRIBUTION
--------------------------------------------------------------------------------
{{range .CaseTypes.Rows}}{{printf "%-6s %6d cases (%5.1f%%)" .Key .Count .Percent}}
{{end}}
CASE RESOLUTION
--------------------------------------------------------------------------------
{{printf "Active Cases:     %6d (%5.1f%%)" .ActiveCount .ActivePct}}
{{printf "Terminated Cases: %6d (%5.1f%%)" .TerminatedCount .TerminatedPct}}

DATA QUALITY
--------------------------------------------------------------------------------
{{range .Artifacts.Quality}}{{printf "%-22s missing %6d (%5.1f%%), %d unique values" .Field .Missing .MissingPct .Unique}}
{{end}}
POLICY ESTIMATE
--------------------------------------------------------------------------------
{{printf "Parking Cases (window):        %d" .Artifacts.Estimate.ParkingCases}}
{{printf "Processing Cost per Case:      $%.2f" .Artifacts.Estimate.ProcessingCostPerCase}}
{{printf "Assumed Diversion Rate:        %.0f%%" (pct .Artifacts.Estimate.DiversionRate)}}
{{printf "Observation Window:            %d days" .Artifacts.Estimate.ObservationWindowDays}}
{{printf "Potential Annual Savings:      $%.0f" .Artifacts.Estimate.PotentialAnnualSavings}}
{{printf "Active Rate vs Target:         %.1f%% vs %.0f%%" (pct .Artifacts.Estimate.ActiveRate) (pct .Artifacts.Estimate.TargetActiveRate)}}
{{printf "Excess Active Cases:           %d" .Artifacts.Estimate.ExcessActiveCases}}

RECOMMENDED ACTIONS
--------------------------------------------------------------------------------
{{range $i, $r := .Artifacts.Recommendations}}{{printf "%d. [%s] %s" (inc $i) $r.Priority $r.Category}}
   Issue: {{$r.Issue}}
   Action: {{$r.Recommendation}}
   Impact: {{$r.Impact}}
{{else}}No recommendations triggered.
{{end}}{{if .Summary.Warnings}}
WARNINGS
--------------------------------------------------------------------------------
{{range .Summary.Warnings}}- {{.}}
{{end}}{{end}}================================================================================
`

type narrativeData struct {
	Summary         RunSummary
	Artifacts       Artifacts
	CaseTypes       aggregate.Table
	ActiveCount     int
	ActivePct       float64
	TerminatedCount int
	TerminatedPct   float64
}

var narrativeFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"pct": func(rate float64) float64 { return rate * 100 },
}

var narrative = template.Must(template.New("narrative").Funcs(narrativeFuncs).Parse(narrativeTemplate))

// WriteNarrative assembles the text report from the aggregates by template
// substitution.
func (e *Emitter) WriteNarrative(summary RunSummary, a Artifacts) error {
	data := narrativeData{Summary: summary, Artifacts: a}
	for _, t := range a.Tables {
		switch t.Name {
		case aggregate.TableCaseTypes:
			data.CaseTypes = t
		case aggregate.TableStatus:
			for _, r := range t.Rows {
				switch r.Key {
				case "ACT":
					data.ActiveCount = r.Count
					data.ActivePct = r.Percent
				case "TERM":
					data.TerminatedCount = r.Count
					data.TerminatedPct = r.Percent
				}
			}
		}
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(e.outputDir, narrativeFilename)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := narrative.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render narrative report: %w", err)
	}
	return f.Close()
}
