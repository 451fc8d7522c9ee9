// Package report serializes aggregate tables and the policy estimate into
// the published artifact set: per-dimension CSV files, PNG charts, and the
// narrative text report. No new computation happens here; emission is
// template substitution and serialization over data the upstream stages
// already produced.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/civic-data/caseload.report/internal/aggregate"
	"github.com/civic-data/caseload.report/internal/policy"
)

// formatPercent fixes the one-decimal presentation used in every CSV so
// reruns are byte-identical.
func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// writeCSV writes rows to path, creating parent directories as needed.
func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}

// WriteTableCSV writes one aggregate table as <outputDir>/<table name>.csv
// with the stable column order key,count,percentage.
func (e *Emitter) WriteTableCSV(t aggregate.Table) error {
	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, []string{r.Key, strconv.Itoa(r.Count), formatPercent(r.Percent)})
	}
	path := filepath.Join(e.outputDir, t.Name+".csv")
	return writeCSV(path, []string{"key", "count", "percentage"}, rows)
}

// WriteAgencyCSV writes the agency performance summary.
func (e *Emitter) WriteAgencyCSV(stats []aggregate.AgencyStats) error {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Agency,
			strconv.Itoa(s.TotalCases),
			strconv.Itoa(s.ActiveCases),
			formatPercent(s.ActiveRate),
			strconv.Itoa(s.SchoolZoneCases),
			s.PrimaryCaseType,
		})
	}
	path := filepath.Join(e.outputDir, "agency_performance.csv")
	header := []string{"agency", "total_cases", "active_cases", "active_rate", "school_zone_cases", "primary_case_type"}
	return writeCSV(path, header, rows)
}

// WriteCorridorCSV writes the corridor enforcement summary.
func (e *Emitter) WriteCorridorCSV(stats []aggregate.CorridorStats) error {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Corridor,
			strconv.Itoa(s.TotalCases),
			strconv.Itoa(s.ParkingCases),
			strconv.Itoa(s.TrafficCases),
			strconv.Itoa(s.ActiveCases),
			formatPercent(s.ActiveRate),
		})
	}
	path := filepath.Join(e.outputDir, "corridor_analysis.csv")
	header := []string{"corridor", "total_cases", "parking_cases", "traffic_cases", "active_cases", "active_rate"}
	return writeCSV(path, header, rows)
}

// WriteCrossTabCSV writes a crosstab with row keys in the first column and
// one column per column key.
func (e *Emitter) WriteCrossTabCSV(ct aggregate.CrossTab) error {
	header := append([]string{"key"}, ct.ColKeys...)
	rows := make([][]string, 0, len(ct.RowKeys))
	for _, rk := range ct.RowKeys {
		row := []string{rk}
		for _, ck := range ct.ColKeys {
			row = append(row, strconv.Itoa(ct.Counts[rk][ck]))
		}
		rows = append(rows, row)
	}
	path := filepath.Join(e.outputDir, ct.Name+".csv")
	return writeCSV(path, header, rows)
}

// WriteQualityCSV writes the data-quality profile.
func (e *Emitter) WriteQualityCSV(quality []aggregate.FieldQuality) error {
	rows := make([][]string, 0, len(quality))
	for _, q := range quality {
		rows = append(rows, []string{
			q.Field,
			strconv.Itoa(q.Missing),
			formatPercent(q.MissingPct),
			strconv.Itoa(q.Unique),
		})
	}
	path := filepath.Join(e.outputDir, "data_quality.csv")
	return writeCSV(path, []string{"field", "missing", "missing_pct", "unique_values"}, rows)
}

// WriteRecommendationsCSV writes the prioritized policy recommendations.
func (e *Emitter) WriteRecommendationsCSV(recs []policy.Recommendation) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{r.Priority, r.Category, r.Issue, r.Recommendation, r.Impact})
	}
	path := filepath.Join(e.outputDir, "policy_recommendations.csv")
	return writeCSV(path, []string{"priority", "category", "issue", "recommendation", "impact"}, rows)
}
