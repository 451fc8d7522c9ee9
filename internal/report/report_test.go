package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/civic-data/caseload.report/internal/aggregate"
	"github.com/civic-data/caseload.report/internal/monitoring"
	"github.com/civic-data/caseload.report/internal/policy"
	"github.com/civic-data/caseload.report/internal/timeutil"
)

func TestMain(m *testing.M) {
	// Keep chart/table warnings out of test output.
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func testArtifacts() Artifacts {
	return Artifacts{
		Tables: []aggregate.Table{
			{
				Name:  aggregate.TableCaseTypes,
				Title: "Case Type Distribution",
				Total: 5,
				Rows: []aggregate.Row{
					{Key: "PK", Count: 3, Percent: 60.0},
					{Key: "OR", Count: 1, Percent: 20.0},
					{Key: "TR", Count: 1, Percent: 20.0},
				},
			},
			{
				Name:  aggregate.TableStatus,
				Title: "Case Status Distribution",
				Total: 5,
				Rows: []aggregate.Row{
					{Key: "ACT", Count: 4, Percent: 80.0},
					{Key: "TERM", Count: 1, Percent: 20.0},
				},
			},
			{
				Name:  aggregate.TableDays,
				Title: "Cases by Day of Week",
				Total: 5,
				Rows: []aggregate.Row{
					{Key: "Monday", Count: 3, Percent: 60.0},
					{Key: "Saturday", Count: 2, Percent: 40.0},
				},
			},
			{
				Name:  aggregate.TableHours,
				Title: "Cases by Hour",
				Total: 5,
				Rows: []aggregate.Row{
					{Key: "09:00", Count: 4, Percent: 80.0},
					{Key: "unknown", Count: 1, Percent: 20.0},
				},
			},
		},
		Agencies: []aggregate.AgencyStats{
			{Agency: "APD", TotalCases: 5, ActiveCases: 4, ActiveRate: 80.0, SchoolZoneCases: 1, PrimaryCaseType: "PK"},
		},
		Corridors: []aggregate.CorridorStats{
			{Corridor: "S CONGRESS AVE", TotalCases: 3, ParkingCases: 3, ActiveCases: 2, ActiveRate: 66.7},
			{Corridor: "Unclassified", TotalCases: 2, TrafficCases: 1, ActiveCases: 2, ActiveRate: 100.0},
		},
		Demographics: aggregate.CrossTab{
			Name:    "demographics_by_case_type",
			RowKeys: []string{"(missing)", "WHITE"},
			ColKeys: []string{"PK", "TR"},
			Counts: map[string]map[string]int{
				"(missing)": {"PK": 2},
				"WHITE":     {"PK": 1, "TR": 1},
			},
		},
		Locations: aggregate.LocationStats{
			UniqueLocations: 2,
			Buckets: aggregate.Table{
				Name:  "location_concentration",
				Title: "Location Concentration",
				Total: 2,
				Rows:  []aggregate.Row{{Key: "1-10", Count: 2, Percent: 100.0}},
			},
			Intensity: aggregate.Table{
				Name:  "location_intensity",
				Title: "Enforcement Intensity",
				Total: 2,
				Rows:  []aggregate.Row{{Key: "Low", Count: 2, Percent: 100.0}},
			},
		},
		Quality: []aggregate.FieldQuality{
			{Field: "Race", Missing: 2, MissingPct: 40.0, Unique: 1},
		},
		Estimate: policy.Estimate{
			ParkingCases:           3,
			ProcessingCostPerCase:  45.0,
			DiversionRate:          0.30,
			ObservationWindowDays:  31,
			PotentialAnnualSavings: 476.9,
			ActiveRate:             0.8,
			TargetActiveRate:       0.5,
			ExcessActiveCases:      1,
		},
		Recommendations: []policy.Recommendation{
			{Priority: "HIGH", Category: "Case Management", Issue: "backlog", Recommendation: "review staffing", Impact: "faster resolution"},
		},
	}
}

func testSummary() RunSummary {
	return RunSummary{
		SourcePath:     "export.json",
		TotalCases:     5,
		SkippedRecords: 1,
		DateStart:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DateEnd:        time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func emitAll(t *testing.T, dir string) *Emitter {
	t.Helper()
	clock := timeutil.NewMockClock(time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC))
	e := NewEmitter(filepath.Join(dir, "output"), filepath.Join(dir, "charts"), clock)
	if err := e.EmitAll(testSummary(), testArtifacts()); err != nil {
		t.Fatalf("EmitAll failed: %v", err)
	}
	return e
}

func TestEmitAllArtifactSet(t *testing.T) {
	dir := t.TempDir()
	emitAll(t, dir)

	wantCSVs := []string{
		"case_type_distribution.csv",
		"case_status.csv",
		"cases_by_day_of_week.csv",
		"cases_by_hour.csv",
		"location_concentration.csv",
		"location_intensity.csv",
		"agency_performance.csv",
		"corridor_analysis.csv",
		"demographics_by_case_type.csv",
		"data_quality.csv",
		"policy_recommendations.csv",
		narrativeFilename,
	}
	for _, name := range wantCSVs {
		if _, err := os.Stat(filepath.Join(dir, "output", name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
}

func TestWriteTableCSVFormat(t *testing.T) {
	dir := t.TempDir()
	e := NewEmitter(dir, dir, nil)
	if err := e.WriteTableCSV(testArtifacts().Tables[0]); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "case_type_distribution.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := "key,count,percentage\nPK,3,60.0\nOR,1,20.0\nTR,1,20.0\n"
	if string(data) != want {
		t.Errorf("CSV = %q, want %q", string(data), want)
	}
}

// Two runs over the same snapshot must produce byte-identical CSVs and
// narrative; only the clock is injected, so fixing it fixes all output.
func TestEmitAllIdempotent(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	emitAll(t, dirA)
	emitAll(t, dirB)

	entries, err := os.ReadDir(filepath.Join(dirA, "output"))
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		a, err := os.ReadFile(filepath.Join(dirA, "output", entry.Name()))
		if err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(filepath.Join(dirB, "output", entry.Name()))
		if err != nil {
			t.Fatalf("artifact %s missing from second run: %v", entry.Name(), err)
		}
		if string(a) != string(b) {
			t.Errorf("artifact %s differs between runs", entry.Name())
		}
	}
}

func TestNarrativeContent(t *testing.T) {
	dir := t.TempDir()
	emitAll(t, dir)

	data, err := os.ReadFile(filepath.Join(dir, "output", narrativeFilename))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	for _, want := range []string{
		"MUNICIPAL COURT POLICY ANALYSIS REPORT",
		"Report Generated: 2024-04-01 12:00:00",
		"Total Cases Analyzed: 5",
		"Records Skipped (schema errors): 1",
		"March 1, 2024 to March 31, 2024",
		"CASE TYPE DISTRIBUTION",
		"Active Cases:",
		"Potential Annual Savings:      $477",
		"1. [HIGH] Case Management",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("narrative missing %q", want)
		}
	}
}

func TestNarrativeNoRecommendations(t *testing.T) {
	dir := t.TempDir()
	clock := timeutil.NewMockClock(time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC))
	e := NewEmitter(dir, dir, clock)

	a := testArtifacts()
	a.Recommendations = nil
	if err := e.WriteNarrative(testSummary(), a); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, narrativeFilename))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "No recommendations triggered.") {
		t.Error("narrative should note when no recommendations fired")
	}
}

// A chart over an empty or missing table is skipped with a warning; the rest
// of the charts still render and emission does not fail.
func TestRenderChartsRecoversFailures(t *testing.T) {
	dir := t.TempDir()
	e := NewEmitter(filepath.Join(dir, "output"), filepath.Join(dir, "charts"), nil)

	a := testArtifacts()
	a.Tables = a.Tables[:2] // drop days and hours tables
	a.Corridors = nil
	e.RenderCharts(a)

	if len(e.Warnings()) != 3 {
		t.Fatalf("warnings = %d, want 3: %v", len(e.Warnings()), e.Warnings())
	}
	for _, w := range e.Warnings() {
		if !strings.Contains(w, "failed to render chart") {
			t.Errorf("unexpected warning %q", w)
		}
	}

	// The case type chart still rendered.
	if _, err := os.Stat(filepath.Join(dir, "charts", ChartCaseTypes)); err != nil {
		t.Errorf("case type chart missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "charts", ChartDays)); err == nil {
		t.Error("days chart should have been skipped")
	}
}

func TestRenderChartsFullSet(t *testing.T) {
	dir := t.TempDir()
	e := NewEmitter(filepath.Join(dir, "output"), filepath.Join(dir, "charts"), nil)
	e.RenderCharts(testArtifacts())

	if len(e.Warnings()) != 0 {
		t.Fatalf("unexpected warnings: %v", e.Warnings())
	}
	for _, name := range []string{ChartCaseTypes, ChartDays, ChartHours, ChartCorridors} {
		if _, err := os.Stat(filepath.Join(dir, "charts", name)); err != nil {
			t.Errorf("missing chart %s: %v", name, err)
		}
	}
}
