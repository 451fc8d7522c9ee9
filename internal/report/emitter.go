package report

import (
	"fmt"
	"time"

	"github.com/civic-data/caseload.report/internal/aggregate"
	"github.com/civic-data/caseload.report/internal/monitoring"
	"github.com/civic-data/caseload.report/internal/policy"
	"github.com/civic-data/caseload.report/internal/timeutil"
)

// RenderError describes one chart that could not be rendered. Render errors
// are recovered: the chart is skipped and a warning surfaced alongside the
// rest of the output.
type RenderError struct {
	Chart string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render chart %s: %v", e.Chart, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// RunSummary carries run-level context into the narrative report: source,
// totals, skipped-record accounting, and accumulated warnings.
type RunSummary struct {
	SourcePath     string
	GeneratedAt    time.Time
	TotalCases     int
	SkippedRecords int
	DateStart      time.Time
	DateEnd        time.Time
	Warnings       []string
}

// Artifacts bundles everything the upstream stages produced for emission.
type Artifacts struct {
	Tables          []aggregate.Table
	Agencies        []aggregate.AgencyStats
	Corridors       []aggregate.CorridorStats
	Demographics    aggregate.CrossTab
	Locations       aggregate.LocationStats
	Quality         []aggregate.FieldQuality
	Estimate        policy.Estimate
	Recommendations []policy.Recommendation
}

// Emitter writes the artifact set for one pipeline run.
type Emitter struct {
	outputDir string
	chartsDir string
	clock     timeutil.Clock
	warnings  []string
}

// NewEmitter creates an emitter writing CSVs and the text report to
// outputDir and PNG charts to chartsDir.
func NewEmitter(outputDir, chartsDir string, clock timeutil.Clock) *Emitter {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Emitter{outputDir: outputDir, chartsDir: chartsDir, clock: clock}
}

// Warnings returns the recovered render warnings accumulated so far.
func (e *Emitter) Warnings() []string {
	return e.warnings
}

func (e *Emitter) warnf(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	e.warnings = append(e.warnings, msg)
	monitoring.Warnf("%s", msg)
}

// EmitAll writes every artifact: one CSV per aggregate table, the composite
// summaries, the charts, and the narrative report. Chart failures are
// recovered and surfaced as warnings; any other write error aborts emission.
func (e *Emitter) EmitAll(summary RunSummary, a Artifacts) error {
	for _, t := range a.Tables {
		if err := e.WriteTableCSV(t); err != nil {
			return err
		}
	}
	for _, t := range []aggregate.Table{a.Locations.Buckets, a.Locations.Intensity} {
		if t.Name == "" {
			continue
		}
		if err := e.WriteTableCSV(t); err != nil {
			return err
		}
	}
	if err := e.WriteAgencyCSV(a.Agencies); err != nil {
		return err
	}
	if err := e.WriteCorridorCSV(a.Corridors); err != nil {
		return err
	}
	if err := e.WriteCrossTabCSV(a.Demographics); err != nil {
		return err
	}
	if err := e.WriteQualityCSV(a.Quality); err != nil {
		return err
	}
	if err := e.WriteRecommendationsCSV(a.Recommendations); err != nil {
		return err
	}

	e.RenderCharts(a)

	summary.GeneratedAt = e.clock.Now()
	summary.Warnings = append(summary.Warnings, e.warnings...)
	return e.WriteNarrative(summary, a)
}
