// Command analyse runs the full caseload analysis pipeline over one court
// case export: load, derive, aggregate, apply policy assumptions, and emit
// the CSV/PNG/text artifact set. Each run can optionally be archived in the
// SQLite database the dashboard serves.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/civic-data/caseload.report/internal/aggregate"
	"github.com/civic-data/caseload.report/internal/config"
	"github.com/civic-data/caseload.report/internal/derive"
	"github.com/civic-data/caseload.report/internal/geo"
	"github.com/civic-data/caseload.report/internal/load"
	"github.com/civic-data/caseload.report/internal/monitoring"
	"github.com/civic-data/caseload.report/internal/policy"
	"github.com/civic-data/caseload.report/internal/report"
	"github.com/civic-data/caseload.report/internal/store"
	"github.com/civic-data/caseload.report/internal/timeutil"
	"github.com/civic-data/caseload.report/internal/version"
)

func main() {
	var (
		inputPath   = flag.String("input", "", "Path to the JSON case export (required)")
		configPath  = flag.String("config", "", "Path to the analysis config JSON (defaults baked in)")
		refPath     = flag.String("reference", "", "Path to the corridor/area reference YAML (overrides config)")
		outputDir   = flag.String("output", "", "Output directory for CSVs and the text report (overrides config)")
		archive     = flag.String("db", "", "Archive the run into this SQLite database")
		verbose     = flag.Bool("verbose", false, "Log per-record schema errors")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("analyse", version.String())
		return
	}

	if *inputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*inputPath, *configPath, *refPath, *outputDir, *archive, *verbose); err != nil {
		var cfgErr *config.ConfigError
		var loadErr *load.LoadError
		switch {
		case errors.As(err, &cfgErr):
			log.Fatalf("config error: %v", err)
		case errors.As(err, &loadErr):
			log.Fatalf("load error: %v", err)
		default:
			log.Fatalf("analysis failed: %v", err)
		}
	}
}

func run(inputPath, configPath, refPath, outputDir, archivePath string, verbose bool) error {
	start := time.Now()

	cfg := config.Empty()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if refPath == "" {
		refPath = cfg.GetReferencePath()
	}
	ref := geo.DefaultReference()
	if refPath != "" {
		loaded, err := geo.LoadReference(refPath)
		if err != nil {
			return err
		}
		ref = loaded
	}

	// Load. A LoadError here aborts before any artifact is written.
	result, err := load.File(inputPath)
	if err != nil {
		return err
	}
	monitoring.Logf("loaded %d cases from %s (%d skipped)", len(result.Cases), inputPath, result.Skipped)
	if verbose {
		for _, se := range result.Errors {
			monitoring.Warnf("%v", &se)
		}
	}

	// Derive and aggregate.
	records := derive.All(result.Cases, ref)
	tables := aggregate.Standard(records)
	agencies := aggregate.AgencyPerformance(records)
	corridors := aggregate.CorridorSummary(records)
	demographics := aggregate.DemographicsByCaseType(records)
	quality := aggregate.DataQuality(records)

	var streets aggregate.Table
	var caseTypes, status, days aggregate.Table
	for _, t := range tables {
		switch t.Name {
		case aggregate.TableStreets:
			streets = t
		case aggregate.TableCaseTypes:
			caseTypes = t
		case aggregate.TableStatus:
			status = t
		case aggregate.TableDays:
			days = t
		}
	}
	locations := aggregate.Concentration(streets)

	// Policy estimate and recommendations.
	schoolZone, missingRace := 0, 0
	for _, r := range records {
		if r.SchoolZone {
			schoolZone++
		}
		if r.Race.IsMissing() {
			missingRace++
		}
	}
	totals := policy.TotalsFrom(caseTypes, status, days, schoolZone, missingRace)
	estimate := policy.Compute(totals, cfg)
	recommendations := policy.Recommend(totals, estimate)

	// Emit artifacts.
	summary := report.RunSummary{
		SourcePath:     inputPath,
		TotalCases:     len(records),
		SkippedRecords: result.Skipped,
	}
	summary.DateStart, summary.DateEnd = dateRange(records)

	if outputDir == "" {
		outputDir = cfg.GetOutputDir()
	}
	emitter := report.NewEmitter(outputDir, cfg.GetChartsDir(), timeutil.RealClock{})
	artifacts := report.Artifacts{
		Tables:          tables,
		Agencies:        agencies,
		Corridors:       corridors,
		Demographics:    demographics,
		Locations:       locations,
		Quality:         quality,
		Estimate:        estimate,
		Recommendations: recommendations,
	}
	if err := emitter.EmitAll(summary, artifacts); err != nil {
		return err
	}

	// Archive the run for the dashboard.
	if archivePath != "" {
		s, err := store.Open(archivePath)
		if err != nil {
			return fmt.Errorf("failed to open run archive: %w", err)
		}
		defer s.Close()

		run := store.Run{
			RunID:          store.NewRunID(),
			SourcePath:     inputPath,
			TotalCases:     len(records),
			SkippedRecords: result.Skipped,
			WindowDays:     cfg.GetObservationWindowDays(),
		}
		archived := append(tables, locations.Buckets, locations.Intensity)
		if err := s.SaveRun(run, archived, estimate); err != nil {
			return fmt.Errorf("failed to archive run: %w", err)
		}
		monitoring.Logf("archived run %s to %s", run.RunID, archivePath)
	}

	monitoring.Logf("analysis complete: %d cases, %d tables, %d warnings in %v",
		len(records), len(tables), len(emitter.Warnings()), time.Since(start).Round(time.Millisecond))
	return nil
}

// dateRange finds the earliest and latest offense dates in the snapshot.
func dateRange(records []derive.Record) (start, end time.Time) {
	for _, r := range records {
		if start.IsZero() || r.OffenseDate.Before(start) {
			start = r.OffenseDate
		}
		if end.IsZero() || r.OffenseDate.After(end) {
			end = r.OffenseDate
		}
	}
	return start, end
}
