// Package policy applies fixed financial assumptions to aggregate totals to
// produce the savings and backlog estimates quoted in the reports. All
// computation here is pure arithmetic over counts already produced by the
// aggregators.
package policy

import (
	"github.com/civic-data/caseload.report/internal/aggregate"
	"github.com/civic-data/caseload.report/internal/config"
)

// daysPerYear is the annualization basis for scaling the observation window.
const daysPerYear = 365.0

// Totals are the aggregate inputs the calculator needs. Keeping this a plain
// struct keeps the calculator independent of how tables were produced.
type Totals struct {
	TotalCases   int
	ParkingCases int
	ActiveCases  int
	WeekendCases int
	SchoolZone   int
	MissingRace  int
}

// Estimate is the set of derived policy scalars.
type Estimate struct {
	ParkingCases           int     `json:"parking_cases"`
	ProcessingCostPerCase  float64 `json:"processing_cost_per_case"`
	DiversionRate          float64 `json:"diversion_rate"`
	ObservationWindowDays  int     `json:"observation_window_days"`
	PotentialAnnualSavings float64 `json:"potential_annual_savings"`

	ActiveRate       float64 `json:"active_rate"`
	TargetActiveRate float64 `json:"target_active_rate"`
	// ExcessActiveCases is how many currently active cases exceed the target
	// rate; resolving them is the projected resolution-time reduction.
	ExcessActiveCases int `json:"excess_active_cases"`
}

// Compute derives the policy estimate from aggregate totals and the
// configured assumptions. Zero counts yield zero estimates, never an error.
func Compute(t Totals, cfg *config.Config) Estimate {
	e := Estimate{
		ParkingCases:          t.ParkingCases,
		ProcessingCostPerCase: cfg.GetProcessingCostPerCase(),
		DiversionRate:         cfg.GetDiversionRate(),
		ObservationWindowDays: cfg.GetObservationWindowDays(),
		TargetActiveRate:      cfg.GetTargetActiveRate(),
	}

	// Annual savings: parking cases diverted away from formal processing,
	// scaled from the observation window to a full year. Window days are
	// validated positive by config, but guard anyway so a zero window means
	// zero savings rather than a fault.
	if t.ParkingCases > 0 && e.ObservationWindowDays > 0 {
		annualized := float64(t.ParkingCases) * daysPerYear / float64(e.ObservationWindowDays)
		e.PotentialAnnualSavings = annualized * e.ProcessingCostPerCase * e.DiversionRate
	}

	if t.TotalCases > 0 {
		e.ActiveRate = float64(t.ActiveCases) / float64(t.TotalCases)
		excess := float64(t.ActiveCases) - e.TargetActiveRate*float64(t.TotalCases)
		if excess > 0 {
			e.ExcessActiveCases = int(excess)
		}
	}
	return e
}

// TotalsFrom extracts calculator inputs from the standard aggregate tables
// and the case-level counters the aggregators already surfaced.
func TotalsFrom(caseTypes, status, days aggregate.Table, schoolZone, missingRace int) Totals {
	weekend := days.CountFor("Saturday") + days.CountFor("Sunday")
	return Totals{
		TotalCases:   caseTypes.Total,
		ParkingCases: caseTypes.CountFor("PK"),
		ActiveCases:  status.CountFor("ACT"),
		WeekendCases: weekend,
		SchoolZone:   schoolZone,
		MissingRace:  missingRace,
	}
}
