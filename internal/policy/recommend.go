package policy

import "fmt"

// Recommendation is one prioritized action item for the narrative report and
// the recommendations CSV.
type Recommendation struct {
	Priority       string `json:"priority"`
	Category       string `json:"category"`
	Issue          string `json:"issue"`
	Recommendation string `json:"recommendation"`
	Impact         string `json:"impact"`
}

// Thresholds that decide which recommendations fire. These mirror the review
// criteria the court's policy office signed off on.
const (
	missingDataThreshold  = 0.5
	parkingShareThreshold = 0.8
	weekendShareThreshold = 0.2
)

// Recommend derives the prioritized action list from aggregate totals and
// the computed estimate. The output order is fixed (highest priority first)
// so reruns emit identical artifacts.
func Recommend(t Totals, e Estimate) []Recommendation {
	var recs []Recommendation
	if t.TotalCases == 0 {
		return recs
	}
	total := float64(t.TotalCases)

	if missingRate := float64(t.MissingRace) / total; missingRate > missingDataThreshold {
		recs = append(recs, Recommendation{
			Priority:       "HIGH",
			Category:       "Data Quality",
			Issue:          fmt.Sprintf("%.1f%% of cases missing demographic data", missingRate*100),
			Recommendation: "Mandate demographic data collection for all case types to enable equity analysis",
			Impact:         "Enable bias detection and ensure equitable enforcement",
		})
	}

	if e.ActiveRate > e.TargetActiveRate {
		recs = append(recs, Recommendation{
			Priority:       "HIGH",
			Category:       "Case Management",
			Issue:          fmt.Sprintf("%.1f%% of cases remain active against a %.0f%% target", e.ActiveRate*100, e.TargetActiveRate*100),
			Recommendation: "Review case processing procedures and staffing levels",
			Impact:         fmt.Sprintf("Resolve %d pending cases faster", e.ExcessActiveCases),
		})
	}

	if parkingShare := float64(t.ParkingCases) / total; parkingShare > parkingShareThreshold {
		recs = append(recs, Recommendation{
			Priority:       "MEDIUM",
			Category:       "Resource Allocation",
			Issue:          fmt.Sprintf("%.1f%% of cases are parking violations", parkingShare*100),
			Recommendation: "Consider alternative resolution mechanisms (online payment, warning programs)",
			Impact:         fmt.Sprintf("Potential annual savings of $%.0f at a %.0f%% diversion rate", e.PotentialAnnualSavings, e.DiversionRate*100),
		})
	}

	if t.SchoolZone > 0 {
		recs = append(recs, Recommendation{
			Priority:       "MEDIUM",
			Category:       "Public Safety",
			Issue:          fmt.Sprintf("%d school zone violations", t.SchoolZone),
			Recommendation: "Enhance school zone enforcement and education campaigns",
			Impact:         "Improve child safety near schools",
		})
	}

	if weekendShare := float64(t.WeekendCases) / total; weekendShare < weekendShareThreshold {
		recs = append(recs, Recommendation{
			Priority:       "LOW",
			Category:       "Enforcement Strategy",
			Issue:          fmt.Sprintf("Only %.1f%% of enforcement occurs on weekends", weekendShare*100),
			Recommendation: "Evaluate if weekend enforcement levels match violation patterns",
			Impact:         "Optimize resource allocation across all days",
		})
	}

	return recs
}
