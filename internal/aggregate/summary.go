package aggregate

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/civic-data/caseload.report/internal/caseload"
	"github.com/civic-data/caseload.report/internal/derive"
	"github.com/civic-data/caseload.report/internal/geo"
)

// AgencyStats summarizes one agency's enforcement activity.
type AgencyStats struct {
	Agency          string  `json:"agency"`
	TotalCases      int     `json:"total_cases"`
	ActiveCases     int     `json:"active_cases"`
	ActiveRate      float64 `json:"active_rate"`
	SchoolZoneCases int     `json:"school_zone_cases"`
	PrimaryCaseType string  `json:"primary_case_type"`
}

// CorridorStats summarizes one corridor's case mix.
type CorridorStats struct {
	Corridor     string  `json:"corridor"`
	TotalCases   int     `json:"total_cases"`
	ParkingCases int     `json:"parking_cases"`
	TrafficCases int     `json:"traffic_cases"`
	ActiveCases  int     `json:"active_cases"`
	ActiveRate   float64 `json:"active_rate"`
}

// LocationStats describes how concentrated enforcement is across unique
// locations, with distribution statistics over per-location case counts.
type LocationStats struct {
	UniqueLocations   int     `json:"unique_locations"`
	MeanPerLocation   float64 `json:"mean_cases_per_location"`
	MedianPerLocation float64 `json:"median_cases_per_location"`
	P90PerLocation    float64 `json:"p90_cases_per_location"`
	MaxPerLocation    int     `json:"max_cases_per_location"`
	// Buckets counts locations per case-count range, in range order.
	Buckets Table `json:"buckets"`
	// Intensity counts locations per enforcement-intensity label.
	Intensity Table `json:"intensity"`
}

// concentrationBuckets are the case-count ranges for the concentration
// histogram. Upper bound of zero means unbounded.
var concentrationBuckets = []struct {
	Label string
	Max   int
}{
	{"1-10", 10},
	{"11-25", 25},
	{"26-50", 50},
	{"51-100", 100},
	{"100+", 0},
}

func bucketLabel(count int) string {
	for _, b := range concentrationBuckets {
		if b.Max == 0 || count <= b.Max {
			return b.Label
		}
	}
	return concentrationBuckets[len(concentrationBuckets)-1].Label
}

// FieldQuality reports completeness of one export field.
type FieldQuality struct {
	Field      string  `json:"field"`
	Missing    int     `json:"missing"`
	MissingPct float64 `json:"missing_pct"`
	Unique     int     `json:"unique"`
}

// AgencyPerformance computes per-agency stats sorted by descending total,
// ties broken by agency name.
func AgencyPerformance(records []derive.Record) []AgencyStats {
	type acc struct {
		total, active, schoolZone int
		byType                    map[caseload.CaseType]int
	}
	accs := make(map[string]*acc)
	for _, r := range records {
		a := accs[r.Agency]
		if a == nil {
			a = &acc{byType: make(map[caseload.CaseType]int)}
			accs[r.Agency] = a
		}
		a.total++
		a.byType[r.CaseType]++
		if r.IsActive() {
			a.active++
		}
		if r.SchoolZone {
			a.schoolZone++
		}
	}

	out := make([]AgencyStats, 0, len(accs))
	for agency, a := range accs {
		out = append(out, AgencyStats{
			Agency:          agency,
			TotalCases:      a.total,
			ActiveCases:     a.active,
			ActiveRate:      RoundPercent(float64(a.active) / float64(a.total) * 100),
			SchoolZoneCases: a.schoolZone,
			PrimaryCaseType: primaryType(a.byType),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCases != out[j].TotalCases {
			return out[i].TotalCases > out[j].TotalCases
		}
		return out[i].Agency < out[j].Agency
	})
	return out
}

// CorridorSummary computes per-corridor stats sorted by descending total,
// ties broken by corridor name.
func CorridorSummary(records []derive.Record) []CorridorStats {
	type acc struct{ total, parking, traffic, active int }
	accs := make(map[string]*acc)
	for _, r := range records {
		a := accs[r.Corridor]
		if a == nil {
			a = &acc{}
			accs[r.Corridor] = a
		}
		a.total++
		if r.CaseType == caseload.Parking {
			a.parking++
		}
		if r.CaseType == caseload.Traffic {
			a.traffic++
		}
		if r.IsActive() {
			a.active++
		}
	}

	out := make([]CorridorStats, 0, len(accs))
	for corridor, a := range accs {
		out = append(out, CorridorStats{
			Corridor:     corridor,
			TotalCases:   a.total,
			ParkingCases: a.parking,
			TrafficCases: a.traffic,
			ActiveCases:  a.active,
			ActiveRate:   RoundPercent(float64(a.active) / float64(a.total) * 100),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCases != out[j].TotalCases {
			return out[i].TotalCases > out[j].TotalCases
		}
		return out[i].Corridor < out[j].Corridor
	})
	return out
}

// CrossTab counts records per (rowKey, colKey) pair, e.g. race by case type.
// Row and column orders are lexical for deterministic output.
type CrossTab struct {
	Name    string                    `json:"name"`
	RowKeys []string                  `json:"row_keys"`
	ColKeys []string                  `json:"col_keys"`
	Counts  map[string]map[string]int `json:"counts"`
}

// DemographicsByCaseType cross-tabulates defendant race against case type,
// with the dedicated missing row included.
func DemographicsByCaseType(records []derive.Record) CrossTab {
	ct := CrossTab{
		Name:   "demographics_by_case_type",
		Counts: make(map[string]map[string]int),
	}
	cols := make(map[string]bool)
	for _, r := range records {
		row := r.Race.Or(MissingKey)
		col := string(r.CaseType)
		if ct.Counts[row] == nil {
			ct.Counts[row] = make(map[string]int)
			ct.RowKeys = append(ct.RowKeys, row)
		}
		ct.Counts[row][col]++
		if !cols[col] {
			cols[col] = true
			ct.ColKeys = append(ct.ColKeys, col)
		}
	}
	sort.Strings(ct.RowKeys)
	sort.Strings(ct.ColKeys)
	return ct
}

// Concentration computes the location concentration profile from the street
// hotspot table.
func Concentration(streets Table) LocationStats {
	ls := LocationStats{UniqueLocations: len(streets.Rows)}
	if len(streets.Rows) == 0 {
		ls.Buckets = Table{Name: "location_concentration", Title: "Location Concentration"}
		ls.Intensity = Table{Name: "location_intensity", Title: "Enforcement Intensity"}
		return ls
	}

	counts := make([]float64, 0, len(streets.Rows))
	intensity := make(map[string]int)
	buckets := make(map[string]int)
	for _, r := range streets.Rows {
		counts = append(counts, float64(r.Count))
		intensity[geo.Intensity(r.Count)]++
		buckets[bucketLabel(r.Count)]++
		if r.Count > ls.MaxPerLocation {
			ls.MaxPerLocation = r.Count
		}
	}
	sort.Float64s(counts)

	ls.MeanPerLocation = RoundPercent(stat.Mean(counts, nil))
	ls.MedianPerLocation = stat.Quantile(0.5, stat.Empirical, counts, nil)
	ls.P90PerLocation = stat.Quantile(0.9, stat.Empirical, counts, nil)

	// The histogram stays in range order rather than count order.
	bucketRows := make([]Row, 0, len(concentrationBuckets))
	for _, b := range concentrationBuckets {
		n, ok := buckets[b.Label]
		if !ok {
			continue
		}
		bucketRows = append(bucketRows, Row{
			Key:     b.Label,
			Count:   n,
			Percent: RoundPercent(float64(n) / float64(ls.UniqueLocations) * 100),
		})
	}
	ls.Buckets = Table{
		Name:  "location_concentration",
		Title: "Location Concentration",
		Total: ls.UniqueLocations,
		Rows:  bucketRows,
	}

	rows := make([]Row, 0, len(intensity))
	for label, n := range intensity {
		rows = append(rows, Row{
			Key:     label,
			Count:   n,
			Percent: RoundPercent(float64(n) / float64(ls.UniqueLocations) * 100),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Key < rows[j].Key
	})
	ls.Intensity = Table{
		Name:  "location_intensity",
		Title: "Enforcement Intensity",
		Total: ls.UniqueLocations,
		Rows:  rows,
	}
	return ls
}

// DataQuality profiles completeness of the optional and free-text fields.
func DataQuality(records []derive.Record) []FieldQuality {
	n := len(records)
	missingRace, missingGender, missingTime, missingStreet := 0, 0, 0, 0
	uniqRace := make(map[string]bool)
	uniqGender := make(map[string]bool)
	uniqStreet := make(map[string]bool)
	uniqAgency := make(map[string]bool)

	for _, r := range records {
		if r.Race.IsMissing() {
			missingRace++
		} else {
			uniqRace[r.Race.Or("")] = true
		}
		if r.Gender.IsMissing() {
			missingGender++
		} else {
			uniqGender[r.Gender.Or("")] = true
		}
		if !r.Hour.Known {
			missingTime++
		}
		if r.StreetName == "" {
			missingStreet++
		} else {
			uniqStreet[r.StreetName] = true
		}
		uniqAgency[r.Agency] = true
	}

	pct := func(m int) float64 {
		if n == 0 {
			return 0
		}
		return RoundPercent(float64(m) / float64(n) * 100)
	}
	return []FieldQuality{
		{Field: "Race", Missing: missingRace, MissingPct: pct(missingRace), Unique: len(uniqRace)},
		{Field: "Defendant Gender", Missing: missingGender, MissingPct: pct(missingGender), Unique: len(uniqGender)},
		{Field: "Offense Time", Missing: missingTime, MissingPct: pct(missingTime), Unique: 0},
		{Field: "Offense Street Name", Missing: missingStreet, MissingPct: pct(missingStreet), Unique: len(uniqStreet)},
		{Field: "Agency", Missing: 0, MissingPct: 0, Unique: len(uniqAgency)},
	}
}

func primaryType(byType map[caseload.CaseType]int) string {
	best := ""
	bestCount := -1
	keys := make([]string, 0, len(byType))
	for t := range byType {
		keys = append(keys, string(t))
	}
	sort.Strings(keys)
	for _, t := range keys {
		if n := byType[caseload.CaseType(t)]; n > bestCount {
			best = t
			bestCount = n
		}
	}
	return best
}
