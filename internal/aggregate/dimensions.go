package aggregate

import (
	"github.com/civic-data/caseload.report/internal/derive"
)

// Table names double as CSV artifact basenames, so they stay stable.
const (
	TableCaseTypes = "case_type_distribution"
	TableStatus    = "case_status"
	TableCharges   = "charge_analysis"
	TableAgencies  = "agency_distribution"
	TableStreets   = "location_hotspots"
	TableCorridors = "corridor_distribution"
	TableAreas     = "area_distribution"
	TableDays      = "cases_by_day_of_week"
	TableHours     = "cases_by_hour"
	TableRace      = "race_distribution"
	TableGender    = "gender_distribution"
)

// ByCaseType groups by the case type code.
func ByCaseType(records []derive.Record) Table {
	return Count(TableCaseTypes, "Case Type Distribution", records, func(r derive.Record) (string, bool) {
		return string(r.CaseType), true
	})
}

// ByStatus groups by case status code.
func ByStatus(records []derive.Record) Table {
	return Count(TableStatus, "Case Status Distribution", records, func(r derive.Record) (string, bool) {
		return string(r.Status), true
	})
}

// ByCharge groups by charge description.
func ByCharge(records []derive.Record) Table {
	return Count(TableCharges, "Violation Charges", records, func(r derive.Record) (string, bool) {
		return r.ChargeDesc, true
	})
}

// ByAgency groups by enforcing agency.
func ByAgency(records []derive.Record) Table {
	return Count(TableAgencies, "Enforcement Agencies", records, func(r derive.Record) (string, bool) {
		return r.Agency, true
	})
}

// ByStreet groups by raw street name. Records with no street are excluded
// from this dimension; corridor and area bucketing keep them as unclassified.
func ByStreet(records []derive.Record) Table {
	return Count(TableStreets, "Enforcement Locations", records, func(r derive.Record) (string, bool) {
		return r.StreetName, r.StreetName != ""
	})
}

// ByCorridor groups by the derived corridor label.
func ByCorridor(records []derive.Record) Table {
	return Count(TableCorridors, "Enforcement Corridors", records, func(r derive.Record) (string, bool) {
		return r.Corridor, true
	})
}

// ByArea groups by the derived area label.
func ByArea(records []derive.Record) Table {
	return Count(TableAreas, "Cases by Area", records, func(r derive.Record) (string, bool) {
		return r.Area, true
	})
}

// ByDayOfWeek groups by offense day of week.
func ByDayOfWeek(records []derive.Record) Table {
	return Count(TableDays, "Cases by Day of Week", records, func(r derive.Record) (string, bool) {
		return r.DayOfWeek.String(), true
	})
}

// ByHour groups by the derived hour bucket, including the unknown bucket for
// records without a usable offense time.
func ByHour(records []derive.Record) Table {
	return Count(TableHours, "Cases by Hour", records, func(r derive.Record) (string, bool) {
		return r.Hour.Label(), true
	})
}

// ByRace groups by defendant race with an explicit missing row.
func ByRace(records []derive.Record) Table {
	return Count(TableRace, "Race Distribution", records, func(r derive.Record) (string, bool) {
		return r.Race.Or(MissingKey), true
	})
}

// ByGender groups by defendant gender with an explicit missing row.
func ByGender(records []derive.Record) Table {
	return Count(TableGender, "Gender Distribution", records, func(r derive.Record) (string, bool) {
		return r.Gender.Or(MissingKey), true
	})
}

// Standard computes every single-dimension table in one pass over the
// pipeline. The order here fixes the artifact emission order.
func Standard(records []derive.Record) []Table {
	return []Table{
		ByCaseType(records),
		ByStatus(records),
		ByCharge(records),
		ByAgency(records),
		ByStreet(records),
		ByCorridor(records),
		ByArea(records),
		ByDayOfWeek(records),
		ByHour(records),
		ByRace(records),
		ByGender(records),
	}
}
