package aggregate

import (
	"testing"
	"time"

	"github.com/civic-data/caseload.report/internal/caseload"
	"github.com/civic-data/caseload.report/internal/derive"
	"github.com/civic-data/caseload.report/internal/geo"
)

func sampleRecords() []derive.Record {
	ref := geo.DefaultReference()
	cases := []caseload.Case{
		{
			CaseType:    caseload.Parking,
			OffenseDate: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), // Monday
			OffenseTime: "09:15:00",
			ChargeDesc:  "EXPIRED METER",
			StreetName:  "1200 S CONGRESS AVE",
			Status:      caseload.StatusActive,
			Race:        caseload.Known("WHITE"),
			Gender:      caseload.Known("F"),
			Agency:      "APD",
		},
		{
			CaseType:    caseload.Parking,
			OffenseDate: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), // Saturday
			OffenseTime: "",
			ChargeDesc:  "EXPIRED METER",
			StreetName:  "1200 S CONGRESS AVE",
			Status:      caseload.StatusTerminated,
			Agency:      "APD",
		},
		{
			CaseType:    caseload.Traffic,
			OffenseDate: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), // Tuesday
			OffenseTime: "22:05:00",
			ChargeDesc:  "SPEEDING",
			StreetName:  "",
			Status:      caseload.StatusActive,
			Race:        caseload.Known("HISPANIC"),
			Agency:      "DPS",
		},
	}
	return derive.All(cases, ref)
}

func findTable(t *testing.T, tables []Table, name string) Table {
	t.Helper()
	for _, tbl := range tables {
		if tbl.Name == name {
			return tbl
		}
	}
	t.Fatalf("table %s not found", name)
	return Table{}
}

func TestStandardTables(t *testing.T) {
	tables := Standard(sampleRecords())
	if len(tables) != 11 {
		t.Fatalf("Standard produced %d tables, want 11", len(tables))
	}

	caseTypes := findTable(t, tables, TableCaseTypes)
	if caseTypes.CountFor("PK") != 2 || caseTypes.CountFor("TR") != 1 {
		t.Errorf("case types = %+v", caseTypes.Rows)
	}
	if caseTypes.Rows[0].Percent != 66.7 {
		t.Errorf("PK percent = %v, want 66.7", caseTypes.Rows[0].Percent)
	}

	status := findTable(t, tables, TableStatus)
	if status.CountFor("ACT") != 2 || status.CountFor("TERM") != 1 {
		t.Errorf("status = %+v", status.Rows)
	}

	days := findTable(t, tables, TableDays)
	if days.CountFor("Saturday") != 1 || days.CountFor("Monday") != 1 {
		t.Errorf("days = %+v", days.Rows)
	}
}

// Records with no street are excluded from the hotspot dimension but stay in
// every other one.
func TestByStreetExcludesEmpty(t *testing.T) {
	records := sampleRecords()
	streets := ByStreet(records)
	if streets.Total != 2 {
		t.Errorf("street total = %d, want 2", streets.Total)
	}
	if streets.CountFor("1200 S CONGRESS AVE") != 2 {
		t.Errorf("streets = %+v", streets.Rows)
	}

	corridors := ByCorridor(records)
	if corridors.Total != 3 {
		t.Errorf("corridor total = %d, want 3 (unclassified included)", corridors.Total)
	}
	if corridors.CountFor(geo.UnclassifiedCorridor) != 1 {
		t.Errorf("corridors = %+v", corridors.Rows)
	}
}

// Missing demographics get a dedicated row and stay in the denominator.
func TestMissingDemographicRow(t *testing.T) {
	records := sampleRecords()

	race := ByRace(records)
	if race.Total != 3 {
		t.Errorf("race total = %d, want 3", race.Total)
	}
	if race.CountFor(MissingKey) != 1 {
		t.Errorf("race missing row = %d, want 1", race.CountFor(MissingKey))
	}
	if race.CountFor("WHITE") != 1 || race.CountFor("HISPANIC") != 1 {
		t.Errorf("race = %+v", race.Rows)
	}

	gender := ByGender(records)
	if gender.CountFor(MissingKey) != 2 {
		t.Errorf("gender missing row = %d, want 2", gender.CountFor(MissingKey))
	}
}

func TestByHourUnknownBucket(t *testing.T) {
	hours := ByHour(sampleRecords())
	if hours.CountFor("09:00") != 1 || hours.CountFor("22:00") != 1 {
		t.Errorf("hours = %+v", hours.Rows)
	}
	if hours.CountFor(derive.UnknownHour) != 1 {
		t.Errorf("unknown hour row = %d, want 1", hours.CountFor(derive.UnknownHour))
	}
}
