package derive

import (
	"testing"
	"time"

	"github.com/civic-data/caseload.report/internal/caseload"
	"github.com/civic-data/caseload.report/internal/geo"
)

func TestParseHour(t *testing.T) {
	tests := []struct {
		input     string
		wantHour  int
		wantKnown bool
	}{
		{"14:30:00", 14, true},
		{"00:00:00", 0, true},
		{"23:59:59", 23, true},
		{"07:15", 7, true},
		{"", 0, false},
		{"25:00:00", 0, false},
		{"noon", 0, false},
	}
	for _, tt := range tests {
		got := ParseHour(tt.input)
		if got.Known != tt.wantKnown || got.Hour != tt.wantHour {
			t.Errorf("ParseHour(%q) = %+v, want hour=%d known=%v", tt.input, got, tt.wantHour, tt.wantKnown)
		}
	}
}

func TestHourBucketLabel(t *testing.T) {
	if got := (HourBucket{Hour: 7, Known: true}).Label(); got != "07:00" {
		t.Errorf("Label() = %q, want 07:00", got)
	}
	if got := (HourBucket{}).Label(); got != UnknownHour {
		t.Errorf("Label() = %q, want %q", got, UnknownHour)
	}
}

func TestOne(t *testing.T) {
	ref := geo.DefaultReference()
	// 2024-03-16 is a Saturday.
	c := caseload.Case{
		CaseType:    caseload.Parking,
		OffenseDate: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		OffenseTime: "10:45:00",
		StreetName:  "1200 S CONGRESS AVE",
	}

	r := One(c, ref)
	if r.DayOfWeek != time.Saturday {
		t.Errorf("DayOfWeek = %v, want Saturday", r.DayOfWeek)
	}
	if !r.Weekend {
		t.Error("Saturday should be a weekend")
	}
	if r.Hour.Label() != "10:00" {
		t.Errorf("Hour = %q, want 10:00", r.Hour.Label())
	}
	if r.Corridor != "S CONGRESS AVE" {
		t.Errorf("Corridor = %q, want S CONGRESS AVE", r.Corridor)
	}
	if r.Area != "Downtown" {
		t.Errorf("Area = %q, want Downtown", r.Area)
	}
}

func TestOneWeekday(t *testing.T) {
	ref := geo.DefaultReference()
	// 2024-03-13 is a Wednesday.
	c := caseload.Case{
		OffenseDate: time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC),
		StreetName:  "UNMAPPED RD",
	}

	r := One(c, ref)
	if r.Weekend {
		t.Error("Wednesday should not be a weekend")
	}
	if r.Corridor != geo.UnclassifiedCorridor {
		t.Errorf("Corridor = %q, want %q", r.Corridor, geo.UnclassifiedCorridor)
	}
	if r.Area != geo.UnknownArea {
		t.Errorf("Area = %q, want %q", r.Area, geo.UnknownArea)
	}
	if r.Hour.Known {
		t.Error("empty offense time should yield unknown hour")
	}
}

func TestAllPreservesOrder(t *testing.T) {
	ref := geo.DefaultReference()
	cases := []caseload.Case{
		{StreetName: "A ST", OffenseDate: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)},
		{StreetName: "B ST", OffenseDate: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)},
	}

	records := All(cases, ref)
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	if records[0].StreetName != "A ST" || records[1].StreetName != "B ST" {
		t.Error("All should preserve input order")
	}
}
