package aggregate

import (
	"testing"

	"github.com/civic-data/caseload.report/internal/caseload"
	"github.com/civic-data/caseload.report/internal/derive"
)

func recordsOfTypes(types ...caseload.CaseType) []derive.Record {
	records := make([]derive.Record, len(types))
	for i, ct := range types {
		records[i] = derive.Record{Case: caseload.Case{CaseType: ct}}
	}
	return records
}

func TestRoundPercent(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{0, 0},
		{33.333333, 33.3},
		{66.666666, 66.7},
		{12.35, 12.4}, // half rounds up
		{12.34, 12.3},
		{100, 100},
	}
	for _, tt := range tests {
		if got := RoundPercent(tt.input); got != tt.want {
			t.Errorf("RoundPercent(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCount(t *testing.T) {
	records := recordsOfTypes(
		caseload.Parking, caseload.Parking, caseload.Parking,
		caseload.Traffic, caseload.Ordinance,
	)

	table := Count("test", "Test", records, func(r derive.Record) (string, bool) {
		return string(r.CaseType), true
	})

	if table.Total != 5 {
		t.Fatalf("Total = %d, want 5", table.Total)
	}
	want := []Row{
		{Key: "PK", Count: 3, Percent: 60.0},
		{Key: "OR", Count: 1, Percent: 20.0},
		{Key: "TR", Count: 1, Percent: 20.0},
	}
	if len(table.Rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(table.Rows), len(want))
	}
	for i, w := range want {
		if table.Rows[i] != w {
			t.Errorf("row %d = %+v, want %+v", i, table.Rows[i], w)
		}
	}
}

// Ties on count sort by key so reruns produce identical artifacts.
func TestCountDeterministicTieBreak(t *testing.T) {
	records := recordsOfTypes(caseload.Traffic, caseload.Parking, caseload.Ordinance)

	for run := 0; run < 10; run++ {
		table := Count("test", "Test", records, func(r derive.Record) (string, bool) {
			return string(r.CaseType), true
		})
		keys := []string{table.Rows[0].Key, table.Rows[1].Key, table.Rows[2].Key}
		if keys[0] != "OR" || keys[1] != "PK" || keys[2] != "TR" {
			t.Fatalf("run %d: keys = %v, want [OR PK TR]", run, keys)
		}
	}
}

func TestCountExcludesRecords(t *testing.T) {
	records := recordsOfTypes(caseload.Parking, caseload.Traffic)

	table := Count("test", "Test", records, func(r derive.Record) (string, bool) {
		return string(r.CaseType), r.CaseType == caseload.Parking
	})

	// Excluded records leave the denominator too.
	if table.Total != 1 {
		t.Errorf("Total = %d, want 1", table.Total)
	}
	if len(table.Rows) != 1 || table.Rows[0].Percent != 100.0 {
		t.Errorf("rows = %+v, want single 100%% row", table.Rows)
	}
}

func TestCountEmpty(t *testing.T) {
	table := Count("test", "Test", nil, func(r derive.Record) (string, bool) {
		return "x", true
	})
	if table.Total != 0 || len(table.Rows) != 0 {
		t.Errorf("empty input should yield empty table, got %+v", table)
	}
}

func TestTop(t *testing.T) {
	table := Table{Rows: []Row{{Key: "a"}, {Key: "b"}, {Key: "c"}}}
	if got := table.Top(2); len(got) != 2 || got[1].Key != "b" {
		t.Errorf("Top(2) = %+v", got)
	}
	if got := table.Top(10); len(got) != 3 {
		t.Errorf("Top(10) = %d rows, want all 3", len(got))
	}
}

func TestCountFor(t *testing.T) {
	table := Table{Rows: []Row{{Key: "PK", Count: 7}}}
	if got := table.CountFor("PK"); got != 7 {
		t.Errorf("CountFor(PK) = %d, want 7", got)
	}
	if got := table.CountFor("TR"); got != 0 {
		t.Errorf("CountFor(TR) = %d, want 0", got)
	}
}
