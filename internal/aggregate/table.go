// Package aggregate computes grouped count/percentage summaries from the
// derived case snapshot. Each aggregator is independent and reads the
// snapshot without modifying it.
package aggregate

import (
	"math"
	"sort"

	"github.com/civic-data/caseload.report/internal/derive"
)

// MissingKey is the dedicated row label for records with no value in an
// optional dimension. Missing records stay in the denominator because the
// missing rate is itself a required output.
const MissingKey = "(missing)"

// Row is one grouping-key bucket of an aggregate table.
type Row struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Table is the output of one aggregator: rows sorted by descending count,
// ties broken by key so reruns produce identical output.
type Table struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Total int    `json:"total"`
	Rows  []Row  `json:"rows"`
}

// KeyFunc extracts the grouping key for one record. Returning ok=false
// removes the record from the dimension entirely (it is not counted in the
// denominator); optional dimensions instead return MissingKey so the record
// is counted.
type KeyFunc func(derive.Record) (key string, ok bool)

// RoundPercent rounds to one decimal place using round-half-up, matching the
// published reports.
func RoundPercent(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// Count groups the snapshot by the extracted key.
func Count(name, title string, records []derive.Record, key KeyFunc) Table {
	counts := make(map[string]int)
	total := 0
	for _, r := range records {
		k, ok := key(r)
		if !ok {
			continue
		}
		counts[k]++
		total++
	}

	rows := make([]Row, 0, len(counts))
	for k, n := range counts {
		pct := 0.0
		if total > 0 {
			pct = RoundPercent(float64(n) / float64(total) * 100)
		}
		rows = append(rows, Row{Key: k, Count: n, Percent: pct})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Key < rows[j].Key
	})

	return Table{Name: name, Title: title, Total: total, Rows: rows}
}

// Top returns at most n leading rows of the table.
func (t Table) Top(n int) []Row {
	if n >= len(t.Rows) {
		return t.Rows
	}
	return t.Rows[:n]
}

// CountFor returns the count for a key, or zero when the key has no row.
func (t Table) CountFor(key string) int {
	for _, r := range t.Rows {
		if r.Key == key {
			return r.Count
		}
	}
	return 0
}
