// Package derive attaches analysis features to loaded case records. Every
// derivation is a pure function of the record's own fields plus the static
// geographic reference data, so the same input always yields the same output.
package derive

import (
	"fmt"
	"time"

	"github.com/civic-data/caseload.report/internal/caseload"
	"github.com/civic-data/caseload.report/internal/geo"
)

// UnknownHour labels records whose offense time is absent or unparsable.
const UnknownHour = "unknown"

// HourBucket is the hour-of-day a case was filed, or unknown when the export
// has no usable time. An unparsable time never fails the record.
type HourBucket struct {
	Hour  int
	Known bool
}

// Label returns the grouping key for the bucket, e.g. "07:00" or "unknown".
func (h HourBucket) Label() string {
	if !h.Known {
		return UnknownHour
	}
	return fmt.Sprintf("%02d:00", h.Hour)
}

// Record is a case with its derived analysis features attached.
type Record struct {
	caseload.Case

	DayOfWeek time.Weekday
	Hour      HourBucket
	Weekend   bool
	Corridor  string
	Area      string
}

// timeLayouts covers the offense time formats seen in exports.
var timeLayouts = []string{"15:04:05", "15:04"}

// ParseHour parses an "HH:MM:SS" offense time into an hour bucket. Empty and
// malformed values yield the unknown bucket.
func ParseHour(s string) HourBucket {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return HourBucket{Hour: t.Hour(), Known: true}
		}
	}
	return HourBucket{}
}

// One derives features for a single case.
func One(c caseload.Case, ref *geo.Reference) Record {
	day := c.OffenseDate.Weekday()
	return Record{
		Case:      c,
		DayOfWeek: day,
		Hour:      ParseHour(c.OffenseTime),
		Weekend:   day == time.Saturday || day == time.Sunday,
		Corridor:  ref.MatchCorridor(c.StreetName),
		Area:      ref.MatchArea(c.StreetName),
	}
}

// All derives features for a full snapshot, preserving input order.
func All(cases []caseload.Case, ref *geo.Reference) []Record {
	records := make([]Record, len(cases))
	for i, c := range cases {
		records[i] = One(c, ref)
	}
	return records
}
