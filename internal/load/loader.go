// Package load reads the raw court case export into memory. It accepts either
// a bare JSON array of case objects or the portal's wrapped export format,
// where column names live under meta.view.columns and each row is a
// positional array of values.
package load

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/civic-data/caseload.report/internal/caseload"
)

// Required export columns. A record missing any of these is skipped and
// counted; it is never dropped silently.
const (
	ColCaseType   = "Offense Case Type"
	ColDate       = "Offense Date"
	ColTime       = "Offense Time"
	ColChargeCode = "Offense Charge"
	ColChargeDesc = "Offense Charge Description"
	ColStreet     = "Offense Street Name"
	ColSchoolZone = "School Zone"
	ColStatus     = "Case Closed"
	ColRace       = "Race"
	ColGender     = "Defendant Gender"
	ColAgency     = "Agency"
	ColOfficer    = "Officer"
)

var requiredColumns = []string{ColCaseType, ColDate, ColChargeDesc, ColStreet, ColStatus, ColAgency}

// LoadError means the input file is unreadable or fundamentally malformed.
// It is fatal: the run aborts before any artifact is written.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SchemaError describes one record that could not be mapped to a Case.
// Schema errors are recovered: the record is skipped and counted.
type SchemaError struct {
	Index  int
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("record %d: %s", e.Index, e.Reason)
}

// Result is the loader output: the immutable case snapshot plus the skipped
// record accounting surfaced in the final report.
type Result struct {
	Cases   []caseload.Case
	Skipped int
	// Errors holds one SchemaError per skipped record, in input order.
	Errors []SchemaError
}

// wrappedExport matches the portal format: column names in metadata, rows as
// positional arrays.
type wrappedExport struct {
	Meta struct {
		View struct {
			Columns []struct {
				Name string `json:"name"`
			} `json:"columns"`
		} `json:"view"`
	} `json:"meta"`
	Data [][]any `json:"data"`
}

// File loads and parses a case export. The returned error, when non-nil, is
// always a *LoadError and the run must not produce output.
func File(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	res, err := Parse(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return res, nil
}

// Parse decodes export bytes in either supported shape.
func Parse(data []byte) (*Result, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var wrapped wrappedExport
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		if len(wrapped.Meta.View.Columns) == 0 {
			return nil, fmt.Errorf("wrapped export has no column metadata")
		}
		return fromWrapped(&wrapped)
	}

	var objects []map[string]any
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return fromObjects(objects)
}

func fromWrapped(w *wrappedExport) (*Result, error) {
	names := make([]string, len(w.Meta.View.Columns))
	for i, c := range w.Meta.View.Columns {
		names[i] = c.Name
	}

	res := &Result{}
	for i, row := range w.Data {
		obj := make(map[string]any, len(names))
		for j, name := range names {
			if j < len(row) {
				obj[name] = row[j]
			}
		}
		appendRecord(res, i, obj)
	}
	return res, nil
}

func fromObjects(objects []map[string]any) (*Result, error) {
	res := &Result{}
	for i, obj := range objects {
		appendRecord(res, i, obj)
	}
	return res, nil
}

func appendRecord(res *Result, index int, obj map[string]any) {
	c, err := mapCase(obj)
	if err != nil {
		res.Skipped++
		res.Errors = append(res.Errors, SchemaError{Index: index, Reason: err.Error()})
		return
	}
	res.Cases = append(res.Cases, c)
}

func mapCase(obj map[string]any) (caseload.Case, error) {
	var missing []string
	for _, col := range requiredColumns {
		if v, ok := obj[col]; !ok || v == nil || asString(v) == "" {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return caseload.Case{}, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	caseType, err := caseload.ParseCaseType(asString(obj[ColCaseType]))
	if err != nil {
		return caseload.Case{}, err
	}
	status, err := caseload.ParseCaseStatus(asString(obj[ColStatus]))
	if err != nil {
		return caseload.Case{}, err
	}
	date, err := parseDate(asString(obj[ColDate]))
	if err != nil {
		return caseload.Case{}, err
	}

	return caseload.Case{
		CaseType:    caseType,
		OffenseDate: date,
		OffenseTime: asString(obj[ColTime]),
		ChargeCode:  asInt(obj[ColChargeCode]),
		ChargeDesc:  asString(obj[ColChargeDesc]),
		StreetName:  strings.ToUpper(strings.TrimSpace(asString(obj[ColStreet]))),
		SchoolZone:  asBool(obj[ColSchoolZone]),
		Status:      status,
		Race:        asDemographic(obj[ColRace]),
		Gender:      asDemographic(obj[ColGender]),
		Agency:      asString(obj[ColAgency]),
		OfficerID:   asInt(obj[ColOfficer]),
	}, nil
}

// dateLayouts covers the formats seen across export vintages.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable offense date %q", s)
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func asInt(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(x))
		return n
	default:
		return 0
	}
}

func asBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		s := strings.ToUpper(strings.TrimSpace(x))
		return s == "TRUE" || s == "Y" || s == "YES" || s == "1"
	default:
		return false
	}
}

func asDemographic(v any) caseload.Demographic {
	s := asString(v)
	if s == "" {
		return caseload.Missing()
	}
	return caseload.Known(s)
}
