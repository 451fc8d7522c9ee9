// Package caseload defines the municipal court case domain model shared by
// every pipeline stage. Records are constructed once by the loader and never
// mutated downstream.
package caseload

import (
	"fmt"
	"time"
)

// CaseType is the closed set of case type codes used by the court export.
type CaseType string

// Case type codes.
const (
	Parking         CaseType = "PK"
	Traffic         CaseType = "TR"
	Ordinance       CaseType = "OR"
	DisabledParking CaseType = "CP"
	NonTraffic      CaseType = "NT"
)

// ValidCaseTypes contains all case type codes accepted by the loader.
var ValidCaseTypes = []CaseType{Parking, Traffic, Ordinance, DisabledParking, NonTraffic}

// ParseCaseType validates a raw case type code from the export.
func ParseCaseType(s string) (CaseType, error) {
	t := CaseType(s)
	for _, v := range ValidCaseTypes {
		if t == v {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown case type code %q", s)
}

// Label returns the human-readable name for a case type code.
func (t CaseType) Label() string {
	switch t {
	case Parking:
		return "Parking"
	case Traffic:
		return "Traffic"
	case Ordinance:
		return "Ordinance"
	case DisabledParking:
		return "Disabled Parking"
	case NonTraffic:
		return "Non-Traffic"
	default:
		return string(t)
	}
}

// CaseStatus is the closed set of case status codes.
type CaseStatus string

// Case status codes. The export calls this column "Case Closed" but ACT marks
// a case that is still pending.
const (
	StatusActive     CaseStatus = "ACT"
	StatusTerminated CaseStatus = "TERM"
)

// ParseCaseStatus validates a raw status code from the export.
func ParseCaseStatus(s string) (CaseStatus, error) {
	switch CaseStatus(s) {
	case StatusActive:
		return StatusActive, nil
	case StatusTerminated:
		return StatusTerminated, nil
	}
	return "", fmt.Errorf("unknown case status code %q", s)
}

// Demographic is an optional defendant attribute. Most records in the export
// have no race or gender recorded, and the missing rate is itself a required
// analysis output, so absence is represented explicitly rather than as an
// empty string.
type Demographic struct {
	value string
	known bool
}

// Known wraps a recorded demographic value.
func Known(v string) Demographic {
	return Demographic{value: v, known: true}
}

// Missing returns the absent demographic value.
func Missing() Demographic {
	return Demographic{}
}

// IsMissing reports whether no value was recorded.
func (d Demographic) IsMissing() bool { return !d.known }

// Value returns the recorded value and whether one exists.
func (d Demographic) Value() (string, bool) { return d.value, d.known }

// Or returns the recorded value, or fallback when the value is missing.
func (d Demographic) Or(fallback string) string {
	if d.known {
		return d.value
	}
	return fallback
}

// Case is one municipal court case record. OffenseTime is kept as the raw
// "HH:MM:SS" string from the export; the deriver parses it into an hour
// bucket and tolerates malformed values.
type Case struct {
	CaseType    CaseType
	OffenseDate time.Time
	OffenseTime string
	ChargeCode  int
	ChargeDesc  string
	StreetName  string
	SchoolZone  bool
	Status      CaseStatus
	Race        Demographic
	Gender      Demographic
	Agency      string
	OfficerID   int
}

// IsActive reports whether the case is still pending.
func (c Case) IsActive() bool { return c.Status == StatusActive }
