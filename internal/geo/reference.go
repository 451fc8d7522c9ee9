// Package geo buckets raw street names into named corridors and areas using
// externally supplied reference data. The matching rule is a case-insensitive
// substring scan over an ordered keyword list; the first rule that matches
// wins, so reference files should list more specific rules first.
package geo

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Labels for streets no rule matches. Downstream aggregation treats these like
// any other bucket.
const (
	UnclassifiedCorridor = "Unclassified"
	UnknownArea          = "Unknown"
)

// Rule names a corridor or area and the street-name keywords that map to it.
type Rule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Reference holds the corridor and area bucketing rules for one municipality.
type Reference struct {
	Corridors []Rule `yaml:"corridors"`
	Areas     []Rule `yaml:"areas"`
}

// LoadReference reads bucketing rules from a YAML file.
func LoadReference(path string) (*Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference file: %w", err)
	}
	var ref Reference
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("failed to parse reference file: %w", err)
	}
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reference file: %w", err)
	}
	return &ref, nil
}

// Validate checks that every rule has a name and at least one keyword.
func (r *Reference) Validate() error {
	for _, set := range [][]Rule{r.Corridors, r.Areas} {
		for _, rule := range set {
			if rule.Name == "" {
				return fmt.Errorf("rule with keywords %v has no name", rule.Keywords)
			}
			if len(rule.Keywords) == 0 {
				return fmt.Errorf("rule %q has no keywords", rule.Name)
			}
		}
	}
	return nil
}

// MatchCorridor returns the corridor label for a street name, or
// UnclassifiedCorridor when no rule matches.
func (r *Reference) MatchCorridor(street string) string {
	return match(r.Corridors, street, UnclassifiedCorridor)
}

// MatchArea returns the area label for a street name, or UnknownArea when no
// rule matches.
func (r *Reference) MatchArea(street string) string {
	return match(r.Areas, street, UnknownArea)
}

func match(rules []Rule, street, fallback string) string {
	street = strings.ToUpper(strings.TrimSpace(street))
	if street == "" {
		return fallback
	}
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(street, strings.ToUpper(kw)) {
				return rule.Name
			}
		}
	}
	return fallback
}

// Intensity labels a per-location case count for heat-map style reporting.
func Intensity(count int) string {
	switch {
	case count <= 0:
		return "None"
	case count <= 10:
		return "Low"
	case count <= 50:
		return "Medium"
	case count <= 100:
		return "High"
	default:
		return "Critical"
	}
}

// DefaultReference returns the baked-in rules for the Austin export this
// pipeline was first built against. Other municipalities supply their own
// YAML file instead.
func DefaultReference() *Reference {
	return &Reference{
		Corridors: []Rule{
			{Name: "S CONGRESS AVE", Keywords: []string{"S CONGRESS", "CONGRESS AVE"}},
			{Name: "E 4TH ST", Keywords: []string{"E 4TH", "4TH ST"}},
			{Name: "W CESAR CHAVEZ", Keywords: []string{"CESAR CHAVEZ", "W CESAR"}},
			{Name: "I-35", Keywords: []string{"I-35", "I35", "IH35", "IH 35"}},
			{Name: "PRESIDENTIAL BLVD", Keywords: []string{"PRESIDENTIAL"}},
			{Name: "E DEAN KEETON", Keywords: []string{"DEAN KEETON"}},
			{Name: "NUECES ST", Keywords: []string{"NUECES"}},
			{Name: "ALDRICH ST", Keywords: []string{"ALDRICH"}},
		},
		Areas: []Rule{
			{Name: "Downtown", Keywords: []string{"CONGRESS", "COLORADO", "BRAZOS", "LAVACA", "SAN JACINTO", "TRINITY"}},
			{Name: "University/Campus", Keywords: []string{"DEAN KEETON", "GUADALUPE", "NUECES", "RIO GRANDE"}},
			{Name: "Airport Area", Keywords: []string{"PRESIDENTIAL", "BERGSTROM", "AIRPORT"}},
			{Name: "East Austin", Keywords: []string{"E 7TH", "E 6TH", "E 5TH", "CESAR CHAVEZ", "HOLLY"}},
			{Name: "South Austin", Keywords: []string{"S CONGRESS", "S LAMAR", "S 1ST", "OLTORF"}},
			{Name: "North Austin", Keywords: []string{"N LAMAR", "BURNET", "ANDERSON"}},
			{Name: "West Austin", Keywords: []string{"MOPAC", "WEST GATE"}},
		},
	}
}
