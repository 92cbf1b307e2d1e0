// Package a11y runs an accessibility engine against a page and normalizes what it reports.
package a11y

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Impact is the severity the engine assigns to a violation.
type Impact int

const (
	Minor Impact = iota
	Moderate
	Serious
	Critical
)

var impactNames = []string{"minor", "moderate", "serious", "critical"}

func (i Impact) String() string {
	if i < Minor || i > Critical {
		return fmt.Sprintf("Impact(%d)", int(i))
	}
	return impactNames[i]
}

// ParseImpact converts the engine's impact name.
func ParseImpact(s string) (Impact, error) {
	for i, name := range impactNames {
		if strings.EqualFold(s, name) {
			return Impact(i), nil
		}
	}
	return Minor, fmt.Errorf("unknown impact %q", s)
}

func (i Impact) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

func (i *Impact) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseImpact(s)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Violation is one rule that failed, with the selectors of the offending nodes.
type Violation struct {
	RuleID      string   `json:"ruleId"`
	Impact      Impact   `json:"impact"`
	Nodes       []string `json:"nodes"`
	Description string   `json:"description"`
}

// FilterByRule returns the violations of one rule, in their original order.
func FilterByRule(violations []Violation, ruleID string) []Violation {
	ret := []Violation{}
	for _, v := range violations {
		if v.RuleID == ruleID {
			ret = append(ret, v)
		}
	}
	return ret
}

// AtLeast returns the violations whose impact is min or worse, in their original order.
func AtLeast(violations []Violation, min Impact) []Violation {
	ret := []Violation{}
	for _, v := range violations {
		if v.Impact >= min {
			ret = append(ret, v)
		}
	}
	return ret
}

// Format renders violations as a plain-text report.
func Format(violations []Violation) string {
	if len(violations) == 0 {
		return "no accessibility violations\n"
	}
	var b strings.Builder
	if len(violations) == 1 {
		b.WriteString("1 accessibility violation\n")
	} else {
		fmt.Fprintf(&b, "%d accessibility violations\n", len(violations))
	}
	for _, v := range violations {
		fmt.Fprintf(&b, "[%s] %s: %s\n", v.Impact, v.RuleID, v.Description)
		for _, n := range v.Nodes {
			fmt.Fprintf(&b, "  - %s\n", n)
		}
	}
	return b.String()
}
