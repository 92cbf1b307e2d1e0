package a11y

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/feedbackhq/ui-contract-tests/browser"
	"github.com/feedbackhq/ui-contract-tests/framework/screen"
)

// Scope is the part of the page to scan. The zero value is the whole document.
type Scope struct {
	Selector string
}

// Document scans the whole page.
var Document = Scope{}

// ScopeOf returns the subtree identified by a screen locator.
func ScopeOf(m *screen.Model, name string) (Scope, error) {
	sel, ok := m.Selector(name)
	if !ok {
		return Scope{}, &screen.LocatorNotFound{Screen: m.Name(), Name: name}
	}
	return Scope{Selector: sel}, nil
}

func (s Scope) String() string {
	if s.Selector == "" {
		return "document"
	}
	return s.Selector
}

// Analyzer is an accessibility engine. It returns the engine's raw result: either an object with
// a "violations" array or the array itself, where each element has "id", "impact",
// "description" or "help", and "nodes" whose "target" lists selectors.
type Analyzer interface {
	Analyze(ctx context.Context, session browser.Session, scope Scope, tags []string) (interface{}, error)
}

// ScanFailed is returned when the engine fails or reports something that cannot be understood.
type ScanFailed struct {
	Cause error
}

func (e *ScanFailed) Error() string {
	return "accessibility scan failed: " + e.Cause.Error()
}

func (e *ScanFailed) Unwrap() error { return e.Cause }

// Scanner scans the page of one session.
type Scanner struct {
	Session  browser.Session
	Analyzer Analyzer
}

// Scan runs the engine and returns its violations in the order reported. A clean page gives an
// empty, non-nil slice. Tags restrict the rules to those categories; nil means every rule.
func (s Scanner) Scan(ctx context.Context, scope Scope, tags []string) ([]Violation, error) {
	raw, err := s.Analyzer.Analyze(ctx, s.Session, scope, tags)
	if err != nil {
		return nil, &ScanFailed{Cause: err}
	}
	violations, err := normalize(ldvalue.CopyArbitraryValue(raw))
	if err != nil {
		return nil, &ScanFailed{Cause: err}
	}
	return violations, nil
}

func normalize(raw ldvalue.Value) ([]Violation, error) {
	list := raw
	if raw.Type() == ldvalue.ObjectType {
		list = raw.GetByKey("violations")
	}
	if list.Type() != ldvalue.ArrayType {
		return nil, fmt.Errorf("malformed scan result: expected a list of violations, got %s", raw.JSONString())
	}
	ret := make([]Violation, 0, list.Count())
	for i := 0; i < list.Count(); i++ {
		v, err := normalizeViolation(list.GetByIndex(i))
		if err != nil {
			return nil, fmt.Errorf("malformed violation at index %d: %w", i, err)
		}
		ret = append(ret, v)
	}
	return ret, nil
}

func normalizeViolation(item ldvalue.Value) (Violation, error) {
	if item.Type() != ldvalue.ObjectType {
		return Violation{}, fmt.Errorf("expected an object, got %s", item.JSONString())
	}
	id := item.GetByKey("id")
	if id.Type() != ldvalue.StringType || id.StringValue() == "" {
		return Violation{}, fmt.Errorf("missing rule id")
	}
	var impact Impact
	switch rawImpact := item.GetByKey("impact"); rawImpact.Type() {
	case ldvalue.NullType:
		impact = Minor // the engine leaves impact unset for some rules
	case ldvalue.StringType:
		parsed, err := ParseImpact(rawImpact.StringValue())
		if err != nil {
			return Violation{}, err
		}
		impact = parsed
	default:
		return Violation{}, fmt.Errorf("invalid impact %s", rawImpact.JSONString())
	}
	description := item.GetByKey("description").StringValue()
	if description == "" {
		description = item.GetByKey("help").StringValue()
	}
	nodes := []string{}
	rawNodes := item.GetByKey("nodes")
	for i := 0; i < rawNodes.Count(); i++ {
		nodes = append(nodes, nodeSelector(rawNodes.GetByIndex(i)))
	}
	return Violation{RuleID: id.StringValue(), Impact: impact, Nodes: nodes, Description: description}, nil
}

// nodeSelector flattens a node description. Targets inside iframes or shadow roots are lists of
// selectors, which are joined with " >> ".
func nodeSelector(node ldvalue.Value) string {
	if node.Type() == ldvalue.StringType {
		return node.StringValue()
	}
	target := node.GetByKey("target")
	var parts []string
	for i := 0; i < target.Count(); i++ {
		t := target.GetByIndex(i)
		if t.Type() == ldvalue.ArrayType {
			var nested []string
			for j := 0; j < t.Count(); j++ {
				nested = append(nested, t.GetByIndex(j).StringValue())
			}
			parts = append(parts, strings.Join(nested, " >> "))
		} else {
			parts = append(parts, t.StringValue())
		}
	}
	if len(parts) == 0 {
		return node.GetByKey("html").StringValue()
	}
	return strings.Join(parts, " ")
}
