package models

// Range is an inclusive [Low, High] bound for the in_range operator.
type Range struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// Rule is one declarative expectation about a profiled metric. A rule
// is data, loaded from configuration, and immutable during a run.
//
// Exactly one of Threshold, Range or TypeName carries the expected
// value, depending on Metric and Operator. Guard is an optional
// precondition: a rule-shaped predicate that must hold for this rule
// to be evaluated at all. Guards nest, forming a tree of rule nodes.
type Rule struct {
	ID        string   `json:"id" yaml:"id"`
	Column    string   `json:"column" yaml:"column"`
	Metric    string   `json:"metric" yaml:"metric"`
	Operator  string   `json:"operator" yaml:"operator"`
	Threshold *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Range     *Range   `json:"range,omitempty" yaml:"range,omitempty"`
	TypeName  string   `json:"type,omitempty" yaml:"type,omitempty"`
	Severity  string   `json:"severity" yaml:"severity"`
	Guard     *Rule    `json:"guard,omitempty" yaml:"guard,omitempty"`
}

// ExpectedText renders the threshold side of the rule for messages.
func (r *Rule) ExpectedText() string {
	switch {
	case r.Range != nil:
		return formatRange(r.Range)
	case r.Threshold != nil:
		return formatFloat(*r.Threshold)
	default:
		return r.TypeName
	}
}

// RuleGroup combines named rules with a single and/or combinator. The
// group verdict is derived from the member verdicts; groups never
// change how the member rules themselves are evaluated.
type RuleGroup struct {
	Name    string   `json:"name" yaml:"name"`
	Combine string   `json:"combine" yaml:"combine"`
	RuleIDs []string `json:"rules" yaml:"rules"`
}

// ExpectationSet is an ordered sequence of rules, optionally
// partitioned into named groups. It is supplied externally and
// immutable during a run.
type ExpectationSet struct {
	Rules  []Rule      `json:"rules" yaml:"rules"`
	Groups []RuleGroup `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// RuleByID returns the rule with the given ID, or nil.
func (s *ExpectationSet) RuleByID(id string) *Rule {
	for i := range s.Rules {
		if s.Rules[i].ID == id {
			return &s.Rules[i]
		}
	}
	return nil
}
