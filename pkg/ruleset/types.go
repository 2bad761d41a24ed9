package ruleset

import (
	"sort"
	"time"

	"mercator-hq/basicrules/pkg/rules"
)

// Rule is a named expression tree.
type Rule struct {
	// Name identifies the rule within its ruleset
	Name string

	// Description is free text shown by the CLI
	Description string

	// Expression is the tree evaluated against the input data
	Expression *rules.Node

	// Source is the file the rule was loaded from, empty for in-memory rules
	Source string
}

// Ruleset is an ordered collection of uniquely named rules.
// A Ruleset is not modified once handed to an Engine.
type Ruleset struct {
	name  string
	rules []*Rule
	index map[string]int
}

// New creates a ruleset from rules, rejecting duplicate names.
func New(name string, rs ...*Rule) (*Ruleset, error) {
	s := &Ruleset{name: name, index: make(map[string]int, len(rs))}
	for _, r := range rs {
		if err := s.Add(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a rule. It fails with *DuplicateRuleError if the name is taken.
func (s *Ruleset) Add(r *Rule) error {
	if i, exists := s.index[r.Name]; exists {
		return &DuplicateRuleError{Rule: r.Name, Sources: []string{s.rules[i].Source, r.Source}}
	}
	s.index[r.Name] = len(s.rules)
	s.rules = append(s.rules, r)
	return nil
}

// Merge appends every rule of other in order.
func (s *Ruleset) Merge(other *Ruleset) error {
	for _, r := range other.rules {
		if err := s.Add(r); err != nil {
			return err
		}
	}
	return nil
}

// Name returns the ruleset name.
func (s *Ruleset) Name() string { return s.name }

// Len returns the number of rules.
func (s *Ruleset) Len() int { return len(s.rules) }

// Rules returns the rules in definition order.
func (s *Ruleset) Rules() []*Rule {
	out := make([]*Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Get returns the rule with the given name.
func (s *Ruleset) Get(name string) (*Rule, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.rules[i], true
}

// Names returns the sorted rule names.
func (s *Ruleset) Names() []string {
	names := make([]string, 0, len(s.rules))
	for _, r := range s.rules {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}

// Outcome classifies a rule evaluation.
type Outcome string

const (
	OutcomeTrue  Outcome = "true"
	OutcomeFalse Outcome = "false"
	OutcomeError Outcome = "error"
)

// RuleResult is the result of evaluating one rule.
type RuleResult struct {
	Rule     string        `json:"rule"`
	Outcome  Outcome       `json:"outcome"`
	Value    any           `json:"value,omitempty"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
	Kind     string        `json:"error_kind,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

func newRuleResult(rule string, value any, err error, duration time.Duration) RuleResult {
	res := RuleResult{Rule: rule, Duration: duration}
	switch {
	case err != nil:
		res.Outcome = OutcomeError
		res.Err = err
		res.Error = err.Error()
		res.Kind = rules.KindOf(err)
	case rules.Truthy(value):
		res.Outcome = OutcomeTrue
		res.Value = value
	default:
		res.Outcome = OutcomeFalse
		res.Value = value
	}
	return res
}

// Report is the result of evaluating a ruleset against one input.
type Report struct {
	// ID uniquely identifies the evaluation in logs and traces
	ID string `json:"id"`

	// Ruleset is the evaluated ruleset name
	Ruleset string `json:"ruleset"`

	// Results holds one entry per evaluated rule in definition order
	Results []RuleResult `json:"results"`

	// Stopped is set when evaluation stopped at the first failing rule
	Stopped bool `json:"stopped,omitempty"`

	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`
}

// Result returns the result of the named rule.
func (r *Report) Result(name string) (RuleResult, bool) {
	for _, res := range r.Results {
		if res.Rule == name {
			return res, true
		}
	}
	return RuleResult{}, false
}

// Matched returns the names of rules whose value was truthy.
func (r *Report) Matched() []string {
	return r.names(OutcomeTrue)
}

// Failed returns the names of rules whose evaluation raised an error.
func (r *Report) Failed() []string {
	return r.names(OutcomeError)
}

func (r *Report) names(outcome Outcome) []string {
	var names []string
	for _, res := range r.Results {
		if res.Outcome == outcome {
			names = append(names, res.Rule)
		}
	}
	return names
}
