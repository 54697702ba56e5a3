// Package statemachine defines the workflow graph model: a named set of
// states (Task, Pass, Choice) with one start state, validated at
// construction. The engine in pkg/engine walks this graph; the concrete
// sentiment graph lives in pkg/sentiment.
package statemachine

import (
	"context"

	"github.com/sentimento/sentimento/pkg/document"
)

// CapabilityFunc invokes an external capability with a request document and
// returns its response document.
type CapabilityFunc func(ctx context.Context, request document.Document) (document.Document, error)

// State is the sealed union of the three state kinds. A state reports its
// possible successors so the definition can be validated without knowing the
// concrete kind.
type State interface {
	successors() []string
}

// Task invokes an external capability. BuildInput projects the request out of
// the current document, MergeResult folds the response back in; a nil
// MergeResult replaces the whole document with the response. An empty Next
// marks the task as the terminal state of the graph.
type Task struct {
	Capability  string
	BuildInput  func(document.Document) (document.Document, error)
	Invoke      CapabilityFunc
	MergeResult func(base, result document.Document) document.Document
	Next        string
}

func (t Task) successors() []string {
	if t.Next == "" {
		return nil
	}

	return []string{t.Next}
}

// Pass applies a pure reshape to the document, no external call.
type Pass struct {
	Apply func(document.Document) (document.Document, error)
	Next  string
}

func (p Pass) successors() []string {
	if p.Next == "" {
		return nil
	}

	return []string{p.Next}
}

// Predicate tests string equality (optionally negated) of a document field.
type Predicate struct {
	Variable string
	Equals   string
	Negate   bool
}

// Evaluate reports whether the predicate holds for the document. A missing or
// non-string field is an error, not a non-match.
func (p Predicate) Evaluate(doc document.Document) (bool, error) {
	value, err := doc.String(p.Variable)
	if err != nil {
		return false, err
	}

	return (value == p.Equals) != p.Negate, nil
}

// Rule pairs a predicate with the state to advance to when it holds.
type Rule struct {
	When Predicate
	Next string
}

// Choice selects the next state by evaluating Rules strictly in declared
// order; the first matching rule wins. When no rule matches, Default is used;
// an empty Default means no match is a routing error.
type Choice struct {
	Rules   []Rule
	Default string
}

func (c Choice) successors() []string {
	targets := make([]string, 0, len(c.Rules)+1)
	for _, rule := range c.Rules {
		targets = append(targets, rule.Next)
	}

	if c.Default != "" {
		targets = append(targets, c.Default)
	}

	return targets
}
