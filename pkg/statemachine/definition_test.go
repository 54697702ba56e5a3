package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentimento/sentimento/pkg/document"
)

func identity(doc document.Document) (document.Document, error) {
	return doc, nil
}

func TestNewDefinition_Valid(t *testing.T) {
	def, err := NewDefinition("first", map[string]State{
		"first": Pass{Apply: identity, Next: "last"},
		"last":  Pass{Apply: identity},
	})

	require.NoError(t, err)
	assert.Equal(t, "first", def.StartAt())

	_, ok := def.State("last")
	assert.True(t, ok)
}

func TestNewDefinition_MissingStart(t *testing.T) {
	_, err := NewDefinition("", map[string]State{
		"only": Pass{Apply: identity},
	})
	assert.ErrorIs(t, err, ErrNoStartState)

	_, err = NewDefinition("ghost", map[string]State{
		"only": Pass{Apply: identity},
	})
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestNewDefinition_DanglingSuccessor(t *testing.T) {
	_, err := NewDefinition("first", map[string]State{
		"first": Pass{Apply: identity, Next: "missing"},
	})
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestNewDefinition_DanglingChoiceTarget(t *testing.T) {
	_, err := NewDefinition("decide", map[string]State{
		"decide": Choice{
			Rules: []Rule{
				{When: Predicate{Variable: "Language", Equals: "pt"}, Next: "missing"},
			},
			Default: "done",
		},
		"done": Pass{Apply: identity},
	})
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestNewDefinition_Cycle(t *testing.T) {
	_, err := NewDefinition("a", map[string]State{
		"a":    Pass{Apply: identity, Next: "b"},
		"b":    Pass{Apply: identity, Next: "a"},
		"done": Pass{Apply: identity},
	})
	assert.ErrorIs(t, err, ErrCyclicDefinition)
}

func TestNewDefinition_Unreachable(t *testing.T) {
	_, err := NewDefinition("first", map[string]State{
		"first":  Pass{Apply: identity, Next: "last"},
		"last":   Pass{Apply: identity},
		"island": Choice{Default: "last"},
	})
	assert.ErrorIs(t, err, ErrUnreachableState)
}

func TestNewDefinition_TerminalCount(t *testing.T) {
	_, err := NewDefinition("decide", map[string]State{
		"decide": Choice{
			Rules: []Rule{
				{When: Predicate{Variable: "Language", Equals: "pt"}, Next: "a"},
			},
			Default: "b",
		},
		"a": Pass{Apply: identity},
		"b": Pass{Apply: identity},
	})
	assert.ErrorIs(t, err, ErrTerminalCount)
}

func TestPredicate_Evaluate(t *testing.T) {
	doc := document.New(map[string]any{"Language": "en"})

	match, err := Predicate{Variable: "Language", Equals: "en"}.Evaluate(doc)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = Predicate{Variable: "Language", Equals: "pt"}.Evaluate(doc)
	require.NoError(t, err)
	assert.False(t, match)

	match, err = Predicate{Variable: "Language", Equals: "pt", Negate: true}.Evaluate(doc)
	require.NoError(t, err)
	assert.True(t, match)

	_, err = Predicate{Variable: "Missing", Equals: "pt"}.Evaluate(doc)
	assert.Error(t, err)
}

// The two translation-decision rules must route every possible language code
// to exactly one branch.
func TestPredicate_EqualityAndNegationAreComplements(t *testing.T) {
	equals := Predicate{Variable: "Language", Equals: "pt"}
	negated := Predicate{Variable: "Language", Equals: "pt", Negate: true}

	for _, code := range []string{"pt", "en", "es", "fr", "ja", "zh", ""} {
		doc := document.New(map[string]any{"Language": code})

		first, err := equals.Evaluate(doc)
		require.NoError(t, err)

		second, err := negated.Evaluate(doc)
		require.NoError(t, err)

		assert.NotEqual(t, first, second, "code %q must match exactly one rule", code)
	}
}
