package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrNoStartState     = errors.New("definition has no start state")
	ErrUnknownState     = errors.New("reference to unknown state")
	ErrUnreachableState = errors.New("state is not reachable from the start state")
	ErrCyclicDefinition = errors.New("definition contains a cycle")
	ErrTerminalCount    = errors.New("definition must have exactly one terminal state")
)

// Definition is an immutable workflow graph. Build one with NewDefinition,
// which rejects malformed graphs; a Definition that exists is valid.
type Definition struct {
	startAt string
	states  map[string]State
}

func NewDefinition(startAt string, states map[string]State) (*Definition, error) {
	def := &Definition{
		startAt: startAt,
		states:  states,
	}

	err := def.validate()
	if err != nil {
		return nil, err
	}

	return def, nil
}

func (d *Definition) StartAt() string {
	return d.startAt
}

func (d *Definition) State(name string) (State, bool) {
	state, ok := d.states[name]

	return state, ok
}

func (d *Definition) validate() error {
	if d.startAt == "" {
		return ErrNoStartState
	}

	if _, ok := d.states[d.startAt]; !ok {
		return fmt.Errorf("start state %q: %w", d.startAt, ErrUnknownState)
	}

	terminals := 0

	for name, state := range d.states {
		for _, next := range state.successors() {
			if _, ok := d.states[next]; !ok {
				return fmt.Errorf("state %q points to %q: %w", name, next, ErrUnknownState)
			}
		}

		if _, isChoice := state.(Choice); !isChoice && len(state.successors()) == 0 {
			terminals++
		}
	}

	if terminals != 1 {
		return fmt.Errorf("%w (found %d)", ErrTerminalCount, terminals)
	}

	visited := make(map[string]bool, len(d.states))

	err := d.walk(d.startAt, visited, make(map[string]bool))
	if err != nil {
		return err
	}

	for name := range d.states {
		if !visited[name] {
			return fmt.Errorf("state %q: %w", name, ErrUnreachableState)
		}
	}

	return nil
}

// walk runs a depth-first traversal, marking visited states and failing on a
// back edge.
func (d *Definition) walk(name string, visited, inPath map[string]bool) error {
	if inPath[name] {
		return fmt.Errorf("state %q: %w", name, ErrCyclicDefinition)
	}

	if visited[name] {
		return nil
	}

	visited[name] = true
	inPath[name] = true

	for _, next := range d.states[name].successors() {
		err := d.walk(next, visited, inPath)
		if err != nil {
			return err
		}
	}

	inPath[name] = false

	return nil
}
