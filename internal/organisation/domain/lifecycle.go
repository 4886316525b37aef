package domain

import (
	"context"
	"fmt"
)

// Event represents an action that triggers an organisation state transition.
type Event string

const (
	// EventModulesResolved fires when no module row remains PENDING.
	EventModulesResolved Event = "modules_resolved"
)

// Transition defines a valid state change: an event moves an organisation
// from Src to Dst.
type Transition struct {
	Event Event
	Src   State
	Dst   State
}

// Transitions defines all valid organisation state changes. DB_INITIALIZED
// is terminal; there is no transition out of it.
var Transitions = []Transition{
	{Event: EventModulesResolved, Src: StateCreated, Dst: StateDBInitialized},
}

// TransitionValidator checks whether an event is valid from the current
// state and returns the destination state.
type TransitionValidator interface {
	Apply(ctx context.Context, current State, event Event) (State, error)
}

// TransitionError reports an event that is not allowed from the current state.
type TransitionError struct {
	Event   Event
	Current State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %s is not allowed from state %s", e.Event, e.Current)
}
