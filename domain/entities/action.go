package entities

import "fmt"

// Action is the verdict a stream callback hands back to the host.
type Action uint32

const (
	// ActionContinue lets the host proceed with normal processing.
	ActionContinue Action = 0
	// ActionPause makes the host hold the exchange.
	ActionPause Action = 1
)

func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "Continue"
	case ActionPause:
		return "Pause"
	default:
		return fmt.Sprintf("Action(%d)", uint32(a))
	}
}
