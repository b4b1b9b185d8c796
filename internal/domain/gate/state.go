package gate

import "fmt"

// State is the position of a session in the Computed → Gated → Released
// flow.
type State int

const (
	StateComputed State = iota
	StateGated
	StateReleased
)

var stateNames = [...]string{"computed", "gated", "released"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stateNames) {
		return nil, fmt.Errorf("%w: unknown state %d", ErrInvalidTransition, int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, string(b))
}
