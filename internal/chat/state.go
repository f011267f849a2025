package chat

import "fmt"

// State is the phase of the current exchange.
type State int

const (
	Idle State = iota
	Composing
	Sending
	Streaming
	Committed
	RolledBack
)

var stateNames = [...]string{
	Idle:       "idle",
	Composing:  "composing",
	Sending:    "sending",
	Streaming:  "streaming",
	Committed:  "committed",
	RolledBack: "rolled_back",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown chat state %q", text)
}
