package bootstrap

// State is the lifecycle state of a Bootstrapper.
type State int32

const (
	StateNotStarted State = iota
	StateStarting
	StateStarted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateStarting:
		return "Starting"
	case StateStarted:
		return "Started"
	default:
		return "Unknown"
	}
}
