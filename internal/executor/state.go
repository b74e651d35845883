package executor

// State is the lifecycle state of the session runner.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateExecuting
	StateDisconnecting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateExecuting:
		return "executing"
	case StateDisconnecting:
		return "disconnecting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
