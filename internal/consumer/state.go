package consumer

// State is the lifecycle state of the ingestor.
type State int32

const (
	StateStopped State = iota
	StateConnecting
	StateSubscribed
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}
