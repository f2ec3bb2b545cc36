package cluster

// State is the connection lifecycle position of the client. Transitions
// are logged but never fatal; the client retries until stopped.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateLoggingIn
	StateActive
	StateReconnecting
	StateFailover
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateLoggingIn:
		return "LoggingIn"
	case StateActive:
		return "Active"
	case StateReconnecting:
		return "Reconnecting"
	case StateFailover:
		return "Failover"
	default:
		return "Unknown"
	}
}
