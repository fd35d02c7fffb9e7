package rtsa

// State is the lifecycle position of a Session.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateConnectionCreated
	StateJoined
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateConnectionCreated:
		return "connection_created"
	case StateJoined:
		return "joined"
	default:
		return "unknown"
	}
}

// hasConnection reports whether a native connection id is held in s.
func (s State) hasConnection() bool {
	return s == StateConnectionCreated || s == StateJoined
}
