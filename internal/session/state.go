package session

// Phase is the connection phase of the identity/leaderboard session.
type Phase string

const (
	PhaseDisconnected   Phase = "disconnected"
	PhaseConnecting     Phase = "connecting"
	PhaseConnected      Phase = "connected"
	PhaseResolvingError Phase = "resolving_error"
)

func (p Phase) String() string { return string(p) }

// Request and result codes exchanged with the host.
const (
	// RequestResolveError is the default request code reserved for the
	// sign-in resolution flow.
	RequestResolveError = 1001

	// ResultOK and ResultCanceled are the platform result codes delivered
	// with an activity result.
	ResultOK       = -1
	ResultCanceled = 0
)

// State is a snapshot of the session.
//
// ResolvingError is true while a user-mediated recovery flow is outstanding.
// While it is set, Phase is never PhaseConnected. A host stop during a flow
// moves Phase to PhaseDisconnected and keeps the flag, so a snapshot may read
// disconnected with ResolvingError still true.
type State struct {
	Phase          Phase
	ResolvingError bool

	// LastErrorCode is the code of the most recent connection failure.
	LastErrorCode int
	// Recovery is the flow that set ResolvingError, nil when none.
	Recovery *RecoveryAction
	// ConnectAttempts counts connect requests issued to the client.
	ConnectAttempts int
}

func (s State) clone() State {
	if s.Recovery != nil {
		rec := *s.Recovery
		s.Recovery = &rec
	}
	return s
}
