package session

import (
	"sync"

	"github.com/toritoma/playbridge/internal/errors"
	"github.com/toritoma/playbridge/internal/event"
	"github.com/toritoma/playbridge/internal/logging"
)

// Reasons recorded on connect requests.
const (
	reasonHostStarted    = "host_started"
	reasonSuspended      = "suspended"
	reasonDispatchFailed = "dispatch_failed"
	reasonResolved       = "resolved"
)

// Manager owns the session state and drives the Client through host
// lifecycle signals, client callbacks and recovery outcomes.
//
// Callbacks are expected on a single sequencing context (the host looper).
// The mutex only makes State and IsConnected safe to call from elsewhere;
// it is never held while a collaborator is called.
type Manager struct {
	mu    sync.Mutex
	state State

	client   Client
	launcher Launcher
	logger   *logging.Logger
	bus      *event.Bus

	resolveRequestCode int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithBus publishes session events on bus.
func WithBus(bus *event.Bus) Option {
	return func(m *Manager) { m.bus = bus }
}

// WithResolveRequestCode overrides the request code reserved for the
// resolution flow.
func WithResolveRequestCode(code int) Option {
	return func(m *Manager) { m.resolveRequestCode = code }
}

// NewManager creates a Manager in PhaseDisconnected and registers it as
// the client's connection callbacks.
func NewManager(client Client, launcher Launcher, opts ...Option) *Manager {
	m := &Manager{
		state:              State{Phase: PhaseDisconnected},
		client:             client,
		launcher:           launcher,
		logger:             logging.NopLogger(),
		resolveRequestCode: RequestResolveError,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithPhase("session")

	client.Register(m)
	return m
}

// ResolveRequestCode returns the request code this manager consumes.
func (m *Manager) ResolveRequestCode() int {
	return m.resolveRequestCode
}

// State returns a snapshot of the session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// IsConnected reports whether leaderboard operations may use the session.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	phase := m.state.Phase
	m.mu.Unlock()

	return phase == PhaseConnected && m.client.IsConnected()
}

// OnHostStarted connects unless a recovery flow is outstanding. Repeated
// calls are safe; the client merges connects it is already servicing.
func (m *Manager) OnHostStarted() {
	m.mu.Lock()
	if m.state.ResolvingError {
		rec := m.state.Recovery
		m.mu.Unlock()
		m.logger.Debug("connect suppressed while recovery is outstanding", recoveryAttrs(rec)...)
		return
	}
	evts := m.beginConnectLocked(reasonHostStarted)
	m.mu.Unlock()

	m.connect(evts)
}

// OnHostStopped disconnects unconditionally. An outstanding recovery flow
// stays flagged so the next start does not race with it.
func (m *Manager) OnHostStopped() {
	m.mu.Lock()
	evts := []event.Event{event.NewDisconnectRequestedEvent()}
	evts = m.setPhaseLocked(PhaseDisconnected, evts)
	m.mu.Unlock()

	m.logger.Info("disconnect requested")
	m.publish(evts)
	m.client.Disconnect()
}

// OnConnected marks the session usable.
func (m *Manager) OnConnected() {
	m.mu.Lock()
	if m.dialogOutstandingLocked() {
		rec := m.state.Recovery
		m.mu.Unlock()
		m.logger.Debug("connected while error dialog is up, waiting for dismissal", recoveryAttrs(rec)...)
		return
	}
	var evts []event.Event
	if m.state.ResolvingError {
		// Reached after a resolution UI failed to start, or was left open,
		// and a reconnect succeeded.
		evts = m.clearRecoveryLocked("connected", evts)
	}
	evts = m.setPhaseLocked(PhaseConnected, evts)
	attempts := m.state.ConnectAttempts
	m.mu.Unlock()

	m.logger.Info("session connected", "connect_attempts", attempts)
	m.publish(evts)
}

// OnConnectionSuspended treats the suspension as transient and reconnects,
// unless the blocking error dialog is up: only its dismissal may end that
// flow.
func (m *Manager) OnConnectionSuspended(cause int) {
	err := errors.NewConnectionError(errors.KindTransient, cause, errors.ErrConnectionSuspended)

	m.mu.Lock()
	if m.dialogOutstandingLocked() {
		rec := m.state.Recovery
		m.mu.Unlock()
		m.logger.Debug("reconnect suppressed while error dialog is up",
			append(recoveryAttrs(rec), "error", err.Error(), "cause", cause)...)
		return
	}
	m.logger.Warn("connection suspended, reconnecting", "error", err.Error(), "cause", cause)
	evts := m.beginConnectLocked(reasonSuspended)
	m.mu.Unlock()

	m.connect(evts)
}

// OnConnectionFailed starts at most one recovery flow. While one is
// outstanding further failures are ignored.
func (m *Manager) OnConnectionFailed(hasResolution bool, errorCode int) {
	m.mu.Lock()
	if m.state.ResolvingError {
		rec := m.state.Recovery
		m.mu.Unlock()
		m.logger.Debug("connection failure ignored while recovery is outstanding",
			append(recoveryAttrs(rec), "error_code", errorCode)...)
		return
	}

	var action RecoveryAction
	connErr := errors.NewConnectionError(errors.KindTerminal, errorCode, errors.ErrNoResolution)
	if hasResolution {
		action = StartResolutionUI(errorCode, m.resolveRequestCode)
		connErr = errors.NewConnectionError(errors.KindResolvable, errorCode, nil)
	} else {
		action = ShowBlockingDialog(errorCode, m.resolveRequestCode)
	}

	m.state.ResolvingError = true
	m.state.LastErrorCode = errorCode
	m.state.Recovery = &action
	evts := m.setPhaseLocked(PhaseResolvingError, nil)
	evts = append(evts, event.NewRecoveryRequestedEvent(action.ID, string(action.Kind), action.ErrorCode, action.RequestCode))
	m.mu.Unlock()

	m.logger.Warn("connection failed, starting recovery",
		append(recoveryAttrs(&action), "error", connErr.Error())...)
	m.publish(evts)

	if err := action.Execute(m.launcher); err != nil {
		m.onRecoveryDispatchFailed(action, err)
	}
}

// onRecoveryDispatchFailed falls back to an immediate reconnect. The
// recovery flag stays set until a result or a successful connect clears it.
func (m *Manager) onRecoveryDispatchFailed(action RecoveryAction, cause error) {
	err := errors.NewConnectionError(errors.KindTransient, action.ErrorCode,
		errors.Join(errors.ErrResolutionDispatch, cause))
	m.logger.Warn("resolution UI could not be started, reconnecting",
		append(recoveryAttrs(&action), "error", err.Error())...)

	m.mu.Lock()
	evts := m.beginConnectLocked(reasonDispatchFailed)
	m.mu.Unlock()

	m.connect(evts)
}

// OnHostActivityResult consumes the outcome of the resolution flow. It
// returns false for request codes that belong to someone else.
func (m *Manager) OnHostActivityResult(requestCode, resultCode int) bool {
	if requestCode != m.resolveRequestCode {
		return false
	}

	outcome := "failed"
	switch resultCode {
	case ResultOK:
		outcome = "ok"
	case ResultCanceled:
		outcome = "canceled"
	}

	m.mu.Lock()
	rec := m.state.Recovery
	evts := m.clearRecoveryLocked(outcome, nil)
	if resultCode != ResultOK && m.state.Phase == PhaseResolvingError {
		evts = m.setPhaseLocked(PhaseDisconnected, evts)
	}
	m.mu.Unlock()

	m.logger.Info("resolution result received",
		append(recoveryAttrs(rec), "result_code", resultCode, "outcome", outcome)...)
	m.publish(evts)

	if resultCode != ResultOK {
		return true
	}

	connecting, connected := m.client.IsConnecting(), m.client.IsConnected()
	m.mu.Lock()
	switch {
	case connected:
		evts = m.setPhaseLocked(PhaseConnected, nil)
	case connecting:
		evts = m.setPhaseLocked(PhaseConnecting, nil)
	default:
		evts = m.beginConnectLocked(reasonResolved)
	}
	m.mu.Unlock()

	if connected || connecting {
		m.logger.Debug("client already busy after resolution, not reconnecting",
			"connecting", connecting, "connected", connected)
		m.publish(evts)
		return true
	}
	m.connect(evts)
	return true
}

// OnResolutionDialogDismissed ends the blocking error dialog flow. No
// connect is issued; the next host start reconnects.
func (m *Manager) OnResolutionDialogDismissed() {
	m.mu.Lock()
	rec := m.state.Recovery
	evts := m.clearRecoveryLocked("dismissed", nil)
	if m.state.Phase == PhaseResolvingError {
		evts = m.setPhaseLocked(PhaseDisconnected, evts)
	}
	m.mu.Unlock()

	m.logger.Info("error dialog dismissed", recoveryAttrs(rec)...)
	m.publish(evts)
}

// beginConnectLocked records a connect request. An outstanding recovery UI
// keeps PhaseResolvingError; a live connection keeps PhaseConnected.
func (m *Manager) beginConnectLocked(reason string) []event.Event {
	m.state.ConnectAttempts++
	var evts []event.Event
	keep := (m.state.Phase == PhaseResolvingError && reason == reasonSuspended) ||
		(m.state.Phase == PhaseConnected && reason == reasonHostStarted)
	if !keep {
		evts = m.setPhaseLocked(PhaseConnecting, evts)
	}
	return append(evts, event.NewConnectRequestedEvent(m.state.ConnectAttempts, reason))
}

func (m *Manager) dialogOutstandingLocked() bool {
	return m.state.ResolvingError && m.state.Recovery != nil && m.state.Recovery.Kind == KindErrorDialog
}

func (m *Manager) connect(evts []event.Event) {
	m.logger.Debug("connect requested")
	m.publish(evts)
	m.client.Connect()
}

func (m *Manager) setPhaseLocked(to Phase, evts []event.Event) []event.Event {
	from := m.state.Phase
	if from == to {
		return evts
	}
	m.state.Phase = to
	return append(evts, event.NewPhaseChangedEvent(string(from), string(to), m.state.ResolvingError))
}

func (m *Manager) clearRecoveryLocked(outcome string, evts []event.Event) []event.Event {
	if !m.state.ResolvingError {
		return evts
	}
	id := ""
	if m.state.Recovery != nil {
		id = m.state.Recovery.ID
	}
	m.state.ResolvingError = false
	m.state.Recovery = nil
	return append(evts, event.NewRecoveryClearedEvent(id, outcome))
}

func (m *Manager) publish(evts []event.Event) {
	if m.bus == nil {
		return
	}
	for _, e := range evts {
		m.bus.Publish(e)
	}
}

func recoveryAttrs(rec *RecoveryAction) []any {
	if rec == nil {
		return nil
	}
	return []any{
		"recovery_id", rec.ID,
		"recovery_kind", string(rec.Kind),
		"error_code", rec.ErrorCode,
	}
}
