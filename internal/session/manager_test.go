package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toritoma/playbridge/internal/event"
)

type fakeClient struct {
	mu          sync.Mutex
	callbacks   ConnectionCallbacks
	connects    int
	disconnects int
	connecting  bool
	connected   bool
}

func (c *fakeClient) Register(cb ConnectionCallbacks) { c.callbacks = cb }

func (c *fakeClient) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects++
}

func (c *fakeClient) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
	c.connected = false
	c.connecting = false
}

func (c *fakeClient) IsConnecting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connecting
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) connectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects
}

type resolutionCall struct {
	errorCode   int
	requestCode int
}

type fakeLauncher struct {
	startErr    error
	resolutions []resolutionCall
	dialogs     []resolutionCall
}

func (l *fakeLauncher) StartResolution(errorCode, requestCode int) error {
	l.resolutions = append(l.resolutions, resolutionCall{errorCode, requestCode})
	return l.startErr
}

func (l *fakeLauncher) ShowErrorDialog(errorCode, requestCode int) {
	l.dialogs = append(l.dialogs, resolutionCall{errorCode, requestCode})
}

func (l *fakeLauncher) flows() int { return len(l.resolutions) + len(l.dialogs) }

func newTestManager(t *testing.T, opts ...Option) (*Manager, *fakeClient, *fakeLauncher) {
	t.Helper()
	client := &fakeClient{}
	launcher := &fakeLauncher{}
	m := NewManager(client, launcher, opts...)
	require.Same(t, m, client.callbacks, "NewManager should register itself with the client")
	return m, client, launcher
}

func assertInvariant(t *testing.T, m *Manager) {
	t.Helper()
	s := m.State()
	if s.ResolvingError {
		assert.NotEqual(t, PhaseConnected, s.Phase, "resolving error while connected")
		assert.NotNil(t, s.Recovery, "flag set without a recovery action")
	} else {
		assert.Nil(t, s.Recovery, "recovery action without the flag")
	}
}

func TestPhase_Constants(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseDisconnected, "disconnected"},
		{PhaseConnecting, "connecting"},
		{PhaseConnected, "connected"},
		{PhaseResolvingError, "resolving_error"},
	}

	for _, tc := range tests {
		if tc.phase.String() != tc.want {
			t.Errorf("Phase %q != %q", tc.phase, tc.want)
		}
	}
}

func TestNewManager_InitialState(t *testing.T) {
	m, client, _ := newTestManager(t)

	s := m.State()
	assert.Equal(t, PhaseDisconnected, s.Phase)
	assert.False(t, s.ResolvingError)
	assert.Zero(t, s.ConnectAttempts)
	assert.Zero(t, client.connects, "constructing a manager must not connect")
	assert.Equal(t, RequestResolveError, m.ResolveRequestCode())
}

func TestOnHostStarted_Connects(t *testing.T) {
	m, client, _ := newTestManager(t)

	m.OnHostStarted()

	assert.Equal(t, 1, client.connects)
	assert.Equal(t, PhaseConnecting, m.State().Phase)

	m.OnConnected()
	assert.Equal(t, PhaseConnected, m.State().Phase)
	assertInvariant(t, m)
}

func TestOnHostStopped_DisconnectsUnconditionally(t *testing.T) {
	m, client, _ := newTestManager(t)

	m.OnHostStopped()
	assert.Equal(t, 1, client.disconnects)

	m.OnHostStarted()
	m.OnConnected()
	m.OnHostStopped()
	assert.Equal(t, 2, client.disconnects)
	assert.Equal(t, PhaseDisconnected, m.State().Phase)

	m.OnConnectionFailed(false, 4)
	m.OnHostStopped()
	assert.Equal(t, 3, client.disconnects)
	assert.True(t, m.State().ResolvingError, "stopping must not clear an outstanding flow")
	assert.Equal(t, PhaseDisconnected, m.State().Phase)
	assertInvariant(t, m)
}

func TestOnConnectionSuspended_ReconnectsImmediately(t *testing.T) {
	m, client, launcher := newTestManager(t)

	m.OnHostStarted()
	m.OnConnected()
	m.OnConnectionSuspended(2)

	assert.Equal(t, 2, client.connects)
	assert.Equal(t, PhaseConnecting, m.State().Phase)
	assert.False(t, m.State().ResolvingError)
	assert.Zero(t, launcher.flows(), "suspension must not surface an error")
}

// At most one recovery flow is outstanding, whatever failures follow.
func TestOnConnectionFailed_AtMostOneOutstanding(t *testing.T) {
	sequences := []struct {
		name     string
		failures []bool // hasResolution per call
	}{
		{"resolvable then resolvable", []bool{true, true}},
		{"resolvable then terminal", []bool{true, false, false}},
		{"terminal then resolvable", []bool{false, true}},
		{"many terminal", []bool{false, false, false, false, false}},
	}

	for _, seq := range sequences {
		t.Run(seq.name, func(t *testing.T) {
			m, _, launcher := newTestManager(t)
			m.OnHostStarted()

			for i, hasResolution := range seq.failures {
				m.OnConnectionFailed(hasResolution, 10+i)
				assertInvariant(t, m)
			}

			assert.Equal(t, 1, launcher.flows(), "exactly one recovery flow should be requested")
			s := m.State()
			assert.True(t, s.ResolvingError)
			assert.Equal(t, 10, s.LastErrorCode, "ignored failures must not overwrite the error code")
		})
	}
}

func TestOnHostStarted_TwiceNeverStacksFlows(t *testing.T) {
	t.Run("without failure", func(t *testing.T) {
		m, client, launcher := newTestManager(t)

		m.OnHostStarted()
		m.OnHostStarted()

		assert.Equal(t, 2, client.connects, "merging duplicate connects is the client's job")
		assert.Zero(t, launcher.flows())
	})

	t.Run("during error dialog", func(t *testing.T) {
		m, client, launcher := newTestManager(t)

		m.OnHostStarted()
		m.OnConnectionFailed(false, 7)
		m.OnHostStarted()
		m.OnHostStarted()

		assert.Equal(t, 1, client.connects, "no connect while a flow is outstanding")
		assert.Len(t, launcher.dialogs, 1)
		assert.Empty(t, launcher.resolutions)
		assertInvariant(t, m)
	})

	t.Run("during resolution UI", func(t *testing.T) {
		m, client, launcher := newTestManager(t)

		m.OnHostStarted()
		m.OnConnectionFailed(true, 4)
		m.OnHostStarted()
		m.OnHostStarted()

		assert.Equal(t, 1, client.connects)
		assert.Len(t, launcher.resolutions, 1)
		assert.Empty(t, launcher.dialogs)
	})
}

func TestOnConnectionFailed_ResolutionDispatchFailure(t *testing.T) {
	m, client, launcher := newTestManager(t)
	launcher.startErr = errors.New("no activity to handle resolution")

	m.OnHostStarted()
	before := client.connectCount()

	m.OnConnectionFailed(true, 13)

	require.Len(t, launcher.resolutions, 1)
	assert.Equal(t, resolutionCall{13, RequestResolveError}, launcher.resolutions[0])
	assert.Equal(t, before+1, client.connectCount(), "next action is exactly one connect")

	s := m.State()
	assert.True(t, s.ResolvingError, "flag stays set after dispatch failure")
	assert.Equal(t, PhaseConnecting, s.Phase)
	assertInvariant(t, m)

	// Further failures are still suppressed.
	m.OnConnectionFailed(true, 13)
	assert.Len(t, launcher.resolutions, 1)

	consumed := m.OnHostActivityResult(RequestResolveError, ResultCanceled)
	assert.True(t, consumed)
	assert.False(t, m.State().ResolvingError, "activity result clears the flag")
	assertInvariant(t, m)
}

func TestOnConnected_ClearsFlagAfterDispatchFallback(t *testing.T) {
	m, _, launcher := newTestManager(t)
	launcher.startErr = errors.New("boom")

	m.OnHostStarted()
	m.OnConnectionFailed(true, 13)
	m.OnConnected()

	s := m.State()
	assert.Equal(t, PhaseConnected, s.Phase)
	assert.False(t, s.ResolvingError)
	assertInvariant(t, m)
}

func TestOnConnectionFailed_NoResolutionShowsDialog(t *testing.T) {
	m, client, launcher := newTestManager(t)

	m.OnHostStarted()
	m.OnConnectionFailed(false, 7)

	require.Len(t, launcher.dialogs, 1)
	assert.Equal(t, 7, launcher.dialogs[0].errorCode)
	assert.Equal(t, RequestResolveError, launcher.dialogs[0].requestCode)
	assert.Empty(t, launcher.resolutions)

	s := m.State()
	require.NotNil(t, s.Recovery)
	assert.Equal(t, KindErrorDialog, s.Recovery.Kind)
	assert.Equal(t, PhaseResolvingError, s.Phase)

	// Nothing but the dismissal clears the flag.
	m.OnHostActivityResult(otherRequestCode, ResultOK)
	m.OnHostStarted()
	m.OnConnectionFailed(false, 8)
	m.OnConnectionSuspended(1)
	assert.True(t, m.State().ResolvingError)
	assert.Len(t, launcher.dialogs, 1)

	m.OnResolutionDialogDismissed()

	s = m.State()
	assert.False(t, s.ResolvingError)
	assert.Nil(t, s.Recovery)
	assertInvariant(t, m)

	connects := client.connectCount()
	m.OnHostStarted()
	assert.Equal(t, connects+1, client.connectCount(), "next start connects again")
}

func TestOnConnectionSuspended_DialogUpWaitsForDismissal(t *testing.T) {
	m, client, launcher := newTestManager(t)

	m.OnHostStarted()
	m.OnConnectionFailed(false, 7)
	connects := client.connectCount()

	m.OnConnectionSuspended(1)
	assert.Equal(t, connects, client.connectCount(), "no reconnect while the dialog is up")

	client.mu.Lock()
	client.connected = true
	client.mu.Unlock()
	m.OnConnected()

	s := m.State()
	assert.True(t, s.ResolvingError, "only the dismissal ends a dialog flow")
	assert.Equal(t, PhaseResolvingError, s.Phase)
	assert.Len(t, launcher.dialogs, 1)
	assert.False(t, m.IsConnected())
	assertInvariant(t, m)

	m.OnResolutionDialogDismissed()
	assert.False(t, m.State().ResolvingError)
	assertInvariant(t, m)
}

// otherRequestCode belongs to another component.
const otherRequestCode = 1002

func TestOnResolutionDialogDismissed_Phase(t *testing.T) {
	m, client, _ := newTestManager(t)

	m.OnHostStarted()
	m.OnConnectionFailed(false, 7)
	connects := client.connectCount()

	m.OnResolutionDialogDismissed()

	assert.Equal(t, PhaseDisconnected, m.State().Phase)
	assert.Equal(t, connects, client.connectCount(), "dismissal does not connect")

	// Dismissal without a flow is harmless.
	m.OnResolutionDialogDismissed()
	assert.False(t, m.State().ResolvingError)
}

func TestOnHostActivityResult_RoundTrip(t *testing.T) {
	tests := []struct {
		name         string
		connecting   bool
		connected    bool
		wantConnects int
		wantPhase    Phase
	}{
		{"idle client reconnects", false, false, 1, PhaseConnecting},
		{"client connecting", true, false, 0, PhaseConnecting},
		{"client connected", false, true, 0, PhaseConnected},
		{"client both", true, true, 0, PhaseConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, client, _ := newTestManager(t)
			m.OnHostStarted()
			m.OnConnectionFailed(true, 4)

			client.connecting = tt.connecting
			client.connected = tt.connected
			before := client.connectCount()

			consumed := m.OnHostActivityResult(RequestResolveError, ResultOK)

			assert.True(t, consumed)
			assert.Equal(t, tt.wantConnects, client.connectCount()-before)
			s := m.State()
			assert.False(t, s.ResolvingError)
			assert.Equal(t, tt.wantPhase, s.Phase)
			assertInvariant(t, m)
		})
	}
}

func TestOnHostActivityResult_NotOK(t *testing.T) {
	for _, result := range []int{ResultCanceled, 1, 42} {
		m, client, _ := newTestManager(t)
		m.OnHostStarted()
		m.OnConnectionFailed(true, 4)
		before := client.connectCount()

		assert.True(t, m.OnHostActivityResult(RequestResolveError, result))
		assert.Equal(t, before, client.connectCount(), "result %d must not connect", result)
		assert.Equal(t, PhaseDisconnected, m.State().Phase)
		assert.False(t, m.State().ResolvingError)
	}
}

func TestOnHostActivityResult_OtherRequestCodesIgnored(t *testing.T) {
	m, client, _ := newTestManager(t)
	m.OnHostStarted()
	m.OnConnectionFailed(true, 4)
	before := m.State()

	assert.False(t, m.OnHostActivityResult(otherRequestCode, ResultOK))
	assert.False(t, m.OnHostActivityResult(0, ResultOK))

	after := m.State()
	assert.Equal(t, before.Phase, after.Phase)
	assert.True(t, after.ResolvingError)
	assert.Equal(t, 1, client.connectCount())
}

func TestWithResolveRequestCode(t *testing.T) {
	m, client, launcher := newTestManager(t, WithResolveRequestCode(77))
	m.OnHostStarted()
	m.OnConnectionFailed(true, 4)

	require.Len(t, launcher.resolutions, 1)
	assert.Equal(t, 77, launcher.resolutions[0].requestCode)
	assert.False(t, m.OnHostActivityResult(RequestResolveError, ResultOK))
	assert.True(t, m.OnHostActivityResult(77, ResultOK))
	assert.Equal(t, 2, client.connectCount())
}

func TestIsConnected(t *testing.T) {
	m, client, _ := newTestManager(t)
	assert.False(t, m.IsConnected())

	m.OnHostStarted()
	m.OnConnected()
	assert.False(t, m.IsConnected(), "client must also report connected")

	client.connected = true
	assert.True(t, m.IsConnected())

	m.OnConnectionSuspended(1)
	assert.False(t, m.IsConnected())
}

func TestState_IsSnapshot(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.OnHostStarted()
	m.OnConnectionFailed(false, 7)

	s := m.State()
	require.NotNil(t, s.Recovery)
	s.Recovery.ErrorCode = 99
	s.ResolvingError = false

	fresh := m.State()
	assert.Equal(t, 7, fresh.Recovery.ErrorCode)
	assert.True(t, fresh.ResolvingError)
}

func TestManager_PublishesEvents(t *testing.T) {
	bus := event.NewBus()
	var types []string
	var cleared []event.RecoveryClearedEvent
	bus.SubscribeAll(func(e event.Event) {
		types = append(types, e.EventType())
		if c, ok := e.(event.RecoveryClearedEvent); ok {
			cleared = append(cleared, c)
		}
	})

	m, _, _ := newTestManager(t, WithBus(bus))
	m.OnHostStarted()
	m.OnConnectionFailed(true, 4)
	rec := m.State().Recovery
	require.NotNil(t, rec)
	m.OnHostActivityResult(RequestResolveError, ResultOK)

	want := []string{
		event.TypePhaseChanged,      // disconnected -> connecting
		event.TypeConnectRequested,  // host start
		event.TypePhaseChanged,      // connecting -> resolving_error
		event.TypeRecoveryRequested, // resolution UI
		event.TypeRecoveryCleared,   // result ok
		event.TypePhaseChanged,      // resolving_error -> connecting
		event.TypeConnectRequested,  // reconnect after resolution
	}
	assert.Equal(t, want, types)
	require.Len(t, cleared, 1)
	assert.Equal(t, rec.ID, cleared[0].RecoveryID)
	assert.Equal(t, "ok", cleared[0].Outcome)
}

func TestRecoveryAction(t *testing.T) {
	launcher := &fakeLauncher{}

	res := StartResolutionUI(4, 1001)
	dlg := ShowBlockingDialog(7, 1001)
	assert.NotEqual(t, res.ID, dlg.ID)
	assert.Equal(t, "resolution_ui(code=4, request=1001)", res.String())

	require.NoError(t, res.Execute(launcher))
	require.NoError(t, dlg.Execute(launcher))
	assert.Equal(t, []resolutionCall{{4, 1001}}, launcher.resolutions)
	assert.Equal(t, []resolutionCall{{7, 1001}}, launcher.dialogs)

	assert.Error(t, RecoveryAction{Kind: "bogus"}.Execute(launcher))
}
