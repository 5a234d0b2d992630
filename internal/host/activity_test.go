package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toritoma/playbridge/internal/ads"
	apperrors "github.com/toritoma/playbridge/internal/errors"
	"github.com/toritoma/playbridge/internal/event"
	"github.com/toritoma/playbridge/internal/leaderboard"
	"github.com/toritoma/playbridge/internal/session"
	"github.com/toritoma/playbridge/internal/share"
)

type stubClient struct {
	callbacks   session.ConnectionCallbacks
	connects    int
	disconnects int
	connecting  bool
	connected   bool
}

func (c *stubClient) Register(cb session.ConnectionCallbacks) { c.callbacks = cb }
func (c *stubClient) IsConnecting() bool                      { return c.connecting }
func (c *stubClient) IsConnected() bool                       { return c.connected }

func (c *stubClient) Connect() {
	c.connects++
	c.connecting = true
}

func (c *stubClient) Disconnect() {
	c.disconnects++
	c.connecting, c.connected = false, false
}

func (c *stubClient) succeed() {
	c.connecting, c.connected = false, true
	c.callbacks.OnConnected()
}

func (c *stubClient) fail(hasResolution bool, code int) {
	c.connecting = false
	c.callbacks.OnConnectionFailed(hasResolution, code)
}

type stubLauncher struct {
	resolutions []int
	dialogs     []int
}

func (l *stubLauncher) StartResolution(errorCode, _ int) error {
	l.resolutions = append(l.resolutions, errorCode)
	return nil
}

func (l *stubLauncher) ShowErrorDialog(errorCode, _ int) {
	l.dialogs = append(l.dialogs, errorCode)
}

type stubScores struct {
	scores []int64
	opened int
}

func (s *stubScores) SubmitScore(_ string, score int64) { s.scores = append(s.scores, score) }
func (s *stubScores) StartLeaderboard(string, int) error {
	s.opened++
	return nil
}

type stubDispatcher struct {
	installed bool
	sent      []string
	browsed   []string
}

func (d *stubDispatcher) Dispatch(_ string, p share.Payload) error {
	if !d.installed {
		return apperrors.ErrTargetNotInstalled
	}
	d.sent = append(d.sent, p.Text())
	return nil
}

func (d *stubDispatcher) DispatchToBrowser(url string) error {
	d.browsed = append(d.browsed, url)
	return nil
}

type stubView struct {
	visible bool
	sets    int
}

func (v *stubView) Load(string) {}

func (v *stubView) SetVisible(vis bool) {
	v.visible = vis
	v.sets++
}

type harness struct {
	looper     *Looper
	activity   *Activity
	client     *stubClient
	launcher   *stubLauncher
	scores     *stubScores
	dispatcher *stubDispatcher
	view       *stubView
	events     []event.Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		looper:     NewLooper(nil),
		client:     &stubClient{},
		launcher:   &stubLauncher{},
		scores:     &stubScores{},
		dispatcher: &stubDispatcher{},
		view:       &stubView{},
	}
	bus := event.NewBus()
	bus.SubscribeAll(func(e event.Event) { h.events = append(h.events, e) })

	mgr := session.NewManager(h.client, h.launcher, session.WithBus(bus))
	board := leaderboard.NewBoard(mgr, h.scores, h.scores, leaderboard.WithBus(bus))
	builder := share.NewBuilder(nil, h.dispatcher, share.WithBus(bus))
	banner := ads.NewBanner(h.view, h.looper, ads.WithBus(bus))

	a, err := NewActivity(Deps{
		Looper:            h.looper,
		Session:           mgr,
		Leaderboard:       board,
		Share:             builder,
		Banner:            banner,
		ShowBannerOnStart: true,
		Bus:               bus,
	})
	require.NoError(t, err)
	h.activity = a
	return h
}

func (h *harness) activityResults() []event.ActivityResultEvent {
	var out []event.ActivityResultEvent
	for _, e := range h.events {
		if ar, ok := e.(event.ActivityResultEvent); ok {
			out = append(out, ar)
		}
	}
	return out
}

func TestNewActivity_RequiresDeps(t *testing.T) {
	looper := NewLooper(nil)
	client := &stubClient{}
	mgr := session.NewManager(client, &stubLauncher{})
	board := leaderboard.NewBoard(mgr, &stubScores{}, &stubScores{})
	builder := share.NewBuilder(nil, &stubDispatcher{})

	tests := []struct {
		name    string
		deps    Deps
		wantErr string
	}{
		{"no looper", Deps{Session: mgr, Leaderboard: board, Share: builder}, "host: Looper is required"},
		{"no session", Deps{Looper: looper, Leaderboard: board, Share: builder}, "host: Session is required"},
		{"no leaderboard", Deps{Looper: looper, Session: mgr, Share: builder}, "host: Leaderboard is required"},
		{"no share", Deps{Looper: looper, Session: mgr, Leaderboard: board}, "host: Share is required"},
		{
			"colliding request codes",
			Deps{
				Looper:      looper,
				Session:     mgr,
				Leaderboard: leaderboard.NewBoard(mgr, &stubScores{}, &stubScores{}, leaderboard.WithRequestCode(session.RequestResolveError)),
				Share:       builder,
			},
			"request codes must differ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewActivity(tt.deps)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	a, err := NewActivity(Deps{Looper: looper, Session: mgr, Leaderboard: board, Share: builder})
	require.NoError(t, err)
	assert.Same(t, mgr, a.Session())
}

func TestActivity_EntryPointsOnlyPost(t *testing.T) {
	h := newHarness(t)

	h.activity.Start()
	h.activity.PostHighScore(10)
	assert.Equal(t, 0, h.client.connects, "nothing runs before the looper drains")
	assert.Equal(t, 2, h.looper.Pending())

	h.looper.RunPending()
	assert.Equal(t, 1, h.client.connects)
	assert.Empty(t, h.scores.scores, "score is skipped while connecting")
}

func TestActivity_StartShowsBanner(t *testing.T) {
	h := newHarness(t)

	h.activity.Start()
	h.looper.RunPending()

	assert.True(t, h.view.visible)

	h.activity.SetBannerVisible(false)
	h.looper.RunPending()
	assert.False(t, h.view.visible)
}

func TestActivity_LeaderboardAfterConnect(t *testing.T) {
	h := newHarness(t)

	h.activity.Start()
	h.looper.RunPending()
	h.looper.Post(h.client.succeed)
	h.looper.RunPending()

	h.activity.PostHighScore(4200)
	h.activity.OpenRanking()
	h.looper.RunPending()

	assert.Equal(t, []int64{4200}, h.scores.scores)
	assert.Equal(t, 1, h.scores.opened)
}

func TestActivity_ResultRouting(t *testing.T) {
	h := newHarness(t)

	h.activity.Start()
	h.looper.RunPending()
	h.looper.Post(func() { h.client.fail(true, 4) })
	h.looper.RunPending()
	require.True(t, h.activity.Session().State().ResolvingError)

	h.activity.ActivityResult(leaderboard.DefaultRequestCode, session.ResultOK)
	h.activity.ActivityResult(4242, session.ResultOK)
	h.activity.ActivityResult(session.RequestResolveError, session.ResultOK)
	h.looper.RunPending()

	results := h.activityResults()
	require.Len(t, results, 3)
	assert.Equal(t, "leaderboard", results[0].Consumer)
	assert.Equal(t, "", results[1].Consumer)
	assert.Equal(t, "session", results[2].Consumer)

	st := h.activity.Session().State()
	assert.False(t, st.ResolvingError)
	assert.Equal(t, session.PhaseConnecting, st.Phase)
	assert.Equal(t, 2, h.client.connects)
}

func TestActivity_DialogDismissed(t *testing.T) {
	h := newHarness(t)

	h.activity.Start()
	h.looper.RunPending()
	h.looper.Post(func() { h.client.fail(false, 9) })
	h.looper.RunPending()
	require.Equal(t, []int{9}, h.launcher.dialogs)

	h.activity.Start()
	h.looper.RunPending()
	assert.Equal(t, 1, h.client.connects, "start is suppressed while the dialog is up")

	h.activity.DialogDismissed()
	h.looper.RunPending()
	st := h.activity.Session().State()
	assert.False(t, st.ResolvingError)
	assert.Equal(t, session.PhaseDisconnected, st.Phase)

	h.activity.Start()
	h.looper.RunPending()
	assert.Equal(t, 2, h.client.connects)
}

func TestActivity_StopDisconnects(t *testing.T) {
	h := newHarness(t)

	h.activity.Start()
	h.activity.Stop()
	h.looper.RunPending()

	assert.Equal(t, 1, h.client.disconnects)
	assert.Equal(t, session.PhaseDisconnected, h.activity.Session().State().Phase)
}

func TestActivity_PostTweet(t *testing.T) {
	t.Run("target installed", func(t *testing.T) {
		h := newHarness(t)
		h.dispatcher.installed = true

		h.activity.PostTweet("new record #toritoma", "")
		h.looper.RunPending()

		assert.Equal(t, []string{"new record #toritoma"}, h.dispatcher.sent)
		assert.Empty(t, h.dispatcher.browsed)
	})

	t.Run("falls back to browser", func(t *testing.T) {
		h := newHarness(t)

		h.activity.PostTweet("new record #toritoma", "")
		h.looper.RunPending()

		require.Len(t, h.dispatcher.browsed, 1)
		assert.Contains(t, h.dispatcher.browsed[0], "%23toritoma")
	})
}

func TestActivity_PostAfterLooperStopped(t *testing.T) {
	h := newHarness(t)
	h.looper.Stop()

	h.activity.Start()
	h.activity.PostHighScore(1)
	h.activity.SetBannerVisible(true)

	assert.Equal(t, 0, h.looper.RunPending())
	assert.Equal(t, 0, h.client.connects)
}
