package simulator

import (
	"fmt"
	"sync"

	"github.com/toritoma/playbridge/internal/errors"
	"github.com/toritoma/playbridge/internal/logging"
	"github.com/toritoma/playbridge/internal/session"
	"github.com/toritoma/playbridge/internal/share"
)

// Dispatch records one share hand-off.
type Dispatch struct {
	Target    string
	Text      string
	ImageURI  string
	ImageType string
	Browser   bool
}

func (d Dispatch) String() string {
	if d.Browser {
		return "browser " + d.Target
	}
	if d.ImageURI == "" {
		return fmt.Sprintf("%s text=%q", d.Target, d.Text)
	}
	return fmt.Sprintf("%s text=%q image=%s (%s)", d.Target, d.Text, d.ImageURI, d.ImageType)
}

// ShareTarget is a share.Dispatcher whose preferred target may or may not
// be installed.
type ShareTarget struct {
	mu         sync.Mutex
	installed  bool
	dispatches []Dispatch
	logger     *logging.Logger
}

// NewShareTarget creates a ShareTarget.
func NewShareTarget(installed bool, logger *logging.Logger) *ShareTarget {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &ShareTarget{installed: installed, logger: logger.WithPhase("sim-share")}
}

// SetInstalled changes whether the target package is present.
func (t *ShareTarget) SetInstalled(installed bool) {
	t.mu.Lock()
	t.installed = installed
	t.mu.Unlock()
}

// Dispatch implements share.Dispatcher.
func (t *ShareTarget) Dispatch(targetPackage string, payload share.Payload) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.installed {
		return fmt.Errorf("%w: %s", errors.ErrTargetNotInstalled, targetPackage)
	}
	t.dispatches = append(t.dispatches, Dispatch{
		Target:    targetPackage,
		Text:      payload.Text(),
		ImageURI:  payload.ImageURI(),
		ImageType: payload.ImageType(),
	})
	t.logger.Debug("share delivered", "target", targetPackage, "payload_id", payload.ID())
	return nil
}

// DispatchToBrowser implements share.Dispatcher.
func (t *ShareTarget) DispatchToBrowser(url string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dispatches = append(t.dispatches, Dispatch{Target: url, Browser: true})
	return nil
}

// Dispatches returns everything handed off so far.
func (t *ShareTarget) Dispatches() []Dispatch {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Dispatch(nil), t.dispatches...)
}

// Leaderboard is a leaderboard.Service and leaderboard.ViewLauncher. The
// view closes immediately with a canceled result, as if the player pressed
// back.
type Leaderboard struct {
	mu     sync.Mutex
	sink   ResultSink
	scores map[string][]int64
	opened int
}

// NewLeaderboard creates a Leaderboard.
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{scores: make(map[string][]int64)}
}

// Bind sets where the view's activity result is delivered.
func (b *Leaderboard) Bind(sink ResultSink) {
	b.mu.Lock()
	b.sink = sink
	b.mu.Unlock()
}

// SubmitScore implements leaderboard.Service.
func (b *Leaderboard) SubmitScore(leaderboardID string, score int64) {
	b.mu.Lock()
	b.scores[leaderboardID] = append(b.scores[leaderboardID], score)
	b.mu.Unlock()
}

// StartLeaderboard implements leaderboard.ViewLauncher.
func (b *Leaderboard) StartLeaderboard(_ string, requestCode int) error {
	b.mu.Lock()
	b.opened++
	sink := b.sink
	b.mu.Unlock()

	if sink != nil {
		sink.ActivityResult(requestCode, session.ResultCanceled)
	}
	return nil
}

// Scores returns the scores submitted to leaderboardID.
func (b *Leaderboard) Scores(leaderboardID string) []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int64(nil), b.scores[leaderboardID]...)
}

// Opened returns how many times the view was opened.
func (b *Leaderboard) Opened() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened
}

// AdView is an ads.View that remembers its state.
type AdView struct {
	mu      sync.Mutex
	unitID  string
	visible bool
	changes int
}

// Load implements ads.View.
func (v *AdView) Load(unitID string) {
	v.mu.Lock()
	v.unitID = unitID
	v.mu.Unlock()
}

// SetVisible implements ads.View.
func (v *AdView) SetVisible(visible bool) {
	v.mu.Lock()
	if v.visible != visible {
		v.changes++
	}
	v.visible = visible
	v.mu.Unlock()
}

// Visible reports the current visibility.
func (v *AdView) Visible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible
}

// UnitID returns the unit the last ad was loaded for.
func (v *AdView) UnitID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.unitID
}
