// Package leaderboard submits scores to and opens the service leaderboard.
// Every call is a silent no-op unless the session is connected: the
// leaderboard is an enhancement and must never fail the game.
package leaderboard

import (
	"github.com/toritoma/playbridge/internal/event"
	"github.com/toritoma/playbridge/internal/logging"
	"github.com/toritoma/playbridge/internal/session"
)

// Defaults matching the published game.
const (
	DefaultID          = "CgkIjuz8p5UVEAIQAQ"
	DefaultRequestCode = 1002
)

// Session reports whether the identity session is usable.
type Session interface {
	IsConnected() bool
}

// Service is the leaderboard backend.
type Service interface {
	SubmitScore(leaderboardID string, score int64)
}

// ViewLauncher opens the leaderboard UI on the host. Its outcome comes
// back as an activity result carrying requestCode.
type ViewLauncher interface {
	StartLeaderboard(leaderboardID string, requestCode int) error
}

// Board is the game-facing leaderboard.
type Board struct {
	session  Session
	service  Service
	launcher ViewLauncher

	id          string
	requestCode int

	logger *logging.Logger
	bus    *event.Bus
}

// Option configures a Board.
type Option func(*Board)

// WithID sets the leaderboard identifier.
func WithID(id string) Option {
	return func(b *Board) { b.id = id }
}

// WithRequestCode sets the request code used when opening the view.
func WithRequestCode(code int) Option {
	return func(b *Board) { b.requestCode = code }
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *logging.Logger) Option {
	return func(b *Board) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBus publishes leaderboard events on bus.
func WithBus(bus *event.Bus) Option {
	return func(b *Board) { b.bus = bus }
}

// NewBoard creates a Board.
func NewBoard(sess Session, svc Service, launcher ViewLauncher, opts ...Option) *Board {
	b := &Board{
		session:     sess,
		service:     svc,
		launcher:    launcher,
		id:          DefaultID,
		requestCode: DefaultRequestCode,
		logger:      logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.WithPhase("leaderboard").With("leaderboard_id", b.id)
	return b
}

// RequestCode returns the request code this board consumes.
func (b *Board) RequestCode() int { return b.requestCode }

// SubmitScore posts score if the session is connected.
func (b *Board) SubmitScore(score int64) {
	if !b.session.IsConnected() {
		b.logger.Debug("score not submitted: session not connected", "score", score)
		b.publish(event.NewLeaderboardSkippedEvent("submit"))
		return
	}

	b.service.SubmitScore(b.id, score)
	b.logger.Info("score submitted", "score", score)
	b.publish(event.NewScoreSubmittedEvent(b.id, score))
}

// Open shows the leaderboard view if the session is connected.
func (b *Board) Open() {
	if !b.session.IsConnected() {
		b.logger.Debug("leaderboard not opened: session not connected")
		b.publish(event.NewLeaderboardSkippedEvent("open"))
		return
	}

	if err := b.launcher.StartLeaderboard(b.id, b.requestCode); err != nil {
		b.logger.Warn("leaderboard view could not be started", "error", err.Error())
		return
	}
	b.publish(event.NewLeaderboardOpenedEvent(b.id, b.requestCode))
}

// OnActivityResult consumes results for the leaderboard view. It returns
// false for request codes that belong to someone else.
func (b *Board) OnActivityResult(requestCode, resultCode int) bool {
	if requestCode != b.requestCode {
		return false
	}
	b.logger.Debug("leaderboard view closed",
		"result_code", resultCode,
		"ok", resultCode == session.ResultOK)
	return true
}

func (b *Board) publish(e event.Event) {
	if b.bus != nil {
		b.bus.Publish(e)
	}
}
