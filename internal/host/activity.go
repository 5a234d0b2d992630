package host

import (
	"errors"

	"github.com/toritoma/playbridge/internal/ads"
	"github.com/toritoma/playbridge/internal/event"
	"github.com/toritoma/playbridge/internal/leaderboard"
	"github.com/toritoma/playbridge/internal/logging"
	"github.com/toritoma/playbridge/internal/session"
	"github.com/toritoma/playbridge/internal/share"
)

// Deps holds the components an Activity wires together.
type Deps struct {
	Looper      *Looper
	Session     *session.Manager
	Leaderboard *leaderboard.Board
	Share       *share.Builder

	// Banner is optional; without it SetBannerVisible is a no-op.
	Banner *ads.Banner
	// ShowBannerOnStart shows the banner every time the host starts.
	ShowBannerOnStart bool

	Bus    *event.Bus
	Logger *logging.Logger
}

// Activity is the host glue. Host-facing methods forward lifecycle signals;
// game-facing methods bridge game requests to the services. Every entry
// point only posts onto the looper, so callers on any goroutine are safe
// and the session sees callbacks in delivery order.
type Activity struct {
	looper  *Looper
	session *session.Manager
	board   *leaderboard.Board
	share   *share.Builder
	banner  *ads.Banner

	showBannerOnStart bool

	bus    *event.Bus
	logger *logging.Logger
}

// NewActivity creates an Activity from deps.
func NewActivity(deps Deps) (*Activity, error) {
	if deps.Looper == nil {
		return nil, errors.New("host: Looper is required")
	}
	if deps.Session == nil {
		return nil, errors.New("host: Session is required")
	}
	if deps.Leaderboard == nil {
		return nil, errors.New("host: Leaderboard is required")
	}
	if deps.Share == nil {
		return nil, errors.New("host: Share is required")
	}
	if deps.Session.ResolveRequestCode() == deps.Leaderboard.RequestCode() {
		return nil, errors.New("host: session and leaderboard request codes must differ")
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	return &Activity{
		looper:            deps.Looper,
		session:           deps.Session,
		board:             deps.Leaderboard,
		share:             deps.Share,
		banner:            deps.Banner,
		showBannerOnStart: deps.ShowBannerOnStart,
		bus:               deps.Bus,
		logger:            logger.WithPhase("host"),
	}, nil
}

// Session returns the session manager owned by the activity.
func (a *Activity) Session() *session.Manager { return a.session }

// Start forwards the host's start signal.
func (a *Activity) Start() {
	a.post("start", func() {
		a.session.OnHostStarted()
		if a.banner != nil && a.showBannerOnStart {
			a.banner.Show()
		}
	})
}

// Stop forwards the host's stop signal.
func (a *Activity) Stop() {
	a.post("stop", a.session.OnHostStopped)
}

// ActivityResult routes an activity result to the session first, then the
// leaderboard. Results nobody claims are logged and dropped.
func (a *Activity) ActivityResult(requestCode, resultCode int) {
	a.post("activity_result", func() {
		consumer := ""
		switch {
		case a.session.OnHostActivityResult(requestCode, resultCode):
			consumer = "session"
		case a.board.OnActivityResult(requestCode, resultCode):
			consumer = "leaderboard"
		default:
			a.logger.Debug("activity result dropped",
				"request_code", requestCode,
				"result_code", resultCode)
		}
		if a.bus != nil {
			a.bus.Publish(event.NewActivityResultEvent(requestCode, resultCode, consumer))
		}
	})
}

// DialogDismissed reports that the blocking error dialog was dismissed.
func (a *Activity) DialogDismissed() {
	a.post("dialog_dismissed", a.session.OnResolutionDialogDismissed)
}

// PostTweet shares message and an optional image. Failures are logged;
// the game is never told.
func (a *Activity) PostTweet(message, imagePath string) {
	a.post("post_tweet", func() {
		if _, err := a.share.Share(message, "", imagePath); err != nil {
			a.logger.Warn("share failed", "error", err.Error())
		}
	})
}

// OpenRanking opens the leaderboard view when connected.
func (a *Activity) OpenRanking() {
	a.post("open_ranking", a.board.Open)
}

// PostHighScore submits score when connected.
func (a *Activity) PostHighScore(score int64) {
	a.post("post_high_score", func() { a.board.SubmitScore(score) })
}

// SetBannerVisible shows or hides the ad banner.
func (a *Activity) SetBannerVisible(visible bool) {
	if a.banner == nil {
		return
	}
	a.banner.SetVisible(visible)
}

func (a *Activity) post(op string, fn func()) {
	if !a.looper.Post(fn) {
		a.logger.Warn("host call dropped: looper stopped", "op", op)
	}
}
