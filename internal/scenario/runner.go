package scenario

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/toritoma/playbridge/internal/ads"
	"github.com/toritoma/playbridge/internal/config"
	"github.com/toritoma/playbridge/internal/event"
	"github.com/toritoma/playbridge/internal/host"
	"github.com/toritoma/playbridge/internal/leaderboard"
	"github.com/toritoma/playbridge/internal/logging"
	"github.com/toritoma/playbridge/internal/session"
	"github.com/toritoma/playbridge/internal/share"
	"github.com/toritoma/playbridge/internal/simulator"
)

// EntryKind classifies transcript entries.
type EntryKind string

// Transcript entry kinds.
const (
	EntryStep    EntryKind = "step"
	EntryEvent   EntryKind = "event"
	EntryFailure EntryKind = "failure"
)

// Entry is one line of a transcript.
type Entry struct {
	Step int
	Kind EntryKind
	Text string
}

// Transcript is the record of one scenario run.
type Transcript struct {
	Name    string
	Entries []Entry

	Final         session.State
	Dispatches    []simulator.Dispatch
	Scores        []int64
	BannerVisible bool
	Connects      int
	Merged        int
	Failures      []string
}

// Passed reports whether every expectation held.
func (t *Transcript) Passed() bool { return len(t.Failures) == 0 }

// Runner replays scenarios against a fully wired host backed by the
// simulator.
type Runner struct {
	cfg      *config.Config
	fs       afero.Fs
	logger   *logging.Logger
	prompter simulator.Prompter
	onEntry  func(Entry)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithFs sets the filesystem images are staged on. Defaults to the OS
// filesystem.
func WithFs(fs afero.Fs) RunnerOption {
	return func(r *Runner) { r.fs = fs }
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *logging.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPrompter answers resolution UIs and error dialogs interactively
// instead of following the script.
func WithPrompter(p simulator.Prompter) RunnerOption {
	return func(r *Runner) { r.prompter = p }
}

// WithEntryHandler streams transcript entries as they are recorded.
func WithEntryHandler(fn func(Entry)) RunnerOption {
	return func(r *Runner) { r.onEntry = fn }
}

// NewRunner creates a Runner. A nil cfg uses config.Default().
func NewRunner(cfg *config.Config, opts ...RunnerOption) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Runner{
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// rig is the host and its simulated surroundings for one run.
type rig struct {
	looper   *host.Looper
	activity *host.Activity
	client   *simulator.Client
	target   *simulator.ShareTarget
	board    *simulator.Leaderboard
	view     *simulator.AdView
}

func (r *Runner) build(sc *Scenario, bus *event.Bus) (*rig, error) {
	cfg := r.cfg
	logger := r.logger.WithSession(sc.Name)

	looper := host.NewLooper(logger)
	client := simulator.NewClient(looper, sc.Connect, logger)
	launcher := simulator.NewLauncher(sc.Resolutions, sc.AutoDismiss, logger)
	if r.prompter != nil {
		launcher.SetPrompter(r.prompter)
	}
	target := simulator.NewShareTarget(sc.ShareInstalled, logger)
	lb := simulator.NewLeaderboard()
	view := &simulator.AdView{}

	mgr := session.NewManager(client, launcher,
		session.WithLogger(logger),
		session.WithBus(bus),
		session.WithResolveRequestCode(cfg.Session.ResolveRequestCode))
	board := leaderboard.NewBoard(mgr, lb, lb,
		leaderboard.WithID(cfg.Leaderboard.ID),
		leaderboard.WithRequestCode(cfg.Leaderboard.RequestCode),
		leaderboard.WithLogger(logger),
		leaderboard.WithBus(bus))
	builder := share.NewBuilder(share.NewFileStager(r.fs, cfg.Share.ResolveStagingDir()), target,
		share.WithTargetPackage(cfg.Share.TargetPackage),
		share.WithWebShareURL(cfg.Share.WebURL),
		share.WithLogger(logger),
		share.WithBus(bus))
	banner := ads.NewBanner(view, looper,
		ads.WithUnitID(cfg.Ads.UnitID),
		ads.WithLogger(logger),
		ads.WithBus(bus))

	activity, err := host.NewActivity(host.Deps{
		Looper:            looper,
		Session:           mgr,
		Leaderboard:       board,
		Share:             builder,
		Banner:            banner,
		ShowBannerOnStart: cfg.Ads.VisibleOnStart,
		Bus:               bus,
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}
	launcher.Bind(activity)
	lb.Bind(activity)

	banner.Load()
	looper.RunPending()

	return &rig{
		looper:   looper,
		activity: activity,
		client:   client,
		target:   target,
		board:    lb,
		view:     view,
	}, nil
}

// Run replays sc and returns its transcript. Expectation mismatches are
// recorded in the transcript; an error means the run itself could not
// proceed.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Transcript, error) {
	t := &Transcript{Name: sc.Name}
	current := 0
	record := func(kind EntryKind, text string) {
		e := Entry{Step: current, Kind: kind, Text: text}
		t.Entries = append(t.Entries, e)
		if r.onEntry != nil {
			r.onEntry(e)
		}
	}

	bus := event.NewBus(event.WithBusLogger(r.logger))
	bus.SubscribeAll(func(e event.Event) { record(EntryEvent, event.Describe(e)) })

	rg, err := r.build(sc, bus)
	if err != nil {
		return nil, fmt.Errorf("wiring host: %w", err)
	}
	defer rg.looper.Stop()

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return t, err
		}
		current = i + 1
		record(EntryStep, step.String())
		r.logger.Debug("scenario step", "step", current, "action", step.Action)

		if err := r.apply(rg, step); err != nil {
			return t, fmt.Errorf("step %d (%s): %w", current, step.Action, err)
		}
		rg.looper.RunPending()

		for _, msg := range checkExpectations(step, rg.activity.Session().State()) {
			t.Failures = append(t.Failures, fmt.Sprintf("step %d: %s", current, msg))
			record(EntryFailure, msg)
		}
	}

	t.Final = rg.activity.Session().State()
	t.Dispatches = rg.target.Dispatches()
	t.Scores = rg.board.Scores(r.cfg.Leaderboard.ID)
	t.BannerVisible = rg.view.Visible()
	t.Connects, t.Merged, _ = rg.client.Stats()
	return t, nil
}

func (r *Runner) apply(rg *rig, step Step) error {
	a := rg.activity
	switch step.Action {
	case ActionStart:
		a.Start()
	case ActionStop:
		a.Stop()
	case ActionResult:
		req, err := step.RequestCode(r.cfg.Session.ResolveRequestCode, r.cfg.Leaderboard.RequestCode)
		if err != nil {
			return err
		}
		res, err := step.ResultCode()
		if err != nil {
			return err
		}
		a.ActivityResult(req, res)
	case ActionDismiss:
		a.DialogDismissed()
	case ActionSuspend:
		rg.client.Suspend(step.Cause)
	case ActionConnect:
		o, err := simulator.ParseConnectOutcome(step.Outcome)
		if err != nil {
			return err
		}
		rg.client.Enqueue(o)
	case ActionScore:
		a.PostHighScore(step.Score)
	case ActionRanking:
		a.OpenRanking()
	case ActionTweet:
		a.PostTweet(step.Text, step.Image)
	case ActionBanner:
		a.SetBannerVisible(step.Visible)
	case ActionInstall:
		rg.target.SetInstalled(true)
	case ActionUninstall:
		rg.target.SetInstalled(false)
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}

func checkExpectations(step Step, st session.State) []string {
	var msgs []string
	if step.ExpectPhase != "" && string(st.Phase) != step.ExpectPhase {
		msgs = append(msgs, fmt.Sprintf("phase = %s, want %s", st.Phase, step.ExpectPhase))
	}
	if step.ExpectResolving != nil && st.ResolvingError != *step.ExpectResolving {
		msgs = append(msgs, fmt.Sprintf("resolving = %t, want %t", st.ResolvingError, *step.ExpectResolving))
	}
	return msgs
}
