package scenario

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/toritoma/playbridge/internal/session"
	"github.com/toritoma/playbridge/internal/simulator"
)

// Step actions.
const (
	ActionStart     = "start"
	ActionStop      = "stop"
	ActionResult    = "result"
	ActionDismiss   = "dismiss"
	ActionSuspend   = "suspend"
	ActionConnect   = "connect"
	ActionScore     = "score"
	ActionRanking   = "ranking"
	ActionTweet     = "tweet"
	ActionBanner    = "banner"
	ActionInstall   = "install"
	ActionUninstall = "uninstall"
)

var validActions = []string{
	ActionStart, ActionStop, ActionResult, ActionDismiss, ActionSuspend,
	ActionConnect, ActionScore, ActionRanking, ActionTweet, ActionBanner,
	ActionInstall, ActionUninstall,
}

// Named request codes accepted by result steps.
const (
	RequestResolve     = "resolve"
	RequestLeaderboard = "leaderboard"
)

// Scenario is a scripted run of the host.
type Scenario struct {
	// Name is shown in the transcript header.
	Name string `mapstructure:"name"`
	// Description is free text.
	Description string `mapstructure:"description"`

	// Connect scripts the client's connect results in order. Entries may be
	// maps or the short form "fail:4:resolvable".
	Connect []simulator.ConnectOutcome `mapstructure:"connect"`
	// Resolutions scripts the resolution UI: ok, canceled, dispatch_error
	// or pending.
	Resolutions []string `mapstructure:"resolutions"`
	// AutoDismiss closes blocking error dialogs as soon as they appear.
	AutoDismiss bool `mapstructure:"auto_dismiss"`
	// ShareInstalled controls whether the preferred share target exists.
	ShareInstalled bool `mapstructure:"share_installed"`

	Steps []Step `mapstructure:"steps"`
}

// Step is one host or game event. A bare string in YAML is shorthand for
// a step with only an action.
type Step struct {
	Action string `mapstructure:"action"`

	// result
	Request string `mapstructure:"request"`
	Result  string `mapstructure:"result"`
	// suspend
	Cause int `mapstructure:"cause"`
	// connect: outcome appended to the client script
	Outcome string `mapstructure:"outcome"`
	// score
	Score int64 `mapstructure:"score"`
	// tweet
	Text  string `mapstructure:"text"`
	Image string `mapstructure:"image"`
	// banner
	Visible bool `mapstructure:"visible"`

	// Expectations checked after the step settles.
	ExpectPhase     string `mapstructure:"expect_phase"`
	ExpectResolving *bool  `mapstructure:"expect_resolving"`
}

func (s Step) String() string {
	switch s.Action {
	case ActionResult:
		return fmt.Sprintf("result request=%s result=%s", s.Request, s.Result)
	case ActionSuspend:
		return fmt.Sprintf("suspend cause=%d", s.Cause)
	case ActionConnect:
		return "connect script += " + s.Outcome
	case ActionScore:
		return fmt.Sprintf("score %d", s.Score)
	case ActionTweet:
		if s.Image != "" {
			return fmt.Sprintf("tweet %q image=%s", s.Text, s.Image)
		}
		return fmt.Sprintf("tweet %q", s.Text)
	case ActionBanner:
		return fmt.Sprintf("banner visible=%t", s.Visible)
	default:
		return s.Action
	}
}

// ResultCode returns the step's activity result code. "ok" and "canceled"
// map to the platform values; anything else must be an integer.
func (s Step) ResultCode() (int, error) {
	switch strings.ToLower(strings.TrimSpace(s.Result)) {
	case "ok":
		return session.ResultOK, nil
	case "canceled", "cancelled":
		return session.ResultCanceled, nil
	}
	code, err := cast.ToIntE(strings.TrimSpace(s.Result))
	if err != nil {
		return 0, fmt.Errorf("result %q is not ok, canceled or an integer", s.Result)
	}
	return code, nil
}

// RequestCode resolves the step's request code. "resolve" and
// "leaderboard" name the configured codes.
func (s Step) RequestCode(resolve, leaderboard int) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s.Request)) {
	case RequestResolve:
		return resolve, nil
	case RequestLeaderboard:
		return leaderboard, nil
	}
	code, err := cast.ToIntE(strings.TrimSpace(s.Request))
	if err != nil {
		return 0, fmt.Errorf("request %q is not resolve, leaderboard or an integer", s.Request)
	}
	return code, nil
}

// Load reads a scenario from a YAML file on the OS filesystem.
func Load(path string) (*Scenario, error) {
	return LoadFS(afero.NewOsFs(), path)
}

// LoadFS reads a scenario from a YAML file on fs.
func LoadFS(fs afero.Fs, path string) (*Scenario, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing scenario file: %w", err)
	}
	if raw == nil {
		return nil, errors.New("parsing scenario file: document is empty")
	}

	var sc Scenario
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stepShorthandHook,
			connectShorthandHook,
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &sc,
	})
	if err != nil {
		return nil, fmt.Errorf("creating scenario decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}

	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// Validate checks that every step can be executed.
func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return errors.New("scenario has no steps")
	}
	for i, o := range sc.Connect {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("connect[%d]: %w", i, err)
		}
	}
	for i, r := range sc.Resolutions {
		if !slices.Contains(simulator.ValidResolutionOutcomes(), r) {
			return fmt.Errorf("resolutions[%d]: unknown outcome %q (valid: %s)",
				i, r, strings.Join(simulator.ValidResolutionOutcomes(), ", "))
		}
	}
	for i, s := range sc.Steps {
		if err := s.validate(); err != nil {
			return fmt.Errorf("steps[%d] (%s): %w", i, s.Action, err)
		}
	}
	return nil
}

func (s Step) validate() error {
	if !slices.Contains(validActions, s.Action) {
		return fmt.Errorf("unknown action (valid: %s)", strings.Join(validActions, ", "))
	}
	switch s.Action {
	case ActionResult:
		if s.Request == "" {
			return errors.New("request is required")
		}
		if s.Result == "" {
			return errors.New("result is required")
		}
		if _, err := s.ResultCode(); err != nil {
			return err
		}
		if _, err := s.RequestCode(0, 0); err != nil {
			return err
		}
	case ActionConnect:
		if _, err := simulator.ParseConnectOutcome(s.Outcome); err != nil {
			return err
		}
	case ActionTweet:
		if s.Text == "" {
			return errors.New("text is required")
		}
	}
	if s.ExpectPhase != "" && !slices.Contains(validPhases(), s.ExpectPhase) {
		return fmt.Errorf("expect_phase %q is not a phase (valid: %s)", s.ExpectPhase, strings.Join(validPhases(), ", "))
	}
	return nil
}

func validPhases() []string {
	return []string{
		string(session.PhaseDisconnected),
		string(session.PhaseConnecting),
		string(session.PhaseConnected),
		string(session.PhaseResolvingError),
	}
}

func stepShorthandHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(Step{}) {
		return data, nil
	}
	if s, ok := data.(string); ok {
		return map[string]any{"action": s}, nil
	}
	return data, nil
}

func connectShorthandHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(simulator.ConnectOutcome{}) {
		return data, nil
	}
	s, ok := data.(string)
	if !ok {
		return data, nil
	}
	o, err := simulator.ParseConnectOutcome(s)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"kind":           o.Kind,
		"has_resolution": o.HasResolution,
		"error_code":     o.ErrorCode,
		"cause":          o.Cause,
	}, nil
}
