package simulator

import (
	"fmt"
	"sync"

	"github.com/toritoma/playbridge/internal/errors"
	"github.com/toritoma/playbridge/internal/logging"
	"github.com/toritoma/playbridge/internal/session"
)

// Resolution outcomes for the scripted resolution UI.
const (
	ResolutionOK            = "ok"
	ResolutionCanceled      = "canceled"
	ResolutionDispatchError = "dispatch_error"
	// ResolutionPending leaves the UI open until a result is delivered by
	// hand.
	ResolutionPending = "pending"
)

// ValidResolutionOutcomes returns the accepted resolution outcome names.
func ValidResolutionOutcomes() []string {
	return []string{ResolutionOK, ResolutionCanceled, ResolutionDispatchError, ResolutionPending}
}

// ResultSink receives what the simulated UIs produce. host.Activity
// implements it.
type ResultSink interface {
	ActivityResult(requestCode, resultCode int)
	DialogDismissed()
}

// Prompter asks a person instead of following the script.
type Prompter interface {
	// Resolve shows the resolution UI for errorCode and returns the
	// activity result code.
	Resolve(errorCode int) (int, error)
	// Dialog shows the blocking error dialog and returns once it is
	// dismissed.
	Dialog(errorCode int) error
}

// Launcher is a scripted session.Launcher.
type Launcher struct {
	logger *logging.Logger

	mu          sync.Mutex
	sink        ResultSink
	prompter    Prompter
	outcomes    []string
	autoDismiss bool
	resolutions []int
	dialogs     []int
}

// NewLauncher creates a Launcher that answers resolution requests with
// outcomes in order; once they run out the UI reports ok. Blocking dialogs
// stay up until dismissed unless autoDismiss is set.
func NewLauncher(outcomes []string, autoDismiss bool, logger *logging.Logger) *Launcher {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Launcher{
		outcomes:    append([]string(nil), outcomes...),
		autoDismiss: autoDismiss,
		logger:      logger.WithPhase("sim-launcher"),
	}
}

// Bind sets where results are delivered. It must be called before the
// first recovery is launched.
func (l *Launcher) Bind(sink ResultSink) {
	l.mu.Lock()
	l.sink = sink
	l.mu.Unlock()
}

// SetPrompter switches the launcher to interactive mode. A nil prompter
// returns to the script.
func (l *Launcher) SetPrompter(p Prompter) {
	l.mu.Lock()
	l.prompter = p
	l.mu.Unlock()
}

// StartResolution implements session.Launcher.
func (l *Launcher) StartResolution(errorCode, requestCode int) error {
	l.mu.Lock()
	l.resolutions = append(l.resolutions, errorCode)
	sink, prompter := l.sink, l.prompter
	outcome := ResolutionOK
	if prompter == nil && len(l.outcomes) > 0 {
		outcome = l.outcomes[0]
		l.outcomes = l.outcomes[1:]
	}
	l.mu.Unlock()

	if sink == nil {
		return errors.Join(errors.ErrResolutionDispatch, errors.New("launcher is not bound to a host"))
	}

	if prompter != nil {
		result, err := prompter.Resolve(errorCode)
		if err != nil {
			return errors.Join(errors.ErrResolutionDispatch, err)
		}
		sink.ActivityResult(requestCode, result)
		return nil
	}

	l.logger.Debug("resolution UI started", "error_code", errorCode, "outcome", outcome)
	switch outcome {
	case ResolutionOK:
		sink.ActivityResult(requestCode, session.ResultOK)
	case ResolutionCanceled:
		sink.ActivityResult(requestCode, session.ResultCanceled)
	case ResolutionDispatchError:
		return fmt.Errorf("%w: scripted dispatch error for code %d", errors.ErrResolutionDispatch, errorCode)
	case ResolutionPending:
		// Delivered later through the sink by whoever drives the run.
	default:
		return fmt.Errorf("%w: unknown scripted outcome %q", errors.ErrResolutionDispatch, outcome)
	}
	return nil
}

// ShowErrorDialog implements session.Launcher.
func (l *Launcher) ShowErrorDialog(errorCode, _ int) {
	l.mu.Lock()
	l.dialogs = append(l.dialogs, errorCode)
	sink, prompter, auto := l.sink, l.prompter, l.autoDismiss
	l.mu.Unlock()

	l.logger.Debug("error dialog shown", "error_code", errorCode)
	if sink == nil {
		return
	}
	if prompter != nil {
		if err := prompter.Dialog(errorCode); err != nil {
			l.logger.Warn("error dialog prompt failed", "error", err.Error())
		}
		sink.DialogDismissed()
		return
	}
	if auto {
		sink.DialogDismissed()
	}
}

// Resolutions returns the error codes resolution UIs were started for.
func (l *Launcher) Resolutions() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.resolutions...)
}

// Dialogs returns the error codes blocking dialogs were shown for.
func (l *Launcher) Dialogs() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.dialogs...)
}
