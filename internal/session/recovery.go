package session

import (
	"fmt"

	"github.com/google/uuid"
)

// RecoveryKind identifies which user-facing recovery UI a failure needs.
type RecoveryKind string

const (
	// KindResolutionUI asks the host to start the service's resolution
	// flow (e.g. a sign-in prompt).
	KindResolutionUI RecoveryKind = "resolution_ui"
	// KindErrorDialog asks the host to show a blocking error dialog.
	KindErrorDialog RecoveryKind = "error_dialog"
)

// RecoveryAction is the decision taken by the Manager after a connection
// failure. The Manager decides; a Launcher carries it out.
type RecoveryAction struct {
	Kind        RecoveryKind
	ErrorCode   int
	RequestCode int
	// ID correlates log lines and events belonging to one flow.
	ID string
}

// StartResolutionUI returns a recovery action that starts the resolution UI.
func StartResolutionUI(errorCode, requestCode int) RecoveryAction {
	return RecoveryAction{
		Kind:        KindResolutionUI,
		ErrorCode:   errorCode,
		RequestCode: requestCode,
		ID:          uuid.NewString(),
	}
}

// ShowBlockingDialog returns a recovery action that shows an error dialog.
func ShowBlockingDialog(errorCode, requestCode int) RecoveryAction {
	return RecoveryAction{
		Kind:        KindErrorDialog,
		ErrorCode:   errorCode,
		RequestCode: requestCode,
		ID:          uuid.NewString(),
	}
}

func (a RecoveryAction) String() string {
	return fmt.Sprintf("%s(code=%d, request=%d)", a.Kind, a.ErrorCode, a.RequestCode)
}

// Execute hands the action to launcher. Only the resolution UI can fail;
// the dialog reports back through OnResolutionDialogDismissed.
func (a RecoveryAction) Execute(launcher Launcher) error {
	switch a.Kind {
	case KindResolutionUI:
		return launcher.StartResolution(a.ErrorCode, a.RequestCode)
	case KindErrorDialog:
		launcher.ShowErrorDialog(a.ErrorCode, a.RequestCode)
		return nil
	default:
		return fmt.Errorf("unknown recovery kind %q", a.Kind)
	}
}
