// Package errors provides centralized error definitions and error handling
// utilities for playbridge. It defines the sentinel errors raised by the
// platform collaborators, the domain error types for the identity session and
// the share flow, and classification helpers used to decide between retrying
// and degrading a feature.
//
// # Error Types
//
//   - ConnectionError: a failure reported by the identity/leaderboard client.
//     Its Kind drives recovery: transient errors are retried immediately,
//     resolvable errors start a single resolution flow, terminal errors show a
//     single blocking dialog.
//   - ShareError: a failure while staging an image or dispatching a share.
//     Staging failures degrade to a text-only share, a missing target falls
//     back to the browser.
//
// # Usage
//
//	err := errors.NewConnectionError(errors.KindResolvable, 4, errors.ErrResolutionDispatch)
//	if errors.IsRetryable(err) { ... }
//
//	var shareErr *errors.ShareError
//	if errors.As(err, &shareErr) && shareErr.Stage == errors.StageStaging { ... }
//
// No error defined here is fatal to the hosting process.
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Session-related sentinel errors
var (
	// ErrNotConnected indicates that a leaderboard operation needed a
	// connected session.
	ErrNotConnected = New("session not connected")
	// ErrResolutionDispatch indicates that the host could not start the
	// resolution UI.
	ErrResolutionDispatch = New("resolution UI could not be started")
	// ErrConnectionSuspended indicates that the client dropped a live
	// connection.
	ErrConnectionSuspended = New("connection suspended")
	// ErrNoResolution indicates a connection failure with no user-mediated fix.
	ErrNoResolution = New("connection failure has no resolution")
)

// Share-related sentinel errors
var (
	// ErrSourceMissing indicates that the image to stage does not exist.
	ErrSourceMissing = New("share image not found")
	// ErrStagingFailed indicates that the image could not be copied to a
	// location readable by the share target.
	ErrStagingFailed = New("share image staging failed")
	// ErrTargetNotInstalled indicates that the designated share target
	// package is not installed.
	ErrTargetNotInstalled = New("share target not installed")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// BridgeError is the base interface for all playbridge errors.
type BridgeError interface {
	error

	Unwrap() error
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error is surfaced to the player
	// through a dialog or prompt.
	IsUserFacing() bool
}

type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error { return e.cause }

func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

func (e *baseError) Severity() Severity { return e.severity }
func (e *baseError) IsRetryable() bool  { return e.retryable }
func (e *baseError) IsUserFacing() bool { return e.userFacing }

// -----------------------------------------------------------------------------
// Connection Errors
// -----------------------------------------------------------------------------

// ConnectionKind classifies an identity-service connection failure.
type ConnectionKind int

const (
	// KindTransient failures (suspension, resolution dispatch failure) are
	// retried with an immediate reconnect.
	KindTransient ConnectionKind = iota
	// KindResolvable failures start exactly one resolution UI flow.
	KindResolvable
	// KindTerminal failures show exactly one blocking error dialog.
	KindTerminal
)

// String returns the string representation of the kind.
func (k ConnectionKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindResolvable:
		return "resolvable"
	case KindTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// ConnectionError represents a failure reported by the identity/leaderboard
// client.
//
// Example:
//
//	err := errors.NewConnectionError(errors.KindTerminal, 7, errors.ErrNoResolution)
//	fmt.Println(err) // "connection error [kind=terminal, code=7]: no resolution available: connection failure has no resolution"
type ConnectionError struct {
	baseError
	Kind      ConnectionKind
	ErrorCode int
}

// NewConnectionError creates a ConnectionError. Transient errors are
// retryable; terminal errors are user-facing through the blocking dialog.
func NewConnectionError(kind ConnectionKind, errorCode int, cause error) *ConnectionError {
	severity := SeverityWarning
	if kind == KindTerminal {
		severity = SeverityError
	}
	return &ConnectionError{
		baseError: baseError{
			message:    connectionMessage(kind),
			cause:      cause,
			severity:   severity,
			retryable:  kind == KindTransient,
			userFacing: kind != KindTransient,
		},
		Kind:      kind,
		ErrorCode: errorCode,
	}
}

func connectionMessage(kind ConnectionKind) string {
	switch kind {
	case KindTransient:
		return "connection interrupted, reconnecting"
	case KindResolvable:
		return "connection needs user resolution"
	default:
		return "no resolution available"
	}
}

// WithMessage overrides the default message for the kind.
func (e *ConnectionError) WithMessage(msg string) *ConnectionError {
	e.message = msg
	return e
}

// Error returns the formatted error message.
func (e *ConnectionError) Error() string {
	prefix := fmt.Sprintf("connection error [kind=%s, code=%d]", e.Kind, e.ErrorCode)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ConnectionError) Is(target error) bool {
	if _, ok := target.(*ConnectionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Share Errors
// -----------------------------------------------------------------------------

// ShareStage identifies which step of a share failed.
type ShareStage string

const (
	StageStaging  ShareStage = "staging"
	StageDispatch ShareStage = "dispatch"
)

// ShareError represents a failure while preparing or dispatching a share.
//
// Example:
//
//	err := errors.NewShareError(errors.StageStaging, "copy failed", errors.ErrStagingFailed).WithPath("/tmp/shot.png")
type ShareError struct {
	baseError
	Stage  ShareStage
	Path   string
	Target string
}

// NewShareError creates a new ShareError. Share errors are never surfaced to
// the player; the share degrades instead.
func NewShareError(stage ShareStage, message string, cause error) *ShareError {
	return &ShareError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityWarning,
		},
		Stage: stage,
	}
}

// WithPath records the file involved in a staging failure.
func (e *ShareError) WithPath(path string) *ShareError {
	e.Path = path
	return e
}

// WithTarget records the share target package.
func (e *ShareError) WithTarget(target string) *ShareError {
	e.Target = target
	return e
}

// WithSeverity sets the error severity.
func (e *ShareError) WithSeverity(s Severity) *ShareError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *ShareError) Error() string {
	prefix := fmt.Sprintf("share error [stage=%s", e.Stage)
	if e.Path != "" {
		prefix += ", path=" + e.Path
	}
	if e.Target != "" {
		prefix += ", target=" + e.Target
	}
	prefix += "]"

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ShareError) Is(target error) bool {
	if _, ok := target.(*ShareError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that is handled by an immediate reconnect.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var bridgeErr BridgeError
	if As(err, &bridgeErr) {
		return bridgeErr.IsRetryable()
	}

	return Is(err, ErrConnectionSuspended) || Is(err, ErrResolutionDispatch)
}

// IsUserFacing returns true if the error is shown to the player.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var bridgeErr BridgeError
	if As(err, &bridgeErr) {
		return bridgeErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement BridgeError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var bridgeErr BridgeError
	if As(err, &bridgeErr) {
		return bridgeErr.Severity()
	}
	return SeverityError
}

// IsDegradable returns true if the error should reduce a feature rather than
// abort it: staging failures and a missing share target.
func IsDegradable(err error) bool {
	if err == nil {
		return false
	}
	return Is(err, ErrStagingFailed) || Is(err, ErrSourceMissing) || Is(err, ErrTargetNotInstalled)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
