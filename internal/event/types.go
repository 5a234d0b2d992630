// Package event defines event types for decoupling playbridge components.
// The session manager, share builder, leaderboard and ad banner publish
// these so the host, the scenario runner and the CLI can observe them.
package event

import (
	"fmt"
	"time"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "session.phase_changed").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypePhaseChanged        = "session.phase_changed"
	TypeConnectRequested    = "session.connect_requested"
	TypeDisconnectRequested = "session.disconnect_requested"
	TypeRecoveryRequested   = "session.recovery_requested"
	TypeRecoveryCleared     = "session.recovery_cleared"

	TypeShareBuilt      = "share.built"
	TypeShareDispatched = "share.dispatched"

	TypeScoreSubmitted     = "leaderboard.score_submitted"
	TypeLeaderboardOpened  = "leaderboard.opened"
	TypeLeaderboardSkipped = "leaderboard.skipped"

	TypeBannerVisibility = "ads.visibility_changed"

	TypeActivityResult = "host.activity_result"
)

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Session Events
// -----------------------------------------------------------------------------

// PhaseChangedEvent is emitted when the session phase transitions.
type PhaseChangedEvent struct {
	baseEvent
	From           string
	To             string
	ResolvingError bool
}

// NewPhaseChangedEvent creates a PhaseChangedEvent.
func NewPhaseChangedEvent(from, to string, resolving bool) PhaseChangedEvent {
	return PhaseChangedEvent{
		baseEvent:      newBaseEvent(TypePhaseChanged),
		From:           from,
		To:             to,
		ResolvingError: resolving,
	}
}

// ConnectRequestedEvent is emitted each time the manager asks the client to
// connect.
type ConnectRequestedEvent struct {
	baseEvent
	Attempt int
	Reason  string // "host_started", "suspended", "dispatch_failed", "resolved"
}

// NewConnectRequestedEvent creates a ConnectRequestedEvent.
func NewConnectRequestedEvent(attempt int, reason string) ConnectRequestedEvent {
	return ConnectRequestedEvent{
		baseEvent: newBaseEvent(TypeConnectRequested),
		Attempt:   attempt,
		Reason:    reason,
	}
}

// DisconnectRequestedEvent is emitted when the host stops.
type DisconnectRequestedEvent struct {
	baseEvent
}

// NewDisconnectRequestedEvent creates a DisconnectRequestedEvent.
func NewDisconnectRequestedEvent() DisconnectRequestedEvent {
	return DisconnectRequestedEvent{baseEvent: newBaseEvent(TypeDisconnectRequested)}
}

// RecoveryRequestedEvent is emitted when a user-mediated recovery flow starts.
type RecoveryRequestedEvent struct {
	baseEvent
	RecoveryID  string
	Kind        string // "resolution_ui" or "error_dialog"
	ErrorCode   int
	RequestCode int
}

// NewRecoveryRequestedEvent creates a RecoveryRequestedEvent.
func NewRecoveryRequestedEvent(id, kind string, errorCode, requestCode int) RecoveryRequestedEvent {
	return RecoveryRequestedEvent{
		baseEvent:   newBaseEvent(TypeRecoveryRequested),
		RecoveryID:  id,
		Kind:        kind,
		ErrorCode:   errorCode,
		RequestCode: requestCode,
	}
}

// RecoveryClearedEvent is emitted when the outstanding recovery flow ends.
type RecoveryClearedEvent struct {
	baseEvent
	RecoveryID string
	Outcome    string // "ok", "canceled", "dismissed", "connected"
}

// NewRecoveryClearedEvent creates a RecoveryClearedEvent.
func NewRecoveryClearedEvent(id, outcome string) RecoveryClearedEvent {
	return RecoveryClearedEvent{
		baseEvent:  newBaseEvent(TypeRecoveryCleared),
		RecoveryID: id,
		Outcome:    outcome,
	}
}

// -----------------------------------------------------------------------------
// Share Events
// -----------------------------------------------------------------------------

// ShareBuiltEvent is emitted after a share payload has been assembled.
type ShareBuiltEvent struct {
	baseEvent
	PayloadID   string
	HasImage    bool
	StagingErr  string // empty unless staging was attempted and failed
	FallbackURL string
}

// NewShareBuiltEvent creates a ShareBuiltEvent.
func NewShareBuiltEvent(payloadID string, hasImage bool, stagingErr, fallbackURL string) ShareBuiltEvent {
	return ShareBuiltEvent{
		baseEvent:   newBaseEvent(TypeShareBuilt),
		PayloadID:   payloadID,
		HasImage:    hasImage,
		StagingErr:  stagingErr,
		FallbackURL: fallbackURL,
	}
}

// ShareDispatchedEvent is emitted once a payload reached a target.
type ShareDispatchedEvent struct {
	baseEvent
	PayloadID string
	Target    string // package name, or the fallback URL for browser dispatch
	Browser   bool
}

// NewShareDispatchedEvent creates a ShareDispatchedEvent.
func NewShareDispatchedEvent(payloadID, target string, browser bool) ShareDispatchedEvent {
	return ShareDispatchedEvent{
		baseEvent: newBaseEvent(TypeShareDispatched),
		PayloadID: payloadID,
		Target:    target,
		Browser:   browser,
	}
}

// -----------------------------------------------------------------------------
// Leaderboard Events
// -----------------------------------------------------------------------------

// ScoreSubmittedEvent is emitted when a score is handed to the service.
type ScoreSubmittedEvent struct {
	baseEvent
	LeaderboardID string
	Score         int64
}

// NewScoreSubmittedEvent creates a ScoreSubmittedEvent.
func NewScoreSubmittedEvent(leaderboardID string, score int64) ScoreSubmittedEvent {
	return ScoreSubmittedEvent{
		baseEvent:     newBaseEvent(TypeScoreSubmitted),
		LeaderboardID: leaderboardID,
		Score:         score,
	}
}

// LeaderboardOpenedEvent is emitted when the leaderboard view is launched.
type LeaderboardOpenedEvent struct {
	baseEvent
	LeaderboardID string
	RequestCode   int
}

// NewLeaderboardOpenedEvent creates a LeaderboardOpenedEvent.
func NewLeaderboardOpenedEvent(leaderboardID string, requestCode int) LeaderboardOpenedEvent {
	return LeaderboardOpenedEvent{
		baseEvent:     newBaseEvent(TypeLeaderboardOpened),
		LeaderboardID: leaderboardID,
		RequestCode:   requestCode,
	}
}

// LeaderboardSkippedEvent is emitted when a leaderboard call was dropped
// because the session is not connected.
type LeaderboardSkippedEvent struct {
	baseEvent
	Action string // "submit" or "open"
}

// NewLeaderboardSkippedEvent creates a LeaderboardSkippedEvent.
func NewLeaderboardSkippedEvent(action string) LeaderboardSkippedEvent {
	return LeaderboardSkippedEvent{
		baseEvent: newBaseEvent(TypeLeaderboardSkipped),
		Action:    action,
	}
}

// -----------------------------------------------------------------------------
// Ads and Host Events
// -----------------------------------------------------------------------------

// BannerVisibilityEvent is emitted after the banner view changed visibility.
type BannerVisibilityEvent struct {
	baseEvent
	Visible bool
}

// NewBannerVisibilityEvent creates a BannerVisibilityEvent.
func NewBannerVisibilityEvent(visible bool) BannerVisibilityEvent {
	return BannerVisibilityEvent{
		baseEvent: newBaseEvent(TypeBannerVisibility),
		Visible:   visible,
	}
}

// ActivityResultEvent is emitted for every activity result the host routes.
type ActivityResultEvent struct {
	baseEvent
	RequestCode int
	ResultCode  int
	Consumer    string // "session", "leaderboard" or "" when dropped
}

// NewActivityResultEvent creates an ActivityResultEvent.
func NewActivityResultEvent(requestCode, resultCode int, consumer string) ActivityResultEvent {
	return ActivityResultEvent{
		baseEvent:   newBaseEvent(TypeActivityResult),
		RequestCode: requestCode,
		ResultCode:  resultCode,
		Consumer:    consumer,
	}
}

// Describe renders a one-line, human-readable summary of e.
func Describe(e Event) string {
	switch ev := e.(type) {
	case PhaseChangedEvent:
		return fmt.Sprintf("phase %s -> %s (resolving=%t)", ev.From, ev.To, ev.ResolvingError)
	case ConnectRequestedEvent:
		return fmt.Sprintf("connect #%d (%s)", ev.Attempt, ev.Reason)
	case DisconnectRequestedEvent:
		return "disconnect"
	case RecoveryRequestedEvent:
		return fmt.Sprintf("recovery %s code=%d request=%d", ev.Kind, ev.ErrorCode, ev.RequestCode)
	case RecoveryClearedEvent:
		return fmt.Sprintf("recovery cleared (%s)", ev.Outcome)
	case ShareBuiltEvent:
		if ev.StagingErr != "" {
			return fmt.Sprintf("share built text-only, staging failed: %s", ev.StagingErr)
		}
		return fmt.Sprintf("share built image=%t", ev.HasImage)
	case ShareDispatchedEvent:
		if ev.Browser {
			return "share opened in browser: " + ev.Target
		}
		return "share sent to " + ev.Target
	case ScoreSubmittedEvent:
		return fmt.Sprintf("score %d submitted to %s", ev.Score, ev.LeaderboardID)
	case LeaderboardOpenedEvent:
		return "leaderboard " + ev.LeaderboardID + " opened"
	case LeaderboardSkippedEvent:
		return "leaderboard " + ev.Action + " skipped: not connected"
	case BannerVisibilityEvent:
		return fmt.Sprintf("banner visible=%t", ev.Visible)
	case ActivityResultEvent:
		consumer := ev.Consumer
		if consumer == "" {
			consumer = "dropped"
		}
		return fmt.Sprintf("activity result request=%d result=%d -> %s", ev.RequestCode, ev.ResultCode, consumer)
	default:
		return e.EventType()
	}
}
