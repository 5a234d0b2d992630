// Package event provides a pub-sub event bus for decoupled communication
// between playbridge components.
//
// The session manager, share builder, leaderboard and ad banner publish
// events describing what they did; the host glue, the scenario runner and
// the CLI subscribe to them. Publishers never know who is listening.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Session:
//   - [PhaseChangedEvent], [ConnectRequestedEvent], [DisconnectRequestedEvent]
//   - [RecoveryRequestedEvent], [RecoveryClearedEvent]
//
// Share:
//   - [ShareBuiltEvent], [ShareDispatchedEvent]
//
// Leaderboard:
//   - [ScoreSubmittedEvent], [LeaderboardOpenedEvent], [LeaderboardSkippedEvent]
//
// Ads and host:
//   - [BannerVisibilityEvent], [ActivityResultEvent]
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called
// synchronously on the publishing goroutine and are protected against
// panics: a panicking handler will not prevent other handlers from being
// called.
//
// # Basic Usage
//
//	bus := event.NewBus(event.WithBusLogger(logger))
//
//	bus.Subscribe(event.TypePhaseChanged, func(e event.Event) {
//	    changed := e.(event.PhaseChangedEvent)
//	    fmt.Println(changed.From, "->", changed.To)
//	})
//
//	bus.SubscribeAll(func(e event.Event) {
//	    fmt.Println(event.Describe(e))
//	})
package event
