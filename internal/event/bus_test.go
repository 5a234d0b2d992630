package event

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/toritoma/playbridge/internal/logging"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	bus.Subscribe("test.event", func(e Event) { calls++ })
	bus.Subscribe("test.event", func(e Event) { calls++ })

	if calls != 0 {
		t.Error("Handler should not be called until an event is published")
	}
	bus.Publish(newBaseEvent("test.event"))
	if calls != 2 {
		t.Errorf("Expected both handlers to run, got %d calls", calls)
	}
}

func TestBus_Publish(t *testing.T) {
	bus := NewBus()

	var received Event
	bus.Subscribe(TypePhaseChanged, func(e Event) {
		received = e
	})

	bus.Publish(NewPhaseChangedEvent("disconnected", "connecting", false))

	if received == nil {
		t.Fatal("Handler should have received the event")
	}
	changed, ok := received.(PhaseChangedEvent)
	if !ok {
		t.Fatalf("Expected PhaseChangedEvent, got %T", received)
	}
	if changed.From != "disconnected" || changed.To != "connecting" {
		t.Errorf("PhaseChangedEvent = %+v", changed)
	}
	if changed.Timestamp().IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestBus_PublishNoMatchingHandlers(t *testing.T) {
	bus := NewBus()

	bus.Subscribe("other.event", func(e Event) {
		t.Error("Handler should not be called for non-matching event type")
	})

	bus.Publish(newBaseEvent("test.event"))
}

func TestBus_SubscribeAllOrdering(t *testing.T) {
	bus := NewBus()

	var events []string
	bus.SubscribeAll(func(e Event) {
		events = append(events, "wildcard:"+e.EventType())
	})
	bus.Subscribe("specific.event", func(e Event) {
		events = append(events, "specific:"+e.EventType())
	})

	bus.Publish(newBaseEvent("specific.event"))
	bus.Publish(newBaseEvent("event.two"))

	want := []string{"specific:specific.event", "wildcard:specific.event", "wildcard:event.two"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestBus_HandlerPanicRecovery(t *testing.T) {
	var buf bytes.Buffer
	bus := NewBus(WithBusLogger(logging.NewWithWriter(&buf, logging.LevelError)))

	calls := 0
	bus.Subscribe("test.event", func(e Event) {
		calls++
		panic("handler panic")
	})
	bus.Subscribe("test.event", func(e Event) {
		calls++
	})

	bus.Publish(newBaseEvent("test.event"))

	if calls != 2 {
		t.Errorf("Expected both handlers to be called despite panic, got %d calls", calls)
	}
	if !strings.Contains(buf.String(), "event handler panicked") {
		t.Errorf("panic was not logged: %s", buf.String())
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	calls := 0
	bus.Subscribe("test.event", func(e Event) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			bus.Publish(newBaseEvent("test.event"))
		})
	}
	wg.Wait()

	if calls != 100 {
		t.Errorf("Expected 100 calls, got %d", calls)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"phase", NewPhaseChangedEvent("connecting", "connected", false), "phase connecting -> connected (resolving=false)"},
		{"connect", NewConnectRequestedEvent(2, "suspended"), "connect #2 (suspended)"},
		{"recovery", NewRecoveryRequestedEvent("id", "error_dialog", 7, 1001), "recovery error_dialog code=7 request=1001"},
		{"share fallback", NewShareDispatchedEvent("p", "https://x", true), "share opened in browser: https://x"},
		{"share staging failed", NewShareBuiltEvent("p", false, "missing", "u"), "share built text-only, staging failed: missing"},
		{"skipped", NewLeaderboardSkippedEvent("submit"), "leaderboard submit skipped: not connected"},
		{"dropped result", NewActivityResultEvent(5, 0, ""), "activity result request=5 result=0 -> dropped"},
		{"unknown", newBaseEvent("custom.thing"), "custom.thing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.event); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}
