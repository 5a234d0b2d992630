package ads

import (
	"sync"
	"testing"

	"github.com/toritoma/playbridge/internal/event"
)

type queuePoster struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool
}

func (p *queuePoster) Post(fn func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	p.queue = append(p.queue, fn)
	return true
}

func (p *queuePoster) run() {
	p.mu.Lock()
	queue := p.queue
	p.queue = nil
	p.mu.Unlock()
	for _, fn := range queue {
		fn()
	}
}

type recordingView struct {
	loads   []string
	changes []bool
}

func (v *recordingView) Load(unitID string)      { v.loads = append(v.loads, unitID) }
func (v *recordingView) SetVisible(visible bool) { v.changes = append(v.changes, visible) }

func TestBanner_RedispatchesOntoPoster(t *testing.T) {
	view := &recordingView{}
	poster := &queuePoster{}
	b := NewBanner(view, poster, WithUnitID("unit-1"))

	b.Load()
	b.Show()

	if len(view.loads) != 0 || len(view.changes) != 0 {
		t.Fatal("view must not be touched outside the poster")
	}
	if b.Visible() {
		t.Error("Visible() should be false until the change is applied")
	}

	poster.run()

	if len(view.loads) != 1 || view.loads[0] != "unit-1" {
		t.Errorf("loads = %v, want [unit-1]", view.loads)
	}
	if len(view.changes) != 1 || !view.changes[0] {
		t.Errorf("changes = %v, want [true]", view.changes)
	}
	if !b.Visible() {
		t.Error("Visible() should be true after the change is applied")
	}
}

func TestBanner_FromManyGoroutines(t *testing.T) {
	view := &recordingView{}
	poster := &queuePoster{}
	b := NewBanner(view, poster)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			b.SetVisible(i%2 == 0)
		})
	}
	wg.Wait()
	poster.run()

	if len(view.changes) != 20 {
		t.Errorf("expected 20 view updates, got %d", len(view.changes))
	}
}

func TestBanner_PublishesOnlyChanges(t *testing.T) {
	bus := event.NewBus()
	var got []bool
	bus.Subscribe(event.TypeBannerVisibility, func(e event.Event) {
		got = append(got, e.(event.BannerVisibilityEvent).Visible)
	})

	poster := &queuePoster{}
	b := NewBanner(&recordingView{}, poster, WithBus(bus))
	b.Show()
	b.Show()
	b.Hide()
	poster.run()

	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("visibility events = %v, want [true false]", got)
	}
}

func TestBanner_DroppedAfterStop(t *testing.T) {
	view := &recordingView{}
	poster := &queuePoster{stopped: true}
	b := NewBanner(view, poster)

	b.Show()
	poster.run()

	if len(view.changes) != 0 || b.Visible() {
		t.Error("updates posted after stop must be dropped")
	}
}
