// Package ads controls the ad banner. The banner view belongs to the host
// UI, so every change is posted onto the host's sequencing context no
// matter which goroutine asked for it.
package ads

import (
	"sync"

	"github.com/toritoma/playbridge/internal/event"
	"github.com/toritoma/playbridge/internal/logging"
)

// View is the ad SDK's banner view.
type View interface {
	Load(unitID string)
	SetVisible(visible bool)
}

// Poster runs fn on the host's sequencing context. It returns false if fn
// was dropped because the context has stopped.
type Poster interface {
	Post(fn func()) bool
}

// Banner toggles the ad banner.
type Banner struct {
	view   View
	poster Poster
	unitID string

	mu      sync.Mutex
	visible bool

	logger *logging.Logger
	bus    *event.Bus
}

// Option configures a Banner.
type Option func(*Banner)

// WithUnitID sets the ad unit loaded into the view.
func WithUnitID(id string) Option {
	return func(b *Banner) { b.unitID = id }
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *logging.Logger) Option {
	return func(b *Banner) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBus publishes visibility changes on bus.
func WithBus(bus *event.Bus) Option {
	return func(b *Banner) { b.bus = bus }
}

// NewBanner creates a hidden Banner.
func NewBanner(view View, poster Poster, opts ...Option) *Banner {
	b := &Banner{
		view:   view,
		poster: poster,
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.WithPhase("ads")
	return b
}

// Load requests an ad for the configured unit.
func (b *Banner) Load() {
	b.post("load", func() {
		b.view.Load(b.unitID)
		b.logger.Debug("ad requested", "unit_id", b.unitID)
	})
}

// Show makes the banner visible.
func (b *Banner) Show() { b.SetVisible(true) }

// Hide hides the banner.
func (b *Banner) Hide() { b.SetVisible(false) }

// SetVisible changes the banner visibility. Safe to call from any goroutine.
func (b *Banner) SetVisible(visible bool) {
	b.post("set_visible", func() {
		b.view.SetVisible(visible)

		b.mu.Lock()
		changed := b.visible != visible
		b.visible = visible
		b.mu.Unlock()

		if changed {
			b.logger.Debug("banner visibility changed", "visible", visible)
			if b.bus != nil {
				b.bus.Publish(event.NewBannerVisibilityEvent(visible))
			}
		}
	})
}

// Visible reports the visibility last applied to the view.
func (b *Banner) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

func (b *Banner) post(op string, fn func()) {
	if !b.poster.Post(fn) {
		b.logger.Warn("banner update dropped: host loop stopped", "op", op)
	}
}
