package share

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/toritoma/playbridge/internal/errors"
	"github.com/toritoma/playbridge/internal/event"
	"github.com/toritoma/playbridge/internal/logging"
)

// Defaults for the preferred share target.
const (
	DefaultTargetPackage = "com.twitter.android"
	DefaultWebShareURL   = "http://twitter.com/share"
)

// Builder assembles share requests and dispatches them, degrading to a
// text-only share or a browser page when the image or the target is
// unavailable. A Builder holds no per-share state.
type Builder struct {
	stager     Stager
	dispatcher Dispatcher

	targetPackage string
	webShareURL   string

	logger      *logging.Logger
	bus         *event.Bus
	diagnostics func(error)
}

// Option configures a Builder.
type Option func(*Builder)

// WithTargetPackage sets the preferred share target package.
func WithTargetPackage(pkg string) Option {
	return func(b *Builder) { b.targetPackage = pkg }
}

// WithWebShareURL sets the browser share endpoint.
func WithWebShareURL(u string) Option {
	return func(b *Builder) { b.webShareURL = u }
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *logging.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBus publishes share events on bus.
func WithBus(bus *event.Bus) Option {
	return func(b *Builder) { b.bus = bus }
}

// WithDiagnostics registers fn to observe staging failures that are
// otherwise swallowed.
func WithDiagnostics(fn func(error)) Option {
	return func(b *Builder) { b.diagnostics = fn }
}

// NewBuilder creates a Builder. stager may be nil, in which case images are
// never attached.
func NewBuilder(stager Stager, dispatcher Dispatcher, opts ...Option) *Builder {
	b := &Builder{
		stager:        stager,
		dispatcher:    dispatcher,
		targetPackage: DefaultTargetPackage,
		webShareURL:   DefaultWebShareURL,
		logger:        logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.WithPhase("share")
	return b
}

// Build assembles a share request. It never fails: an empty imagePath means
// no image, and an image that cannot be staged leaves the payload
// text-only.
func (b *Builder) Build(text, linkURL, imagePath string) Request {
	text = norm.NFC.String(text)
	payload := newPayload(text, linkURL)

	var stagingErr error
	if imagePath != "" {
		payload, stagingErr = b.attachImage(payload, imagePath)
	}

	req := Request{
		Payload:       payload,
		TargetPackage: b.targetPackage,
		FallbackURL:   FallbackURL(b.webShareURL, text, linkURL),
	}

	errText := ""
	if stagingErr != nil {
		errText = stagingErr.Error()
	}
	b.publish(event.NewShareBuiltEvent(payload.ID(), payload.HasImage(), errText, req.FallbackURL))
	return req
}

func (b *Builder) attachImage(payload Payload, imagePath string) (Payload, error) {
	if b.stager == nil {
		return payload, nil
	}

	uri, err := b.stager.Stage(imagePath)
	if err != nil {
		b.logger.Warn("image staging failed, sharing text only",
			"payload_id", payload.ID(),
			"path", imagePath,
			"error", err.Error())
		if b.diagnostics != nil {
			b.diagnostics(err)
		}
		return payload, err
	}

	b.logger.Debug("image staged", "payload_id", payload.ID(), "uri", uri)
	return payload.withImage(uri, imagePath), nil
}

// Share builds a request and dispatches it to the preferred target,
// falling back to the browser when the target is not installed. The
// returned error is non-nil only when no dispatch succeeded.
func (b *Builder) Share(text, linkURL, imagePath string) (Request, error) {
	req := b.Build(text, linkURL, imagePath)
	id := req.Payload.ID()

	err := b.dispatcher.Dispatch(req.TargetPackage, req.Payload)
	if err == nil {
		b.logger.Info("share dispatched", "payload_id", id, "target", req.TargetPackage, "image", req.Payload.HasImage())
		b.publish(event.NewShareDispatchedEvent(id, req.TargetPackage, false))
		return req, nil
	}

	if !errors.Is(err, errors.ErrTargetNotInstalled) {
		shareErr := errors.NewShareError(errors.StageDispatch, "dispatch failed", err).WithTarget(req.TargetPackage)
		b.logger.Error("share dispatch failed", "payload_id", id, "error", shareErr.Error())
		return req, shareErr
	}

	b.logger.Info("share target not installed, opening browser",
		"payload_id", id,
		"target", req.TargetPackage,
		"url", req.FallbackURL)

	if err := b.dispatcher.DispatchToBrowser(req.FallbackURL); err != nil {
		shareErr := errors.NewShareError(errors.StageDispatch, "browser fallback failed", err).WithTarget(req.FallbackURL)
		b.logger.Error("share browser fallback failed", "payload_id", id, "error", shareErr.Error())
		return req, shareErr
	}

	b.publish(event.NewShareDispatchedEvent(id, req.FallbackURL, true))
	return req, nil
}

func (b *Builder) publish(e event.Event) {
	if b.bus != nil {
		b.bus.Publish(e)
	}
}

// FallbackURL returns the browser share URL for text and an optional link.
// Every reserved character is percent-encoded, so a hashtag's '#' becomes
// %23 instead of starting a fragment.
func FallbackURL(base, text, linkURL string) string {
	var sb strings.Builder
	sb.WriteString(base)
	if strings.Contains(base, "?") {
		sb.WriteByte('&')
	} else {
		sb.WriteByte('?')
	}
	sb.WriteString("text=")
	sb.WriteString(url.QueryEscape(text))
	if linkURL != "" {
		sb.WriteString("&url=")
		sb.WriteString(url.QueryEscape(linkURL))
	}
	return sb.String()
}
