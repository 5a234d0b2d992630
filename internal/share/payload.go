package share

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Payload is the content handed to a share target. It is immutable once
// built; use the accessors to read it.
type Payload struct {
	id        string
	text      string
	imageURI  string
	imageType string
	linkURL   string
}

func newPayload(text, linkURL string) Payload {
	return Payload{
		id:      uuid.NewString(),
		text:    text,
		linkURL: linkURL,
	}
}

// withImage returns a copy of p carrying a staged image.
func (p Payload) withImage(uri, sourcePath string) Payload {
	p.imageURI = uri
	p.imageType = imageType(sourcePath)
	return p
}

// ID identifies the payload in logs and events.
func (p Payload) ID() string { return p.id }

// Text is the share text, NFC-normalised.
func (p Payload) Text() string { return p.text }

// ImageURI is the staged image URI, or "" for a text-only share.
func (p Payload) ImageURI() string { return p.imageURI }

// ImageType is the MIME type of the staged image, or "".
func (p Payload) ImageType() string { return p.imageType }

// LinkURL is the optional link attached to the share, or "".
func (p Payload) LinkURL() string { return p.linkURL }

// HasImage reports whether an image was staged.
func (p Payload) HasImage() bool { return p.imageURI != "" }

// Request is a dispatchable share: the payload, the preferred target and
// the text-only web URL used when that target is absent.
type Request struct {
	Payload       Payload
	TargetPackage string
	FallbackURL   string
}

// imageType derives the MIME type from the file extension.
func imageType(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "":
		return "image/*"
	case "jpg":
		return "image/jpeg"
	default:
		return "image/" + ext
	}
}
