package share

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/toritoma/playbridge/internal/errors"
)

func TestFileStager_Stage(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/game/shots/score.png", []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	stager := NewFileStager(fs, "/pictures")

	tests := []struct {
		name    string
		path    string
		wantURI string
	}{
		{"plain path", "/game/shots/score.png", "file:///pictures/score.png"},
		{"file uri", "file:///game/shots/score.png", "file:///pictures/score.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri, err := stager.Stage(tt.path)
			if err != nil {
				t.Fatalf("Stage() error = %v", err)
			}
			if uri != tt.wantURI {
				t.Errorf("Stage() = %q, want %q", uri, tt.wantURI)
			}
			data, err := afero.ReadFile(fs, "/pictures/score.png")
			if err != nil || string(data) != "img" {
				t.Errorf("staged content = %q, %v", data, err)
			}
		})
	}

	entries, err := afero.ReadDir(fs, "/pictures")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the staged image, found %d entries", len(entries))
	}
}

func TestFileStager_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/game/dir", 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		fs       afero.Fs
		path     string
		sentinel error
	}{
		{"missing source", fs, "/game/none.png", errors.ErrSourceMissing},
		{"directory source", fs, "/game/dir", errors.ErrStagingFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileStager(tt.fs, "/pictures").Stage(tt.path)
			if err == nil {
				t.Fatal("Stage() should fail")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("Stage() error = %v, want %v", err, tt.sentinel)
			}
			var shareErr *errors.ShareError
			if !errors.As(err, &shareErr) || shareErr.Stage != errors.StageStaging {
				t.Errorf("Stage() error should be a staging ShareError, got %T", err)
			}
		})
	}
}

func TestFileStager_ReadOnlyDestination(t *testing.T) {
	base := afero.NewMemMapFs()
	if err := afero.WriteFile(base, "/game/a.png", []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	ro := afero.NewReadOnlyFs(base)

	_, err := NewFileStager(ro, "/pictures").Stage("/game/a.png")
	if !errors.Is(err, errors.ErrStagingFailed) {
		t.Errorf("Stage() on read-only fs = %v, want ErrStagingFailed", err)
	}
}

func TestImageType(t *testing.T) {
	tests := map[string]string{
		"a.png":       "image/png",
		"b.JPG":       "image/jpeg",
		"c.gif":       "image/gif",
		"noext":       "image/*",
		"/x/y/z.webp": "image/webp",
	}
	for path, want := range tests {
		if got := imageType(path); got != want {
			t.Errorf("imageType(%q) = %q, want %q", path, got, want)
		}
	}
}
