// Package media describes the files an artisan hands to the uploader and
// decides whether each one is an image or an audio recording.
//
// Classification is explicit: every file gets a Verdict instead of being
// silently dropped, so callers can tell the user why a file was refused.
package media

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the category a file is expected to belong to.
type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
)

// Blob is one file held in memory together with its declared content type.
type Blob struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the payload length in bytes.
func (b Blob) Size() int { return len(b.Data) }

// Verdict is the result of classifying one file.
type Verdict struct {
	Name     string
	Kind     Kind
	Accepted bool
	Reason   string
}

// RejectedError is returned when a file does not match the expected kind.
type RejectedError struct {
	Verdict Verdict
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Verdict.Name, e.Verdict.Reason)
}

// Classify checks the declared content type of b against want.
func Classify(b Blob, want Kind) Verdict {
	v := Verdict{Name: b.Name, Kind: want}

	declared := strings.ToLower(strings.TrimSpace(b.ContentType))
	if declared == "" {
		v.Reason = "no content type declared"
		return v
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		v.Reason = fmt.Sprintf("invalid content type %q", b.ContentType)
		return v
	}

	if !strings.HasPrefix(mediaType, string(want)+"/") {
		v.Reason = fmt.Sprintf("content type %s is not %s", mediaType, want)
		return v
	}

	v.Accepted = true
	return v
}

// Check classifies b and converts a rejection into an error.
func Check(b Blob, want Kind) error {
	v := Classify(b, want)
	if !v.Accepted {
		return &RejectedError{Verdict: v}
	}
	return nil
}

// LoadFile reads a file from disk and guesses its content type, first from the
// extension and then by sniffing the content.
func LoadFile(path string) (Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Blob{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return Blob{
		Name:        filepath.Base(path),
		ContentType: DetectContentType(path, data),
		Data:        data,
	}, nil
}

// DetectContentType returns the content type for a file name and its data.
func DetectContentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
