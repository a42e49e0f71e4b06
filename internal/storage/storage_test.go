package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/artisan-upload/artisan/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	return New(filepath.Join(root, "uploads"), filepath.Join(root, "data"))
}

func contactFields() map[string]json.RawMessage {
	return map[string]json.RawMessage{
		"artisanName": json.RawMessage(`"A"`),
		"phoneNum":    json.RawMessage(`"1"`),
		"email":       json.RawMessage(`""`),
		"shopAddress": json.RawMessage(`"X"`),
	}
}

func TestSaveSubmissionWithoutAudio(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	resp, err := s.SaveSubmission(context.Background(), Submission{
		Fields: contactFields(),
		Images: []Incoming{BytesIncoming("pot.jpg", []byte("jpeg"))},
	})
	if err != nil {
		t.Fatalf("SaveSubmission failed: %v", err)
	}

	if resp.Message != "Data saved successfully" {
		t.Errorf("Unexpected message %q", resp.Message)
	}
	if resp.AudioFile != nil {
		t.Errorf("Expected nil audio file, got %s", *resp.AudioFile)
	}
	if len(resp.Images) != 1 || resp.Images[0] != "1700000000000_pot.jpg" {
		t.Errorf("Expected one timestamped image, got %v", resp.Images)
	}
	if resp.Filename != "artisan_data_1700000000000.json" {
		t.Errorf("Unexpected manifest name %s", resp.Filename)
	}

	raw, err := os.ReadFile(filepath.Join(s.DataDir(), resp.Filename))
	if err != nil {
		t.Fatalf("Manifest not written: %v", err)
	}
	var onDisk map[string]any
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatalf("Manifest is not JSON: %v", err)
	}
	if onDisk["artisanName"] != "A" {
		t.Errorf("Expected artisanName A, got %v", onDisk["artisanName"])
	}
	if v, ok := onDisk["audioFile"]; !ok || v != nil {
		t.Errorf("Expected audioFile null, got %v (present=%v)", v, ok)
	}

	data, err := os.ReadFile(filepath.Join(s.UploadsDir(), resp.Images[0]))
	if err != nil || string(data) != "jpeg" {
		t.Errorf("Image content not persisted: %q %v", data, err)
	}
}

func TestSaveSubmissionWithAudio(t *testing.T) {
	s := newTestStore(t)
	audio := BytesIncoming("voice.webm", []byte("webm"))

	resp, err := s.SaveSubmission(context.Background(), Submission{
		Fields: contactFields(),
		Audio:  &audio,
		Images: []Incoming{
			BytesIncoming("a.jpg", []byte("1")),
			BytesIncoming("b.jpg", []byte("2")),
		},
	})
	if err != nil {
		t.Fatalf("SaveSubmission failed: %v", err)
	}
	if resp.AudioFile == nil || !strings.HasSuffix(*resp.AudioFile, "_voice.webm") {
		t.Errorf("Expected saved audio name, got %v", resp.AudioFile)
	}
	if len(resp.Images) != 2 || !strings.HasSuffix(resp.Images[0], "_a.jpg") || !strings.HasSuffix(resp.Images[1], "_b.jpg") {
		t.Errorf("Expected images in submission order, got %v", resp.Images)
	}

	m, err := s.Manifest(resp.Filename)
	if err != nil {
		t.Fatalf("Manifest lookup failed: %v", err)
	}
	if m.AudioFile == nil || *m.AudioFile != *resp.AudioFile {
		t.Errorf("Manifest audio does not match response")
	}
}

func TestSequentialSubmissionsDoNotOverwrite(t *testing.T) {
	s := newTestStore(t)
	fixed := time.UnixMilli(1700000000000)
	s.now = func() time.Time { return fixed }

	sub := Submission{
		Fields: contactFields(),
		Images: []Incoming{BytesIncoming("same.jpg", []byte("x"))},
	}
	first, err := s.SaveSubmission(context.Background(), sub)
	if err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	second, err := s.SaveSubmission(context.Background(), sub)
	if err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	if first.Filename == second.Filename {
		t.Errorf("Expected distinct manifest names, got %s twice", first.Filename)
	}
	if first.Images[0] == second.Images[0] {
		t.Errorf("Expected distinct media names, got %s twice", first.Images[0])
	}

	entries, err := s.Manifests()
	if err != nil {
		t.Fatalf("Manifests failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 manifests, got %d", len(entries))
	}
}

func TestSaveSubmissionFailureLeavesNothing(t *testing.T) {
	s := newTestStore(t)
	broken := Incoming{
		Filename: "broken.jpg",
		Open: func() (io.ReadCloser, error) {
			return nil, errors.New("disk gone")
		},
	}

	_, err := s.SaveSubmission(context.Background(), Submission{
		Fields: contactFields(),
		Images: []Incoming{BytesIncoming("ok.jpg", []byte("ok")), broken},
	})
	if err == nil {
		t.Fatal("Expected error from failing upload")
	}

	uploads, _ := os.ReadDir(s.UploadsDir())
	if len(uploads) != 0 {
		t.Errorf("Expected empty uploads directory, found %d entries", len(uploads))
	}
	manifests, _ := os.ReadDir(s.DataDir())
	if len(manifests) != 0 {
		t.Errorf("Expected no manifest, found %d entries", len(manifests))
	}
}

func TestManifestRejectsTraversal(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"../secret.json", "artisan_data_1/../x.json", "notes.txt", ""} {
		if _, err := s.Manifest(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Expected ErrInvalidName for %q, got %v", name, err)
		}
	}
	if _, err := s.Manifest("artisan_data_42.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pot.jpg", "pot.jpg"},
		{"../../etc/passwd", "passwd"},
		{`C:\photos\vase.png`, "vase.png"},
		{"a:b?.jpg", "a_b_.jpg"},
		{"", "file"},
		{"..", "file"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestSaveAudioAndStory(t *testing.T) {
	s := newTestStore(t)

	path, err := s.SaveAudio("abc.wav", []byte("RIFF"))
	if err != nil {
		t.Fatalf("SaveAudio failed: %v", err)
	}
	if path != filepath.Join(s.UploadsDir(), "audio", "abc.wav") {
		t.Errorf("Unexpected audio path %s", path)
	}

	record := &models.StoryRecord{
		ID:         "abc",
		Transcript: "I am Meera",
		Content:    models.StoryContent{ArtisanName: "Meera", Keywords: []string{"baskets"}},
		AudioPath:  path,
	}
	if err := s.SaveStory(record); err != nil {
		t.Fatalf("SaveStory failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(s.DataDir(), "stories", "abc.json"))
	if err != nil {
		t.Fatalf("Story not written: %v", err)
	}
	var got models.StoryRecord
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Story is not JSON: %v", err)
	}
	if got.Content.ArtisanName != "Meera" || got.AudioPath != path {
		t.Errorf("Unexpected story %+v", got)
	}

	// Stories live outside the manifest listing.
	entries, err := s.Manifests()
	if err != nil || len(entries) != 0 {
		t.Errorf("Expected no manifests, got %d (%v)", len(entries), err)
	}
}
