package media

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		blob     Blob
		want     Kind
		accepted bool
	}{
		{"jpeg image", Blob{Name: "a.jpg", ContentType: "image/jpeg"}, KindImage, true},
		{"png with params", Blob{Name: "a.png", ContentType: "Image/PNG; q=1"}, KindImage, true},
		{"audio as image", Blob{Name: "a.wav", ContentType: "audio/wav"}, KindImage, false},
		{"text as image", Blob{Name: "notes.txt", ContentType: "text/plain"}, KindImage, false},
		{"missing type", Blob{Name: "mystery"}, KindImage, false},
		{"webm audio", Blob{Name: "rec.webm", ContentType: "audio/webm;codecs=opus"}, KindAudio, true},
		{"image as audio", Blob{Name: "a.jpg", ContentType: "image/jpeg"}, KindAudio, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(tt.blob, tt.want)
			if v.Accepted != tt.accepted {
				t.Errorf("Expected accepted=%v, got %v (reason %q)", tt.accepted, v.Accepted, v.Reason)
			}
			if !v.Accepted && v.Reason == "" {
				t.Error("Expected a reason for rejected file")
			}
			if v.Name != tt.blob.Name || v.Kind != tt.want {
				t.Errorf("Verdict does not describe the input: %+v", v)
			}
		})
	}
}

func TestCheckReturnsRejectedError(t *testing.T) {
	err := Check(Blob{Name: "x.txt", ContentType: "text/plain"}, KindAudio)
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("Expected RejectedError, got %v", err)
	}
	if rejected.Verdict.Name != "x.txt" {
		t.Errorf("Expected verdict for x.txt, got %s", rejected.Verdict.Name)
	}
}

func TestLoadFileSniffsContentType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voice")
	wav := append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 32)...)
	if err := os.WriteFile(path, wav, 0644); err != nil {
		t.Fatal(err)
	}

	b, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if b.Name != "voice" {
		t.Errorf("Expected name voice, got %s", b.Name)
	}
	if !Classify(b, KindAudio).Accepted {
		t.Errorf("Expected sniffed WAV to classify as audio, got %s", b.ContentType)
	}
}

func TestProbeAudio(t *testing.T) {
	tag := id3v2.NewEmptyTag()
	tag.SetArtist("Meera")
	tag.SetTitle("Baskets")
	var buf bytes.Buffer
	if _, err := tag.WriteTo(&buf); err != nil {
		t.Fatalf("Failed to write tag: %v", err)
	}
	buf.Write([]byte{0xFF, 0xFB, 0x90, 0x00})

	info := ProbeAudio(Blob{Name: "story.mp3", ContentType: "audio/mpeg", Data: buf.Bytes()})
	if info.Format != "mp3" {
		t.Errorf("Expected mp3, got %s", info.Format)
	}
	if info.Artist != "Meera" || info.Title != "Baskets" {
		t.Errorf("Expected ID3 artist and title, got %+v", info)
	}
	if info.Extension() != ".mp3" {
		t.Errorf("Expected .mp3 extension, got %s", info.Extension())
	}

	wav := ProbeAudio(Blob{Data: []byte("RIFF\x00\x00\x00\x00WAVE")})
	if wav.Format != "wav" || wav.Artist != "" {
		t.Errorf("Expected plain wav info, got %+v", wav)
	}

	unknown := ProbeAudio(Blob{ContentType: "audio/x-custom"})
	if unknown.Extension() != ".bin" {
		t.Errorf("Expected .bin for unknown format, got %s", unknown.Extension())
	}
}
