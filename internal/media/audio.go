package media

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/bogem/id3v2"
)

// AudioInfo is what can be learned about a recording without decoding it.
type AudioInfo struct {
	Format string
	Title  string
	Artist string
}

// ProbeAudio inspects the container header and, for MP3 files, the ID3 tag.
func ProbeAudio(b Blob) AudioInfo {
	info := AudioInfo{Format: audioFormat(b)}

	if info.Format != "mp3" {
		return info
	}

	tag, err := id3v2.ParseReader(bytes.NewReader(b.Data), id3v2.Options{Parse: true})
	if err != nil {
		slog.Debug("Unable to parse ID3 tag", "name", b.Name, "err", err)
		return info
	}
	defer tag.Close()

	info.Title = strings.TrimSpace(tag.Title())
	info.Artist = strings.TrimSpace(tag.Artist())
	return info
}

func audioFormat(b Blob) string {
	data := b.Data
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return "wav"
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return "mp3"
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return "mp3"
	case len(data) >= 4 && string(data[0:4]) == "OggS":
		return "ogg"
	case len(data) >= 4 && string(data[0:4]) == "fLaC":
		return "flac"
	case len(data) >= 4 && bytes.Equal(data[0:4], []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return "webm"
	}

	ct := strings.ToLower(b.ContentType)
	if i := strings.Index(ct, "/"); i >= 0 {
		ct = ct[i+1:]
	}
	if i := strings.IndexAny(ct, ";+"); i >= 0 {
		ct = ct[:i]
	}
	switch ct {
	case "mpeg", "mp3":
		return "mp3"
	case "":
		return "unknown"
	}
	return ct
}

// Extension returns a file extension matching the probed format.
func (a AudioInfo) Extension() string {
	switch a.Format {
	case "wav", "mp3", "ogg", "flac", "webm":
		return "." + a.Format
	}
	return ".bin"
}
