package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Contact holds the artisan's contact details as submitted by the contact form
type Contact struct {
	ArtisanName string `json:"artisanName"`
	PhoneNum    string `json:"phoneNum"`
	Email       string `json:"email"`
	ShopAddress string `json:"shopAddress"`
}

// Manifest is the persisted record of one submission.
//
// Fields keeps every key of the submitted contact object so the stored file
// mirrors what the client sent. AudioFile and Images always win over
// same-named submitted keys.
type Manifest struct {
	Fields    map[string]json.RawMessage
	AudioFile *string
	Images    []string
}

// NewManifest builds a manifest from the raw submitted contact object.
func NewManifest(fields map[string]json.RawMessage, audioFile *string, images []string) *Manifest {
	copied := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		if k == "audioFile" || k == "images" {
			continue
		}
		copied[k] = v
	}
	if images == nil {
		images = []string{}
	}
	return &Manifest{Fields: copied, AudioFile: audioFile, Images: images}
}

// Contact decodes the contact fields of the manifest.
func (m *Manifest) Contact() Contact {
	var c Contact
	decodeString(m.Fields["artisanName"], &c.ArtisanName)
	decodeString(m.Fields["phoneNum"], &c.PhoneNum)
	decodeString(m.Fields["email"], &c.Email)
	decodeString(m.Fields["shopAddress"], &c.ShopAddress)
	return c
}

func decodeString(raw json.RawMessage, dst *string) {
	if len(raw) == 0 {
		return
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		*dst = s
	}
}

func (m *Manifest) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Fields)+2)
	for k, v := range m.Fields {
		out[k] = v
	}
	out["audioFile"] = m.AudioFile
	images := m.Images
	if images == nil {
		images = []string{}
	}
	out["images"] = images
	return json.Marshal(out)
}

func (m *Manifest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("manifest is not a JSON object")
	}

	m.AudioFile = nil
	if v, ok := raw["audioFile"]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("invalid audioFile: %w", err)
		}
		m.AudioFile = &s
	}

	m.Images = []string{}
	if v, ok := raw["images"]; ok {
		if err := json.Unmarshal(v, &m.Images); err != nil {
			return fmt.Errorf("invalid images: %w", err)
		}
	}

	delete(raw, "audioFile")
	delete(raw, "images")
	m.Fields = raw
	return nil
}

// SaveResponse is the body returned by the persistence endpoint on success
type SaveResponse struct {
	Message   string   `json:"message"`
	Filename  string   `json:"filename"`
	AudioFile *string  `json:"audioFile"`
	Images    []string `json:"images"`
}

// StoryContent is the generated landing page copy for one voice recording
type StoryContent struct {
	ArtisanName string   `json:"artisan_name"`
	AboutText   string   `json:"about_text"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// StoryRecord is persisted for every processed voice recording
type StoryRecord struct {
	ID         string       `json:"id"`
	Transcript string       `json:"transcript"`
	Content    StoryContent `json:"content"`
	AudioPath  string       `json:"audio_path"`
}

// StoryResult is the body returned by the audio processing endpoint
type StoryResult struct {
	Success     bool     `json:"success" yaml:"success"`
	Message     string   `json:"message,omitempty" yaml:"message,omitempty"`
	ID          string   `json:"id,omitempty" yaml:"id,omitempty"`
	ArtisanName string   `json:"artisanName,omitempty" yaml:"artisanName,omitempty"`
	AboutTxt    string   `json:"aboutTxt,omitempty" yaml:"aboutTxt,omitempty"`
	StoryTxt    string   `json:"storyTxt,omitempty" yaml:"storyTxt,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Tagline     string   `json:"tagline,omitempty" yaml:"tagline,omitempty"`
	Transcript  string   `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	Error       string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// ManifestEntry pairs a stored manifest with its filename
type ManifestEntry struct {
	Filename string    `json:"filename"`
	Manifest *Manifest `json:"manifest"`
}
