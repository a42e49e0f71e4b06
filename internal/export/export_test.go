package export

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/artisan-upload/artisan/internal/models"
	"gopkg.in/yaml.v3"
)

func testEntries() []models.ManifestEntry {
	audio := "1_voice.wav"
	return []models.ManifestEntry{
		{
			Filename: "artisan_data_1.json",
			Manifest: models.NewManifest(map[string]json.RawMessage{
				"artisanName": json.RawMessage(`"Meera"`),
				"phoneNum":    json.RawMessage(`"12"`),
				"shopAddress": json.RawMessage(`"Lane 4"`),
			}, &audio, []string{"1_a.jpg", "1_b.jpg"}),
		},
		{Filename: "broken.json"},
		{
			Filename: "artisan_data_2.json",
			Manifest: models.NewManifest(map[string]json.RawMessage{
				"artisanName": json.RawMessage(`"Ravi"`),
			}, nil, nil),
		},
	}
}

func TestFromEntries(t *testing.T) {
	records := FromEntries(testEntries())
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].ArtisanName != "Meera" || records[0].AudioFile != "1_voice.wav" || len(records[0].Images) != 2 {
		t.Errorf("Unexpected first record %+v", records[0])
	}
	if records[1].AudioFile != "" || len(records[1].Images) != 0 {
		t.Errorf("Expected no media for second record, got %+v", records[1])
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"parquet", FormatParquet, false},
		{".yml", FormatYAML, false},
		{"JSONL", FormatJSONL, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q): unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestParquetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "artisans.parquet")
	if err := WriteFile(path, FormatParquet, FromEntries(testEntries())); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	records, err := ReadParquet(path)
	if err != nil {
		t.Fatalf("ReadParquet failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Filename != "artisan_data_1.json" || records[0].Images[1] != "1_b.jpg" {
		t.Errorf("Unexpected record %+v", records[0])
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatYAML, FromEntries(testEntries())); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var doc Document
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Output is not YAML: %v", err)
	}
	if doc.Count != 2 || doc.Records[1].ArtisanName != "Ravi" {
		t.Errorf("Unexpected YAML document %+v", doc)
	}
}

func TestWriteJSONL(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSONL, FromEntries(testEntries())); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"artisanName":"Meera"`) {
		t.Errorf("Unexpected first line %s", lines[0])
	}
}
