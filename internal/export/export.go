// Package export flattens stored artisan manifests into tabular records and
// writes them as Parquet, YAML or JSONL.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/artisan-upload/artisan/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Record is one submission, flattened for analysis.
type Record struct {
	Filename    string   `json:"filename" yaml:"filename" parquet:"filename"`
	ArtisanName string   `json:"artisanName" yaml:"artisanname" parquet:"artisan_name"`
	PhoneNum    string   `json:"phoneNum" yaml:"phonenum" parquet:"phone_num"`
	Email       string   `json:"email" yaml:"email,omitempty" parquet:"email"`
	ShopAddress string   `json:"shopAddress" yaml:"shopaddress" parquet:"shop_address"`
	AudioFile   string   `json:"audioFile,omitempty" yaml:"audiofile,omitempty" parquet:"audio_file"`
	Images      []string `json:"images" yaml:"images" parquet:"images,list"`
}

// Document is the YAML export layout.
type Document struct {
	Exported string   `yaml:"exported"`
	Count    int      `yaml:"count"`
	Records  []Record `yaml:"records"`
}

// Format selects the output encoding.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatYAML    Format = "yaml"
	FormatJSONL   Format = "jsonl"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "parquet":
		return FormatParquet, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "jsonl", "json":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s (supported: parquet, yaml, jsonl)", s)
	}
}

// FromEntries converts stored manifests into records, keeping their order.
func FromEntries(entries []models.ManifestEntry) []Record {
	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		if e.Manifest == nil {
			continue
		}
		c := e.Manifest.Contact()
		r := Record{
			Filename:    e.Filename,
			ArtisanName: c.ArtisanName,
			PhoneNum:    c.PhoneNum,
			Email:       c.Email,
			ShopAddress: c.ShopAddress,
			Images:      append([]string{}, e.Manifest.Images...),
		}
		if e.Manifest.AudioFile != nil {
			r.AudioFile = *e.Manifest.AudioFile
		}
		records = append(records, r)
	}
	return records
}

// Write encodes records to w.
func Write(w io.Writer, format Format, records []Record) error {
	switch format {
	case FormatParquet:
		return writeParquet(w, records)
	case FormatYAML:
		return writeYAML(w, records)
	case FormatJSONL:
		return writeJSONL(w, records)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteFile writes records to path, creating parent directories.
func WriteFile(path string, format Format, records []Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := Write(f, format, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}

	slog.Info("Export written", "path", path, "format", format, "records", len(records))
	return nil
}

func writeParquet(w io.Writer, records []Record) error {
	pw := parquet.NewGenericWriter[Record](w)
	if _, err := pw.Write(records); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	doc := Document{
		Exported: time.Now().Format("2006-01-02_15-04-05"),
		Count:    len(records),
		Records:  records,
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

func writeJSONL(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode record %s: %w", r.Filename, err)
		}
	}
	return nil
}

// ReadParquet loads records from a Parquet export.
func ReadParquet(path string) ([]Record, error) {
	slog.Debug("Opening Parquet file", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Record](pf)
	defer reader.Close()

	var records []Record
	rows := make([]Record, 128)
	for {
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "records", len(records))
	return records, nil
}
