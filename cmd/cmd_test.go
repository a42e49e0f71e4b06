package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootRegistersCommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"serve", "upload", "submit", "record", "story", "export"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("Expected %s command, got %v (%v)", name, c, err)
		}
	}
}

func TestExportCommandWritesYAML(t *testing.T) {
	dataDir := t.TempDir()
	manifest := `{"artisanName":"Meera","phoneNum":"12","shopAddress":"Lane 4","audioFile":null,"images":["1_a.jpg"]}`
	if err := os.WriteFile(filepath.Join(dataDir, "artisan_data_1.json"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"export", "--data", dataDir, "--format", "yaml", "--out", "-"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	if !strings.Contains(out.String(), "artisanname: Meera") || !strings.Contains(out.String(), "count: 1") {
		t.Errorf("Unexpected export output:\n%s", out.String())
	}
}

func TestExportCommandRejectsUnknownFormat(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"export", "--data", t.TempDir(), "--out", "artisans.csv"})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Error("Expected error for csv output")
	}
}

func TestStoryCommandRejectsNonAudio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"story", path, "--server", "http://127.0.0.1:1"})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Error("Expected error for non-audio file")
	}
}

func TestRedirectLogsKeepsTerminalClean(t *testing.T) {
	var terminal bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	slog.SetDefault(slog.New(slog.NewTextHandler(&terminal, &slog.HandlerOptions{Level: slog.LevelDebug})))

	path := filepath.Join(t.TempDir(), "upload.log")
	restore, err := redirectLogs(context.Background(), path)
	if err != nil {
		t.Fatalf("redirectLogs failed: %v", err)
	}
	slog.Info("Submission saved", "filename", "artisan_data_1.json")
	slog.Debug("Upload session state", "state", "submitting")
	restore()

	if terminal.Len() != 0 {
		t.Errorf("Expected nothing on the terminal while redirected, got %q", terminal.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Submission saved") || !strings.Contains(string(data), "Upload session state") {
		t.Errorf("Expected both records in the log file, got %q", data)
	}

	slog.Warn("after restore")
	if !strings.Contains(terminal.String(), "after restore") {
		t.Errorf("Expected previous logger restored, got %q", terminal.String())
	}
}

func TestRedirectLogsDiscard(t *testing.T) {
	var terminal bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	slog.SetDefault(slog.New(slog.NewTextHandler(&terminal, nil)))

	restore, err := redirectLogs(context.Background(), "")
	if err != nil {
		t.Fatalf("redirectLogs failed: %v", err)
	}
	slog.Warn("Submission failed")
	restore()

	if terminal.Len() != 0 {
		t.Errorf("Expected discarded logs, got %q", terminal.String())
	}
}
