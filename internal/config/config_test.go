package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ARTISAN_UPLOADS_DIR", "ARTISAN_DATA_DIR", "ARTISAN_MAX_IMAGES", "ARTISAN_MAX_UPLOAD_MB", "STORY_PROVIDER", "STORY_TRANSCRIBER", "STORY_TRANSCRIBER_MODEL", "ARTISAN_SERVER_URL", "ARTISAN_CLIENT_TIMEOUT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "5000" {
		t.Errorf("Expected port 5000, got %s", cfg.Server.Port)
	}
	if cfg.Server.UploadsDir != "uploads" || cfg.Server.DataDir != "data" {
		t.Errorf("Unexpected directories %q %q", cfg.Server.UploadsDir, cfg.Server.DataDir)
	}
	if cfg.Server.MaxImages != 10 {
		t.Errorf("Expected 10 images, got %d", cfg.Server.MaxImages)
	}
	if cfg.Server.MaxUploadBytes() != 64<<20 {
		t.Errorf("Expected 64MB limit, got %d", cfg.Server.MaxUploadBytes())
	}
	if cfg.Story.Provider != "" {
		t.Errorf("Expected story processing disabled by default, got %q", cfg.Story.Provider)
	}
	if cfg.Story.Transcriber != "" || cfg.Story.TranscriberModel != "" {
		t.Errorf("Expected transcriber to follow the provider by default, got %q %q", cfg.Story.Transcriber, cfg.Story.TranscriberModel)
	}
	if cfg.Client.ServerURL != "http://localhost:5000" {
		t.Errorf("Unexpected server URL %s", cfg.Client.ServerURL)
	}
	if cfg.Client.Timeout != 2*time.Minute {
		t.Errorf("Expected 2m timeout, got %s", cfg.Client.Timeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("ARTISAN_MAX_IMAGES", "3")
	t.Setenv("STORY_PROVIDER", "openai")
	t.Setenv("STORY_TRANSCRIBER_MODEL", "whisper-1")
	t.Setenv("ARTISAN_OTEL_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "7000" || cfg.Server.MaxImages != 3 {
		t.Errorf("Overrides not applied: %+v", cfg.Server)
	}
	if cfg.Story.Provider != "openai" {
		t.Errorf("Expected openai provider, got %s", cfg.Story.Provider)
	}
	if cfg.Story.TranscriberModel != "whisper-1" {
		t.Errorf("Expected whisper-1 transcriber model, got %s", cfg.Story.TranscriberModel)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("Expected telemetry enabled")
	}
}

func TestLoadRejectsInvalidNumber(t *testing.T) {
	t.Setenv("ARTISAN_MAX_IMAGES", "many")
	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid ARTISAN_MAX_IMAGES")
	}
}
