package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Server holds configuration for the HTTP server.
type Server struct {
	Port           string `envconfig:"PORT" default:"5000"`
	UploadsDir     string `envconfig:"ARTISAN_UPLOADS_DIR" default:"uploads"`
	DataDir        string `envconfig:"ARTISAN_DATA_DIR" default:"data"`
	MaxImages      int    `envconfig:"ARTISAN_MAX_IMAGES" default:"10"`
	MaxUploadMB    int64  `envconfig:"ARTISAN_MAX_UPLOAD_MB" default:"64"`
	AllowedOrigins string `envconfig:"ARTISAN_ALLOWED_ORIGINS" default:"*"`
}

// MaxUploadBytes returns the request body limit in bytes.
func (s Server) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

// Story holds configuration for voice recording processing.
// An empty Provider disables the audio processing endpoint. An empty
// Transcriber follows Provider, except ollama which falls back to gemini.
// Model only reaches the transcriber when both use the same provider.
type Story struct {
	Provider         string  `envconfig:"STORY_PROVIDER"`
	Transcriber      string  `envconfig:"STORY_TRANSCRIBER"`
	Model            string  `envconfig:"STORY_MODEL"`
	TranscriberModel string  `envconfig:"STORY_TRANSCRIBER_MODEL"`
	Temperature      float64 `envconfig:"STORY_TEMPERATURE" default:"0.3"`
}

// Telemetry holds OTEL metrics exporter configuration.
type Telemetry struct {
	Enabled  bool   `envconfig:"ARTISAN_OTEL_ENABLED"`
	Endpoint string `envconfig:"ARTISAN_OTEL_ENDPOINT"`
	Insecure bool   `envconfig:"ARTISAN_OTEL_INSECURE"`
}

// Client holds configuration for the upload client and the wizard.
type Client struct {
	ServerURL     string        `envconfig:"ARTISAN_SERVER_URL" default:"http://localhost:5000"`
	Timeout       time.Duration `envconfig:"ARTISAN_CLIENT_TIMEOUT" default:"2m"`
	RecordCommand string        `envconfig:"ARTISAN_RECORD_COMMAND"`
}

// App is the complete configuration.
type App struct {
	Server    Server
	Story     Story
	Telemetry Telemetry
	Client    Client
}

// Load reads every configuration section from environment variables.
func Load() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Story); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Telemetry); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Client); err != nil {
		return nil, err
	}
	return &cfg, nil
}
