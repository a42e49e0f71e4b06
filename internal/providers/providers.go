package providers

import (
	"context"
)

// Config represents the configuration for an LLM provider
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
}

// Provider defines the interface for an LLM provider
type Provider interface {
	GenerateText(ctx context.Context, config Config) (string, error)
}

// Audio is a recording handed to a speech-to-text provider.
type Audio struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Transcriber turns a recording into English text.
type Transcriber interface {
	Transcribe(ctx context.Context, config Config, audio Audio) (string, error)
}
