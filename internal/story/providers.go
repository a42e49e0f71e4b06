package story

import (
	"fmt"

	"github.com/artisan-upload/artisan/internal/gemini"
	"github.com/artisan-upload/artisan/internal/ollama"
	"github.com/artisan-upload/artisan/internal/openai"
	"github.com/artisan-upload/artisan/internal/providers"
)

// NewProvider returns the text provider registered under name.
func NewProvider(name string) (providers.Provider, error) {
	switch name {
	case "gemini":
		return gemini.New(), nil
	case "openai":
		return openai.New(), nil
	case "ollama":
		return ollama.New(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

// NewTranscriber returns the speech-to-text provider registered under name.
func NewTranscriber(name string) (providers.Transcriber, error) {
	switch name {
	case "gemini":
		return gemini.New(), nil
	case "openai":
		return openai.New(), nil
	case "ollama":
		return nil, fmt.Errorf("ollama cannot transcribe audio, set STORY_TRANSCRIBER to gemini or openai")
	default:
		return nil, fmt.Errorf("unsupported transcriber: %s", name)
	}
}
