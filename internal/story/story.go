// Package story turns an artisan's voice recording into landing page copy:
// a transcript, a short about text, the artisan's first name, a first-person
// description and marketplace keywords.
package story

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/artisan-upload/artisan/internal/config"
	"github.com/artisan-upload/artisan/internal/media"
	"github.com/artisan-upload/artisan/internal/models"
	"github.com/artisan-upload/artisan/internal/providers"
)

const (
	Tagline     = "HANDMADE | ECO-FRIENDLY | HERITAGE"
	DefaultName = "Artisan"

	// Transcripts shorter than this are used as the about text verbatim.
	shortTranscriptWords = 30
)

var (
	ErrDisabled        = errors.New("story processing is not configured")
	ErrEmptyTranscript = errors.New("recording produced an empty transcript")
)

// Store persists the recording and the generated record.
type Store interface {
	SaveAudio(name string, data []byte) (string, error)
	SaveStory(record *models.StoryRecord) error
}

type Service struct {
	writer      providers.Provider
	transcriber providers.Transcriber
	store       Store
	config      providers.Config
	// transcribe carries the model handed to the transcriber, which may
	// belong to a different provider than the writer.
	transcribe providers.Config
	name       string
}

// defaultTranscriber is used when the text provider cannot transcribe.
const defaultTranscriber = "gemini"

// NewService builds a service from configuration. It returns ErrDisabled
// when no provider is configured.
func NewService(cfg config.Story, store Store) (*Service, error) {
	if cfg.Provider == "" {
		return nil, ErrDisabled
	}

	writer, err := NewProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	transcriberName := TranscriberFor(cfg)
	transcriber, err := NewTranscriber(transcriberName)
	if err != nil {
		return nil, err
	}

	s := New(writer, transcriber, store, providers.Config{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
	}, cfg.Provider)
	s.transcribe = providers.Config{Model: cfg.TranscriberModel}
	if s.transcribe.Model == "" && transcriberName == cfg.Provider {
		s.transcribe.Model = cfg.Model
	}
	slog.Debug("Story service configured", "provider", cfg.Provider, "transcriber", transcriberName, "transcriber_model", s.transcribe.Model)
	return s, nil
}

// TranscriberFor resolves the speech-to-text provider for cfg.
func TranscriberFor(cfg config.Story) string {
	if cfg.Transcriber != "" {
		return cfg.Transcriber
	}
	if cfg.Provider == "ollama" {
		return defaultTranscriber
	}
	return cfg.Provider
}

func New(writer providers.Provider, transcriber providers.Transcriber, store Store, cfg providers.Config, name string) *Service {
	return &Service{
		writer:      writer,
		transcriber: transcriber,
		store:       store,
		config:      cfg,
		transcribe:  providers.Config{Model: cfg.Model},
		name:        name,
	}
}

// ProviderName is the configured text provider, used as a metric label.
func (s *Service) ProviderName() string {
	return s.name
}

// Process stores the recording, transcribes it, generates the landing page
// copy and persists the resulting record.
func (s *Service) Process(ctx context.Context, audio media.Blob) (*models.StoryResult, error) {
	id := uuid.NewString()
	info := media.ProbeAudio(audio)

	audioPath, err := s.store.SaveAudio(id+info.Extension(), audio.Data)
	if err != nil {
		return nil, err
	}
	slog.Info("Saved uploaded audio", "id", id, "path", audioPath, "format", info.Format)

	transcript, err := s.transcriber.Transcribe(ctx, s.transcribe, providers.Audio{
		Filename: audio.Name,
		MIMEType: audio.ContentType,
		Data:     audio.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, ErrEmptyTranscript
	}
	slog.Debug("Transcription complete", "id", id, "words", len(strings.Fields(transcript)))

	content, err := s.Generate(ctx, transcript, info)
	if err != nil {
		return nil, err
	}

	record := &models.StoryRecord{
		ID:         id,
		Transcript: transcript,
		Content:    *content,
		AudioPath:  audioPath,
	}
	if err := s.store.SaveStory(record); err != nil {
		return nil, err
	}

	return &models.StoryResult{
		Success:     true,
		Message:     "Audio processed successfully",
		ID:          id,
		ArtisanName: content.ArtisanName,
		AboutTxt:    content.AboutText,
		StoryTxt:    content.Description,
		Description: content.Description,
		Keywords:    content.Keywords,
		Tagline:     Tagline,
		Transcript:  transcript,
	}, nil
}

// Generate derives the structured content from a transcript. The audio info
// supplies a fallback name when the transcript does not mention one.
func (s *Service) Generate(ctx context.Context, transcript string, info media.AudioInfo) (*models.StoryContent, error) {
	about := transcript
	if len(strings.Fields(transcript)) >= shortTranscriptWords {
		summary, err := s.ask(ctx, summaryPrompt(transcript))
		if err != nil {
			return nil, fmt.Errorf("summary failed: %w", err)
		}
		about = summary
	}

	rawName, err := s.ask(ctx, namePrompt(transcript))
	if err != nil {
		return nil, fmt.Errorf("name extraction failed: %w", err)
	}
	name := CleanName(rawName)
	if name == DefaultName && info.Artist != "" {
		name = CleanName(info.Artist)
	}

	about = DedupeStartingName(about, name)

	description, err := s.ask(ctx, descriptionPrompt(transcript))
	if err != nil {
		return nil, fmt.Errorf("description failed: %w", err)
	}

	rawKeywords, err := s.ask(ctx, keywordsPrompt(transcript+" "+description))
	if err != nil {
		return nil, fmt.Errorf("keywords failed: %w", err)
	}

	return &models.StoryContent{
		ArtisanName: name,
		AboutText:   about,
		Description: description,
		Keywords:    SplitKeywords(rawKeywords),
	}, nil
}

func (s *Service) ask(ctx context.Context, prompt string) (string, error) {
	cfg := s.config
	cfg.Prompt = prompt
	resp, err := s.writer.GenerateText(ctx, cfg)
	if err != nil {
		return "", err
	}
	return cleanResponse(resp), nil
}

func summaryPrompt(transcript string) string {
	return fmt.Sprintf("Summarize the following text in two or three sentences. Reply with the summary only. Text: %q", transcript)
}

func namePrompt(transcript string) string {
	return fmt.Sprintf("From the following text, extract the artisan's first name. If a name is not mentioned, respond with '%s'. Text: %q", DefaultName, transcript)
}

func descriptionPrompt(transcript string) string {
	return fmt.Sprintf("Act as a creative copywriter. Rewrite the artisan's transcript in a professional, first-person tone. Reply with the rewritten text only. Transcript: %q", transcript)
}

func keywordsPrompt(text string) string {
	return fmt.Sprintf("Based on the following text, generate a list of 7 to 10 marketplace keywords (product type, material, style, uses). Comma separated, nothing else. Text: %q", text)
}

// cleanResponse strips markdown fences and surrounding quotes that chat
// models like to add.
func cleanResponse(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```text")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)
	if len(response) >= 2 && response[0] == '"' && response[len(response)-1] == '"' {
		response = strings.TrimSpace(response[1 : len(response)-1])
	}
	return response
}

// CleanName reduces a model answer such as "Name: Meera." to a single first
// name, falling back to DefaultName.
func CleanName(raw string) string {
	raw = cleanResponse(raw)
	if i := strings.LastIndex(raw, ":"); i >= 0 {
		raw = raw[i+1:]
	}
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return DefaultName
	}
	name := strings.TrimFunc(fields[0], func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-' && r != '\''
	})
	if name == "" {
		return DefaultName
	}
	return name
}

// DedupeStartingName drops a stuttered leading name, as in "Meera Meera makes
// pots", when it matches the extracted name.
func DedupeStartingName(text, name string) string {
	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}
	first := strings.Trim(words[0], ",.?!")
	second := strings.Trim(words[1], ",.?!")
	if first == second && strings.EqualFold(first, strings.TrimSpace(name)) {
		return strings.Join(words[1:], " ")
	}
	return text
}

// SplitKeywords splits a comma separated answer into trimmed keywords.
func SplitKeywords(raw string) []string {
	keywords := []string{}
	for _, kw := range strings.Split(raw, ",") {
		kw = strings.TrimSpace(strings.Trim(strings.TrimSpace(kw), ".-*"))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}
