package generate

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/miraverse/miraverse-backend/internal/audio"
	"github.com/miraverse/miraverse-backend/internal/extract"
	"github.com/miraverse/miraverse-backend/internal/platform/logger"
	"github.com/miraverse/miraverse-backend/internal/platform/openai"
	"github.com/miraverse/miraverse-backend/internal/types"
)

// Request is the generate endpoint's input: a mode tag, the user prompt,
// the selected sources and the conversation so far.
type Request struct {
	Mode    types.Mode          `json:"mode"`
	Prompt  string              `json:"prompt"`
	Sources []types.Source      `json:"sources"`
	History []types.ChatMessage `json:"history"`
}

// Response carries exactly one payload matching the requested mode, or a
// plain Text fallback when structured extraction failed, or Error.
type Response struct {
	Text         string              `json:"text,omitempty"`
	Quiz         *types.QuizResult   `json:"quiz,omitempty"`
	Infographic  *types.Infographic  `json:"infographic,omitempty"`
	Slides       *types.SlideDeck    `json:"slides,omitempty"`
	Flashcards   *types.FlashcardSet `json:"flashcards,omitempty"`
	Video        *types.VideoScript  `json:"video,omitempty"`
	AudioProject *types.AudioProject `json:"audioProject,omitempty"`
	Image        string              `json:"image,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// Config tunes generation without touching code. Zero values fall back to
// sensible defaults.
type Config struct {
	QuizQuestions int
	// Speakers maps dialogue speaker names to provider voices. The first
	// entry's voice also serves as the fallback.
	Speakers     []Speaker
	SceneFanout  int
	SlideImages  bool
	AssemblerCfg audio.AssemblerConfig
}

type Speaker struct {
	Name  string
	Voice string
}

func DefaultConfig() Config {
	return Config{
		QuizQuestions: 5,
		Speakers: []Speaker{
			{Name: "Nova", Voice: "nova"},
			{Name: "Orion", Voice: "onyx"},
		},
		SceneFanout:  4,
		AssemblerCfg: audio.DefaultAssemblerConfig(),
	}
}

// Service dispatches a generation request to the mode-specific pipeline.
type Service struct {
	log       *logger.Logger
	llm       openai.Client
	cfg       Config
	assembler *audio.Assembler
}

func NewService(log *logger.Logger, llm openai.Client, cfg Config) *Service {
	if cfg.QuizQuestions <= 0 {
		cfg.QuizQuestions = DefaultConfig().QuizQuestions
	}
	if len(cfg.Speakers) == 0 {
		cfg.Speakers = DefaultConfig().Speakers
	}
	if cfg.SceneFanout <= 0 {
		cfg.SceneFanout = DefaultConfig().SceneFanout
	}
	s := &Service{log: log.With("service", "GenerateService"), llm: llm, cfg: cfg}
	s.assembler = audio.NewAssembler(log, &dialogueSynthesizer{llm: llm, speakers: cfg.Speakers}, cfg.AssemblerCfg)
	return s
}

// Generate never returns a Go error to the transport layer for provider or
// parse trouble: failures become a Response with Error set, so one bad
// request can never crash past its own boundary.
func (s *Service) Generate(ctx context.Context, req Request) Response {
	switch req.Mode {
	case types.ModeChat:
		return s.chat(ctx, req)
	case types.ModePlan:
		return s.plainText(ctx, planSystem, req)
	case types.ModeQuiz:
		return s.quiz(ctx, req)
	case types.ModeInfographic:
		return s.infographic(ctx, req)
	case types.ModeSlides:
		return s.slides(ctx, req)
	case types.ModeFlashcards:
		return s.flashcards(ctx, req)
	case types.ModeImage:
		return s.image(ctx, req)
	case types.ModeVideo:
		return s.video(ctx, req)
	case types.ModeAudio:
		return s.audio(ctx, req)
	default:
		return Response{Error: fmt.Sprintf("unknown mode %q", req.Mode)}
	}
}

func (s *Service) chat(ctx context.Context, req Request) Response {
	history := make([]openai.Message, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, openai.Message{Role: string(m.Role), Content: m.Content})
	}
	text, err := s.llm.GenerateChat(ctx, chatSystem+"\n\n"+sourceContext(req.Sources), history, req.Prompt)
	if err != nil {
		return s.providerError("chat", err)
	}
	return Response{Text: text}
}

func (s *Service) plainText(ctx context.Context, system string, req Request) Response {
	text, err := s.llm.GenerateText(ctx, system, userPrompt(req.Prompt, req.Sources))
	if err != nil {
		return s.providerError("text", err)
	}
	return Response{Text: text}
}

func (s *Service) quiz(ctx context.Context, req Request) Response {
	raw, err := s.llm.GenerateText(ctx, quizSystem(s.cfg.QuizQuestions), userPrompt(req.Prompt, req.Sources))
	if err != nil {
		return s.providerError("quiz", err)
	}
	return Response{Quiz: extract.Quiz(raw)}
}

func (s *Service) infographic(ctx context.Context, req Request) Response {
	raw, err := s.llm.GenerateText(ctx, infographicSystem, userPrompt(req.Prompt, req.Sources))
	if err != nil {
		return s.providerError("infographic", err)
	}
	if payload, ok := extract.Infographic(raw); ok {
		return Response{Infographic: payload}
	}
	return Response{Text: raw}
}

func (s *Service) slides(ctx context.Context, req Request) Response {
	raw, err := s.llm.GenerateText(ctx, slidesSystem, userPrompt(req.Prompt, req.Sources))
	if err != nil {
		return s.providerError("slides", err)
	}
	deck, ok := extract.Slides(raw)
	if !ok {
		return Response{Text: raw}
	}
	if s.cfg.SlideImages {
		s.illustrateSlides(ctx, deck)
	}
	return Response{Slides: deck}
}

func (s *Service) flashcards(ctx context.Context, req Request) Response {
	raw, err := s.llm.GenerateText(ctx, flashcardsSystem, userPrompt(req.Prompt, req.Sources))
	if err != nil {
		return s.providerError("flashcards", err)
	}
	if payload, ok := extract.Flashcards(raw); ok {
		return Response{Flashcards: payload}
	}
	return Response{Text: raw}
}

func (s *Service) image(ctx context.Context, req Request) Response {
	description, err := s.llm.GenerateText(ctx, imageSystem, userPrompt(req.Prompt, req.Sources))
	if err != nil {
		return s.providerError("image", err)
	}
	img, err := s.llm.GenerateImage(ctx, description)
	if err != nil {
		return s.providerError("image", err)
	}
	return Response{Image: base64.StdEncoding.EncodeToString(img.Bytes)}
}

func (s *Service) audio(ctx context.Context, req Request) Response {
	names := make([]string, 0, len(s.cfg.Speakers))
	for _, sp := range s.cfg.Speakers {
		names = append(names, sp.Name)
	}
	raw, err := s.llm.GenerateText(ctx, dialogueSystem(names), userPrompt(req.Prompt, req.Sources))
	if err != nil {
		return s.providerError("audio", err)
	}

	title, lines := extract.Dialogue(raw)
	if len(lines) == 0 {
		return Response{Error: "could not produce an audio script, try again"}
	}
	if strings.TrimSpace(title) == "" {
		title = "Study podcast"
	}

	uri, err := s.assembler.AssembleDataURI(ctx, lines)
	if err != nil {
		s.log.Error("Audio assembly failed", "lines", len(lines), "error", err.Error())
		return Response{Error: "could not produce the audio, try again"}
	}
	return Response{AudioProject: &types.AudioProject{Title: title, AudioURL: uri}}
}

func (s *Service) providerError(mode string, err error) Response {
	s.log.Error("Generation failed", "mode", mode, "error", err.Error())
	return Response{Error: err.Error()}
}
