package generate

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/miraverse/miraverse-backend/internal/audio"
	"github.com/miraverse/miraverse-backend/internal/platform/logger"
	"github.com/miraverse/miraverse-backend/internal/platform/openai"
	"github.com/miraverse/miraverse-backend/internal/types"
)

type fakeLLM struct {
	mu         sync.Mutex
	textReply  string
	textErr    error
	lastSystem string
	lastUser   string

	chatReply   string
	chatErr     error
	lastHistory []openai.Message

	imageErr   error
	imageCalls int

	speechErr    error
	speechCalls  int
	speechVoices []string
}

func (f *fakeLLM) GenerateText(_ context.Context, system, user string) (string, error) {
	f.lastSystem, f.lastUser = system, user
	return f.textReply, f.textErr
}

func (f *fakeLLM) GenerateChat(_ context.Context, system string, history []openai.Message, user string) (string, error) {
	f.lastSystem, f.lastUser, f.lastHistory = system, user, history
	return f.chatReply, f.chatErr
}

func (f *fakeLLM) GenerateImage(_ context.Context, prompt string) (openai.ImageGeneration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageCalls++
	if f.imageErr != nil {
		return openai.ImageGeneration{}, f.imageErr
	}
	return openai.ImageGeneration{Bytes: []byte{0x89, 0x50, 0x4E, 0x47}, MimeType: "image/png"}, nil
}

func (f *fakeLLM) SynthesizeSpeech(_ context.Context, voice string, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speechCalls++
	f.speechVoices = append(f.speechVoices, voice)
	if f.speechErr != nil {
		return nil, f.speechErr
	}
	return audio.WrapWAV(audio.DefaultFormat, bytes.Repeat([]byte{0x42}, 8)), nil
}

func newTestService(t *testing.T, llm *fakeLLM) *Service {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewService(log, llm, DefaultConfig())
}

func TestGenerateUnknownMode(t *testing.T) {
	t.Parallel()

	s := newTestService(t, &fakeLLM{})
	resp := s.Generate(context.Background(), Request{Mode: "hologram"})
	if resp.Error == "" {
		t.Fatal("expected error for unknown mode")
	}
}

func TestGenerateChat(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{chatReply: "the answer"}
	s := newTestService(t, llm)

	resp := s.Generate(context.Background(), Request{
		Mode:   types.ModeChat,
		Prompt: "what is entropy?",
		Sources: []types.Source{
			{ID: "s1", Title: "Thermo notes", Kind: types.SourceText, Content: "entropy is disorder"},
		},
		History: []types.ChatMessage{
			{Role: types.RoleUser, Content: "hi"},
			{Role: types.RoleAssistant, Content: "hello"},
		},
	})

	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.Text != "the answer" {
		t.Fatalf("text: got=%q", resp.Text)
	}
	if len(llm.lastHistory) != 2 {
		t.Fatalf("history: got=%d want=2", len(llm.lastHistory))
	}
	if !strings.Contains(llm.lastSystem, "Thermo notes") {
		t.Fatal("source context missing from system prompt")
	}
}

func TestGenerateQuizFromJSON(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{textReply: `{"questions":[{"question":"2+2?","options":["3","4","5","6"],"answer":1}]}`}
	s := newTestService(t, llm)

	resp := s.Generate(context.Background(), Request{Mode: types.ModeQuiz})
	if resp.Quiz == nil {
		t.Fatal("quiz payload missing")
	}
	if len(resp.Quiz.Questions) != 1 || resp.Quiz.Questions[0].Answer != 1 {
		t.Fatalf("quiz: got=%+v", resp.Quiz)
	}
}

func TestGenerateQuizProviderError(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{textErr: errors.New("upstream 500")}
	s := newTestService(t, llm)

	resp := s.Generate(context.Background(), Request{Mode: types.ModeQuiz})
	if resp.Error == "" {
		t.Fatal("expected provider error surfaced")
	}
	if resp.Quiz != nil {
		t.Fatal("no quiz payload expected on provider error")
	}
}

func TestGenerateQuizProseFallback(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{textReply: "Вот ответ без JSON"}
	s := newTestService(t, llm)

	resp := s.Generate(context.Background(), Request{Mode: types.ModeQuiz})
	if resp.Quiz == nil {
		t.Fatal("quiz result missing")
	}
	if len(resp.Quiz.Questions) != 0 {
		t.Fatalf("questions: got=%d want=0", len(resp.Quiz.Questions))
	}
	if resp.Quiz.Message != "Вот ответ без JSON" {
		t.Fatalf("message: got=%q", resp.Quiz.Message)
	}
}

func TestGenerateInfographicTextFallback(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{textReply: "Sorry, here is prose instead of JSON."}
	s := newTestService(t, llm)

	resp := s.Generate(context.Background(), Request{Mode: types.ModeInfographic})
	if resp.Infographic != nil {
		t.Fatal("no infographic expected")
	}
	if resp.Text != llm.textReply {
		t.Fatalf("text fallback: got=%q", resp.Text)
	}
}

func TestGenerateFlashcards(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{textReply: "```json\n{\"cards\":[{\"front\":\"a\",\"back\":\"b\"}]}\n```"}
	s := newTestService(t, llm)

	resp := s.Generate(context.Background(), Request{Mode: types.ModeFlashcards})
	if resp.Flashcards == nil {
		t.Fatal("flashcards payload missing")
	}
	if len(resp.Flashcards.Cards) != 1 {
		t.Fatalf("cards: got=%d want=1", len(resp.Flashcards.Cards))
	}
}

func TestGenerateImage(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{textReply: "a diagram of the water cycle"}
	s := newTestService(t, llm)

	resp := s.Generate(context.Background(), Request{Mode: types.ModeImage, Prompt: "water cycle"})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.Image == "" {
		t.Fatal("image payload missing")
	}
	if llm.imageCalls != 1 {
		t.Fatalf("image calls: got=%d want=1", llm.imageCalls)
	}
}

func TestGenerateAudioProject(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{textReply: `{"title":"Entropy talk","lines":[
		{"speaker":"Nova","text":"Welcome!"},
		{"speaker":"Orion","text":"Today: entropy."}
	]}`}
	s := newTestService(t, llm)

	resp := s.Generate(context.Background(), Request{Mode: types.ModeAudio})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.AudioProject == nil {
		t.Fatal("audio project missing")
	}
	if resp.AudioProject.Title != "Entropy talk" {
		t.Fatalf("title: got=%q", resp.AudioProject.Title)
	}
	if !strings.HasPrefix(resp.AudioProject.AudioURL, "data:audio/wav;base64,") {
		t.Fatalf("audio url prefix: got=%q", resp.AudioProject.AudioURL)
	}
}

func TestGenerateAudioScriptUnusable(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{textReply: "no dialogue to be found"}
	s := newTestService(t, llm)

	resp := s.Generate(context.Background(), Request{Mode: types.ModeAudio})
	if resp.Error == "" {
		t.Fatal("expected error when no dialogue lines recovered")
	}
}

func TestGenerateAudioAllChunksFail(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{
		textReply: `{"lines":[{"speaker":"Nova","text":"hello"}]}`,
		speechErr: errors.New("tts down"),
	}
	s := newTestService(t, llm)

	resp := s.Generate(context.Background(), Request{Mode: types.ModeAudio})
	if resp.Error == "" {
		t.Fatal("expected error when every chunk fails")
	}
}

func TestGenerateVideoWithPartialMediaFailure(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{
		textReply: `{"title":"Cells","scenes":[
			{"text":"Scene one narration.","visual":"a cell"},
			{"text":"Scene two narration.","visual":"a nucleus"}
		]}`,
		imageErr: errors.New("image provider down"),
	}
	s := newTestService(t, llm)

	resp := s.Generate(context.Background(), Request{Mode: types.ModeVideo})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.Video == nil || len(resp.Video.Scenes) != 2 {
		t.Fatalf("video: got=%+v", resp.Video)
	}
	for i, scene := range resp.Video.Scenes {
		if scene.Image != "" {
			t.Fatalf("scene %d image should be empty on provider failure", i)
		}
		if !strings.HasPrefix(scene.Audio, "data:audio/wav;base64,") {
			t.Fatalf("scene %d audio missing", i)
		}
	}
}

func TestGenerateVideoScriptFallback(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{textReply: "just prose, no scene JSON"}
	s := newTestService(t, llm)

	resp := s.Generate(context.Background(), Request{Mode: types.ModeVideo})
	if resp.Video != nil {
		t.Fatal("no video expected")
	}
	if resp.Text != llm.textReply {
		t.Fatalf("text fallback: got=%q", resp.Text)
	}
}

func TestDialogueSynthesizerVoiceSelection(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{}
	d := &dialogueSynthesizer{llm: llm, speakers: DefaultConfig().Speakers}

	_, err := d.SynthesizeDialogue(context.Background(), []types.DialogueLine{
		{Speaker: "Orion", Text: "solo chunk"},
	})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if llm.speechVoices[0] != "onyx" {
		t.Fatalf("voice: got=%q want=%q", llm.speechVoices[0], "onyx")
	}

	_, err = d.SynthesizeDialogue(context.Background(), []types.DialogueLine{
		{Speaker: "Nova", Text: "one"},
		{Speaker: "Orion", Text: "two"},
	})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if llm.speechVoices[1] != "nova" {
		t.Fatalf("mixed chunk voice: got=%q want=%q", llm.speechVoices[1], "nova")
	}
}
