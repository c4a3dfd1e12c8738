package types

import "github.com/google/uuid"

// SourceKind tags where a study source came from.
type SourceKind string

const (
	SourceFile    SourceKind = "file"
	SourceLink    SourceKind = "link"
	SourceYouTube SourceKind = "youtube"
	SourceText    SourceKind = "text"
)

// Source is one study document added by the user. Immutable once created;
// referenced by ID in selection sets and never mutated, only removed from
// the active set client-side.
type Source struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Kind      SourceKind `json:"kind"`
	Content   string     `json:"content"`
	OriginURL string     `json:"originUrl,omitempty"`
	Summary   string     `json:"summary,omitempty"`
}

func NewSourceID() string { return uuid.NewString() }

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of the append-only conversation history.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// Mode selects which content-generation task and output shape is requested.
type Mode string

const (
	ModeChat        Mode = "chat"
	ModeQuiz        Mode = "quiz"
	ModeFlashcards  Mode = "flashcards"
	ModeSlides      Mode = "slides"
	ModeInfographic Mode = "infographic"
	ModeImage       Mode = "image"
	ModeVideo       Mode = "video"
	ModeAudio       Mode = "audio"
	ModePlan        Mode = "plan"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeChat, ModeQuiz, ModeFlashcards, ModeSlides, ModeInfographic,
		ModeImage, ModeVideo, ModeAudio, ModePlan:
		return true
	}
	return false
}

type ArtifactStatus string

const (
	StatusLoading ArtifactStatus = "loading"
	StatusReady   ArtifactStatus = "ready"
	StatusError   ArtifactStatus = "error"
)

// QuizQuestion always carries exactly four options; Answer and UserAnswer
// index into Options. UserAnswer is set at most once (first answer locks).
type QuizQuestion struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Answer     int      `json:"answer"`
	UserAnswer *int     `json:"userAnswer,omitempty"`
}

type InfographicBlock struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type Infographic struct {
	Title    string             `json:"title"`
	Blocks   []InfographicBlock `json:"blocks"`
	Takeaway string             `json:"takeaway,omitempty"`
}

type Slide struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
	Image   string   `json:"image,omitempty"`
}

type SlideDeck struct {
	Title  string  `json:"title"`
	Slides []Slide `json:"slides"`
}

type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type FlashcardSet struct {
	Title string      `json:"title"`
	Cards []Flashcard `json:"cards"`
}

// DialogueLine is one attributed line of a generated podcast script.
// Transient; consumed in chunks by the audio assembler.
type DialogueLine struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type VideoScene struct {
	Text   string `json:"text"`
	Visual string `json:"visual"`
	Image  string `json:"image,omitempty"`
	Audio  string `json:"audio,omitempty"`
}

type VideoScript struct {
	Title  string       `json:"title"`
	Scenes []VideoScene `json:"scenes"`
}

type AudioProject struct {
	Title    string `json:"title"`
	AudioURL string `json:"audioUrl"`
}

// GeneratedArtifact is one generated result record tracked through
// loading/ready/error. At most one typed payload is set.
type GeneratedArtifact struct {
	ID      string         `json:"id"`
	Mode    Mode           `json:"mode"`
	Title   string         `json:"title"`
	Status  ArtifactStatus `json:"status"`
	RawText string         `json:"rawText,omitempty"`

	Quiz         *QuizResult   `json:"quiz,omitempty"`
	Infographic  *Infographic  `json:"infographic,omitempty"`
	Slides       *SlideDeck    `json:"slides,omitempty"`
	Flashcards   *FlashcardSet `json:"flashcards,omitempty"`
	Video        *VideoScript  `json:"video,omitempty"`
	AudioProject *AudioProject `json:"audioProject,omitempty"`
	Image        string        `json:"image,omitempty"`
}

// QuizResult is what the quiz extractor produces: recovered questions plus
// a message (the fixed ready string, or the raw model text when nothing
// could be recovered).
type QuizResult struct {
	Questions []QuizQuestion `json:"questions,omitempty"`
	Message   string         `json:"message"`
}
