package extract

import (
	"testing"

	"github.com/miraverse/miraverse-backend/internal/types"
)

func TestInfographicParsing(t *testing.T) {
	t.Parallel()

	raw := "Here you go:\n```json\n" +
		`{"title":"Photosynthesis","takeaway":"Light becomes sugar.","blocks":[
			{"title":"Inputs","content":"Water, CO2 and light."},
			{"title":"Broken","contents":"wrong key"},
			{"title":"Outputs","content":"Glucose and oxygen."}
		]}` + "\n```"

	info, ok := Infographic(raw)
	if !ok {
		t.Fatal("expected a parse")
	}
	if info.Title != "Photosynthesis" || info.Takeaway != "Light becomes sugar." {
		t.Fatalf("header: got=%+v", info)
	}
	if len(info.Blocks) != 2 {
		t.Fatalf("blocks: got=%d want=2", len(info.Blocks))
	}
}

func TestInfographicRejectsEmptyBlocks(t *testing.T) {
	t.Parallel()

	if _, ok := Infographic(`{"title":"Empty","blocks":[]}`); ok {
		t.Fatal("zero blocks must reject the parse")
	}
	if _, ok := Infographic("no json here"); ok {
		t.Fatal("prose must reject the parse")
	}
}

func TestSlidesParsing(t *testing.T) {
	t.Parallel()

	raw := `{"title":"Cell Biology","slides":[
		{"title":"The Cell","bullets":["membrane","cytoplasm",42]},
		{"title":"No bullets","bullets":[]},
		{"title":"Organelles","bullets":["mitochondria"]}
	]}`

	deck, ok := Slides(raw)
	if !ok {
		t.Fatal("expected a parse")
	}
	if len(deck.Slides) != 2 {
		t.Fatalf("slides: got=%d want=2", len(deck.Slides))
	}
	if len(deck.Slides[0].Bullets) != 2 {
		t.Fatalf("non-string bullet kept: got=%v", deck.Slides[0].Bullets)
	}
}

func TestFlashcardsDefaultTitle(t *testing.T) {
	t.Parallel()

	set, ok := Flashcards(`{"cards":[{"front":"ATP","back":"Energy currency"},{"front":"broken"}]}`)
	if !ok {
		t.Fatal("expected a parse")
	}
	if set.Title != DefaultFlashcardTitle {
		t.Fatalf("title: got=%q want=%q", set.Title, DefaultFlashcardTitle)
	}
	if len(set.Cards) != 1 {
		t.Fatalf("cards: got=%d want=1", len(set.Cards))
	}
}

func TestDialogueJSONAndFallback(t *testing.T) {
	t.Parallel()

	title, lines := Dialogue(`{"title":"Entropy","lines":[{"speaker":"Nova","text":"Hi!"},{"speaker":"Orion","text":"Welcome."}]}`)
	if title != "Entropy" || len(lines) != 2 {
		t.Fatalf("json dialogue: title=%q lines=%d", title, len(lines))
	}

	title, lines = Dialogue("Nova: Hello there.\nsome stage direction\nOrion: Good to be here.")
	if title != "" {
		t.Fatalf("fallback title: got=%q", title)
	}
	want := []types.DialogueLine{
		{Speaker: "Nova", Text: "Hello there."},
		{Speaker: "Orion", Text: "Good to be here."},
	}
	if len(lines) != len(want) {
		t.Fatalf("fallback lines: got=%d want=%d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: got=%+v want=%+v", i, lines[i], want[i])
		}
	}
}

func TestVideoScriptParsing(t *testing.T) {
	t.Parallel()

	script, ok := VideoScript(`{"title":"Water Cycle","scenes":[
		{"text":"Rain falls.","visual":"storm clouds over hills"},
		{"text":"","visual":"skipped"},
		{"text":"Rivers flow.","visual":""}
	]}`)
	if !ok {
		t.Fatal("expected a parse")
	}
	if script.Title != "Water Cycle" || len(script.Scenes) != 2 {
		t.Fatalf("script: got=%+v", script)
	}
	if script.Scenes[1].Visual != "" {
		t.Fatalf("visual: got=%q want empty", script.Scenes[1].Visual)
	}

	if _, ok := VideoScript("nothing structured"); ok {
		t.Fatal("prose must reject the parse")
	}
}
