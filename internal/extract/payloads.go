package extract

import (
	"strings"

	"github.com/miraverse/miraverse-backend/internal/types"
)

// DefaultFlashcardTitle fills in when the model omits a usable title.
const DefaultFlashcardTitle = "Flashcards"

// Infographic parses raw model text into an infographic. Blocks missing
// either required string are dropped; a nil result signals the caller to
// fall back to plain-text display.
func Infographic(raw string) (*types.Infographic, bool) {
	obj, ok := parsePayloadObject(raw)
	if !ok {
		return nil, false
	}
	title, ok := stringField(obj, "title")
	if !ok || strings.TrimSpace(title) == "" {
		return nil, false
	}
	rawBlocks, ok := sliceField(obj, "blocks")
	if !ok {
		return nil, false
	}
	blocks := make([]types.InfographicBlock, 0, len(rawBlocks))
	for _, item := range rawBlocks {
		entry, ok := objectItem(item)
		if !ok {
			continue
		}
		blockTitle, okT := stringField(entry, "title")
		content, okC := stringField(entry, "content")
		if !okT || !okC {
			continue
		}
		blocks = append(blocks, types.InfographicBlock{Title: blockTitle, Content: content})
	}
	if len(blocks) == 0 {
		return nil, false
	}
	out := &types.Infographic{Title: title, Blocks: blocks}
	if takeaway, ok := stringField(obj, "takeaway"); ok {
		out.Takeaway = takeaway
	}
	return out, true
}

// Slides parses raw model text into a slide deck. Non-string bullets are
// discarded; a slide whose bullet list ends up empty is dropped; zero
// surviving slides rejects the whole parse.
func Slides(raw string) (*types.SlideDeck, bool) {
	obj, ok := parsePayloadObject(raw)
	if !ok {
		return nil, false
	}
	title, ok := stringField(obj, "title")
	if !ok || strings.TrimSpace(title) == "" {
		return nil, false
	}
	rawSlides, ok := sliceField(obj, "slides")
	if !ok {
		return nil, false
	}
	slides := make([]types.Slide, 0, len(rawSlides))
	for _, item := range rawSlides {
		entry, ok := objectItem(item)
		if !ok {
			continue
		}
		slideTitle, ok := stringField(entry, "title")
		if !ok {
			continue
		}
		rawBullets, ok := sliceField(entry, "bullets")
		if !ok {
			continue
		}
		bullets := make([]string, 0, len(rawBullets))
		for _, b := range rawBullets {
			if s, ok := b.(string); ok {
				bullets = append(bullets, s)
			}
		}
		if len(bullets) == 0 {
			continue
		}
		slides = append(slides, types.Slide{Title: slideTitle, Bullets: bullets})
	}
	if len(slides) == 0 {
		return nil, false
	}
	return &types.SlideDeck{Title: title, Slides: slides}, true
}

// Flashcards parses raw model text into a card set. Cards missing a string
// front or back are dropped; the title defaults when absent or non-string.
func Flashcards(raw string) (*types.FlashcardSet, bool) {
	obj, ok := parsePayloadObject(raw)
	if !ok {
		return nil, false
	}
	rawCards, ok := sliceField(obj, "cards")
	if !ok {
		return nil, false
	}
	cards := make([]types.Flashcard, 0, len(rawCards))
	for _, item := range rawCards {
		entry, ok := objectItem(item)
		if !ok {
			continue
		}
		front, okF := stringField(entry, "front")
		back, okB := stringField(entry, "back")
		if !okF || !okB {
			continue
		}
		cards = append(cards, types.Flashcard{Front: front, Back: back})
	}
	if len(cards) == 0 {
		return nil, false
	}
	title := DefaultFlashcardTitle
	if t, ok := stringField(obj, "title"); ok && strings.TrimSpace(t) != "" {
		title = t
	}
	return &types.FlashcardSet{Title: title, Cards: cards}, true
}

// Dialogue parses a podcast script response into attributed lines. It first
// tries the JSON shape {"title","lines":[{"speaker","text"}]} through the
// shared candidates, then falls back to "Speaker: text" line splitting.
func Dialogue(raw string) (title string, lines []types.DialogueLine) {
	for _, candidate := range jsonCandidates(raw) {
		obj, ok := parseObject(candidate)
		if !ok {
			continue
		}
		rawLines, ok := sliceField(obj, "lines")
		if !ok {
			continue
		}
		parsed := make([]types.DialogueLine, 0, len(rawLines))
		for _, item := range rawLines {
			entry, ok := objectItem(item)
			if !ok {
				continue
			}
			speaker, okS := stringField(entry, "speaker")
			text, okT := stringField(entry, "text")
			if !okS || !okT || strings.TrimSpace(text) == "" {
				continue
			}
			parsed = append(parsed, types.DialogueLine{Speaker: strings.TrimSpace(speaker), Text: text})
		}
		if len(parsed) > 0 {
			t, _ := stringField(obj, "title")
			return strings.TrimSpace(t), parsed
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		line = cleanMarkdownLine(line)
		speaker, text, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		speaker = strings.TrimSpace(speaker)
		text = strings.TrimSpace(text)
		if speaker == "" || text == "" || strings.ContainsAny(speaker, " \t") {
			continue
		}
		lines = append(lines, types.DialogueLine{Speaker: speaker, Text: text})
	}
	return "", lines
}

// VideoScript parses a scene-script response: {"title","scenes":[{"text","visual"}]}.
func VideoScript(raw string) (*types.VideoScript, bool) {
	for _, candidate := range jsonCandidates(raw) {
		obj, ok := parseObject(candidate)
		if !ok {
			continue
		}
		rawScenes, ok := sliceField(obj, "scenes")
		if !ok {
			continue
		}
		scenes := make([]types.VideoScene, 0, len(rawScenes))
		for _, item := range rawScenes {
			entry, ok := objectItem(item)
			if !ok {
				continue
			}
			text, okT := stringField(entry, "text")
			visual, okV := stringField(entry, "visual")
			if !okT || strings.TrimSpace(text) == "" {
				continue
			}
			if !okV {
				visual = ""
			}
			scenes = append(scenes, types.VideoScene{Text: text, Visual: visual})
		}
		if len(scenes) == 0 {
			continue
		}
		title, _ := stringField(obj, "title")
		return &types.VideoScript{Title: strings.TrimSpace(title), Scenes: scenes}, true
	}
	return nil, false
}

// parsePayloadObject is the non-quiz entry: strip fences, then try the
// stripped text, its brace slice, and normalized forms.
func parsePayloadObject(raw string) (map[string]any, bool) {
	stripped := stripCodeFences(raw)
	if obj, ok := parseObject(stripped); ok {
		return obj, true
	}
	for _, candidate := range jsonCandidates(raw) {
		if obj, ok := parseObject(candidate); ok {
			return obj, true
		}
	}
	return nil, false
}
