package generate

import (
	"fmt"
	"strings"

	"github.com/miraverse/miraverse-backend/internal/types"
)

// Every structured mode instructs the model to return only JSON in a named
// shape. The extractor still treats the reply as hostile; these prompts just
// raise the odds of a clean parse.

const chatSystem = "You are Miraverse, a study assistant. Answer using the provided sources when they are relevant, and say so when they are not."

const planSystem = "You are Miraverse, a study planner. Produce a realistic day-by-day study plan in markdown for the provided sources, with time estimates per session."

func quizSystem(count int) string {
	var b strings.Builder
	b.WriteString("Create a multiple-choice quiz from the provided sources. Return ONLY JSON.\n")
	fmt.Fprintf(&b, "Write %d questions. Every question has exactly 4 options and one correct answer.\n", count)
	b.WriteString("JSON shape:\n")
	b.WriteString(`{
  "questions": [
    {"question": "string", "options": ["a", "b", "c", "d"], "answer": 0}
  ]
}`)
	return b.String()
}

const infographicSystem = `Design a one-page infographic from the provided sources. Return ONLY JSON.
JSON shape:
{
  "title": "string",
  "blocks": [{"title": "string", "content": "string"}],
  "takeaway": "string"
}`

const slidesSystem = `Create a slide deck from the provided sources. Return ONLY JSON.
JSON shape:
{
  "title": "string",
  "slides": [{"title": "string", "bullets": ["string"]}]
}`

const flashcardsSystem = `Create study flashcards from the provided sources. Return ONLY JSON.
JSON shape:
{
  "title": "string",
  "cards": [{"front": "string", "back": "string"}]
}`

func dialogueSystem(speakers []string) string {
	var b strings.Builder
	b.WriteString("Write a lively two-host study podcast discussing the provided sources. Return ONLY JSON.\n")
	fmt.Fprintf(&b, "Allowed speakers: %s.\n", strings.Join(speakers, ", "))
	b.WriteString("JSON shape:\n")
	b.WriteString(`{
  "title": "string",
  "lines": [{"speaker": "string", "text": "string"}]
}`)
	return b.String()
}

const videoSystem = `Write a narrated explainer-video script from the provided sources. Return ONLY JSON.
Each scene has narration text and a visual description for an illustrator.
JSON shape:
{
  "title": "string",
  "scenes": [{"text": "string", "visual": "string"}]
}`

const imageSystem = "You describe a single educational illustration. Reply with one vivid visual description only."

// sourceContext renders the selected sources into a prompt block. Content is
// already truncated to the context budget at ingestion time.
func sourceContext(sources []types.Source) string {
	if len(sources) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("SOURCES:\n")
	for i, src := range sources {
		fmt.Fprintf(&b, "--- Source %d: %s (%s) ---\n", i+1, src.Title, src.Kind)
		b.WriteString(src.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func userPrompt(prompt string, sources []types.Source) string {
	ctxBlock := sourceContext(sources)
	prompt = strings.TrimSpace(prompt)
	switch {
	case ctxBlock == "":
		return prompt
	case prompt == "":
		return ctxBlock
	default:
		return ctxBlock + "\nTASK: " + prompt
	}
}
