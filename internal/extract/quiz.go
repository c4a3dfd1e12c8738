package extract

import (
	"regexp"
	"strings"

	"github.com/miraverse/miraverse-backend/internal/types"
)

// QuizReadyMessage is attached to any quiz where at least one question was
// recovered from the model output.
const QuizReadyMessage = "Quiz is ready!"

var questionsFragmentRe = regexp.MustCompile(`(?s)"questions"\s*:\s*\[.*\]`)

// Quiz converts raw model text into a quiz. It never fails: when no question
// can be recovered by any strategy the result carries the original text as
// its message and an empty question list.
func Quiz(raw string) *types.QuizResult {
	for _, candidate := range quizCandidates(raw) {
		obj, ok := parseObject(candidate)
		if !ok {
			continue
		}
		questions := validQuestions(obj)
		if len(questions) > 0 {
			return &types.QuizResult{Questions: questions, Message: QuizReadyMessage}
		}
	}

	if questions := scanMarkdownQuiz(raw); len(questions) > 0 {
		return &types.QuizResult{Questions: questions, Message: QuizReadyMessage}
	}

	return &types.QuizResult{Message: raw}
}

// quizCandidates extends the shared candidate list with a pattern-matched
// `"questions": [...]` fragment wrapped into a minimal object, raw and
// normalized.
func quizCandidates(raw string) []string {
	out := jsonCandidates(raw)
	if frag := questionsFragmentRe.FindString(raw); frag != "" {
		wrapped := "{" + frag + "}"
		out = append(out, wrapped, normalizeJSONText(wrapped))
	}
	return out
}

// validQuestions filters the parsed object down to questions that satisfy
// the invariants: a string question and exactly four string options. The
// answer index is coerced to a number, defaulting to 0.
func validQuestions(obj map[string]any) []types.QuizQuestion {
	arr, ok := sliceField(obj, "questions")
	if !ok {
		return nil
	}
	out := make([]types.QuizQuestion, 0, len(arr))
	for _, item := range arr {
		entry, ok := objectItem(item)
		if !ok {
			continue
		}
		question, ok := stringField(entry, "question")
		if !ok || strings.TrimSpace(question) == "" {
			continue
		}
		rawOptions, ok := sliceField(entry, "options")
		if !ok || len(rawOptions) != 4 {
			continue
		}
		options := make([]string, 0, 4)
		for _, o := range rawOptions {
			s, ok := o.(string)
			if !ok {
				break
			}
			options = append(options, s)
		}
		if len(options) != 4 {
			continue
		}
		answer := numberOr(entry["answer"], 0)
		if answer < 0 || answer > 3 {
			answer = 0
		}
		out = append(out, types.QuizQuestion{
			Question: question,
			Options:  options,
			Answer:   answer,
		})
	}
	return out
}
