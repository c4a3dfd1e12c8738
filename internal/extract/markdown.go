package extract

import (
	"regexp"
	"strings"

	"github.com/miraverse/miraverse-backend/internal/types"
)

// Last-resort quiz recovery for responses where the model ignored the JSON
// instruction and answered in numbered markdown. The scan is a fold over
// lines carrying the finished questions and the one being accumulated.

var (
	questionLineRe = regexp.MustCompile(`^\s*(\d+)[).]\s*(\S.*)$`)
	optionLineRe   = regexp.MustCompile(`^\s*([A-Da-dА-Га-г])[).]\s*(\S.*)$`)
	boldMarkerRe   = regexp.MustCompile(`\*\*|__`)
	headingRe      = regexp.MustCompile(`^#+\s*`)

	// Best-effort marker set; locale- and phrasing-specific by nature.
	correctMarkers = []string{"✔", "✅", "correct", "right answer", "верно", "правильно"}

	correctSuffixRe = regexp.MustCompile(`(?i)\s*[(\[]?\s*(✔|✅|correct|right answer|верно|правильно)[!. ]*\s*[)\]]?\s*$`)
)

type quizScan struct {
	finished []types.QuizQuestion
	pending  *types.QuizQuestion
	answered bool
}

// scanMarkdownQuiz walks cleaned non-empty lines looking for "1) question"
// lines followed by up to four "A) option" lines (Latin or Cyrillic letters).
// A question is flushed only once it holds exactly four options.
func scanMarkdownQuiz(raw string) []types.QuizQuestion {
	acc := quizScan{}
	for _, line := range strings.Split(raw, "\n") {
		line = cleanMarkdownLine(line)
		if line == "" {
			continue
		}
		acc = acc.step(line)
	}
	return acc.flush().finished
}

func (s quizScan) step(line string) quizScan {
	if m := questionLineRe.FindStringSubmatch(line); m != nil {
		next := s.flush()
		next.pending = &types.QuizQuestion{Question: strings.TrimSpace(m[2])}
		return next
	}
	if s.pending == nil || len(s.pending.Options) >= 4 {
		return s
	}
	m := optionLineRe.FindStringSubmatch(line)
	if m == nil {
		return s
	}
	text := strings.TrimSpace(m[2])
	if hasCorrectMarker(text) {
		// First marker wins; later marked options keep their marker stripped
		// but do not move the answer.
		if !s.answered {
			s.pending.Answer = len(s.pending.Options)
			s.answered = true
		}
		text = stripCorrectMarker(text)
	}
	s.pending.Options = append(s.pending.Options, text)
	return s
}

func (s quizScan) flush() quizScan {
	if s.pending != nil && len(s.pending.Options) == 4 {
		s.finished = append(s.finished, *s.pending)
	}
	s.pending = nil
	s.answered = false
	return s
}

func cleanMarkdownLine(line string) string {
	line = boldMarkerRe.ReplaceAllString(line, "")
	line = headingRe.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

func hasCorrectMarker(text string) bool {
	low := strings.ToLower(text)
	for _, marker := range correctMarkers {
		if strings.Contains(low, marker) {
			return true
		}
	}
	return false
}

func stripCorrectMarker(text string) string {
	cleaned := strings.TrimSpace(correctSuffixRe.ReplaceAllString(text, ""))
	if cleaned == "" {
		return text
	}
	return cleaned
}
