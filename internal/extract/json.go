package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// The model is not contractually guaranteed to emit valid JSON even when
// instructed to. Each structured mode therefore runs an ordered list of
// candidate producers over the raw text and takes the first candidate that
// both parses and survives shape validation. All functions here are pure.

var (
	fencedJSONRe    = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	anyFenceRe      = regexp.MustCompile("```[a-zA-Z]*")
	trailingCommaRe = regexp.MustCompile(`,\s*([\]}])`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)
)

// fencedJSONBlock returns the body of the first ```json fenced block, if any.
func fencedJSONBlock(raw string) (string, bool) {
	m := fencedJSONRe.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	body := strings.TrimSpace(m[1])
	if body == "" {
		return "", false
	}
	return body, true
}

// braceSlice returns the substring between the first '{' and the last '}'.
func braceSlice(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// normalizeJSONText applies the lenient repair transform: fences out,
// newlines to spaces, trailing commas before a closing bracket removed,
// whitespace runs collapsed.
func normalizeJSONText(s string) string {
	s = anyFenceRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "```", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	s = whitespaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// stripCodeFences removes fence markers but keeps the body intact.
func stripCodeFences(s string) string {
	s = anyFenceRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func parseObject(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// jsonCandidates yields parse candidates for raw model text in order of
// strictness: fenced block, brace slice, then the normalized form of each.
func jsonCandidates(raw string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	if body, ok := fencedJSONBlock(raw); ok {
		add(body)
	}
	if body, ok := braceSlice(raw); ok {
		add(body)
	}
	if body, ok := fencedJSONBlock(raw); ok {
		add(normalizeJSONText(body))
	}
	if body, ok := braceSlice(raw); ok {
		add(normalizeJSONText(body))
	}
	return out
}

// ---- typed field probing over map[string]any ----

func stringField(obj map[string]any, key string) (string, bool) {
	v, ok := obj[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return s, true
}

func sliceField(obj map[string]any, key string) ([]any, bool) {
	v, ok := obj[key]
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	return arr, true
}

func objectItem(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// numberOr coerces a loosely typed answer value to an int, falling back to
// def when the value is missing or non-numeric.
func numberOr(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return def
}
