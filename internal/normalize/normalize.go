// Package normalize turns arbitrary automation-endpoint responses into a
// structured record. The endpoint is not guaranteed to return valid JSON:
// observed failure modes include stray prose around the object, trailing
// commentary, and embedded newlines. Normalization therefore degrades in
// stages and never fails.
package normalize

import (
	"encoding/json"
	"strings"
)

// Result is a best-effort structured view of an automation response.
// Empty string means the field was absent. At least one field is always
// populated: when no parse strategy succeeds, Raw carries the cleaned text.
type Result struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Raw         string `json:"raw,omitempty"`
}

// Normalize accepts a decoded object, raw bytes, or a string and extracts a
// Result. Parse order for text input: strict JSON, first {...} span, first
// [...] span, then raw fallback.
func Normalize(raw any) Result {
	switch v := raw.(type) {
	case map[string]any:
		return fromObject(v)
	case []byte:
		return normalizeText(string(v))
	case string:
		return normalizeText(v)
	case nil:
		return Result{Raw: ""}
	default:
		// Anything already decoded but not an object (number, array, bool)
		// has no fields to extract.
		return normalizeText(stringify(v))
	}
}

func normalizeText(raw string) Result {
	cleaned := Clean(raw)

	var decoded any
	if err := json.Unmarshal([]byte(cleaned), &decoded); err == nil {
		return fromDecoded(decoded, cleaned)
	}
	if span, ok := spanBetween(cleaned, '{', '}'); ok {
		if err := json.Unmarshal([]byte(span), &decoded); err == nil {
			return fromDecoded(decoded, cleaned)
		}
	}
	if span, ok := spanBetween(cleaned, '[', ']'); ok {
		if err := json.Unmarshal([]byte(span), &decoded); err == nil {
			return fromDecoded(decoded, cleaned)
		}
	}
	return Result{Raw: cleaned}
}

// Clean strips a leading BOM, collapses line breaks to single spaces,
// removes non-printable control characters (tabs survive), and trims
// surrounding space.
func Clean(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r < 0x20 && r != '\t') || r == 0x7F {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// spanBetween returns the widest substring from the first open delimiter to
// the last close delimiter. The original pipeline matched greedily rather
// than balancing brackets, and real responses depend on that.
func spanBetween(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(s, close)
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func fromDecoded(decoded any, cleaned string) Result {
	obj, ok := decoded.(map[string]any)
	if !ok {
		// Valid JSON but not an object (array, scalar): nothing to extract.
		return Result{Raw: cleaned}
	}
	return fromObject(obj)
}

func fromObject(obj map[string]any) Result {
	res := Result{
		Title:       firstString(obj, "title", "titulo"),
		Description: firstString(obj, "description", "descripcion"),
		DueDate:     firstString(obj, "due_date"),
	}
	if res.Title == "" && res.Description == "" && res.DueDate == "" {
		res.Raw = firstString(obj, "raw")
		if res.Raw == "" {
			res.Raw = stringify(obj)
		}
	}
	return res
}

func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func stringify(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
