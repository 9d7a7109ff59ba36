// Package parse recovers structured JSON from free-form LLM output.
//
// Model responses routinely wrap JSON in markdown fences, prepend prose, or
// concatenate several objects. Every extraction strategy here is attempted
// in order and the first success wins; total failure is reported as ok=false
// so callers can tell "the model returned []" apart from "nothing parsed".
package parse

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Shape names the top-level JSON value a caller expects.
type Shape int

const (
	ShapeArray Shape = iota
	ShapeObject
)

var fencedBlock = regexp.MustCompile("(?is)```(?:json)?\\s*\\n?(.*?)\\n?\\s*```")

// Extract pulls the first JSON value of the expected shape out of raw.
// Strategies, in order: fenced code block, whole response, first-to-last
// bracket substring. Returns ok=false when nothing parses.
func Extract(raw string, shape Shape) (json.RawMessage, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil, false
	}

	// 1. Fenced code blocks, labeled json or unlabeled.
	for _, m := range fencedBlock.FindAllStringSubmatch(cleaned, -1) {
		if v, ok := validShape(m[1], shape); ok {
			return v, true
		}
	}

	// 2. The entire trimmed response.
	if v, ok := validShape(cleaned, shape); ok {
		return v, true
	}

	// 3. First opener to matching last closer.
	open, closer := "[", "]"
	if shape == ShapeObject {
		open, closer = "{", "}"
	}
	start := strings.Index(cleaned, open)
	end := strings.LastIndex(cleaned, closer)
	if start >= 0 && end > start {
		if v, ok := validShape(cleaned[start:end+1], shape); ok {
			return v, true
		}
	}

	return nil, false
}

// Fragments scans raw for every balanced bracket-delimited substring and
// returns each one that parses on its own. Used by callers that accept a
// list of partial results from a response with several concatenated values.
func Fragments(raw string) []json.RawMessage {
	var frags []json.RawMessage

	data := []byte(strings.TrimSpace(raw))
	for i := 0; i < len(data); i++ {
		if data[i] != '[' && data[i] != '{' {
			continue
		}
		end, ok := balancedEnd(data, i)
		if !ok {
			continue
		}
		candidate := data[i : end+1]
		if json.Valid(candidate) {
			frag := make(json.RawMessage, len(candidate))
			copy(frag, candidate)
			frags = append(frags, frag)
			i = end
		}
	}

	return frags
}

// Array extracts a JSON array from raw and unmarshals it into out, which
// must be a pointer to a slice. ok=false means no array could be recovered;
// an empty model answer "[]" is ok=true with a zero-length slice.
func Array(raw string, out any) bool {
	v, ok := Extract(raw, ShapeArray)
	if !ok {
		return false
	}
	return json.Unmarshal(v, out) == nil
}

// Object extracts a JSON object from raw and unmarshals it into out.
func Object(raw string, out any) bool {
	v, ok := Extract(raw, ShapeObject)
	if !ok {
		return false
	}
	return json.Unmarshal(v, out) == nil
}

func validShape(candidate string, shape Shape) (json.RawMessage, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return nil, false
	}

	want := byte('[')
	if shape == ShapeObject {
		want = '{'
	}
	if candidate[0] != want {
		return nil, false
	}
	if !json.Valid([]byte(candidate)) {
		return nil, false
	}
	return json.RawMessage(candidate), true
}

// balancedEnd finds the index of the bracket closing the one at start,
// ignoring brackets inside JSON string literals.
func balancedEnd(data []byte, start int) (int, bool) {
	open := data[start]
	closer := byte(']')
	if open == '{' {
		closer = '}'
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(data); i++ {
		c := data[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return 0, false
}
