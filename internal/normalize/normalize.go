// Package normalize recovers a single JSON object from raw model output.
//
// Model responses may wrap the object in prose or markdown fences, and may be
// cut short or carry a stray trailing comma. Recovery is bounded: one strict
// parse, one repair pass, one reparse. It never guesses field values.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse indicates no valid JSON object could be recovered.
var ErrMalformedResponse = errors.New("malformed model response")

// Validator checks a decoded value after extraction.
type Validator[T any] func(T) error

// Normalize extracts the JSON object embedded in raw and decodes it into a map.
func Normalize(raw string) (map[string]any, error) {
	data, err := Extract(raw)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return obj, nil
}

// Decode extracts the JSON object embedded in raw and decodes it into T.
// If validate is non-nil it runs on the decoded value.
func Decode[T any](raw string, validate Validator[T]) (T, error) {
	var zero T

	data, err := Extract(raw)
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if validate != nil {
		if err := validate(out); err != nil {
			return zero, fmt.Errorf("%w: validation failed: %v", ErrMalformedResponse, err)
		}
	}
	return out, nil
}

// Extract returns the bytes of a syntactically valid JSON object found in raw.
func Extract(raw string) ([]byte, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	candidate := raw[start : end+1]
	if isObject(candidate) {
		return []byte(candidate), nil
	}

	repaired := repair(candidate)
	if isObject(repaired) {
		return []byte(repaired), nil
	}
	return nil, fmt.Errorf("%w: unrecoverable JSON", ErrMalformedResponse)
}

// isObject reports whether s parses as exactly one JSON object.
func isObject(s string) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &obj) == nil
}

// repair applies the two bounded heuristics in order: drop trailing commas
// that sit directly before a closing bracket, then close a single dangling
// array or object. More than one unclosed level is left alone.
func repair(s string) string {
	s = stripTrailingCommas(s)

	open := unclosed(s)
	if len(open) == 1 {
		s = strings.TrimRight(s, " \t\r\n")
		s = strings.TrimSuffix(s, ",")
		s += string(closerFor(open[0]))
	}
	return s
}

// stripTrailingCommas removes commas that are followed only by whitespace and
// then '}' or ']', outside of string literals.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' && inString {
			b.WriteByte(c)
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			b.WriteByte(c)
			continue
		}
		if !inString && c == ',' {
			if next := nextNonSpace(s, i+1); next == '}' || next == ']' {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// unclosed returns the stack of '{' and '[' left open at the end of s.
// Stray closers are ignored; the reparse rejects them.
func unclosed(s string) []byte {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == openerFor(c) {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return stack
}

func nextNonSpace(s string, i int) byte {
	for ; i < len(s); i++ {
		switch s[i] {
		case ' ', '\n', '\r', '\t':
			continue
		default:
			return s[i]
		}
	}
	return 0
}

func closerFor(open byte) byte {
	if open == '[' {
		return ']'
	}
	return '}'
}

func openerFor(close byte) byte {
	if close == ']' {
		return '['
	}
	return '{'
}
