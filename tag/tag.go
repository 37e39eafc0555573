// Package tag implements the Tag value type: a validated key/value
// pair, and the chunk/list parsing rules used to turn a delimited
// string like "env:prod,team:infra" into a slice of Tags.
package tag

import (
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/multierr"
)

const replacementChar = '�'

// Tag is a validated key/value pair. The zero value is not a valid Tag;
// construct one with New or via ParseString.
type Tag struct {
	key   string
	value string
}

// New validates and builds a Tag. Construction fails when key is empty,
// when key contains only whitespace or the Unicode replacement character,
// or when the first non-whitespace, non-replacement character of key is
// ':'.
func New(key, value string) (Tag, error) {
	if key == "" {
		return Tag{}, fmt.Errorf("tag key was empty")
	}

	meaningful := 0
	firstMeaningful := rune(0)
	for _, r := range key {
		if r == replacementChar || unicode.IsSpace(r) {
			continue
		}
		meaningful++
		if meaningful == 1 {
			firstMeaningful = r
		}
	}
	if meaningful == 0 {
		return Tag{}, fmt.Errorf("tag contained only whitespace or UTF8 replacement characters")
	}
	if firstMeaningful == ':' {
		return Tag{}, fmt.Errorf("tag cannot start with a colon: %q", key)
	}

	return Tag{key: key, value: value}, nil
}

// Key returns the tag's key.
func (t Tag) Key() string { return t.key }

// Value returns the tag's value.
func (t Tag) Value() string { return t.value }

// String renders the tag as "key" if value is empty, or "key:value"
// otherwise -- exactly one colon between them regardless of any colons
// already present inside value.
func (t Tag) String() string {
	if t.value == "" {
		return t.key
	}
	return t.key + ":" + t.value
}

// ParseChunk parses a single "key[:value]" chunk. A leading colon is an
// error (see New); a trailing colon with nothing after it is accepted and
// yields an empty value, same as an absent colon -- see DESIGN.md for why
// this permissive reading was chosen over rejecting it outright.
func ParseChunk(chunk string) (Tag, error) {
	idx := strings.IndexByte(chunk, ':')
	if idx < 0 {
		return New(chunk, "")
	}
	return New(chunk[:idx], chunk[idx+1:])
}

// ParseString splits s on any run of commas or spaces, drops empty
// chunks, and parses each remaining chunk. It is best-effort: it returns
// every well-formed tag alongside a single aggregated error describing
// every malformed chunk, built with multierr.Combine so the caller gets
// one message instead of having to walk a slice of errors.
func ParseString(s string) ([]Tag, error) {
	chunks := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})

	var tags []Tag
	var errs []error
	for _, chunk := range chunks {
		t, err := ParseChunk(chunk)
		if err != nil {
			errs = append(errs, fmt.Errorf("%q: %w", chunk, err))
			continue
		}
		tags = append(tags, t)
	}

	if len(errs) == 0 {
		return tags, nil
	}
	return tags, fmt.Errorf("Errors while parsing tags: %w", multierr.Combine(errs...))
}
