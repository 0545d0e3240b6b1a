package filter

import (
	"regexp"
	"strings"

	"github.com/cuemby/reflex-dispatch/internal/event"
)

// Type matches events whose Type is one of the given discriminators.
type Type struct {
	Types []string
}

// NewType builds a Type filter for the given discriminators.
func NewType(types ...string) *Type { return &Type{Types: types} }

// Matches implements Filter.
func (f *Type) Matches(e event.Event, _ *Context) bool {
	for _, t := range f.Types {
		if e.Type == t {
			return true
		}
	}
	return false
}

// Source matches events whose Source matches a compiled regular
// expression.
type Source struct {
	pattern  string
	compiled *regexp.Regexp
}

// NewSource compiles pattern and returns a Source filter, or an error if
// the pattern is not a valid regular expression.
func NewSource(pattern string) (*Source, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Source{pattern: pattern, compiled: re}, nil
}

// MustNewSource is like NewSource but panics on an invalid pattern. Intended
// for package-level filter declarations where the pattern is a constant.
func MustNewSource(pattern string) *Source {
	f, err := NewSource(pattern)
	if err != nil {
		panic(err)
	}
	return f
}

// Matches implements Filter.
func (f *Source) Matches(e event.Event, _ *Context) bool {
	return f.compiled.MatchString(e.Source)
}

// Keyword matches events whose serialized form contains any of the given
// keywords.
type Keyword struct {
	Keywords      []string
	CaseSensitive bool
}

// NewKeyword builds a Keyword filter.
func NewKeyword(caseSensitive bool, keywords ...string) *Keyword {
	return &Keyword{Keywords: keywords, CaseSensitive: caseSensitive}
}

// Matches implements Filter.
func (f *Keyword) Matches(e event.Event, _ *Context) bool {
	raw, err := event.Marshal(e)
	if err != nil {
		return false
	}
	content := string(raw)
	if !f.CaseSensitive {
		content = strings.ToLower(content)
		for _, kw := range f.Keywords {
			if strings.Contains(content, strings.ToLower(kw)) {
				return true
			}
		}
		return false
	}
	for _, kw := range f.Keywords {
		if strings.Contains(content, kw) {
			return true
		}
	}
	return false
}
