// Package language tracks the configured clinician and patient languages and
// gates per-utterance spoken-language detection.
package language

import "strings"

// Language identifies one of the interpretation languages the assistant
// supports. Unknown is the sentinel for "not yet determined" and is never a
// valid routing target.
type Language string

const (
	Unknown Language = "unknown"
	English Language = "english"
	Arabic  Language = "arabic"
	Hindi   Language = "hindi"
	Tagalog Language = "tagalog"
	Urdu    Language = "urdu"
	German  Language = "german"
)

// Supported lists every routable language, excluding Unknown.
func Supported() []Language {
	return []Language{English, Arabic, Hindi, Tagalog, Urdu, German}
}

// SupportedNames returns the supported language names as strings, for tool
// parameter enums.
func SupportedNames() []string {
	langs := Supported()
	names := make([]string, len(langs))
	for i, l := range langs {
		names[i] = string(l)
	}
	return names
}

// Parse maps a case-insensitive language name to its Language. Anything
// unrecognized maps to Unknown.
func Parse(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(English):
		return English
	case string(Arabic):
		return Arabic
	case string(Hindi):
		return Hindi
	case string(Tagalog):
		return Tagalog
	case string(Urdu):
		return Urdu
	case string(German):
		return German
	default:
		return Unknown
	}
}

// Known reports whether l is a concrete supported language.
func (l Language) Known() bool {
	return l != Unknown && l != ""
}

// Equal compares two languages case-insensitively. Unknown never equals
// anything, itself included, so sentinel values cannot satisfy a route match.
func (l Language) Equal(other Language) bool {
	if !l.Known() || !other.Known() {
		return false
	}
	return strings.EqualFold(string(l), string(other))
}
