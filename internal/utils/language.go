package utils

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageName resolves a BCP 47 language tag to its English name, for use
// in translation prompts. Unrecognized tags are passed through verbatim so
// the collaborator still gets a hint.
func LanguageName(tag string) string {
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	if name := display.English.Languages().Name(parsed); name != "" {
		return name
	}
	return tag
}
