// Package text prepares object contents for speech synthesis.
package text

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	whitespaceRegexPattern = `\s+`
	byteOrderMark          = "\uFEFF"
)

// Normalizer cleans text so the synthesizer reads it naturally and keeps it
// within the provider's character limit.
type Normalizer struct {
	whitespacePattern *regexp.Regexp
	punctuation       *strings.Replacer
	abbreviations     *strings.Replacer
	maxCharacters     int
}

// NewNormalizer creates a normalizer truncating output to maxCharacters runes.
// A non-positive limit disables truncation.
func NewNormalizer(maxCharacters int) *Normalizer {
	return &Normalizer{
		whitespacePattern: regexp.MustCompile(whitespaceRegexPattern),
		punctuation: strings.NewReplacer(
			byteOrderMark, "",
			"—", ", ",
			"–", "-",
			"‒", "-",
			"…", "...",
			"“", `"`,
			"”", `"`,
			"‘", "'",
			"’", "'",
		),
		abbreviations: strings.NewReplacer(
			"Mr. ", "Mister ",
			"Mrs. ", "Misses ",
			"Dr. ", "Doctor ",
			"e.g. ", "for example ",
			"i.e. ", "that is ",
		),
		maxCharacters: maxCharacters,
	}
}

// Normalize returns the cleaned text. The result is empty when the input
// holds nothing speakable.
func (n *Normalizer) Normalize(input string) string {
	if input == "" {
		return ""
	}

	if !utf8.ValidString(input) {
		input = strings.ToValidUTF8(input, " ")
	}

	cleaned := strings.Map(dropControl, input)
	cleaned = n.punctuation.Replace(cleaned)
	cleaned = n.whitespacePattern.ReplaceAllString(cleaned, " ")
	cleaned = n.abbreviations.Replace(cleaned)
	cleaned = strings.TrimSpace(cleaned)

	return n.truncate(cleaned)
}

// truncate cuts text to the rune limit, backing off to the last sentence end
// or space in the second half of the window.
func (n *Normalizer) truncate(text string) string {
	if n.maxCharacters <= 0 || utf8.RuneCountInString(text) <= n.maxCharacters {
		return text
	}

	runes := []rune(text)
	window := string(runes[:n.maxCharacters])
	half := len(window) / 2

	if idx := strings.LastIndexAny(window, ".!?"); idx >= half {
		return window[:idx+1]
	}

	if idx := strings.LastIndex(window, " "); idx >= half {
		return strings.TrimSpace(window[:idx])
	}

	return window
}

func dropControl(r rune) rune {
	if unicode.IsSpace(r) {
		return r
	}

	if unicode.IsControl(r) {
		return -1
	}

	return r
}
