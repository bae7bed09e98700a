package persona

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// breakCharacterPhrases mark a reply as out of voice regardless of format.
var breakCharacterPhrases = []string{
	"as an ai",
	"as a language model",
	"language model",
	"i apologize",
	"i'm sorry",
	"i am sorry",
	"i cannot assist",
}

var lowerCaser = cases.Lower(language.AmericanEnglish)

// Validate checks a generated reply against the voice contract. A non-nil
// error means the reply must be discarded in favor of the local fallback.
func Validate(reply string) error {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return fmt.Errorf("reply is empty")
	}

	lower := lowerCaser.String(trimmed)
	for _, phrase := range breakCharacterPhrases {
		if strings.Contains(lower, phrase) {
			return fmt.Errorf("reply breaks character: contains %q", phrase)
		}
	}

	if !hasPrefixAny(trimmed, Openers) {
		return fmt.Errorf("reply does not open with a stock phrase")
	}
	if !hasSuffixAny(trimmed, Closers) {
		return fmt.Errorf("reply does not close with a stock phrase")
	}

	if !hasEmphasis(trimmed) {
		return fmt.Errorf("reply has no emphasis")
	}

	if words := len(strings.Fields(trimmed)); words > MaxReplyWords {
		return fmt.Errorf("reply exceeds %d words (%d)", MaxReplyWords, words)
	}

	return nil
}

func hasPrefixAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func hasSuffixAny(s string, suffixes []string) bool {
	for _, p := range suffixes {
		if strings.HasSuffix(s, p) {
			return true
		}
	}
	return false
}

// hasEmphasis looks for a run of at least two consecutive uppercase letters.
func hasEmphasis(s string) bool {
	run := 0
	for _, r := range s {
		if unicode.IsUpper(r) {
			run++
			if run >= 2 {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}
