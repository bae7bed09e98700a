package persona

import (
	"regexp"
	"strings"
)

// Style patterns characteristic of the agent's voice. StyleScore counts
// them to judge how in-character a reply is.
var (
	styleSuperlatives = []string{
		"tremendous", "huge", "fantastic", "amazing", "incredible",
		"best", "greatest", "perfect", "beautiful", "wonderful",
	}
	stylePhrases = []string{
		"believe me", "everybody knows", "many people are saying",
		"like never before", "very very", "big league",
	}
	styleEmphasis = []string{
		"very", "totally", "absolutely", "completely", "strongly",
		"seriously", "frankly", "honestly",
	}
	styleRepetition = []string{
		"very very", "big big", "many many", "strong strong",
	}
)

var allCapsRun = regexp.MustCompile(`[A-Z]{2,}`)

// MinStyleScore is the lowest StyleScore a primary-generator reply may have
// before the local fallback is preferred.
const MinStyleScore = 55

// StyleScore rates a reply from 0 to 100 on how closely it matches the
// agent's voice. A bare, styleless reply scores the neutral 50.
func StyleScore(reply string) int {
	lower := lowerCaser.String(reply)
	score := 50

	for _, w := range styleSuperlatives {
		if strings.Contains(lower, w) {
			score += 5
		}
	}
	for _, p := range stylePhrases {
		if strings.Contains(lower, p) {
			score += 8
		}
	}
	for _, w := range styleEmphasis {
		if strings.Contains(lower, w) {
			score += 3
		}
	}
	for _, r := range styleRepetition {
		if strings.Contains(lower, r) {
			score += 10
		}
	}

	if strings.Contains(reply, "!") {
		score += 2
	}
	if allCapsRun.MatchString(reply) {
		score += 5
	}

	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}
