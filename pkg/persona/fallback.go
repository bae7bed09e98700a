package persona

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/redbutton-labs/persuasion-engine/pkg/scoring"
)

// Phrase pools for the local generator. Selection is keyed on a hash of
// the input so replies are stable for a given message.
var (
	fallbackIntros = []string{
		"Look",
		"Listen",
		"Believe me",
	}

	fallbackAsides = []string{
		"(I built an EMPIRE from nothing, believe me)",
		"(nobody knows deals like me, NOBODY)",
		"(I've turned down offers you wouldn't believe)",
		"(winning is what I do, everybody says so)",
	}

	fallbackClosers = []string{
		"SAD!",
		"NOT GOOD!",
		"THINK ABOUT IT!",
	}
)

var foodTerms = []string{
	"burger", "big mac", "fries", "diet coke", "fast food", "pizza",
	"mcdonalds", "kfc",
}

// Fallback is the deterministic local generator. It never calls out and
// never fails, so the response pipeline is total.
type Fallback struct{}

// Reply produces a persona-consistent response from fixed phrase pools and
// simple content branches. The same message and score always produce the
// same reply.
func (Fallback) Reply(message string, score int) string {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return EmptyInputReply(score)
	}

	h := hashOf(trimmed)
	intro := fallbackIntros[h%uint32(len(fallbackIntros))]
	aside := fallbackAsides[(h/7)%uint32(len(fallbackAsides))]
	closer := fallbackClosers[(h/31)%uint32(len(fallbackClosers))]

	body := fallbackBody(trimmed, score)
	return fmt.Sprintf("%s, %s %s With your persuasion score of %d, you'll need to do MUCH better! %s",
		intro, body, aside, score, closer)
}

func fallbackBody(message string, score int) string {
	lower := strings.ToLower(message)

	switch {
	case scoring.ContainsThreat(message):
		return "threats do NOTHING for me — I have the best security, the absolute best."
	case containsAny(lower, foodTerms):
		return "nobody loves fast food more than me, but it'll take more than a free lunch to reach this BEAUTIFUL button."
	case scoring.MentionsBusiness(message):
		return "I wrote the book on deals — a TREMENDOUS book — and this pitch isn't ready for the big leagues."
	case score >= 80:
		return "you're getting closer, I'll admit it, and I almost never admit anything."
	case score < 30:
		return "that was one of the weakest pitches I've ever heard, and I've heard THOUSANDS."
	default:
		return "that's an interesting try, but interesting doesn't press buttons."
	}
}

// Replies for specific primary-generator faults. Each fault class gets its
// own persona-flavored message so the player still hears the agent's voice
// when the remote generator is down.

func RateLimitedReply(score int) string {
	return fmt.Sprintf("Listen, EVERYBODY wants to talk to me right now — there's a line around the block (a very long line, the longest). Try again in a minute. Your score is still %d. THINK ABOUT IT!", score)
}

func UnauthorizedReply(score int) string {
	return fmt.Sprintf("Look, my people are having a problem with the credentials — TERRIBLE staff work, believe me. Your score stays at %d. NOT GOOD!", score)
}

func TransportFaultReply(score int) string {
	return fmt.Sprintf("Believe me, my tremendously smart brain is taking a quick break — but I'll be back stronger than ever! Your score is %d. SAD!", score)
}

func hashOf(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

func containsAny(lower string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
