// Package scoring evaluates persuasion attempts. Scoring is pure lexical
// analysis plus a bounded random factor; the random source is injected so
// outcomes are reproducible under test.
package scoring

import (
	"math/rand"
	"strings"
	"time"

	"github.com/redbutton-labs/persuasion-engine/pkg/game"
)

const (
	// ShortMessageWords is the word count below which a message is
	// penalized as a lazy attempt.
	ShortMessageWords = 5

	// LongMessageWords is the word count above which a message is
	// penalized as rambling.
	LongMessageWords = 40

	// ThreatPenalty is applied per distinct threatening term, overriding
	// every other scoring rule.
	ThreatPenalty = -20

	// CategoryCap bounds the total contribution of one lexical category.
	CategoryCap = 15

	// MinDelta and MaxDelta bound the non-threat score change of a single
	// evaluation.
	MinDelta = -10
	MaxDelta = 15
)

var threatTerms = []string{
	"kill", "death", "murder", "hate", "harm", "threat", "weapon", "bomb",
}

var businessTerms = []string{
	"deal", "business", "money", "billion", "million", "profit",
	"investment", "real estate", "property", "tower", "hotel", "casino",
	"market", "stocks", "wealth", "rich",
}

var flatteryTerms = []string{
	"great", "smart", "genius", "best", "tremendous", "incredible",
	"phenomenal", "outstanding", "amazing", "magnificent", "brilliant",
	"fantastic",
}

var contextTerms = []string{
	"button", "press", "prize", "reward", "win", "release", "funds",
}

// Rand is the injectable random source. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Result is the outcome of evaluating one message.
type Result struct {
	// Delta is the applied score change.
	Delta int
	// NewScore is the clamped score after applying Delta.
	NewScore int
	// Threat reports that the threat short-circuit fired.
	Threat bool
	// Notes are agent-side remarks about the evaluation, usable as
	// conversational asides.
	Notes []string
}

// Scorer evaluates messages against the persuasion rules.
type Scorer struct {
	rng Rand
}

// NewScorer creates a scorer with the given random source. A nil source
// gets a time-seeded one.
func NewScorer(rng Rand) *Scorer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Scorer{rng: rng}
}

// Evaluate scores a message against the current persuasion score. It never
// fails: an unexpected fault degrades to a zero delta so the interaction
// can still complete.
func (s *Scorer) Evaluate(message string, current int) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Delta: 0, NewScore: game.ClampScore(current)}
		}
	}()

	lower := strings.ToLower(message)
	words := strings.Fields(lower)

	// Threatening content overrides everything else.
	if distinct := countMatches(lower, threatTerms); distinct > 0 {
		penalty := ThreatPenalty * distinct
		newScore := current + penalty
		if newScore < game.MinScore {
			newScore = game.MinScore
		}
		if newScore > current {
			newScore = current
		}
		return Result{
			Delta:    newScore - current,
			NewScore: newScore,
			Threat:   true,
			Notes:    []string{"Threats? Not a good look. Not good at all."},
		}
	}

	delta := 0
	var notes []string

	// Length shaping. Empty input counts as a minimum-length message and
	// earns no lexical bonuses.
	switch n := len(words); {
	case n < ShortMessageWords:
		notes = append(notes, "Too short. You've got to put in more effort.")
		delta -= s.randRange(5, 10)
	case n > LongMessageWords:
		notes = append(notes, "Too much rambling. Get to the point!")
		delta -= s.randRange(3, 8)
	case n >= 10 && n <= 30:
		delta += 3
	}

	if len(words) > 0 {
		delta += cappedReward(countMatches(lower, businessTerms), 5)
		delta += cappedReward(countMatches(lower, flatteryTerms), 4)
		delta += cappedReward(countMatches(lower, contextTerms), 3)

		// Repetition check: low distinct-word ratio reads as spam.
		if distinctRatio(words) < 0.8 {
			notes = append(notes, "Too repetitive. Try saying something more original.")
			delta -= s.randRange(5, 10)
		}

		wordSet := make(map[string]bool, len(words))
		for _, w := range words {
			wordSet[strings.Trim(w, ".,!?;:'\"")] = true
		}

		// Causal structure: an explanation is rewarded only when it is
		// actually connected.
		if wordSet["because"] {
			if wordSet["and"] || wordSet["therefore"] || wordSet["so"] {
				delta += s.randRange(3, 7)
			} else {
				notes = append(notes, "Your reasoning is weak. You'll need to try harder.")
				delta -= s.randRange(5, 10)
			}
		}

		// Self-contradiction trap.
		if strings.Contains(lower, "urgent") && strings.Contains(lower, "not important") {
			notes = append(notes, "Contradictory statement detected. What are you trying to say?")
			delta -= 10
		}
	}

	// Bounded randomness keeps exact replays from being mechanically
	// optimizable.
	delta += s.rng.Intn(7) - 2

	if delta < MinDelta {
		delta = MinDelta
	}
	if delta > MaxDelta {
		delta = MaxDelta
	}

	newScore := game.ClampScore(current + delta)
	return Result{
		Delta:    newScore - current,
		NewScore: newScore,
		Notes:    notes,
	}
}

// randRange returns a uniform int in [lo, hi].
func (s *Scorer) randRange(lo, hi int) int {
	return lo + s.rng.Intn(hi-lo+1)
}

// countMatches counts distinct lexicon terms present in the message.
func countMatches(lower string, terms []string) int {
	count := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			count++
		}
	}
	return count
}

// cappedReward sums a per-match reward, bounded by CategoryCap.
func cappedReward(matches, perMatch int) int {
	reward := matches * perMatch
	if reward > CategoryCap {
		return CategoryCap
	}
	return reward
}

// distinctRatio is the share of unique words in the message.
func distinctRatio(words []string) float64 {
	unique := make(map[string]bool, len(words))
	for _, w := range words {
		unique[w] = true
	}
	return float64(len(unique)) / float64(len(words))
}

// ContainsThreat reports whether the message trips the threat lexicon.
// The persona fallback uses it to pick a reply branch.
func ContainsThreat(message string) bool {
	return countMatches(strings.ToLower(message), threatTerms) > 0
}

// MentionsBusiness reports whether the message references deal-making.
func MentionsBusiness(message string) bool {
	return countMatches(strings.ToLower(message), businessTerms) > 0
}
