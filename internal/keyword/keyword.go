// Package keyword derives one image-search phrase per caption.
//
// This is a hand-tuned relevance ranker standing in for semantic search:
// every surviving token in a caption is scored against the active topic's
// tool, action and technical-term dictionaries plus a handful of global word
// classes, and the top-scoring token anchors the search phrase. The weights
// and dictionaries are load-bearing (image relevance degrades silently if
// they drift), so they are centralised in [internal/topic] and pinned by
// tests here.
package keyword

import (
	"strings"

	"github.com/slidecast/slidecast/internal/topic"
)

// Scoring weights, highest first. A token accumulates its weight once per
// occurrence in the caption.
const (
	weightBase      = 1
	weightToolPart  = 15
	weightAction    = 12
	weightTechnical = 10
	weightVisual    = 8
	weightPosition  = 5
	penaltyGeneric  = 5

	// earlyFraction marks the leading share of tokens that earn the
	// positional bonus.
	earlyFraction = 0.4

	// minTokenLen is the shortest token considered for scoring.
	minTokenLen = 3
)

// Extract returns exactly one non-empty search phrase per segment, in
// segment order. prompt is the original user question; it fixes the topic and
// the repair-intent suffix for the whole batch.
func Extract(segments []string, prompt string) []string {
	t := topic.Classify(prompt)
	repair := topic.RepairIntent(prompt)

	phrases := make([]string, len(segments))
	for i, seg := range segments {
		phrases[i] = phraseFor(seg, t, repair)
	}
	return phrases
}

// phraseFor scores the tokens of one segment and assembles its search phrase.
func phraseFor(segment string, t topic.Topic, repair bool) string {
	tokens := tokenize(segment)

	scores := make(map[string]int, len(tokens))
	early := int(float64(len(tokens)) * earlyFraction)
	for pos, tok := range tokens {
		s := weightBase
		if topic.IsToolOrPart(tok, t) {
			s += weightToolPart
		}
		if topic.IsAction(tok, t) {
			s += weightAction
		}
		if topic.IsTechnicalTerm(tok, t) {
			s += weightTechnical
		}
		if topic.IsVisualNoun(tok) {
			s += weightVisual
		}
		if pos < early {
			s += weightPosition
		}
		if topic.IsGeneric(tok) {
			s -= penaltyGeneric
		}
		scores[tok] += s
	}

	anchor := topAnchor(tokens, scores)
	if anchor == "" {
		// Nothing survived filtering; the topic name is still a usable query.
		return t.String()
	}
	return buildPhrase(anchor, segment, t, repair)
}

// topAnchor returns the highest-scoring token. Ties break towards the token
// that appears first in the segment, keeping extraction deterministic.
func topAnchor(tokens []string, scores map[string]int) string {
	best, bestScore := "", 0
	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		if s := scores[tok]; best == "" || s > bestScore {
			best, bestScore = tok, s
		}
	}
	return best
}

// buildPhrase assembles the final query: topic context, anchor, the first
// tool-or-part found in the segment (else the first action verb), and a
// repair suffix when the prompt implies repair intent.
func buildPhrase(anchor, segment string, t topic.Topic, repair bool) string {
	phrase := anchor
	if !strings.Contains(phrase, t.String()) {
		phrase = t.String() + " " + phrase
	}

	var firstTool, firstAction string
	for _, w := range strings.Fields(strings.ToLower(segment)) {
		if firstTool == "" && topic.IsToolOrPart(w, t) {
			firstTool = w
		}
		if firstAction == "" && topic.IsAction(w, t) {
			firstAction = w
		}
	}
	switch {
	case firstTool != "" && !strings.Contains(phrase, firstTool):
		phrase += " " + firstTool
	case firstAction != "" && !strings.Contains(phrase, firstAction):
		phrase += " " + firstAction
	}

	if repair &&
		!strings.Contains(phrase, "repair") &&
		!strings.Contains(phrase, "fix") &&
		!strings.Contains(phrase, "maintenance") {
		phrase += " repair"
	}

	return strings.TrimSpace(phrase)
}

// tokenize lower-cases the segment, strips punctuation, and drops short
// tokens and stop words.
func tokenize(segment string) []string {
	raw := strings.Fields(stripPunct(strings.ToLower(segment)))
	out := raw[:0:0]
	for _, w := range raw {
		if len(w) >= minTokenLen && !topic.IsStopWord(w) {
			out = append(out, w)
		}
	}
	return out
}

// stripPunct replaces every rune outside [a-z0-9_] with a space.
func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return ' '
	}, s)
}
