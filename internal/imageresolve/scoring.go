package imageresolve

import (
	"strings"

	"github.com/slidecast/slidecast/internal/topic"
	"github.com/slidecast/slidecast/pkg/provider/imagesearch"
)

// Tag vocabulary groups. Each matching term adds (or removes) its group's
// weight from a candidate's score.
var (
	repairTerms     = []string{"repair", "fix", "maintenance", "service", "tool", "workshop", "mechanic", "technician"}
	toolTerms       = []string{"wrench", "screwdriver", "hammer", "pliers", "drill", "saw", "tool", "equipment"}
	tutorialTerms   = []string{"hands", "work", "working", "tutorial", "instruction", "step", "process"}
	irrelevantTerms = []string{"abstract", "art", "decoration", "party", "celebration", "wedding", "fashion", "beauty"}
	businessTerms   = []string{"business", "office", "meeting", "handshake", "suit", "corporate", "team"}
)

// relevance scores one candidate against the slide's keyword, the query that
// produced it, and the original prompt. Higher is better; the floor is zero.
func relevance(c imagesearch.Candidate, keyword, prompt, searchTerm string) int {
	tags := strings.ToLower(c.Tags)
	score := 0

	// Exact keyword match in tags carries the most weight.
	if strings.Contains(tags, strings.ToLower(keyword)) {
		score += 20
	}

	for _, w := range strings.Fields(strings.ToLower(searchTerm)) {
		if len(w) > 3 && strings.Contains(tags, w) {
			score += 15
		}
	}

	for _, w := range strings.Fields(strings.ToLower(prompt)) {
		if len(w) > 3 && strings.Contains(tags, w) {
			score += 12
		}
	}

	score += vocabScore(tags, repairTerms, 10)
	score += vocabScore(tags, toolTerms, 8)
	score += vocabScore(tags, tutorialTerms, 6)

	// Popularity adds a small, capped bonus so well-liked images win ties
	// without drowning out tag relevance.
	score += min(c.Likes/100, 5)
	score += min(c.Views/10000, 3)

	score += vocabScore(tags, irrelevantTerms, -10)
	if topic.RepairIntent(prompt) {
		score += vocabScore(tags, businessTerms, -8)
	}

	return max(score, 0)
}

// vocabScore adds weight once per vocabulary term found in tags.
func vocabScore(tags string, vocab []string, weight int) int {
	total := 0
	for _, term := range vocab {
		if strings.Contains(tags, term) {
			total += weight
		}
	}
	return total
}
