package speech

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// qualityMarkers are substrings that identify a platform's higher-quality
// voice tier. Checked in order against voice names.
var qualityMarkers = []string{"Natural", "Enhanced", "Premium"}

// minHintSimilarity is the Jaro-Winkler score a voice name must reach before
// a configured preferred-name hint is honoured.
const minHintSimilarity = 0.80

// PickVoice selects the most natural-sounding voice from a catalogue.
//
// Selection order:
//
//  1. When hint is non-empty, the voice whose name is most similar to the
//     hint (Jaro-Winkler, case-insensitive), provided the similarity reaches
//     a minimum threshold. Exact substring matches always qualify.
//  2. The first voice whose name contains a quality marker
//     ("Natural", "Enhanced", "Premium").
//  3. The first voice whose language starts with lang (e.g. "en").
//  4. The zero Voice, meaning "let the backend decide".
func PickVoice(voices []Voice, lang, hint string) Voice {
	if len(voices) == 0 {
		return Voice{}
	}

	if hint != "" {
		if v, ok := byHint(voices, hint); ok {
			return v
		}
	}

	for _, marker := range qualityMarkers {
		for _, v := range voices {
			if strings.Contains(v.Name, marker) {
				return v
			}
		}
	}

	if lang != "" {
		for _, v := range voices {
			if strings.HasPrefix(v.Language, lang) {
				return v
			}
		}
	}

	return Voice{}
}

// byHint ranks voices by similarity to the configured hint. Substring
// containment counts as a perfect match; otherwise Jaro-Winkler similarity on
// the lower-cased names decides, gated by minHintSimilarity.
func byHint(voices []Voice, hint string) (Voice, bool) {
	hintLower := strings.ToLower(hint)

	var best Voice
	bestScore := 0.0
	for _, v := range voices {
		nameLower := strings.ToLower(v.Name)

		score := 0.0
		if strings.Contains(nameLower, hintLower) {
			score = 1.0
		} else {
			score = matchr.JaroWinkler(nameLower, hintLower, true)
		}
		if score > bestScore {
			best, bestScore = v, score
		}
	}

	if bestScore >= minHintSimilarity {
		return best, true
	}
	return Voice{}, false
}
