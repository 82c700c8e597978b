// Package topic classifies free-text user prompts into a closed set of domain
// topics and owns the per-topic vocabulary used by keyword extraction and
// image resolution.
//
// Classification is a priority-ordered substring match against trigger sets:
// the first topic whose trigger list matches the lower-cased prompt wins. When
// nothing matches, the first content word of the prompt is used, and when even
// that fails the generic "repair" topic is returned. Classification is
// deterministic and retains no state between calls.
package topic

import "strings"

// Topic is a closed domain classification of a user prompt. It is derived
// once per query and immutable for the lifetime of that query.
type Topic string

const (
	Bike        Topic = "bike"
	Car         Topic = "car"
	Computer    Topic = "computer"
	Phone       Topic = "phone"
	Cooking     Topic = "cooking"
	Garden      Topic = "garden"
	Exercise    Topic = "exercise"
	Study       Topic = "study"
	Clean       Topic = "clean"
	Paint       Topic = "paint"
	Music       Topic = "music"
	Photography Topic = "photography"

	// Generic is the fallback topic when a prompt matches no trigger set and
	// yields no usable content word.
	Generic Topic = "repair"
)

// String returns the topic name as used in search phrases.
func (t Topic) String() string { return string(t) }

// trigger pairs a topic with the substrings that activate it. Order matters:
// earlier entries win when a prompt matches several (e.g. "brake" appears in
// both the bike and car sets).
type trigger struct {
	topic Topic
	words []string
}

// triggers is the priority-ordered classification table.
var triggers = []trigger{
	{Bike, []string{"bicycle", "bike", "cycling", "wheel", "chain", "gear", "brake", "tire"}},
	{Car, []string{"car", "automobile", "vehicle", "engine", "brake", "tire", "transmission"}},
	{Computer, []string{"computer", "laptop", "pc", "hardware", "software", "motherboard", "cpu"}},
	{Phone, []string{"phone", "smartphone", "mobile", "screen", "battery", "charging"}},
	{Cooking, []string{"cook", "recipe", "kitchen", "food", "ingredient", "pan", "oven"}},
	{Garden, []string{"garden", "plant", "flower", "soil", "water", "seed", "grow"}},
	{Exercise, []string{"exercise", "workout", "fitness", "muscle", "training", "gym"}},
	{Study, []string{"study", "learn", "education", "book", "knowledge", "school"}},
	{Clean, []string{"clean", "cleaning", "wash", "soap", "vacuum", "dust"}},
	{Paint, []string{"paint", "painting", "brush", "color", "wall", "canvas"}},
	{Music, []string{"music", "instrument", "guitar", "piano", "song", "sound"}},
	{Photography, []string{"photo", "camera", "picture", "lens", "light", "image"}},
}

// questionWords are prompt words never usable as a fallback topic.
var questionWords = map[string]bool{
	"what": true, "how": true, "why": true, "when": true, "where": true,
	"explain": true, "tell": true, "about": true, "does": true, "work": true,
	"make": true, "repair": true, "fix": true,
}

// Classify maps a free-text prompt to a Topic. The prompt is lower-cased and
// tested against the trigger table in priority order; the first match wins.
// Unmatched prompts fall back to their first content word (length > 3 and not
// a question word), then to [Generic].
func Classify(prompt string) Topic {
	lower := strings.ToLower(prompt)

	for _, tr := range triggers {
		for _, w := range tr.words {
			if strings.Contains(lower, w) {
				return tr.topic
			}
		}
	}

	if w := firstContentWord(lower); w != "" {
		return Topic(w)
	}
	return Generic
}

// firstContentWord returns the first word of lower that is long enough and
// not a question word, or "" when none exists.
func firstContentWord(lower string) string {
	for _, w := range strings.Fields(stripPunct(lower)) {
		if len(w) > 3 && !questionWords[w] {
			return w
		}
	}
	return ""
}

// stripPunct replaces every non-alphanumeric rune with a space.
func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return ' '
	}, s)
}

// searchPhrases maps broader search phrases to their trigger words. Unlike the
// classification table this is keyed by the phrase handed verbatim to the
// image backend, and it carries a few trades (plumbing, electrical,
// woodworking) that have no Topic of their own.
var searchPhrases = []struct {
	phrase string
	words  []string
}{
	{"bicycle repair", []string{"bike", "bicycle", "cycling"}},
	{"car repair", []string{"car", "automobile", "vehicle"}},
	{"computer repair", []string{"computer", "laptop", "pc"}},
	{"phone repair", []string{"phone", "smartphone", "mobile"}},
	{"cooking", []string{"cook", "recipe", "kitchen", "food"}},
	{"gardening", []string{"garden", "plant", "flower"}},
	{"home repair", []string{"house", "home", "wall", "door", "window"}},
	{"plumbing", []string{"pipe", "plumbing", "water", "leak"}},
	{"electrical", []string{"electrical", "wire", "circuit", "power"}},
	{"painting", []string{"paint", "painting", "brush"}},
	{"woodworking", []string{"wood", "lumber", "saw", "drill"}},
	{"exercise", []string{"exercise", "workout", "fitness"}},
	{"music", []string{"music", "instrument", "guitar", "piano"}},
}

// SearchPhrase returns the broad image-search phrase for a prompt, used as a
// cascading query variant and in fill-pass queries. Unmatched prompts fall
// back to "<first content word> repair", then to "repair tools".
func SearchPhrase(prompt string) string {
	lower := strings.ToLower(prompt)

	for _, sp := range searchPhrases {
		for _, w := range sp.words {
			if strings.Contains(lower, w) {
				return sp.phrase
			}
		}
	}

	if w := firstContentWord(lower); w != "" {
		return w + " repair"
	}
	return "repair tools"
}

// ActionContext returns the action word appended to image queries to bias
// results towards the user's intent. The default is "repair".
func ActionContext(prompt string) string {
	lower := strings.ToLower(prompt)

	switch {
	case strings.Contains(lower, "repair") || strings.Contains(lower, "fix"):
		return "repair"
	case strings.Contains(lower, "maintain") || strings.Contains(lower, "service"):
		return "maintenance"
	case strings.Contains(lower, "install") || strings.Contains(lower, "setup"):
		return "installation"
	case strings.Contains(lower, "clean"):
		return "cleaning"
	case strings.Contains(lower, "replace"):
		return "replacement"
	}
	return "repair"
}

// RepairIntent reports whether the prompt is repair/fix flavoured. Keyword
// extraction appends a "repair" suffix and image scoring penalises office
// stock photos when this holds.
func RepairIntent(prompt string) bool {
	lower := strings.ToLower(prompt)
	return strings.Contains(lower, "repair") || strings.Contains(lower, "fix")
}
