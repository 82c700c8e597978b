package topic

import "strings"

// Vocabulary bundles the per-topic dictionaries consulted by keyword scoring.
// Lookups on topics without a dictionary entry return empty sets rather than
// failing; only action verbs carry a generic default.
type Vocabulary struct {
	// ToolsAndParts lists physical tools and components for the topic.
	ToolsAndParts []string

	// Actions lists verbs that describe working on the topic.
	Actions []string

	// TechnicalTerms lists topic jargon that strongly signals relevance.
	TechnicalTerms []string
}

// defaultActions applies to topics without their own action list.
var defaultActions = []string{"repair", "fix", "maintain", "service"}

var vocabularies = map[Topic]Vocabulary{
	Bike: {
		ToolsAndParts:  []string{"wrench", "screwdriver", "chain", "wheel", "tire", "brake", "gear", "pedal", "handlebar", "seat", "spoke", "derailleur", "cassette", "crankset", "tube", "pump"},
		Actions:        []string{"adjust", "tighten", "loosen", "replace", "install", "remove", "clean", "lubricate", "inflate", "align"},
		TechnicalTerms: []string{"derailleur", "cassette", "crankset", "chainring", "freewheel", "headset", "bottom", "bracket"},
	},
	Car: {
		ToolsAndParts:  []string{"wrench", "jack", "tire", "engine", "brake", "oil", "filter", "battery", "alternator", "radiator", "transmission", "clutch", "spark", "plug"},
		Actions:        []string{"change", "replace", "check", "fill", "drain", "tighten", "connect", "disconnect", "start", "stop"},
		TechnicalTerms: []string{"carburetor", "alternator", "radiator", "transmission", "differential", "catalytic", "converter"},
	},
	Computer: {
		ToolsAndParts:  []string{"screwdriver", "motherboard", "cpu", "ram", "harddrive", "graphics", "card", "power", "supply", "cable", "monitor", "keyboard", "mouse"},
		Actions:        []string{"install", "connect", "disconnect", "update", "restart", "backup", "format", "scan"},
		TechnicalTerms: []string{"motherboard", "processor", "graphics", "harddrive", "memory", "bios", "firmware"},
	},
	Phone: {
		ToolsAndParts:  []string{"screwdriver", "screen", "battery", "charger", "cable", "speaker", "microphone", "camera", "button", "port"},
		Actions:        []string{"charge", "restart", "update", "backup", "reset", "connect", "sync"},
		TechnicalTerms: []string{"touchscreen", "digitizer", "motherboard", "processor", "antenna", "sensor"},
	},
	Cooking: {
		ToolsAndParts:  []string{"knife", "pan", "pot", "oven", "stove", "spatula", "whisk", "bowl", "cutting", "board", "ingredient"},
		Actions:        []string{"chop", "slice", "mix", "stir", "bake", "fry", "boil", "season", "marinate"},
		TechnicalTerms: []string{"sauté", "braise", "julienne", "emulsify", "caramelize", "reduction"},
	},
	Garden: {
		ToolsAndParts:  []string{"shovel", "rake", "hose", "seed", "soil", "fertilizer", "pruner", "gloves", "watering", "can"},
		Actions:        []string{"plant", "water", "prune", "fertilize", "weed", "harvest", "dig", "mulch"},
		TechnicalTerms: []string{"photosynthesis", "germination", "pollination", "composting", "mulching"},
	},
	Clean: {
		ToolsAndParts:  []string{"vacuum", "mop", "bucket", "soap", "detergent", "brush", "cloth", "sponge", "cleaner"},
		Actions:        []string{"scrub", "wipe", "vacuum", "mop", "dust", "wash", "rinse", "dry"},
		TechnicalTerms: []string{"disinfectant", "sanitizer", "degreaser", "solvent"},
	},
	Paint: {
		ToolsAndParts:  []string{"brush", "roller", "paint", "primer", "canvas", "palette", "easel", "spray"},
		Actions:        []string{"brush", "roll", "spray", "mix", "prime", "sand", "mask"},
		TechnicalTerms: []string{"primer", "undercoat", "topcoat", "pigment", "binder"},
	},
	Exercise: {
		ToolsAndParts:  []string{"dumbbell", "barbell", "treadmill", "mat", "weights", "resistance", "band"},
		Actions:        []string{"lift", "push", "pull", "stretch", "run", "walk", "squat", "press"},
		TechnicalTerms: []string{"cardiovascular", "anaerobic", "aerobic", "metabolism", "endurance"},
	},
	Music: {
		ToolsAndParts:  []string{"guitar", "piano", "drum", "violin", "microphone", "amplifier", "string", "pick"},
		Actions:        []string{"play", "strum", "press", "blow", "tune", "practice", "record"},
		TechnicalTerms: []string{"frequency", "amplitude", "resonance", "harmony", "melody"},
	},
}

// visualNouns are concrete, photographable nouns boosted regardless of topic.
var visualNouns = makeSet([]string{
	"tool", "part", "component", "piece", "section", "area", "surface", "edge", "corner",
	"handle", "grip", "button", "switch", "lever", "knob", "dial", "gauge", "meter",
	"wire", "cable", "tube", "pipe", "hose", "belt", "strap", "band", "ring",
	"screw", "bolt", "nut", "washer", "spring", "bearing", "seal", "gasket",
	"frame", "housing", "case", "cover", "panel", "door", "lid", "cap",
})

// genericWords are over-general nouns penalised during scoring because they
// produce unhelpfully vague image queries.
var genericWords = makeSet([]string{
	"thing", "things", "something", "anything", "everything", "nothing",
	"item", "items", "stuff", "material", "object", "device", "equipment",
	"problem", "issue", "trouble", "difficulty", "situation", "condition",
	"method", "technique", "approach", "solution", "answer", "result",
})

// stopWords are function words and domain-neutral filler discarded before
// scoring.
var stopWords = makeSet([]string{
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
	"is", "are", "was", "were", "be", "been", "being", "have", "has", "had", "will", "would",
	"could", "should", "may", "might", "can", "this", "that", "these", "those", "there", "here",
	"where", "when", "why", "how", "what", "which", "who", "whom", "whose", "very", "really",
	"quite", "rather", "much", "many", "most", "more", "less", "some", "any", "all", "both",
	"each", "every", "other", "another", "such", "only", "own", "same", "so", "than", "too",
	"about", "from", "into", "during", "before", "after", "above", "below", "between", "through",
	"also", "then", "now", "first", "second", "third", "important", "process", "system", "way",
	"part", "example", "different", "various", "several", "including", "like", "called",
	"step", "steps", "make", "sure", "need", "needs", "use", "using", "used",
})

func makeSet(words []string) map[string]bool {
	s := make(map[string]bool, len(words))
	for _, w := range words {
		s[w] = true
	}
	return s
}

// Vocab returns the dictionaries for t. Topics without an entry (including
// ad-hoc topics produced by the content-word fallback) get empty tool and
// technical-term sets and the generic action list.
func Vocab(t Topic) Vocabulary {
	if v, ok := vocabularies[t]; ok {
		return v
	}
	return Vocabulary{Actions: defaultActions}
}

// IsToolOrPart reports whether word names a tool or component of topic t.
// Matching is bidirectional-substring so that compounds like "handlebars"
// still hit "handlebar".
func IsToolOrPart(word string, t Topic) bool {
	return containsEither(word, Vocab(t).ToolsAndParts)
}

// IsAction reports whether word is an action verb for topic t.
func IsAction(word string, t Topic) bool {
	for _, a := range Vocab(t).Actions {
		if word == a {
			return true
		}
	}
	return false
}

// IsTechnicalTerm reports whether word is topic jargon for t.
func IsTechnicalTerm(word string, t Topic) bool {
	return containsEither(word, Vocab(t).TechnicalTerms)
}

// IsVisualNoun reports whether word is a concrete photographable noun.
func IsVisualNoun(word string) bool { return visualNouns[word] }

// IsGeneric reports whether word is an over-general noun.
func IsGeneric(word string) bool { return genericWords[word] }

// IsStopWord reports whether word is discarded before scoring.
func IsStopWord(word string) bool { return stopWords[word] }

func containsEither(word string, dict []string) bool {
	for _, d := range dict {
		if strings.Contains(word, d) || strings.Contains(d, word) {
			return true
		}
	}
	return false
}
