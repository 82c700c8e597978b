// Package segment splits a raw generated answer into a bounded, ordered list
// of short captions sized for one narrated slide each.
//
// The splitter tries progressively blunter strategies: blank-line paragraphs,
// enumerated/bulleted list markers, then sentence boundaries (clustered when
// there are more sentences than slides). Whatever the strategy produced is
// then merged down to the target count, capitalised, truncated at a word
// boundary near the caption limit, and filtered for degenerate fragments.
//
// For non-empty input the result is never empty: unsplittable text comes back
// as a single truncated caption rather than an empty slideshow.
package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxCaptionLen is the hard upper bound on one caption, chosen so a
	// caption narrates in roughly ten seconds.
	MaxCaptionLen = 120

	// minPieceLen is the minimum usable length for paragraph and list pieces.
	minPieceLen = 15

	// minSentenceLen is the minimum usable length for a bare sentence.
	minSentenceLen = 10

	// minCaptionLen is the minimum length of a final caption; shorter
	// fragments are dropped.
	minCaptionLen = 5
)

var (
	paragraphRe  = regexp.MustCompile(`\n\s*\n`)
	listMarkerRe = regexp.MustCompile(`(?:\d+\.|•|\*|-)\s+`)
	sentenceRe   = regexp.MustCompile(`[.!?]+`)
	markdownRe   = regexp.MustCompile(`(?m)(\*\*|__|^#{1,6}\s+|\x60)`)
)

// Split divides raw into at most target ordered captions. target values below
// one are treated as one. See the package comment for the strategy cascade.
func Split(raw string, target int) []string {
	if target < 1 {
		target = 1
	}
	text := markdownRe.ReplaceAllString(raw, "")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pieces := filterLen(paragraphRe.Split(text, -1), minPieceLen)

	if len(pieces) < target {
		if listed := filterLen(listMarkerRe.Split(text, -1), minPieceLen); len(listed) >= target {
			pieces = listed
		}
	}

	if len(pieces) < target {
		pieces = bySentence(text, target)
	}

	if len(pieces) > target {
		pieces = mergeToCount(pieces, target)
	}

	out := make([]string, 0, target)
	for _, p := range pieces {
		c := finishCaption(p)
		if len(c) > minCaptionLen {
			out = append(out, c)
		}
		if len(out) == target {
			break
		}
	}

	// Degenerate input: guarantee at least one caption for non-empty text.
	if len(out) == 0 {
		out = append(out, finishCaption(text))
	}
	return out
}

// bySentence splits text on sentence boundaries. When there are more
// sentences than target, consecutive sentences are clustered so the result
// lands at roughly target pieces.
func bySentence(text string, target int) []string {
	sentences := filterLen(sentenceRe.Split(text, -1), minSentenceLen)
	if len(sentences) == 0 {
		return nil
	}

	if len(sentences) <= target {
		out := make([]string, len(sentences))
		for i, s := range sentences {
			out[i] = strings.TrimSpace(s) + "."
		}
		return out
	}

	size := ceilDiv(len(sentences), target)
	out := make([]string, 0, target)
	for i := 0; i < len(sentences); i += size {
		end := min(i+size, len(sentences))
		joined := strings.TrimSpace(strings.Join(trimAll(sentences[i:end]), ". "))
		if joined == "" {
			continue
		}
		if !strings.HasSuffix(joined, ".") {
			joined += "."
		}
		out = append(out, joined)
	}
	return out
}

// mergeToCount concatenates consecutive pieces into target groups, preserving
// order.
func mergeToCount(pieces []string, target int) []string {
	size := ceilDiv(len(pieces), target)
	out := make([]string, 0, target)
	for i := 0; i < len(pieces); i += size {
		end := min(i+size, len(pieces))
		out = append(out, strings.Join(trimAll(pieces[i:end]), " "))
	}
	return out
}

// finishCaption normalises capitalisation, truncates over-long captions at a
// word boundary near MaxCaptionLen, and ensures a trailing period.
func finishCaption(piece string) string {
	c := strings.TrimSpace(piece)
	if c == "" {
		return ""
	}

	// Reserve one byte for the trailing period so the final caption never
	// exceeds MaxCaptionLen.
	if len(c) > MaxCaptionLen {
		words := strings.Fields(c)
		var b strings.Builder
		for _, w := range words {
			if b.Len() > 0 && b.Len()+1+len(w) > MaxCaptionLen-1 {
				break
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(w)
		}
		c = b.String()
		if len(c) > MaxCaptionLen-1 { // single unbroken token
			c = truncateRunes(c, MaxCaptionLen-1)
		}
		c = strings.TrimSuffix(c, ".")
	}

	r := []rune(c)
	r[0] = unicode.ToUpper(r[0])
	c = string(r)

	if !strings.HasSuffix(c, ".") && !strings.HasSuffix(c, "!") && !strings.HasSuffix(c, "?") {
		c += "."
	}
	if len(c) > MaxCaptionLen {
		c = strings.TrimSpace(truncateRunes(c, MaxCaptionLen-1)) + "."
	}
	return c
}

// truncateRunes cuts s to at most max bytes, backing up so the cut never
// splits a multibyte rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func filterLen(pieces []string, minLen int) []string {
	out := pieces[:0:0]
	for _, p := range pieces {
		if len(strings.TrimSpace(p)) > minLen {
			out = append(out, p)
		}
	}
	return out
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }
