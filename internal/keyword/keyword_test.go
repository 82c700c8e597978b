package keyword_test

import (
	"strings"
	"testing"

	"github.com/slidecast/slidecast/internal/keyword"
)

func TestExtract_OnePhrasePerSegment(t *testing.T) {
	t.Parallel()
	segments := []string{
		"First loosen the axle nuts on both sides.",
		"Slide the wheel out of the frame.",
		"Patch the tube and pump up the tire.",
	}
	phrases := keyword.Extract(segments, "how do I fix a flat bike tire")
	if len(phrases) != len(segments) {
		t.Fatalf("got %d phrases, want %d", len(phrases), len(segments))
	}
	for i, p := range phrases {
		if strings.TrimSpace(p) == "" {
			t.Errorf("phrase %d is empty", i)
		}
	}
}

func TestExtract_TopicContextInPhrase(t *testing.T) {
	t.Parallel()
	phrases := keyword.Extract([]string{"Tighten the chain until it has slight play."}, "fix my bike chain")
	if len(phrases) != 1 {
		t.Fatalf("got %d phrases, want 1", len(phrases))
	}
	if !strings.Contains(phrases[0], "bike") {
		t.Errorf("phrase should carry the topic context, got %q", phrases[0])
	}
}

func TestExtract_ToolAnchorsPhrase(t *testing.T) {
	t.Parallel()
	phrases := keyword.Extract([]string{"Grab a wrench and loosen the bolts."}, "how do I fix my bike")
	if !strings.Contains(phrases[0], "wrench") {
		t.Errorf("tool word should appear in the phrase, got %q", phrases[0])
	}
}

func TestExtract_RepairSuffix(t *testing.T) {
	t.Parallel()
	phrases := keyword.Extract([]string{"Inspect the spokes one at a time."}, "fix my bike wheel")
	p := phrases[0]
	if !strings.Contains(p, "repair") && !strings.Contains(p, "fix") && !strings.Contains(p, "maintenance") {
		t.Errorf("repair-intent prompt should add a repair suffix, got %q", p)
	}
}

func TestExtract_NoRepairSuffixWithoutIntent(t *testing.T) {
	t.Parallel()
	phrases := keyword.Extract([]string{"Water the seedlings every morning."}, "when should I water my garden")
	if strings.Contains(phrases[0], "repair") {
		t.Errorf("non-repair prompt should not add a repair suffix, got %q", phrases[0])
	}
}

func TestExtract_EmptySegmentFallsBackToTopic(t *testing.T) {
	t.Parallel()
	phrases := keyword.Extract([]string{"the and of"}, "fix my bike")
	if len(phrases) != 1 {
		t.Fatalf("got %d phrases, want 1", len(phrases))
	}
	if !strings.Contains(phrases[0], "bike") {
		t.Errorf("stop-word-only segment should fall back to the topic, got %q", phrases[0])
	}
}

func TestExtract_Deterministic(t *testing.T) {
	t.Parallel()
	segments := []string{"Adjust the derailleur limit screws carefully."}
	prompt := "how do I fix my bike gears"
	first := keyword.Extract(segments, prompt)
	for i := 0; i < 5; i++ {
		again := keyword.Extract(segments, prompt)
		if again[0] != first[0] {
			t.Fatalf("extraction not deterministic: %q vs %q", first[0], again[0])
		}
	}
}
