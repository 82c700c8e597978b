package segment_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/slidecast/slidecast/internal/segment"
)

func TestSplit_Paragraphs(t *testing.T) {
	t.Parallel()
	raw := "First check the tire pressure with a gauge.\n\nThen remove the wheel from the frame.\n\nFinally patch the inner tube and reassemble."
	got := segment.Split(raw, 8)
	if len(got) != 3 {
		t.Fatalf("got %d captions, want 3: %v", len(got), got)
	}
	if !strings.HasPrefix(got[0], "First check the tire pressure") {
		t.Errorf("captions out of order: %v", got)
	}
}

func TestSplit_NumberedList(t *testing.T) {
	t.Parallel()
	raw := "1. Gather your tools and a clean workspace first. 2. Loosen the axle nuts on both sides evenly. 3. Slide the wheel out of the dropouts carefully. 4. Check the rim for damage before refitting."
	got := segment.Split(raw, 4)
	if len(got) != 4 {
		t.Fatalf("got %d captions, want 4: %v", len(got), got)
	}
}

func TestSplit_SentenceFallback(t *testing.T) {
	t.Parallel()
	raw := "Check the chain tension carefully. Lubricate every link with bike oil. Wipe off the excess with a rag."
	got := segment.Split(raw, 8)
	if len(got) != 3 {
		t.Fatalf("got %d captions, want 3: %v", len(got), got)
	}
	for _, c := range got {
		if !strings.HasSuffix(c, ".") {
			t.Errorf("caption missing trailing period: %q", c)
		}
	}
}

func TestSplit_ClustersExcessSentences(t *testing.T) {
	t.Parallel()
	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteString("This is a sentence about fixing things. ")
	}
	got := segment.Split(b.String(), 4)
	if len(got) > 4 {
		t.Fatalf("got %d captions, want at most 4", len(got))
	}
	if len(got) == 0 {
		t.Fatal("got no captions")
	}
}

func TestSplit_CaptionLengthBound(t *testing.T) {
	t.Parallel()
	raw := strings.Repeat("verylongword ", 40)
	got := segment.Split(raw, 3)
	for _, c := range got {
		if len(c) > segment.MaxCaptionLen {
			t.Errorf("caption exceeds %d bytes: %q (%d)", segment.MaxCaptionLen, c, len(c))
		}
	}
}

func TestSplit_Capitalisation(t *testing.T) {
	t.Parallel()
	got := segment.Split("check the brakes before every single ride.", 1)
	if len(got) != 1 {
		t.Fatalf("got %d captions, want 1", len(got))
	}
	if got[0][0] != 'C' {
		t.Errorf("caption should be capitalised: %q", got[0])
	}
}

func TestSplit_StripsMarkdown(t *testing.T) {
	t.Parallel()
	raw := "## Heading\n\n**Bold advice** about chain maintenance here.\n\nAnother useful `tip` about cleaning the cassette."
	got := segment.Split(raw, 8)
	for _, c := range got {
		if strings.ContainsAny(c, "*`#") {
			t.Errorf("markdown survived in caption: %q", c)
		}
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	t.Parallel()
	if got := segment.Split("", 5); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
	if got := segment.Split("   \n\n  ", 5); got != nil {
		t.Errorf("expected nil for whitespace input, got %v", got)
	}
}

func TestSplit_DegenerateInputStillYieldsOne(t *testing.T) {
	t.Parallel()
	got := segment.Split("ok", 5)
	if len(got) != 1 {
		t.Fatalf("got %d captions, want 1", len(got))
	}
}

func TestSplit_TargetBelowOne(t *testing.T) {
	t.Parallel()
	got := segment.Split("Some patient explanation of the repair steps involved.", 0)
	if len(got) != 1 {
		t.Fatalf("got %d captions, want 1", len(got))
	}
}

func TestSplit_MultibyteTruncationKeepsValidUTF8(t *testing.T) {
	t.Parallel()

	// One unbroken multibyte token longer than the caption limit forces a
	// byte-length cut; the cut must land on a rune boundary.
	inputs := []string{
		strings.Repeat("é", 200),
		strings.Repeat("日", 100),
		"Zuerst die Räder prüfen " + strings.Repeat("ö", 150),
	}
	for _, raw := range inputs {
		for _, c := range segment.Split(raw, 3) {
			if !utf8.ValidString(c) {
				t.Errorf("caption is not valid UTF-8: %q", c)
			}
			if strings.ContainsRune(c, utf8.RuneError) {
				t.Errorf("caption contains replacement character: %q", c)
			}
			if len(c) > segment.MaxCaptionLen {
				t.Errorf("caption length %d exceeds %d: %q", len(c), segment.MaxCaptionLen, c)
			}
		}
	}
}
