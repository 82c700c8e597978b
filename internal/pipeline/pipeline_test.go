package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/slidecast/slidecast/internal/imageresolve"
	"github.com/slidecast/slidecast/internal/pipeline"
	"github.com/slidecast/slidecast/pkg/provider/imagesearch"
	imgmock "github.com/slidecast/slidecast/pkg/provider/imagesearch/mock"
	"github.com/slidecast/slidecast/pkg/provider/textgen"
	genmock "github.com/slidecast/slidecast/pkg/provider/textgen/mock"
)

const sampleAnswer = `First loosen the axle nuts with a wrench on both sides.

Slide the wheel carefully out of the frame dropouts.

Use tire levers to pry one side of the tire off the rim.

Pull out the inner tube and find the puncture by inflating it slightly.

Patch the hole, refit the tube, and pump the tire back up to pressure.`

func newPipeline(gen textgen.Provider, search imagesearch.Provider, opts ...pipeline.Option) *pipeline.Pipeline {
	return pipeline.New(gen, imageresolve.New(search), opts...)
}

func TestRun_ProducesCompleteSlideshow(t *testing.T) {
	t.Parallel()
	gen := &genmock.Provider{Result: &textgen.Result{Text: sampleAnswer, Model: "test-model"}}
	search := &imgmock.Provider{
		Default: []imagesearch.Candidate{
			{URL: "https://img/a.jpg", Tags: "bike repair wrench"},
			{URL: "https://img/b.jpg", Tags: "bike wheel"},
			{URL: "https://img/c.jpg", Tags: "bike tire"},
			{URL: "https://img/d.jpg", Tags: "bike tube"},
			{URL: "https://img/e.jpg", Tags: "bike pump"},
		},
	}
	p := newPipeline(gen, search)

	slides, err := p.Run(context.Background(), "how do I fix a flat bike tire")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slides) == 0 {
		t.Fatal("got no slides")
	}
	for i, s := range slides {
		if s.Image == "" {
			t.Errorf("slide %d has no image", i)
		}
		if s.Caption == "" {
			t.Errorf("slide %d has no caption", i)
		}
		if len(s.Caption) > 120 {
			t.Errorf("slide %d caption too long: %d bytes", i, len(s.Caption))
		}
	}
}

func TestRun_PromptWrapsQuestion(t *testing.T) {
	t.Parallel()
	gen := &genmock.Provider{Result: &textgen.Result{Text: sampleAnswer}}
	p := newPipeline(gen, &imgmock.Provider{})

	_, err := p.Run(context.Background(), "how do I fix a flat bike tire")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gen.GenerateCalls) != 1 {
		t.Fatalf("generate calls: got %d, want 1", len(gen.GenerateCalls))
	}
	prompt := gen.GenerateCalls[0].Req.Prompt
	if !strings.Contains(prompt, "how do I fix a flat bike tire") {
		t.Errorf("prompt should embed the question, got %q", prompt)
	}
	if !strings.Contains(prompt, "step-by-step visual explanation") {
		t.Errorf("prompt should carry the explainer instructions, got %q", prompt)
	}
}

func TestRun_GenerationFailureAborts(t *testing.T) {
	t.Parallel()
	gen := &genmock.Provider{Err: textgen.ErrGeneration}
	p := newPipeline(gen, &imgmock.Provider{})

	slides, err := p.Run(context.Background(), "how do I fix my bike")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, textgen.ErrGeneration) {
		t.Errorf("error should wrap ErrGeneration, got: %v", err)
	}
	if slides != nil {
		t.Errorf("failed run should return no slides, got %d", len(slides))
	}
}

func TestRun_ImageBackendFailureDoesNotAbort(t *testing.T) {
	t.Parallel()
	gen := &genmock.Provider{Result: &textgen.Result{Text: sampleAnswer}}
	search := &imgmock.Provider{Err: errors.New("image backend down")}
	p := newPipeline(gen, search)

	slides, err := p.Run(context.Background(), "how do I fix a flat bike tire")
	if err != nil {
		t.Fatalf("image failures must not abort the run: %v", err)
	}
	for i, s := range slides {
		if s.Image == "" {
			t.Errorf("slide %d has no image after backend outage", i)
		}
	}
}

func TestRun_TargetSlidesBoundsOutput(t *testing.T) {
	t.Parallel()
	gen := &genmock.Provider{Result: &textgen.Result{Text: sampleAnswer}}
	p := newPipeline(gen, &imgmock.Provider{}, pipeline.WithTargetSlides(3))

	slides, err := p.Run(context.Background(), "how do I fix a flat bike tire")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slides) > 3 {
		t.Errorf("got %d slides, want at most 3", len(slides))
	}
}

func TestRun_SlidesCarryKeywords(t *testing.T) {
	t.Parallel()
	gen := &genmock.Provider{Result: &textgen.Result{Text: sampleAnswer}}
	p := newPipeline(gen, &imgmock.Provider{})

	slides, err := p.Run(context.Background(), "how do I fix a flat bike tire")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, s := range slides {
		if len(s.Keywords) == 0 {
			t.Errorf("slide %d has no keywords", i)
		}
	}
}
