package chat_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/slidecast/slidecast/internal/chat"
	"github.com/slidecast/slidecast/pkg/types"
)

// stubGenerator returns fixed slides or a fixed error.
type stubGenerator struct {
	slides []types.Slide
	err    error
	calls  atomic.Int64
}

func (g *stubGenerator) Run(ctx context.Context, question string) ([]types.Slide, error) {
	g.calls.Add(1)
	if g.err != nil {
		return nil, g.err
	}
	return g.slides, nil
}

func threeSlides() []types.Slide {
	return []types.Slide{
		{Image: "https://img/1.jpg", Caption: "Loosen the axle nuts."},
		{Image: "https://img/2.jpg", Caption: "Remove the wheel."},
		{Image: "https://img/3.jpg", Caption: "Patch the tube."},
	}
}

func TestAsk_AppendsUserAndBotMessages(t *testing.T) {
	t.Parallel()
	g := &stubGenerator{slides: threeSlides()}
	s := chat.NewSession(g, chat.WithResponsePicker(func(n int) int { return 0 }))

	reply := s.Ask(context.Background(), "how do I fix a flat bike tire")

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != types.RoleUser || msgs[0].Content != "how do I fix a flat bike tire" {
		t.Errorf("unexpected user message: %+v", msgs[0])
	}
	if msgs[1].Role != types.RoleBot {
		t.Errorf("unexpected bot role: %q", msgs[1].Role)
	}
	if msgs[1].ID != reply.ID {
		t.Errorf("returned reply should be the appended bot message")
	}
	if len(reply.Slides) != 3 {
		t.Errorf("reply slides: got %d, want 3", len(reply.Slides))
	}
	if msgs[0].ID == msgs[1].ID {
		t.Error("messages should have distinct IDs")
	}
}

func TestAsk_ResponseMentionsTopicAndSteps(t *testing.T) {
	t.Parallel()
	g := &stubGenerator{slides: threeSlides()}
	s := chat.NewSession(g, chat.WithResponsePicker(func(n int) int { return 0 }))

	reply := s.Ask(context.Background(), "how do I fix a flat bike tire")
	if !strings.Contains(reply.Content, "bike repair") {
		t.Errorf("reply should name the topic, got %q", reply.Content)
	}
	if !strings.Contains(reply.Content, "3-step") {
		t.Errorf("reply should carry the step count, got %q", reply.Content)
	}
}

func TestAsk_GenerationFailureYieldsApology(t *testing.T) {
	t.Parallel()
	g := &stubGenerator{err: errors.New("backend down")}
	s := chat.NewSession(g)

	reply := s.Ask(context.Background(), "how do I fix my bike")
	if !strings.Contains(reply.Content, "I apologize") {
		t.Errorf("expected apology, got %q", reply.Content)
	}
	if strings.Contains(reply.Content, "backend down") {
		t.Errorf("reply must not leak the underlying error: %q", reply.Content)
	}
	if reply.Slides != nil {
		t.Errorf("failed generation must not attach slides")
	}

	// The transcript survives failures.
	if got := len(s.Messages()); got != 2 {
		t.Errorf("got %d messages, want 2", got)
	}
}

func TestAsk_LoadingFlag(t *testing.T) {
	t.Parallel()
	started := make(chan struct{})
	release := make(chan struct{})
	g := blockingGenerator{started: started, release: release}
	s := chat.NewSession(&g)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Ask(context.Background(), "how do I fix my bike")
	}()

	<-started
	if !s.Loading() {
		t.Error("session should be loading while the pipeline runs")
	}
	close(release)
	<-done
	if s.Loading() {
		t.Error("session should not be loading after the reply")
	}
}

type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
}

func (g *blockingGenerator) Run(ctx context.Context, question string) ([]types.Slide, error) {
	close(g.started)
	<-g.release
	return threeSlides(), nil
}

func TestAsk_ListenerFires(t *testing.T) {
	t.Parallel()
	var notifications atomic.Int64
	g := &stubGenerator{slides: threeSlides()}
	s := chat.NewSession(g, chat.WithListener(func() { notifications.Add(1) }))

	s.Ask(context.Background(), "how do I fix my bike")
	// user append + loading on + bot append + loading off
	if got := notifications.Load(); got < 4 {
		t.Errorf("listener fired %d times, want at least 4", got)
	}
}

func TestAsk_EveryTemplateIsWellFormed(t *testing.T) {
	t.Parallel()
	for i := 0; i < 5; i++ {
		g := &stubGenerator{slides: threeSlides()}
		s := chat.NewSession(g, chat.WithResponsePicker(func(n int) int { return i }))
		reply := s.Ask(context.Background(), "how do I fix a flat bike tire")
		if !strings.Contains(reply.Content, "3") || !strings.Contains(reply.Content, "bike repair") {
			t.Errorf("template %d malformed: %q", i, reply.Content)
		}
	}
}

func TestMessages_ReturnsCopy(t *testing.T) {
	t.Parallel()
	g := &stubGenerator{slides: threeSlides()}
	s := chat.NewSession(g)
	s.Ask(context.Background(), "how do I fix my bike")

	msgs := s.Messages()
	msgs[0].Content = "mutated"
	if s.Messages()[0].Content == "mutated" {
		t.Error("Messages should return a copy of the transcript")
	}
}

func TestTopicName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		question string
		want     string
	}{
		{"how do I fix my car brakes", "car maintenance"},
		{"my bike chain keeps slipping", "bike repair"},
		{"my laptop is slow", "computer troubleshooting"},
		{"phone screen cracked", "phone repair"},
		{"best way to cook rice", "cooking"},
		{"when to plant tomatoes", "gardening"},
		{"how to clean an oven", "cleaning"},
		{"paint a bedroom wall", "painting"},
		{"beginner workout plan", "fitness"},
		{"learn an instrument", "music"},
	}
	for _, tc := range tests {
		if got := chat.TopicName(tc.question); got != tc.want {
			t.Errorf("TopicName(%q) = %q, want %q", tc.question, got, tc.want)
		}
	}
}

func TestTopicName_CarBeatsBike(t *testing.T) {
	t.Parallel()
	// "car" is checked before "bike", so a question mentioning both reads as
	// car maintenance.
	if got := chat.TopicName("should I drive my car or ride my bike"); got != "car maintenance" {
		t.Errorf("got %q, want car maintenance", got)
	}
}

func TestTopicName_DerivedPhrase(t *testing.T) {
	t.Parallel()
	if got := chat.TopicName("how do I repair a faucet"); got != "repair faucet" {
		t.Errorf("got %q, want \"repair faucet\"", got)
	}
	if got := chat.TopicName(""); got != "help with this topic" {
		t.Errorf("got %q, want \"help with this topic\"", got)
	}
}
