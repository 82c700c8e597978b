// Package chat maintains the conversation between a person and the explainer
// pipeline.
//
// A Session is an append-only message transcript plus a loading flag. Asking
// a question appends the user's message, runs the pipeline, and appends
// either a bot message carrying the generated slideshow or a fixed apology
// when generation failed. The transcript survives failures, so a person can
// simply re-ask.
package chat

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/slidecast/slidecast/internal/observe"
	"github.com/slidecast/slidecast/pkg/types"
)

// apologyMessage is appended verbatim when the pipeline fails. It never
// exposes the underlying error to the person asking.
const apologyMessage = "I apologize, but I encountered an issue while preparing your visual guide. " +
	"This might be due to high demand or connectivity issues. " +
	"Please try asking your question again, and I'll do my best to help you!"

// responseTemplates are the conversational bot replies that accompany a
// successful slideshow. Each takes the step count and the topic name, in
// varying order.
var responseTemplates = []func(topic string, steps int) string{
	func(t string, n int) string {
		return fmt.Sprintf("Perfect! I've put together a comprehensive %d-step visual guide for %s. "+
			"Each step includes carefully selected images and clear instructions that will walk you through the entire process.", n, t)
	},
	func(t string, n int) string {
		return fmt.Sprintf("Great question! I've created a detailed %d-step tutorial about %s. "+
			"You'll see exactly what to do at each stage with helpful visuals and easy-to-follow explanations.", n, t)
	},
	func(t string, n int) string {
		return fmt.Sprintf("I'd be happy to help with %s! I've prepared a %d-step visual walkthrough that shows you everything you need to know. "+
			"The slideshow will guide you through each step with clear images and instructions.", t, n)
	},
	func(t string, n int) string {
		return fmt.Sprintf("Excellent! Here's a complete %d-step guide for %s. "+
			"I've included specific visuals for each step so you can see exactly what you're working with and what to do next.", n, t)
	},
	func(t string, n int) string {
		return fmt.Sprintf("I've got you covered! This %d-step visual guide will take you through %s from start to finish. "+
			"Each slide shows you the key details and actions you need to take.", n, t)
	},
}

// Generator produces a slideshow for a question. *pipeline.Pipeline satisfies
// this; tests substitute a stub.
type Generator interface {
	Run(ctx context.Context, question string) ([]types.Slide, error)
}

// Option is a functional option for configuring a Session.
type Option func(*Session)

// WithListener registers a callback invoked (outside the session's lock)
// whenever the transcript or loading flag changes. The gateway uses it to
// push updates to the browser.
func WithListener(fn func()) Option {
	return func(s *Session) { s.listener = fn }
}

// WithResponsePicker overrides the random template selection for successful
// answers. pick receives the template count and returns an index. Tests use
// this to make replies deterministic.
func WithResponsePicker(pick func(n int) int) Option {
	return func(s *Session) { s.pickResponse = pick }
}

// Session is one person's conversation. All methods are safe for concurrent
// use.
type Session struct {
	generator Generator

	mu       sync.Mutex
	messages []types.Message
	loading  bool

	listener     func()
	pickResponse func(n int) int
}

// NewSession creates an empty Session backed by the given generator.
func NewSession(generator Generator, opts ...Option) *Session {
	s := &Session{generator: generator}
	for _, o := range opts {
		o(s)
	}
	if s.pickResponse == nil {
		s.pickResponse = rand.IntN
	}
	return s
}

// Messages returns a copy of the transcript in append order.
func (s *Session) Messages() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Loading reports whether a question is currently being processed.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Ask processes one question: the user message is appended immediately, the
// pipeline runs, and a bot message is appended with the result. The returned
// message is the bot's reply. Ask itself never returns an error; failures
// become the apology reply.
func (s *Session) Ask(ctx context.Context, question string) types.Message {
	s.append(types.Message{
		ID:        uuid.NewString(),
		Role:      types.RoleUser,
		Content:   question,
		Timestamp: time.Now(),
	})
	s.setLoading(true)
	defer s.setLoading(false)

	slides, err := s.generator.Run(ctx, question)

	reply := types.Message{
		ID:        uuid.NewString(),
		Role:      types.RoleBot,
		Timestamp: time.Now(),
	}
	if err != nil {
		observe.Logger(ctx).Error("question failed", "error", err)
		reply.Content = apologyMessage
	} else {
		reply.Content = s.naturalResponse(TopicName(question), len(slides))
		reply.Slides = slides
	}
	s.append(reply)
	return reply
}

func (s *Session) append(m types.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
	s.notify()
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	if s.listener != nil {
		s.listener()
	}
}

// naturalResponse picks one of the reply templates.
func (s *Session) naturalResponse(topic string, steps int) string {
	i := s.pickResponse(len(responseTemplates))
	if i < 0 || i >= len(responseTemplates) {
		i = 0
	}
	return responseTemplates[i](topic, steps)
}

// topicPhrases maps question keywords to the human-readable topic name used
// in bot replies. Checked in order; the first match wins.
var topicPhrases = []struct {
	words []string
	name  string
}{
	{[]string{"car", "vehicle", "automobile"}, "car maintenance"},
	{[]string{"bike", "bicycle"}, "bike repair"},
	{[]string{"computer", "laptop"}, "computer troubleshooting"},
	{[]string{"phone", "smartphone"}, "phone repair"},
	{[]string{"cook", "recipe"}, "cooking"},
	{[]string{"garden", "plant"}, "gardening"},
	{[]string{"clean"}, "cleaning"},
	{[]string{"paint"}, "painting"},
	{[]string{"exercise", "workout"}, "fitness"},
	{[]string{"music", "instrument"}, "music"},
}

// topicActionWords are the verbs preferred when deriving a topic name from
// an unrecognised question.
var topicActionWords = []string{"fix", "repair", "make", "build", "create", "learn", "understand"}

// TopicName maps a question to the readable topic name used in bot replies,
// e.g. "bike repair" or "computer troubleshooting". Unrecognised questions
// get an "<action> <subject>" phrase built from the question's own words.
func TopicName(question string) string {
	lower := strings.ToLower(question)

	for _, tp := range topicPhrases {
		for _, w := range tp.words {
			if strings.Contains(lower, w) {
				return tp.name
			}
		}
	}

	words := strings.Fields(lower)
	action := "help with"
	for _, w := range words {
		if slices.Contains(topicActionWords, w) {
			action = w
			break
		}
	}
	subject := "this topic"
	for _, w := range words {
		if len(w) > 4 && !slices.Contains(topicActionWords, w) {
			subject = w
			break
		}
	}
	return action + " " + subject
}
