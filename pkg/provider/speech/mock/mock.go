// Package mock provides a test double for the speech.Engine interface.
//
// Use Engine to drive a player deterministically: each Speak call is
// recorded, and the test decides when (and how) the utterance ends by
// calling Complete, Fail, or Cancel.
//
// Example:
//
//	e := &mock.Engine{}
//	player.Start()        // player calls e.Speak(...)
//	e.Complete()          // simulate narration finishing naturally
package mock

import (
	"context"
	"sync"

	"github.com/slidecast/slidecast/pkg/provider/speech"
)

// SpeakCall records a single invocation of Speak.
type SpeakCall struct {
	// Ctx is the context passed to Speak.
	Ctx context.Context
	// Text is the utterance text passed to Speak.
	Text string
	// Voice is the voice passed to Speak.
	Voice speech.Voice
}

// Engine is a mock implementation of speech.Engine. The test controls when
// each utterance ends via Complete, Fail, or Cancel.
type Engine struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// SpeakErr, if non-nil, is returned from every Speak call (simulating an
	// unavailable narration backend).
	SpeakErr error

	// VoicesResult is returned by Voices.
	VoicesResult []speech.Voice

	// VoicesErr, if non-nil, is returned as the error from Voices.
	VoicesErr error

	// --- Call records (read after test) ---

	// SpeakCalls records every invocation of Speak in order.
	SpeakCalls []SpeakCall

	// CancelCalls counts invocations of Cancel.
	CancelCalls int

	// current is the outcome channel of the in-flight utterance, nil when idle.
	current chan speech.Outcome
}

// Speak records the call, cancels any in-flight utterance, and returns a
// fresh outcome channel the test settles via Complete, Fail, or Cancel.
func (e *Engine) Speak(ctx context.Context, text string, voice speech.Voice) (<-chan speech.Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.SpeakCalls = append(e.SpeakCalls, SpeakCall{Ctx: ctx, Text: text, Voice: voice})
	if e.SpeakErr != nil {
		return nil, e.SpeakErr
	}
	e.settleLocked(speech.OutcomeCancelled)
	e.current = make(chan speech.Outcome, 1)
	return e.current, nil
}

// Cancel settles the in-flight utterance with OutcomeCancelled.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CancelCalls++
	e.settleLocked(speech.OutcomeCancelled)
}

// Speaking reports whether an utterance is in flight.
func (e *Engine) Speaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil
}

// Voices returns VoicesResult, VoicesErr.
func (e *Engine) Voices(ctx context.Context) ([]speech.Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.VoicesResult, e.VoicesErr
}

// Complete settles the in-flight utterance with OutcomeCompleted. It is a
// no-op when nothing is speaking.
func (e *Engine) Complete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settleLocked(speech.OutcomeCompleted)
}

// Fail settles the in-flight utterance with OutcomeError.
func (e *Engine) Fail() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settleLocked(speech.OutcomeError)
}

// settleLocked delivers outcome on the in-flight channel and closes it.
// Callers must hold mu.
func (e *Engine) settleLocked(outcome speech.Outcome) {
	if e.current == nil {
		return
	}
	e.current <- outcome
	close(e.current)
	e.current = nil
}

// Reset clears all recorded calls and settles any in-flight utterance.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settleLocked(speech.OutcomeCancelled)
	e.SpeakCalls = nil
	e.CancelCalls = 0
}

// Ensure Engine implements speech.Engine at compile time.
var _ speech.Engine = (*Engine)(nil)
