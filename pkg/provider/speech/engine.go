// Package speech defines the Engine interface for text-to-speech narration
// backends.
//
// Narration is single-flight per engine: starting a new utterance cancels any
// in-flight one, and the outcome channel distinguishes natural completion
// from cancellation so a player never auto-advances on a stale or cancelled
// callback. The production implementation lives in the websocket gateway and
// forwards utterances to the browser's speechSynthesis; tests use the mock
// subpackage.
package speech

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by Speak when no narration backend is reachable
// (for example, no browser client is connected). Callers should fall back to
// timed slide advancement rather than stalling playback.
var ErrUnavailable = errors.New("speech engine unavailable")

// Outcome reports how an utterance ended.
type Outcome int

const (
	// OutcomeCompleted means the utterance was narrated to its natural end.
	OutcomeCompleted Outcome = iota

	// OutcomeCancelled means the utterance was cut off by Cancel or by a
	// newer Speak call.
	OutcomeCancelled

	// OutcomeError means the backend failed mid-utterance.
	OutcomeError
)

// String returns the human-readable name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Voice describes one narration voice offered by the backend.
type Voice struct {
	// ID is the backend-specific voice identifier.
	ID string

	// Name is the human-readable voice name (e.g. "Samantha (Enhanced)").
	Name string

	// Language is the BCP-47 language tag (e.g. "en-US").
	Language string

	// Default marks the backend's default voice.
	Default bool
}

// Engine is the abstraction over any narration backend.
//
// Implementations must be safe for concurrent use and must guarantee that at
// most one utterance is speaking at a time: Speak cancels any in-flight
// utterance before starting, and the superseded utterance's channel receives
// [OutcomeCancelled].
type Engine interface {
	// Speak starts narrating text with the given voice and returns a channel
	// that delivers exactly one Outcome and is then closed. A zero Voice asks
	// the backend to pick. Returns [ErrUnavailable] (possibly wrapped) when
	// no backend can narrate; the channel is nil in that case.
	Speak(ctx context.Context, text string, voice Voice) (<-chan Outcome, error)

	// Cancel stops the in-flight utterance immediately, if any. The
	// utterance's outcome channel receives [OutcomeCancelled]. Cancel is a
	// no-op when nothing is speaking.
	Cancel()

	// Speaking reports whether an utterance is currently being narrated.
	Speaking() bool

	// Voices returns the backend's current voice catalogue.
	Voices(ctx context.Context) ([]Voice, error)
}
