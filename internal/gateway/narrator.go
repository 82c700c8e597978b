package gateway

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/slidecast/slidecast/pkg/provider/speech"
)

// Compile-time interface assertion.
var _ speech.Engine = (*remoteNarrator)(nil)

// remoteNarrator implements [speech.Engine] by delegating synthesis to the
// connected browser. Speak sends a speak frame tagged with an utterance ID;
// the browser replies with a speech_done frame carrying the same ID once its
// speech synthesis finishes, is cancelled, or errors.
//
// Narration is single-flight: starting a new utterance settles the previous
// one as cancelled.
type remoteNarrator struct {
	send func(frame any) error

	mu      sync.Mutex
	voices  []speech.Voice
	current string // in-flight utterance ID, empty when idle
	outcome chan speech.Outcome
}

func newRemoteNarrator(send func(frame any) error) *remoteNarrator {
	return &remoteNarrator{send: send}
}

// Speak asks the browser to synthesise text. The returned channel receives
// exactly one outcome when the browser reports back.
func (n *remoteNarrator) Speak(ctx context.Context, text string, voice speech.Voice) (<-chan speech.Outcome, error) {
	n.mu.Lock()
	n.settleLocked(speech.OutcomeCancelled)
	id := uuid.NewString()
	ch := make(chan speech.Outcome, 1)
	n.current = id
	n.outcome = ch
	n.mu.Unlock()

	if err := n.send(speakFrame{Type: frameSpeak, UtteranceID: id, Text: text, Voice: voice.ID}); err != nil {
		n.mu.Lock()
		if n.current == id {
			n.current = ""
			n.outcome = nil
		}
		n.mu.Unlock()
		return nil, speech.ErrUnavailable
	}
	return ch, nil
}

// Cancel stops the in-flight utterance, if any, both locally and in the
// browser.
func (n *remoteNarrator) Cancel() {
	n.mu.Lock()
	active := n.current != ""
	n.settleLocked(speech.OutcomeCancelled)
	n.mu.Unlock()

	if active {
		// Best effort: the connection may already be gone.
		_ = n.send(cancelFrame{Type: frameSpeechCancel})
	}
}

// Speaking reports whether an utterance is awaiting its outcome.
func (n *remoteNarrator) Speaking() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current != ""
}

// Voices returns the voices the browser reported on connect. Empty until the
// browser sends its voice list.
func (n *remoteNarrator) Voices(ctx context.Context) ([]speech.Voice, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.voices) == 0 {
		return nil, speech.ErrUnavailable
	}
	out := make([]speech.Voice, len(n.voices))
	copy(out, n.voices)
	return out, nil
}

// setVoices records the browser's available voices.
func (n *remoteNarrator) setVoices(voices []speech.Voice) {
	n.mu.Lock()
	n.voices = voices
	n.mu.Unlock()
}

// finish resolves the utterance with the given ID. Stale IDs (from an
// utterance already cancelled or superseded) are ignored.
func (n *remoteNarrator) finish(utteranceID string, outcome speech.Outcome) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current != utteranceID {
		return
	}
	n.settleLocked(outcome)
}

// settleLocked delivers the outcome for the in-flight utterance, if any.
// Callers must hold mu.
func (n *remoteNarrator) settleLocked(outcome speech.Outcome) {
	if n.current == "" {
		return
	}
	n.outcome <- outcome
	close(n.outcome)
	n.current = ""
	n.outcome = nil
}
