// Package player implements the slideshow playback state machine.
//
// A Player owns one immutable slide list and advances through it in lockstep
// with narration: each caption is spoken, and when narration completes
// naturally the player waits a short pause and moves to the next slide.
// Pause, restart, seek and manual narration never race with in-flight
// narration because every asynchronous event (narration outcome, advance
// timer, fallback timer) carries the generation it was started under and is
// discarded when the player has since been paused, reset, or re-narrated.
//
// When the narration engine is unavailable the player degrades to timed
// advancement scaled by caption length, so playback always reaches the end.
package player

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/slidecast/slidecast/pkg/provider/speech"
	"github.com/slidecast/slidecast/pkg/types"
)

// State is a snapshot of playback for observers. JSON tags match the wire
// format the gateway pushes to browsers.
type State struct {
	// Index is the current slide position, 0-based.
	Index int `json:"index"`

	// Playing reports whether auto-advance is active.
	Playing bool `json:"playing"`

	// Narrating reports whether the current caption is being spoken.
	Narrating bool `json:"narrating"`

	// Started reports whether playback has ever begun.
	Started bool `json:"started"`

	// Finished reports whether playback ran past the last slide.
	Finished bool `json:"finished"`
}

const (
	// defaultPostNarrationPause separates the end of one caption's narration
	// from the next slide.
	defaultPostNarrationPause = 800 * time.Millisecond

	// defaultFinishPause delays the transition to Finished after the last
	// caption ends.
	defaultFinishPause = time.Second

	// fallbackPerChar scales the silent-advance timer by caption length when
	// narration is unavailable.
	fallbackPerChar = 60 * time.Millisecond

	// fallbackMinimum is the shortest silent-advance delay.
	fallbackMinimum = 2 * time.Second
)

// Option is a functional option for configuring a Player.
type Option func(*Player)

// WithVoice sets the narration voice. The zero Voice lets the engine decide.
func WithVoice(v speech.Voice) Option {
	return func(p *Player) { p.voice = v }
}

// WithPostNarrationPause overrides the pause between narration end and the
// next slide. Default: 800ms.
func WithPostNarrationPause(d time.Duration) Option {
	return func(p *Player) { p.postPause = d }
}

// WithFinishPause overrides the pause before entering Finished. Default: 1s.
func WithFinishPause(d time.Duration) Option {
	return func(p *Player) { p.finishPause = d }
}

// WithFallbackTiming overrides the silent-advance timing used when narration
// is unavailable. perChar scales with caption length; minimum is the floor.
func WithFallbackTiming(perChar, minimum time.Duration) Option {
	return func(p *Player) {
		p.fallbackPerChar = perChar
		p.fallbackMinimum = minimum
	}
}

// WithStateListener registers a callback invoked (outside the player's lock)
// after every state change. Used by the gateway to mirror playback to the
// browser.
func WithStateListener(fn func(State)) Option {
	return func(p *Player) { p.listener = fn }
}

// Player drives one slideshow. All exported methods are safe for concurrent
// use.
type Player struct {
	engine speech.Engine
	slides []types.Slide
	voice  speech.Voice

	postPause       time.Duration
	finishPause     time.Duration
	fallbackPerChar time.Duration
	fallbackMinimum time.Duration
	listener        func(State)

	mu        sync.Mutex
	index     int
	playing   bool
	narrating bool
	started   bool
	finished  bool

	// generation invalidates stale narration outcomes and timers. It is
	// incremented on every action that changes what the player should be
	// doing: start, pause, restart, seek, toggle, and each advance.
	generation uint64

	timer *time.Timer
}

// New creates a Player over an immutable slide list. slides must be
// non-empty; the engine may be nil, in which case all playback uses the
// timed fallback.
func New(engine speech.Engine, slides []types.Slide, opts ...Option) *Player {
	p := &Player{
		engine:          engine,
		slides:          slides,
		postPause:       defaultPostNarrationPause,
		finishPause:     defaultFinishPause,
		fallbackPerChar: fallbackPerChar,
		fallbackMinimum: fallbackMinimum,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// State returns a snapshot of the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Player) stateLocked() State {
	return State{
		Index:     p.index,
		Playing:   p.playing,
		Narrating: p.narrating,
		Started:   p.started,
		Finished:  p.finished,
	}
}

// Start begins playback from slide 0 and narrates it. Calling Start while
// already playing restarts from the top.
func (p *Player) Start(ctx context.Context) {
	p.mu.Lock()
	p.index = 0
	p.playing = true
	p.started = true
	p.finished = false
	gen := p.bumpLocked()
	p.mu.Unlock()

	p.notify()
	p.narrate(ctx, gen)
}

// Pause stops auto-advance and cancels in-flight narration immediately.
// Narration restarts from the top of the current caption on resume.
func (p *Player) Pause() {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return
	}
	p.playing = false
	p.narrating = false
	p.bumpLocked()
	p.mu.Unlock()

	if p.engine != nil {
		p.engine.Cancel()
	}
	p.notify()
}

// Restart returns to slide 0 and forces re-narration, from any state.
func (p *Player) Restart(ctx context.Context) {
	if p.engine != nil {
		p.engine.Cancel()
	}
	p.Start(ctx)
}

// Seek moves to the clamped target index without narrating. Manual
// navigation never auto-narrates; callers trigger ToggleNarration
// explicitly when they want the caption spoken.
func (p *Player) Seek(index int) {
	p.mu.Lock()
	if index < 0 {
		index = 0
	}
	if index > len(p.slides)-1 {
		index = len(p.slides) - 1
	}
	p.index = index
	p.narrating = false
	p.bumpLocked()
	p.mu.Unlock()

	if p.engine != nil {
		p.engine.Cancel()
	}
	p.notify()
}

// Next advances one slide without narrating; it clamps at the last slide and
// stops playback there.
func (p *Player) Next() {
	p.mu.Lock()
	if p.index >= len(p.slides)-1 {
		p.playing = false
		p.mu.Unlock()
		p.notify()
		return
	}
	p.index++
	p.narrating = false
	p.bumpLocked()
	p.mu.Unlock()

	if p.engine != nil {
		p.engine.Cancel()
	}
	p.notify()
}

// Prev moves one slide back without narrating, clamping at slide 0.
func (p *Player) Prev() {
	p.Seek(p.State().Index - 1)
}

// ToggleNarration stops in-flight narration (without triggering
// auto-advance), or narrates the current caption once when idle. Narrating a
// slide this way only advances via that narration's own natural completion
// while playing.
func (p *Player) ToggleNarration(ctx context.Context) {
	p.mu.Lock()
	if p.narrating {
		p.narrating = false
		p.bumpLocked()
		p.mu.Unlock()
		if p.engine != nil {
			p.engine.Cancel()
		}
		p.notify()
		return
	}
	gen := p.bumpLocked()
	p.mu.Unlock()

	p.narrate(ctx, gen)
}

// narrate speaks the slide at the current index. When the engine is missing
// or refuses the utterance, a caption-length timer stands in for narration so
// playback never stalls.
func (p *Player) narrate(ctx context.Context, gen uint64) {
	p.mu.Lock()
	if gen != p.generation || p.index >= len(p.slides) {
		p.mu.Unlock()
		return
	}
	caption := p.slides[p.index].Caption
	p.mu.Unlock()

	if p.engine != nil {
		outcome, err := p.engine.Speak(ctx, caption, p.voice)
		if err == nil {
			p.mu.Lock()
			if gen != p.generation {
				// A newer action superseded this narration before it started.
				p.mu.Unlock()
				p.engine.Cancel()
				return
			}
			p.narrating = true
			p.mu.Unlock()
			p.notify()

			go p.awaitOutcome(ctx, outcome, gen)
			return
		}
		slog.Warn("narration unavailable, advancing on timer", "error", err)
	}

	// Timed fallback: pretend narration took as long as reading the caption.
	p.scheduleAdvance(ctx, gen, p.fallbackDelay(caption))
}

// awaitOutcome waits for one narration outcome and, if it is a natural
// completion that still belongs to the current generation, schedules the
// advance.
func (p *Player) awaitOutcome(ctx context.Context, outcome <-chan speech.Outcome, gen uint64) {
	o, ok := <-outcome
	if !ok {
		o = speech.OutcomeCancelled
	}

	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		return
	}
	p.narrating = false

	if o != speech.OutcomeCompleted && o != speech.OutcomeError {
		// Cancelled narration never auto-advances.
		p.mu.Unlock()
		p.notify()
		return
	}
	playing := p.playing
	delay := p.postPause
	if p.index >= len(p.slides)-1 {
		delay = p.finishPause
	}
	p.mu.Unlock()
	p.notify()

	if playing {
		p.scheduleAdvance(ctx, gen, delay)
	}
}

// scheduleAdvance arms the post-narration pause. The timer callback
// revalidates the generation so a pause or seek between narration end and
// timer fire wins the race.
func (p *Player) scheduleAdvance(ctx context.Context, gen uint64, delay time.Duration) {
	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(delay, func() { p.advance(ctx, gen) })
	p.mu.Unlock()
}

// advance moves to the next slide or finishes the show.
func (p *Player) advance(ctx context.Context, gen uint64) {
	p.mu.Lock()
	if gen != p.generation || !p.playing {
		p.mu.Unlock()
		return
	}

	if p.index >= len(p.slides)-1 {
		p.playing = false
		p.finished = true
		p.bumpLocked()
		p.mu.Unlock()
		p.notify()
		return
	}

	p.index++
	next := p.bumpLocked()
	p.mu.Unlock()

	p.notify()
	p.narrate(ctx, next)
}

// fallbackDelay estimates how long the caption would have taken to narrate.
func (p *Player) fallbackDelay(caption string) time.Duration {
	d := time.Duration(len(caption)) * p.fallbackPerChar
	if d < p.fallbackMinimum {
		d = p.fallbackMinimum
	}
	return d
}

// bumpLocked invalidates all outstanding async events and returns the new
// generation. Callers must hold mu.
func (p *Player) bumpLocked() uint64 {
	p.generation++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	return p.generation
}

// notify invokes the state listener outside the lock.
func (p *Player) notify() {
	if p.listener != nil {
		p.listener(p.State())
	}
}
