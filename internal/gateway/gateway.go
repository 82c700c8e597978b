// Package gateway exposes the chat and slideshow player to browsers over a
// WebSocket connection.
//
// Each connection owns one chat session, one remote narrator (the browser's
// speech synthesis, driven via speak/speech_done frames), and at most one
// active slideshow player. The browser sends ask and player-control frames;
// the server pushes the full transcript, the loading flag, and player state
// snapshots whenever they change.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/slidecast/slidecast/internal/chat"
	"github.com/slidecast/slidecast/internal/observe"
	"github.com/slidecast/slidecast/internal/player"
	"github.com/slidecast/slidecast/pkg/provider/speech"
	"github.com/slidecast/slidecast/pkg/types"
)

// Frame type discriminators shared with the browser client.
const (
	// Client → server.
	frameAsk        = "ask"
	framePlayer     = "player"
	frameSpeechDone = "speech_done"
	frameVoices     = "voices"

	// Server → client.
	frameMessages     = "messages"
	frameLoading      = "loading"
	framePlayerState  = "player_state"
	frameSpeak        = "speak"
	frameSpeechCancel = "speech_cancel"
	frameError        = "error"
)

// Player control actions accepted in player frames.
const (
	actionStart           = "start"
	actionPause           = "pause"
	actionRestart         = "restart"
	actionSeek            = "seek"
	actionNext            = "next"
	actionPrev            = "prev"
	actionToggleNarration = "toggle_narration"
)

// clientFrame is the envelope for all client-to-server messages. Fields are
// populated depending on Type.
type clientFrame struct {
	Type string `json:"type"`

	// ask
	Text string `json:"text,omitempty"`

	// player
	Action    string `json:"action,omitempty"`
	Index     int    `json:"index,omitempty"`
	MessageID string `json:"message_id,omitempty"`

	// speech_done
	UtteranceID string `json:"utterance_id,omitempty"`
	Outcome     string `json:"outcome,omitempty"`

	// voices
	Voices []speech.Voice `json:"voices,omitempty"`
}

type messagesFrame struct {
	Type     string          `json:"type"`
	Messages []types.Message `json:"messages"`
}

type loadingFrame struct {
	Type    string `json:"type"`
	Loading bool   `json:"loading"`
}

type playerStateFrame struct {
	Type      string       `json:"type"`
	MessageID string       `json:"message_id"`
	State     player.State `json:"state"`
}

type speakFrame struct {
	Type        string `json:"type"`
	UtteranceID string `json:"utterance_id"`
	Text        string `json:"text"`
	Voice       string `json:"voice,omitempty"`
}

type cancelFrame struct {
	Type string `json:"type"`
}

type errorFrame struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// Config tunes gateway behaviour.
type Config struct {
	// Language is the BCP-47 prefix used to pick a narration voice from the
	// browser's voice list, e.g. "en-US".
	Language string

	// VoiceHint optionally biases voice selection towards a named voice.
	VoiceHint string

	// AllowedOrigins restricts which browser origins may connect. Empty means
	// same-origin only (the websocket library's default).
	AllowedOrigins []string

	// PlayerOptions are applied to every slideshow player the gateway
	// creates. Tests use this to shorten pauses.
	PlayerOptions []player.Option
}

// Handler upgrades HTTP requests to WebSocket connections and serves them.
// One Handler serves many concurrent connections.
type Handler struct {
	generator chat.Generator
	metrics   *observe.Metrics

	cfgMu sync.RWMutex
	cfg   Config
}

// NewHandler creates a gateway Handler backed by the given slideshow
// generator.
func NewHandler(generator chat.Generator, cfg Config, metrics *observe.Metrics) *Handler {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Handler{generator: generator, cfg: cfg, metrics: metrics}
}

// SetSpeech updates the narration language and voice hint. Players started
// after the call pick voices with the new settings; running players keep
// theirs.
func (h *Handler) SetSpeech(language, voiceHint string) {
	h.cfgMu.Lock()
	defer h.cfgMu.Unlock()
	h.cfg.Language = language
	h.cfg.VoiceHint = voiceHint
}

// SetPlayerOptions replaces the options applied to newly started players.
func (h *Handler) SetPlayerOptions(opts []player.Option) {
	h.cfgMu.Lock()
	defer h.cfgMu.Unlock()
	h.cfg.PlayerOptions = opts
}

// snapshot returns a copy of the current gateway config.
func (h *Handler) snapshot() Config {
	h.cfgMu.RLock()
	defer h.cfgMu.RUnlock()
	return h.cfg
}

// ServeHTTP implements [http.Handler].
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.snapshot().AllowedOrigins,
	})
	if err != nil {
		observe.Logger(r.Context()).Warn("websocket accept failed", "error", err)
		return
	}

	h.metrics.ActiveSessions.Add(r.Context(), 1)
	defer h.metrics.ActiveSessions.Add(context.Background(), -1)

	c := newConnection(conn, h)
	c.serve(r.Context())
}

// connection is the per-socket state: one session, one narrator, at most one
// player. Gateway settings are read from the handler when a player starts, so
// hot-reloaded speech and pause settings apply to the next slideshow.
type connection struct {
	conn     *websocket.Conn
	handler  *Handler
	metrics  *observe.Metrics
	session  *chat.Session
	narrator *remoteNarrator

	writeMu sync.Mutex

	mu        sync.Mutex
	player    *player.Player
	messageID string // bot message the current player belongs to
}

func newConnection(conn *websocket.Conn, h *Handler) *connection {
	c := &connection{conn: conn, handler: h, metrics: h.metrics}
	c.narrator = newRemoteNarrator(c.writeJSON)
	c.session = chat.NewSession(h.generator, chat.WithListener(c.pushSession))
	return c
}

// serve runs the read loop until the connection closes.
func (c *connection) serve(ctx context.Context) {
	log := observe.Logger(ctx)
	defer func() {
		c.teardown()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	// Initial sync so a reconnecting client sees the empty transcript state.
	c.pushSession()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure &&
				websocket.CloseStatus(err) != websocket.StatusGoingAway {
				log.Debug("websocket read ended", "error", err)
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.sendError("malformed frame")
			continue
		}
		c.handle(ctx, &frame)
	}
}

func (c *connection) handle(ctx context.Context, frame *clientFrame) {
	switch frame.Type {
	case frameAsk:
		if frame.Text == "" {
			c.sendError("ask frame requires text")
			return
		}
		// Asynchronous so player control and speech_done frames keep flowing
		// while the pipeline runs.
		go c.session.Ask(ctx, frame.Text)

	case framePlayer:
		c.handlePlayer(ctx, frame)

	case frameSpeechDone:
		c.narrator.finish(frame.UtteranceID, parseOutcome(frame.Outcome))

	case frameVoices:
		c.narrator.setVoices(frame.Voices)

	default:
		c.sendError(fmt.Sprintf("unknown frame type %q", frame.Type))
	}
}

// handlePlayer dispatches a player-control action. Start targets a bot
// message by ID and replaces any previous player; all other actions address
// the current player.
func (c *connection) handlePlayer(ctx context.Context, frame *clientFrame) {
	if frame.Action == actionStart {
		c.startPlayer(ctx, frame.MessageID)
		return
	}

	c.mu.Lock()
	p := c.player
	c.mu.Unlock()
	if p == nil {
		c.sendError("no active slideshow")
		return
	}

	switch frame.Action {
	case actionPause:
		p.Pause()
	case actionRestart:
		p.Restart(ctx)
	case actionSeek:
		p.Seek(frame.Index)
	case actionNext:
		p.Next()
	case actionPrev:
		p.Prev()
	case actionToggleNarration:
		p.ToggleNarration(ctx)
	default:
		c.sendError(fmt.Sprintf("unknown player action %q", frame.Action))
	}
}

// startPlayer creates a player for the slideshow attached to the given bot
// message and begins playback.
func (c *connection) startPlayer(ctx context.Context, messageID string) {
	slides := c.findSlides(messageID)
	if len(slides) == 0 {
		c.sendError("message has no slideshow")
		return
	}

	cfg := c.handler.snapshot()
	opts := []player.Option{
		player.WithVoice(c.pickVoice(ctx, cfg)),
		player.WithStateListener(func(s player.State) { c.pushPlayerState(messageID, s) }),
	}
	opts = append(opts, cfg.PlayerOptions...)

	p := player.New(c.narrator, slides, opts...)

	c.mu.Lock()
	old := c.player
	c.player = p
	c.messageID = messageID
	c.mu.Unlock()

	if old != nil {
		old.Pause()
	} else {
		c.metrics.ActivePlayers.Add(ctx, 1)
	}
	p.Start(ctx)
}

// findSlides looks up the slideshow attached to a bot message.
func (c *connection) findSlides(messageID string) []types.Slide {
	for _, m := range c.session.Messages() {
		if m.ID == messageID && m.Role == types.RoleBot {
			return m.Slides
		}
	}
	return nil
}

// pickVoice selects a narration voice from the browser's reported voices.
func (c *connection) pickVoice(ctx context.Context, cfg Config) speech.Voice {
	voices, err := c.narrator.Voices(ctx)
	if err != nil {
		return speech.Voice{}
	}
	return speech.PickVoice(voices, cfg.Language, cfg.VoiceHint)
}

// pushSession sends the full transcript and loading flag.
func (c *connection) pushSession() {
	_ = c.writeJSON(messagesFrame{Type: frameMessages, Messages: c.session.Messages()})
	_ = c.writeJSON(loadingFrame{Type: frameLoading, Loading: c.session.Loading()})
}

// pushPlayerState mirrors one player state snapshot to the browser.
func (c *connection) pushPlayerState(messageID string, s player.State) {
	_ = c.writeJSON(playerStateFrame{Type: framePlayerState, MessageID: messageID, State: s})
}

func (c *connection) sendError(reason string) {
	_ = c.writeJSON(errorFrame{Type: frameError, Reason: reason})
}

// writeJSON marshals v and writes it as a text WebSocket message. Writes are
// serialised because player callbacks, session listeners, and the read loop
// all push frames.
func (c *connection) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("gateway: marshal: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.Write(context.Background(), websocket.MessageText, data)
}

// teardown stops playback when the socket goes away.
func (c *connection) teardown() {
	c.mu.Lock()
	p := c.player
	c.player = nil
	c.mu.Unlock()
	if p != nil {
		p.Pause()
		c.metrics.ActivePlayers.Add(context.Background(), -1)
	}
}

// parseOutcome maps the browser's outcome string to a [speech.Outcome].
// Unknown values are treated as cancellation so they never auto-advance.
func parseOutcome(s string) speech.Outcome {
	switch s {
	case "completed":
		return speech.OutcomeCompleted
	case "error":
		return speech.OutcomeError
	default:
		return speech.OutcomeCancelled
	}
}
