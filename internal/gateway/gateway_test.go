package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/slidecast/slidecast/internal/player"
	"github.com/slidecast/slidecast/pkg/provider/speech"
	"github.com/slidecast/slidecast/pkg/types"
)

// ---- test helpers ----

// fakeGenerator implements chat.Generator with canned slides.
type fakeGenerator struct {
	slides []types.Slide
	err    error
}

func (g *fakeGenerator) Run(_ context.Context, _ string) ([]types.Slide, error) {
	return g.slides, g.err
}

func twoSlides() []types.Slide {
	return []types.Slide{
		{Image: "https://img.example/1.jpg", Caption: "First loosen the axle nuts.", Keywords: []string{"bike wrench"}},
		{Image: "https://img.example/2.jpg", Caption: "Then reseat the chain.", Keywords: []string{"bike chain"}},
	}
}

// serverFrame is a union of every frame shape the gateway pushes, so tests can
// decode any frame into one struct and switch on Type.
type serverFrame struct {
	Type        string          `json:"type"`
	Messages    []types.Message `json:"messages"`
	Loading     bool            `json:"loading"`
	MessageID   string          `json:"message_id"`
	State       player.State    `json:"state"`
	UtteranceID string          `json:"utterance_id"`
	Text        string          `json:"text"`
	Voice       string          `json:"voice"`
	Reason      string          `json:"reason"`
}

// wsURL converts an httptest server HTTP URL to a WebSocket URL.
func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// fastPlayerOptions keeps playback tests quick.
func fastPlayerOptions() []player.Option {
	return []player.Option{
		player.WithPostNarrationPause(10 * time.Millisecond),
		player.WithFinishPause(10 * time.Millisecond),
		player.WithFallbackTiming(time.Millisecond, 5*time.Millisecond),
	}
}

// dialGateway serves a Handler over httptest and dials it. The connection and
// server are torn down when the test finishes.
func dialGateway(t *testing.T, gen *fakeGenerator, cfg Config) *websocket.Conn {
	t.Helper()
	h := NewHandler(gen, cfg, nil)
	srv := httptest.NewServer(http.HandlerFunc(h.ServeHTTP))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

// readFrame reads and decodes one frame.
func readFrame(t *testing.T, conn *websocket.Conn) serverFrame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var f serverFrame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return f
}

// waitFrame reads frames until one matches typ, discarding the rest.
func waitFrame(t *testing.T, conn *websocket.Conn, typ string) serverFrame {
	t.Helper()
	for i := 0; i < 50; i++ {
		f := readFrame(t, conn)
		if f.Type == typ {
			return f
		}
	}
	t.Fatalf("no %q frame after 50 frames", typ)
	return serverFrame{}
}

// sendFrame marshals v and sends it as a text frame.
func sendFrame(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	data, _ := json.Marshal(v)
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("send frame: %v", err)
	}
}

// askAndGetBotMessage sends an ask frame and waits for the transcript to carry
// the answering bot message.
func askAndGetBotMessage(t *testing.T, conn *websocket.Conn) types.Message {
	t.Helper()
	sendFrame(t, conn, clientFrame{Type: frameAsk, Text: "how do I fix a bike chain"})
	for i := 0; i < 50; i++ {
		f := readFrame(t, conn)
		if f.Type == frameMessages && len(f.Messages) == 2 {
			return f.Messages[1]
		}
	}
	t.Fatal("transcript never reached two messages")
	return types.Message{}
}

// ---- connection lifecycle ----

func TestHandler_RuntimeSettingUpdates(t *testing.T) {
	t.Parallel()

	h := NewHandler(&fakeGenerator{}, Config{Language: "en-US", VoiceHint: "daniel"}, nil)

	h.SetSpeech("de-DE", "anna")
	h.SetPlayerOptions(fastPlayerOptions())

	cfg := h.snapshot()
	if cfg.Language != "de-DE" || cfg.VoiceHint != "anna" {
		t.Errorf("snapshot speech = %q/%q, want de-DE/anna", cfg.Language, cfg.VoiceHint)
	}
	if len(cfg.PlayerOptions) != len(fastPlayerOptions()) {
		t.Errorf("snapshot has %d player options, want %d", len(cfg.PlayerOptions), len(fastPlayerOptions()))
	}
}

func TestHandler_InitialSync(t *testing.T) {
	t.Parallel()
	conn := dialGateway(t, &fakeGenerator{}, Config{})

	first := readFrame(t, conn)
	if first.Type != frameMessages {
		t.Fatalf("first frame type = %q, want %q", first.Type, frameMessages)
	}
	if len(first.Messages) != 0 {
		t.Errorf("initial transcript has %d messages, want 0", len(first.Messages))
	}

	second := readFrame(t, conn)
	if second.Type != frameLoading {
		t.Fatalf("second frame type = %q, want %q", second.Type, frameLoading)
	}
	if second.Loading {
		t.Error("initial loading = true, want false")
	}
}

// ---- ask ----

func TestHandler_AskBuildsTranscript(t *testing.T) {
	t.Parallel()
	conn := dialGateway(t, &fakeGenerator{slides: twoSlides()}, Config{})

	bot := askAndGetBotMessage(t, conn)
	if bot.Role != types.RoleBot {
		t.Errorf("second message role = %q, want bot", bot.Role)
	}
	if bot.ID == "" {
		t.Error("bot message has empty ID")
	}
	if bot.Content == "" {
		t.Error("bot message has empty content")
	}
	if len(bot.Slides) != 2 {
		t.Errorf("bot message carries %d slides, want 2", len(bot.Slides))
	}
}

func TestHandler_AskRequiresText(t *testing.T) {
	t.Parallel()
	conn := dialGateway(t, &fakeGenerator{}, Config{})

	sendFrame(t, conn, clientFrame{Type: frameAsk})
	f := waitFrame(t, conn, frameError)
	if !strings.Contains(f.Reason, "requires text") {
		t.Errorf("error reason = %q, want mention of required text", f.Reason)
	}
}

func TestHandler_MalformedFrame(t *testing.T) {
	t.Parallel()
	conn := dialGateway(t, &fakeGenerator{}, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := waitFrame(t, conn, frameError)
	if !strings.Contains(f.Reason, "malformed") {
		t.Errorf("error reason = %q, want malformed", f.Reason)
	}
}

func TestHandler_UnknownFrameType(t *testing.T) {
	t.Parallel()
	conn := dialGateway(t, &fakeGenerator{}, Config{})

	sendFrame(t, conn, clientFrame{Type: "bogus"})
	f := waitFrame(t, conn, frameError)
	if !strings.Contains(f.Reason, "unknown frame type") {
		t.Errorf("error reason = %q, want unknown frame type", f.Reason)
	}
}

// ---- player control ----

func TestHandler_PlayerControlWithoutShow(t *testing.T) {
	t.Parallel()
	conn := dialGateway(t, &fakeGenerator{}, Config{})

	sendFrame(t, conn, clientFrame{Type: framePlayer, Action: actionPause})
	f := waitFrame(t, conn, frameError)
	if !strings.Contains(f.Reason, "no active slideshow") {
		t.Errorf("error reason = %q, want no active slideshow", f.Reason)
	}
}

func TestHandler_StartUnknownMessage(t *testing.T) {
	t.Parallel()
	conn := dialGateway(t, &fakeGenerator{}, Config{})

	sendFrame(t, conn, clientFrame{Type: framePlayer, Action: actionStart, MessageID: "nope"})
	f := waitFrame(t, conn, frameError)
	if !strings.Contains(f.Reason, "no slideshow") {
		t.Errorf("error reason = %q, want no slideshow", f.Reason)
	}
}

func TestHandler_SlideshowPlayback(t *testing.T) {
	t.Parallel()
	conn := dialGateway(t, &fakeGenerator{slides: twoSlides()},
		Config{PlayerOptions: fastPlayerOptions()})

	bot := askAndGetBotMessage(t, conn)
	sendFrame(t, conn, clientFrame{Type: framePlayer, Action: actionStart, MessageID: bot.ID})

	// Act as the browser: complete every narration request, watch the state
	// frames until the show finishes.
	var (
		spoken   []string
		finished bool
	)
	for i := 0; i < 100 && !finished; i++ {
		f := readFrame(t, conn)
		switch f.Type {
		case frameSpeak:
			spoken = append(spoken, f.Text)
			sendFrame(t, conn, clientFrame{
				Type:        frameSpeechDone,
				UtteranceID: f.UtteranceID,
				Outcome:     "completed",
			})
		case framePlayerState:
			if f.MessageID != bot.ID {
				t.Errorf("player state for message %q, want %q", f.MessageID, bot.ID)
			}
			if f.State.Finished {
				finished = true
			}
		}
	}
	if !finished {
		t.Fatal("playback never finished")
	}
	if len(spoken) != 2 {
		t.Fatalf("narrated %d captions, want 2: %q", len(spoken), spoken)
	}
	if spoken[0] != "First loosen the axle nuts." || spoken[1] != "Then reseat the chain." {
		t.Errorf("narration order wrong: %q", spoken)
	}
}

func TestHandler_VoicesInformNarration(t *testing.T) {
	t.Parallel()
	conn := dialGateway(t, &fakeGenerator{slides: twoSlides()},
		Config{Language: "en-US", VoiceHint: "daniel", PlayerOptions: fastPlayerOptions()})

	sendFrame(t, conn, clientFrame{Type: frameVoices, Voices: []speech.Voice{
		{ID: "v1", Name: "Daniel", Language: "en-GB"},
		{ID: "v2", Name: "Anna", Language: "de-DE"},
	}})

	bot := askAndGetBotMessage(t, conn)
	sendFrame(t, conn, clientFrame{Type: framePlayer, Action: actionStart, MessageID: bot.ID})

	f := waitFrame(t, conn, frameSpeak)
	if f.Voice != "v1" {
		t.Errorf("speak frame voice = %q, want v1", f.Voice)
	}
}

func TestHandler_GenerationFailureStillAnswers(t *testing.T) {
	t.Parallel()
	conn := dialGateway(t, &fakeGenerator{err: context.DeadlineExceeded}, Config{})

	sendFrame(t, conn, clientFrame{Type: frameAsk, Text: "anything"})
	var bot types.Message
	for i := 0; i < 50; i++ {
		f := readFrame(t, conn)
		if f.Type == frameMessages && len(f.Messages) == 2 {
			bot = f.Messages[1]
			break
		}
	}
	if bot.Role != types.RoleBot {
		t.Fatal("no bot message after generation failure")
	}
	if len(bot.Slides) != 0 {
		t.Errorf("failed answer carries %d slides, want 0", len(bot.Slides))
	}
	if bot.Content == "" {
		t.Error("apology message is empty")
	}
}
