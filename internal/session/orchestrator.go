// Package session owns the lifecycle of one narration session: connect,
// stream audio both ways, interpret every inbound event, drive the
// transcription accumulator and the tool dispatcher, and tear down cleanly on
// user exit, remote error or remote close.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taleforge/taleforge/internal/config"
	"github.com/taleforge/taleforge/internal/game"
	"github.com/taleforge/taleforge/internal/observe"
	"github.com/taleforge/taleforge/internal/tools"
	"github.com/taleforge/taleforge/internal/transcript"
	"github.com/taleforge/taleforge/pkg/audio"
	"github.com/taleforge/taleforge/pkg/narration"
)

// State is the session lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StatePlaying    State = "playing"
	StateError      State = "error"
)

var (
	// ErrNoCharacter is returned by Connect when no character sheet is set.
	ErrNoCharacter = errors.New("session: no character selected")

	// ErrSessionActive is returned by Connect while a session is connecting
	// or playing.
	ErrSessionActive = errors.New("session: already connected")
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to [slog.Default].
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithMetrics sets the metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithVoice selects the narrator voice passed to the engine.
func WithVoice(voice string) Option {
	return func(o *Orchestrator) { o.voice = voice }
}

// WithLanguage selects the language the narrator is instructed to speak in.
func WithLanguage(lang config.Language) Option {
	return func(o *Orchestrator) { o.language = lang }
}

// WithConnectTimeout bounds the connect handshake. A stalled engine fails the
// connect instead of pinning the session in the connecting state.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.connectTimeout = d }
}

// WithOnDamage installs the damage signal fired before a negative HP
// mutation commits.
func WithOnDamage(fn func(amount int)) Option {
	return func(o *Orchestrator) { o.onDamage = fn }
}

// Orchestrator drives one narration session at a time over a fixed provider,
// audio platform and campaign state. Safe for concurrent use.
type Orchestrator struct {
	provider narration.Provider
	platform audio.Platform
	game     *game.State
	log      *slog.Logger
	metrics  *observe.Metrics

	voice          string
	language       config.Language
	connectTimeout time.Duration
	onDamage       func(int)

	acc        *transcript.Accumulator
	dispatcher *tools.Dispatcher

	mu         sync.Mutex
	state      State
	handle     narration.SessionHandle
	capture    audio.CaptureDevice
	playback   audio.PlaybackDevice
	sched      *audio.Scheduler
	stopTap    func()
	micOn      bool
	userClosed bool
	pumpDone   chan struct{}
}

// New creates an idle Orchestrator over the given provider, audio platform
// and campaign state.
func New(provider narration.Provider, platform audio.Platform, st *game.State, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:       provider,
		platform:       platform,
		game:           st,
		log:            slog.Default(),
		voice:          "Kore",
		language:       config.LangEnglish,
		connectTimeout: config.DefaultConnectTimeout,
		state:          StateIdle,
		acc:            transcript.New(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}
	o.dispatcher = &tools.Dispatcher{State: st, OnDamage: o.onDamage}
	return o
}

// State returns the current session state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Transcription returns the in-flight user and model transcription text.
func (o *Orchestrator) Transcription() (user, model string) {
	return o.acc.Pending()
}

// Analysis returns the most recently scheduled playback samples, or nil
// outside a session. UI visualisers poll this.
func (o *Orchestrator) Analysis() []float32 {
	o.mu.Lock()
	sched := o.sched
	o.mu.Unlock()
	if sched == nil {
		return nil
	}
	return sched.Analysis()
}

// MicEnabled reports whether capture frames are being forwarded.
func (o *Orchestrator) MicEnabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.micOn
}

// SetMicEnabled toggles the microphone. While disabled, capture frames are
// dropped, not buffered; re-enabling resumes with the next frame.
func (o *Orchestrator) SetMicEnabled(on bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.micOn = on
}

// Connect opens a new narration session. It requires a character sheet, opens
// the capture and playback devices at the wire rates, builds the system
// instructions and dials the engine. Any failure unwinds fully — no partial
// session is left behind — and parks the orchestrator in [StateError].
func (o *Orchestrator) Connect(ctx context.Context) error {
	o.mu.Lock()
	if o.state == StateConnecting || o.state == StatePlaying {
		o.mu.Unlock()
		return ErrSessionActive
	}
	character, ok := o.game.Character()
	if !ok {
		o.mu.Unlock()
		return ErrNoCharacter
	}
	o.state = StateConnecting
	o.userClosed = false
	o.mu.Unlock()

	ctx, span := observe.SessionSpan(ctx, "session.connect", o.game.SystemKey())
	handle, err := o.dial(ctx, character)
	observe.EndSpan(span, err)
	if err != nil {
		o.mu.Lock()
		o.state = StateError
		o.mu.Unlock()
		o.metrics.SessionErrors.Add(context.Background(), 1)
		o.log.Error("session connect failed", "error", err)
		return err
	}

	o.mu.Lock()
	o.handle = handle
	o.state = StatePlaying
	o.micOn = true
	o.pumpDone = make(chan struct{})
	done := o.pumpDone
	o.mu.Unlock()

	o.metrics.ActiveSessions.Add(context.Background(), 1)
	go o.pump(handle, done)
	return nil
}

// dial opens the audio devices and the engine stream, unwinding everything
// already opened when a later step fails.
func (o *Orchestrator) dial(ctx context.Context, character game.Character) (narration.SessionHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, o.connectTimeout)
	defer cancel()

	capture, err := o.platform.OpenCapture(ctx, audio.CaptureConfig{
		SampleRate:       audio.CaptureRate,
		FrameSize:        audio.DefaultFrameSize,
		EchoCancellation: true,
		NoiseSuppression: true,
	})
	if err != nil {
		return nil, fmt.Errorf("session: open capture: %w", err)
	}

	playback, err := o.platform.OpenPlayback(ctx, audio.PlaybackRate)
	if err != nil {
		capture.Close()
		return nil, fmt.Errorf("session: open playback: %w", err)
	}
	sched := audio.NewScheduler(playback)

	ruleset, ok := game.RulesetByKey(o.game.SystemKey())
	if !ok {
		sched.Close()
		playback.Close()
		capture.Close()
		return nil, fmt.Errorf("session: unknown ruleset %q", o.game.SystemKey())
	}

	start := time.Now()
	handle, err := o.provider.Connect(ctx, narration.SessionConfig{
		Instructions: buildInstructions(ruleset, o.language, character, o.game.MessageCount() == 0),
		Voice:        o.voice,
		Tools:        tools.Declarations(),
	})
	if err != nil {
		sched.Close()
		playback.Close()
		capture.Close()
		return nil, fmt.Errorf("session: connect engine: %w", err)
	}
	o.metrics.ConnectDuration.Record(context.Background(), time.Since(start).Seconds())

	stopTap := audio.Tap(capture, func(frame audio.Frame) {
		o.mu.Lock()
		on := o.micOn
		o.mu.Unlock()
		if !on {
			return
		}
		if err := handle.SendAudio(audio.EncodeOutgoing(frame.Samples)); err != nil {
			o.log.Debug("capture frame dropped", "error", err)
			return
		}
		o.metrics.CaptureFrames.Add(context.Background(), 1)
	})

	o.mu.Lock()
	o.capture = capture
	o.playback = playback
	o.sched = sched
	o.stopTap = stopTap
	o.mu.Unlock()
	return handle, nil
}

// pump consumes the session's event stream until it closes, then tears the
// session down and settles the final state.
func (o *Orchestrator) pump(handle narration.SessionHandle, done chan struct{}) {
	defer close(done)
	ctx := context.Background()

	for ev := range handle.Events() {
		switch ev := ev.(type) {
		case narration.OutputTranscriptionEvent:
			o.acc.AppendModel(ev.Text)

		case narration.InputTranscriptionEvent:
			o.acc.AppendUser(ev.Text)

		case narration.TurnCompleteEvent:
			o.acc.Flush(&logSink{game: o.game})
			o.metrics.Turns.Add(ctx, 1)

		case narration.AudioEvent:
			frame, err := audio.DecodeIncoming(ev.PCM, audio.PlaybackRate, 1)
			if err != nil {
				o.log.Warn("audio chunk dropped", "error", err)
				o.metrics.RecordPlaybackChunk(ctx, "decode_error")
				continue
			}
			o.mu.Lock()
			sched := o.sched
			o.mu.Unlock()
			if sched != nil {
				sched.Schedule(frame)
			}
			o.metrics.RecordPlaybackChunk(ctx, "scheduled")

		case narration.ToolCallEvent:
			for _, fc := range ev.Calls {
				resp := o.dispatcher.Dispatch(fc)
				status := "applied"
				if resp["result"] == "ok" {
					status = "ignored"
				}
				o.metrics.RecordToolCall(ctx, fc.Name, status)
				if err := handle.RespondTool(fc.ID, fc.Name, resp); err != nil {
					o.log.Warn("tool response not delivered", "call", fc.Name, "error", err)
				}
			}
		}
	}

	err := handle.Err()

	o.mu.Lock()
	userClosed := o.userClosed
	o.teardownLocked()
	switch {
	case userClosed, err == nil:
		o.state = StateIdle
	default:
		o.state = StateError
	}
	o.mu.Unlock()

	o.metrics.ActiveSessions.Add(ctx, -1)
	if err != nil && !userClosed {
		o.metrics.SessionErrors.Add(ctx, 1)
		o.log.Error("session stream failed", "error", err)
	} else {
		o.log.Info("session closed")
	}
}

// teardownLocked releases tap, scheduler and devices and drops the in-flight
// transcription. Caller holds o.mu.
func (o *Orchestrator) teardownLocked() {
	if o.stopTap != nil {
		o.stopTap()
		o.stopTap = nil
	}
	if o.sched != nil {
		o.sched.Close()
		o.sched = nil
	}
	if o.playback != nil {
		o.playback.Close()
		o.playback = nil
	}
	if o.capture != nil {
		o.capture.Close()
		o.capture = nil
	}
	o.handle = nil
	o.acc.Reset()
}

// Disconnect closes the active session and returns once teardown completes.
// Safe to call when idle.
func (o *Orchestrator) Disconnect() {
	o.mu.Lock()
	handle := o.handle
	done := o.pumpDone
	if handle != nil {
		o.userClosed = true
	}
	o.mu.Unlock()

	if handle == nil {
		return
	}
	if err := handle.Close(); err != nil {
		o.log.Debug("session close", "error", err)
	}
	if done != nil {
		<-done
	}
}

// ExitToMenu disconnects and clears the whole campaign: sheet, log, journal,
// registries and chronicle.
func (o *Orchestrator) ExitToMenu() {
	o.Disconnect()
	o.game.ResetCampaign()
}

// SubmitText records a typed user action in the adventure log and, when a
// session is playing, forwards it as a text turn. Engines without a text-turn
// channel keep the local entry; nothing is forwarded and no error surfaces.
func (o *Orchestrator) SubmitText(text string) {
	o.game.AppendMessage(game.RoleUser, text)

	o.mu.Lock()
	handle := o.handle
	playing := o.state == StatePlaying
	o.mu.Unlock()
	if !playing || handle == nil {
		return
	}

	switch err := handle.SendText(text); {
	case errors.Is(err, narration.ErrTextTurns):
		o.log.Debug("engine does not accept text turns; keeping local entry only")
	case err != nil:
		o.log.Warn("text turn not delivered", "error", err)
	}
}

// logSink finalizes completed turns into the adventure log. Narrator turns
// are additionally appended to the journal notepad.
type logSink struct {
	game *game.State
}

func (s *logSink) FinalizeModel(text string) {
	s.game.AppendMessage(game.RoleModel, text)
	s.game.AppendNote("\n\nDM: " + text)
}

func (s *logSink) FinalizeUser(text string) {
	s.game.AppendMessage(game.RoleUser, text)
}

var _ transcript.Sink = (*logSink)(nil)
