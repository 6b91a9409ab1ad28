// Package wsbridge provides an [audio.Platform] backed by a single browser
// client over WebSocket. The browser captures the microphone and owns the
// speakers; this bridge moves raw PCM in both directions.
//
// Wire format: binary messages from the client are 16 kHz mono s16le capture
// frames; binary messages to the client are 24 kHz mono s16le playback
// frames. On attach the bridge sends one JSON hello advertising the capture
// constraints the client should apply.
package wsbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/taleforge/taleforge/pkg/audio"
)

var _ audio.Platform = (*Bridge)(nil)

const clientFrameBuffer = 64

// helloMessage advertises the audio contract to a freshly attached client.
type helloMessage struct {
	Type             string `json:"type"`
	CaptureRate      int    `json:"captureRate"`
	PlaybackRate     int    `json:"playbackRate"`
	FrameSize        int    `json:"frameSize"`
	EchoCancellation bool   `json:"echoCancellation"`
	NoiseSuppression bool   `json:"noiseSuppression"`
}

// Bridge accepts one browser client at a time and exposes it as a capture and
// playback device pair. A new client replaces the previous one; devices opened
// against the old client observe a closed frame stream.
type Bridge struct {
	log *slog.Logger

	mu     sync.Mutex
	client *client
}

type client struct {
	conn   *websocket.Conn
	frames chan audio.Frame
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func (c *client) close(status websocket.StatusCode, reason string) {
	c.once.Do(func() {
		c.cancel()
		c.conn.Close(status, reason)
		close(c.frames)
	})
}

// New creates a Bridge. A nil logger falls back to slog.Default.
func New(log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{log: log}
}

// ServeHTTP upgrades the request to a WebSocket and adopts it as the active
// client, replacing any previous one.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		b.log.Warn("audio bridge: websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	cl := &client{
		conn:   conn,
		frames: make(chan audio.Frame, clientFrameBuffer),
		ctx:    ctx,
		cancel: cancel,
	}

	b.mu.Lock()
	prev := b.client
	b.client = cl
	b.mu.Unlock()
	if prev != nil {
		prev.close(websocket.StatusGoingAway, "replaced by new client")
	}

	if err := cl.sendHello(); err != nil {
		b.log.Warn("audio bridge: hello failed", "error", err)
		b.detach(cl, websocket.StatusInternalError, "hello failed")
		return
	}

	b.log.Info("audio bridge: client attached", "remote", r.RemoteAddr)
	b.readLoop(cl)
}

func (cl *client) sendHello() error {
	hello := helloMessage{
		Type:             "hello",
		CaptureRate:      audio.CaptureRate,
		PlaybackRate:     audio.PlaybackRate,
		FrameSize:        audio.DefaultFrameSize,
		EchoCancellation: true,
		NoiseSuppression: true,
	}
	data, err := json.Marshal(hello)
	if err != nil {
		return fmt.Errorf("wsbridge: marshal hello: %w", err)
	}
	return cl.conn.Write(cl.ctx, websocket.MessageText, data)
}

// readLoop decodes inbound binary messages into capture frames until the
// client goes away. Misaligned payloads are dropped, text messages ignored.
func (b *Bridge) readLoop(cl *client) {
	defer b.detach(cl, websocket.StatusNormalClosure, "client detached")

	for {
		typ, data, err := cl.conn.Read(cl.ctx)
		if err != nil {
			if cl.ctx.Err() == nil {
				b.log.Info("audio bridge: client disconnected", "error", err)
			}
			return
		}
		if typ != websocket.MessageBinary {
			continue
		}

		samples, err := audio.Mono16ToFloat(data)
		if err != nil {
			b.log.Debug("audio bridge: dropping malformed capture frame", "error", err)
			continue
		}
		frame := audio.Frame{Samples: samples, SampleRate: audio.CaptureRate}
		select {
		case cl.frames <- frame:
		default:
			// Consumer is behind; drop rather than stall the socket.
		}
	}
}

// detach closes cl and clears it from the bridge if it is still the active
// client.
func (b *Bridge) detach(cl *client, status websocket.StatusCode, reason string) {
	cl.close(status, reason)
	b.mu.Lock()
	if b.client == cl {
		b.client = nil
	}
	b.mu.Unlock()
}

// Attached reports whether a browser client is currently connected.
func (b *Bridge) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client != nil
}

// OpenCapture implements [audio.Platform]. It binds to the currently attached
// client; with no client attached it fails with [audio.ErrDeviceUnavailable].
func (b *Bridge) OpenCapture(_ context.Context, cfg audio.CaptureConfig) (audio.CaptureDevice, error) {
	b.mu.Lock()
	cl := b.client
	b.mu.Unlock()
	if cl == nil {
		return nil, fmt.Errorf("wsbridge: open capture: %w", audio.ErrDeviceUnavailable)
	}
	if cfg.SampleRate != 0 && cfg.SampleRate != audio.CaptureRate {
		return nil, fmt.Errorf("wsbridge: open capture: rate %d not supported", cfg.SampleRate)
	}
	return newCaptureHandle(cl), nil
}

// OpenPlayback implements [audio.Platform]. Frames played are resampled to
// the playback wire rate if needed and written as binary messages.
func (b *Bridge) OpenPlayback(_ context.Context, sampleRate int) (audio.PlaybackDevice, error) {
	b.mu.Lock()
	cl := b.client
	b.mu.Unlock()
	if cl == nil {
		return nil, fmt.Errorf("wsbridge: open playback: %w", audio.ErrDeviceUnavailable)
	}
	if sampleRate != 0 && sampleRate != audio.PlaybackRate {
		return nil, fmt.Errorf("wsbridge: open playback: rate %d not supported", sampleRate)
	}
	return &playbackHandle{cl: cl}, nil
}

// ─── Device handles ───────────────────────────────────────────────────────────

// captureHandle forwards the client's frames to its own channel so Close can
// detach this consumer without tearing down the client.
type captureHandle struct {
	out  chan audio.Frame
	quit chan struct{}
	once sync.Once
}

func newCaptureHandle(cl *client) *captureHandle {
	h := &captureHandle{
		out:  make(chan audio.Frame, clientFrameBuffer),
		quit: make(chan struct{}),
	}
	go func() {
		defer close(h.out)
		for {
			select {
			case frame, ok := <-cl.frames:
				if !ok {
					return
				}
				select {
				case h.out <- frame:
				case <-h.quit:
					return
				}
			case <-h.quit:
				return
			}
		}
	}()
	return h
}

func (h *captureHandle) Frames() <-chan audio.Frame { return h.out }

func (h *captureHandle) Close() error {
	h.once.Do(func() { close(h.quit) })
	return nil
}

type playbackHandle struct {
	cl *client

	mu     sync.Mutex
	closed bool
}

func (h *playbackHandle) Play(frame audio.Frame) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return fmt.Errorf("wsbridge: playback closed")
	}

	samples := frame.Samples
	if frame.SampleRate != audio.PlaybackRate {
		samples = audio.ResampleFloat(samples, frame.SampleRate, audio.PlaybackRate)
	}
	data := audio.FloatToMono16(samples)
	if err := h.cl.conn.Write(h.cl.ctx, websocket.MessageBinary, data); err != nil {
		return fmt.Errorf("wsbridge: write playback frame: %w", err)
	}
	return nil
}

func (h *playbackHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}
