// Package mock provides in-memory implementations of [audio.Platform],
// [audio.CaptureDevice] and [audio.PlaybackDevice] for use in unit tests.
//
// All mocks are safe for concurrent use. Set the exported Result/Error fields
// before use; inspect the Call* and recorded fields after. Capture frames are
// fed through [CaptureDevice.Push].
package mock

import (
	"context"
	"sync"

	"github.com/taleforge/taleforge/pkg/audio"
)

// ─── CaptureDevice ────────────────────────────────────────────────────────────

// CaptureDevice is a scriptable implementation of [audio.CaptureDevice].
type CaptureDevice struct {
	mu     sync.Mutex
	frames chan audio.Frame
	closed bool

	// CallCountClose records how many times Close was called.
	CallCountClose int
}

// NewCaptureDevice creates a capture device with a buffered frame queue.
func NewCaptureDevice() *CaptureDevice {
	return &CaptureDevice{frames: make(chan audio.Frame, 64)}
}

// Push feeds one frame to the device's consumers, as if the microphone had
// produced it. Push after Close is a no-op.
func (d *CaptureDevice) Push(frame audio.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.frames <- frame
}

// Frames implements [audio.CaptureDevice].
func (d *CaptureDevice) Frames() <-chan audio.Frame { return d.frames }

// Close implements [audio.CaptureDevice]. Idempotent.
func (d *CaptureDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CallCountClose++
	if !d.closed {
		d.closed = true
		close(d.frames)
	}
	return nil
}

// ─── PlaybackDevice ───────────────────────────────────────────────────────────

// PlaybackDevice records every frame played through it.
type PlaybackDevice struct {
	mu     sync.Mutex
	played []audio.Frame

	// PlayError, when set, is returned by every Play call.
	PlayError error

	// CallCountClose records how many times Close was called.
	CallCountClose int
}

// Play implements [audio.PlaybackDevice].
func (d *PlaybackDevice) Play(frame audio.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.PlayError != nil {
		return d.PlayError
	}
	d.played = append(d.played, frame)
	return nil
}

// Close implements [audio.PlaybackDevice]. Idempotent.
func (d *PlaybackDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CallCountClose++
	return nil
}

// Played returns a copy of the frames played so far.
func (d *PlaybackDevice) Played() []audio.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]audio.Frame, len(d.played))
	copy(out, d.played)
	return out
}

// ─── Platform ─────────────────────────────────────────────────────────────────

// Platform is a mock implementation of [audio.Platform].
type Platform struct {
	mu sync.Mutex

	// Capture is returned by OpenCapture. Defaults to a fresh device.
	Capture *CaptureDevice

	// Playback is returned by OpenPlayback. Defaults to a fresh device.
	Playback *PlaybackDevice

	// OpenCaptureError, when set, is returned by OpenCapture.
	OpenCaptureError error

	// OpenPlaybackError, when set, is returned by OpenPlayback.
	OpenPlaybackError error

	// RecordedCaptureConfigs holds the configs passed to OpenCapture, in order.
	RecordedCaptureConfigs []audio.CaptureConfig

	// RecordedPlaybackRates holds the sample rates passed to OpenPlayback.
	RecordedPlaybackRates []int
}

// OpenCapture implements [audio.Platform].
func (p *Platform) OpenCapture(_ context.Context, cfg audio.CaptureConfig) (audio.CaptureDevice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RecordedCaptureConfigs = append(p.RecordedCaptureConfigs, cfg)
	if p.OpenCaptureError != nil {
		return nil, p.OpenCaptureError
	}
	if p.Capture == nil {
		p.Capture = NewCaptureDevice()
	}
	return p.Capture, nil
}

// OpenPlayback implements [audio.Platform].
func (p *Platform) OpenPlayback(_ context.Context, sampleRate int) (audio.PlaybackDevice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RecordedPlaybackRates = append(p.RecordedPlaybackRates, sampleRate)
	if p.OpenPlaybackError != nil {
		return nil, p.OpenPlaybackError
	}
	if p.Playback == nil {
		p.Playback = &PlaybackDevice{}
	}
	return p.Playback, nil
}

var _ audio.Platform = (*Platform)(nil)
var _ audio.CaptureDevice = (*CaptureDevice)(nil)
var _ audio.PlaybackDevice = (*PlaybackDevice)(nil)
