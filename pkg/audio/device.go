package audio

import (
	"context"
	"errors"
	"sync"
)

// ErrDeviceUnavailable reports that no capture or playback endpoint is
// attached. Opening a device while unavailable must fail the whole connect
// attempt; there is no partial session.
var ErrDeviceUnavailable = errors.New("audio: device unavailable")

// CaptureConfig describes the capture stream a Platform should open.
// EchoCancellation and NoiseSuppression are requests, not guarantees; a
// device that cannot honour them still opens.
type CaptureConfig struct {
	SampleRate       int
	FrameSize        int
	EchoCancellation bool
	NoiseSuppression bool
}

// CaptureDevice is a running microphone stream sliced into fixed-size frames.
// Frames is closed when the device is closed or the underlying endpoint goes
// away. Close is idempotent.
type CaptureDevice interface {
	Frames() <-chan Frame
	Close() error
}

// PlaybackDevice accepts decoded frames for immediate output. Implementations
// running at a different hardware rate resample internally. Close is
// idempotent.
type PlaybackDevice interface {
	Play(Frame) error
	Close() error
}

// Platform opens the capture and playback endpoints of one audio backend.
type Platform interface {
	OpenCapture(ctx context.Context, cfg CaptureConfig) (CaptureDevice, error)
	OpenPlayback(ctx context.Context, sampleRate int) (PlaybackDevice, error)
}

// Tap attaches a per-frame callback to a capture device and returns a stop
// function. The callback runs on a dedicated goroutine in frame order; it must
// not block, or capture frames will back up behind it. Stop detaches the tap
// without closing the device and is idempotent.
func Tap(dev CaptureDevice, onFrame func(Frame)) (stop func()) {
	quit := make(chan struct{})
	go func() {
		for {
			select {
			case frame, ok := <-dev.Frames():
				if !ok {
					return
				}
				onFrame(frame)
			case <-quit:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(quit) }) }
}
