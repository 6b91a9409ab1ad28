// Package audio provides the PCM codec and device boundary for the realtime
// narration pipeline: float sample frames on the inside, s16le bytes on the
// wire. Capture runs at 16 kHz mono, playback at 24 kHz mono.
package audio

import "time"

// Wire constants for the narration transport. Capture frames are sent at
// CaptureRate; the engine synthesises audio at PlaybackRate.
const (
	CaptureRate  = 16000
	PlaybackRate = 24000

	// DefaultFrameSize is the capture tap granularity in samples.
	DefaultFrameSize = 4096
)

// Frame is a block of mono float32 samples in [-1, 1] at a single sample rate.
// Frames are the atomic unit of transport between devices, the codec and the
// playback scheduler.
type Frame struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the playback duration of the frame.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(f.Samples)) * time.Second / time.Duration(f.SampleRate)
}

// Blob is an encoded audio payload ready for the wire: raw s16le bytes plus
// the MIME descriptor the transport expects (e.g. "audio/pcm;rate=16000").
type Blob struct {
	Data     []byte
	MIMEType string
}
