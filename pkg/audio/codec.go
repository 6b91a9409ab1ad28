package audio

import (
	"errors"
	"fmt"
)

// ErrOddPCM reports s16le payloads whose byte length is not a multiple of the
// sample width. Such chunks are corrupt and must be dropped, never truncated.
var ErrOddPCM = errors.New("audio: odd byte count in s16le PCM data")

// EncodeOutgoing converts float samples in [-1, 1] to an s16le Blob tagged for
// the capture wire rate. Out-of-range samples are clamped.
func EncodeOutgoing(samples []float32) Blob {
	return Blob{
		Data:     FloatToMono16(samples),
		MIMEType: fmt.Sprintf("audio/pcm;rate=%d", CaptureRate),
	}
}

// DecodeIncoming converts an s16le payload into mono float samples. Multi-
// channel input is downmixed by averaging interleaved channels. Returns
// [ErrOddPCM] (wrapped) when the payload is misaligned.
func DecodeIncoming(data []byte, sampleRate, channels int) (Frame, error) {
	if len(data)%2 != 0 {
		return Frame{}, fmt.Errorf("audio: decode %d bytes: %w", len(data), ErrOddPCM)
	}
	if channels <= 0 {
		channels = 1
	}

	samples, err := Mono16ToFloat(data)
	if err != nil {
		return Frame{}, err
	}
	if channels > 1 {
		frames := len(samples) / channels
		mono := make([]float32, frames)
		for i := range frames {
			var sum float32
			for c := range channels {
				sum += samples[i*channels+c]
			}
			mono[i] = sum / float32(channels)
		}
		samples = mono
	}
	return Frame{Samples: samples, SampleRate: sampleRate}, nil
}

// FloatToMono16 packs float samples in [-1, 1] as little-endian int16 bytes.
func FloatToMono16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// Mono16ToFloat unpacks little-endian int16 bytes into float samples in
// [-1, 1). Returns [ErrOddPCM] (wrapped) for misaligned input.
func Mono16ToFloat(pcm []byte) ([]float32, error) {
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("audio: unpack %d bytes: %w", len(pcm), ErrOddPCM)
	}
	out := make([]float32, len(pcm)/2)
	for i := range out {
		v := int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
		out[i] = float32(v) / 32768
	}
	return out, nil
}

// ResampleFloat resamples mono float samples from srcRate to dstRate using
// linear interpolation. If the rates match or the input is degenerate, the
// input is returned unchanged.
func ResampleFloat(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate <= 0 || dstRate <= 0 {
		return samples
	}
	if srcRate == dstRate || len(samples) < 2 {
		return samples
	}
	dstLen := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	if dstLen == 0 {
		return nil
	}

	out := make([]float32, dstLen)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range dstLen {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := float32(srcPos - float64(srcIdx))

		s0 := samples[srcIdx]
		s1 := s0
		if srcIdx+1 < len(samples) {
			s1 = samples[srcIdx+1]
		}
		out[i] = s0*(1-frac) + s1*frac
	}
	return out
}
