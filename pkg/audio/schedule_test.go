package audio_test

import (
	"sync"
	"testing"
	"time"

	"github.com/taleforge/taleforge/pkg/audio"
)

// recordingSink captures frames delivered by the scheduler.
type recordingSink struct {
	mu     sync.Mutex
	frames []audio.Frame
}

func (r *recordingSink) Play(f audio.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *recordingSink) Close() error { return nil }

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// frameOf returns a frame of the given duration at the playback wire rate.
func frameOf(d time.Duration) audio.Frame {
	n := int(int64(audio.PlaybackRate) * int64(d) / int64(time.Second))
	return audio.Frame{Samples: make([]float32, n), SampleRate: audio.PlaybackRate}
}

func TestScheduler_GaplessStartTimes(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sched := audio.NewScheduler(&recordingSink{}, audio.WithClock(func() time.Time { return t0 }))
	defer sched.Close()

	d1 := 100 * time.Millisecond
	d2 := 60 * time.Millisecond
	d3 := 80 * time.Millisecond

	// Frames arrive back-to-back (faster than real time); start times must
	// tile with no gap and no overlap.
	s1 := sched.Schedule(frameOf(d1))
	s2 := sched.Schedule(frameOf(d2))
	s3 := sched.Schedule(frameOf(d3))

	if !s1.Equal(t0) {
		t.Errorf("first start: got %v, want %v", s1, t0)
	}
	if want := t0.Add(d1); !s2.Equal(want) {
		t.Errorf("second start: got %v, want %v", s2, want)
	}
	if want := t0.Add(d1 + d2); !s3.Equal(want) {
		t.Errorf("third start: got %v, want %v", s3, want)
	}
}

func TestScheduler_CursorCatchesUpToNow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sched := audio.NewScheduler(&recordingSink{}, audio.WithClock(func() time.Time { return now }))
	defer sched.Close()

	sched.Schedule(frameOf(50 * time.Millisecond))

	// A long silence passes; the cursor is in the past, so the next frame
	// starts immediately rather than at the stale cursor.
	now = now.Add(10 * time.Second)
	start := sched.Schedule(frameOf(50 * time.Millisecond))
	if !start.Equal(now) {
		t.Errorf("start after silence: got %v, want %v", start, now)
	}
}

func TestScheduler_StopAllCancelsPending(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sink := &recordingSink{}
	sched := audio.NewScheduler(sink, audio.WithClock(func() time.Time { return t0 }))
	defer sched.Close()

	for range 5 {
		sched.Schedule(frameOf(time.Second))
	}
	if got := sched.Live(); got != 5 {
		t.Fatalf("live sources: got %d, want 5", got)
	}

	sched.StopAll()
	if got := sched.Live(); got != 0 {
		t.Errorf("live sources after StopAll: got %d, want 0", got)
	}

	// The cursor resets: the next frame starts at now, not after 5 seconds.
	start := sched.Schedule(frameOf(time.Second))
	if !start.Equal(t0) {
		t.Errorf("start after StopAll: got %v, want %v", start, t0)
	}
}

func TestScheduler_DeliversToSink(t *testing.T) {
	sink := &recordingSink{}
	sched := audio.NewScheduler(sink)
	defer sched.Close()

	sched.Schedule(frameOf(10 * time.Millisecond))

	deadline := time.Now().Add(time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if sink.count() != 1 {
		t.Fatalf("delivered frames: got %d, want 1", sink.count())
	}
}

func TestScheduler_GainClamped(t *testing.T) {
	sched := audio.NewScheduler(&recordingSink{}, audio.WithGain(5))
	defer sched.Close()

	if got := sched.Gain(); got != 2 {
		t.Errorf("gain: got %f, want 2 (clamped)", got)
	}
	sched.SetGain(-1)
	if got := sched.Gain(); got != 0 {
		t.Errorf("gain: got %f, want 0 (clamped)", got)
	}
}

func TestScheduler_AnalysisReturnsLastFrame(t *testing.T) {
	sched := audio.NewScheduler(&recordingSink{})
	defer sched.Close()

	if got := sched.Analysis(); got != nil {
		t.Fatalf("analysis before any frame: got %v, want nil", got)
	}

	frame := audio.Frame{Samples: []float32{0.25, -0.25}, SampleRate: audio.PlaybackRate}
	sched.Schedule(frame)

	got := sched.Analysis()
	if len(got) != 2 || got[0] != 0.25 || got[1] != -0.25 {
		t.Errorf("analysis: got %v, want [0.25 -0.25]", got)
	}

	// Must be a copy, not an alias of the scheduled buffer.
	got[0] = 9
	again := sched.Analysis()
	if again[0] != 0.25 {
		t.Errorf("analysis aliases internal buffer: got %f", again[0])
	}
}
