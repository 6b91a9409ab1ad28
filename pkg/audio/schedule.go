package audio

import (
	"log/slog"
	"sync"
	"time"
)

// Scheduler queues decoded frames for gapless playback. Each frame starts at
// max(now, end of the previously scheduled frame), so frames arriving faster
// than real time play back-to-back with no overlap and no inserted silence.
//
// StopAll cancels every pending and playing source at once; this is the
// teardown path for disconnect and for barge-in style interruption.
type Scheduler struct {
	sink PlaybackDevice
	now  func() time.Time

	mu     sync.Mutex
	cursor time.Time
	live   map[*scheduledSource]struct{}
	gain   float64
	last   []float32
	closed bool
}

type scheduledSource struct {
	frame   Frame
	deliver *time.Timer
	finish  *time.Timer
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock overrides the wall clock. Used in tests to pin start times.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// WithGain sets the initial output gain. Values are clamped to [0, 2].
func WithGain(gain float64) SchedulerOption {
	return func(s *Scheduler) { s.gain = clampGain(gain) }
}

// NewScheduler creates a Scheduler delivering frames to sink.
func NewScheduler(sink PlaybackDevice, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		sink: sink,
		now:  time.Now,
		live: make(map[*scheduledSource]struct{}),
		gain: 1,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Schedule enqueues a frame and returns its playback start time. The cursor
// advances by the frame's duration so the next frame lands flush against it.
func (s *Scheduler) Schedule(frame Frame) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	start := now
	if s.cursor.After(now) {
		start = s.cursor
	}
	s.cursor = start.Add(frame.Duration())
	s.last = frame.Samples

	if s.closed {
		return start
	}

	src := &scheduledSource{frame: frame}
	s.live[src] = struct{}{}
	src.deliver = time.AfterFunc(start.Sub(now), func() { s.deliverSource(src) })
	src.finish = time.AfterFunc(s.cursor.Sub(now), func() { s.removeSource(src) })
	return start
}

func (s *Scheduler) deliverSource(src *scheduledSource) {
	s.mu.Lock()
	if _, ok := s.live[src]; !ok {
		s.mu.Unlock()
		return
	}
	gain := s.gain
	s.mu.Unlock()

	frame := src.frame
	if gain != 1 {
		scaled := make([]float32, len(frame.Samples))
		for i, v := range frame.Samples {
			scaled[i] = v * float32(gain)
		}
		frame.Samples = scaled
	}
	if err := s.sink.Play(frame); err != nil {
		slog.Debug("audio scheduler: sink rejected frame", "error", err)
	}
}

func (s *Scheduler) removeSource(src *scheduledSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, src)
}

// StopAll cancels every pending source and resets the cursor. The next
// scheduled frame starts immediately.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for src := range s.live {
		src.deliver.Stop()
		src.finish.Stop()
		delete(s.live, src)
	}
	s.cursor = time.Time{}
}

// Live reports the number of sources scheduled or currently playing.
func (s *Scheduler) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// SetGain updates the output gain, clamped to [0, 2].
func (s *Scheduler) SetGain(gain float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gain = clampGain(gain)
}

// Gain returns the current output gain.
func (s *Scheduler) Gain() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gain
}

// Analysis returns a copy of the most recently scheduled frame's samples.
// UI visualisers poll this instead of tapping the playback path.
func (s *Scheduler) Analysis() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.last) == 0 {
		return nil
	}
	out := make([]float32, len(s.last))
	copy(out, s.last)
	return out
}

// Close stops all sources and rejects further deliveries. Idempotent.
func (s *Scheduler) Close() error {
	s.StopAll()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func clampGain(g float64) float64 {
	if g < 0 {
		return 0
	}
	if g > 2 {
		return 2
	}
	return g
}
