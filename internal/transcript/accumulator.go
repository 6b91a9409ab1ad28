// Package transcript accumulates incremental speech-to-text deltas for the
// user's and the narrator's turns and finalizes them into chat-log entries
// and journal notes at turn boundaries.
package transcript

import (
	"strings"
	"sync"
)

// Sink receives finalized turns. Implemented by the session orchestrator on
// top of the game state.
type Sink interface {
	// FinalizeModel records a completed narrator turn.
	FinalizeModel(text string)
	// FinalizeUser records a completed spoken user turn.
	FinalizeUser(text string)
}

// Accumulator buffers one in-flight turn per speaker. Deltas append; Flush
// finalizes whatever accumulated and always resets both buffers, so a turn
// boundary leaves the accumulator empty no matter what it held.
type Accumulator struct {
	mu    sync.Mutex
	user  strings.Builder
	model strings.Builder
}

// New creates an empty Accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// AppendUser appends an input-transcription delta.
func (a *Accumulator) AppendUser(delta string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.user.WriteString(delta)
}

// AppendModel appends an output-transcription delta.
func (a *Accumulator) AppendModel(delta string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.model.WriteString(delta)
}

// Pending returns the in-flight user and model text. For live subtitles.
func (a *Accumulator) Pending() (user, model string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user.String(), a.model.String()
}

// Flush finalizes both buffers into sink and resets them. Empty buffers
// produce no entries. The model turn is finalized first so the log reads
// narration-then-reply in the common voice exchange.
func (a *Accumulator) Flush(sink Sink) {
	a.mu.Lock()
	user := a.user.String()
	model := a.model.String()
	a.user.Reset()
	a.model.Reset()
	a.mu.Unlock()

	if model != "" {
		sink.FinalizeModel(model)
	}
	if user != "" {
		sink.FinalizeUser(user)
	}
}

// Reset drops any in-flight text without finalizing. Disconnect path.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.user.Reset()
	a.model.Reset()
}
