// Package mock provides scriptable in-memory implementations of
// [narration.Provider] and [narration.SessionHandle] for unit tests.
//
// A test emits events through [Session.Emit] and [Session.CloseStream], and
// inspects everything the consumer sent via the Sent* accessors.
package mock

import (
	"context"
	"sync"

	"github.com/taleforge/taleforge/pkg/audio"
	"github.com/taleforge/taleforge/pkg/narration"
)

var _ narration.Provider = (*Provider)(nil)
var _ narration.SessionHandle = (*Session)(nil)

// ToolResponse records one RespondTool call.
type ToolResponse struct {
	CallID   string
	Name     string
	Response map[string]any
}

// Session is a scriptable implementation of [narration.SessionHandle].
type Session struct {
	mu            sync.Mutex
	events        chan narration.Event
	sentAudio     []audio.Blob
	sentTexts     []string
	toolResponses []ToolResponse
	errVal        error
	closed        bool
	streamOnce    sync.Once

	// SendAudioError, when set, is returned by every SendAudio call.
	SendAudioError error

	// SendTextError, when set, is returned by every SendText call
	// (e.g. narration.ErrTextTurns).
	SendTextError error

	// CallCountClose records how many times Close was called.
	CallCountClose int
}

// NewSession creates a session with a buffered event stream.
func NewSession() *Session {
	return &Session{events: make(chan narration.Event, 64)}
}

// Emit queues one event for the consumer.
func (s *Session) Emit(ev narration.Event) { s.events <- ev }

// Fail records err as the session's fatal error and closes the stream.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	if s.errVal == nil {
		s.errVal = err
	}
	s.mu.Unlock()
	s.CloseStream()
}

// CloseStream closes the event stream, simulating a remote close. Idempotent.
func (s *Session) CloseStream() {
	s.streamOnce.Do(func() { close(s.events) })
}

// SendAudio implements [narration.SessionHandle]. Records the blob.
func (s *Session) SendAudio(blob audio.Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendAudioError != nil {
		return s.SendAudioError
	}
	buf := make([]byte, len(blob.Data))
	copy(buf, blob.Data)
	s.sentAudio = append(s.sentAudio, audio.Blob{Data: buf, MIMEType: blob.MIMEType})
	return nil
}

// SendText implements [narration.SessionHandle]. Records the text.
func (s *Session) SendText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendTextError != nil {
		return s.SendTextError
	}
	s.sentTexts = append(s.sentTexts, text)
	return nil
}

// RespondTool implements [narration.SessionHandle]. Records the response.
func (s *Session) RespondTool(callID, name string, response map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toolResponses = append(s.toolResponses, ToolResponse{CallID: callID, Name: name, Response: response})
	return nil
}

// Events implements [narration.SessionHandle].
func (s *Session) Events() <-chan narration.Event { return s.events }

// Err implements [narration.SessionHandle].
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errVal
}

// Close implements [narration.SessionHandle]. Closes the stream. Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	s.CallCountClose++
	s.closed = true
	s.mu.Unlock()
	s.CloseStream()
	return nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SentAudio returns a copy of all audio blobs sent so far.
func (s *Session) SentAudio() []audio.Blob {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audio.Blob, len(s.sentAudio))
	copy(out, s.sentAudio)
	return out
}

// SentTexts returns a copy of all text turns sent so far.
func (s *Session) SentTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sentTexts))
	copy(out, s.sentTexts)
	return out
}

// ToolResponses returns a copy of all tool responses sent so far.
func (s *Session) ToolResponses() []ToolResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ToolResponse, len(s.toolResponses))
	copy(out, s.toolResponses)
	return out
}

// Provider is a mock implementation of [narration.Provider]. Each Connect
// hands out the next queued session.
type Provider struct {
	mu sync.Mutex

	// Sessions are handed out in order by Connect.
	Sessions []*Session

	// ConnectError, when set, is returned by every Connect call.
	ConnectError error

	// RecordedConfigs holds the configs passed to Connect, in order.
	RecordedConfigs []narration.SessionConfig

	next int
}

// Connect implements [narration.Provider].
func (p *Provider) Connect(_ context.Context, cfg narration.SessionConfig) (narration.SessionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RecordedConfigs = append(p.RecordedConfigs, cfg)
	if p.ConnectError != nil {
		return nil, p.ConnectError
	}
	if p.next >= len(p.Sessions) {
		sess := NewSession()
		p.Sessions = append(p.Sessions, sess)
	}
	sess := p.Sessions[p.next]
	p.next++
	return sess, nil
}
