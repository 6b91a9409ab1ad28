// Package narration defines the boundary to the remote narration engine: a
// bidirectional realtime stream carrying audio both ways, transcription
// deltas, turn markers and tool calls.
//
// The engine is opaque. Implementations adapt one wire protocol (e.g. Gemini
// Live) to the [SessionHandle] contract; consumers drive the session through
// a single ordered event stream and never see protocol frames.
package narration

import (
	"context"
	"errors"

	"github.com/taleforge/taleforge/pkg/audio"
)

// ErrTextTurns is returned by SendText when the provider's protocol has no
// text-turn channel. Callers treat it as a soft failure: the local chat log
// keeps the typed entry, nothing is forwarded.
var ErrTextTurns = errors.New("narration: provider does not support text turns")

// ErrMissingCredential is returned by Connect when the provider has no API
// credential to authenticate with.
var ErrMissingCredential = errors.New("narration: missing API credential")

// ToolDeclaration describes one callable function advertised to the engine
// at session start. Parameters holds a JSON-schema-shaped description.
type ToolDeclaration struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// FunctionCall is one tool invocation requested by the engine. Args are the
// loosely typed key/value arguments as they arrived on the wire.
type FunctionCall struct {
	ID   string
	Name string
	Args map[string]any
}

// SessionConfig carries everything a provider needs to open a session.
type SessionConfig struct {
	// Instructions is the system prompt sent once at session open.
	Instructions string

	// Voice selects the synthesised voice by provider-specific name.
	Voice string

	// Tools are declared at session open; they cannot change mid-session.
	Tools []ToolDeclaration
}

// Event is one item on a session's inbound stream. The concrete types below
// are the full vocabulary; events arrive strictly in wire order.
type Event interface {
	isEvent()
}

// AudioEvent carries one chunk of synthesised speech as raw s16le PCM at the
// playback wire rate (24 kHz mono).
type AudioEvent struct {
	PCM []byte
}

// InputTranscriptionEvent is an incremental speech-to-text delta for the
// user's current utterance.
type InputTranscriptionEvent struct {
	Text string
}

// OutputTranscriptionEvent is an incremental transcription delta for the
// engine's current spoken turn.
type OutputTranscriptionEvent struct {
	Text string
}

// TurnCompleteEvent marks the end of one narration turn. Transcription
// buffers accumulated since the previous marker are final.
type TurnCompleteEvent struct{}

// ToolCallEvent carries a batch of function calls. Calls are handled in
// order, and every call expects exactly one RespondTool, correlated by ID.
type ToolCallEvent struct {
	Calls []FunctionCall
}

func (AudioEvent) isEvent()               {}
func (InputTranscriptionEvent) isEvent()  {}
func (OutputTranscriptionEvent) isEvent() {}
func (TurnCompleteEvent) isEvent()        {}
func (ToolCallEvent) isEvent()            {}

// SessionHandle is one live narration session.
//
// Events returns the session's single inbound stream. The channel is closed
// when the session ends for any reason; Err then reports the fatal error, or
// nil for an orderly close.
type SessionHandle interface {
	// SendAudio delivers one encoded capture frame. The blob carries the
	// s16le payload and the MIME descriptor naming its rate, as produced by
	// [audio.EncodeOutgoing].
	SendAudio(blob audio.Blob) error

	// SendText injects a typed user turn into the conversation.
	SendText(text string) error

	// RespondTool answers one function call. Exactly one response per call;
	// callID correlates the response on the wire.
	RespondTool(callID, name string, response map[string]any) error

	Events() <-chan Event
	Err() error

	// Close terminates the session and releases all resources. Idempotent.
	Close() error
}

// Provider opens narration sessions against one remote engine.
type Provider interface {
	Connect(ctx context.Context, cfg SessionConfig) (SessionHandle, error)
}
