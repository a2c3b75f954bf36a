package services

import (
	"context"
)

// StopReason indicates why a generation segment ended.
type StopReason string

const (
	// StopNatural means the model finished on its own.
	StopNatural StopReason = "natural"
	// StopLengthLimited means the model hit its output token ceiling and the
	// text is very likely cut off mid-stream.
	StopLengthLimited StopReason = "length-limited"
)

// StreamEvent is one item on a generation stream. Exactly one field is set:
// Text carries a content delta, Status carries the end-of-segment stop reason,
// Err carries a transport failure. The channel closes after Status or Err.
type StreamEvent struct {
	Text   string
	Status StopReason
	Err    error
}

// IsStatus reports whether the event is an end-of-segment marker.
func (e StreamEvent) IsStatus() bool {
	return e.Status != ""
}

// Message is one turn of model input.
type Message struct {
	// Role is either "user" or "assistant"
	Role string

	// Content is the plain text of the turn
	Content string
}

// GenerateRequest contains the parameters for a generation call.
type GenerateRequest struct {
	// Messages is the conversation so far, oldest first
	Messages []Message

	// Model is the model identifier
	Model string

	// System is an optional system prompt
	System *string

	// MaxTokens caps the output length per segment; nil for provider default
	MaxTokens *int

	// Temperature is the sampling temperature; nil for provider default
	Temperature *float64
}

// GenerationClient is the interface every model backend implements.
// Implementations stream text deltas and always terminate the channel with
// a single Status or Err event.
type GenerationClient interface {
	// Name returns the backend name (e.g., "anthropic", "lorem")
	Name() string

	// SupportsModel reports whether the backend serves the given model
	SupportsModel(model string) bool

	// StreamGenerate opens one generation segment. The returned channel is
	// closed by the implementation; callers must drain it or cancel ctx.
	StreamGenerate(ctx context.Context, req *GenerateRequest) (<-chan StreamEvent, error)
}
