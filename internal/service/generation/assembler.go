// Package generation assembles one logical document from an external model
// that may cap a single call's output length. Callers see a live chunk
// stream and never deal with continuation mechanics.
package generation

import (
	"context"
	"fmt"
	"strings"

	"draftsmith/internal/domain"
	"draftsmith/internal/domain/services"
)

const (
	// DefaultMaxSegments bounds how many continuation calls one assembly may open.
	DefaultMaxSegments = 20

	// DefaultMaxTotalLength bounds the accumulated text in characters.
	DefaultMaxTotalLength = 100_000
)

// ContinuationInstruction is appended as a user turn when a segment ends
// length-limited, with the accumulated text as assistant context.
const ContinuationInstruction = "Continue exactly where you left off. Do not repeat or shorten anything already written."

// LimitNotice is the single human-readable chunk emitted when an assembly
// exhausts its segment or length bound.
const LimitNotice = "\n\n[output limit reached]"

// AssemblerConfig bounds one assembly.
type AssemblerConfig struct {
	MaxSegments    int
	MaxTotalLength int
}

// withDefaults fills zero fields.
func (c AssemblerConfig) withDefaults() AssemblerConfig {
	if c.MaxSegments <= 0 {
		c.MaxSegments = DefaultMaxSegments
	}
	if c.MaxTotalLength <= 0 {
		c.MaxTotalLength = DefaultMaxTotalLength
	}
	return c
}

// Result is the terminal outcome of a successful assembly.
type Result struct {
	// Text is the full assembled document, including the limit notice when
	// one was emitted
	Text string

	// Segments is the number of generation calls opened
	Segments int

	// Truncated is set when the assembly stopped on a bound rather than a
	// natural stop
	Truncated bool
}

// Assembler reassembles a complete text from capped generation segments. The
// client is injected; there is no process-wide generation handle. An
// Assembler is stateless between Assemble calls and safe for concurrent use.
type Assembler struct {
	client services.GenerationClient
	cfg    AssemblerConfig
}

// NewAssembler creates an assembler over the given client
func NewAssembler(client services.GenerationClient, cfg AssemblerConfig) *Assembler {
	return &Assembler{client: client, cfg: cfg.withDefaults()}
}

// Assemble opens generation calls until the model stops naturally or a bound
// is hit. Every chunk, including the final limit notice, is passed to forward
// before Assemble returns; forward runs on the calling goroutine so the
// stream is live, not buffered. A transport failure aborts the whole
// assembly: no Result, and whatever was forwarded must not become a draft.
//
// Cancelling ctx stops the in-flight segment and prevents further ones.
func (a *Assembler) Assemble(ctx context.Context, req *services.GenerateRequest, forward func(chunk string)) (*Result, error) {
	base := make([]services.Message, len(req.Messages))
	copy(base, req.Messages)

	var accumulated strings.Builder

	for segment := 1; segment <= a.cfg.MaxSegments; segment++ {
		segReq := *req
		segReq.Messages = a.segmentMessages(base, accumulated.String())

		stop, err := a.runSegment(ctx, &segReq, &accumulated, forward)
		if err != nil {
			return nil, err
		}

		switch {
		case stop == services.StopNatural:
			return &Result{Text: accumulated.String(), Segments: segment}, nil

		case accumulated.Len() >= a.cfg.MaxTotalLength, segment == a.cfg.MaxSegments:
			forward(LimitNotice)
			accumulated.WriteString(LimitNotice)
			return &Result{Text: accumulated.String(), Segments: segment, Truncated: true}, nil
		}
	}

	// unreachable: the loop always returns on its final iteration
	return &Result{Text: accumulated.String(), Segments: a.cfg.MaxSegments, Truncated: true}, nil
}

// runSegment opens one generation call and drains it, forwarding and
// accumulating chunks. Returns the segment's stop reason.
func (a *Assembler) runSegment(ctx context.Context, req *services.GenerateRequest, accumulated *strings.Builder, forward func(chunk string)) (services.StopReason, error) {
	segCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := a.client.StreamGenerate(segCtx, req)
	if err != nil {
		return "", &domain.TransportError{Message: fmt.Sprintf("open generation segment: %v", err)}
	}

	for event := range events {
		switch {
		case event.Err != nil:
			return "", &domain.TransportError{Message: fmt.Sprintf("generation stream: %v", event.Err)}

		case event.IsStatus():
			return event.Status, nil

		case event.Text != "":
			forward(event.Text)
			accumulated.WriteString(event.Text)
			if accumulated.Len() >= a.cfg.MaxTotalLength {
				// release the call; the caller emits the limit notice
				cancel()
				drain(events)
				return services.StopLengthLimited, nil
			}
		}

		if err := ctx.Err(); err != nil {
			drain(events)
			return "", &domain.TransportError{Message: fmt.Sprintf("assembly cancelled: %v", err)}
		}
	}

	// channel closed without a terminal event
	return "", &domain.TransportError{Message: "generation stream ended without a stop reason"}
}

// segmentMessages rebuilds the conversation for a continuation call: the
// original messages, the accumulated text as the assistant's partial answer,
// and the continuation instruction.
func (a *Assembler) segmentMessages(base []services.Message, accumulated string) []services.Message {
	if accumulated == "" {
		return base
	}

	messages := make([]services.Message, 0, len(base)+2)
	messages = append(messages, base...)
	messages = append(messages,
		services.Message{Role: "assistant", Content: accumulated},
		services.Message{Role: "user", Content: ContinuationInstruction},
	)
	return messages
}

func drain(events <-chan services.StreamEvent) {
	for range events {
	}
}
