// Package anthropic adapts the meridian-llm-go Anthropic provider to the
// generation client interface.
package anthropic

import (
	"context"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/providers/anthropic"

	"draftsmith/internal/domain/services"
)

// Adapter wraps the library provider. It flattens the library's block-delta
// stream into plain text events and maps stop reasons onto the two-valued
// natural/length-limited vocabulary the assembler works with.
type Adapter struct {
	provider llmprovider.Provider
}

// NewAdapter creates an Anthropic-backed generation client
func NewAdapter(apiKey string) (*Adapter, error) {
	provider, err := anthropic.NewProvider(apiKey)
	if err != nil {
		return nil, err
	}
	return &Adapter{provider: provider}, nil
}

// NewAdapterWithProvider wraps an existing library provider, used by tests
func NewAdapterWithProvider(provider llmprovider.Provider) *Adapter {
	return &Adapter{provider: provider}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return a.provider.Name().String()
}

// SupportsModel returns true if the provider serves the given model
func (a *Adapter) SupportsModel(model string) bool {
	return a.provider.SupportsModel(model)
}

// StreamGenerate opens one generation segment against the Anthropic API.
func (a *Adapter) StreamGenerate(ctx context.Context, req *services.GenerateRequest) (<-chan services.StreamEvent, error) {
	libReq := toLibraryRequest(req)

	libEvents, err := a.provider.StreamResponse(ctx, libReq)
	if err != nil {
		return nil, err
	}

	events := make(chan services.StreamEvent, 10)
	go func() {
		defer close(events)

		var stop services.StopReason = services.StopNatural
		for libEvent := range libEvents {
			if libEvent.Error != nil {
				events <- services.StreamEvent{Err: libEvent.Error}
				return
			}
			if libEvent.Delta != nil && libEvent.Delta.TextDelta != nil && *libEvent.Delta.TextDelta != "" {
				select {
				case events <- services.StreamEvent{Text: *libEvent.Delta.TextDelta}:
				case <-ctx.Done():
					return
				}
			}
			if libEvent.Metadata != nil {
				stop = mapStopReason(libEvent.Metadata.StopReason)
			}
		}
		select {
		case events <- services.StreamEvent{Status: stop}:
		case <-ctx.Done():
		}
	}()

	return events, nil
}

func toLibraryRequest(req *services.GenerateRequest) *llmprovider.GenerateRequest {
	messages := make([]llmprovider.Message, len(req.Messages))
	for i, msg := range req.Messages {
		text := msg.Content
		messages[i] = llmprovider.Message{
			Role: msg.Role,
			Blocks: []*llmprovider.Block{
				{
					BlockType:   "text",
					Sequence:    0,
					TextContent: &text,
				},
			},
		}
	}

	return &llmprovider.GenerateRequest{
		Messages: messages,
		Model:    req.Model,
		Params: &llmprovider.RequestParams{
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			System:      req.System,
		},
	}
}

// mapStopReason folds provider stop reasons into the assembler vocabulary.
// "max_tokens" is the only reason that triggers continuation.
func mapStopReason(reason string) services.StopReason {
	if reason == "max_tokens" {
		return services.StopLengthLimited
	}
	return services.StopNatural
}
