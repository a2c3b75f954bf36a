// Package lorem is a mock generation backend producing lorem ipsum text.
// Used for development and tests without real API keys.
package lorem

import (
	"context"
	"fmt"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	"draftsmith/internal/domain/services"
)

const defaultMaxWords = 400

// Provider streams lorem ipsum words. Model name suffixes select behavior:
// "slow"/"fast"/"medium" set the word rate and "cutoff"/"small" simulate an
// output cap, ending the segment length-limited.
type Provider struct {
	generator *loremgen.Lorem
}

// NewProvider creates a new lorem provider
func NewProvider() *Provider {
	return &Provider{generator: loremgen.New()}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "lorem"
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-fast", "lorem-slow", "lorem-cutoff"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// getStreamDelay returns the delay between words based on the model name.
func getStreamDelay(model string) time.Duration {
	if strings.Contains(model, "slow") {
		return 500 * time.Millisecond
	}
	if strings.Contains(model, "fast") {
		return time.Millisecond
	}
	return 20 * time.Millisecond
}

// isCutoffModel returns true if the model simulates a max_tokens cutoff.
func isCutoffModel(model string) bool {
	return strings.Contains(model, "cutoff") || strings.Contains(model, "small")
}

// StreamGenerate streams lorem ipsum words, one Text event per word.
func (p *Provider) StreamGenerate(ctx context.Context, req *services.GenerateRequest) (<-chan services.StreamEvent, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by lorem provider", req.Model)
	}

	maxWords := defaultMaxWords
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		maxWords = *req.MaxTokens
	}

	events := make(chan services.StreamEvent, 10)

	go func() {
		defer close(events)

		targetWords := maxWords
		if isCutoffModel(req.Model) {
			// generate 50% extra so the cap is actually hit
			targetWords = maxWords + maxWords/2
		}

		words := strings.Fields(p.generateText(targetWords))
		delay := getStreamDelay(req.Model)

		sent := 0
		for _, word := range words {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if sent >= maxWords {
				events <- services.StreamEvent{Status: services.StopLengthLimited}
				return
			}

			select {
			case events <- services.StreamEvent{Text: word + " "}:
			case <-ctx.Done():
				return
			}

			time.Sleep(delay)
			sent++
		}

		events <- services.StreamEvent{Status: services.StopNatural}
	}()

	return events, nil
}

// generateText generates lorem ipsum with approximately targetWords words.
func (p *Provider) generateText(targetWords int) string {
	var sb strings.Builder
	count := 0
	for count < targetWords {
		paragraph := p.generator.Paragraph(3, 5)
		count += len(strings.Fields(paragraph))
		sb.WriteString(paragraph)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}
