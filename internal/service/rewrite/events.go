package rewrite

import (
	"encoding/json"
	"fmt"
)

// SSE event type constants
const (
	SSEEventChunk    = "chunk"            // Incremental assembled text
	SSEEventComplete = "rewrite_complete" // Assembly finished, drafts created
	SSEEventError    = "rewrite_error"    // Assembly aborted
)

// ChunkEvent carries one live text fragment.
type ChunkEvent struct {
	RewriteID string `json:"rewrite_id"`
	Text      string `json:"text"`
}

// DraftRef summarizes one draft created from the assembled text.
type DraftRef struct {
	DraftID    int64   `json:"draft_id"`
	Filename   string  `json:"filename"`
	Status     string  `json:"status"`
	IsComplete bool    `json:"is_complete"`
	Score      float64 `json:"completeness_score"`
}

// CompleteEvent signals that the rewrite finished and which drafts it produced.
type CompleteEvent struct {
	RewriteID string     `json:"rewrite_id"`
	Segments  int        `json:"segments"`
	Truncated bool       `json:"truncated"`
	Drafts    []DraftRef `json:"drafts"`
}

// ErrorEvent signals that the rewrite aborted.
type ErrorEvent struct {
	RewriteID   string `json:"rewrite_id"`
	Error       string `json:"error"`
	IsCancelled bool   `json:"is_cancelled,omitempty"`
}

// FormatSSE formats an event for transmission:
//
//	event: event_name
//	data: {"field": "value"}
func FormatSSE(eventType string, data interface{}) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal SSE event data: %w", err)
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, string(jsonData)), nil
}

// NewChunkEvent creates a chunk SSE event
func NewChunkEvent(rewriteID, text string) (string, error) {
	return FormatSSE(SSEEventChunk, ChunkEvent{RewriteID: rewriteID, Text: text})
}

// NewCompleteEvent creates a rewrite_complete SSE event
func NewCompleteEvent(rewriteID string, segments int, truncated bool, drafts []DraftRef) (string, error) {
	return FormatSSE(SSEEventComplete, CompleteEvent{
		RewriteID: rewriteID,
		Segments:  segments,
		Truncated: truncated,
		Drafts:    drafts,
	})
}

// NewErrorEvent creates a rewrite_error SSE event
func NewErrorEvent(rewriteID, message string, cancelled bool) (string, error) {
	return FormatSSE(SSEEventError, ErrorEvent{
		RewriteID:   rewriteID,
		Error:       message,
		IsCancelled: cancelled,
	})
}
