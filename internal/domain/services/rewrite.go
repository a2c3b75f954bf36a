package services

import (
	"context"
)

// StartRewriteRequest is the DTO for launching a rewrite.
type StartRewriteRequest struct {
	ConversationID int64   `json:"-"`
	Prompt         string  `json:"prompt"`
	Model          *string `json:"model,omitempty"`
	SystemPrompt   *string `json:"system_prompt,omitempty"`
}

// StartRewriteResponse is returned immediately; generation continues in the
// background and is observed over the stream URL.
type StartRewriteResponse struct {
	RewriteID string `json:"rewrite_id"`
	StreamURL string `json:"stream_url"`
}

// RewriteService orchestrates a whole-file rewrite: segment assembly from the
// model, live streaming to clients, file-update detection on the final text,
// and draft creation for each detected file.
type RewriteService interface {
	// StartRewrite validates the conversation, registers an executor, and
	// launches generation in the background
	StartRewrite(ctx context.Context, req *StartRewriteRequest) (*StartRewriteResponse, error)

	// CancelRewrite stops an in-flight rewrite
	CancelRewrite(ctx context.Context, rewriteID string) error
}
