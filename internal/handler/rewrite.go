package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"draftsmith/internal/domain/services"
	"draftsmith/internal/httputil"
	"draftsmith/internal/service/rewrite"
)

// keepAliveInterval is how often SSE comment pings go out so proxies do not
// drop an idle stream.
const keepAliveInterval = 15 * time.Second

// RewriteHandler handles rewrite launch, cancellation, and SSE streaming.
type RewriteHandler struct {
	rewriteService services.RewriteService
	executors      *rewrite.ExecutorRegistry
	logger         *slog.Logger
}

// NewRewriteHandler creates a new rewrite handler
func NewRewriteHandler(rewriteService services.RewriteService, executors *rewrite.ExecutorRegistry, logger *slog.Logger) *RewriteHandler {
	return &RewriteHandler{
		rewriteService: rewriteService,
		executors:      executors,
		logger:         logger,
	}
}

// Start handles POST /api/conversations/{id}/rewrites. Generation runs in
// the background; the 202 response carries the stream URL.
func (h *RewriteHandler) Start(w http.ResponseWriter, r *http.Request) {
	conversationID, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}

	var req services.StartRewriteRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ConversationID = conversationID

	resp, err := h.rewriteService.StartRewrite(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusAccepted, resp)
}

// Cancel handles POST /api/rewrites/{id}/cancel
func (h *RewriteHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	rewriteID := r.PathValue("id")
	if _, err := uuid.Parse(rewriteID); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid rewrite ID format")
		return
	}

	if err := h.rewriteService.CancelRewrite(r.Context(), rewriteID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stream handles GET /api/rewrites/{id}/stream. Events flow as SSE until
// the rewrite reaches a terminal state or the client disconnects.
func (h *RewriteHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rewriteID := r.PathValue("id")
	if _, err := uuid.Parse(rewriteID); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid rewrite ID format")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	clientID := uuid.New().String()

	// establish the stream before reporting a missing executor so the
	// client gets a proper SSE error event instead of a failed connection
	executor := h.executors.Get(rewriteID)
	if executor == nil {
		if event, err := rewrite.NewErrorEvent(rewriteID, "streaming not active for this rewrite", false); err == nil {
			fmt.Fprint(w, event)
			flusher.Flush()
		}
		h.logger.Warn("stream requested for unknown rewrite", "rewrite_id", rewriteID, "client_id", clientID)
		return
	}

	eventChan := executor.AddClient(clientID)
	defer executor.RemoveClient(clientID)

	h.logger.Debug("SSE client attached", "rewrite_id", rewriteID, "client_id", clientID)

	if err := executor.Catchup(r.Context(), clientID); err != nil {
		h.logger.Warn("catchup failed, client receives live events only",
			"rewrite_id", rewriteID,
			"client_id", clientID,
			"error", err,
		)
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case event, open := <-eventChan:
			if !open {
				// terminal state reached
				return
			}
			fmt.Fprint(w, event)
			flusher.Flush()

		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()

		case <-r.Context().Done():
			h.logger.Debug("SSE client disconnected", "rewrite_id", rewriteID, "client_id", clientID)
			return
		}
	}
}
