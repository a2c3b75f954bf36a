package handler

import (
	"log/slog"
	"net/http"

	"draftsmith/internal/domain/models"
	"draftsmith/internal/domain/services"
	"draftsmith/internal/httputil"
)

// DraftHandler handles draft review and promotion HTTP requests.
type DraftHandler struct {
	draftService services.DraftService
	logger       *slog.Logger
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(draftService services.DraftService, logger *slog.Logger) *DraftHandler {
	return &DraftHandler{
		draftService: draftService,
		logger:       logger,
	}
}

// draftView is a draft plus its human-readable status label.
type draftView struct {
	models.Draft
	DisplayStatus string `json:"display_status"`
}

func toDraftViews(drafts []models.Draft) []draftView {
	views := make([]draftView, len(drafts))
	for i, d := range drafts {
		views[i] = draftView{Draft: d, DisplayStatus: d.DisplayStatus()}
	}
	return views
}

// Get handles GET /api/drafts/{id}
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}

	draft, err := h.draftService.GetDraft(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, draftView{Draft: *draft, DisplayStatus: draft.DisplayStatus()})
}

// List handles GET /api/drafts?conversation_id=N
func (h *DraftHandler) List(w http.ResponseWriter, r *http.Request) {
	conversationID, err := queryID(r, "conversation_id")
	if err != nil {
		handleError(w, err)
		return
	}

	drafts, err := h.draftService.ListDrafts(r.Context(), conversationID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"drafts": toDraftViews(drafts),
	})
}

// ListPending handles GET /api/drafts/pending?conversation_id=N (the
// conversation filter is optional)
func (h *DraftHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	var conversationID int64
	if raw := r.URL.Query().Get("conversation_id"); raw != "" {
		var err error
		conversationID, err = queryID(r, "conversation_id")
		if err != nil {
			handleError(w, err)
			return
		}
	}

	drafts, err := h.draftService.ListPendingDrafts(r.Context(), conversationID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"drafts": toDraftViews(drafts),
	})
}

// Approve handles POST /api/drafts/{id}/approve
func (h *DraftHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}

	draft, err := h.draftService.ApproveDraft(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, draft)
}

// Reject handles POST /api/drafts/{id}/reject
func (h *DraftHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}

	draft, err := h.draftService.RejectDraft(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, draft)
}

// Promote handles POST /api/drafts/{id}/promote
func (h *DraftHandler) Promote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}

	draft, attachment, err := h.draftService.PromoteDraft(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"draft":      draft,
		"attachment": attachment,
	})
}
