package handler

import (
	"log/slog"
	"net/http"
	"sort"

	"draftsmith/internal/domain/models"
	"draftsmith/internal/domain/services"
	"draftsmith/internal/httputil"
)

// AttachmentHandler handles file upload and version chain HTTP requests.
type AttachmentHandler struct {
	attachmentService services.AttachmentService
	logger            *slog.Logger
}

// NewAttachmentHandler creates a new attachment handler
func NewAttachmentHandler(attachmentService services.AttachmentService, logger *slog.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
		logger:            logger,
	}
}

type uploadAttachmentRequest struct {
	Filename     string  `json:"filename"`
	Content      string  `json:"content"`
	MimeType     string  `json:"mime_type,omitempty"`
	ImportSource *string `json:"import_source,omitempty"`
}

// Upload handles POST /api/conversations/{id}/attachments
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	conversationID, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}

	var req uploadAttachmentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	att, err := h.attachmentService.Upload(r.Context(), &services.UploadAttachmentInput{
		ConversationID: conversationID,
		Filename:       req.Filename,
		Content:        req.Content,
		MimeType:       req.MimeType,
		ImportSource:   req.ImportSource,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, att)
}

// Get handles GET /api/attachments/{id}
func (h *AttachmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}

	att, err := h.attachmentService.Get(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, att)
}

// GetCurrent handles GET /api/conversations/{id}/files/{filename...}
func (h *AttachmentHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	conversationID, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}

	filename := r.PathValue("filename")
	if filename == "" {
		httputil.RespondError(w, http.StatusBadRequest, "filename is required")
		return
	}

	att, err := h.attachmentService.GetCurrent(r.Context(), conversationID, filename)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, att)
}

// ListChains handles GET /api/conversations/{id}/attachments. The default
// response carries only each file's current version; ?all=true includes the
// full version history per chain.
func (h *AttachmentHandler) ListChains(w http.ResponseWriter, r *http.Request) {
	conversationID, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}

	chains, err := h.attachmentService.ListChains(r.Context(), conversationID)
	if err != nil {
		handleError(w, err)
		return
	}

	if r.URL.Query().Get("all") == "true" {
		httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"chains": chains,
		})
		return
	}

	current := make([]models.Attachment, 0, len(chains))
	for _, chain := range chains {
		if len(chain) > 0 {
			current = append(current, chain[len(chain)-1])
		}
	}
	sort.Slice(current, func(i, j int) bool {
		return current[i].UpdatedAt.After(current[j].UpdatedAt)
	})

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"attachments": current,
	})
}
