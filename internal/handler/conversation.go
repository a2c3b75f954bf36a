package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"draftsmith/internal/domain/models"
	"draftsmith/internal/domain/repositories"
	"draftsmith/internal/httputil"
)

// ConversationHandler handles conversation HTTP requests.
type ConversationHandler struct {
	convRepo       repositories.ConversationRepository
	attachmentRepo repositories.AttachmentRepository
	draftRepo      repositories.DraftRepository
	txManager      repositories.TransactionManager
	logger         *slog.Logger
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(
	convRepo repositories.ConversationRepository,
	attachmentRepo repositories.AttachmentRepository,
	draftRepo repositories.DraftRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) *ConversationHandler {
	return &ConversationHandler{
		convRepo:       convRepo,
		attachmentRepo: attachmentRepo,
		draftRepo:      draftRepo,
		txManager:      txManager,
		logger:         logger,
	}
}

type createConversationRequest struct {
	Title string  `json:"title,omitempty"`
	Model *string `json:"model,omitempty"`
}

// defaultTitle is used when a conversation is created without one; the
// column is NOT NULL.
const defaultTitle = "Untitled conversation"

// Create handles POST /api/conversations
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultTitle
	}

	conv := &models.Conversation{Title: title, Model: req.Model}
	if err := h.convRepo.Create(r.Context(), conv); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, conv)
}

// Get handles GET /api/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}

	conv, err := h.convRepo.GetByID(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, conv)
}

// List handles GET /api/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.convRepo.List(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": conversations,
	})
}

// Delete handles DELETE /api/conversations/{id}. Drafts and attachments go
// with the conversation, in one transaction.
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}

	if _, err := h.convRepo.GetByID(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	err = h.txManager.ExecTx(r.Context(), func(ctx context.Context) error {
		if err := h.draftRepo.DeleteByConversation(ctx, id); err != nil {
			return err
		}
		if err := h.attachmentRepo.DeleteByConversation(ctx, id); err != nil {
			return err
		}
		return h.convRepo.Delete(ctx, id)
	})
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("conversation deleted", "conversation_id", id)
	w.WriteHeader(http.StatusNoContent)
}
