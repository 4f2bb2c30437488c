package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doersapp/doers-backend/internal/http/handlers/common"
	"github.com/doersapp/doers-backend/internal/repository"
)

// ConversationHandler обслуживает групповые чаты заданий.
type ConversationHandler struct {
	conversations *repository.ConversationRepository
}

// NewConversationHandler создаёт хэндлер.
func NewConversationHandler(conversations *repository.ConversationRepository) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// GetJobChat обрабатывает GET /jobs/:id/chat.
// Чат доступен только участникам: клиенту и одобренным исполнителям.
func (h *ConversationHandler) GetJobChat(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	conversation, err := h.conversations.GetByJob(c.Request.Context(), jobID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if !conversation.HasMember(userID) {
		common.RespondForbidden(c, "вы не участник этого чата")
		return
	}

	c.JSON(http.StatusOK, conversation)
}
