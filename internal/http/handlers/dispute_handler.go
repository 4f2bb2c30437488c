package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doersapp/doers-backend/internal/dto"
	"github.com/doersapp/doers-backend/internal/http/handlers/common"
	"github.com/doersapp/doers-backend/internal/service"
)

// DisputeHandler обслуживает административные маршруты споров.
type DisputeHandler struct {
	disputes *service.DisputeService
}

// NewDisputeHandler создаёт хэндлер.
func NewDisputeHandler(disputes *service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputes: disputes}
}

// ListDisputes обрабатывает GET /admin/disputes.
func (h *DisputeHandler) ListDisputes(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	status := c.Query("status")

	disputes, err := h.disputes.ListDisputes(c.Request.Context(), status, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}

// GetDispute обрабатывает GET /admin/disputes/:id.
func (h *DisputeHandler) GetDispute(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.disputes.GetDispute(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// UpdateStatus обрабатывает PUT /admin/disputes/:id/status.
func (h *DisputeHandler) UpdateStatus(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateDisputeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.disputes.UpdateStatus(c.Request.Context(), id, adminID, req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// Resolve обрабатывает PUT /admin/disputes/:id/resolve.
func (h *DisputeHandler) Resolve(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.disputes.Resolve(c.Request.Context(), service.ResolveInput{
		DisputeID:      id,
		AdminID:        adminID,
		ResolutionType: req.ResolutionType,
		RefundAmount:   req.RefundAmount,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ResolveDisputeResponse{
		Dispute: result.Dispute,
		Payment: result.Payment,
	})
}

// ListAudit обрабатывает GET /admin/disputes/:id/audit.
func (h *DisputeHandler) ListAudit(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	entries, err := h.disputes.ListAudit(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"audit": entries})
}
