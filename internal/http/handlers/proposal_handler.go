package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/doersapp/doers-backend/internal/dto"
	"github.com/doersapp/doers-backend/internal/http/handlers/common"
	"github.com/doersapp/doers-backend/internal/models"
	"github.com/doersapp/doers-backend/internal/service"
)

// ProposalHandler обслуживает маршруты откликов.
type ProposalHandler struct {
	proposals *service.ProposalService
	jobs      *service.JobService
}

// NewProposalHandler создаёт хэндлер.
func NewProposalHandler(proposals *service.ProposalService, jobs *service.JobService) *ProposalHandler {
	return &ProposalHandler{proposals: proposals, jobs: jobs}
}

// CreateProposal обрабатывает POST /jobs/:id/proposals.
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	doerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	proposal, err := h.proposals.CreateProposal(c.Request.Context(), service.CreateProposalInput{
		JobID:             jobID,
		DoerID:            doerID,
		ProposedPrice:     req.ProposedPrice,
		EstimatedDuration: req.EstimatedDuration,
		CoverLetter:       req.CoverLetter,
		IsCounterOffer:    req.IsCounterOffer,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, proposal)
}

// ListJobProposals обрабатывает GET /jobs/:id/proposals.
func (h *ProposalHandler) ListJobProposals(c *gin.Context) {
	clientID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	proposals, err := h.proposals.ListJobProposals(c.Request.Context(), jobID, clientID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// ListMyProposals обрабатывает GET /proposals/my.
// К каждому отклику подгружается краткая информация о задании.
func (h *ProposalHandler) ListMyProposals(c *gin.Context) {
	doerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	proposals, err := h.proposals.ListMyProposals(c.Request.Context(), doerID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	jobsByID := make(map[uuid.UUID]*models.Job)
	for _, p := range proposals {
		if _, ok := jobsByID[p.JobID]; ok {
			continue
		}
		if job, err := h.jobs.GetJob(c.Request.Context(), p.JobID); err == nil {
			jobsByID[p.JobID] = job
		}
	}

	resp := make([]dto.ProposalWithJobResponse, len(proposals))
	for i := range proposals {
		resp[i] = dto.ProposalWithJobResponse{
			Proposal: &proposals[i],
			Job:      dto.NewJobShortInfo(jobsByID[proposals[i].JobID]),
		}
	}

	c.JSON(http.StatusOK, resp)
}

// GetProposal обрабатывает GET /proposals/:id.
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	proposal, err := h.proposals.GetProposal(c.Request.Context(), id, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, proposal)
}

// Approve обрабатывает PUT /proposals/:id/approve.
func (h *ProposalHandler) Approve(c *gin.Context) {
	clientID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	// Тело опционально: без allocated_amount берётся цена отклика
	var req dto.ApproveProposalRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}

	result, err := h.proposals.ApproveProposal(c.Request.Context(), id, clientID, req.AllocatedAmount)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ApproveProposalResponse{
		Proposal: result.Proposal,
		Job:      result.Job,
		Contract: result.Contract,
	})
}

// Reject обрабатывает PUT /proposals/:id/reject.
func (h *ProposalHandler) Reject(c *gin.Context) {
	clientID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	proposal, err := h.proposals.RejectProposal(c.Request.Context(), id, clientID, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, proposal)
}

// Withdraw обрабатывает PUT /proposals/:id/withdraw.
func (h *ProposalHandler) Withdraw(c *gin.Context) {
	doerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	proposal, err := h.proposals.WithdrawProposal(c.Request.Context(), id, doerID, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, proposal)
}
