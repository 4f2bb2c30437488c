package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doersapp/doers-backend/internal/dto"
	"github.com/doersapp/doers-backend/internal/http/handlers/common"
	"github.com/doersapp/doers-backend/internal/service"
)

// JobHandler обслуживает маршруты заданий.
type JobHandler struct {
	jobs *service.JobService
}

// NewJobHandler создаёт хэндлер.
func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// CreateJob обрабатывает POST /jobs.
// Задание создаётся в статусе pending_payment вместе со счётом за публикацию.
func (h *JobHandler) CreateJob(c *gin.Context) {
	clientID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	startDate, err := req.ParseStartDate()
	if err != nil {
		common.RespondBadRequest(c, "неверный формат даты начала")
		return
	}

	result, err := h.jobs.CreateJob(c.Request.Context(), service.CreateJobInput{
		ClientID:    clientID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		MaxWorkers:  req.MaxWorkers,
		StartDate:   startDate,
		Images:      req.Images,
		Tags:        req.Tags,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateJobResponse{
		Job:     result.Job,
		Payment: result.Payment,
	})
}

// ListOpenJobs обрабатывает GET /jobs.
func (h *JobHandler) ListOpenJobs(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	jobs, err := h.jobs.ListOpenJobs(c.Request.Context(), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":       jobs,
		"pagination": dto.Pagination{Limit: limit, Offset: offset},
	})
}

// ListMyJobs обрабатывает GET /jobs/my.
func (h *JobHandler) ListMyJobs(c *gin.Context) {
	clientID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	jobs, err := h.jobs.ListMyJobs(c.Request.Context(), clientID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// GetJob обрабатывает GET /jobs/:id.
func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// UpdateStatus обрабатывает PUT /jobs/:id/status.
func (h *JobHandler) UpdateStatus(c *gin.Context) {
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

	var req dto.UpdateJobStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.jobs.UpdateStatus(c.Request.Context(), id, clientID, req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// UpdateAllocations обрабатывает PUT /jobs/:id/allocations.
func (h *JobHandler) UpdateAllocations(c *gin.Context) {
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

	var req dto.UpdateAllocationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	amounts, err := req.ParseAllocations()
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор исполнителя в распределении")
		return
	}

	job, err := h.jobs.UpdateAllocations(c.Request.Context(), id, clientID, amounts)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// FundPublication обрабатывает POST /payments/:id/fund-publication.
func (h *JobHandler) FundPublication(c *gin.Context) {
	clientID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	paymentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.jobs.FundPublication(c.Request.Context(), paymentID, clientID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, job)
}
