package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doersapp/doers-backend/internal/dto"
	"github.com/doersapp/doers-backend/internal/http/handlers/common"
	"github.com/doersapp/doers-backend/internal/service"
)

// ContractHandler обслуживает маршруты контрактов.
type ContractHandler struct {
	contracts *service.ContractService
}

// NewContractHandler создаёт хэндлер.
func NewContractHandler(contracts *service.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// ListMyContracts обрабатывает GET /contracts.
func (h *ContractHandler) ListMyContracts(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	contracts, err := h.contracts.ListMyContracts(c.Request.Context(), userID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contracts": contracts})
}

// GetContract обрабатывает GET /contracts/:id.
func (h *ContractHandler) GetContract(c *gin.Context) {
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

	contract, err := h.contracts.GetContract(c.Request.Context(), id, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, contract)
}

// VerifyPairing обрабатывает POST /contracts/:id/pairing.
// Код подтверждает очную встречу клиента и исполнителя.
func (h *ContractHandler) VerifyPairing(c *gin.Context) {
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

	var req dto.PairingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contract, err := h.contracts.VerifyPairing(c.Request.Context(), id, userID, req.Code)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, contract)
}

// AcceptTerms обрабатывает POST /contracts/:id/accept-terms.
func (h *ContractHandler) AcceptTerms(c *gin.Context) {
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

	contract, err := h.contracts.AcceptTerms(c.Request.Context(), id, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, contract)
}
