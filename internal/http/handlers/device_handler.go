package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doersapp/doers-backend/internal/dto"
	"github.com/doersapp/doers-backend/internal/http/handlers/common"
	"github.com/doersapp/doers-backend/internal/push"
)

// DeviceHandler регистрирует push-токены мобильных устройств.
type DeviceHandler struct {
	sender *push.FCMSender
}

// NewDeviceHandler создаёт хэндлер.
func NewDeviceHandler(sender *push.FCMSender) *DeviceHandler {
	return &DeviceHandler{sender: sender}
}

// RegisterToken обрабатывает POST /devices.
func (h *DeviceHandler) RegisterToken(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.sender.RegisterToken(c.Request.Context(), userID, req.Token); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "устройство зарегистрировано"})
}

// DeleteToken обрабатывает DELETE /devices.
func (h *DeviceHandler) DeleteToken(c *gin.Context) {
	if _, err := common.CurrentUserID(c); err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.sender.DeleteToken(c.Request.Context(), req.Token); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "устройство удалено"})
}
