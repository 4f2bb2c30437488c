package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/doersapp/doers-backend/internal/logger"
	"github.com/doersapp/doers-backend/internal/pkg/apperror"
	"github.com/doersapp/doers-backend/internal/repository"
)

// ErrorHandler обрабатывает ошибки централизованно.
// AppError отдаётся со своим статусом, ошибки репозиториев маппятся на 404,
// остальное маскируется как внутренняя ошибка.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Request error")
		}

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			c.JSON(appErr.HTTPStatus, gin.H{
				"error": appErr.Message,
				"code":  appErr.Code,
			})
			return
		}

		statusCode := http.StatusInternalServerError
		message := "внутренняя ошибка сервера"

		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			statusCode, message = http.StatusNotFound, "пользователь не найден"
		case errors.Is(err, repository.ErrJobNotFound):
			statusCode, message = http.StatusNotFound, "задание не найдено"
		case errors.Is(err, repository.ErrContractNotFound):
			statusCode, message = http.StatusNotFound, "контракт не найден"
		case errors.Is(err, repository.ErrProposalNotFound):
			statusCode, message = http.StatusNotFound, "отклик не найден"
		case errors.Is(err, repository.ErrPaymentNotFound):
			statusCode, message = http.StatusNotFound, "платёж не найден"
		case errors.Is(err, repository.ErrDisputeNotFound):
			statusCode, message = http.StatusNotFound, "спор не найден"
		case errors.Is(err, repository.ErrNotificationNotFound):
			statusCode, message = http.StatusNotFound, "уведомление не найдено"
		case errors.Is(err, repository.ErrProposalAlreadyExists):
			statusCode, message = http.StatusConflict, "вы уже откликнулись на это задание"
		default:
			if msg := err.Error(); msg != "" && !containsInternalKeywords(msg) {
				message = msg
				statusCode = http.StatusBadRequest
			}
		}

		c.JSON(statusCode, gin.H{"error": message})
	}
}

// containsInternalKeywords проверяет, содержит ли строка ключевые слова внутренних ошибок.
func containsInternalKeywords(s string) bool {
	keywords := []string{
		"sql:",
		"database",
		"connection",
		"timeout",
		"internal",
		"panic",
		"runtime",
	}

	for _, keyword := range keywords {
		if contains(s, keyword) {
			return true
		}
	}
	return false
}

// contains проверяет, содержит ли строка подстроку (case-insensitive).
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
