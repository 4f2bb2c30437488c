package router

import (
	"github.com/gin-gonic/gin"

	"github.com/doersapp/doers-backend/internal/config"
	"github.com/doersapp/doers-backend/internal/http/handlers"
	"github.com/doersapp/doers-backend/internal/http/middleware"
	"github.com/doersapp/doers-backend/internal/models"
	"github.com/doersapp/doers-backend/internal/service"
)

// Handlers собирает все хэндлеры, нужные роутеру.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Job          *handlers.JobHandler
	Proposal     *handlers.ProposalHandler
	Payment      *handlers.PaymentHandler
	Contract     *handlers.ContractHandler
	Dispute      *handlers.DisputeHandler
	Notification *handlers.NotificationHandler
	Conversation *handlers.ConversationHandler
	Device       *handlers.DeviceHandler
	WS           *handlers.WSHandler
	Health       *handlers.HealthHandler
}

// SetupRouter настраивает все маршруты приложения.
func SetupRouter(cfg *config.Config, h Handlers, tokenManager *service.TokenManager) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	// Публичные маршруты
	api.GET("/jobs", h.Job.ListOpenJobs)
	api.GET("/ws", h.WS.Handle)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		// Задания
		protected.POST("/jobs", h.Job.CreateJob)
		protected.GET("/jobs/my", h.Job.ListMyJobs)
		protected.GET("/jobs/:id", middleware.UUIDValidator("id"), h.Job.GetJob)
		protected.PUT("/jobs/:id/status", middleware.UUIDValidator("id"), h.Job.UpdateStatus)
		protected.PUT("/jobs/:id/allocations", middleware.UUIDValidator("id"), h.Job.UpdateAllocations)
		protected.GET("/jobs/:id/chat", middleware.UUIDValidator("id"), h.Conversation.GetJobChat)

		// Отклики
		protected.POST("/jobs/:id/proposals", middleware.UUIDValidator("id"), h.Proposal.CreateProposal)
		protected.GET("/jobs/:id/proposals", middleware.UUIDValidator("id"), h.Proposal.ListJobProposals)
		protected.GET("/proposals/my", h.Proposal.ListMyProposals)
		protected.GET("/proposals/:id", middleware.UUIDValidator("id"), h.Proposal.GetProposal)
		protected.PUT("/proposals/:id/approve", middleware.UUIDValidator("id"), h.Proposal.Approve)
		protected.PUT("/proposals/:id/reject", middleware.UUIDValidator("id"), h.Proposal.Reject)
		protected.PUT("/proposals/:id/withdraw", middleware.UUIDValidator("id"), h.Proposal.Withdraw)

		// Платежи и эскроу
		protected.GET("/payments", h.Payment.ListMyPayments)
		protected.GET("/payments/:id", middleware.UUIDValidator("id"), h.Payment.GetPayment)
		protected.POST("/payments/:id/fund", middleware.UUIDValidator("id"), h.Payment.Fund)
		protected.POST("/payments/:id/fund-publication", middleware.UUIDValidator("id"), h.Job.FundPublication)
		protected.POST("/payments/:id/confirm", middleware.UUIDValidator("id"), h.Payment.Confirm)
		protected.POST("/payments/:id/dispute", middleware.UUIDValidator("id"), h.Payment.OpenDispute)

		// Контракты
		protected.GET("/contracts", h.Contract.ListMyContracts)
		protected.GET("/contracts/:id", middleware.UUIDValidator("id"), h.Contract.GetContract)
		protected.POST("/contracts/:id/pairing", middleware.UUIDValidator("id"), h.Contract.VerifyPairing)
		protected.POST("/contracts/:id/accept-terms", middleware.UUIDValidator("id"), h.Contract.AcceptTerms)

		// Уведомления
		protected.GET("/notifications", h.Notification.ListNotifications)
		protected.GET("/notifications/unread/count", h.Notification.CountUnread)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), h.Notification.MarkAsRead)
		protected.PUT("/notifications/read-all", h.Notification.MarkAllAsRead)

		// Push-устройства
		if h.Device != nil {
			protected.POST("/devices", h.Device.RegisterToken)
			protected.DELETE("/devices", h.Device.DeleteToken)
		}
	}

	// Административные маршруты
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager))
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/disputes", h.Dispute.ListDisputes)
		admin.GET("/disputes/:id", middleware.UUIDValidator("id"), h.Dispute.GetDispute)
		admin.GET("/disputes/:id/audit", middleware.UUIDValidator("id"), h.Dispute.ListAudit)
		admin.PUT("/disputes/:id/status", middleware.UUIDValidator("id"), h.Dispute.UpdateStatus)
		admin.PUT("/disputes/:id/resolve", middleware.UUIDValidator("id"), h.Dispute.Resolve)
	}

	return r
}
