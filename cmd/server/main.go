package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/doersapp/doers-backend/internal/cache"
	"github.com/doersapp/doers-backend/internal/config"
	"github.com/doersapp/doers-backend/internal/db"
	httpHandlers "github.com/doersapp/doers-backend/internal/http/handlers"
	httpRouter "github.com/doersapp/doers-backend/internal/http/router"
	"github.com/doersapp/doers-backend/internal/logger"
	"github.com/doersapp/doers-backend/internal/push"
	"github.com/doersapp/doers-backend/internal/repository"
	"github.com/doersapp/doers-backend/internal/service"
	"github.com/doersapp/doers-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Environment == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Redis опционален: без него кэш заданий просто не работает.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("main: redis недоступен, кэш отключён: %v", err)
			rdb = nil
		}
	}

	// Firebase опционален: без credentials push-уведомления не отправляются.
	fcmSender, err := push.NewFCMSender(ctx, cfg.FirebaseCredentials, dbConn)
	if err != nil {
		log.Fatalf("main: ошибка инициализации firebase: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	jobRepo := repository.NewJobRepository(dbConn)
	proposalRepo := repository.NewProposalRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	contractRepo := repository.NewContractRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	conversationRepo := repository.NewConversationRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)

	notificationService := service.NewNotificationService(notificationRepo)
	notificationService.SetHub(hub)
	if fcmSender != nil {
		notificationService.SetPushSender(fcmSender)
	}

	var mailer service.Mailer = service.NopMailer{}
	if cfg.SMTPHost != "" {
		mailer = service.NewSMTPMailer(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort), cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPassword)
	}

	jobService := service.NewJobService(jobRepo, paymentRepo)

	proposalService := service.NewProposalService(proposalRepo, jobRepo, paymentRepo)
	proposalService.SetConversations(conversationRepo)
	proposalService.SetNotifier(notificationService)
	proposalService.SetMailer(mailer, userRepo)

	if rdb != nil {
		jobCache := cache.NewJobCache(rdb)
		jobService.SetCache(jobCache)
		proposalService.SetCache(jobCache)
	}

	paymentService := service.NewPaymentService(paymentRepo, disputeRepo)
	paymentService.SetNotifier(notificationService)

	disputeService := service.NewDisputeService(disputeRepo)
	disputeService.SetNotifier(notificationService)

	contractService := service.NewContractService(contractRepo)
	contractService.SetNotifier(notificationService)

	// HTTP хэндлеры.
	h := httpRouter.Handlers{
		Auth:         httpHandlers.NewAuthHandler(authService),
		Job:          httpHandlers.NewJobHandler(jobService),
		Proposal:     httpHandlers.NewProposalHandler(proposalService, jobService),
		Payment:      httpHandlers.NewPaymentHandler(paymentService),
		Contract:     httpHandlers.NewContractHandler(contractService),
		Dispute:      httpHandlers.NewDisputeHandler(disputeService),
		Notification: httpHandlers.NewNotificationHandler(notificationService),
		Conversation: httpHandlers.NewConversationHandler(conversationRepo),
		WS:           httpHandlers.NewWSHandler(hub, tokenManager),
		Health:       httpHandlers.NewHealthHandler(dbConn, rdb),
	}
	if fcmSender != nil {
		h.Device = httpHandlers.NewDeviceHandler(fcmSender)
	}

	engine := httpRouter.SetupRouter(cfg, h, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.Port)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
