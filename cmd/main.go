package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/config"
	chat_handler "github.com/xenn00/social-chat/internal/handlers/chat-handler"
	"github.com/xenn00/social-chat/internal/identity"
	"github.com/xenn00/social-chat/internal/media"
	"github.com/xenn00/social-chat/internal/queue"
	chat_repo "github.com/xenn00/social-chat/internal/repo/chat"
	dlq_repo "github.com/xenn00/social-chat/internal/repo/dlq"
	group_repo "github.com/xenn00/social-chat/internal/repo/group"
	notification_repo "github.com/xenn00/social-chat/internal/repo/notification"
	user_repo "github.com/xenn00/social-chat/internal/repo/user"
	"github.com/xenn00/social-chat/internal/routers"
	chat_service "github.com/xenn00/social-chat/internal/use-case/chat-case"
	membership_service "github.com/xenn00/social-chat/internal/use-case/membership-case"
	notification_service "github.com/xenn00/social-chat/internal/use-case/notification-case"
	user_service "github.com/xenn00/social-chat/internal/use-case/user-case"
	"github.com/xenn00/social-chat/internal/utils/types"
	"github.com/xenn00/social-chat/internal/websocket"
	"github.com/xenn00/social-chat/internal/worker"
	worker_handler "github.com/xenn00/social-chat/internal/worker/worker-handler"
	worker_service "github.com/xenn00/social-chat/internal/worker/worker-service"
	"github.com/xenn00/social-chat/state"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// initialize the application
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	conf := config.Conf

	appState, err := state.InitAppState(ctx, stop)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application state")
	}
	defer appState.Close()

	mongoDB := appState.MongoDB()

	// repositories
	conversations := chat_repo.NewChatRepo(mongoDB)
	notifications := notification_repo.NewNotificationRepo(mongoDB)
	dlqJobs := dlq_repo.NewDLQRepo(mongoDB, dlq_repo.CollectionName)
	users := user_repo.NewUserRepo(appState.DB)
	groups := group_repo.NewGroupRepo(appState.DB)

	if appErr := conversations.EnsureIndexes(ctx); appErr != nil {
		log.Fatal().Str("error", appErr.Message).Msg("failed to prepare conversation store")
	}
	if appErr := notifications.EnsureIndexes(ctx); appErr != nil {
		log.Fatal().Str("error", appErr.Message).Msg("failed to prepare notification store")
	}
	if appErr := dlqJobs.EnsureIndexes(ctx); appErr != nil {
		log.Fatal().Str("error", appErr.Message).Msg("failed to prepare dlq store")
	}

	var storage media.Storage
	if conf.CLOUDINARY.URL != "" {
		cld, err := media.NewCloudinaryStorage(conf.CLOUDINARY.URL, conf.CLOUDINARY.Folder)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize media storage")
		}
		storage = cld
	} else {
		log.Warn().Msg("cloudinary is not configured, attachments are disabled")
	}

	var mailer worker_service.Mailer
	if smtp := worker_service.NewSMTPMailer(worker_service.SMTPConfig{
		Host:     conf.MAILTRAP.SMTPHost,
		Port:     conf.MAILTRAP.SMTPPort,
		Username: conf.MAILTRAP.Username,
		Password: conf.MAILTRAP.Password,
		From:     conf.MAILTRAP.From,
	}); smtp != nil {
		mailer = smtp
	}

	// services
	resolver := identity.NewJWTResolver(appState.JwtSecret.Public, appState.Redis)
	producer := queue.NewProducer(appState.Redis)
	userService := user_service.NewUserService(appState.Redis, users)
	guard := membership_service.NewGuard(users, groups)
	chatService := chat_service.NewChatService(conversations, guard, userService, storage)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	wsMetrics := websocket.NewMetrics(registry)

	wsHub := websocket.NewHub(wsMetrics)
	log.Info().Msg("Websocket hub initialized")

	notifier := notification_service.NewDispatcher(appState.Redis, notifications, groups, wsHub, producer)
	gateway := websocket.NewGateway(wsHub, chatService, guard, wsMetrics)

	wsHandler := websocket.NewWebSocketHandler(wsHub, gateway, resolver, websocket.Limits{
		MaxConnections:   conf.WEBSOCKET.MaxConnections,
		ConnectionsPerIP: conf.WEBSOCKET.ConnectionsPerIP,
		EventsPerSecond:  conf.WEBSOCKET.EventsPerSecond,
		EventBurst:       conf.WEBSOCKET.EventBurst,
		AllowedOrigins:   conf.WEBSOCKET.AllowedOrigins,
	})
	go wsHandler.StartCleanup(ctx)
	log.Info().Msg("Websocket handler initialized")

	// background workers
	workerHandler := worker_handler.NewWorkerHandler(gateway, userService, mailer)
	workerPool := worker.NewWorkerPool(appState.Redis, dlqJobs, conf.WORKER.Count, worker.Route(workerHandler), types.DLQRetryConfig{
		BatchSize:     50,
		RetryInterval: conf.WORKER.DLQRetryInterval,
		MaxRetryCount: conf.WORKER.DLQMaxRetry,
		BackoffFactor: 2,
	})
	workerPool.Start(ctx)
	workerPool.StartDLQWorker(ctx)
	workerPool.StartDLQRetryConsumer(ctx)

	scheduler, err := worker.NewScheduler(worker.SchedulerConfig{
		RetentionSchedule: conf.WORKER.RetentionSchedule,
		NotificationTTL:   conf.WORKER.NotificationTTL,
	}, notifications, workerPool)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize scheduler")
	}
	scheduler.Start()

	r := routers.NewRouter(routers.Deps{
		Resolver:  resolver,
		Chat:      chat_handler.NewChatHandler(chatService, notifier, producer, storage),
		Hub:       wsHub,
		WebSocket: wsHandler,
		Metrics:   registry,
	})

	server := &http.Server{
		Addr:        conf.App.Port,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: it would cut long lived websocket connections
		IdleTimeout: 60 * time.Second,
	}

	// serve the application
	go func() {
		log.Info().Msgf("Starting server on http://localhost%s", conf.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ListenAndServe failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown initiated...")

	// gracefully shutdown the application
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	} else {
		log.Info().Msg("Server exited gracefully.")
	}

	<-scheduler.Stop().Done()
	wsHub.Close()
	workerPool.Wait()
}
