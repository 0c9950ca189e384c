package app

import (
	"backend/internal/app/assistant"
	"backend/internal/app/conversation"
	"backend/internal/app/health"
	"backend/internal/app/media"
	"backend/internal/app/message"
	"backend/internal/app/reaction"
	appsync "backend/internal/app/sync"
	"backend/internal/config"
	"backend/internal/db"
	"backend/internal/gateways/websocket"
	"backend/internal/providers/minio"
	"backend/internal/providers/redis"
	"backend/internal/router"
	"backend/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Application struct {
	Router *router.Router
	DB     *gorm.DB
}

func Bootstrap(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	dbConn, err := db.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(dbConn, logger); err != nil {
		return nil, err
	}

	redisProvider := redis.NewRedisProvider(cfg.RedisURL, logger)
	minioProvider, err := minio.NewMinioProvider(cfg, logger)
	if err != nil {
		logger.Warn("Failed to initialize MinIO provider", zap.Error(err))
		minioProvider = nil
	}

	messageRepo := message.NewRepository(dbConn)
	conversationRepo := conversation.NewRepository(dbConn)
	mediaRepo := media.NewRepository(dbConn)

	broadcaster := appsync.NewBroadcaster(redisProvider, logger)
	typingTracker := appsync.NewTracker(cfg.TypingTTL, cfg.TypingDebounce)

	messageService := message.NewService(messageRepo, broadcaster, logger)
	conversationService := conversation.NewService(conversationRepo, messageService, redisProvider, logger)
	syncService := appsync.NewService(messageService, broadcaster, typingTracker, redisProvider, cfg.TypingTTL, logger)
	reactionService := reaction.NewService(messageService, logger)

	assistantClient := assistant.NewClient(cfg, logger)
	assistantService := assistant.NewService(assistantClient, messageService, conversationService, cfg.AssistantFallback, logger)

	var mediaService media.Service
	if minioProvider != nil {
		mediaService = media.NewService(mediaRepo, minioProvider, cfg.RecordingMaxDuration, logger)
	}

	hub := websocket.NewHub(logger, redisProvider, syncService)
	go hub.Run()

	healthChecker := &utils.HealthChecker{
		DB:    dbConn,
		Redis: redisProvider.Client,
	}
	if minioProvider != nil {
		healthChecker.Minio = minioProvider.GetClient()
		healthChecker.MinioBucket = minioProvider.GetBucket()
	}

	healthHandler := health.NewHandler(healthChecker)
	conversationHandler := conversation.NewHandler(conversationService, messageService, logger)
	messageHandler := message.NewHandler(messageService, logger)
	reactionHandler := reaction.NewHandler(reactionService, logger)
	assistantHandler := assistant.NewHandler(assistantService, logger)

	r := router.NewRouter(logger)

	r.RegisterHealthRoutes(healthHandler)
	r.RegisterWebSocketRoutes(hub)
	r.RegisterConversationRoutes(conversationHandler)
	r.RegisterMessageRoutes(messageHandler)
	r.RegisterReactionRoutes(reactionHandler)
	r.RegisterAssistantRoutes(assistantHandler)

	if mediaService != nil {
		mediaHandler := media.NewHandler(mediaService, logger)
		r.RegisterMediaRoutes(mediaHandler)
	}

	return &Application{
		Router: r,
		DB:     dbConn,
	}, nil
}
