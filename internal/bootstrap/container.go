package bootstrap

import (
	"context"
	"log"
	"time"

	"telemed-chat-be/internal/config"
	"telemed-chat-be/internal/controller"
	"telemed-chat-be/internal/handler"
	"telemed-chat-be/internal/pkg/logger"
	"telemed-chat-be/internal/repository/memory"
	"telemed-chat-be/internal/repository/unitofwork"
	"telemed-chat-be/internal/service"
	"telemed-chat-be/internal/websocket"
	pktNats "telemed-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	ChatController controller.IChatController
	ChatWsHandler  *handler.ChatWsHandler

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService
	Hub             *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	chatLogger := logger.NewIsolatedLogger(cfg.App.ChatLogFilePath)

	// 2. In-process event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS publisher: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// 4. Chat core
	authCache := memory.NewAuthorizationCache(30 * time.Second)
	authService := service.NewAppointmentAuthService(uowFactory, authCache, cfg.Chat.AllowCancelledChat)

	publisherService := service.NewPublisherService(cfg.Chat.EventTopic, cfg.Chat.JoinEventTopic, pubSub)
	chatService := service.NewChatService(uowFactory, authService, publisherService, rdb, chatLogger)

	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Chat.EventTopic,
		cfg.Chat.JoinEventTopic,
		uowFactory,
		rdb,
		natsPub,
		sysLogger,
	)

	hub := websocket.NewHub(rdb, chatLogger)
	go hub.Run()

	joinTimeout := time.Duration(cfg.Chat.AuthorizeTimeoutSeconds) * time.Second
	wsHandler := handler.NewChatWsHandler(hub, chatService, authService, cfg.App.JwtSecret, joinTimeout, chatLogger)

	return &Container{
		ChatController:  controller.NewChatController(chatService, cfg.App.JwtSecret),
		ChatWsHandler:   wsHandler,
		ConsumerService: consumerService,
		Hub:             hub,
	}
}
