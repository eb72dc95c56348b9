package bootstrap

import (
	"log"
	"time"

	"athleticare-be/internal/config"
	"athleticare-be/internal/controller"
	"athleticare-be/internal/pkg/logger"
	"athleticare-be/internal/pkg/mailer"
	"athleticare-be/internal/repository/memory"
	"athleticare-be/internal/repository/unitofwork"
	"athleticare-be/internal/service"
	"athleticare-be/pkg/llm/factory"
	pktNats "athleticare-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController  controller.IAuthController
	ChatController  controller.IChatController
	ProxyController controller.IProxyController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS audit events; the app runs fine without a broker
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// 3. LLM Provider
	llmBaseURL := cfg.Ai.GroqBaseURL
	if cfg.Ai.LLMProvider == "ollama" {
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmBaseURL,
		cfg.Keys.Groq,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// One in-flight send per session; TTL keeps a dead request from wedging it
	inflightRepo := memory.NewInflightRepository(2 * time.Minute)

	// 4. Services
	publisherService := service.NewPublisherService(cfg.App.WelcomeEmailTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.App.WelcomeEmailTopic, emailService)

	authService := service.NewAuthService(uowFactory, publisherService, natsPub)
	chatService := service.NewChatService(uowFactory, llmProvider, inflightRepo, sysLogger)
	proxyService := service.NewProxyService(llmProvider, emailService)

	// 5. Controllers
	return &Container{
		AuthController:  controller.NewAuthController(authService),
		ChatController:  controller.NewChatController(chatService),
		ProxyController: controller.NewProxyController(proxyService, sysLogger),

		ConsumerService: consumerService,
	}
}
