package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/goalstash/goalstash/internal/config"
	"github.com/goalstash/goalstash/internal/db"
	"github.com/goalstash/goalstash/internal/llm"
	"github.com/goalstash/goalstash/internal/middleware"
	"github.com/goalstash/goalstash/internal/repository"
	"github.com/goalstash/goalstash/internal/service"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	Verifier        *middleware.Verifier
	UserService     *service.UserService
	GoalService     *service.GoalService
	NotifierService *service.NotifierService
	ScannerService  *service.ScannerService
	ChatService     *service.ChatService
	ChatSessionRepo repository.ChatSessionRepository
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	depositRepository := repository.NewDepositRepository(database)
	notificationRepository := repository.NewNotificationRepository(database)
	chatSessionRepository := repository.NewChatSessionRepository(database)

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	notifierService := service.NewNotifierService(notificationRepository, userRepository, emailService)
	scannerService := service.NewScannerService(goalRepository, notificationRepository, notifierService, cfg.DueSoonDays())
	goalService := service.NewGoalService(goalRepository, depositRepository, notifierService, scannerService)
	userService := service.NewUserService(userRepository)

	generator := llm.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout)
	chatService := service.NewChatService(generator, goalService)

	verifier := middleware.NewVerifier(cfg.JWTSecret, userRepository)

	return &App{
		Cfg:             cfg,
		DB:              database,
		Verifier:        verifier,
		UserService:     userService,
		GoalService:     goalService,
		NotifierService: notifierService,
		ScannerService:  scannerService,
		ChatService:     chatService,
		ChatSessionRepo: chatSessionRepository,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
