package main

import (
	"log"

	api "flowstate-backend/cmd/api"
	authdomain "flowstate-backend/internal/auth/domain"
	authRepo "flowstate-backend/internal/auth/repository"
	authUsecase "flowstate-backend/internal/auth/usecase"
	briefingUsecase "flowstate-backend/internal/briefing/usecase"
	conndomain "flowstate-backend/internal/connection/domain"
	connRepo "flowstate-backend/internal/connection/repository"
	connUsecase "flowstate-backend/internal/connection/usecase"
	enrichUsecase "flowstate-backend/internal/enrichment/usecase"
	inboxDelivery "flowstate-backend/internal/inbox/delivery"
	inboxdomain "flowstate-backend/internal/inbox/domain"
	inboxRepo "flowstate-backend/internal/inbox/repository"
	inboxUsecase "flowstate-backend/internal/inbox/usecase"
	syncRepo "flowstate-backend/internal/sync/repository"
	"flowstate-backend/internal/sync/scheduler"
	syncUsecase "flowstate-backend/internal/sync/usecase"
	taskdomain "flowstate-backend/internal/task/domain"
	taskRepo "flowstate-backend/internal/task/repository"
	taskUsecase "flowstate-backend/internal/task/usecase"
	"flowstate-backend/pkg/ai"
	"flowstate-backend/pkg/config"
	"flowstate-backend/pkg/database"
	"flowstate-backend/pkg/platform"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{},
		&authdomain.RefreshToken{},
		&conndomain.Connection{},
		&conndomain.SyncCursor{},
		&inboxdomain.Item{},
		&inboxdomain.Deadline{},
		&inboxdomain.Briefing{},
		&taskdomain.Task{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepository := authRepo.NewUserRepository(db)
	connectionRepository := connRepo.NewConnectionRepository(db)
	cursorRepository := connRepo.NewSyncCursorRepository(db)
	itemRepository := inboxRepo.NewItemRepository(db)
	deadlineRepository := inboxRepo.NewDeadlineRepository(db)
	briefingRepository := inboxRepo.NewBriefingRepository(db)
	taskRepository := taskRepo.NewTaskRepository(db)
	syncRepository := syncRepo.NewSyncRepository(db)

	// Initialize platform clients
	mailClient := platform.NewMailClient(cfg.GoogleClientID, cfg.GoogleClientSecret)
	calendarClient := platform.NewCalendarClient(cfg.GoogleClientID, cfg.GoogleClientSecret)
	chatClient := platform.NewChatClient(cfg.ChatClientID, cfg.ChatClientSecret, cfg.ChatAPIBaseURL)

	clients := map[conndomain.Platform]platform.Client{
		conndomain.PlatformMail:     mailClient,
		conndomain.PlatformChat:     chatClient,
		conndomain.PlatformCalendar: calendarClient,
	}
	redirectURIs := map[conndomain.Platform]string{
		conndomain.PlatformMail:     cfg.GoogleRedirectURI,
		conndomain.PlatformChat:     cfg.ChatRedirectURI,
		conndomain.PlatformCalendar: cfg.GoogleRedirectURI,
	}

	// Initialize AI completer
	completer, err := ai.NewCompleter(ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:  cfg.GeminiAPIKey,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	})
	if err != nil {
		log.Fatal("Failed to initialize AI provider:", err)
	}

	// Initialize use cases (dependency injection)
	authUc := authUsecase.NewAuthUsecase(userRepository, cfg)
	connUc := connUsecase.NewConnectionUsecase(connectionRepository, cursorRepository, clients, redirectURIs)
	syncUc := syncUsecase.NewSyncUsecase(connectionRepository, cursorRepository, syncRepository, connUc, clients)
	enrichUc := enrichUsecase.NewEnrichmentUsecase(itemRepository, completer)
	briefingUc := briefingUsecase.NewBriefingUsecase(briefingRepository, itemRepository, deadlineRepository, taskRepository, userRepository, completer)
	inboxUc := inboxUsecase.NewInboxUsecase(itemRepository, deadlineRepository)
	taskUc := taskUsecase.NewTaskUsecase(taskRepository)

	// Start background scheduler
	sched := scheduler.NewScheduler(scheduler.Config{
		MailInterval:     cfg.MailSyncInterval,
		ChatInterval:     cfg.ChatSyncInterval,
		CalendarInterval: cfg.CalendarSyncInterval,
		EnrichInterval:   cfg.EnrichInterval,
		EnrichBatchSize:  cfg.EnrichBatchSize,
		BriefingHourUTC:  cfg.BriefingHourUTC,
	}, syncUc, enrichUc, briefingUc, deadlineRepository)
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP handler
	inboxHandler := inboxDelivery.NewInboxHandler(inboxUc, briefingUc)
	handler := api.NewHandler(authUc, connUc, syncUc, taskUc, inboxHandler)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
