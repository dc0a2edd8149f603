// File: agendia/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agendia/config"
	"agendia/handlers"
	"agendia/middleware"
	"agendia/models"
	"agendia/routes"
	"agendia/services/agent"
	"agendia/services/booking"
	"agendia/services/resilience"
	"agendia/services/schedule"
	"agendia/services/session"
	"agendia/services/upstream"
	"agendia/utils"

	"github.com/gin-gonic/gin"
)

// Advisory cache capacity: one entry per tenant, multi-tenant fleet.
const cacheMaxEntries = 500

const sessionLockThreshold = 500

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	utils.InitHistoryCache()

	loc, err := time.LoadLocation(config.AppConfig.Timezone)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to load timezone %q: %v", config.AppConfig.Timezone, err)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Resilience layer shared by all upstream reads.
	breaker := resilience.NewBreaker("upstream",
		config.AppConfig.BreakerThreshold,
		time.Duration(config.AppConfig.BreakerWindowMin)*time.Minute)
	gateway := resilience.NewGateway(config.APITimeout(), config.AppConfig.HTTPRetryAttempts, breaker)

	api := &upstream.DefaultAPI{
		Gateway:        gateway,
		InformacionURL: config.AppConfig.InformacionURL,
		AgendarURL:     config.AppConfig.AgendarURL,
		CalendarioURL:  config.AppConfig.CalendarioURL,
		FAQsURL:        config.AppConfig.PreguntasURL,
	}

	// One cache per data kind; the agent-prompt TTL is independent of the
	// schedule TTL so slot validation stays fresh.
	scheduleTTL := time.Duration(config.AppConfig.ScheduleCacheTTLMin) * time.Minute
	contextTTL := time.Duration(config.AppConfig.ContextCacheTTLMin) * time.Minute
	agentTTL := time.Duration(config.AppConfig.AgentCacheTTLMin) * time.Minute

	scheduleCache := resilience.NewCache[models.WeeklySchedule]("schedule", scheduleTTL, cacheMaxEntries)
	contextCache := resilience.NewCache[string]("contexto", contextTTL, cacheMaxEntries)
	faqCache := resilience.NewCache[string]("faqs", contextTTL, cacheMaxEntries)
	agentCache := resilience.NewCache[string]("agent", agentTTL, cacheMaxEntries)

	// services.
	validatorService := &schedule.DefaultValidator{
		API:      api,
		Cache:    scheduleCache,
		Location: loc,
	}

	coordinatorService := &booking.DefaultCoordinator{
		Validator: validatorService,
		API:       api,
		Location:  loc,
	}

	promptBuilder := &agent.PromptBuilder{
		API:          api,
		Schedules:    validatorService,
		Location:     loc,
		ContextCache: contextCache,
		FAQCache:     faqCache,
	}

	generator, err := agent.NewGeminiGenerator(config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize gemini client: %v", err)
	}

	historyStore := agent.NewRedisHistoryStore(
		utils.GetHistoryCacheClient(),
		time.Duration(config.AppConfig.HistoryTTLMin)*time.Minute,
	)

	agentService := &agent.DefaultService{
		Generator:  generator,
		Prompts:    promptBuilder,
		History:    historyStore,
		Serializer: session.NewSerializer(sessionLockThreshold),
		Tools: &agent.Toolset{
			Recommender: validatorService,
			Bookings:    coordinatorService,
		},
		AgentCache: agentCache,
	}

	chatHandler := handlers.NewChatHandler(agentService)
	healthHandler := handlers.NewHealthHandler(breaker)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		ChatHandler:   chatHandler.HandleChat,
		HealthHandler: healthHandler.HandleHealth,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8003"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
