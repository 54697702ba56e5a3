// Package main provides the Sentimento API server implementation.
package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/sentimento/sentimento/pkg/capabilities"
	"github.com/sentimento/sentimento/pkg/config"
	"github.com/sentimento/sentimento/pkg/engine"
	"github.com/sentimento/sentimento/pkg/eventbus"
	"github.com/sentimento/sentimento/pkg/persistence"
	"github.com/sentimento/sentimento/pkg/sentiment"
	"github.com/sentimento/sentimento/pkg/web"
)

type API struct {
	logger     *slog.Logger
	repository persistence.ExecutionRepository
	engine     *engine.Engine
}

func NewAPI(
	logger *slog.Logger,
	cfg *config.Config,
	repository persistence.ExecutionRepository,
	eventBus eventbus.EventBus,
) (*API, error) {
	caps := sentiment.Capabilities{
		Identifier: capabilities.NewLanguageIdentifier(capabilities.ClientConfig{BaseURL: cfg.LanguageAPIURL}),
		Translator: capabilities.NewTranslator(capabilities.ClientConfig{BaseURL: cfg.TranslationAPIURL}),
		Analyzer:   capabilities.NewSentimentAnalyzer(capabilities.ClientConfig{BaseURL: cfg.SentimentAPIURL}),
	}

	definition, err := sentiment.NewDefinition(caps, cfg.TargetLanguage)
	if err != nil {
		return nil, fmt.Errorf("failed to build workflow definition: %w", err)
	}

	return &API{
		logger:     logger,
		repository: repository,
		engine:     engine.NewEngine(definition, repository, eventBus, logger, cfg.MaxConcurrentExecutions),
	}, nil
}

func (a *API) App() (*fiber.App, error) {
	handlers, err := web.NewHandlers(a.engine, a.repository, a.logger)
	if err != nil {
		return nil, err
	}

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Sentimento API")
	})

	app.Post("/sentiment", handlers.StartSentiment)
	app.Get("/executions/:id", handlers.GetExecution)

	app.Get("/health", handlers.HealthCheck)

	return app, nil
}

func (a *API) Start(port int) error {
	app, err := a.App()
	if err != nil {
		return err
	}

	return app.Listen(":" + strconv.Itoa(port))
}

// Drain waits for in-flight executions before shutdown.
func (a *API) Drain() {
	a.engine.Drain()
}
