package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/sentimento/sentimento/pkg/cmd"
	"github.com/sentimento/sentimento/pkg/config"
	"github.com/sentimento/sentimento/pkg/log"
	"github.com/sentimento/sentimento/pkg/otelhelper"
	"github.com/sentimento/sentimento/pkg/retention"
	"github.com/sentimento/sentimento/pkg/sentiment"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "sentimento-api",
		Usage:                 "Start sentiment analysis executions over HTTP",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Execution store URL (file path, postgres:// or redis://)",
				Value:   "./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Execution log transport (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:     "language-api-url",
				Usage:    "Base URL of the language identification service",
				Required: true,
				Sources:  cli.EnvVars("LANGUAGE_API_URL"),
			},
			&cli.StringFlag{
				Name:     "translation-api-url",
				Usage:    "Base URL of the translation service",
				Required: true,
				Sources:  cli.EnvVars("TRANSLATION_API_URL"),
			},
			&cli.StringFlag{
				Name:     "sentiment-api-url",
				Usage:    "Base URL of the sentiment analysis service",
				Required: true,
				Sources:  cli.EnvVars("SENTIMENT_API_URL"),
			},
			&cli.StringFlag{
				Name:    "target-language",
				Usage:   "Language code sentiment is computed in",
				Value:   sentiment.DefaultTargetLanguage,
				Sources: cli.EnvVars("TARGET_LANGUAGE"),
			},
			&cli.IntFlag{
				Name:    "max-concurrent",
				Usage:   "Maximum executions in flight before starts are rejected",
				Value:   256,
				Sources: cli.EnvVars("MAX_CONCURRENT_EXECUTIONS"),
			},
			&cli.DurationFlag{
				Name:    "retention-max-age",
				Usage:   "How long terminal executions are kept (0 keeps them forever)",
				Value:   7 * 24 * time.Hour,
				Sources: cli.EnvVars("RETENTION_MAX_AGE"),
			},
			&cli.StringFlag{
				Name:    "retention-schedule",
				Usage:   "Cron schedule of the retention job",
				Value:   "@hourly",
				Sources: cli.EnvVars("RETENTION_SCHEDULE"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			cfg := &config.Config{
				Port:                    command.Int("port"),
				LogLevel:                command.String("log-level"),
				DatabaseURL:             command.String("database-url"),
				EventBusType:            command.String("event-bus"),
				LanguageAPIURL:          command.String("language-api-url"),
				TranslationAPIURL:       command.String("translation-api-url"),
				SentimentAPIURL:         command.String("sentiment-api-url"),
				TargetLanguage:          command.String("target-language"),
				MaxConcurrentExecutions: command.Int("max-concurrent"),
				RetentionMaxAge:         command.Duration("retention-max-age"),
				RetentionSchedule:       command.String("retention-schedule"),
			}

			err := cfg.Validate()
			if err != nil {
				return err
			}

			logger.InfoContext(ctx, "Initializing Sentimento API")

			_, err = otelhelper.NewTracer(ctx, "sentimento-api")
			if err != nil {
				logger.WarnContext(ctx, "Tracing disabled", "error", err)
			}

			repository, err := cmd.NewRepository(ctx, logger, cfg.DatabaseURL)
			if err != nil {
				return err
			}

			defer func() {
				err := repository.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close execution store", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(cfg.EventBusType, logger)
			if err != nil {
				return err
			}

			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			janitor := retention.NewJanitor(repository, cfg.RetentionMaxAge, cfg.RetentionSchedule, logger)

			err = janitor.Start(ctx)
			if err != nil {
				return err
			}

			defer janitor.Stop()

			api, err := NewAPI(logger, cfg, repository, eventBus)
			if err != nil {
				return err
			}

			defer api.Drain()

			err = api.Start(cfg.Port)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
