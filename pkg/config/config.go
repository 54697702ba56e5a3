// Package config holds the runtime configuration of the service, validated
// once at startup so handlers and the engine never see a half-configured
// deployment.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is everything the API process needs to run. Field values come from
// CLI flags and environment variables; the struct is validated before any
// component is constructed.
type Config struct {
	Port     int    `validate:"required,gt=0,lte=65535"`
	LogLevel string `validate:"required,oneof=debug info warn error"`

	DatabaseURL  string `validate:"required"`
	EventBusType string `validate:"required,oneof=gochannel kafka"`

	LanguageAPIURL    string `validate:"required,url"`
	TranslationAPIURL string `validate:"required,url"`
	SentimentAPIURL   string `validate:"required,url"`

	TargetLanguage string `validate:"required,len=2"`

	MaxConcurrentExecutions int `validate:"gte=0"`

	RetentionMaxAge   time.Duration `validate:"gte=0"`
	RetentionSchedule string        `validate:"required"`
}

// Validate checks the configuration and returns a single descriptive error
// when any field is unusable.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	err := validate.Struct(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}
