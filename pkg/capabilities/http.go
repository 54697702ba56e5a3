package capabilities

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultRetryAttempts = 3
	defaultRetryDelay    = 500 * time.Millisecond
)

// ClientConfig configures one capability's HTTP client. Zero values fall back
// to the defaults above.
type ClientConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	if c.RetryAttempts <= 0 {
		c.RetryAttempts = defaultRetryAttempts
	}

	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}

	return c
}

// httpClient posts JSON to one capability endpoint with a per-call timeout
// and a bounded retry loop. Server errors and transport errors are retried
// with exponentially growing delay; client errors are terminal.
type httpClient struct {
	config ClientConfig
	client *http.Client
}

func newHTTPClient(config ClientConfig) *httpClient {
	return &httpClient{
		config: config.withDefaults(),
		client: &http.Client{},
	}
}

func (c *httpClient) post(ctx context.Context, path string, request, response any) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	var lastErr error

	for attempt := 1; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 1 {
			delay := c.config.RetryDelay * time.Duration(1<<(attempt-2))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		body, err := c.do(ctx, path, payload)
		if err != nil {
			lastErr = err

			var statusErr *statusError
			if errors.As(err, &statusErr) && statusErr.code < http.StatusInternalServerError {
				return err
			}

			continue
		}

		err = json.Unmarshal(body, response)
		if err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}

		return nil
	}

	return fmt.Errorf("all %d attempts failed, last error: %w", c.config.RetryAttempts, lastErr)
}

func (c *httpClient) do(ctx context.Context, path string, payload []byte) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, body: string(body)}
	}

	return body, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("capability returned status %d: %s", e.code, e.body)
}

// LanguageClient talks to the language identification service.
type LanguageClient struct {
	*httpClient
}

func NewLanguageIdentifier(config ClientConfig) *LanguageClient {
	return &LanguageClient{httpClient: newHTTPClient(config)}
}

func (c *LanguageClient) IdentifyLanguage(ctx context.Context, text string) ([]Language, error) {
	request := map[string]string{"Text": text}

	var response struct {
		Languages []Language `json:"Languages"`
	}

	err := c.post(ctx, "/identify-language", request, &response)
	if err != nil {
		return nil, fmt.Errorf("identify language: %w", err)
	}

	return response.Languages, nil
}

// TranslationClient talks to the translation service.
type TranslationClient struct {
	*httpClient
}

func NewTranslator(config ClientConfig) *TranslationClient {
	return &TranslationClient{httpClient: newHTTPClient(config)}
}

func (c *TranslationClient) Translate(ctx context.Context, text, sourceLanguageCode, targetLanguageCode string) (*Translation, error) {
	request := map[string]string{
		"Text":               text,
		"SourceLanguageCode": sourceLanguageCode,
		"TargetLanguageCode": targetLanguageCode,
	}

	var response Translation

	err := c.post(ctx, "/translate", request, &response)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}

	return &response, nil
}

// SentimentClient talks to the sentiment analysis service.
type SentimentClient struct {
	*httpClient
}

func NewSentimentAnalyzer(config ClientConfig) *SentimentClient {
	return &SentimentClient{httpClient: newHTTPClient(config)}
}

func (c *SentimentClient) AnalyzeSentiment(ctx context.Context, text, languageCode string) (*Sentiment, error) {
	request := map[string]string{
		"Text":         text,
		"LanguageCode": languageCode,
	}

	var response Sentiment

	err := c.post(ctx, "/sentiment", request, &response)
	if err != nil {
		return nil, fmt.Errorf("analyze sentiment: %w", err)
	}

	return &response, nil
}
