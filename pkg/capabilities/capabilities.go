// Package capabilities holds the typed contracts of the three external text
// analysis services and their HTTP clients. The services are opaque: only the
// request and response shapes below are known.
package capabilities

import "context"

// Language is one entry of the language identification response. The service
// returns entries ordered by Score, descending.
type Language struct {
	LanguageCode string  `json:"LanguageCode"`
	Score        float64 `json:"Score"`
}

// Translation is the translation service response.
type Translation struct {
	TranslatedText     string `json:"TranslatedText"`
	TargetLanguageCode string `json:"TargetLanguageCode"`
}

// SentimentScore carries the per-class confidence of a sentiment analysis.
type SentimentScore struct {
	Positive float64 `json:"Positive"`
	Negative float64 `json:"Negative"`
	Neutral  float64 `json:"Neutral"`
	Mixed    float64 `json:"Mixed"`
}

// Sentiment is the sentiment analysis response.
type Sentiment struct {
	Sentiment      string         `json:"Sentiment"`
	SentimentScore SentimentScore `json:"SentimentScore"`
}

type LanguageIdentifier interface {
	IdentifyLanguage(ctx context.Context, text string) ([]Language, error)
}

type Translator interface {
	Translate(ctx context.Context, text, sourceLanguageCode, targetLanguageCode string) (*Translation, error)
}

type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, text, languageCode string) (*Sentiment, error)
}
