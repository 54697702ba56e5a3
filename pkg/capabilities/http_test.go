package capabilities

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageClient_IdentifyLanguage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/identify-language", r.URL.Path)

		var request map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "I love this", request["Text"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Languages": [{"LanguageCode": "en", "Score": 0.98}, {"LanguageCode": "es", "Score": 0.01}]}`))
	}))
	defer server.Close()

	client := NewLanguageIdentifier(ClientConfig{BaseURL: server.URL})

	languages, err := client.IdentifyLanguage(context.Background(), "I love this")
	require.NoError(t, err)
	require.Len(t, languages, 2)
	assert.Equal(t, "en", languages[0].LanguageCode)
	assert.InDelta(t, 0.98, languages[0].Score, 0.0001)
}

func TestTranslationClient_Translate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "en", request["SourceLanguageCode"])
		assert.Equal(t, "pt", request["TargetLanguageCode"])

		_, _ = w.Write([]byte(`{"TranslatedText": "Eu amo isso", "TargetLanguageCode": "pt"}`))
	}))
	defer server.Close()

	client := NewTranslator(ClientConfig{BaseURL: server.URL})

	translation, err := client.Translate(context.Background(), "I love this", "en", "pt")
	require.NoError(t, err)
	assert.Equal(t, "Eu amo isso", translation.TranslatedText)
	assert.Equal(t, "pt", translation.TargetLanguageCode)
}

func TestSentimentClient_AnalyzeSentiment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "pt", request["LanguageCode"])

		_, _ = w.Write([]byte(`{"Sentiment": "POSITIVE", "SentimentScore": {"Positive": 0.97, "Negative": 0.01, "Neutral": 0.01, "Mixed": 0.01}}`))
	}))
	defer server.Close()

	client := NewSentimentAnalyzer(ClientConfig{BaseURL: server.URL})

	sentiment, err := client.AnalyzeSentiment(context.Background(), "Eu amo isso", "pt")
	require.NoError(t, err)
	assert.Equal(t, "POSITIVE", sentiment.Sentiment)
	assert.InDelta(t, 0.97, sentiment.SentimentScore.Positive, 0.0001)
}

func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		_, _ = w.Write([]byte(`{"Languages": [{"LanguageCode": "pt", "Score": 0.99}]}`))
	}))
	defer server.Close()

	client := NewLanguageIdentifier(ClientConfig{
		BaseURL:       server.URL,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	})

	languages, err := client.IdentifyLanguage(context.Background(), "Eu amo isso")
	require.NoError(t, err)
	require.Len(t, languages, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewLanguageIdentifier(ClientConfig{
		BaseURL:       server.URL,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	})

	_, err := client.IdentifyLanguage(context.Background(), "")
	require.Error(t, err)
	assert.ErrorContains(t, err, "status 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPClient_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewLanguageIdentifier(ClientConfig{
		BaseURL:       server.URL,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	})

	_, err := client.IdentifyLanguage(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorContains(t, err, "all 2 attempts failed")
	assert.Equal(t, int32(2), calls.Load())
}
