package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentimento/sentimento/pkg/document"
	"github.com/sentimento/sentimento/pkg/engine"
	"github.com/sentimento/sentimento/pkg/persistence"
)

type fakeStarter struct {
	lastInput document.Document
	handle    *engine.Handle
	err       error
}

func (f *fakeStarter) Start(_ context.Context, input document.Document) (*engine.Handle, error) {
	f.lastInput = input

	if f.err != nil {
		return nil, f.err
	}

	return f.handle, nil
}

type fakeRepository struct {
	records map[string]*persistence.ExecutionRecord
}

func (f *fakeRepository) Save(_ context.Context, record *persistence.ExecutionRecord) error {
	f.records[record.ID] = record

	return nil
}

func (f *fakeRepository) GetByID(_ context.Context, id string) (*persistence.ExecutionRecord, error) {
	record, ok := f.records[id]
	if !ok {
		return nil, &persistence.ExecutionError{Op: "get", ExecutionID: id, Err: persistence.ErrExecutionNotFound}
	}

	return record, nil
}

func (f *fakeRepository) PruneTerminalBefore(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func (f *fakeRepository) HealthCheck(_ context.Context) error { return nil }

func (f *fakeRepository) Close(_ context.Context) error { return nil }

func setupTestApp(t *testing.T, starter ExecutionStarter, repository persistence.ExecutionRepository) *fiber.App {
	t.Helper()

	handlers, err := NewHandlers(starter, repository, slog.New(slog.NewTextHandler(testWriter{t}, nil)))
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/sentiment", handlers.StartSentiment)
	app.Get("/executions/:id", handlers.GetExecution)

	return app
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSuffix(string(p), "\n"))

	return len(p), nil
}

func postSentiment(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/sentiment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer func() {
		require.NoError(t, resp.Body.Close())
	}()

	var out T

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func TestStartSentiment_AcceptsValidRequest(t *testing.T) {
	started := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	starter := &fakeStarter{handle: &engine.Handle{ID: "exec-123", StartedAt: started}}
	app := setupTestApp(t, starter, &fakeRepository{records: map[string]*persistence.ExecutionRecord{}})

	resp := postSentiment(t, app, `{"txt": "I love this"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[StartSuccessBody](t, resp)
	assert.NotEmpty(t, body.RequestID)
	assert.Equal(t, "exec-123", body.ExecutionARN)
	assert.Equal(t, "2025-03-14T09:26:53Z", body.StartDate)

	txt, err := starter.lastInput.String("txt")
	require.NoError(t, err)
	assert.Equal(t, "I love this", txt)
}

func TestStartSentiment_MissingTxtField(t *testing.T) {
	starter := &fakeStarter{handle: &engine.Handle{ID: "exec-123"}}
	app := setupTestApp(t, starter, &fakeRepository{records: map[string]*persistence.ExecutionRecord{}})

	resp := postSentiment(t, app, `{"text": "I love this"}`)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody[StartErrorBody](t, resp)
	assert.NotEmpty(t, body.RequestID)
	assert.Contains(t, body.Message, "txt")
	assert.Nil(t, starter.lastInput)
}

func TestStartSentiment_RejectsNonStringTxt(t *testing.T) {
	starter := &fakeStarter{handle: &engine.Handle{ID: "exec-123"}}
	app := setupTestApp(t, starter, &fakeRepository{records: map[string]*persistence.ExecutionRecord{}})

	resp := postSentiment(t, app, `{"txt": 42}`)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody[StartErrorBody](t, resp)
	assert.Contains(t, body.Message, "txt")
	assert.Nil(t, starter.lastInput)
}

func TestStartSentiment_RejectsExtraFields(t *testing.T) {
	starter := &fakeStarter{handle: &engine.Handle{ID: "exec-123"}}
	app := setupTestApp(t, starter, &fakeRepository{records: map[string]*persistence.ExecutionRecord{}})

	resp := postSentiment(t, app, `{"txt": "ok", "lang": "en"}`)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Nil(t, starter.lastInput)
}

func TestStartSentiment_RejectsInvalidJSON(t *testing.T) {
	starter := &fakeStarter{handle: &engine.Handle{ID: "exec-123"}}
	app := setupTestApp(t, starter, &fakeRepository{records: map[string]*persistence.ExecutionRecord{}})

	resp := postSentiment(t, app, `{"txt": `)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Nil(t, starter.lastInput)
}

func TestStartSentiment_EngineRefusesStart(t *testing.T) {
	starter := &fakeStarter{err: engine.ErrEngineSaturated}
	app := setupTestApp(t, starter, &fakeRepository{records: map[string]*persistence.ExecutionRecord{}})

	resp := postSentiment(t, app, `{"txt": "I love this"}`)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody[StartErrorBody](t, resp)
	assert.NotEmpty(t, body.RequestID)
	assert.Contains(t, body.Message, "failed to start execution")
}

func TestGetExecution_Found(t *testing.T) {
	finished := time.Date(2025, 3, 14, 9, 27, 0, 0, time.UTC)
	repository := &fakeRepository{records: map[string]*persistence.ExecutionRecord{
		"exec-1": {
			ID:         "exec-1",
			Status:     persistence.StatusSucceeded,
			StartedAt:  time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
			FinishedAt: &finished,
			Document:   map[string]any{"Sentiment": "POSITIVE"},
		},
	}}
	app := setupTestApp(t, &fakeStarter{}, repository)

	req := httptest.NewRequest(http.MethodGet, "/executions/exec-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[ExecutionBody](t, resp)
	assert.Equal(t, "exec-1", body.ID)
	assert.Equal(t, persistence.StatusSucceeded, body.Status)
	assert.Equal(t, "POSITIVE", body.Result["Sentiment"])
}

func TestGetExecution_ResultOnlyWhenSucceeded(t *testing.T) {
	repository := &fakeRepository{records: map[string]*persistence.ExecutionRecord{
		"exec-2": {
			ID:        "exec-2",
			Status:    persistence.StatusFailed,
			Error:     "capability call failed",
			StartedAt: time.Now().UTC(),
			Document:  map[string]any{"txt": "partial"},
		},
	}}
	app := setupTestApp(t, &fakeStarter{}, repository)

	req := httptest.NewRequest(http.MethodGet, "/executions/exec-2", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[ExecutionBody](t, resp)
	assert.Equal(t, persistence.StatusFailed, body.Status)
	assert.Equal(t, "capability call failed", body.Error)
	assert.Nil(t, body.Result)
}

func TestGetExecution_NotFound(t *testing.T) {
	app := setupTestApp(t, &fakeStarter{}, &fakeRepository{records: map[string]*persistence.ExecutionRecord{}})

	req := httptest.NewRequest(http.MethodGet, "/executions/nope", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, resp.Body.Close())
	}()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetExecution_RepositoryFailure(t *testing.T) {
	app := setupTestApp(t, &fakeStarter{}, failingRepository{})

	req := httptest.NewRequest(http.MethodGet, "/executions/exec-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, resp.Body.Close())
	}()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

type failingRepository struct{}

func (failingRepository) Save(_ context.Context, _ *persistence.ExecutionRecord) error { return nil }

func (failingRepository) GetByID(_ context.Context, _ string) (*persistence.ExecutionRecord, error) {
	return nil, errors.New("connection reset")
}

func (failingRepository) PruneTerminalBefore(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func (failingRepository) HealthCheck(_ context.Context) error { return nil }

func (failingRepository) Close(_ context.Context) error { return nil }
