package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/logistics-assistant/internal/rag"
	"github.com/upb/logistics-assistant/services"
)

func readyService() *MockChatService {
	svc := new(MockChatService)
	svc.On("KnowledgeBaseStats").Return(&rag.Stats{
		ID:        "kb-1",
		Documents: 12,
		Dimension: 384,
		BuiltAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil)
	svc.On("Ready").Return(true).Maybe()
	return svc
}

func notReadyService() *MockChatService {
	svc := new(MockChatService)
	svc.On("KnowledgeBaseStats").Return(nil, services.ErrKnowledgeBaseNotReady)
	svc.On("Ready").Return(false).Maybe()
	return svc
}

func TestHandleRoot(t *testing.T) {
	logger := zap.NewNop()

	t.Run("online with knowledge base", func(t *testing.T) {
		handler := NewHealthHandler(nil, nil, readyService(), logger)

		w := httptest.NewRecorder()
		handler.HandleRoot(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"status": "online",
			"message": "Logistics API is ready.",
			"knowledge_base": {"id": "kb-1", "documents": 12, "dimension": 384, "built_at": "2026-01-02T03:04:05Z"}
		}`, w.Body.String())
	})

	t.Run("offline before initialization", func(t *testing.T) {
		handler := NewHealthHandler(nil, nil, notReadyService(), logger)

		w := httptest.NewRecorder()
		handler.HandleRoot(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var response StatusResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "offline", response.Status)
		assert.Nil(t, response.KnowledgeBase)
	})
}

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler(nil, nil, notReadyService(), zap.NewNop())

	w := httptest.NewRecorder()
	handler.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "healthy", response.Status)
	assert.NotEmpty(t, response.Timestamp)
}

func TestHandleReadiness(t *testing.T) {
	logger := zap.NewNop()

	readiness := func(t *testing.T, h *HealthHandler) (int, HealthResponse) {
		t.Helper()
		w := httptest.NewRecorder()
		h.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		var response HealthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		return w.Code, response
	}

	t.Run("healthy when all dependencies are available", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		code, response := readiness(t, NewHealthHandler(db, stubProvider{available: true}, readyService(), logger))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, map[string]string{
			"database":       "healthy",
			"provider":       "healthy",
			"knowledge_base": "ready",
		}, response.Checks)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unhealthy when database ping fails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing().WillReturnError(sql.ErrConnDone)

		code, response := readiness(t, NewHealthHandler(db, stubProvider{available: true}, readyService(), logger))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Equal(t, "unhealthy", response.Checks["database"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unhealthy when database query fails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnError(sql.ErrConnDone)

		code, response := readiness(t, NewHealthHandler(db, stubProvider{available: true}, readyService(), logger))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", response.Checks["database"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unhealthy when ollama is down", func(t *testing.T) {
		code, response := readiness(t, NewHealthHandler(nil, stubProvider{available: false}, readyService(), logger))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "healthy", response.Checks["database"])
		assert.Equal(t, "unhealthy", response.Checks["provider"])
	})

	t.Run("unhealthy before the knowledge base is built", func(t *testing.T) {
		code, response := readiness(t, NewHealthHandler(nil, nil, notReadyService(), logger))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not_configured", response.Checks["provider"])
		assert.Equal(t, "not_ready", response.Checks["knowledge_base"])
	})
}
