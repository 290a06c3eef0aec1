package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/piicrypt/internal/config"
	"github.com/allisson/piicrypt/internal/database"
	encryptionDomain "github.com/allisson/piicrypt/internal/encryption/domain"
	jobDomain "github.com/allisson/piicrypt/internal/job/domain"
	jobRepository "github.com/allisson/piicrypt/internal/job/repository"
	jobUsecase "github.com/allisson/piicrypt/internal/job/usecase"
	"github.com/allisson/piicrypt/internal/metrics"
)

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type staticReporter struct {
	progress encryptionDomain.Progress
}

func (r staticReporter) Snapshot() encryptionDomain.Progress {
	return r.progress
}

// failingQueue answers every call with err.
type failingQueue struct {
	jobUsecase.JobQueue
	err error
}

func (q failingQueue) Stats(ctx context.Context) (map[jobDomain.Status]int, error) {
	return nil, q.err
}

func (q failingQueue) List(ctx context.Context, status jobDomain.Status, offset, limit int) ([]*jobDomain.Job, error) {
	return nil, q.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMemoryQueue(t *testing.T, batches int) jobUsecase.JobQueue {
	t.Helper()
	queue := jobUsecase.NewJobQueue(jobUsecase.DefaultConfig(), database.NewMemoryTxManager(), jobRepository.NewMemoryJobRepository())

	params := make([]jobDomain.NewJobParams, batches)
	for i := range params {
		params[i] = jobDomain.NewJobParams{BatchIndex: i, Payload: json.RawMessage(`{"batch":[],"batchIndex":0}`)}
	}
	if batches > 0 {
		_, err := queue.EnqueueBulk(context.Background(), params)
		require.NoError(t, err)
	}
	return queue
}

// createTestServer creates a server with the routes wired against queue.
func createTestServer(queue jobUsecase.JobQueue, reporter ProgressReporter) *Server {
	server := NewServer(nil, "localhost", 0, discardLogger())
	server.SetupRouter(&config.Config{MetricsNamespace: "test"}, queue, reporter, nil)
	return server
}

func serve(server *Server, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestHealthHandler(t *testing.T) {
	server := createTestServer(nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	server.healthHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestReadinessHandler(t *testing.T) {
	t.Run("ready with memory queue", func(t *testing.T) {
		w := serve(createTestServer(newMemoryQueue(t, 0), nil), "/ready")

		assert.Equal(t, http.StatusOK, w.Code)
		response := decode(t, w)
		assert.Equal(t, "ready", response["status"])
		components := response["components"].(map[string]any)
		assert.Equal(t, "ok", components["queue"])
		assert.NotContains(t, components, "database")
	})

	t.Run("not ready without queue", func(t *testing.T) {
		w := serve(createTestServer(nil, nil), "/ready")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "not_ready", decode(t, w)["status"])
	})

	t.Run("not ready when database ping fails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		server := NewServer(db, "localhost", 0, discardLogger())
		server.SetupRouter(&config.Config{}, newMemoryQueue(t, 0), nil, nil)
		w := serve(server, "/ready")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		components := decode(t, w)["components"].(map[string]any)
		assert.Equal(t, "error", components["database"])
		assert.Equal(t, "ok", components["queue"])
	})
}

func TestProgressHandler(t *testing.T) {
	t.Run("returns snapshot", func(t *testing.T) {
		reporter := staticReporter{progress: encryptionDomain.Progress{
			Total: 200, Completed: 150, Failed: 2, Pending: 48, FailedBatches: []int{3, 9},
		}}
		w := serve(createTestServer(newMemoryQueue(t, 0), reporter), "/v1/progress")

		assert.Equal(t, http.StatusOK, w.Code)
		response := decode(t, w)
		assert.EqualValues(t, 200, response["total"])
		assert.EqualValues(t, 150, response["completed"])
		assert.Equal(t, []any{float64(3), float64(9)}, response["failed_batches"])
	})

	t.Run("no run tracked", func(t *testing.T) {
		w := serve(createTestServer(newMemoryQueue(t, 0), nil), "/v1/progress")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestQueueStatsHandler(t *testing.T) {
	t.Run("counts per status", func(t *testing.T) {
		w := serve(createTestServer(newMemoryQueue(t, 3), nil), "/v1/queue/stats")

		assert.Equal(t, http.StatusOK, w.Code)
		response := decode(t, w)
		assert.EqualValues(t, 3, response["total"])
		statuses := response["statuses"].(map[string]any)
		assert.EqualValues(t, 3, statuses["waiting"])
		assert.EqualValues(t, 0, statuses["completed"])
	})

	t.Run("queue error", func(t *testing.T) {
		w := serve(createTestServer(failingQueue{err: errors.New("db down")}, nil), "/v1/queue/stats")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestListJobsHandler(t *testing.T) {
	queue := newMemoryQueue(t, 5)
	leased, err := queue.Lease(context.Background(), "worker-1", 0)
	require.NoError(t, err)
	server := createTestServer(queue, nil)

	t.Run("all jobs", func(t *testing.T) {
		w := serve(server, "/v1/jobs")

		assert.Equal(t, http.StatusOK, w.Code)
		response := decode(t, w)
		assert.Len(t, response["data"], 5)
		assert.EqualValues(t, 50, response["limit"])
		first := response["data"].([]any)[0].(map[string]any)
		assert.NotContains(t, first, "payload")
	})

	t.Run("filtered by status", func(t *testing.T) {
		w := serve(server, "/v1/jobs?status=active")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].([]any)
		require.Len(t, data, 1)
		job := data[0].(map[string]any)
		assert.Equal(t, leased.ID.String(), job["id"])
		assert.Equal(t, "worker-1", job["worker_id"])
		_, err := uuid.Parse(job["id"].(string))
		assert.NoError(t, err)
	})

	t.Run("paginated", func(t *testing.T) {
		w := serve(server, "/v1/jobs?status=waiting&offset=2&limit=10")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["data"], 2)
	})

	t.Run("unknown status", func(t *testing.T) {
		w := serve(server, "/v1/jobs?status=paused")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("bad pagination", func(t *testing.T) {
		w := serve(server, "/v1/jobs?limit=0")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRouter_RequestIDHeader(t *testing.T) {
	w := serve(createTestServer(nil, nil), "/health")

	requestID := w.Header().Get("X-Request-Id")
	parsed, err := uuid.Parse(requestID)
	require.NoError(t, err, "X-Request-Id should be a valid UUID")
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestRouter_NotFoundEndpoint(t *testing.T) {
	w := serve(createTestServer(nil, nil), "/nonexistent")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestRecoveryMiddleware tests Gin's built-in recovery middleware.
func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(discardLogger()))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServer_ShutdownGracefully(t *testing.T) {
	server := createTestServer(newMemoryQueue(t, 0), nil)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(context.Background())
	}()

	time.Sleep(100 * time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(shutdownCtx))
	assert.NoError(t, <-errChan)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	provider, err := metrics.NewProvider("test_app")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	server := NewServer(nil, "localhost", 0, discardLogger())
	server.SetupRouter(&config.Config{MetricsNamespace: "test_app"}, newMemoryQueue(t, 0), nil, provider)

	assert.Equal(t, http.StatusOK, serve(server, "/health").Code)
	assert.Equal(t, http.StatusNotFound, serve(server, "/metrics").Code, "admin server does not expose /metrics")

	metricsServer := NewMetricsServer("localhost", 0, discardLogger(), provider)
	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
