package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stacks-payment-gateway/internal/core/ports"
	"stacks-payment-gateway/internal/core/ports/mocks"
	"stacks-payment-gateway/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Ping(context.Context) error { return s.err }
func (s stubChecker) Name() string               { return s.name }

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz_AllHealthy(t *testing.T) {
	router := SetupRouter(OpsDeps{
		HealthCheckers: []ports.HealthChecker{
			stubChecker{name: "postgres"},
			stubChecker{name: "redis"},
		},
	})

	rec := serve(router, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Dependencies["postgres"])
	assert.Equal(t, "healthy", body.Dependencies["redis"])
}

func TestHealthz_DependencyDown(t *testing.T) {
	router := SetupRouter(OpsDeps{
		HealthCheckers: []ports.HealthChecker{
			stubChecker{name: "postgres"},
			stubChecker{name: "redis", err: errors.New("connection refused")},
		},
	})

	rec := serve(router, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Dependencies["postgres"])
	assert.Equal(t, "unhealthy", body.Dependencies["redis"])
}

func TestStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	queue := mocks.NewMockDeliveryQueue(ctrl)
	executor := mocks.NewMockDeliveryExecutor(ctrl)
	queue.EXPECT().Depth(gomock.Any()).Return(int64(7), nil)
	queue.EXPECT().InFlightCount(gomock.Any()).Return(int64(1), nil)

	w := worker.New(queue, executor, time.Second, zerolog.New(io.Discard))
	router := SetupRouter(OpsDeps{Worker: w})

	rec := serve(router, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var status worker.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Running)
	assert.Equal(t, int64(7), status.QueueDepth)
	assert.Equal(t, int64(1), status.InFlightCount)
}

func TestStatus_QueueUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	queue := mocks.NewMockDeliveryQueue(ctrl)
	executor := mocks.NewMockDeliveryExecutor(ctrl)
	queue.EXPECT().Depth(gomock.Any()).Return(int64(0), errors.New("redis down"))

	w := worker.New(queue, executor, time.Second, zerolog.New(io.Discard))
	router := SetupRouter(OpsDeps{Worker: w})

	rec := serve(router, http.MethodGet, "/status")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
