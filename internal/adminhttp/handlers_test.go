package adminhttp_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cuemby/reflex-dispatch/internal/adminhttp"
	"github.com/cuemby/reflex-dispatch/internal/event"
	"github.com/cuemby/reflex-dispatch/internal/store"
	"github.com/cuemby/reflex-dispatch/internal/store/storemock"
)

func newTestServer(t *testing.T, s store.Store) (*adminhttp.Server, http.Handler) {
	t.Helper()
	srv := adminhttp.NewServer(s, healthcheck.NewHandler(), nil, nil, adminhttp.Config{RateLimitRPS: 1000})
	return srv, srv.Router(nil)
}

func TestDLQListHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := storemock.NewMockStore(ctrl)

	entries := []store.DLQEntry{
		{
			Event:     event.New(&event.Lifecycle{Action: "error"}, "svc", event.WithID("e1")),
			Error:     "boom",
			Attempts:  3,
			CreatedAt: time.Now(),
		},
	}
	mockStore.EXPECT().DLQList(gomock.Any(), 100).Return(entries, nil)

	_, router := newTestServer(t, mockStore)

	req := httptest.NewRequest(http.MethodGet, "/dlq/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "e1")
}

func TestDLQListHandler_InvalidLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := storemock.NewMockStore(ctrl)

	_, router := newTestServer(t, mockStore)

	req := httptest.NewRequest(http.MethodGet, "/dlq/?limit=-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDLQRetryHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := storemock.NewMockStore(ctrl)
	mockStore.EXPECT().DLQRetry(gomock.Any(), "e1").Return(true, nil)

	_, router := newTestServer(t, mockStore)

	req := httptest.NewRequest(http.MethodPost, "/dlq/e1/retry", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"moved":true`)
}

func TestDLQRetryHandler_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := storemock.NewMockStore(ctrl)
	mockStore.EXPECT().DLQRetry(gomock.Any(), "missing").Return(false, nil)

	_, router := newTestServer(t, mockStore)

	req := httptest.NewRequest(http.MethodPost, "/dlq/missing/retry", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDLQRetryAllHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := storemock.NewMockStore(ctrl)
	mockStore.EXPECT().DLQRetryAll(gomock.Any()).Return(int64(3), nil)

	_, router := newTestServer(t, mockStore)

	req := httptest.NewRequest(http.MethodPost, "/dlq/retry-all", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"retried":3`)
}

func TestReplayHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := storemock.NewMockStore(ctrl)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mockStore.EXPECT().
		Replay(gomock.Any(), start, time.Time{}, []string(nil)).
		Return([]event.Event{event.New(&event.Lifecycle{Action: "started"}, "svc", event.WithID("e2"))}, nil)

	_, router := newTestServer(t, mockStore)

	req := httptest.NewRequest(http.MethodGet, "/replay/?start="+start.Format(time.RFC3339), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "e2")
}

func TestReplayHandler_BadStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := storemock.NewMockStore(ctrl)

	_, router := newTestServer(t, mockStore)

	req := httptest.NewRequest(http.MethodGet, "/replay/?start=not-a-time", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := storemock.NewMockStore(ctrl)

	_, router := newTestServer(t, mockStore)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
