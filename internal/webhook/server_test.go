package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danutirta/childguard_bot/internal/model"
	"github.com/danutirta/childguard_bot/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubChildRepo struct {
	byDevice map[string]*model.Child
	err      error
}

func (r *stubChildRepo) Create(_ context.Context, _ *model.Child) error { return nil }

func (r *stubChildRepo) GetByID(_ context.Context, _ int64) (*model.Child, error) {
	return nil, nil
}

func (r *stubChildRepo) GetByDeviceID(_ context.Context, deviceID string) (*model.Child, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.byDevice[deviceID], nil
}

func (r *stubChildRepo) Count(_ context.Context) (int, error) {
	return len(r.byDevice), nil
}

type stubSessionRepo struct {
	active int
}

func (r *stubSessionRepo) Start(_ context.Context, _ *model.MonitoringSession) error { return nil }

func (r *stubSessionRepo) GetActive(_ context.Context) ([]*model.MonitoringSession, error) {
	return nil, nil
}

func (r *stubSessionRepo) UpdateFlags(_ context.Context, _ int64, _, _ bool) error { return nil }

func (r *stubSessionRepo) End(_ context.Context, _ int64, _ time.Time) error { return nil }

func (r *stubSessionRepo) EndAllForGuardian(_ context.Context, _ int64) error { return nil }

func (r *stubSessionRepo) CountActive(_ context.Context) (int, error) { return r.active, nil }

type stubDispatcher struct {
	intents   []model.Intent
	delivered int
	err       error
}

func (d *stubDispatcher) Dispatch(_ context.Context, intent model.Intent) (int, error) {
	d.intents = append(d.intents, intent)
	if d.err != nil {
		return 0, d.err
	}
	return d.delivered, nil
}

func newTestServer(children *stubChildRepo, dispatcher *stubDispatcher) *Server {
	return NewServer(children, &stubSessionRepo{active: 2}, dispatcher, zap.NewNop())
}

func doPost(t *testing.T, srv *Server, path, body string, mutate func(*http.Request)) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestHandleMonitor_SubscriptionHandshake(t *testing.T) {
	srv := newTestServer(&stubChildRepo{}, &stubDispatcher{})

	rec, resp := doPost(t, srv, "/monitor", `{"m2m:sgn": {"m2m:vrq": true}}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "subscription_verified", resp["status"])
}

func TestHandleMonitor_FallAlertDelivered(t *testing.T) {
	children := &stubChildRepo{byDevice: map[string]*model.Child{
		"nino_001": {ID: 1, Name: "Nino", DeviceID: "nino_001"},
	}}
	dispatcher := &stubDispatcher{delivered: 2}
	srv := newTestServer(children, dispatcher)

	body := `{"m2m:cin": {"con": "{\"kondisi\": \"terjatuh\", \"device_id\": \"nino_001\"}"}}`
	rec, resp := doPost(t, srv, "/monitor", body, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alert_sent", resp["status"])
	assert.Equal(t, float64(2), resp["recipients"])

	require.Len(t, dispatcher.intents, 1)
	intent := dispatcher.intents[0]
	assert.Equal(t, model.IntentFallAlert, intent.Kind)
	assert.Equal(t, "Nino", intent.Child.Name)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", intent.ID.String())
}

func TestHandleMonitor_NoTeachers(t *testing.T) {
	children := &stubChildRepo{byDevice: map[string]*model.Child{
		"nino_001": {ID: 1, Name: "Nino", DeviceID: "nino_001"},
	}}
	srv := newTestServer(children, &stubDispatcher{err: notify.ErrNoAudience})

	rec, resp := doPost(t, srv, "/monitor", `{"kondisi": "terjatuh", "device_id": "nino_001"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no_teachers_found", resp["status"])
}

func TestHandleMonitor_UnknownDevice(t *testing.T) {
	srv := newTestServer(&stubChildRepo{}, &stubDispatcher{})

	rec, resp := doPost(t, srv, "/monitor", `{"kondisi": "terjatuh", "device_id": "ghost"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "child_not_found", resp["status"])
	assert.Equal(t, "ghost", resp["device_id"])
}

func TestHandleMonitor_MissingDeviceID(t *testing.T) {
	srv := newTestServer(&stubChildRepo{}, &stubDispatcher{})

	_, resp := doPost(t, srv, "/monitor", `{"kondisi": "terjatuh"}`, nil)
	assert.Equal(t, "child_not_found", resp["status"])
}

func TestHandleMonitor_ConditionIgnored(t *testing.T) {
	dispatcher := &stubDispatcher{}
	srv := newTestServer(&stubChildRepo{}, dispatcher)

	rec, resp := doPost(t, srv, "/monitor", `{"kondisi": "normal", "device_id": "nino_001"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "condition_ignored", resp["status"])
	assert.Equal(t, "normal", resp["condition"])
	assert.Empty(t, dispatcher.intents)
}

func TestHandleMonitor_PayloadErrors(t *testing.T) {
	srv := newTestServer(&stubChildRepo{}, &stubDispatcher{})

	rec, resp := doPost(t, srv, "/monitor", `{"kondisi": `, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "invalid_json", resp["status"])

	rec, resp = doPost(t, srv, "/monitor", `{"temperature": 36.5}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unrecognized_format", resp["status"])
}

func TestHandleMonitor_ExplicitDeviceIDOverridesBody(t *testing.T) {
	children := &stubChildRepo{byDevice: map[string]*model.Child{
		"sari_002": {ID: 2, Name: "Sari", DeviceID: "sari_002"},
	}}
	dispatcher := &stubDispatcher{delivered: 1}
	srv := newTestServer(children, dispatcher)

	t.Run("path segment", func(t *testing.T) {
		dispatcher.intents = nil
		_, resp := doPost(t, srv, "/monitor/sari_002",
			`{"kondisi": "terjatuh", "device_id": "nino_001"}`, nil)
		assert.Equal(t, "alert_sent", resp["status"])
		require.Len(t, dispatcher.intents, 1)
		assert.Equal(t, "sari_002", dispatcher.intents[0].Child.DeviceID)
	})

	t.Run("header", func(t *testing.T) {
		dispatcher.intents = nil
		_, resp := doPost(t, srv, "/monitor",
			`{"kondisi": "terjatuh", "device_id": "nino_001"}`,
			func(r *http.Request) { r.Header.Set("X-Device-Id", "sari_002") })
		assert.Equal(t, "alert_sent", resp["status"])
	})

	t.Run("query parameter", func(t *testing.T) {
		dispatcher.intents = nil
		_, resp := doPost(t, srv, "/monitor?device_id=sari_002",
			`{"kondisi": "terjatuh", "device_id": "nino_001"}`, nil)
		assert.Equal(t, "alert_sent", resp["status"])
	})
}

func TestHandleMonitor_LookupFailure(t *testing.T) {
	children := &stubChildRepo{err: errors.New("db down")}
	srv := newTestServer(children, &stubDispatcher{})

	rec, resp := doPost(t, srv, "/monitor", `{"kondisi": "terjatuh", "device_id": "nino_001"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", resp["status"])
}

func TestHandleHealth(t *testing.T) {
	children := &stubChildRepo{byDevice: map[string]*model.Child{
		"nino_001": {ID: 1}, "sari_002": {ID: 2},
	}}
	srv := newTestServer(children, &stubDispatcher{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, float64(2), resp["children"])
	assert.Equal(t, float64(2), resp["active_sessions"])
	assert.NotEmpty(t, resp["timestamp"])
}
