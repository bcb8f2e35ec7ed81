package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"heist-bot/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthReportsDatabase(t *testing.T) {
	botStatus.Store("online")

	cases := []struct {
		name   string
		db     pinger
		code   int
		status string
	}{
		{"memory ledger", nil, http.StatusOK, "healthy"},
		{"database up", fakePinger{}, http.StatusOK, "healthy"},
		{"database down", fakePinger{err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, healthMux(prometheus.NewRegistry(), tc.db), "/health")
			assert.Equal(t, tc.code, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.status, body["status"])
			assert.Equal(t, "online", body["bot_status"])
			assert.Equal(t, tc.db != nil, body["database"])
		})
	}
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := utils.NewHeistMetricsWithRegistry("bot", reg)
	m.SetActiveSessions(3)

	rec := get(t, healthMux(reg, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bot_heist_active_sessions 3")
}
