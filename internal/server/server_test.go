package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b3radar/b3radar/internal/modules/refresh"
)

type staticStatus struct {
	report *refresh.CycleReport
}

func (s *staticStatus) LastReport() *refresh.CycleReport {
	return s.report
}

func TestHealthEndpoint(t *testing.T) {
	s := New(Config{Port: 0, Log: zerolog.Nop(), Status: &staticStatus{}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestStatusBeforeFirstCycle(t *testing.T) {
	s := New(Config{Port: 0, Log: zerolog.Nop(), Status: &staticStatus{}})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "no cycle completed yet")
}

func TestStatusReturnsLastReport(t *testing.T) {
	report := &refresh.CycleReport{
		ID: "cycle-1",
		Assets: []refresh.AssetOutcome{
			{Ticker: "PETR4", State: refresh.StatePersisted, AICalled: true},
		},
	}
	s := New(Config{Port: 0, Log: zerolog.Nop(), Status: &staticStatus{report: report}})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got refresh.CycleReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "cycle-1", got.ID)
	assert.Len(t, got.Assets, 1)
}
