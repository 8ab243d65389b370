package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/debts/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	req := httptest.NewRequest(http.MethodGet, "/debts/42", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	m.DebtUpdated("PAID")
	m.AuthFailed("bad_password")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	out := string(body)

	assert.True(t, strings.Contains(out, `http_requests_total{method="GET",route="/debts/{id}",status="404"} 1`), out)
	assert.Contains(t, out, `debt_updates_total{state="PAID"} 1`)
	assert.Contains(t, out, `auth_failures_total{reason="bad_password"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.DebtUpdated("PENDING")
	m.AuthFailed("user_inactive")
}
