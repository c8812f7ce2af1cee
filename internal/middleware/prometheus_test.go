// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/blogflock/internal/metrics"
)

func TestPrometheusMetrics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"success", http.MethodGet, "/test/prom/ok", http.StatusOK},
		{"created", http.MethodPost, "/test/prom/created", http.StatusCreated},
		{"server error", http.MethodGet, "/test/prom/error", http.StatusInternalServerError},
		{"implicit ok", http.MethodGet, "/test/prom/implicit", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				_, _ = w.Write([]byte("OK"))
			})

			handler(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			want := tt.status
			if want == 0 {
				want = http.StatusOK
			}
			got := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(tt.method, tt.path, strconv.Itoa(want)))
			if got != 1 {
				t.Errorf("requests_total{%s %s %d} = %v, want 1", tt.method, tt.path, want, got)
			}
		})
	}
}

func TestPrometheusMetricsUsesRoutePattern(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/test/blogs/{hashId}", PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, id := range []string{"abc", "def", "ghi"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test/blogs/"+id, nil))
	}

	got := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/test/blogs/{hashId}", "200"))
	if got != 3 {
		t.Errorf("pattern-labelled count = %v, want 3", got)
	}
}

type hijackRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	server, client := net.Pipe()
	_ = client.Close()
	return server, bufio.NewReadWriter(bufio.NewReader(server), bufio.NewWriter(server)), nil
}

func TestMetricsResponseWriter(t *testing.T) {
	t.Parallel()

	t.Run("first status wins", func(t *testing.T) {
		t.Parallel()
		rw := &metricsResponseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
		rw.WriteHeader(http.StatusNotFound)
		rw.WriteHeader(http.StatusOK)
		if rw.statusCode != http.StatusNotFound {
			t.Errorf("statusCode = %d, want 404", rw.statusCode)
		}
	})

	t.Run("hijack passes through", func(t *testing.T) {
		t.Parallel()
		under := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
		rw := &metricsResponseWriter{ResponseWriter: under, statusCode: http.StatusOK}
		conn, _, err := rw.Hijack()
		if err != nil {
			t.Fatalf("Hijack: %v", err)
		}
		_ = conn.Close()
		if !under.hijacked {
			t.Error("underlying writer was not hijacked")
		}
		if rw.statusCode != http.StatusSwitchingProtocols {
			t.Errorf("statusCode = %d, want 101", rw.statusCode)
		}
	})

	t.Run("hijack unsupported", func(t *testing.T) {
		t.Parallel()
		rw := &metricsResponseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
		if _, _, err := rw.Hijack(); err == nil {
			t.Error("expected error from non-hijackable writer")
		}
	})

	t.Run("flush and unwrap", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		rw := &metricsResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
		rw.Flush()
		if !rec.Flushed {
			t.Error("Flush was not forwarded")
		}
		if rw.Unwrap() != rec {
			t.Error("Unwrap should return the underlying writer")
		}
	})
}
