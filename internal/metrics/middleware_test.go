package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/mailmerge", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Name"))
	})

	req := httptest.NewRequest(http.MethodGet, "/mailmerge", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/mailmerge", "200", "http"))
	if val < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", val)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddleware_RoutePatternLabel(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/_ah/mail/{address}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, addr := range []string{"a@pda.example", "b@pda.example"} {
		req := httptest.NewRequest(http.MethodPost, "/_ah/mail/"+addr, http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/_ah/mail/{address}", "204", "http"))
	if val < 2 {
		t.Errorf("expected both addresses under one label, got %f", val)
	}
}

func TestMiddleware_QueueSource(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/task/mail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	req := httptest.NewRequest(http.MethodPost, "/task/mail", http.NoBody)
	req.Header.Set(TaskHeader, "3f0c")
	r.ServeHTTP(httptest.NewRecorder(), req)

	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/task/mail", "503", "queue"))
	if val < 1 {
		t.Errorf("expected queue-sourced request to be counted, got %f", val)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unknown"},
		{"/task/fix/record", "/task/fix/record"},
		{"/health", "/health"},
	}

	for _, tc := range tests {
		if got := normalizePath(tc.input); got != tc.expected {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestAppMetrics_Exposed(t *testing.T) {
	SearchRequestsTotal.WithLabelValues(StatusOK).Inc()
	MailSentTotal.WithLabelValues("summary", StatusOK).Inc()

	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	body, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	for _, name := range []string{"pda_search_requests_total", "pda_mail_sent_total"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
