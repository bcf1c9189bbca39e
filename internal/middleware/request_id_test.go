package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		inbound  string
		wantKeep bool
	}{
		{name: "generated when absent", inbound: "", wantKeep: false},
		{name: "inbound kept", inbound: "req-abc-123", wantKeep: true},
		{name: "control characters rejected", inbound: "req\nforged", wantKeep: false},
		{name: "spaces rejected", inbound: "req 1", wantKeep: false},
		{name: "too long rejected", inbound: strings.Repeat("a", maxRequestIDLength+1), wantKeep: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.inbound != "" {
				req.Header.Set(RequestIDHeader, tt.inbound)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if seen == "" {
				t.Fatal("request id missing from context")
			}
			if got := rec.Header().Get(RequestIDHeader); got != seen {
				t.Errorf("header = %q, context = %q", got, seen)
			}
			if (seen == tt.inbound) != tt.wantKeep {
				t.Errorf("request id = %q, keep inbound = %v", seen, tt.wantKeep)
			}
		})
	}
}

func TestRequestID_TraceEcho(t *testing.T) {
	t.Parallel()

	var trace string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace = GetTraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "trace-9")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if trace != "trace-9" || rec.Header().Get(TraceIDHeader) != "trace-9" {
		t.Errorf("trace = %q, header = %q", trace, rec.Header().Get(TraceIDHeader))
	}
}
