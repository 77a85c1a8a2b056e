package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/unclebandit/customer-publisher/internal/handler"
)

func newTestServer(t *testing.T, rt *handler.Router) *httptest.Server {
	t.Helper()
	log, _ := newTestLogger()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Handle("/*", rt.HTTPHandler(log))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	return resp, string(data)
}

func TestHTTPHandlerScenarios(t *testing.T) {
	srv := newTestServer(t, &handler.Router{})

	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		wantStatus  int
		wantBody    string
		contentType string
	}{
		{"publish", http.MethodPost, "/publish", publishData, http.StatusOK, "well hello john", "application/json"},
		{"isalive", http.MethodGet, "/isalive", "", http.StatusOK, "ok", "application/json"},
		{"not implemented", http.MethodPut, "/error", "error", http.StatusNotImplemented, "error not implemented", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, tt.method, srv.URL+tt.path, tt.body)

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if body != tt.wantBody {
				t.Errorf("expected body %q, got %q", tt.wantBody, body)
			}
			if ct := resp.Header.Get("Content-Type"); ct != tt.contentType {
				t.Errorf("expected content type %q, got %q", tt.contentType, ct)
			}
		})
	}
}

func TestHTTPHandlerBadRequest(t *testing.T) {
	srv := newTestServer(t, &handler.Router{})

	resp, body := doRequest(t, http.MethodPost, srv.URL+"/publish", `{}`)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "bad request") {
		t.Errorf("expected diagnostic body, got %q", body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("expected text/plain, got %q", ct)
	}
}

func TestHTTPHandlerRecorder(t *testing.T) {
	rt := &handler.Router{}
	req := httptest.NewRequest(http.MethodPost, "/publish", strings.NewReader(publishData))
	w := httptest.NewRecorder()

	rt.HTTPHandler(nil).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if w.Body.String() != "well hello john" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}
