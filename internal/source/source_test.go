package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		_, _ = w.Write([]byte("Data,Acertos\n01/03/2024,7\n"))
	}))
	t.Cleanup(srv.Close)

	body, err := NewHTTP(srv.URL, time.Second).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.HasPrefix(string(body), "Data,Acertos") {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestHTTPFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	_, err := NewHTTP(srv.URL, time.Second).Fetch(context.Background())
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestHTTPFetchEmptyURL(t *testing.T) {
	if _, err := NewHTTP("", 0).Fetch(context.Background()); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
