package forum

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestFetcher(t *testing.T, handler http.Handler) (*CollyFetcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f, err := NewCollyFetcher(srv.URL, "/whats-new", "", 0, 5*time.Second)
	if err != nil {
		t.Fatalf("NewCollyFetcher: %v", err)
	}
	return f, srv
}

func TestCollyFetcher_FetchListing(t *testing.T) {
	f, _ := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/whats-new" {
			_, _ = w.Write([]byte("<html>listing</html>"))
			return
		}
		http.NotFound(w, r)
	}))

	body, err := f.FetchListing(context.Background())
	if err != nil {
		t.Fatalf("FetchListing: %v", err)
	}
	if !strings.Contains(string(body), "listing") {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestCollyFetcher_NotFound(t *testing.T) {
	f, srv := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := f.FetchThread(context.Background(), srv.URL+"/threads/gone.1/latest")
	if !errors.Is(err, ErrThreadNotFound) {
		t.Fatalf("err = %v, want ErrThreadNotFound", err)
	}
}

func TestCollyFetcher_ServerErrorIsTransient(t *testing.T) {
	f, srv := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := f.FetchThread(context.Background(), srv.URL+"/threads/up.2/latest")
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestCollyFetcher_UnreachableHostIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close() // nothing listens anymore

	f, err := NewCollyFetcher(addr, "/whats-new", "", 0, time.Second)
	if err != nil {
		t.Fatalf("NewCollyFetcher: %v", err)
	}
	if _, err := f.FetchListing(context.Background()); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestCollyFetcher_CancelledContext(t *testing.T) {
	f, srv := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.FetchThread(ctx, srv.URL+"/threads/x.3/latest"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestNewCollyFetcher_InvalidBase(t *testing.T) {
	if _, err := NewCollyFetcher("://not-a-url", "/whats-new", "", 0, time.Second); err == nil {
		t.Fatalf("expected error for invalid base URL")
	}
}
