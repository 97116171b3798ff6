package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/ssecast/resilience"
	"github.com/kbukum/ssecast/security"
	ssehub "github.com/kbukum/ssecast/sse"
)

func TestNewValidatesBaseURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"", false},
		{"http://localhost:8080/", false},
		{"https://example.com", false},
		{"ftp://example.com", true},
		{"http://", true},
		{"::bad", true},
	}
	for _, tt := range tests {
		_, err := New(Config{BaseURL: tt.url})
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q) err = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestSendPostsPlainText(t *testing.T) {
	var (
		mu        sync.Mutex
		gotBody   string
		gotType   string
		gotUA     string
		gotMethod string
		gotPath   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotBody, gotType, gotUA = string(b), r.Header.Get("Content-Type"), r.UserAgent()
		gotMethod, gotPath = r.Method, r.URL.Path
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := c.Send(context.Background(), "hello there"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotMethod != http.MethodPost || gotPath != "/api/message" {
		t.Errorf("unexpected request %s %s", gotMethod, gotPath)
	}
	if gotBody != "hello there" {
		t.Errorf("unexpected body %q", gotBody)
	}
	if !strings.HasPrefix(gotType, "text/plain") {
		t.Errorf("unexpected content type %q", gotType)
	}
	if !strings.HasPrefix(gotUA, "ssecast-cli/") {
		t.Errorf("unexpected user agent %q", gotUA)
	}
}

func TestSendReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"SERVICE_UNAVAILABLE"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, Retry: resilience.RetryConfig{MaxAttempts: 1}})
	err := c.Send(context.Background(), "x")
	if !IsStatus(err, http.StatusServiceUnavailable) {
		t.Fatalf("expected 503 StatusError, got %v", err)
	}
	se := err.(*StatusError)
	if !se.Retryable() {
		t.Error("503 should be retryable")
	}
	if !strings.Contains(string(se.Body), "SERVICE_UNAVAILABLE") {
		t.Errorf("expected body to be captured, got %q", se.Body)
	}
}

func TestSendConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, _ := New(Config{BaseURL: url, Timeout: time.Second})
	if err := c.Send(context.Background(), "x"); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestSubscribeRejectsNonStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	if _, err := c.Subscribe(context.Background()); err == nil {
		t.Fatal("expected content type error")
	}
}

func TestSubscribeReceivesPublishedMessages(t *testing.T) {
	hub := ssehub.NewHub(ssehub.Config{})
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sse", func(w http.ResponseWriter, r *http.Request) {
		ssehub.ServeSSE(hub, w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _ := New(Config{BaseURL: srv.URL})
	stream, err := c.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer stream.Close()

	ev, err := stream.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if ev.Event != "connected" || stream.ClientID() == "" {
		t.Fatalf("expected connected event with client id, got %+v", ev)
	}
	if hub.Client(stream.ClientID()) == nil {
		t.Fatalf("hub does not know client %s", stream.ClientID())
	}

	hub.Publish([]byte("first\nsecond"))
	ev, err = stream.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if ev.Event != "" || ev.Data != "first\nsecond" {
		t.Errorf("unexpected event %+v", ev)
	}

	hub.Stop()
	if _, err := stream.Next(); !IsClosed(err) {
		t.Errorf("expected closed stream, got %v", err)
	}
}

func TestSendRetries(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantErr   bool
		wantCalls int32
	}{
		{"recovers after 503", []int{http.StatusServiceUnavailable, http.StatusNoContent}, false, 2},
		{"400 is final", []int{http.StatusBadRequest, http.StatusNoContent}, true, 1},
		{"gives up", []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusServiceUnavailable}, true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				n := calls.Add(1)
				w.WriteHeader(tt.statuses[n-1])
			}))
			defer srv.Close()

			c, _ := New(Config{BaseURL: srv.URL, Retry: resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}})
			err := c.Send(context.Background(), "x")
			if (err != nil) != tt.wantErr {
				t.Errorf("Send() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, got)
			}
		})
	}
}

func TestSendOverTLS(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	plain, _ := New(Config{BaseURL: srv.URL, Retry: resilience.RetryConfig{MaxAttempts: 1}})
	if err := plain.Send(context.Background(), "x"); err == nil {
		t.Fatal("expected certificate error without TLS settings")
	}

	c, err := New(Config{BaseURL: srv.URL, TLS: security.TLSConfig{SkipVerify: true}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := c.Send(context.Background(), "x"); err != nil {
		t.Fatalf("Send over TLS failed: %v", err)
	}
}
