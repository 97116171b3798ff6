package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/ssecast/component"
	apperrors "github.com/kbukum/ssecast/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func healthy(_ context.Context) []component.Health {
	return []component.Health{{Name: "sse", Status: component.StatusHealthy}}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Port != 8080 || cfg.ShutdownTimeout != 5*time.Second || cfg.MaxBodySize != "1MB" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("expected wildcard origin, got %v", cfg.CORS.AllowedOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	bad := cfg
	bad.MaxBodySize = "lots"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for invalid max_body_size")
	}
	bad = cfg
	bad.Port = 70000
	if err := bad.Validate(); err == nil {
		t.Error("expected error for port out of range")
	}
}

func TestHandlerAppliesMiddleware(t *testing.T) {
	s := New(Config{}, nil)
	s.ApplyDefaults("ssecast", healthy)
	s.GinEngine().GET("/api/panic", func(*gin.Context) { panic("boom") })

	h := s.Handler()

	t.Run("request id echoed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if rec.Header().Get("X-Request-Id") == "" {
			t.Error("expected X-Request-Id header")
		}
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/message", nil)
		req.Header.Set("Origin", "http://example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("expected wildcard origin, got %q", got)
		}
	})

	t.Run("panic recovered", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/panic", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("mounted handler", func(t *testing.T) {
		s.Handle("/raw", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/raw", nil))
		if rec.Code != http.StatusTeapot {
			t.Errorf("expected 418, got %d", rec.Code)
		}
	})
}

func TestDefaultEndpoints(t *testing.T) {
	tests := []struct {
		name    string
		checker func(context.Context) []component.Health
		path    string
		code    int
		status  string
	}{
		{"health ok", healthy, "/health", http.StatusOK, "healthy"},
		{"health degraded", func(context.Context) []component.Health {
			return []component.Health{{Name: "otel", Status: component.StatusDegraded}}
		}, "/health", http.StatusOK, "degraded"},
		{"health down", func(context.Context) []component.Health {
			return []component.Health{
				{Name: "otel", Status: component.StatusDegraded},
				{Name: "redis", Status: component.StatusUnhealthy},
			}
		}, "/health", http.StatusServiceUnavailable, "unhealthy"},
		{"ready", healthy, "/health/ready", http.StatusOK, "ready"},
		{"not ready", func(context.Context) []component.Health {
			return []component.Health{{Name: "redis", Status: component.StatusUnhealthy}}
		}, "/health/ready", http.StatusServiceUnavailable, "not_ready"},
		{"live", nil, "/health/live", http.StatusOK, "alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Config{}, nil)
			s.RegisterDefaultEndpoints("ssecast", tt.checker)

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["status"] != tt.status {
				t.Errorf("expected status %q, got %v", tt.status, body["status"])
			}
			if body["service"] != "ssecast" {
				t.Errorf("expected service name, got %v", body["service"])
			}
		})
	}
}

func TestInfoEndpoint(t *testing.T) {
	s := New(Config{}, nil)
	s.RegisterDefaultEndpoints("ssecast", nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Build  map[string]any `json:"build"`
		Uptime string         `json:"uptime"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Build["go_version"] == nil || body.Uptime == "" {
		t.Errorf("unexpected info body %s", rec.Body.String())
	}
}

func TestUnknownRoute(t *testing.T) {
	s := New(Config{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != apperrors.ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", body.Error.Code)
	}
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		want apperrors.ErrorCode
	}{
		{"app error", apperrors.InvalidInput("body", "unreadable"), http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"wrapped app error", fmt.Errorf("send: %w", apperrors.ServiceUnavailable("relay")), http.StatusServiceUnavailable, apperrors.ErrCodeServiceUnavailable},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError, apperrors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			RespondWithError(c, tt.err)

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var body apperrors.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.want {
				t.Errorf("expected code %s, got %s", tt.want, body.Error.Code)
			}
		})
	}
}

func TestRespondOK(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondOK(c, gin.H{"subscribers": 3})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"data":{"subscribers":3}`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestStartStop(t *testing.T) {
	port := freePort(t)
	s := New(Config{Host: "127.0.0.1", Port: port}, nil)
	s.RegisterDefaultEndpoints("ssecast", nil)

	shutdownCalled := make(chan struct{})
	s.OnShutdown(func() { close(shutdownCalled) })

	sc := NewComponent(s)
	ctx := context.Background()

	if h := sc.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %+v", h)
	}
	if err := sc.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if h := sc.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy after start, got %+v", h)
	}

	resp, err := http.Get("http://" + s.Addr() + "/health/live")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	if err := sc.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	select {
	case <-shutdownCalled:
	case <-time.After(time.Second):
		t.Error("shutdown hook did not run")
	}

	deadline := time.Now().Add(time.Second)
	for s.Serving() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.Serving() {
		t.Error("expected server to stop serving")
	}
}

func TestStartBindFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()

	s := New(Config{Host: "127.0.0.1", Port: l.Addr().(*net.TCPAddr).Port}, nil)
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected bind error")
	}
}

func TestComponentRoutes(t *testing.T) {
	s := New(Config{}, nil)
	s.RegisterDefaultEndpoints("ssecast", nil)
	api := s.GinEngine().Group("/api")
	api.POST("/message", func(*gin.Context) {})
	api.GET("/sse", func(*gin.Context) {})

	routes := NewComponent(s).Routes()
	if len(routes) != 6 {
		t.Fatalf("expected 6 routes, got %d", len(routes))
	}
	if routes[0].Path != "/api/message" || routes[1].Path != "/api/sse" {
		t.Errorf("expected API routes first, got %v", routes[:2])
	}
	for _, r := range routes[2:] {
		if !strings.HasSuffix(r.Handler, "(system)") {
			t.Errorf("expected system marker on %s", r.Path)
		}
	}

	d := NewComponent(s).Describe()
	if d.Port != 8080 || d.Type != "server" {
		t.Errorf("unexpected description %+v", d)
	}
}

func TestFormatHandlerName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"github.com/kbukum/ssecast/message.(*Handler).Send-fm", "Handler.Send"},
		{"github.com/kbukum/ssecast/server/endpoint.Health.func1", "health"},
		{"main.handler", "handler"},
	}
	for _, tt := range tests {
		if got := formatHandlerName(tt.in); got != tt.want {
			t.Errorf("formatHandlerName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
