package sse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/kbukum/ssecast/component"
)

type countingObserver struct {
	mu      sync.Mutex
	added   int
	removed int
	evicted int
}

func (o *countingObserver) ClientAdded() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.added++
}

func (o *countingObserver) ClientRemoved(evicted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.removed++
	if evicted {
		o.evicted++
	}
}

func newTestHub(opts ...HubOption) *Hub {
	return NewHub(Config{ClientBufferSize: 4}, opts...)
}

func TestPublishDeliversToAllClients(t *testing.T) {
	hub := newTestHub()
	clients := make([]*Client, 5)
	for i := range clients {
		clients[i] = NewClient(fmt.Sprintf("c%d", i))
		if err := hub.Register(clients[i]); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	if n := hub.Publish([]byte("hello")); n != len(clients) {
		t.Fatalf("expected %d deliveries, got %d", len(clients), n)
	}
	for _, c := range clients {
		select {
		case got := <-c.Events():
			if string(got) != "hello" {
				t.Errorf("client %s got %q", c.ID(), got)
			}
		default:
			t.Errorf("client %s received nothing", c.ID())
		}
	}
}

func TestPublishWithNoClients(t *testing.T) {
	hub := newTestHub()
	if n := hub.Publish([]byte("nobody")); n != 0 {
		t.Errorf("expected 0 deliveries, got %d", n)
	}
}

func TestUnregisteredClientReceivesNothing(t *testing.T) {
	hub := newTestHub()
	stay := NewClient("stay")
	gone := NewClient("gone")
	hub.Register(stay)
	hub.Register(gone)

	hub.Unregister(gone)
	if !gone.Closed() {
		t.Error("expected unregistered client to be closed")
	}

	if n := hub.Publish([]byte("after")); n != 1 {
		t.Fatalf("expected 1 delivery, got %d", n)
	}
	select {
	case <-gone.Events():
		t.Error("unregistered client received a message")
	default:
	}
	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client, got %d", hub.ClientCount())
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	obs := &countingObserver{}
	hub := newTestHub(WithObserver(obs))
	c := NewClient("x")
	hub.Register(c)

	hub.Unregister(c)
	hub.Unregister(c)

	if obs.removed != 1 {
		t.Errorf("expected one removal, got %d", obs.removed)
	}
}

func TestNoReplayForLateSubscriber(t *testing.T) {
	hub := newTestHub()
	hub.Publish([]byte("before"))

	late := NewClient("late")
	hub.Register(late)

	select {
	case got := <-late.Events():
		t.Errorf("late subscriber received %q", got)
	default:
	}
}

func TestFullBufferEvictsClient(t *testing.T) {
	obs := &countingObserver{}
	hub := NewHub(Config{ClientBufferSize: 2}, WithObserver(obs))
	slow := NewClient("slow", WithBufferSize(2))
	fast := NewClient("fast", WithBufferSize(8))
	hub.Register(slow)
	hub.Register(fast)

	hub.Publish([]byte("1"))
	hub.Publish([]byte("2"))
	if n := hub.Publish([]byte("3")); n != 1 {
		t.Fatalf("expected only fast client to accept, got %d", n)
	}

	if !slow.Closed() {
		t.Error("expected slow client to be closed")
	}
	if hub.Client("slow") != nil {
		t.Error("expected slow client to be removed")
	}
	if hub.Client("fast") == nil {
		t.Error("expected fast client to remain")
	}
	if obs.evicted != 1 {
		t.Errorf("expected 1 eviction, got %d", obs.evicted)
	}
}

func TestRegisterDuplicateID(t *testing.T) {
	hub := newTestHub()
	hub.Register(NewClient("dup"))
	err := hub.Register(NewClient("dup"))
	if !errors.Is(err, ErrDuplicateClient) {
		t.Errorf("expected ErrDuplicateClient, got %v", err)
	}
}

func TestStopClosesClientsAndRejectsRegister(t *testing.T) {
	hub := newTestHub()
	a, b := NewClient("a"), NewClient("b")
	hub.Register(a)
	hub.Register(b)

	hub.Stop()
	hub.Stop()

	if !a.Closed() || !b.Closed() {
		t.Error("expected all clients closed")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
	if err := hub.Register(NewClient("c")); !errors.Is(err, ErrHubClosed) {
		t.Errorf("expected ErrHubClosed, got %v", err)
	}
}

func TestClientIDs(t *testing.T) {
	hub := newTestHub()
	hub.Register(NewClient("a"))
	hub.Register(NewClient("b"))

	ids := hub.ClientIDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Errorf("unexpected ids %v", ids)
	}
}

func TestConcurrentRegisterPublishUnregister(t *testing.T) {
	hub := NewHub(Config{ClientBufferSize: 1024})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c := NewClient(fmt.Sprintf("c%d", i))
			if err := hub.Register(c); err != nil {
				t.Errorf("Register failed: %v", err)
				return
			}
			hub.Unregister(c)
		}(i)
		go func() {
			defer wg.Done()
			hub.Publish([]byte("x"))
		}()
	}
	wg.Wait()

	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestClientSendAfterClose(t *testing.T) {
	c := NewClient("c")
	c.Close()
	c.Close()
	if c.Send([]byte("x")) {
		t.Error("closed client should not accept data")
	}
}

func TestClientMetadata(t *testing.T) {
	c := NewClient("c", WithRemoteAddr("10.0.0.1:5000"), WithUserAgent(""), WithMetadata("k", "v"))
	md := c.Metadata()
	if md[MetaRemoteAddr] != "10.0.0.1:5000" || md["k"] != "v" {
		t.Errorf("unexpected metadata %v", md)
	}
	if _, ok := md[MetaUserAgent]; ok {
		t.Error("empty values should not be stored")
	}
	md["k"] = "changed"
	if c.Metadata()["k"] != "v" {
		t.Error("Metadata should return a copy")
	}
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.MaxMessageBytes() != 64*1024 {
		t.Errorf("expected 64KB, got %d", cfg.MaxMessageBytes())
	}

	bad := cfg
	bad.Path = "api/sse"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for relative path")
	}
	bad = cfg
	bad.MaxMessageSize = "lots"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for invalid max_message_size")
	}
}

func TestComponentLifecycle(t *testing.T) {
	c := NewComponent(Config{})
	ctx := context.Background()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := c.Hub().Register(NewClient("a")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	h := c.Health(ctx)
	if h.Status != component.StatusHealthy || h.Message != "1 clients connected" {
		t.Errorf("unexpected health %+v", h)
	}
	if d := c.Describe(); d.Type != "sse" || d.Name != "SSE Hub" {
		t.Errorf("unexpected description %+v", d)
	}

	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if c.Hub().ClientCount() != 0 {
		t.Errorf("expected no clients after stop, got %d", c.Hub().ClientCount())
	}
	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy after stop, got %+v", h)
	}
}
