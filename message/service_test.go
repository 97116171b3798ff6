package message

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeHub struct {
	mu        sync.Mutex
	published [][]byte
	clients   int
}

func (h *fakeHub) Publish(data []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.published = append(h.published, data)
	return h.clients
}

func (h *fakeHub) ClientCount() int { return h.clients }

type fakePublisher struct {
	err  error
	sent [][]byte
}

func (p *fakePublisher) Publish(_ context.Context, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, data)
	return nil
}

func TestSendPublishesLocally(t *testing.T) {
	hub := &fakeHub{clients: 3}
	svc := NewService(hub, nil, nil, nil)

	res, err := svc.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if res.Ignored || res.Delivered != 3 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(hub.published) != 1 || string(hub.published[0]) != "hello" {
		t.Errorf("unexpected published payloads %q", hub.published)
	}
}

func TestSendIgnoresBlankText(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"newlines and tabs", "\n\t\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := &fakeHub{clients: 2}
			pub := &fakePublisher{}
			svc := NewService(hub, pub, nil, nil)

			res, err := svc.Send(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("Send failed: %v", err)
			}
			if !res.Ignored {
				t.Error("expected ignored result")
			}
			if len(hub.published) != 0 || len(pub.sent) != 0 {
				t.Error("blank text must not be published")
			}
		})
	}
}

func TestSendKeepsSurroundingWhitespace(t *testing.T) {
	hub := &fakeHub{}
	svc := NewService(hub, nil, nil, nil)

	if _, err := svc.Send(context.Background(), "  padded \n"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if string(hub.published[0]) != "  padded \n" {
		t.Errorf("expected text unchanged, got %q", hub.published[0])
	}
}

func TestSendThroughPublisher(t *testing.T) {
	hub := &fakeHub{clients: 1}
	pub := &fakePublisher{}
	svc := NewService(hub, pub, nil, nil)

	res, err := svc.Send(context.Background(), "relayed")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if res.Delivered != -1 {
		t.Errorf("expected unknown delivery count, got %d", res.Delivered)
	}
	if len(pub.sent) != 1 || len(hub.published) != 0 {
		t.Errorf("expected relay only, got relay=%d hub=%d", len(pub.sent), len(hub.published))
	}
}

func TestSendPublisherFailure(t *testing.T) {
	relayErr := errors.New("redis down")
	svc := NewService(&fakeHub{}, &fakePublisher{err: relayErr}, nil, nil)

	if _, err := svc.Send(context.Background(), "hello"); !errors.Is(err, relayErr) {
		t.Fatalf("expected relay error, got %v", err)
	}
}

func TestSubscribers(t *testing.T) {
	svc := NewService(&fakeHub{clients: 7}, nil, nil, nil)
	if got := svc.Subscribers(); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
}
