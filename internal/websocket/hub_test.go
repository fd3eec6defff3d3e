package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		conn: nil,
		send: make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub)
	c2 := mockClient(hub)

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)

	hub.Notify("event", "created", "2c9e5d3a-7f3d-4e94-8a6f-1f5b2c3d4e5f")

	// Check both clients received the message
	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "event_created" {
				t.Errorf("expected type event_created, got %s", got.Type)
			}
			if got.Entity != "event" {
				t.Errorf("expected entity event, got %s", got.Entity)
			}
			if got.ID != "2c9e5d3a-7f3d-4e94-8a6f-1f5b2c3d4e5f" {
				t.Errorf("unexpected id %s", got.ID)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}

	hub.Unregister(c1)
	hub.Unregister(c2)
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(slog.Default())
	// Should not panic
	hub.Broadcast(NewMessage("calendar", "deleted", "x"))
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub)
	hub.Register(c)

	// Fill the send buffer
	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(NewMessage("test", "fill", "a"))
	}

	// This should drop the message, not panic or block
	hub.Broadcast(NewMessage("test", "dropped", "b"))

	// Drain to verify buffer was full
	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("calendar", "updated", "cal-5")
	if msg.Type != "calendar_updated" {
		t.Errorf("expected type calendar_updated, got %s", msg.Type)
	}
	if msg.Entity != "calendar" {
		t.Errorf("expected entity calendar, got %s", msg.Entity)
	}
	if msg.Action != "updated" {
		t.Errorf("expected action updated, got %s", msg.Action)
	}
	if msg.ID != "cal-5" {
		t.Errorf("expected id cal-5, got %s", msg.ID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	// Spawn goroutines that register, broadcast, and unregister concurrently
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub)
			hub.Register(c)
			hub.Broadcast(NewMessage("test", "concurrent", ""))
			// Drain any messages
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}
