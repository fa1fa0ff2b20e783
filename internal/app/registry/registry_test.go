package registry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	id       string
	userID   string
	mu       sync.Mutex
	received [][]byte
	sendErr  error
}

func (m *mockClient) SessionID() string   { return m.id }
func (m *mockClient) UserID() string      { return m.userID }
func (m *mockClient) DisplayName() string { return m.userID }
func (m *mockClient) Close()              {}

func (m *mockClient) Send(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.received = append(m.received, data)
	return nil
}

func (m *mockClient) getReceived() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.received
}

func newTestRegistry() *Registry {
	return New(slog.Default())
}

func TestRegistry_Broadcast(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(*Registry) []*mockClient
		exclude      string
		wantReceived map[string]int
	}{
		{
			name: "reaches every room member",
			setup: func(h *Registry) []*mockClient {
				a := &mockClient{id: "a"}
				b := &mockClient{id: "b"}
				c := &mockClient{id: "c"}
				for _, cl := range []*mockClient{a, b, c} {
					h.Register(cl)
					h.Join("room1", cl)
				}
				return []*mockClient{a, b, c}
			},
			wantReceived: map[string]int{"a": 1, "b": 1, "c": 1},
		},
		{
			name: "excludes the sender",
			setup: func(h *Registry) []*mockClient {
				a := &mockClient{id: "a"}
				b := &mockClient{id: "b"}
				for _, cl := range []*mockClient{a, b} {
					h.Register(cl)
					h.Join("room1", cl)
				}
				return []*mockClient{a, b}
			},
			exclude:      "a",
			wantReceived: map[string]int{"a": 0, "b": 1},
		},
		{
			name: "never crosses rooms",
			setup: func(h *Registry) []*mockClient {
				a := &mockClient{id: "a"}
				b := &mockClient{id: "b"}
				h.Register(a)
				h.Join("room1", a)
				h.Register(b)
				h.Join("room2", b)
				return []*mockClient{a, b}
			},
			wantReceived: map[string]int{"a": 1, "b": 0},
		},
		{
			name: "skips sessions that left",
			setup: func(h *Registry) []*mockClient {
				a := &mockClient{id: "a"}
				b := &mockClient{id: "b"}
				for _, cl := range []*mockClient{a, b} {
					h.Register(cl)
					h.Join("room1", cl)
				}
				h.Leave("room1", "b")
				return []*mockClient{a, b}
			},
			wantReceived: map[string]int{"a": 1, "b": 0},
		},
		{
			name: "one failing send does not stop delivery to others",
			setup: func(h *Registry) []*mockClient {
				a := &mockClient{id: "a", sendErr: errors.New("closed")}
				b := &mockClient{id: "b"}
				for _, cl := range []*mockClient{a, b} {
					h.Register(cl)
					h.Join("room1", cl)
				}
				return []*mockClient{a, b}
			},
			wantReceived: map[string]int{"a": 0, "b": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRegistry()
			clients := tt.setup(h)

			h.Broadcast(context.Background(), "room1", map[string]string{"type": "test"}, tt.exclude)

			for _, c := range clients {
				assert.Len(t, c.getReceived(), tt.wantReceived[c.id], "client %s", c.id)
			}
		})
	}
}

func TestRegistry_JoinIdempotent(t *testing.T) {
	h := newTestRegistry()
	a := &mockClient{id: "a"}
	h.Register(a)
	h.Join("room1", a)
	h.Join("room1", a)

	h.Broadcast(context.Background(), "room1", map[string]string{"type": "test"}, "")
	assert.Len(t, a.getReceived(), 1)
}

func TestRegistry_UnregisterLeavesAllRooms(t *testing.T) {
	h := newTestRegistry()
	a := &mockClient{id: "a"}
	b := &mockClient{id: "b"}
	h.Register(a)
	h.Register(b)
	h.Join("room1", a)
	h.Join("room2", a)
	h.Join("room1", b)

	h.Unregister("a")

	h.Broadcast(context.Background(), "room1", map[string]string{"type": "t"}, "")
	h.Broadcast(context.Background(), "room2", map[string]string{"type": "t"}, "")
	assert.Empty(t, a.getReceived())
	assert.Len(t, b.getReceived(), 1)

	rooms, sessions := h.Stats()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 1, sessions)
}

func TestRegistry_SendTo(t *testing.T) {
	h := newTestRegistry()
	a := &mockClient{id: "a"}
	h.Register(a)

	assert.True(t, h.SendTo(context.Background(), "a", map[string]string{"type": "t"}))
	assert.False(t, h.SendTo(context.Background(), "ghost", map[string]string{"type": "t"}))

	a.sendErr = errors.New("closed")
	assert.False(t, h.SendTo(context.Background(), "a", map[string]string{"type": "t"}))
}

func TestRegistry_BroadcastAll(t *testing.T) {
	h := newTestRegistry()
	a := &mockClient{id: "a"}
	b := &mockClient{id: "b"}
	h.Register(a)
	h.Register(b)
	h.Join("room1", a)

	h.BroadcastAll(context.Background(), map[string]string{"type": "presence_update"})

	assert.Len(t, a.getReceived(), 1)
	assert.Len(t, b.getReceived(), 1)
}

func TestRegistry_WorkerLifecycle(t *testing.T) {
	h := newTestRegistry()

	var started atomic.Int32
	cancelled := make(chan struct{})
	h.RunWorker(func(ctx context.Context, roomID string) error {
		started.Add(1)
		<-ctx.Done()
		close(cancelled)
		return nil
	})

	a := &mockClient{id: "a"}
	b := &mockClient{id: "b"}
	h.Register(a)
	h.Register(b)
	h.Join("room1", a)
	h.Join("room1", b)

	require.Eventually(t, func() bool { return started.Load() == 1 }, time.Second, 10*time.Millisecond)

	// second member must not spawn a second worker
	assert.Equal(t, int32(1), started.Load())

	h.Unregister("a")
	select {
	case <-cancelled:
		t.Fatal("worker cancelled while room still has members")
	default:
	}

	h.Unregister("b")
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("worker not cancelled after room emptied")
	}
}
