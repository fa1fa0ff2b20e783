package services

import (
	"context"
	"sync"
	"time"

	"github.com/Billy-Gatez/spacebook-social/internal/core/contracts"
)

// fakeClient records what was sent to it. Payloads arrive as JSON bytes
// when pushed through the real wire path and as typed events when pushed
// through the fake registry, so both are kept.
type fakeClient struct {
	sessionID   string
	userID      string
	displayName string

	mu      sync.Mutex
	sent    [][]byte
	sendErr error
}

func (f *fakeClient) SessionID() string   { return f.sessionID }
func (f *fakeClient) UserID() string      { return f.userID }
func (f *fakeClient) DisplayName() string { return f.displayName }
func (f *fakeClient) Close()              {}

func (f *fakeClient) Send(_ context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakeClient) sentFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

type broadcastCall struct {
	roomID  string
	event   any
	exclude string
}

type sendToCall struct {
	sessionID string
	event     any
}

// fakeRegistry records fan-out calls instead of delivering them.
type fakeRegistry struct {
	mu         sync.Mutex
	joined     map[string][]string // roomID → sessionIDs
	left       map[string][]string
	broadcasts []broadcastCall
	allEvents  []any
	sends      []sendToCall
	sendToOK   bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		joined:   make(map[string][]string),
		left:     make(map[string][]string),
		sendToOK: true,
	}
}

func (f *fakeRegistry) Register(contracts.Client) {}
func (f *fakeRegistry) Unregister(string)         {}

func (f *fakeRegistry) Join(roomID string, c contracts.Client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined[roomID] = append(f.joined[roomID], c.SessionID())
}

func (f *fakeRegistry) Leave(roomID, sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left[roomID] = append(f.left[roomID], sessionID)
}

func (f *fakeRegistry) Broadcast(_ context.Context, roomID string, event any, exclude string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, broadcastCall{roomID: roomID, event: event, exclude: exclude})
}

func (f *fakeRegistry) BroadcastAll(_ context.Context, event any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allEvents = append(f.allEvents, event)
}

func (f *fakeRegistry) SendTo(_ context.Context, sessionID string, event any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sendToCall{sessionID: sessionID, event: event})
	return f.sendToOK
}

// fakePresenceStore mirrors the Redis presence plugin in memory.
type fakePresenceStore struct {
	mu     sync.Mutex
	online map[string]int // userID → MarkOnline call count
	err    error
}

func newFakePresenceStore() *fakePresenceStore {
	return &fakePresenceStore{online: make(map[string]int)}
}

func (f *fakePresenceStore) MarkOnline(_ context.Context, userID string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.online[userID]++
	return nil
}

func (f *fakePresenceStore) MarkOffline(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.online, userID)
	return nil
}

func (f *fakePresenceStore) OnlineUsers(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	users := make([]string, 0, len(f.online))
	for u := range f.online {
		users = append(users, u)
	}
	return users, nil
}

type publishedEntry struct {
	topic   string
	payload []byte
}

// fakeQueue records publishes; Subscribe is not used in service tests.
type fakeQueue struct {
	mu         sync.Mutex
	published  []publishedEntry
	publishErr error
	deleted    []string
}

func (f *fakeQueue) PublishToStream(_ context.Context, topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, publishedEntry{topic: topic, payload: payload})
	return nil
}

func (f *fakeQueue) SubscribeToStream(ctx context.Context, _, _ string, _ func(context.Context, string, []byte) error) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeQueue) AcknowledgeMessage(context.Context, string, string, string) error { return nil }
func (f *fakeQueue) DeleteMessage(context.Context, string, string) error              { return nil }

func (f *fakeQueue) DeleteStream(_ context.Context, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, topic)
	return nil
}

// passthroughTx runs the function without a real transaction.
type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

var _ contracts.Registry = (*fakeRegistry)(nil)
var _ contracts.Client = (*fakeClient)(nil)
var _ contracts.PresenceStore = (*fakePresenceStore)(nil)
var _ contracts.MessageQueue = (*fakeQueue)(nil)
var _ Transactor = passthroughTx{}
