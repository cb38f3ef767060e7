package devnode

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-ledd/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-ledd/internal/infrastructure/mqtt"
	_ "github.com/nerrad567/gray-logic-ledd/migrations"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "ledd.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

type message struct {
	topic    string
	payload  string
	retained bool
}

// fakeBus is an in-memory broker: retained messages are kept per topic,
// others are appended to sent, and deliver calls the subscribed handler.
type fakeBus struct {
	mu       sync.Mutex
	retained map[string][]byte
	sent     []message
	handlers map[string]mqtt.MessageHandler

	failSubscribe map[string]error
	failPublish   map[string]error
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		retained: make(map[string][]byte),
		handlers: make(map[string]mqtt.MessageHandler),
	}
}

func (b *fakeBus) Publish(topic string, payload []byte, _ byte, retained bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.failPublish[topic]; err != nil {
		return err
	}
	b.sent = append(b.sent, message{topic: topic, payload: string(payload), retained: retained})
	if retained {
		if len(payload) == 0 {
			delete(b.retained, topic)
		} else {
			b.retained[topic] = payload
		}
	}
	return nil
}

func (b *fakeBus) ClearRetained(topic string) error {
	return b.Publish(topic, nil, 1, true)
}

func (b *fakeBus) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.failSubscribe[topic]; err != nil {
		return err
	}
	b.handlers[topic] = handler
	return nil
}

func (b *fakeBus) Unsubscribe(topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.handlers[topic]; !ok {
		return fmt.Errorf("not subscribed to %s", topic)
	}
	delete(b.handlers, topic)
	return nil
}

func (b *fakeBus) deliver(topic, payload string) error {
	b.mu.Lock()
	h, ok := b.handlers[topic]
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("no subscriber for %s", topic)
	}
	return h(topic, []byte(payload))
}

func (b *fakeBus) retainedAt(topic string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.retained[topic]
	return p, ok
}

func (b *fakeBus) subscribed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

// lastSent returns the most recent non-retained message on topic.
func (b *fakeBus) lastSent(topic string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.sent) - 1; i >= 0; i-- {
		if b.sent[i].topic == topic && !b.sent[i].retained {
			return b.sent[i].payload, true
		}
	}
	return "", false
}
