// Package bus publishes schema and capsule events on NATS JetStream.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	StreamName = "PROMPTERLY"

	SubjectCapsuleUnlocked = "prompterly.capsules.unlocked"
	SubjectSchemaMigrated  = "prompterly.schema.migrated"
)

// Event is the envelope every message travels in.
type Event struct {
	ID         string          `json:"id"`
	Subject    string          `json:"subject"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// NewEvent wraps v in an envelope with a fresh id.
func NewEvent(subj string, v any, now time.Time) (Event, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", subj, err)
	}
	return Event{ID: uuid.NewString(), Subject: subj, OccurredAt: now.UTC(), Data: data}, nil
}

// Decode unmarshals the payload of e into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// CapsuleUnlocked is published after a capsule unlock commits.
type CapsuleUnlocked struct {
	CapsuleID      uint64 `json:"capsule_id"`
	UserID         uint64 `json:"user_id"`
	NotificationID uint64 `json:"notification_id"`
}

// SchemaMigrated is published after a migration run changes the version.
type SchemaMigrated struct {
	From      int64  `json:"from"`
	To        int64  `json:"to"`
	Direction string `json:"direction"`
}

// Publisher is what producers depend on; *Bus implements it.
type Publisher interface {
	Publish(ctx context.Context, subj string, v any) error
}

// Bus wraps a NATS JetStream connection for publishing and consuming events.
type Bus struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// New creates a Bus connected to the provided NATS endpoint and makes sure
// the event stream exists.
func New(url string, opts ...nats.Option) (*Bus, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	b := &Bus{conn: nc, js: js}
	if err := b.ensureStream(); err != nil {
		nc.Close()
		return nil, err
	}
	return b, nil
}

func (b *Bus) ensureStream() error {
	_, err := b.js.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info: %w", err)
	}
	_, err = b.js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"prompterly.>"},
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("add stream: %w", err)
	}
	return nil
}

// Close shuts down the underlying NATS connection.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}

// Publish wraps v in an Event and publishes it to the given subject. The
// event id doubles as the JetStream message id for deduplication.
func (b *Bus) Publish(ctx context.Context, subj string, v any) error {
	if b == nil {
		return errors.New("nil bus")
	}

	evt, err := NewEvent(subj, v, time.Now())
	if err != nil {
		return err
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	_, err = b.js.Publish(subj, data, nats.Context(ctx), nats.MsgId(evt.ID))
	return err
}

type subscription struct {
	sub    *nats.Subscription
	mu     sync.Mutex
	closed bool
}

func (s *subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.sub.Drain()
}

// Subscribe creates a durable consumer on the given subject and invokes fn for
// each event. A handler error naks the message for redelivery; a message that
// is not an Event is terminated.
func (b *Bus) Subscribe(ctx context.Context, subj, durable string, fn func(ctx context.Context, evt Event) error) (io.Closer, error) {
	if b == nil {
		return nil, errors.New("nil bus")
	}
	if fn == nil {
		return nil, errors.New("nil handler")
	}

	handler := func(msg *nats.Msg) {
		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		var evt Event
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			_ = msg.Term()
			return
		}
		if err := fn(handlerCtx, evt); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}

	sub, err := b.js.Subscribe(subj, handler, nats.Durable(durable), nats.ManualAck(), nats.AckExplicit())
	if err != nil {
		return nil, err
	}

	s := &subscription{sub: sub}

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	return s, nil
}
