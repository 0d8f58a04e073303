package graphql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/okian/rangeboard/pkg/logger"
	"github.com/okian/rangeboard/pkg/metrics"
)

// Subprotocol is the graphql-transport-ws websocket subprotocol.
const Subprotocol = "graphql-transport-ws"

// graphql-transport-ws message types.
const (
	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgPing           = "ping"
	msgPong           = "pong"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"
)

const defaultAckTimeout = 10 * time.Second

// Message is one graphql-transport-ws frame.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Subscriber opens live-update subscriptions over websocket.
type Subscriber struct {
	url        string
	ackTimeout time.Duration
	log        logger.Logger
}

// NewSubscriber creates a Subscriber for the websocket URL.
func NewSubscriber(url string, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{url: url, ackTimeout: defaultAckTimeout, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe holds one subscription to topic and calls onEvent for every
// notification. A Resync event is delivered first, once the subscription
// is accepted. It returns nil when ctx ends or the server completes the
// stream, and an ErrSubscription error for protocol or connection failures.
// The caller decides whether to reconnect.
func (s *Subscriber) Subscribe(ctx context.Context, topic string, onEvent func(model.ChangeEvent)) error {
	conn, _, err := websocket.Dial(ctx, s.url, &websocket.DialOptions{Subprotocols: []string{Subprotocol}})
	if err != nil {
		return s.fail(ctx, topic, fmt.Errorf("dial: %w", err))
	}
	defer func() { _ = conn.CloseNow() }()

	if err := write(ctx, conn, Message{Type: msgConnectionInit, Payload: json.RawMessage(`{}`)}); err != nil {
		return s.fail(ctx, topic, fmt.Errorf("connection_init: %w", err))
	}
	if err := s.awaitAck(ctx, conn); err != nil {
		return s.fail(ctx, topic, err)
	}

	id := uuid.NewString()
	payload, err := json.Marshal(request{Query: subscriptionQuery(topic)})
	if err != nil {
		return s.fail(ctx, topic, err)
	}
	if err := write(ctx, conn, Message{ID: id, Type: msgSubscribe, Payload: payload}); err != nil {
		return s.fail(ctx, topic, fmt.Errorf("subscribe: %w", err))
	}
	s.log.Info(ctx, "subscription started", logger.String("topic", topic), logger.String("id", id))
	metrics.SetSubscriptionConnected(topic, true)
	defer metrics.SetSubscriptionConnected(topic, false)
	onEvent(model.ChangeEvent{Topic: topic, ReceivedAt: time.Now(), Resync: true})

	for {
		msg, err := read(ctx, conn)
		if err != nil {
			return s.fail(ctx, topic, err)
		}
		switch msg.Type {
		case msgNext:
			if msg.ID == id {
				onEvent(model.ChangeEvent{Topic: topic, ReceivedAt: time.Now()})
			}
		case msgPing:
			if err := write(ctx, conn, Message{Type: msgPong}); err != nil {
				return s.fail(ctx, topic, fmt.Errorf("pong: %w", err))
			}
		case msgError:
			return s.fail(ctx, topic, fmt.Errorf("server error: %s", string(msg.Payload)))
		case msgComplete:
			if msg.ID == id {
				s.log.Info(ctx, "subscription completed by server", logger.String("topic", topic))
				_ = conn.Close(websocket.StatusNormalClosure, "complete")
				return nil
			}
		}
	}
}

func (s *Subscriber) awaitAck(ctx context.Context, conn *websocket.Conn) error {
	ackCtx, cancel := context.WithTimeout(ctx, s.ackTimeout)
	defer cancel()
	for {
		msg, err := read(ackCtx, conn)
		if err != nil {
			return fmt.Errorf("awaiting connection_ack: %w", err)
		}
		switch msg.Type {
		case msgConnectionAck:
			return nil
		case msgPing:
			if err := write(ackCtx, conn, Message{Type: msgPong}); err != nil {
				return fmt.Errorf("pong: %w", err)
			}
		default:
			return fmt.Errorf("unexpected %q before connection_ack", msg.Type)
		}
	}
}

// fail wraps err as an ErrSubscription error unless ctx has ended.
func (s *Subscriber) fail(ctx context.Context, topic string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return newError(ErrSubscription, topic, err)
}

func write(ctx context.Context, conn *websocket.Conn, msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, b)
}

func read(ctx context.Context, conn *websocket.Conn) (Message, error) {
	var msg Message
	_, data, err := conn.Read(ctx)
	if err != nil {
		return msg, err
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return msg, nil
}
