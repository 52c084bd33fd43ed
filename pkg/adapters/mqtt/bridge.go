package mqtt

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/aretw0/tendril/internal/logging"
	paho "github.com/eclipse/paho.mqtt.golang"
)

// DefaultPrefix is the root of every topic the adapters use.
const DefaultPrefix = "tendril"

// Enqueuer accepts external events. It must be safe for concurrent use:
// paho delivers messages on its own goroutines.
type Enqueuer interface {
	Enqueue(entry string, payload map[string]any) string
}

// Bridge turns messages on <prefix>/events/<entry> into events. The entry
// may be qualified, as in <prefix>/events/<graph>/<entry>. A JSON object
// payload becomes the event payload; any other payload is sent as "value".
type Bridge struct {
	conn   Conn
	sink   Enqueuer
	prefix string
	logger *slog.Logger
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithPrefix sets the topic root.
func WithPrefix(prefix string) BridgeOption {
	return func(b *Bridge) { b.prefix = prefix }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) BridgeOption {
	return func(b *Bridge) { b.logger = l }
}

// NewBridge creates a bridge feeding sink.
func NewBridge(conn Conn, sink Enqueuer, opts ...BridgeOption) *Bridge {
	b := &Bridge{conn: conn, sink: sink, prefix: DefaultPrefix, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Topic is the subscription filter.
func (b *Bridge) Topic() string {
	return b.prefix + "/events/#"
}

// Start subscribes to the event topics.
func (b *Bridge) Start() error {
	if err := wait(b.conn.Subscribe(b.Topic(), 1, b.handle), "subscribe "+b.Topic()); err != nil {
		return err
	}
	b.logger.Info("mqtt bridge subscribed", "topic", b.Topic())
	return nil
}

// Stop unsubscribes.
func (b *Bridge) Stop() error {
	return wait(b.conn.Unsubscribe(b.Topic()), "unsubscribe "+b.Topic())
}

func (b *Bridge) handle(_ paho.Client, msg paho.Message) {
	entry := strings.TrimPrefix(msg.Topic(), b.prefix+"/events/")
	if entry == "" || entry == msg.Topic() {
		b.logger.Warn("mqtt message without entry", "topic", msg.Topic())
		return
	}
	id := b.sink.Enqueue(entry, decodePayload(msg.Payload()))
	b.logger.Debug("mqtt event enqueued", "topic", msg.Topic(), "entry", entry, "event", id)
}

func decodePayload(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return map[string]any{"value": string(raw)}
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{"value": v}
}
