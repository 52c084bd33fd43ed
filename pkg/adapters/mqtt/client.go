package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// DefaultTimeout bounds every broker round trip.
const DefaultTimeout = 10 * time.Second

// Conn is the part of paho.Client the adapters use.
type Conn interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
}

// Dial creates a paho client for broker and connects it.
func Dial(broker, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	client := paho.NewClient(opts)
	if err := wait(client.Connect(), "connect "+broker); err != nil {
		return nil, err
	}
	return client, nil
}

// TimeoutError reports a broker operation that did not complete in time.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return "mqtt " + e.Op + " timeout"
}

func wait(token paho.Token, op string) error {
	if !token.WaitTimeout(DefaultTimeout) {
		return &TimeoutError{Op: op}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt %s: %w", op, err)
	}
	return nil
}
