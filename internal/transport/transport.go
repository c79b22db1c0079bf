// Package transport defines the wire session the broker connection manager
// drives. Implementations live in the mqtt and nats subpackages.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConnected is returned by operations attempted without a live session.
var ErrNotConnected = errors.New("transport not connected")

// MessageHandler receives every inbound message on a subscribed topic.
type MessageHandler func(topic string, payload []byte)

// Events are the callbacks a transport invokes on the connection manager.
type Events struct {
	OnMessage        MessageHandler
	OnConnectionLost func(err error)
}

// Transport is one broker session. Implementations do not reconnect on their
// own; the connection manager owns the retry policy and calls Connect again.
type Transport interface {
	Connect(ctx context.Context) error
	Subscribe(topic string) error
	Publish(topic string, payload []byte, retain bool) error
	IsConnected() bool
	Disconnect()
}

// Error is a transport-level failure: connect, subscribe or publish.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
