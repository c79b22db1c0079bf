// Package broker owns the bridge's single broker session: connection state,
// reconnection, the topic registry and message dispatch.
package broker

import (
	"errors"
)

// State represents the current state of the broker connection
type State string

const (
	// StateDisconnected indicates the broker is not connected and no
	// connection attempt is pending
	StateDisconnected State = "disconnected"
	// StateConnecting indicates the initial connection attempt is in flight
	StateConnecting State = "connecting"
	// StateConnected indicates the session is up and subscriptions are replayed
	StateConnected State = "connected"
	// StateReconnecting indicates the session was lost or an attempt failed
	// and the reconnect policy is running
	StateReconnecting State = "reconnecting"
)

// Handler is invoked for every message arriving on its exact topic.
type Handler func(topic string, payload []byte)

// PublishOptions controls a single publish.
type PublishOptions struct {
	Retain bool
}

var (
	// ErrNotConnected is returned by Publish when the message was dropped
	// because the session is not connected. Nothing is queued.
	ErrNotConnected = errors.New("broker not connected, message dropped")

	// ErrRetryExhausted is logged when the reconnect budget runs out.
	ErrRetryExhausted = errors.New("reconnect attempts exhausted")

	// ErrInvalidTopic is returned for empty or wildcard topics.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrNilHandler is returned when subscribing without a handler.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrClosed is returned by Acquire after the provider was closed.
	ErrClosed = errors.New("connection provider closed")
)
