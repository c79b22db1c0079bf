// Package hatest provides an in-memory Bus and a recording Executor for
// feature module tests.
package hatest

import (
	"context"
	"sync"

	"ha-host-bridge/internal/broker"
	"ha-host-bridge/internal/executor"
)

// Message is one publish seen by a Bus.
type Message struct {
	Topic   string
	Payload string
	Retain  bool
}

// Bus records subscriptions and publishes. It starts connected; while
// disconnected Publish drops messages like the real connection.
type Bus struct {
	mu           sync.Mutex
	instance     string
	disconnected bool
	topics       []string
	handlers     map[string]broker.Handler
	published    []Message
	hooks        []func()
}

func NewBus(instance string) *Bus {
	return &Bus{
		instance: instance,
		handlers: make(map[string]broker.Handler),
	}
}

func (b *Bus) InstanceName() string { return b.instance }

func (b *Bus) Subscribe(topic string, handler broker.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, topic)
	b.handlers[topic] = handler
	return nil
}

func (b *Bus) Publish(topic string, payload []byte, opts broker.PublishOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disconnected {
		return broker.ErrNotConnected
	}
	b.published = append(b.published, Message{Topic: topic, Payload: string(payload), Retain: opts.Retain})
	return nil
}

func (b *Bus) OnConnect(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks = append(b.hooks, fn)
}

// SetConnected toggles the connection. Going from disconnected to connected
// runs the OnConnect hooks.
func (b *Bus) SetConnected(connected bool) {
	b.mu.Lock()
	wasDown := b.disconnected
	b.disconnected = !connected
	hooks := append([]func(){}, b.hooks...)
	b.mu.Unlock()

	if connected && wasDown {
		for _, hook := range hooks {
			hook()
		}
	}
}

// Deliver invokes the handler registered for topic, as the connection's
// dispatcher would. It reports whether a handler existed.
func (b *Bus) Deliver(topic, payload string) bool {
	b.mu.Lock()
	handler := b.handlers[topic]
	b.mu.Unlock()
	if handler == nil {
		return false
	}
	handler(topic, []byte(payload))
	return true
}

// Subscriptions returns subscribed topics in call order.
func (b *Bus) Subscriptions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.topics...)
}

// Published returns every message published so far.
func (b *Bus) Published() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.published...)
}

// PublishedTo returns the payloads published on topic, in order.
func (b *Bus) PublishedTo(topic string) []string {
	var out []string
	for _, m := range b.Published() {
		if m.Topic == topic {
			out = append(out, m.Payload)
		}
	}
	return out
}

// Reset forgets recorded publishes.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
}

// Executor records commands instead of running them.
type Executor struct {
	mu       sync.Mutex
	commands []string
	failures map[string]error
}

func NewExecutor() *Executor {
	return &Executor{failures: make(map[string]error)}
}

// FailOn makes command return a non-zero exit.
func (e *Executor) FailOn(command string, exitCode int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[command] = &executor.ExecError{Command: command, ExitCode: exitCode, Output: "failed"}
}

func (e *Executor) Run(ctx context.Context, command string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commands = append(e.commands, command)
	if err, ok := e.failures[command]; ok {
		return nil, err
	}
	return nil, nil
}

// Commands returns every command run so far, in order.
func (e *Executor) Commands() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.commands...)
}
