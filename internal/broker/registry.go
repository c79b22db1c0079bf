package broker

import (
	"fmt"
	"strings"
	"sync"
)

// Registry maps topics to handlers while remembering registration order.
//
// Each topic holds exactly one handler. Registering a topic again replaces
// its handler (last registration wins) but keeps the topic's original
// position in the order. Two modules claiming the same topic therefore
// silently take it from one another.
type Registry struct {
	order    []string
	handlers map[string]Handler
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Set registers handler for topic and reports whether a previous handler
// was replaced.
func (r *Registry) Set(topic string, handler Handler) (replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, replaced = r.handlers[topic]; !replaced {
		r.order = append(r.order, topic)
	}
	r.handlers[topic] = handler
	return replaced
}

// Get returns the handler for the exact topic, or nil.
func (r *Registry) Get(topic string) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[topic]
}

// Topics returns registered topics in registration order.
func (r *Registry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, len(r.order))
	copy(topics, r.order)
	return topics
}

// Len returns the number of registered topics
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// validateTopicName validates a topic used for exact-match dispatch
func validateTopicName(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: topic cannot be empty", ErrInvalidTopic)
	}

	if strings.Contains(topic, "+") || strings.Contains(topic, "#") {
		return fmt.Errorf("%w: wildcards not allowed in %q", ErrInvalidTopic, topic)
	}

	segments := strings.Split(topic, "/")
	for i, segment := range segments {
		if segment == "" && i != 0 && i != len(segments)-1 {
			return fmt.Errorf("%w: empty segment not allowed in middle of %q", ErrInvalidTopic, topic)
		}
	}

	return nil
}
