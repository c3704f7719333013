// Package realtime streams payment status and plan changes to connected clients.
package realtime

import (
	"sync"
)

// Topic names.
func PaymentTopic(billingID string) string { return "payment:" + billingID }
func PlanTopic(userID string) string       { return "plan:" + userID }

const sendBuffer = 16

// Subscription receives the messages published on its topics. C is closed when the
// subscription ends, either by Close or because the reader fell behind.
type Subscription struct {
	C      <-chan []byte
	ch     chan []byte
	hub    *Hub
	topics []string
	once   sync.Once
}

// Close detaches the subscription from the hub.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Hub fans messages out to subscribers by topic.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers interest in topics.
func (h *Hub) Subscribe(topics ...string) *Subscription {
	ch := make(chan []byte, sendBuffer)
	s := &Subscription{C: ch, ch: ch, hub: h, topics: topics}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range topics {
		subs, ok := h.topics[t]
		if !ok {
			subs = make(map[*Subscription]struct{})
			h.topics[t] = subs
		}
		subs[s] = struct{}{}
	}
	return s
}

// Publish delivers msg to every subscriber of topic and returns how many got it.
// A subscriber whose buffer is full is dropped.
func (h *Hub) Publish(topic string, msg []byte) int {
	h.mu.RLock()
	var slow []*Subscription
	n := 0
	for s := range h.topics[topic] {
		select {
		case s.ch <- msg:
			n++
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.remove(s)
	}
	return n
}

// Subscribers counts the subscribers of topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) remove(s *Subscription) {
	s.once.Do(func() {
		h.mu.Lock()
		for _, t := range s.topics {
			if subs, ok := h.topics[t]; ok {
				delete(subs, s)
				if len(subs) == 0 {
					delete(h.topics, t)
				}
			}
		}
		close(s.ch)
		h.mu.Unlock()
	})
}
