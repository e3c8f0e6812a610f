// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package hub

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"

	"github.com/streamhub/server/system"
)

// defaultSubscriberBuffer is the number of undelivered messages a
// subscriber may have pending before further messages to it are dropped.
const defaultSubscriberBuffer = 1024

// Sink writes one framed message to a subscriber's connection. Send is
// called from the subscriber's own writer goroutine only, so
// implementations do not need to serialize against the fanout. A returned
// error marks the subscriber dead and deregisters it.
type Sink interface {
	Send(m Message) error
}

// Subscriber is one registered delivery target. Each subscriber owns a
// buffered queue and a writer goroutine, so a slow or stalled connection
// never applies backpressure to publishers or to other subscribers.
type Subscriber struct {
	ID       string // unique subscriber id
	ClientID string // protocol-level client id, used for no-local filtering

	sink   Sink
	ch     chan Message
	done   chan struct{}
	once   sync.Once
	closed func(*Subscriber)
}

// subEntry is a subscriber's registration against one topic.
type subEntry struct {
	sub     *Subscriber
	noLocal bool
}

// Fanout is the shared per-topic subscriber registry. Registration and
// deregistration interleave freely with publishes; a publish racing a
// deregistration may enqueue to a subscriber that is already closing,
// which is tolerated and dropped.
type Fanout struct {
	log    *slog.Logger
	info   *system.Info
	buffer int

	mu     sync.RWMutex
	topics map[string]map[string]*subEntry
}

// NewFanout returns a new fanout registry.
func NewFanout(log *slog.Logger, info *system.Info) *Fanout {
	if log == nil {
		log = slog.Default()
	}
	if info == nil {
		info = new(system.Info)
	}
	return &Fanout{
		log:    log,
		info:   info,
		buffer: defaultSubscriberBuffer,
		topics: map[string]map[string]*subEntry{},
	}
}

// Register creates a subscriber around a sink and starts its writer
// goroutine. The subscriber receives nothing until Subscribe is called for
// a topic. closed, if not nil, is invoked once from the writer goroutine
// after it exits, so callers may wait on it before releasing the sink's
// underlying writer.
func (f *Fanout) Register(clientID string, sink Sink, closed func(*Subscriber)) *Subscriber {
	sub := &Subscriber{
		ID:       xid.New().String(),
		ClientID: clientID,
		sink:     sink,
		ch:       make(chan Message, f.buffer),
		done:     make(chan struct{}),
		closed:   closed,
	}

	go f.writeLoop(sub)

	return sub
}

// Subscribe registers the subscriber's interest in a topic.
func (f *Fanout) Subscribe(sub *Subscriber, topic string, noLocal bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, ok := f.topics[topic]
	if !ok {
		entries = map[string]*subEntry{}
		f.topics[topic] = entries
	}

	if _, ok := entries[sub.ID]; !ok {
		atomic.AddInt64(&f.info.Subscriptions, 1)
	}
	entries[sub.ID] = &subEntry{sub: sub, noLocal: noLocal}
}

// Unsubscribe removes the subscriber's interest in a topic, reporting
// whether a subscription existed.
func (f *Fanout) Unsubscribe(sub *Subscriber, topic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removeSubscription(sub, topic)
}

func (f *Fanout) removeSubscription(sub *Subscriber, topic string) bool {
	entries, ok := f.topics[topic]
	if !ok {
		return false
	}

	if _, ok := entries[sub.ID]; !ok {
		return false
	}

	delete(entries, sub.ID)
	if len(entries) == 0 {
		delete(f.topics, topic)
	}
	atomic.AddInt64(&f.info.Subscriptions, -1)
	return true
}

// Deregister removes the subscriber from every topic and stops its writer
// goroutine. It is safe to call more than once and concurrently with
// publishes.
func (f *Fanout) Deregister(sub *Subscriber) {
	f.mu.Lock()
	for topic, entries := range f.topics {
		if _, ok := entries[sub.ID]; ok {
			f.removeSubscription(sub, topic)
		}
	}
	f.mu.Unlock()

	sub.once.Do(func() {
		close(sub.done)
	})
}

// Publish enqueues the message to every subscriber of its topic. It never
// blocks on a subscriber: a full queue drops the message for that
// subscriber only.
func (f *Fanout) Publish(m Message) {
	f.mu.RLock()
	entries := f.topics[m.Topic]
	targets := make([]*subEntry, 0, len(entries))
	for _, e := range entries {
		targets = append(targets, e)
	}
	f.mu.RUnlock()

	for _, e := range targets {
		if e.noLocal && m.Origin != "" && m.Origin == e.sub.ClientID {
			continue
		}

		select {
		case e.sub.ch <- m:
		case <-e.sub.done:
		default:
			atomic.AddInt64(&f.info.MessagesDropped, 1)
			f.log.Warn("dropped message to slow subscriber", "subscriber", e.sub.ID, "topic", m.Topic)
		}
	}
}

// Subscribers returns the number of subscribers registered for a topic.
func (f *Fanout) Subscribers(topic string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.topics[topic])
}

// writeLoop drains the subscriber's queue into its sink. A write failure
// means the peer is gone; the subscriber is deregistered and the loop
// exits.
func (f *Fanout) writeLoop(sub *Subscriber) {
	defer func() {
		if sub.closed != nil {
			sub.closed(sub)
		}
	}()

	for {
		select {
		case <-sub.done:
			return
		case m := <-sub.ch:
			if err := sub.sink.Send(m); err != nil {
				f.log.Debug("subscriber write failed", "subscriber", sub.ID, "error", err)
				f.Deregister(sub)
				return
			}
			atomic.AddInt64(&f.info.MessagesSent, 1)
		}
	}
}
