// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package hub

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/streamhub/server/system"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type chanSink struct {
	ch chan Message
}

func newChanSink() *chanSink {
	return &chanSink{ch: make(chan Message, 64)}
}

func (s *chanSink) Send(m Message) error {
	s.ch <- m
	return nil
}

type errSink struct{}

func (errSink) Send(Message) error {
	return errors.New("sink dead")
}

func waitMessage(t *testing.T, s *chanSink) Message {
	t.Helper()
	select {
	case m := <-s.ch:
		return m
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestFanoutSubscribePublish(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := NewFanout(testLogger, new(system.Info))
	sink := newChanSink()
	sub := f.Register("cl1", sink, nil)
	defer f.Deregister(sub)

	f.Subscribe(sub, "fruit", false)
	require.Equal(t, 1, f.Subscribers("fruit"))

	f.Publish(Message{Topic: "fruit", Payload: []byte("apple")})
	m := waitMessage(t, sink)
	require.Equal(t, "fruit", m.Topic)
	require.Equal(t, []byte("apple"), m.Payload)
}

func TestFanoutPublishUnmatchedTopic(t *testing.T) {
	defer goleak.VerifyNone(t)

	info := new(system.Info)
	f := NewFanout(testLogger, info)
	sink := newChanSink()
	sub := f.Register("cl1", sink, nil)
	defer f.Deregister(sub)

	f.Subscribe(sub, "fruit", false)
	f.Publish(Message{Topic: "veg", Payload: []byte("leek")})

	select {
	case <-sink.ch:
		t.Fatal("received message for unmatched topic")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestFanoutNoLocal(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := NewFanout(testLogger, new(system.Info))
	sink := newChanSink()
	sub := f.Register("cl1", sink, nil)
	defer f.Deregister(sub)

	f.Subscribe(sub, "fruit", true)

	f.Publish(Message{Topic: "fruit", Payload: []byte("own"), Origin: "cl1"})
	f.Publish(Message{Topic: "fruit", Payload: []byte("other"), Origin: "cl2"})

	m := waitMessage(t, sink)
	require.Equal(t, []byte("other"), m.Payload)
}

func TestFanoutUnsubscribe(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := NewFanout(testLogger, new(system.Info))
	sink := newChanSink()
	sub := f.Register("cl1", sink, nil)
	defer f.Deregister(sub)

	f.Subscribe(sub, "fruit", false)
	require.True(t, f.Unsubscribe(sub, "fruit"))
	require.False(t, f.Unsubscribe(sub, "fruit"))
	require.Equal(t, 0, f.Subscribers("fruit"))
}

func TestFanoutSubscriptionCount(t *testing.T) {
	defer goleak.VerifyNone(t)

	info := new(system.Info)
	f := NewFanout(testLogger, info)
	sink := newChanSink()
	sub := f.Register("cl1", sink, nil)

	f.Subscribe(sub, "fruit", false)
	f.Subscribe(sub, "fruit", false) // resubscribe must not double count
	f.Subscribe(sub, "veg", false)
	require.Equal(t, int64(2), atomic.LoadInt64(&info.Subscriptions))

	f.Deregister(sub)
	require.Equal(t, int64(0), atomic.LoadInt64(&info.Subscriptions))
}

func TestFanoutDropsWhenQueueFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	info := new(system.Info)
	f := NewFanout(testLogger, info)
	f.buffer = 1

	release := make(chan struct{})
	blocked := make(chan struct{})
	sink := &blockingSink{release: release, blocked: blocked}

	sub := f.Register("cl1", sink, nil)
	f.Subscribe(sub, "fruit", false)

	f.Publish(Message{Topic: "fruit"}) // taken by the writer
	<-blocked
	f.Publish(Message{Topic: "fruit"}) // fills the queue
	f.Publish(Message{Topic: "fruit"}) // dropped

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&info.MessagesDropped) >= 1
	}, time.Second, time.Millisecond)

	close(release)
	f.Deregister(sub)
}

type blockingSink struct {
	release chan struct{}
	blocked chan struct{}
	once    bool
}

func (s *blockingSink) Send(Message) error {
	if !s.once {
		s.once = true
		close(s.blocked)
	}
	<-s.release
	return nil
}

func TestFanoutDeliveryOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := NewFanout(testLogger, new(system.Info))
	sink := newChanSink()
	sub := f.Register("cl1", sink, nil)
	defer f.Deregister(sub)

	f.Subscribe(sub, "fruit", false)

	const total = 100
	for i := 0; i < total; i++ {
		f.Publish(Message{Topic: "fruit", Payload: []byte{byte(i)}})
	}

	for i := 0; i < total; i++ {
		m := waitMessage(t, sink)
		require.Equal(t, []byte{byte(i)}, m.Payload)
	}
}

func TestFanoutConcurrentDeregister(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := NewFanout(testLogger, new(system.Info))

	const total = 200

	kept := newChanSink()
	keeper := f.Register("keeper", kept, nil)
	f.Subscribe(keeper, "fruit", false)

	churn := make([]*Subscriber, 8)
	for i := range churn {
		churn[i] = f.Register("", &chanSink{ch: make(chan Message, total)}, nil)
		f.Subscribe(churn[i], "fruit", false)
	}

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < total/4; i++ {
				f.Publish(Message{Topic: "fruit", Payload: []byte("x")})
			}
		}()
	}
	for _, sub := range churn {
		wg.Add(1)
		go func(sub *Subscriber) {
			defer wg.Done()
			f.Deregister(sub)
		}(sub)
	}
	wg.Wait()

	// the surviving subscriber still receives every message
	for i := 0; i < total; i++ {
		waitMessage(t, kept)
	}

	f.Deregister(keeper)
	require.Equal(t, 0, f.Subscribers("fruit"))
}

func TestFanoutSendErrorDeregisters(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := NewFanout(testLogger, new(system.Info))
	sub := f.Register("cl1", errSink{}, nil)
	f.Subscribe(sub, "fruit", false)

	f.Publish(Message{Topic: "fruit"})

	require.Eventually(t, func() bool {
		return f.Subscribers("fruit") == 0
	}, time.Second, time.Millisecond)
}

func TestFanoutClosedCallbackOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := NewFanout(testLogger, new(system.Info))

	var calls int32
	done := make(chan struct{})
	sub := f.Register("cl1", newChanSink(), func(*Subscriber) {
		atomic.AddInt32(&calls, 1)
		close(done)
	})
	f.Subscribe(sub, "fruit", false)

	f.Deregister(sub)
	f.Deregister(sub)
	<-done

	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Equal(t, 0, f.Subscribers("fruit"))
}
