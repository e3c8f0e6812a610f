// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

// Package hub provides a multi-protocol publish/subscribe broker. Messages
// published over the binary websocket protocol or the events HTTP API fan
// out to every subscriber of the topic on either frontend, with a single
// retained message per topic held in a pluggable store.
package hub

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/streamhub/server/auth"
	"github.com/streamhub/server/listeners"
	"github.com/streamhub/server/packets"
	"github.com/streamhub/server/storage"
	"github.com/streamhub/server/storage/memory"
	"github.com/streamhub/server/system"
)

const (
	Version = "1.0.0" // the current server version.

	// defaultKeepAliveInterval is the interval in seconds between keep-alive
	// events on idle event streams.
	defaultKeepAliveInterval int64 = 30

	// TopicsMaxPerRequest is the maximum number of topics one event stream
	// request may subscribe to.
	TopicsMaxPerRequest = 10

	// readBufferSize is the size of the per-connection read buffer for the
	// binary protocol.
	readBufferSize = 2048
)

var (
	ErrListenerIDExists = errors.New("listener id already exists") // a listener with the same id already exists
	ErrConnectionClosed = errors.New("connection not open")        // connection is closed
	ErrMessageTooLarge  = errors.New("message too large")          // payload exceeds the message size limit
)

// Options contains configurable options for the server.
type Options struct {
	// Listeners specifies any listeners which should be dynamically added on
	// serve. Used when setting listeners by config.
	Listeners []listeners.Config `yaml:"listeners" json:"listeners"`

	// Store is the retained message and signing key store. A non-durable
	// in-memory store is used if none is provided.
	Store storage.Store `yaml:"-" json:"-"`

	// AdminToken is the platform credential required to provision signing
	// keys. Key provisioning is disabled when empty.
	AdminToken string `yaml:"admin_token" json:"admin_token"`

	// KeepAliveInterval specifies the interval in seconds between keep-alive
	// events written to idle event streams.
	KeepAliveInterval int64 `yaml:"keep_alive_interval" json:"keep_alive_interval"`

	// Logger specifies a custom configured implementation of log/slog to
	// override the server's default logger configuration.
	Logger *slog.Logger `yaml:"-" json:"-"`
}

// Server is the broker server. It should be created with hub.New() in order
// to ensure all the internal fields are correctly populated.
type Server struct {
	Options   *Options             // configurable server options
	Listeners *listeners.Listeners // listeners are network interfaces which listen for new connections
	Fanout    *Fanout              // the shared per-topic subscriber registry
	Store     storage.Store        // the retained message and signing key store
	Validator *auth.Validator      // verifies bearer tokens against stored signing keys
	Info      *system.Info         // runtime counters about the server
	Log       *slog.Logger         // a structured logger for the server
	done      chan bool            // indicate that the server is ending
}

// New returns a new instance of the broker. Optional parameters can be
// specified to override some default settings (see Options).
func New(opts *Options) *Server {
	if opts == nil {
		opts = new(Options)
	}

	opts.ensureDefaults()

	s := &Server{
		done:      make(chan bool),
		Options:   opts,
		Listeners: listeners.New(),
		Store:     opts.Store,
		Info: &system.Info{
			Version: Version,
			Started: time.Now().Unix(),
		},
		Log: opts.Logger,
	}

	s.Fanout = NewFanout(s.Log, s.Info)
	s.Validator = auth.NewValidator(&storeKeys{store: s.Store})

	return s
}

// ensureDefaults ensures that the server starts with sane default values, if
// none are provided.
func (o *Options) ensureDefaults() {
	if o.Store == nil {
		o.Store = memory.New()
	}

	if o.KeepAliveInterval == 0 {
		o.KeepAliveInterval = defaultKeepAliveInterval
	}

	if o.Logger == nil {
		log := slog.New(slog.NewTextHandler(os.Stdout, nil))
		o.Logger = log
	}
}

// AddListener adds a new network listener to the server, for receiving
// incoming client connections.
func (s *Server) AddListener(l listeners.Listener) error {
	if _, ok := s.Listeners.Get(l.ID()); ok {
		return ErrListenerIDExists
	}

	nl := s.Log.With(slog.String("listener", l.ID()))
	err := l.Init(nl)
	if err != nil {
		return err
	}

	s.Listeners.Add(l)

	s.Log.Info("attached listener", "id", l.ID(), "protocol", l.Protocol(), "address", l.Address())
	return nil
}

// AddListenersFromConfig adds listeners to the server which were specified in
// the listeners config (usually from a config file). New built-in listeners
// should be added to this list.
func (s *Server) AddListenersFromConfig(configs []listeners.Config) error {
	for _, conf := range configs {
		var l listeners.Listener
		switch strings.ToLower(conf.Type) {
		case listeners.TypeWS:
			l = listeners.NewWebsocket(conf)
		case listeners.TypeEvents:
			l = listeners.NewHTTPEvents(conf, s.EventsHandler())
		case listeners.TypeHealthCheck:
			l = listeners.NewHTTPHealthCheck(conf)
		default:
			s.Log.Error("listener type unavailable by config", "listener", conf.Type)
			continue
		}
		if err := s.AddListener(l); err != nil {
			return err
		}
	}
	return nil
}

// Serve opens the store and starts all attached listeners establishing
// client connections.
func (s *Server) Serve() error {
	s.Log.Info("streamhub starting", "version", Version)
	defer s.Log.Info("streamhub server started")

	if err := s.Store.Open(); err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	if len(s.Options.Listeners) > 0 {
		err := s.AddListenersFromConfig(s.Options.Listeners)
		if err != nil {
			return err
		}
	}

	go s.eventLoop()
	s.Listeners.ServeAll(s.EstablishConnection)

	return nil
}

// eventLoop refreshes the runtime counters at an interval until the server
// closes.
func (s *Server) eventLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.refreshInfo()
		}
	}
}

// refreshInfo updates the uptime and memory values of the server info.
func (s *Server) refreshInfo() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	atomic.StoreInt64(&s.Info.Time, time.Now().Unix())
	atomic.StoreInt64(&s.Info.Uptime, time.Now().Unix()-atomic.LoadInt64(&s.Info.Started))
	atomic.StoreInt64(&s.Info.MemoryAlloc, int64(m.HeapInuse))
	atomic.StoreInt64(&s.Info.Threads, int64(runtime.NumGoroutine()))
}

// Close attempts to gracefully shut down the server, all listeners, clients,
// and the store.
func (s *Server) Close() error {
	close(s.done)
	s.Listeners.CloseAll(func(id string) {})
	err := s.Store.Close()
	s.Log.Info("streamhub server stopped")
	return err
}

// Publish routes a message from the events HTTP API into the broker. When
// the message is marked retained it is written to the store first, and a
// store failure fails the publish without delivering to live subscribers.
func (s *Server) Publish(ctx context.Context, m Message) error {
	if len(m.Payload) > MessageSizeMax {
		return ErrMessageTooLarge
	}

	if m.Created.IsZero() {
		m.Created = time.Now()
	}

	if m.Retain {
		r := storage.Record{
			Topic:   m.Topic,
			Payload: m.Payload,
			Created: m.Created.Unix(),
		}
		if m.TTLFlag {
			r.ExpiresAt = m.Created.Unix() + int64(m.TTL)
		}

		if err := s.Store.PutRetained(ctx, r); err != nil {
			return fmt.Errorf("store retained: %w", err)
		}
		atomic.AddInt64(&s.Info.Retained, 1)
	}

	atomic.AddInt64(&s.Info.MessagesReceived, 1)
	s.Fanout.Publish(m)
	return nil
}

// EstablishConnection establishes a new binary protocol client when a
// listener accepts a new connection.
func (s *Server) EstablishConnection(listener string, c net.Conn) error {
	s.Listeners.ClientsWg.Add(1)
	defer s.Listeners.ClientsWg.Done()

	atomic.AddInt64(&s.Info.SubscribersConnected, 1)
	atomic.AddInt64(&s.Info.SubscribersTotal, 1)
	if n := atomic.LoadInt64(&s.Info.SubscribersConnected); n > atomic.LoadInt64(&s.Info.SubscribersMaximum) {
		atomic.StoreInt64(&s.Info.SubscribersMaximum, n)
	}
	defer atomic.AddInt64(&s.Info.SubscribersConnected, -1)

	sink := newPacketSink(c, s.Info)
	sub := s.Fanout.Register("", sink, nil)
	defer s.Fanout.Deregister(sub)
	defer c.Close()

	session := NewSession(SessionOptions{
		Log:       s.Log.With(slog.String("listener", listener)),
		Info:      s.Info,
		Validator: s.Validator,
		Store:     s.Store,
		Publish: func(ctx context.Context, m Message) {
			s.Fanout.Publish(m)
		},
		OnSubscribe: func(topic string, noLocal bool) {
			s.Fanout.Subscribe(sub, topic, noLocal)
		},
		OnUnsubscribe: func(topic string) {
			s.Fanout.Unsubscribe(sub, topic)
		},
	})

	ctx := context.Background()
	buf := make([]byte, readBufferSize)

	for {
		if d := session.ReadDeadline(); d > 0 {
			_ = c.SetReadDeadline(time.Now().Add(d))
		}

		n, err := c.Read(buf)
		if err != nil {
			return nil
		}
		atomic.AddInt64(&s.Info.BytesReceived, int64(n))

		pks, ferr := session.Feed(buf[:n])
		for _, pk := range pks {
			out, disconnect := session.HandlePacket(ctx, pk)

			// the client id is fixed at connect, before the first subscribe
			// can expose the subscriber to publisher goroutines. it must
			// never be rewritten after that.
			if _, ok := pk.(*packets.ConnectPacket); ok && sub.ClientID == "" {
				sub.ClientID = session.ClientID()
			}

			for _, o := range out {
				if err := sink.writePacket(o); err != nil {
					return nil
				}
			}

			if disconnect {
				return nil
			}
		}

		if ferr != nil {
			s.Log.Debug("closing connection", "listener", listener, "error", ferr)
			return nil
		}
	}
}

// packetSink frames fanout messages as publish packets onto one binary
// protocol connection. Writes from the session loop and the subscriber's
// writer goroutine are serialized by a mutex.
type packetSink struct {
	mu   sync.Mutex
	c    net.Conn
	info *system.Info
}

func newPacketSink(c net.Conn, info *system.Info) *packetSink {
	return &packetSink{c: c, info: info}
}

// Send frames a fanout message as a publish packet and writes it.
func (p *packetSink) Send(m Message) error {
	return p.writePacket(&packets.PublishPacket{
		FixedHeader:           packets.FixedHeader{Retain: m.Retain},
		TopicName:             m.Topic,
		Payload:               m.Payload,
		MessageExpiryInterval: m.TTL,
		MessageExpiryFlag:     m.TTLFlag,
	})
}

// writePacket encodes and writes one packet to the connection.
func (p *packetSink) writePacket(pk packets.Packet) error {
	buf, err := packets.Encode(pk)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := p.c.Write(buf)
	if err != nil {
		return err
	}

	atomic.AddInt64(&p.info.BytesSent, int64(n))
	atomic.AddInt64(&p.info.PacketsSent, 1)
	return nil
}

// storeKeys adapts the storage layer to the validator's key store contract.
type storeKeys struct {
	store storage.Store
}

// SigningKey looks up signing key material by key id.
func (k *storeKeys) SigningKey(ctx context.Context, id string) ([]byte, error) {
	secret, err := k.store.SigningKey(ctx, id)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		return nil, auth.ErrUnknownKey
	case err != nil:
		return nil, fmt.Errorf("%w: %s", auth.ErrStoreUnavailable, err)
	}
	return secret, nil
}
