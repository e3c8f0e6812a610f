// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package hub

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/streamhub/server/auth"
	"github.com/streamhub/server/packets"
	"github.com/streamhub/server/storage"
	"github.com/streamhub/server/system"
)

const (
	// PacketSizeMax is the maximum control packet size advertised to
	// clients in the connection acknowledgment.
	PacketSizeMax = 32768

	// MessageSizeMax is the maximum accepted payload size, leaving 256
	// bytes of protocol overhead within PacketSizeMax.
	MessageSizeMax = PacketSizeMax - 256

	// maxPartialBuffer caps the bytes of incomplete packet data a session
	// may accumulate across reads. A packet larger than the cap is still
	// accepted as long as each read completes parsing before the partial
	// remainder exceeds it.
	maxPartialBuffer = 8192
)

// ErrFrameTooLarge indicates a session accumulated more incomplete packet
// data than the partial buffer cap allows.
var ErrFrameTooLarge = errors.New("partial packet buffer exceeded")

// SessionState describes the lifecycle of a protocol session.
type SessionState byte

const (
	StateAwaitingConnect SessionState = iota
	StateConnected
	StateClosed
)

// TokenValidator verifies a bearer token into capabilities.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*auth.Capabilities, error)
}

// sessionSub holds the options of one active subscription in a session.
type sessionSub struct {
	noLocal           bool
	retainAsPublished bool
}

// SessionOptions are the collaborators a session acts through.
type SessionOptions struct {
	Log       *slog.Logger
	Info      *system.Info
	Validator TokenValidator
	Store     storage.Store

	// Publish hands an authorized inbound message to the fanout.
	Publish func(ctx context.Context, m Message)

	// OnSubscribe and OnUnsubscribe mirror accepted subscription changes
	// into the fanout registry.
	OnSubscribe   func(topic string, noLocal bool)
	OnUnsubscribe func(topic string)
}

// Session is the packet-oriented state machine for one binary protocol
// connection. It is owned by the goroutine serving that connection and is
// not safe for concurrent use.
type Session struct {
	opts  SessionOptions
	log   *slog.Logger
	state SessionState

	clientID  string
	token     string
	keepalive uint16
	subs      map[string]sessionSub
	buf       []byte
}

// NewSession returns a session in the awaiting-connect state.
func NewSession(opts SessionOptions) *Session {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Info == nil {
		opts.Info = new(system.Info)
	}
	return &Session{
		opts: opts,
		log:  opts.Log,
		subs: map[string]sessionSub{},
	}
}

// State returns the session's lifecycle state.
func (s *Session) State() SessionState {
	return s.state
}

// ClientID returns the client id presented at connect.
func (s *Session) ClientID() string {
	return s.clientID
}

// Keepalive returns the keep-alive interval in seconds negotiated at
// connect, or 0 if none.
func (s *Session) Keepalive() uint16 {
	return s.keepalive
}

// ReadDeadline returns the duration after which an idle connection should
// be considered dead, at one and a half times the keep-alive interval.
func (s *Session) ReadDeadline() time.Duration {
	if s.keepalive == 0 {
		return 0
	}
	return time.Duration(s.keepalive) * time.Second * 3 / 2
}

// Topics returns the topics the session is currently subscribed to.
func (s *Session) Topics() []string {
	out := make([]string, 0, len(s.subs))
	for topic := range s.subs {
		out = append(out, topic)
	}
	return out
}

// Feed appends bytes from one read to the session buffer and parses as
// many complete packets as it can. Only the incomplete remainder is kept
// across calls; if it ever exceeds the partial buffer cap the session
// fails with ErrFrameTooLarge. A malformed packet fails the session with
// the parse error. In both cases the connection must be closed.
func (s *Session) Feed(data []byte) ([]packets.Packet, error) {
	s.buf = append(s.buf, data...)

	var out []packets.Packet
	for {
		pk, n, err := packets.Parse(s.buf)
		if errors.Is(err, packets.ErrIncomplete) {
			break
		}
		if err != nil {
			return out, err
		}

		atomic.AddInt64(&s.opts.Info.PacketsReceived, 1)
		out = append(out, pk)
		s.buf = s.buf[n:]
	}

	if len(s.buf) > maxPartialBuffer {
		return out, ErrFrameTooLarge
	}

	if len(s.buf) == 0 {
		s.buf = nil
	}

	return out, nil
}

// HandlePacket applies one inbound packet to the session, returning the
// packets to write back and whether the connection must be closed
// afterwards.
func (s *Session) HandlePacket(ctx context.Context, pk packets.Packet) (out []packets.Packet, disconnect bool) {
	switch pk := pk.(type) {
	case *packets.ConnectPacket:
		return s.handleConnect(pk)
	case *packets.DisconnectPacket:
		return s.handleDisconnect(pk)
	case *packets.PingreqPacket:
		return []packets.Packet{&packets.PingrespPacket{}}, false
	case *packets.SubscribePacket:
		return s.handleSubscribe(ctx, pk), false
	case *packets.UnsubscribePacket:
		return s.handleUnsubscribe(pk), false
	case *packets.PublishPacket:
		return s.handlePublish(ctx, pk)
	default:
		s.log.Debug("skipping unsupported packet", "type", packets.Names[pk.Type()])
		return nil, false
	}
}

func (s *Session) handleConnect(pk *packets.ConnectPacket) ([]packets.Packet, bool) {
	if pk.ProtocolVersion != packets.ProtocolVersion5 {
		if pk.ProtocolVersion > packets.ProtocolVersion5 {
			return []packets.Packet{&packets.ConnackPacket{
				ReasonCode: packets.CodeUnsupportedVersion,
			}}, true
		}

		// older clients would misread a v5 connack, so the rejection is
		// framed the way they expect.
		return []packets.Packet{&packets.LegacyConnackPacket{
			ReturnCode: packets.FailedConnackUnacceptableProtocol,
		}}, true
	}

	if s.state == StateConnected {
		return []packets.Packet{&packets.ConnackPacket{
			ReasonCode: packets.CodeProtocolError,
		}}, false
	}

	s.state = StateConnected
	s.clientID = pk.ClientID
	s.keepalive = pk.Keepalive

	if pk.PasswordFlag {
		s.token = pk.Password
	}

	return []packets.Packet{&packets.ConnackPacket{
		ReasonCode:        packets.CodeSuccess,
		MaximumPacketSize: PacketSizeMax,
	}}, false
}

func (s *Session) handleDisconnect(_ *packets.DisconnectPacket) ([]packets.Packet, bool) {
	s.state = StateClosed
	s.token = ""
	s.subs = map[string]sessionSub{}
	return nil, true
}

func (s *Session) handleSubscribe(ctx context.Context, pk *packets.SubscribePacket) []packets.Packet {
	suback := func(reason packets.Code) []packets.Packet {
		return []packets.Packet{&packets.SubackPacket{
			PacketID:   pk.PacketID,
			ReasonCode: reason,
		}}
	}

	if pk.Filter == "" {
		return suback(packets.CodeUnspecifiedError)
	}

	if strings.ContainsAny(pk.Filter, "#+") {
		return suback(packets.CodeWildcardsNotSupported)
	}

	if !s.authorized(ctx, pk.Filter, subscribeOp) {
		atomic.AddInt64(&s.opts.Info.AuthFailures, 1)
		return suback(packets.CodeNotAuthorized)
	}

	var retained *storage.Record
	if s.opts.Store != nil {
		r, err := s.opts.Store.GetRetained(ctx, pk.Filter)
		switch {
		case err == nil:
			retained = &r
		case errors.Is(err, storage.ErrRecordNotFound):
		default:
			s.log.Error("failed to read retained message", "topic", pk.Filter, "error", err)
			return suback(packets.CodeUnspecifiedError)
		}
	}

	s.subs[pk.Filter] = sessionSub{
		noLocal:           pk.NoLocal,
		retainAsPublished: pk.RetainAsPublished,
	}
	if s.opts.OnSubscribe != nil {
		s.opts.OnSubscribe(pk.Filter, pk.NoLocal)
	}

	out := suback(packets.CodeSuccess)

	// retain handling 0 requests the retained message upon subscribing.
	if pk.RetainHandling == packets.RetainHandlingSend && retained != nil {
		m := messageFromRecord(*retained, time.Now())
		out = append(out, &packets.PublishPacket{
			FixedHeader:           packets.FixedHeader{Retain: true},
			TopicName:             m.Topic,
			Payload:               m.Payload,
			MessageExpiryInterval: m.TTL,
			MessageExpiryFlag:     m.TTLFlag,
		})
	}

	return out
}

func (s *Session) handleUnsubscribe(pk *packets.UnsubscribePacket) []packets.Packet {
	reason := packets.CodeNoSubscriptionExisted
	if _, ok := s.subs[pk.Filter]; ok {
		delete(s.subs, pk.Filter)
		if s.opts.OnUnsubscribe != nil {
			s.opts.OnUnsubscribe(pk.Filter)
		}
		reason = packets.CodeSuccess
	}

	return []packets.Packet{&packets.UnsubackPacket{
		PacketID:   pk.PacketID,
		ReasonCode: reason,
	}}
}

func (s *Session) handlePublish(ctx context.Context, pk *packets.PublishPacket) ([]packets.Packet, bool) {
	// topics beginning with $ are reserved; publishes to them are ignored.
	if strings.HasPrefix(pk.TopicName, "$") {
		return nil, false
	}

	if pk.Qos > 0 {
		return []packets.Packet{&packets.DisconnectPacket{
			ReasonCode: packets.CodeQosNotSupported,
		}}, true
	}

	if !s.authorized(ctx, pk.TopicName, publishOp) {
		// qos 0 has no failure channel; the packet is dropped.
		atomic.AddInt64(&s.opts.Info.AuthFailures, 1)
		s.log.Debug("dropping unauthorized publish", "client", s.clientID, "topic", pk.TopicName)
		return nil, false
	}

	if len(pk.Payload) > MessageSizeMax {
		s.log.Debug("dropping oversized publish", "client", s.clientID, "topic", pk.TopicName, "size", len(pk.Payload))
		return nil, false
	}

	atomic.AddInt64(&s.opts.Info.MessagesReceived, 1)

	m := Message{
		Topic:   pk.TopicName,
		Payload: pk.Payload,
		Origin:  s.clientID,
		Created: time.Now(),
	}

	// durability is a best-effort side effect of the publish; a store
	// failure is logged and never blocks live delivery.
	if pk.Retain && s.opts.Store != nil {
		r := storage.Record{
			Topic:   pk.TopicName,
			Payload: pk.Payload,
			Created: m.Created.Unix(),
		}
		if pk.MessageExpiryFlag {
			r.ExpiresAt = m.Created.Unix() + int64(pk.MessageExpiryInterval)
		}

		if err := s.opts.Store.PutRetained(ctx, r); err != nil {
			s.log.Error("failed to write retained message", "topic", pk.TopicName, "error", err)
		} else {
			atomic.AddInt64(&s.opts.Info.Retained, 1)
		}
	}

	if s.opts.Publish != nil {
		s.opts.Publish(ctx, m)
	}

	return nil, false
}

type topicOp byte

const (
	subscribeOp topicOp = iota
	publishOp
)

// authorized validates the session token and checks the claim set for the
// requested operation on a topic. The token is re-validated per operation
// so an expiring token loses access mid-session.
func (s *Session) authorized(ctx context.Context, topic string, op topicOp) bool {
	if s.token == "" || s.opts.Validator == nil {
		return false
	}

	caps, err := s.opts.Validator.Validate(ctx, s.token)
	if err != nil {
		s.log.Debug("token validation failed", "client", s.clientID, "error", err)
		return false
	}

	if op == subscribeOp {
		return caps.CanSubscribe(topic)
	}
	return caps.CanPublish(topic)
}
