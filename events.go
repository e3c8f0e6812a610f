// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package hub

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/streamhub/server/auth"
	"github.com/streamhub/server/storage"
	"github.com/streamhub/server/system"
)

// EventsHandler returns the handler for the events HTTP API, serving event
// stream subscriptions, http publishes, and signing key provisioning.
func (s *Server) EventsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/admin/keys", s.handleAdminKeys)
	return withCors(mux)
}

// withCors decorates every response of the events api with permissive
// cross-origin headers.
func withCors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "OPTIONS, HEAD, GET, POST, PUT, DELETE")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Max-Age", "3600")
		next.ServeHTTP(w, r)
	})
}

// textResponse writes a plain text response in the api's newline-terminated
// convention.
func textResponse(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, "%s\n", text)
}

// sseError writes a single stream-error event as the entire response body.
// Event stream rejections are delivered in-band so browser EventSource
// clients can read the condition.
func sseError(w http.ResponseWriter, condition, text string) {
	w.Header().Set("Content-Type", "text/event-stream")
	_, _ = w.Write(encodeSSEError(condition, text))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		textResponse(w, http.StatusNotFound, "Not Found")
		return
	}

	textResponse(w, http.StatusOK, "Hello from streamhub!")
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		s.serveEventStream(w, r)
	case http.MethodPost:
		s.publishEvent(w, r)
	default:
		w.Header().Set("Allow", "OPTIONS, GET, POST")
		textResponse(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

// bearerToken extracts a bearer token from the Authorization header. The
// boolean reports whether a header was present at all; an empty token with
// a present header means the header was unusable and errText describes why.
func bearerToken(r *http.Request) (token string, present bool, errText string) {
	v := r.Header.Get("Authorization")
	if v == "" {
		return "", false, ""
	}

	scheme, value, ok := strings.Cut(v, " ")
	if !ok {
		return "", true, "Invalid 'Authorization' header"
	}

	if scheme != "Bearer" {
		return "", true, fmt.Sprintf("Unsupported authorization scheme: %s", scheme)
	}

	return value, true, ""
}

// serveEventStream serves a long-lived server-sent event stream of messages
// published to the requested topics.
func (s *Server) serveEventStream(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	topics := query["topic"]
	if len(topics) == 0 {
		sseError(w, "bad-request", "Missing 'topic' parameter")
		return
	}

	if len(topics) > TopicsMaxPerRequest {
		sseError(w, "bad-request", "Too many topics")
		return
	}

	durable := query.Get("durable") == "true"

	token := query.Get("auth")
	if token == "" {
		var present bool
		var errText string
		token, present, errText = bearerToken(r)
		if !present {
			sseError(w, "bad-request", "Missing 'Authorization' header or 'auth' parameter")
			return
		}
		if errText != "" {
			sseError(w, "bad-request", errText)
			return
		}
	}

	caps, err := s.Validator.Validate(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrStoreUnavailable) {
			s.Log.Error("auth failed", "error", err)
			sseError(w, "internal-server-error", "Auth process failed")
			return
		}

		atomic.AddInt64(&s.Info.AuthFailures, 1)
		sseError(w, "forbidden", "Invalid token")
		return
	}

	for _, topic := range topics {
		if !caps.CanSubscribe(topic) {
			atomic.AddInt64(&s.Info.AuthFailures, 1)
			sseError(w, "forbidden", fmt.Sprintf("Cannot subscribe to topic: %s", topic))
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		textResponse(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	sink := &sseSink{w: w, f: flusher, info: s.Info}

	if err := sink.writeRaw(sseStreamOpen); err != nil {
		return
	}

	// durable interest replays retained messages in topic order before the
	// live flow starts.
	if durable {
		sorted := make([]string, len(topics))
		copy(sorted, topics)
		sort.Strings(sorted)

		for _, topic := range sorted {
			record, err := s.Store.GetRetained(r.Context(), topic)
			if errors.Is(err, storage.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				s.Log.Error("failed to read retained message", "topic", topic, "error", err)
				_ = sink.writeRaw(encodeSSEError("internal-server-error", "Failed to read message from storage"))
				return
			}

			m := messageFromRecord(record, time.Now())
			if err := sink.Send(m); err != nil {
				return
			}
		}
	}

	atomic.AddInt64(&s.Info.SubscribersConnected, 1)
	atomic.AddInt64(&s.Info.SubscribersTotal, 1)
	if c := atomic.LoadInt64(&s.Info.SubscribersConnected); c > atomic.LoadInt64(&s.Info.SubscribersMaximum) {
		atomic.StoreInt64(&s.Info.SubscribersMaximum, c)
	}
	defer atomic.AddInt64(&s.Info.SubscribersConnected, -1)

	closed := make(chan struct{})
	sub := s.Fanout.Register("", sink, func(*Subscriber) {
		close(closed)
	})
	for _, topic := range topics {
		s.Fanout.Subscribe(sub, topic, false)
	}

	// the response writer must outlive the subscriber's writer goroutine.
	defer func() {
		s.Fanout.Deregister(sub)
		<-closed
	}()

	ticker := time.NewTicker(time.Duration(s.Options.KeepAliveInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case <-ticker.C:
			if err := sink.writeRaw(sseKeepAlive); err != nil {
				return
			}
		}
	}
}

// publishEvent accepts one message over http and routes it into the broker.
func (s *Server) publishEvent(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	topic := query.Get("topic")
	if topic == "" {
		textResponse(w, http.StatusBadRequest, "Missing 'topic' param")
		return
	}

	retain := query.Get("retain") == "true"

	var ttl uint32
	var ttlFlag bool
	if v := query.Get("ttl"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			textResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid 'ttl' param: %s", err))
			return
		}
		ttl = uint32(parsed)
		ttlFlag = true
	}

	token, present, errText := bearerToken(r)
	if !present {
		textResponse(w, http.StatusBadRequest, "Missing 'Authorization' header")
		return
	}
	if errText != "" {
		textResponse(w, http.StatusBadRequest, errText)
		return
	}

	caps, err := s.Validator.Validate(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrStoreUnavailable) {
			s.Log.Error("auth failed", "error", err)
			textResponse(w, http.StatusInternalServerError, "Auth process failed")
			return
		}

		atomic.AddInt64(&s.Info.AuthFailures, 1)
		textResponse(w, http.StatusForbidden, "Invalid token")
		return
	}

	if !caps.CanPublish(topic) {
		atomic.AddInt64(&s.Info.AuthFailures, 1)
		textResponse(w, http.StatusForbidden, fmt.Sprintf("Cannot publish to topic: %s", topic))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, MessageSizeMax+1))
	if err != nil {
		textResponse(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	if len(payload) > MessageSizeMax {
		textResponse(w, http.StatusBadRequest, fmt.Sprintf("Message size exceeds %d bytes maximum", MessageSizeMax))
		return
	}

	m := Message{
		Topic:   topic,
		Payload: payload,
		Retain:  retain,
		TTL:     ttl,
		TTLFlag: ttlFlag,
		Created: time.Now(),
	}

	if err := s.Publish(r.Context(), m); err != nil {
		s.Log.Error("failed to publish", "topic", topic, "error", err)
		textResponse(w, http.StatusInternalServerError, "Failed to write message to storage")
		return
	}

	textResponse(w, http.StatusOK, "Published")
}

// handleAdminKeys provisions a new signing key, guarded by the platform
// admin token. The secret is returned exactly once and is not readable back
// out of the api.
func (s *Server) handleAdminKeys(w http.ResponseWriter, r *http.Request) {
	if s.Options.AdminToken == "" {
		textResponse(w, http.StatusNotFound, "Not Found")
		return
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		textResponse(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	token, present, _ := bearerToken(r)
	if !present || subtle.ConstantTimeCompare([]byte(token), []byte(s.Options.AdminToken)) != 1 {
		atomic.AddInt64(&s.Info.AuthFailures, 1)
		textResponse(w, http.StatusUnauthorized, "Admin token invalid or not specified")
		return
	}

	key, err := auth.GenerateKey()
	if err != nil {
		s.Log.Error("failed to generate signing key", "error", err)
		textResponse(w, http.StatusInternalServerError, "Key generation process failed")
		return
	}

	if err := s.Store.PutSigningKey(r.Context(), key.ID, []byte(key.Value)); err != nil {
		s.Log.Error("failed to store signing key", "id", key.ID, "error", err)
		textResponse(w, http.StatusInternalServerError, "Storage writing process failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(key)
}

// sseSink frames fanout messages as server-sent events onto one streaming
// http response. Writes from the handler goroutine and the subscriber's
// writer goroutine are serialized by a mutex.
type sseSink struct {
	mu   sync.Mutex
	w    http.ResponseWriter
	f    http.Flusher
	info *system.Info
}

// Send frames a fanout message as a server-sent event and writes it.
func (s *sseSink) Send(m Message) error {
	return s.writeRaw(m.EncodeSSE())
}

// writeRaw writes pre-framed event bytes and flushes them to the client.
func (s *sseSink) writeRaw(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.w.Write(b)
	if err != nil {
		return err
	}
	s.f.Flush()

	atomic.AddInt64(&s.info.BytesSent, int64(n))
	return nil
}
