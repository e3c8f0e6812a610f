// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package listeners

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"
)

// HTTPEvents is a listener serving the events HTTP API from an injected
// handler. Response write timeouts are disabled so event streams can stay
// open indefinitely.
type HTTPEvents struct {
	sync.RWMutex
	id      string       // the internal id of the listener
	address string       // the network address to bind to
	config  Config       // configuration values for the listener
	handler http.Handler // the events api handler served by the listener
	listen  *http.Server // the http server
	log     *slog.Logger // server logger
	end     uint32       // ensure the close methods are only called once
}

// NewHTTPEvents initialises and returns a new HTTPEvents listener, listening
// on an address and serving the given handler.
func NewHTTPEvents(config Config, handler http.Handler) *HTTPEvents {
	return &HTTPEvents{
		id:      config.ID,
		address: config.Address,
		config:  config,
		handler: handler,
	}
}

// ID returns the id of the listener.
func (l *HTTPEvents) ID() string {
	return l.id
}

// Address returns the address of the listener.
func (l *HTTPEvents) Address() string {
	return l.address
}

// Protocol returns the address of the listener.
func (l *HTTPEvents) Protocol() string {
	if l.config.TLSConfig != nil {
		return "https"
	}

	return "http"
}

// Init initializes the listener.
func (l *HTTPEvents) Init(log *slog.Logger) error {
	l.log = log

	l.listen = &http.Server{
		ReadHeaderTimeout: 5 * time.Second,
		Addr:              l.address,
		Handler:           l.handler,
		TLSConfig:         l.config.TLSConfig,
	}

	return nil
}

// Serve starts listening for new connections and serving responses.
func (l *HTTPEvents) Serve(establish EstablishFn) {
	var err error
	if l.listen.TLSConfig != nil {
		err = l.listen.ListenAndServeTLS("", "")
	} else {
		err = l.listen.ListenAndServe()
	}

	if err != nil && err != http.ErrServerClosed && atomic.LoadUint32(&l.end) == 0 {
		l.log.Error("failed to serve.", "error", err, "listener", l.id)
	}
}

// Close closes the listener and any client connections.
func (l *HTTPEvents) Close(closeClients CloseFn) {
	l.Lock()
	defer l.Unlock()

	if atomic.CompareAndSwapUint32(&l.end, 0, 1) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.listen.Shutdown(ctx)
	}

	closeClients(l.id)
}
