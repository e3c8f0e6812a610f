// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package listeners

import (
	"errors"
	"net"
	"sync"

	"log/slog"
)

// MockEstablisher accepts any connection. For use in tests.
func MockEstablisher(id string, c net.Conn) error {
	return nil
}

// MockCloser ignores the close signal. For use in tests.
func MockCloser(id string) {}

// MockListener is a no-op listener for exercising the registry and server
// wiring in tests.
type MockListener struct {
	sync.Mutex
	id        string
	address   string
	done      chan struct{}
	serving   bool
	ErrListen bool // fail Init with an error
}

// NewMockListener returns a new instance of MockListener.
func NewMockListener(id, address string) *MockListener {
	return &MockListener{
		id:      id,
		address: address,
		done:    make(chan struct{}),
	}
}

// ID returns the id of the mock listener.
func (l *MockListener) ID() string {
	return l.id
}

// Address returns the address of the listener.
func (l *MockListener) Address() string {
	return l.address
}

// Protocol returns the protocol of the listener.
func (l *MockListener) Protocol() string {
	return "mock"
}

// Init initializes the listener, failing if ErrListen is set.
func (l *MockListener) Init(_ *slog.Logger) error {
	if l.ErrListen {
		return errors.New("listen failure")
	}
	return nil
}

// Serve marks the listener as serving and blocks until closed.
func (l *MockListener) Serve(establish EstablishFn) {
	l.Lock()
	l.serving = true
	l.Unlock()

	<-l.done
}

// Close stops the mock listener.
func (l *MockListener) Close(closeClients CloseFn) {
	l.Lock()
	l.serving = false
	l.Unlock()

	closeClients(l.id)
	close(l.done)
}

// IsServing indicates whether the mock listener is serving.
func (l *MockListener) IsServing() bool {
	l.Lock()
	defer l.Unlock()
	return l.serving
}
