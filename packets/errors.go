// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package packets

import "errors"

var (
	// ErrIncomplete indicates that the buffer does not yet contain a whole
	// packet and the caller should retry once more bytes have arrived.
	ErrIncomplete = errors.New("incomplete packet")

	// ErrIncompleteLength indicates that a variable byte integer was cut
	// short by the end of the buffer.
	ErrIncompleteLength = errors.New("incomplete variable byte integer")

	ErrMalformedOffsetUintOutOfRange  = errors.New("malformed packet: uint out of range")
	ErrMalformedOffsetBytesOutOfRange = errors.New("malformed packet: bytes out of range")
	ErrMalformedOffsetByteOutOfRange  = errors.New("malformed packet: byte out of range")
	ErrMalformedInvalidUTF8           = errors.New("malformed packet: invalid utf-8 string")
	ErrMalformedVariableByteInteger   = errors.New("malformed packet: variable byte integer out of range")
	ErrMalformedProtocolName          = errors.New("malformed packet: protocol name")
	ErrMalformedProtocolVersion       = errors.New("malformed packet: protocol version")
	ErrMalformedFlags                 = errors.New("malformed packet: flags")
	ErrMalformedKeepalive             = errors.New("malformed packet: keepalive")
	ErrMalformedProperties            = errors.New("malformed packet: properties")
	ErrMalformedClientID              = errors.New("malformed packet: client id")
	ErrMalformedWillTopic             = errors.New("malformed packet: will topic")
	ErrMalformedWillPayload           = errors.New("malformed packet: will payload")
	ErrMalformedUsername              = errors.New("malformed packet: username")
	ErrMalformedPassword              = errors.New("malformed packet: password")
	ErrMalformedTopic                 = errors.New("malformed packet: topic")
	ErrMalformedPacketID              = errors.New("malformed packet: packet id")
	ErrMalformedSubscription          = errors.New("malformed packet: subscription options")
	ErrProtocolViolationFlags         = errors.New("protocol violation: reserved flag bits set")
)
