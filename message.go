// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package hub

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jinzhu/copier"

	"github.com/streamhub/server/storage"
)

// Message is one published message flowing through the fanout to
// subscribers on any listener.
type Message struct {
	Topic   string
	Payload []byte
	Origin  string // client id of the publisher, if any
	Retain  bool   // true when the message is a replay from the retained store
	TTL     uint32 // remaining seconds until expiry
	TTLFlag bool   // true if the message carries an expiry
	Created time.Time
}

// messageFromRecord deep-copies a stored retained record into a live
// message, so concurrent deliveries never share payload bytes with the
// store's copy.
func messageFromRecord(r storage.Record, now time.Time) Message {
	m := Message{
		Retain:  true,
		Created: time.Unix(r.Created, 0),
	}
	_ = copier.Copy(&m.Payload, &r.Payload)
	m.Topic = r.Topic

	if r.ExpiresAt > 0 {
		m.TTL = r.RemainingTTL(now)
		m.TTLFlag = true
	}

	return m
}

// EncodeSSE formats the message as one discrete server-sent event. A valid
// UTF-8 payload becomes an event typed "message" with one data line per
// payload line; any other payload becomes an event typed "message-base64"
// with the payload base64-encoded.
func (m *Message) EncodeSSE() []byte {
	var buf bytes.Buffer

	if utf8.Valid(m.Payload) {
		buf.WriteString("event: message\n")
		for _, line := range strings.Split(string(m.Payload), "\n") {
			buf.WriteString("data: ")
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
		return buf.Bytes()
	}

	buf.WriteString("event: message-base64\ndata: ")
	buf.WriteString(base64.StdEncoding.EncodeToString(m.Payload))
	buf.WriteString("\n\n")
	return buf.Bytes()
}

// sseStreamOpen is the preamble event sent when an event stream is
// established.
var sseStreamOpen = []byte("event: stream-open\ndata: \n\n")

// sseKeepAlive is the liveness event written on an interval to idle
// streams.
var sseKeepAlive = []byte("event: keep-alive\ndata: \n\n")

// encodeSSEError formats a stream-error event carrying a json object with
// a machine-readable condition and a human-readable text.
func encodeSSEError(condition, text string) []byte {
	data, _ := json.Marshal(map[string]string{
		"condition": condition,
		"text":      text,
	})

	var buf bytes.Buffer
	buf.WriteString("event: stream-error\ndata: ")
	buf.Write(data)
	buf.WriteString("\n\n")
	return buf.Bytes()
}
