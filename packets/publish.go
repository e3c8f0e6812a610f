// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package packets

import (
	"bytes"
)

// PublishPacket contains the values of an MQTT PUBLISH packet. The payload
// is an arbitrary byte sequence and may not be valid UTF-8.
type PublishPacket struct {
	FixedHeader

	TopicName             string
	Payload               []byte
	MessageExpiryInterval uint32 // seconds until the message expires
	MessageExpiryFlag     bool   // true if an expiry interval property was present
}

// Type returns the packet type id.
func (pk *PublishPacket) Type() byte {
	return Publish
}

// Encode encodes and writes the packet data values to the buffer. The only
// property emitted is the message expiry interval, mirroring what the broker
// forwards to subscribers.
func (pk *PublishPacket) Encode(buf *bytes.Buffer) error {
	var props bytes.Buffer
	if pk.MessageExpiryFlag {
		props.WriteByte(0x02)
		props.Write(encodeUint32(pk.MessageExpiryInterval))
	}

	topic := encodeString(pk.TopicName)

	var body bytes.Buffer
	body.Write(topic)
	encodeLength(&body, props.Len())
	body.Write(props.Bytes())
	body.Write(pk.Payload)

	pk.FixedHeader.Type = Publish
	pk.FixedHeader.Remaining = body.Len()
	pk.FixedHeader.Encode(buf)
	buf.Write(body.Bytes())

	return nil
}

// Decode extracts the data values from the packet. Properties the broker
// does not act on (payload format, topic alias, response topic, correlation
// data, user properties, subscription identifiers, content type) are
// validated and skipped.
func (pk *PublishPacket) Decode(buf []byte) error {
	var offset int
	var err error

	pk.TopicName, offset, err = decodeString(buf, 0)
	if err != nil {
		return ErrMalformedTopic
	}

	length, offset, err := decodeLength(buf, offset)
	if err != nil || offset+length > len(buf) {
		return ErrMalformedProperties
	}

	props := buf[offset : offset+length]
	for len(props) > 0 {
		switch props[0] {
		case 0x01: // payload format indicator
			if len(props) < 2 {
				return ErrMalformedProperties
			}
			props = props[2:]
		case 0x02: // message expiry interval
			if len(props) < 5 {
				return ErrMalformedProperties
			}
			pk.MessageExpiryInterval, _, _ = decodeUint32(props, 1)
			pk.MessageExpiryFlag = true
			props = props[5:]
		case 0x23: // topic alias
			if len(props) < 3 {
				return ErrMalformedProperties
			}
			props = props[3:]
		case 0x08, 0x03: // response topic, content type
			_, n, err := decodeString(props, 1)
			if err != nil {
				return ErrMalformedProperties
			}
			props = props[n:]
		case 0x09: // correlation data
			_, n, err := decodeBytes(props, 1)
			if err != nil {
				return ErrMalformedProperties
			}
			props = props[n:]
		case 0x26: // user property
			_, n, err := decodeString(props, 1)
			if err != nil {
				return ErrMalformedProperties
			}
			_, n, err = decodeString(props, n)
			if err != nil {
				return ErrMalformedProperties
			}
			props = props[n:]
		case 0x0b: // subscription identifier
			_, n, err := decodeLength(props, 1)
			if err != nil {
				return ErrMalformedProperties
			}
			props = props[n:]
		default:
			return ErrMalformedProperties
		}
	}

	pk.Payload = buf[offset+length:]

	return nil
}
