// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package packets

import (
	"bytes"
)

// ConnackPacket contains the values of an MQTT v5 CONNACK packet. The
// properties advertise the broker's fixed capabilities: QoS 0 only, retain
// available, wildcard and shared subscriptions unavailable.
type ConnackPacket struct {
	FixedHeader

	SessionPresent    bool
	ReasonCode        Code
	MaximumPacketSize uint32 // advertised maximum packet size; omitted if 0
}

// Type returns the packet type id.
func (pk *ConnackPacket) Type() byte {
	return Connack
}

// Encode encodes and writes the packet data values to the buffer.
func (pk *ConnackPacket) Encode(buf *bytes.Buffer) error {
	props := []byte{
		0x24, 0x00, // maximum qos: 0
		0x25, 0x01, // retain available: yes
	}

	if pk.MaximumPacketSize > 0 {
		props = append(props, 0x27)
		props = append(props, encodeUint32(pk.MaximumPacketSize)...)
	}

	props = append(props,
		0x28, 0x00, // wildcard subscriptions available: no
		0x2a, 0x00, // shared subscriptions available: no
	)

	var body bytes.Buffer
	body.WriteByte(encodeBool(pk.SessionPresent))
	body.WriteByte(byte(pk.ReasonCode))
	encodeLength(&body, len(props))
	body.Write(props)

	pk.FixedHeader.Type = Connack
	pk.FixedHeader.Remaining = body.Len()
	pk.FixedHeader.Encode(buf)
	buf.Write(body.Bytes())

	return nil
}

// Decode extracts the data values from the packet.
func (pk *ConnackPacket) Decode(buf []byte) error {
	flags, offset, err := decodeByte(buf, 0)
	if err != nil {
		return ErrMalformedFlags
	}
	pk.SessionPresent = flags&0x01 > 0

	reason, offset, err := decodeByte(buf, offset)
	if err != nil {
		return ErrMalformedFlags
	}
	pk.ReasonCode = Code(reason)

	length, offset, err := decodeLength(buf, offset)
	if err != nil || offset+length > len(buf) {
		return ErrMalformedProperties
	}

	props := buf[offset : offset+length]
	for len(props) > 0 {
		switch props[0] {
		case 0x24, 0x25, 0x28, 0x2a:
			if len(props) < 2 {
				return ErrMalformedProperties
			}
			props = props[2:]
		case 0x27:
			if len(props) < 5 {
				return ErrMalformedProperties
			}
			pk.MaximumPacketSize, _, _ = decodeUint32(props, 1)
			props = props[5:]
		default:
			return ErrMalformedProperties
		}
	}

	return nil
}

// LegacyConnackPacket is a v3/v4-framed CONNACK, sent when a client declares
// a protocol version below 5 so the rejection is readable by the client.
type LegacyConnackPacket struct {
	FixedHeader

	ReturnCode byte
}

// Type returns the packet type id.
func (pk *LegacyConnackPacket) Type() byte {
	return Connack
}

// Encode encodes and writes the packet data values to the buffer.
func (pk *LegacyConnackPacket) Encode(buf *bytes.Buffer) error {
	pk.FixedHeader.Type = Connack
	pk.FixedHeader.Remaining = 2
	pk.FixedHeader.Encode(buf)
	buf.WriteByte(0x00) // acknowledge flags
	buf.WriteByte(pk.ReturnCode)
	return nil
}

// Decode extracts the data values from the packet.
func (pk *LegacyConnackPacket) Decode(buf []byte) error {
	var err error
	if _, _, err = decodeByte(buf, 0); err != nil {
		return ErrMalformedFlags
	}
	pk.ReturnCode, _, err = decodeByte(buf, 1)
	return err
}
