// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package packets

import (
	"bytes"
)

// ProtocolVersion5 is the only protocol version the broker accepts.
const ProtocolVersion5 byte = 5

// ConnectPacket contains the values of an MQTT CONNECT packet. Only the
// fields the broker acts on are retained after decoding; will and username
// data is validated and skipped.
type ConnectPacket struct {
	FixedHeader

	ProtocolName    string
	ProtocolVersion byte
	Clean           bool
	WillFlag        bool
	WillQos         byte
	WillRetain      bool
	UsernameFlag    bool
	PasswordFlag    bool
	Keepalive       uint16
	ClientID        string
	Username        string
	Password        string
}

// Type returns the packet type id.
func (pk *ConnectPacket) Type() byte {
	return Connect
}

// Encode encodes and writes the packet data values to the buffer.
func (pk *ConnectPacket) Encode(buf *bytes.Buffer) error {
	protoName := encodeString(pk.ProtocolName)
	flags := encodeBool(pk.Clean)<<1 |
		encodeBool(pk.WillFlag)<<2 | pk.WillQos<<3 | encodeBool(pk.WillRetain)<<5 |
		encodeBool(pk.PasswordFlag)<<6 | encodeBool(pk.UsernameFlag)<<7
	keepalive := encodeUint16(pk.Keepalive)
	clientID := encodeString(pk.ClientID)

	var username, password []byte
	if pk.UsernameFlag {
		username = encodeString(pk.Username)
	}
	if pk.PasswordFlag {
		password = encodeString(pk.Password)
	}

	// no properties are written; a zero property length byte is included.
	pk.FixedHeader.Type = Connect
	pk.FixedHeader.Remaining = len(protoName) + 1 + 1 + len(keepalive) + 1 +
		len(clientID) + len(username) + len(password)
	pk.FixedHeader.Encode(buf)

	buf.Write(protoName)
	buf.WriteByte(pk.ProtocolVersion)
	buf.WriteByte(flags)
	buf.Write(keepalive)
	buf.WriteByte(0x00) // property length
	buf.Write(clientID)
	buf.Write(username)
	buf.Write(password)

	return nil
}

// Decode extracts the data values from the packet. If the declared protocol
// version is not 5 decoding stops after the version byte, leaving a limited
// packet carrying the version only, so the caller can reject it in the
// framing the client understands.
func (pk *ConnectPacket) Decode(buf []byte) error {
	var offset int
	var err error

	pk.ProtocolName, offset, err = decodeString(buf, 0)
	if err != nil {
		return ErrMalformedProtocolName
	}

	pk.ProtocolVersion, offset, err = decodeByte(buf, offset)
	if err != nil {
		return ErrMalformedProtocolVersion
	}

	if pk.ProtocolName != "MQTT" {
		return ErrMalformedProtocolName
	}

	if pk.ProtocolVersion != ProtocolVersion5 {
		return nil
	}

	flags, offset, err := decodeByte(buf, offset)
	if err != nil {
		return ErrMalformedFlags
	}
	pk.Clean = 1&(flags>>1) > 0
	pk.WillFlag = 1&(flags>>2) > 0
	pk.WillQos = 3 & (flags >> 3)
	pk.WillRetain = 1&(flags>>5) > 0
	pk.PasswordFlag = 1&(flags>>6) > 0
	pk.UsernameFlag = 1&(flags>>7) > 0

	pk.Keepalive, offset, err = decodeUint16(buf, offset)
	if err != nil {
		return ErrMalformedKeepalive
	}

	offset, err = skipProperties(buf, offset)
	if err != nil {
		return err
	}

	pk.ClientID, offset, err = decodeString(buf, offset)
	if err != nil {
		return ErrMalformedClientID
	}

	// the will message is validated and discarded; the broker does not
	// deliver last wills (QoS 0, stateless sessions).
	if pk.WillFlag {
		offset, err = skipProperties(buf, offset)
		if err != nil {
			return err
		}

		if _, offset, err = decodeString(buf, offset); err != nil {
			return ErrMalformedWillTopic
		}

		if _, offset, err = decodeBytes(buf, offset); err != nil {
			return ErrMalformedWillPayload
		}
	}

	if pk.UsernameFlag {
		pk.Username, offset, err = decodeString(buf, offset)
		if err != nil {
			return ErrMalformedUsername
		}
	}

	if pk.PasswordFlag {
		pk.Password, _, err = decodeString(buf, offset)
		if err != nil {
			return ErrMalformedPassword
		}
	}

	return nil
}

// skipProperties validates and skips over a length-prefixed properties block.
func skipProperties(buf []byte, offset int) (int, error) {
	length, next, err := decodeLength(buf, offset)
	if err != nil {
		return 0, ErrMalformedProperties
	}

	if next+length > len(buf) {
		return 0, ErrMalformedProperties
	}

	return next + length, nil
}
