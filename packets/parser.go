// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package packets

import (
	"bytes"
	"errors"
)

// UnsupportedPacket is produced for packet types the broker recognises but
// does not implement (QoS acknowledgements, AUTH). The session layer decides
// how to react.
type UnsupportedPacket struct {
	FixedHeader
}

// Type returns the packet type id.
func (pk *UnsupportedPacket) Type() byte {
	return pk.FixedHeader.Type
}

// Encode is a no-op; unsupported packets are never sent.
func (pk *UnsupportedPacket) Encode(buf *bytes.Buffer) error {
	return nil
}

// Decode discards the packet body.
func (pk *UnsupportedPacket) Decode(buf []byte) error {
	return nil
}

// Parse reads a single control packet from the front of buf. It returns the
// decoded packet and the total number of bytes it occupied, so the caller can
// advance its read buffer. If buf does not yet hold a complete packet, Parse
// returns ErrIncomplete and the caller should retry once more data arrives.
func Parse(buf []byte) (Packet, int, error) {
	if len(buf) < 2 {
		return nil, 0, ErrIncomplete
	}

	var fh FixedHeader
	if err := fh.Decode(buf[0]); err != nil {
		return nil, 0, err
	}

	remaining, next, err := decodeLength(buf, 1)
	if err != nil {
		if errors.Is(err, ErrIncompleteLength) {
			return nil, 0, ErrIncomplete
		}
		return nil, 0, err
	}
	fh.Remaining = remaining

	total := next + remaining
	if len(buf) < total {
		return nil, 0, ErrIncomplete
	}

	var pk Packet
	switch fh.Type {
	case Connect:
		pk = &ConnectPacket{FixedHeader: fh}
	case Connack:
		pk = &ConnackPacket{FixedHeader: fh}
	case Publish:
		pk = &PublishPacket{FixedHeader: fh}
	case Subscribe:
		pk = &SubscribePacket{FixedHeader: fh}
	case Suback:
		pk = &SubackPacket{FixedHeader: fh}
	case Unsubscribe:
		pk = &UnsubscribePacket{FixedHeader: fh}
	case Unsuback:
		pk = &UnsubackPacket{FixedHeader: fh}
	case Pingreq:
		pk = &PingreqPacket{FixedHeader: fh}
	case Pingresp:
		pk = &PingrespPacket{FixedHeader: fh}
	case Disconnect:
		pk = &DisconnectPacket{FixedHeader: fh}
	default:
		pk = &UnsupportedPacket{FixedHeader: fh}
	}

	if err := pk.Decode(buf[next:total]); err != nil {
		return nil, 0, err
	}

	return pk, total, nil
}
