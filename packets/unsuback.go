// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package packets

import (
	"bytes"
)

// UnsubackPacket contains the values of an MQTT UNSUBACK packet.
type UnsubackPacket struct {
	FixedHeader

	PacketID   uint16
	ReasonCode Code
}

// Type returns the packet type id.
func (pk *UnsubackPacket) Type() byte {
	return Unsuback
}

// Encode encodes and writes the packet data values to the buffer.
func (pk *UnsubackPacket) Encode(buf *bytes.Buffer) error {
	pk.FixedHeader.Type = Unsuback
	pk.FixedHeader.Remaining = 4
	pk.FixedHeader.Encode(buf)

	buf.Write(encodeUint16(pk.PacketID))
	buf.WriteByte(0x00) // property length
	buf.WriteByte(byte(pk.ReasonCode))

	return nil
}

// Decode extracts the data values from the packet.
func (pk *UnsubackPacket) Decode(buf []byte) error {
	var offset int
	var err error

	pk.PacketID, offset, err = decodeUint16(buf, 0)
	if err != nil {
		return ErrMalformedPacketID
	}

	offset, err = skipProperties(buf, offset)
	if err != nil {
		return err
	}

	reason, _, err := decodeByte(buf, offset)
	if err != nil {
		return ErrMalformedFlags
	}
	pk.ReasonCode = Code(reason)

	return nil
}
