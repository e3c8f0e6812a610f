// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package packets

import (
	"bytes"
)

// UnsubscribePacket contains the values of an MQTT UNSUBSCRIBE packet
// carrying a single topic filter.
type UnsubscribePacket struct {
	FixedHeader

	PacketID uint16
	Filter   string
}

// Type returns the packet type id.
func (pk *UnsubscribePacket) Type() byte {
	return Unsubscribe
}

// Encode encodes and writes the packet data values to the buffer.
func (pk *UnsubscribePacket) Encode(buf *bytes.Buffer) error {
	filter := encodeString(pk.Filter)

	pk.FixedHeader.Type = Unsubscribe
	pk.FixedHeader.Qos = 1 // reserved bits 0,0,1,0
	pk.FixedHeader.Remaining = 2 + 1 + len(filter)
	pk.FixedHeader.Encode(buf)

	buf.Write(encodeUint16(pk.PacketID))
	buf.WriteByte(0x00) // property length
	buf.Write(filter)

	return nil
}

// Decode extracts the data values from the packet.
func (pk *UnsubscribePacket) Decode(buf []byte) error {
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

	pk.Filter, _, err = decodeString(buf, offset)
	if err != nil {
		return ErrMalformedTopic
	}

	return nil
}
