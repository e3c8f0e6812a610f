// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package packets

import (
	"bytes"
)

// DisconnectPacket contains the values of an MQTT DISCONNECT packet. An
// empty body means a normal disconnection (reason code 0).
type DisconnectPacket struct {
	FixedHeader

	ReasonCode Code
}

// Type returns the packet type id.
func (pk *DisconnectPacket) Type() byte {
	return Disconnect
}

// Encode encodes and writes the packet data values to the buffer.
func (pk *DisconnectPacket) Encode(buf *bytes.Buffer) error {
	pk.FixedHeader.Type = Disconnect
	pk.FixedHeader.Remaining = 1
	pk.FixedHeader.Encode(buf)
	buf.WriteByte(byte(pk.ReasonCode))
	return nil
}

// Decode extracts the data values from the packet.
func (pk *DisconnectPacket) Decode(buf []byte) error {
	if len(buf) == 0 {
		pk.ReasonCode = CodeSuccess
		return nil
	}

	pk.ReasonCode = Code(buf[0])
	return nil
}
