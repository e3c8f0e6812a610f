// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package packets

import (
	"bytes"
)

// PingrespPacket contains the values of an MQTT PINGRESP packet.
type PingrespPacket struct {
	FixedHeader
}

// Type returns the packet type id.
func (pk *PingrespPacket) Type() byte {
	return Pingresp
}

// Encode encodes and writes the packet data values to the buffer.
func (pk *PingrespPacket) Encode(buf *bytes.Buffer) error {
	pk.FixedHeader.Type = Pingresp
	pk.FixedHeader.Remaining = 0
	pk.FixedHeader.Encode(buf)
	return nil
}

// Decode extracts the data values from the packet.
func (pk *PingrespPacket) Decode(buf []byte) error {
	return nil
}
