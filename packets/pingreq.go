// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package packets

import (
	"bytes"
)

// PingreqPacket contains the values of an MQTT PINGREQ packet.
type PingreqPacket struct {
	FixedHeader
}

// Type returns the packet type id.
func (pk *PingreqPacket) Type() byte {
	return Pingreq
}

// Encode encodes and writes the packet data values to the buffer.
func (pk *PingreqPacket) Encode(buf *bytes.Buffer) error {
	pk.FixedHeader.Type = Pingreq
	pk.FixedHeader.Remaining = 0
	pk.FixedHeader.Encode(buf)
	return nil
}

// Decode extracts the data values from the packet.
func (pk *PingreqPacket) Decode(buf []byte) error {
	return nil
}
