// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package packets

import (
	"bytes"
)

// FixedHeader contains the values of the fixed header portion of a packet.
type FixedHeader struct {
	Type      byte // the type of the packet (PUBLISH, SUBSCRIBE, etc) from bits 7 - 4 (byte 1)
	Dup       bool // indicates if the packet is a duplicate
	Qos       byte // the quality of service expected
	Retain    bool // whether the message should be retained
	Remaining int  // the number of remaining bytes in the payload
}

// Encode encodes the FixedHeader into a bytes buffer.
func (fh *FixedHeader) Encode(buf *bytes.Buffer) {
	buf.WriteByte(fh.Type<<4 | encodeBool(fh.Dup)<<3 | fh.Qos<<1 | encodeBool(fh.Retain))
	encodeLength(buf, fh.Remaining)
}

// Decode extracts the specification bits from the header byte.
func (fh *FixedHeader) Decode(headerByte byte) error {
	fh.Type = headerByte >> 4

	switch fh.Type {
	case Publish:
		fh.Dup = (headerByte>>3)&0x01 > 0
		fh.Qos = (headerByte >> 1) & 0x03
		fh.Retain = headerByte&0x01 > 0
	case Subscribe, Unsubscribe:
		// [MQTT-3.8.1-1] reserved flag bits must be set to 0,0,1,0.
		if headerByte&0x0f != 0x02 {
			return ErrProtocolViolationFlags
		}
		fh.Qos = (headerByte >> 1) & 0x03
	}

	return nil
}
