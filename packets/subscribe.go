// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package packets

import (
	"bytes"
)

// RetainHandling values for a subscription. Zero requests the topic's
// retained message be sent upon subscribing.
const (
	RetainHandlingSend      byte = 0
	RetainHandlingSendIfNew byte = 1
	RetainHandlingDoNotSend byte = 2
)

// SubscribePacket contains the values of an MQTT SUBSCRIBE packet carrying
// a single topic filter.
type SubscribePacket struct {
	FixedHeader

	PacketID          uint16
	Filter            string
	MaxQos            byte
	NoLocal           bool
	RetainAsPublished bool
	RetainHandling    byte
}

// Type returns the packet type id.
func (pk *SubscribePacket) Type() byte {
	return Subscribe
}

// Encode encodes and writes the packet data values to the buffer.
func (pk *SubscribePacket) Encode(buf *bytes.Buffer) error {
	opts := pk.MaxQos & 0x03
	if pk.NoLocal {
		opts |= 0x04
	}
	if pk.RetainAsPublished {
		opts |= 0x08
	}
	opts |= (pk.RetainHandling & 0x03) << 4

	filter := encodeString(pk.Filter)

	pk.FixedHeader.Type = Subscribe
	pk.FixedHeader.Qos = 1 // [MQTT-3.8.1-1] reserved bits 0,0,1,0
	pk.FixedHeader.Remaining = 2 + 1 + len(filter) + 1
	pk.FixedHeader.Encode(buf)

	buf.Write(encodeUint16(pk.PacketID))
	buf.WriteByte(0x00) // property length
	buf.Write(filter)
	buf.WriteByte(opts)

	return nil
}

// Decode extracts the data values from the packet.
func (pk *SubscribePacket) Decode(buf []byte) error {
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

	pk.Filter, offset, err = decodeString(buf, offset)
	if err != nil {
		return ErrMalformedTopic
	}

	opts, _, err := decodeByte(buf, offset)
	if err != nil {
		return ErrMalformedSubscription
	}

	pk.MaxQos = opts & 0x03
	pk.NoLocal = opts&0x04 > 0
	pk.RetainAsPublished = opts&0x08 > 0
	pk.RetainHandling = (opts >> 4) & 0x03

	return nil
}
