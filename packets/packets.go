// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

// Package packets provides encoding and decoding for the subset of MQTT v5
// control packets used by the broker: connection lifecycle, QoS 0 publish,
// single-topic subscribe/unsubscribe and keep-alive probes.
package packets

import (
	"bytes"
)

// All of the valid packet types and their packet identifiers.
const (
	Reserved    byte = iota
	Connect          // 1
	Connack          // 2
	Publish          // 3
	Puback           // 4
	Pubrec           // 5
	Pubrel           // 6
	Pubcomp          // 7
	Subscribe        // 8
	Suback           // 9
	Unsubscribe      // 10
	Unsuback         // 11
	Pingreq          // 12
	Pingresp         // 13
	Disconnect       // 14
	Auth             // 15
)

// Names is a map that provides human-readable names for the different
// packet types based on their ids.
var Names = map[byte]string{
	0:  "RESERVED",
	1:  "CONNECT",
	2:  "CONNACK",
	3:  "PUBLISH",
	4:  "PUBACK",
	5:  "PUBREC",
	6:  "PUBREL",
	7:  "PUBCOMP",
	8:  "SUBSCRIBE",
	9:  "SUBACK",
	10: "UNSUBSCRIBE",
	11: "UNSUBACK",
	12: "PINGREQ",
	13: "PINGRESP",
	14: "DISCONNECT",
	15: "AUTH",
}

// Packet is the base interface implemented by all control packets.
type Packet interface {

	// Type returns the packet type id.
	Type() byte

	// Encode encodes the packet into a byte buffer.
	Encode(*bytes.Buffer) error

	// Decode decodes the variable header and payload bytes into the packet.
	Decode(buf []byte) error
}

// Encode is a convenience helper which encodes a packet into a fresh
// byte slice.
func Encode(pk Packet) ([]byte, error) {
	var buf bytes.Buffer
	if err := pk.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
