// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package packets

// Code is an MQTT v5 reason code used in acknowledgment packets.
type Code byte

// The reason codes the broker emits or understands. The broker supports
// only QoS 0 and exact-match topic filters, so the failure codes cover
// version, authorization and filter rejections.
const (
	CodeSuccess               Code = 0x00
	CodeNoSubscriptionExisted Code = 0x11
	CodeUnspecifiedError      Code = 0x80
	CodeProtocolError         Code = 0x82
	CodeUnsupportedVersion    Code = 0x84
	CodeNotAuthorized         Code = 0x87
	CodeQosNotSupported       Code = 0x9b
	CodeWildcardsNotSupported Code = 0xa2
)

// codeNames provides human-readable names for the known reason codes.
var codeNames = map[Code]string{
	CodeSuccess:               "success",
	CodeNoSubscriptionExisted: "no subscription existed",
	CodeUnspecifiedError:      "unspecified error",
	CodeProtocolError:         "protocol error",
	CodeUnsupportedVersion:    "unsupported protocol version",
	CodeNotAuthorized:         "not authorized",
	CodeQosNotSupported:       "qos not supported",
	CodeWildcardsNotSupported: "wildcard subscriptions not supported",
}

// String returns a human-readable name for a reason code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

// FailedConnack is the legacy (v3/v4) connack return code for an
// unacceptable protocol version, sent to clients below v5.
const FailedConnackUnacceptableProtocol byte = 0x01
