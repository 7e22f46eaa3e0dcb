package protocol

import "io"

// ControlType identifies a control message.
type ControlType uint8

const (
	ControlPing ControlType = 0x01
	ControlPong ControlType = 0x02
)

// String returns the string representation of the control type.
func (ct ControlType) String() string {
	switch ct {
	case ControlPing:
		return "Ping"
	case ControlPong:
		return "Pong"
	default:
		return "Unknown"
	}
}

// EncodeControl encodes a control message to bytes.
func EncodeControl(ct ControlType) []byte {
	return []byte{byte(ct)}
}

// DecodeControl decodes a control message from bytes.
func DecodeControl(data []byte) (ControlType, error) {
	if len(data) < 1 {
		return 0, io.ErrUnexpectedEOF
	}
	return ControlType(data[0]), nil
}
