// Package wire implements the node's request/response protocol from
// spec.md §4.4/§6: tagged, length-prefixed, big-endian frames over any
// io.Reader/io.Writer. Grounded on daglabs-btcd's wire.MessageCommand
// (iota consts plus a String() lookup table) and its ReadElement/
// WriteElement framing discipline, rebuilt here directly on the
// serialize package instead of wire's own binaryserializer helpers.
package wire

import (
	"io"

	"github.com/pkg/errors"

	"github.com/grael-network/graeld/serialize"
)

// MsgType tags a frame's payload shape, mirroring wire.MessageCommand's
// role in the teacher's protocol.
type MsgType uint8

const (
	MsgError MsgType = iota
	MsgGetProperties
	MsgGetBlock
	MsgGetAddressInfo
	MsgBroadcast
)

var msgTypeNames = map[MsgType]string{
	MsgError:         "Error",
	MsgGetProperties: "GetProperties",
	MsgGetBlock:      "GetBlock",
	MsgGetAddressInfo: "GetAddressInfo",
	MsgBroadcast:     "Broadcast",
}

func (m MsgType) String() string {
	if s, ok := msgTypeNames[m]; ok {
		return s
	}
	return "Unknown"
}

// ErrUnknownMsgType is what a dispatcher returns when a frame's type tag
// does not match any known MsgType; DecodeFrame itself never returns it.
var ErrUnknownMsgType = errors.New("wire: unknown message type")

// Frame is a single tagged, length-prefixed unit on the wire: a MsgType
// byte followed by a u32-length-prefixed payload.
type Frame struct {
	Type    MsgType
	Payload []byte
}

// EncodeFrame writes f as MsgType(u8) || len(u32) || payload.
func EncodeFrame(w io.Writer, f Frame) error {
	if err := serialize.WriteUint8(w, uint8(f.Type)); err != nil {
		return err
	}
	return serialize.WriteBytes(w, f.Payload)
}

// DecodeFrame reads a single Frame. It does not validate that Type is
// one of the known MsgType values — callers dispatch and return
// ErrUnknownMsgType themselves, so the decode failure can carry a
// WireError back over the same connection.
func DecodeFrame(r io.Reader) (Frame, error) {
	rawType, err := serialize.ReadUint8(r)
	if err != nil {
		return Frame{}, err
	}
	payload, err := serialize.ReadBytes(r)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: MsgType(rawType), Payload: payload}, nil
}
