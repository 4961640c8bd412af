package lnwire

import "io"

// ChannelID identifies a channel for all post-funding wire messages: the
// funding outpoint's txid XORed with its big-endian output index, per
// BOLT 2. During the pre-funding handshake it's all zeroes.
type ChannelID [32]byte

// Error is sent to report a protocol violation or policy failure tied to
// a specific channel, or to all channels with a peer when ChannelID is
// all zeroes, per spec.md ยง4.H.
type Error struct {
	ChanID ChannelID
	Data   []byte
}

// NewError builds an Error carrying data as the failure reason, addressed
// to every channel with the peer.
func NewError(data []byte) *Error {
	return &Error{Data: data}
}

func (msg *Error) Decode(r io.Reader) error {
	if err := readElement(r, (*[32]byte)(&msg.ChanID)); err != nil {
		return err
	}
	data, err := readByteSlice(r)
	if err != nil {
		return err
	}
	msg.Data = data
	return nil
}

func (msg *Error) Encode(w io.Writer) error {
	if err := writeElement(w, [32]byte(msg.ChanID)); err != nil {
		return err
	}
	return writeByteSlice(w, msg.Data)
}

func (msg *Error) MsgType() MessageType {
	return MsgError
}
