package lnwire

import "io"

// Pong is the reply to a Ping, padded out to the length the Ping
// requested purely to let the sender measure bandwidth.
type Pong struct {
	PaddingBytes []byte
}

// NewPong builds a Pong with the given number of zero padding bytes.
func NewPong(padLen uint16) *Pong {
	return &Pong{PaddingBytes: make([]byte, padLen)}
}

func (msg *Pong) Decode(r io.Reader) error {
	padding, err := readByteSlice(r)
	if err != nil {
		return err
	}
	msg.PaddingBytes = padding
	return nil
}

func (msg *Pong) Encode(w io.Writer) error {
	return writeByteSlice(w, msg.PaddingBytes)
}

func (msg *Pong) MsgType() MessageType {
	return MsgPong
}
