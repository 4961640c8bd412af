package lnwire

import "io"

// Ping is sent periodically to measure a peer's liveness, carrying a
// request for NumPongBytes bytes of padding in the reply and PaddingBytes
// as its own ignorable padding, per spec.md ยง4.H.
type Ping struct {
	NumPongBytes uint16
	PaddingBytes []byte
}

// NewPing builds a Ping that requests numPongBytes of padding back.
func NewPing(numPongBytes uint16) *Ping {
	return &Ping{NumPongBytes: numPongBytes}
}

func (msg *Ping) Decode(r io.Reader) error {
	if err := readElement(r, &msg.NumPongBytes); err != nil {
		return err
	}
	padding, err := readByteSlice(r)
	if err != nil {
		return err
	}
	msg.PaddingBytes = padding
	return nil
}

func (msg *Ping) Encode(w io.Writer) error {
	if err := writeElement(w, msg.NumPongBytes); err != nil {
		return err
	}
	return writeByteSlice(w, msg.PaddingBytes)
}

func (msg *Ping) MsgType() MessageType {
	return MsgPing
}
