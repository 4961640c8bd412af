package lnwire

import "io"

// Shutdown begins the cooperative close flow, carrying the scriptpubkey
// the sender wants its balance paid to.
type Shutdown struct {
	ChanID      ChannelID
	Address     []byte
}

func (msg *Shutdown) Decode(r io.Reader) error {
	if err := readElement(r, (*[32]byte)(&msg.ChanID)); err != nil {
		return err
	}
	addr, err := readByteSlice(r)
	if err != nil {
		return err
	}
	msg.Address = addr
	return nil
}

func (msg *Shutdown) Encode(w io.Writer) error {
	if err := writeElement(w, [32]byte(msg.ChanID)); err != nil {
		return err
	}
	return writeByteSlice(w, msg.Address)
}

func (msg *Shutdown) MsgType() MessageType {
	return MsgShutdown
}
