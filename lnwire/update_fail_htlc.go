package lnwire

import "io"

// UpdateFailHTLC fails a previously added HTLC, carrying an onion-wrapped
// failure reason opaque to every hop but the one that produced it.
type UpdateFailHTLC struct {
	ChanID ChannelID
	ID     uint64
	Reason []byte
}

func (msg *UpdateFailHTLC) Decode(r io.Reader) error {
	if err := readElements(r,
		(*[32]byte)(&msg.ChanID),
		&msg.ID,
	); err != nil {
		return err
	}
	reason, err := readByteSlice(r)
	if err != nil {
		return err
	}
	msg.Reason = reason
	return nil
}

func (msg *UpdateFailHTLC) Encode(w io.Writer) error {
	if err := writeElements(w,
		[32]byte(msg.ChanID),
		msg.ID,
	); err != nil {
		return err
	}
	return writeByteSlice(w, msg.Reason)
}

func (msg *UpdateFailHTLC) MsgType() MessageType {
	return MsgUpdateFailHTLC
}
