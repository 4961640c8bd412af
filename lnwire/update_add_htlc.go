package lnwire

import "io"

// OnionPacketSize is the fixed size of the Sphinx onion routing packet
// carried by every UpdateAddHTLC, per spec.md component G.
const OnionPacketSize = 1366

// UpdateAddHTLC proposes adding a new HTLC to the channel, identified by
// a per-direction monotonic ID and carrying the next hop's onion packet.
type UpdateAddHTLC struct {
	ChanID      ChannelID
	ID          uint64
	Amount      MilliSatoshi
	PaymentHash [32]byte
	Expiry      uint32
	OnionBlob   [OnionPacketSize]byte
}

func (msg *UpdateAddHTLC) Decode(r io.Reader) error {
	if err := readElements(r,
		(*[32]byte)(&msg.ChanID),
		&msg.ID,
		&msg.Amount,
		&msg.PaymentHash,
		&msg.Expiry,
	); err != nil {
		return err
	}
	_, err := io.ReadFull(r, msg.OnionBlob[:])
	return err
}

func (msg *UpdateAddHTLC) Encode(w io.Writer) error {
	if err := writeElements(w,
		[32]byte(msg.ChanID),
		msg.ID,
		msg.Amount,
		msg.PaymentHash,
		msg.Expiry,
	); err != nil {
		return err
	}
	_, err := w.Write(msg.OnionBlob[:])
	return err
}

func (msg *UpdateAddHTLC) MsgType() MessageType {
	return MsgUpdateAddHTLC
}
