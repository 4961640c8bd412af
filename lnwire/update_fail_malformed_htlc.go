package lnwire

import "io"

// UpdateFailMalformedHTLC fails an HTLC whose onion packet itself
// couldn't be processed (bad HMAC, unparseable shared secret), reporting
// a hash of the bad onion rather than the onion itself so the failure
// can still be relayed without leaking the routing payload.
type UpdateFailMalformedHTLC struct {
	ChanID       ChannelID
	ID           uint64
	ShaOnionBlob [32]byte
	FailureCode  uint16
}

func (msg *UpdateFailMalformedHTLC) Decode(r io.Reader) error {
	return readElements(r,
		(*[32]byte)(&msg.ChanID),
		&msg.ID,
		&msg.ShaOnionBlob,
		&msg.FailureCode,
	)
}

func (msg *UpdateFailMalformedHTLC) Encode(w io.Writer) error {
	return writeElements(w,
		[32]byte(msg.ChanID),
		msg.ID,
		msg.ShaOnionBlob,
		msg.FailureCode,
	)
}

func (msg *UpdateFailMalformedHTLC) MsgType() MessageType {
	return MsgUpdateFailMalformedHTLC
}
