package lnwire

import "io"

// UpdateFee adjusts the commitment transaction fee rate for a channel the
// sender is the funder of; feerate is carried in satoshis-per-kiloweight
// so both sides can agree on a fee without a block-explorer round trip.
type UpdateFee struct {
	ChanID   ChannelID
	FeePerKw SatoshiPerKiloWeight
}

func (msg *UpdateFee) Decode(r io.Reader) error {
	return readElements(r,
		(*[32]byte)(&msg.ChanID),
		&msg.FeePerKw,
	)
}

func (msg *UpdateFee) Encode(w io.Writer) error {
	return writeElements(w,
		[32]byte(msg.ChanID),
		msg.FeePerKw,
	)
}

func (msg *UpdateFee) MsgType() MessageType {
	return MsgUpdateFee
}
