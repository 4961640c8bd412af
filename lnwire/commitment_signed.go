package lnwire

import "io"

// CommitmentSigned signs the receiver's next commitment transaction,
// along with one signature per HTLC output it contains, in the same
// order the HTLCs appear in the transaction (BIP-69 / CLTV / payment
// hash ordering, per spec.md component F).
type CommitmentSigned struct {
	ChanID    ChannelID
	CommitSig Sig
	HtlcSigs  []Sig
}

func (msg *CommitmentSigned) Decode(r io.Reader) error {
	if err := readElements(r,
		(*[32]byte)(&msg.ChanID),
		&msg.CommitSig,
	); err != nil {
		return err
	}

	var numHtlcs uint16
	if err := readElement(r, &numHtlcs); err != nil {
		return err
	}

	msg.HtlcSigs = make([]Sig, numHtlcs)
	for i := range msg.HtlcSigs {
		if err := readElement(r, &msg.HtlcSigs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (msg *CommitmentSigned) Encode(w io.Writer) error {
	if err := writeElements(w,
		[32]byte(msg.ChanID),
		msg.CommitSig,
	); err != nil {
		return err
	}

	if err := writeElement(w, uint16(len(msg.HtlcSigs))); err != nil {
		return err
	}
	for _, sig := range msg.HtlcSigs {
		if err := writeElement(w, sig); err != nil {
			return err
		}
	}
	return nil
}

func (msg *CommitmentSigned) MsgType() MessageType {
	return MsgCommitmentSigned
}
