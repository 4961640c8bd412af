package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ChanUpdateFlag packs the direction bit and the disable bit that ride
// along in ChannelUpdate's ChannelFlags byte.
type ChanUpdateFlag uint8

const (
	// ChanUpdateDirection is set when the update originates from the
	// numerically-greater of the channel's two node IDs.
	ChanUpdateDirection ChanUpdateFlag = 1 << 0

	// ChanUpdateDisabled marks the channel as currently unusable for
	// routing.
	ChanUpdateDisabled ChanUpdateFlag = 1 << 1
)

// ChannelUpdate advertises the routing policy one side of a channel
// applies to payments forwarded across it: fees, minimum relayable
// amount, and CLTV delta.
type ChannelUpdate struct {
	Signature          Sig
	ChainHash          chainhash.Hash
	ShortChannelID     ShortChannelID
	Timestamp          uint32
	MessageFlags       uint8
	ChannelFlags       ChanUpdateFlag
	TimeLockDelta      uint16
	HtlcMinimumMsat    MilliSatoshi
	BaseFee            uint32
	FeeRate            uint32
	HtlcMaximumMsat    MilliSatoshi
}

func (msg *ChannelUpdate) Decode(r io.Reader) error {
	if err := readElements(r,
		&msg.Signature,
		&msg.ChainHash,
		&msg.ShortChannelID,
		&msg.Timestamp,
		&msg.MessageFlags,
		(*uint8)(&msg.ChannelFlags),
		&msg.TimeLockDelta,
		&msg.HtlcMinimumMsat,
		&msg.BaseFee,
		&msg.FeeRate,
	); err != nil {
		return err
	}

	// The max-HTLC field is only present when bit 0 of MessageFlags is
	// set; older nodes omit it entirely.
	if msg.MessageFlags&0x1 == 0 {
		return nil
	}
	return readElement(r, &msg.HtlcMaximumMsat)
}

func (msg *ChannelUpdate) Encode(w io.Writer) error {
	if err := writeElements(w,
		msg.Signature,
		msg.ChainHash,
		msg.ShortChannelID,
		msg.Timestamp,
		msg.MessageFlags,
		uint8(msg.ChannelFlags),
		msg.TimeLockDelta,
		msg.HtlcMinimumMsat,
		msg.BaseFee,
		msg.FeeRate,
	); err != nil {
		return err
	}

	if msg.MessageFlags&0x1 == 0 {
		return nil
	}
	return writeElement(w, msg.HtlcMaximumMsat)
}

func (msg *ChannelUpdate) MsgType() MessageType {
	return MsgChannelUpdate
}
