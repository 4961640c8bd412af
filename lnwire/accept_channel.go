package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec"
)

// AcceptChannel is the responder's reply to OpenChannel, echoing the
// pending channel id and contributing its own basepoints and minimum
// confirmation depth.
type AcceptChannel struct {
	PendingChannelID     ChannelID
	DustLimit            Satoshi
	MaxValueInFlight     MilliSatoshi
	ChannelReserve       Satoshi
	HtlcMinimum          MilliSatoshi
	MinAcceptDepth       uint32
	CsvDelay             uint16
	MaxAcceptedHTLCs     uint16
	FundingKey           *btcec.PublicKey
	RevocationPoint      *btcec.PublicKey
	PaymentPoint         *btcec.PublicKey
	DelayedPaymentPoint  *btcec.PublicKey
	HtlcPoint            *btcec.PublicKey
	FirstCommitmentPoint *btcec.PublicKey
}

func (msg *AcceptChannel) Decode(r io.Reader) error {
	return readElements(r,
		(*[32]byte)(&msg.PendingChannelID),
		&msg.DustLimit,
		&msg.MaxValueInFlight,
		&msg.ChannelReserve,
		&msg.HtlcMinimum,
		&msg.MinAcceptDepth,
		&msg.CsvDelay,
		&msg.MaxAcceptedHTLCs,
		&msg.FundingKey,
		&msg.RevocationPoint,
		&msg.PaymentPoint,
		&msg.DelayedPaymentPoint,
		&msg.HtlcPoint,
		&msg.FirstCommitmentPoint,
	)
}

func (msg *AcceptChannel) Encode(w io.Writer) error {
	return writeElements(w,
		[32]byte(msg.PendingChannelID),
		msg.DustLimit,
		msg.MaxValueInFlight,
		msg.ChannelReserve,
		msg.HtlcMinimum,
		msg.MinAcceptDepth,
		msg.CsvDelay,
		msg.MaxAcceptedHTLCs,
		msg.FundingKey,
		msg.RevocationPoint,
		msg.PaymentPoint,
		msg.DelayedPaymentPoint,
		msg.HtlcPoint,
		msg.FirstCommitmentPoint,
	)
}

func (msg *AcceptChannel) MsgType() MessageType {
	return MsgAcceptChannel
}
