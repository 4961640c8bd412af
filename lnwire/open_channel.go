package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// FundingFlag is the bitfield carried in OpenChannel.ChannelFlags. Only
// bit 0 is defined: whether the sender wants the channel publicly
// announced.
type FundingFlag uint8

const (
	// FFAnnounceChannel requests the channel be gossiped to the network
	// once six confirmations are reached.
	FFAnnounceChannel FundingFlag = 1 << 0
)

// OpenChannel begins the funding workflow: the initiator proposes channel
// parameters and its four basepoints, per spec.md ยง3.
type OpenChannel struct {
	ChainHash            chainhash.Hash
	PendingChannelID     ChannelID
	FundingAmount        Satoshi
	PushAmount           MilliSatoshi
	DustLimit            Satoshi
	MaxValueInFlight     MilliSatoshi
	ChannelReserve       Satoshi
	HtlcMinimum          MilliSatoshi
	FeePerKiloWeight     SatoshiPerKiloWeight
	CsvDelay             uint16
	MaxAcceptedHTLCs     uint16
	FundingKey           *btcec.PublicKey
	RevocationPoint      *btcec.PublicKey
	PaymentPoint         *btcec.PublicKey
	DelayedPaymentPoint  *btcec.PublicKey
	HtlcPoint            *btcec.PublicKey
	FirstCommitmentPoint *btcec.PublicKey
	ChannelFlags         FundingFlag
}

func (msg *OpenChannel) Decode(r io.Reader) error {
	return readElements(r,
		&msg.ChainHash,
		(*[32]byte)(&msg.PendingChannelID),
		&msg.FundingAmount,
		&msg.PushAmount,
		&msg.DustLimit,
		&msg.MaxValueInFlight,
		&msg.ChannelReserve,
		&msg.HtlcMinimum,
		&msg.FeePerKiloWeight,
		&msg.CsvDelay,
		&msg.MaxAcceptedHTLCs,
		&msg.FundingKey,
		&msg.RevocationPoint,
		&msg.PaymentPoint,
		&msg.DelayedPaymentPoint,
		&msg.HtlcPoint,
		&msg.FirstCommitmentPoint,
		(*uint8)(&msg.ChannelFlags),
	)
}

func (msg *OpenChannel) Encode(w io.Writer) error {
	return writeElements(w,
		msg.ChainHash,
		[32]byte(msg.PendingChannelID),
		msg.FundingAmount,
		msg.PushAmount,
		msg.DustLimit,
		msg.MaxValueInFlight,
		msg.ChannelReserve,
		msg.HtlcMinimum,
		msg.FeePerKiloWeight,
		msg.CsvDelay,
		msg.MaxAcceptedHTLCs,
		msg.FundingKey,
		msg.RevocationPoint,
		msg.PaymentPoint,
		msg.DelayedPaymentPoint,
		msg.HtlcPoint,
		msg.FirstCommitmentPoint,
		uint8(msg.ChannelFlags),
	)
}

func (msg *OpenChannel) MsgType() MessageType {
	return MsgOpenChannel
}
