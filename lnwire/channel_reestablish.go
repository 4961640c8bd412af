package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec"
)

// ChannelReestablish lets two peers resynchronize channel state after a
// reconnection, exchanging the commitment numbers each expects next and,
// if data-loss-protect is negotiated, the secret from the peer's last
// commitment so either side can detect it has fallen behind.
type ChannelReestablish struct {
	ChanID              ChannelID
	NextLocalCommitHeight  uint64
	RemoteCommitTailHeight uint64

	LastRemoteCommitSecret [32]byte
	LocalUnrevokedCommitPoint *btcec.PublicKey
}

func (msg *ChannelReestablish) Decode(r io.Reader) error {
	if err := readElements(r,
		(*[32]byte)(&msg.ChanID),
		&msg.NextLocalCommitHeight,
		&msg.RemoteCommitTailHeight,
	); err != nil {
		return err
	}

	// The data-loss-protect fields are optional trailing fields; a peer
	// that doesn't support them sends a truncated message.
	if err := readElement(r, &msg.LastRemoteCommitSecret); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	if err := readElement(r, &msg.LocalUnrevokedCommitPoint); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		return err
	}
	return nil
}

func (msg *ChannelReestablish) Encode(w io.Writer) error {
	if err := writeElements(w,
		[32]byte(msg.ChanID),
		msg.NextLocalCommitHeight,
		msg.RemoteCommitTailHeight,
	); err != nil {
		return err
	}

	if msg.LocalUnrevokedCommitPoint == nil {
		return nil
	}
	return writeElements(w,
		msg.LastRemoteCommitSecret,
		msg.LocalUnrevokedCommitPoint,
	)
}

func (msg *ChannelReestablish) MsgType() MessageType {
	return MsgChannelReestablish
}
