package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec"
)

// NodeAnnouncement lets a node advertise its identity, supported
// features, and network addresses to the rest of the gossip graph.
type NodeAnnouncement struct {
	Signature Sig
	Features  *RawFeatureVector
	Timestamp uint32
	NodeID    *btcec.PublicKey
	RGBColor  [3]byte
	Alias     [32]byte

	// Addresses holds the raw serialized network address list; this core
	// doesn't interpret individual address types, only preserves them.
	Addresses []byte
}

func (msg *NodeAnnouncement) Decode(r io.Reader) error {
	if err := readElement(r, &msg.Signature); err != nil {
		return err
	}

	msg.Features = NewRawFeatureVector()
	if err := msg.Features.Decode(r); err != nil {
		return err
	}

	if err := readElements(r,
		&msg.Timestamp,
		&msg.NodeID,
	); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, msg.RGBColor[:]); err != nil {
		return err
	}
	if err := readElement(r, &msg.Alias); err != nil {
		return err
	}

	addrs, err := readByteSlice(r)
	if err != nil {
		return err
	}
	msg.Addresses = addrs
	return nil
}

func (msg *NodeAnnouncement) Encode(w io.Writer) error {
	if err := writeElement(w, msg.Signature); err != nil {
		return err
	}

	if msg.Features == nil {
		msg.Features = NewRawFeatureVector()
	}
	if err := msg.Features.Encode(w); err != nil {
		return err
	}

	if err := writeElements(w,
		msg.Timestamp,
		msg.NodeID,
	); err != nil {
		return err
	}
	if _, err := w.Write(msg.RGBColor[:]); err != nil {
		return err
	}
	if err := writeElement(w, msg.Alias); err != nil {
		return err
	}

	return writeByteSlice(w, msg.Addresses)
}

func (msg *NodeAnnouncement) MsgType() MessageType {
	return MsgNodeAnnouncement
}
