package lnwire

import "io"

// Init is the first message either side of a connection must send, per
// spec.md ยง3: a pair of feature vectors advertising what the sender
// supports and requires.
type Init struct {
	GlobalFeatures *RawFeatureVector
	Features       *RawFeatureVector
}

// NewInitMessage builds an Init carrying the given global and local
// feature vectors.
func NewInitMessage(gf, lf *RawFeatureVector) *Init {
	return &Init{GlobalFeatures: gf, Features: lf}
}

func (msg *Init) Decode(r io.Reader) error {
	msg.GlobalFeatures = NewRawFeatureVector()
	if err := msg.GlobalFeatures.Decode(r); err != nil {
		return err
	}

	msg.Features = NewRawFeatureVector()
	return msg.Features.Decode(r)
}

func (msg *Init) Encode(w io.Writer) error {
	if msg.GlobalFeatures == nil {
		msg.GlobalFeatures = NewRawFeatureVector()
	}
	if msg.Features == nil {
		msg.Features = NewRawFeatureVector()
	}
	if err := msg.GlobalFeatures.Encode(w); err != nil {
		return err
	}
	return msg.Features.Encode(w)
}

func (msg *Init) MsgType() MessageType {
	return MsgInit
}
