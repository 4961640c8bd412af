package lnwire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// bytesBuffer is a thin alias so message.go doesn't need to import
// bytes directly; every Message.Encode call writes through it.
type bytesBuffer = bytes.Buffer

// byteReader is an io.Reader over an in-memory payload that additionally
// exposes how many bytes are left unconsumed, used to recover the "extra
// data" trailing a decoded message (spec.md ยง3).
type byteReader struct {
	buf *bytes.Reader
}

func newByteReader(b []byte) *byteReader {
	return &byteReader{buf: bytes.NewReader(b)}
}

func (r *byteReader) Read(p []byte) (int, error) {
	return r.buf.Read(p)
}

func (r *byteReader) remaining() []byte {
	rest := make([]byte, r.buf.Len())
	r.buf.Read(rest)
	return rest
}

// ExtraOpaqueData represents the optional opaque bytes a message carries
// past its known fields, preserved verbatim across decode/re-encode so a
// forward-compatible node doesn't destroy data it doesn't understand.
type ExtraOpaqueData []byte

// Satoshi is a bitcoin amount denominated in satoshis, written big-endian.
type Satoshi uint64

// MilliSatoshi is a bitcoin amount denominated in thousandths of a
// satoshi, written big-endian.
type MilliSatoshi uint64

// SatoshiPerKiloWeight is a fee rate expressed in satoshis per 1000 weight
// units, written big-endian.
type SatoshiPerKiloWeight uint64

// writeElement serializes a single field to w using big-endian encoding for
// every fixed-width integer type, per spec.md ยง4.E. It's the one dispatch
// point every message's Encode method funnels through, so adding a new
// element kind never requires touching call sites.
func writeElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case uint8:
		return writeBytes(w, []byte{e})
	case uint16:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], e)
		return writeBytes(w, b[:])
	case uint32:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], e)
		return writeBytes(w, b[:])
	case uint64:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], e)
		return writeBytes(w, b[:])
	case Satoshi:
		return writeElement(w, uint64(e))
	case MilliSatoshi:
		return writeElement(w, uint64(e))
	case SatoshiPerKiloWeight:
		return writeElement(w, uint64(e))
	case ShortChannelID:
		return writeElement(w, e.ToUint64())
	case bool:
		if e {
			return writeBytes(w, []byte{1})
		}
		return writeBytes(w, []byte{0})
	case [32]byte:
		return writeBytes(w, e[:])
	case [33]byte:
		return writeBytes(w, e[:])
	case chainhash.Hash:
		return writeBytes(w, e[:])
	case *btcec.PublicKey:
		if e == nil {
			return writeBytes(w, make([]byte, 33))
		}
		return writeBytes(w, e.SerializeCompressed())
	case Sig:
		return writeBytes(w, e[:])
	case []byte:
		return writeBytes(w, e)
	default:
		panic("lnwire: unknown element type in writeElement")
	}
}

func writeBytes(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	return err
}

// readElement deserializes a single field from r into the pointer element,
// mirroring writeElement's dispatch.
func readElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *uint8:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = b[0]
		return nil
	case *uint16:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = binary.BigEndian.Uint16(b[:])
		return nil
	case *uint32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = binary.BigEndian.Uint32(b[:])
		return nil
	case *uint64:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = binary.BigEndian.Uint64(b[:])
		return nil
	case *Satoshi:
		var v uint64
		if err := readElement(r, &v); err != nil {
			return err
		}
		*e = Satoshi(v)
		return nil
	case *MilliSatoshi:
		var v uint64
		if err := readElement(r, &v); err != nil {
			return err
		}
		*e = MilliSatoshi(v)
		return nil
	case *SatoshiPerKiloWeight:
		var v uint64
		if err := readElement(r, &v); err != nil {
			return err
		}
		*e = SatoshiPerKiloWeight(v)
		return nil
	case *ShortChannelID:
		var v uint64
		if err := readElement(r, &v); err != nil {
			return err
		}
		*e = NewShortChanIDFromInt(v)
		return nil
	case *bool:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = b[0] != 0
		return nil
	case *[32]byte:
		_, err := io.ReadFull(r, e[:])
		return err
	case *[33]byte:
		_, err := io.ReadFull(r, e[:])
		return err
	case *chainhash.Hash:
		_, err := io.ReadFull(r, e[:])
		return err
	case **btcec.PublicKey:
		var raw [33]byte
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return err
		}
		pub, err := btcec.ParsePubKey(raw[:], btcec.S256())
		if err != nil {
			return &ErrWireFormat{Reason: "invalid public key: " + err.Error()}
		}
		*e = pub
		return nil
	case *Sig:
		_, err := io.ReadFull(r, e[:])
		return err
	default:
		panic("lnwire: unknown element type in readElement")
	}
}

// writeElements is a convenience wrapper calling writeElement over each
// argument in order, stopping at the first error.
func writeElements(w io.Writer, elements ...interface{}) error {
	for _, e := range elements {
		if err := writeElement(w, e); err != nil {
			return err
		}
	}
	return nil
}

// readElements is the decode-side counterpart to writeElements.
func readElements(r io.Reader, elements ...interface{}) error {
	for _, e := range elements {
		if err := readElement(r, e); err != nil {
			return err
		}
	}
	return nil
}
