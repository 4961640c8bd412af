package lnwire

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// writeByteSlice writes a plain length-prefixed (u16 big-endian) byte
// vector, the SerdeVec<byte> case that needs no element decoding.
func writeByteSlice(w io.Writer, b []byte) error {
	if len(b) > 65535 {
		return fmt.Errorf("lnwire: byte vector exceeds 65535 bytes")
	}
	if err := writeElement(w, uint16(len(b))); err != nil {
		return err
	}
	return writeBytes(w, b)
}

// readByteSlice reads a plain length-prefixed byte vector.
func readByteSlice(r io.Reader) ([]byte, error) {
	var length uint16
	if err := readElement(r, &length); err != nil {
		return nil, err
	}
	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// writeShortChanIDVector writes a SerdeVec<ShortChannelID>: a u16
// byte-length prefix followed by the tightly packed 8-byte entries.
func writeShortChanIDVector(w io.Writer, ids []ShortChannelID) error {
	byteLen := len(ids) * 8
	if byteLen > 65535 {
		return fmt.Errorf("lnwire: short channel id vector exceeds 65535 bytes")
	}
	if err := writeElement(w, uint16(byteLen)); err != nil {
		return err
	}
	for _, id := range ids {
		if err := writeElement(w, id.ToUint64()); err != nil {
			return err
		}
	}
	return nil
}

// readShortChanIDVector reads a SerdeVec<ShortChannelID>, rejecting a
// byte-length field that doesn't evenly divide the 8-byte element size
// per spec.md ยง7 kind 6.
func readShortChanIDVector(r io.Reader) ([]ShortChannelID, error) {
	var byteLen uint16
	if err := readElement(r, &byteLen); err != nil {
		return nil, err
	}
	if byteLen%8 != 0 {
		return nil, &ErrWireFormat{
			Reason: fmt.Sprintf("short channel id vector length %d not a multiple of 8", byteLen),
		}
	}

	count := int(byteLen) / 8
	ids := make([]ShortChannelID, 0, count)
	for i := 0; i < count; i++ {
		var raw uint64
		if err := readElement(r, &raw); err != nil {
			return nil, err
		}
		ids = append(ids, NewShortChanIDFromInt(raw))
	}
	return ids, nil
}

// encodingType is the leading discriminator byte of an UncompressedData
// field.
type encodingType uint8

const (
	encodingPlain encodingType = 0
	encodingZlib  encodingType = 1
)

// writeUncompressedChanIDs writes an UncompressedData<ShortChannelID>
// field. It always emits the plain encoding; per spec.md ยง4.E emitting
// zlib is merely permitted, not required, and plain avoids depending on a
// specific deflate implementation's byte output.
func writeUncompressedChanIDs(w io.Writer, ids []ShortChannelID) error {
	if err := writeElement(w, uint8(encodingPlain)); err != nil {
		return err
	}
	return writeShortChanIDVector(w, ids)
}

// readUncompressedChanIDs reads an UncompressedData<ShortChannelID>
// field, transparently inflating the zlib branch. Per spec.md ยง4.E both
// encodings MUST be accepted on decode.
func readUncompressedChanIDs(r io.Reader) ([]ShortChannelID, error) {
	var enc uint8
	if err := readElement(r, &enc); err != nil {
		return nil, err
	}

	switch encodingType(enc) {
	case encodingPlain:
		return readShortChanIDVector(r)

	case encodingZlib:
		compressed, err := readByteSlice(r)
		if err != nil {
			return nil, err
		}
		zr, err := zlib.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, &ErrWireFormat{Reason: "invalid zlib stream: " + err.Error()}
		}
		defer zr.Close()

		var inflated bytes.Buffer
		if _, err := io.Copy(&inflated, zr); err != nil {
			return nil, &ErrWireFormat{Reason: "zlib decompression failed: " + err.Error()}
		}
		return readShortChanIDVector(bytes.NewReader(inflated.Bytes()))

	default:
		return nil, &ErrWireFormat{
			Reason: fmt.Sprintf("unknown UncompressedData encoding %d", enc),
		}
	}
}
