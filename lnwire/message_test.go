package lnwire

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/btcsuite/btcd/btcec"
)

func zlibCompress(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

func mustPubKey(t *testing.T, seed byte) *btcec.PublicKey {
	t.Helper()
	raw := bytes.Repeat([]byte{seed}, 32)
	priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), raw)
	return priv.PubKey()
}

// roundTrip encodes msg, decodes it back into a fresh value of the same
// type, and returns the decoded Message for the caller to inspect.
func roundTrip(t *testing.T, msg Message) Message {
	t.Helper()

	raw, err := WriteMessage(msg, nil)
	if err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	got, extra, err := ReadMessage(raw)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if len(extra) != 0 {
		t.Fatalf("unexpected extra data: %x", []byte(extra))
	}
	if got.MsgType() != msg.MsgType() {
		t.Fatalf("type mismatch: got %v want %v", got.MsgType(), msg.MsgType())
	}
	return got
}

func TestInitRoundTrip(t *testing.T) {
	gf := NewRawFeatureVector(FeatureBit(0))
	lf := NewRawFeatureVector(FeatureBit(3), FeatureBit(5))

	got := roundTrip(t, NewInitMessage(gf, lf)).(*Init)

	if !got.GlobalFeatures.IsSet(0) {
		t.Fatalf("expected global feature bit 0 to survive round trip")
	}
	if !got.Features.IsSet(3) || !got.Features.IsSet(5) {
		t.Fatalf("expected local feature bits 3 and 5 to survive round trip")
	}
}

func TestPingPongRoundTrip(t *testing.T) {
	ping := NewPing(16)
	ping.PaddingBytes = bytes.Repeat([]byte{0}, 16)
	got := roundTrip(t, ping).(*Ping)
	if got.NumPongBytes != 16 || len(got.PaddingBytes) != 16 {
		t.Fatalf("ping mismatch: %+v", got)
	}

	pong := NewPong(8)
	gotPong := roundTrip(t, pong).(*Pong)
	if len(gotPong.PaddingBytes) != 8 {
		t.Fatalf("pong padding mismatch: got %d want 8", len(gotPong.PaddingBytes))
	}
}

func TestErrorRoundTrip(t *testing.T) {
	e := NewError([]byte("internal error"))
	e.ChanID[0] = 0xAB

	got := roundTrip(t, e).(*Error)
	if !bytes.Equal(got.Data, []byte("internal error")) {
		t.Fatalf("data mismatch: %q", got.Data)
	}
	if got.ChanID[0] != 0xAB {
		t.Fatalf("chan id mismatch: %x", got.ChanID)
	}
}

func TestOpenChannelRoundTrip(t *testing.T) {
	oc := &OpenChannel{
		FundingAmount:        100000,
		PushAmount:           5000,
		DustLimit:            573,
		MaxValueInFlight:     4294967295,
		ChannelReserve:       1000,
		HtlcMinimum:          1,
		FeePerKiloWeight:     253,
		CsvDelay:             144,
		MaxAcceptedHTLCs:     30,
		FundingKey:           mustPubKey(t, 1),
		RevocationPoint:      mustPubKey(t, 2),
		PaymentPoint:         mustPubKey(t, 3),
		DelayedPaymentPoint:  mustPubKey(t, 4),
		HtlcPoint:            mustPubKey(t, 5),
		FirstCommitmentPoint: mustPubKey(t, 6),
		ChannelFlags:         FFAnnounceChannel,
	}

	got := roundTrip(t, oc).(*OpenChannel)
	if got.FundingAmount != oc.FundingAmount {
		t.Fatalf("funding amount mismatch: got %d want %d", got.FundingAmount, oc.FundingAmount)
	}
	if !got.FundingKey.IsEqual(oc.FundingKey) {
		t.Fatalf("funding key mismatch")
	}
	if got.ChannelFlags != FFAnnounceChannel {
		t.Fatalf("channel flags mismatch: %v", got.ChannelFlags)
	}
}

func TestCommitmentSignedRoundTrip(t *testing.T) {
	cs := &CommitmentSigned{
		HtlcSigs: []Sig{{1, 2, 3}, {4, 5, 6}},
	}
	cs.CommitSig[0] = 0xFF

	got := roundTrip(t, cs).(*CommitmentSigned)
	if len(got.HtlcSigs) != 2 {
		t.Fatalf("expected 2 htlc sigs, got %d", len(got.HtlcSigs))
	}
	if got.HtlcSigs[0] != cs.HtlcSigs[0] || got.HtlcSigs[1] != cs.HtlcSigs[1] {
		t.Fatalf("htlc sig mismatch")
	}
	if got.CommitSig != cs.CommitSig {
		t.Fatalf("commit sig mismatch")
	}
}

func TestReplyChannelRangeRoundTrip(t *testing.T) {
	ids := []ShortChannelID{
		{BlockHeight: 1, TxIndex: 0, TxPosition: 0},
		{BlockHeight: 500000, TxIndex: 42, TxPosition: 1},
	}
	rc := &ReplyChannelRange{
		FirstBlockHeight: 1,
		NumBlocks:        500000,
		Complete:         1,
		ShortChanIDs:     ids,
	}

	got := roundTrip(t, rc).(*ReplyChannelRange)
	if len(got.ShortChanIDs) != 2 {
		t.Fatalf("expected 2 short channel ids, got %d", len(got.ShortChanIDs))
	}
	for i, id := range ids {
		if got.ShortChanIDs[i] != id {
			t.Fatalf("short channel id %d mismatch: got %+v want %+v", i, got.ShortChanIDs[i], id)
		}
	}
}

// TestUncompressedDataZlibInterop checks that a zlib-encoded short channel
// id list decodes to the same set a plain-encoded one does, per spec.md
// ยง4.E's "decode MUST accept both" requirement.
func TestUncompressedDataZlibInterop(t *testing.T) {
	ids := []ShortChannelID{
		{BlockHeight: 10, TxIndex: 1, TxPosition: 0},
		{BlockHeight: 20, TxIndex: 2, TxPosition: 1},
		{BlockHeight: 30, TxIndex: 3, TxPosition: 2},
	}

	var plainBuf bytes.Buffer
	if err := writeUncompressedChanIDs(&plainBuf, ids); err != nil {
		t.Fatalf("writeUncompressedChanIDs: %v", err)
	}

	plainGot, err := readUncompressedChanIDs(bytes.NewReader(plainBuf.Bytes()))
	if err != nil {
		t.Fatalf("readUncompressedChanIDs (plain): %v", err)
	}

	var zlibBuf bytes.Buffer
	if err := writeElement(&zlibBuf, uint8(encodingZlib)); err != nil {
		t.Fatalf("writeElement encoding byte: %v", err)
	}

	var rawIDs bytes.Buffer
	if err := writeShortChanIDVector(&rawIDs, ids); err != nil {
		t.Fatalf("writeShortChanIDVector: %v", err)
	}

	compressed := zlibCompress(t, rawIDs.Bytes())
	if err := writeByteSlice(&zlibBuf, compressed); err != nil {
		t.Fatalf("writeByteSlice: %v", err)
	}

	zlibGot, err := readUncompressedChanIDs(bytes.NewReader(zlibBuf.Bytes()))
	if err != nil {
		t.Fatalf("readUncompressedChanIDs (zlib): %v", err)
	}

	if len(plainGot) != len(zlibGot) {
		t.Fatalf("set size mismatch: plain %d zlib %d", len(plainGot), len(zlibGot))
	}
	for i := range plainGot {
		if plainGot[i] != zlibGot[i] {
			t.Fatalf("entry %d mismatch: plain %+v zlib %+v", i, plainGot[i], zlibGot[i])
		}
	}
}

func TestShortChanIDVectorRejectsUnalignedLength(t *testing.T) {
	var buf bytes.Buffer
	// Byte length of 7 is claimed, which isn't a multiple of 8.
	if err := writeElement(&buf, uint16(7)); err != nil {
		t.Fatalf("writeElement: %v", err)
	}
	buf.Write(bytes.Repeat([]byte{0}, 7))

	_, err := readShortChanIDVector(bytes.NewReader(buf.Bytes()))
	if _, ok := err.(*ErrWireFormat); !ok {
		t.Fatalf("expected ErrWireFormat, got %T: %v", err, err)
	}
}

func TestReadMessageUnknownType(t *testing.T) {
	payload := []byte{0xff, 0xfe}
	_, _, err := ReadMessage(payload)
	if _, ok := err.(ErrUnknownMessageType); !ok {
		t.Fatalf("expected ErrUnknownMessageType, got %T: %v", err, err)
	}
}

func TestExtraOpaqueDataPreserved(t *testing.T) {
	ping := NewPing(0)
	raw, err := WriteMessage(ping, ExtraOpaqueData{0x01, 0x02, 0x03})
	if err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	_, extra, err := ReadMessage(raw)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if !bytes.Equal(extra, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("extra data mismatch: got %x", []byte(extra))
	}
}
