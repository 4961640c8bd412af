package lnwallet

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
)

// TestObscuredCommitNumberSplit reproduces the BOLT-3 commitment-number
// obscuring example: commit number 42 obscured by 0x2bb038521914 must split
// into the given nSequence and nLockTime.
func TestObscuredCommitNumberSplit(t *testing.T) {
	const obscure = uint64(0x2bb038521914)
	const commitNumber = uint64(42)

	sequence, locktime := commitLocktimeAndSequence(commitNumber, obscure)

	if sequence != 2150346808 {
		t.Fatalf("nSequence mismatch: got %d want %d", sequence, 2150346808)
	}
	if locktime != 542251326 {
		t.Fatalf("nLockTime mismatch: got %d want %d", locktime, 542251326)
	}
}

// TestHtlcTrimming checks that an HTLC one satoshi below the dust boundary
// is trimmed, and one right at it survives, for both directions.
func TestHtlcTrimming(t *testing.T) {
	const dustLimit = btcutil.Amount(354)
	const feePerKw = btcutil.Amount(15000)

	offeredThreshold := dustLimit + (htlcTimeoutWeight*feePerKw)/1000
	if !htlcTrimmed(Offered, offeredThreshold-1, dustLimit, feePerKw) {
		t.Fatalf("expected offered htlc just below threshold to be trimmed")
	}
	if htlcTrimmed(Offered, offeredThreshold, dustLimit, feePerKw) {
		t.Fatalf("expected offered htlc at threshold to survive")
	}

	acceptedThreshold := dustLimit + (htlcSuccessWeight*feePerKw)/1000
	if !htlcTrimmed(Accepted, acceptedThreshold-1, dustLimit, feePerKw) {
		t.Fatalf("expected accepted htlc just below threshold to be trimmed")
	}
	if htlcTrimmed(Accepted, acceptedThreshold, dustLimit, feePerKw) {
		t.Fatalf("expected accepted htlc at threshold to survive")
	}
}

// TestSortOutputsBIP69 verifies the ascending-value, then
// ascending-scriptPubKey output ordering, and that sorting twice is a
// no-op.
func TestSortOutputsBIP69(t *testing.T) {
	tx := wire.NewMsgTx(2)
	tx.AddTxOut(&wire.TxOut{Value: 300, PkScript: []byte{0x02}})
	tx.AddTxOut(&wire.TxOut{Value: 100, PkScript: []byte{0x01}})
	tx.AddTxOut(&wire.TxOut{Value: 100, PkScript: []byte{0x00}})

	SortOutputsBIP69(tx)

	wantValues := []int64{100, 100, 300}
	for i, want := range wantValues {
		if tx.TxOut[i].Value != want {
			t.Fatalf("output %d: got value %d want %d", i, tx.TxOut[i].Value, want)
		}
	}
	if tx.TxOut[0].PkScript[0] != 0x00 || tx.TxOut[1].PkScript[0] != 0x01 {
		t.Fatalf("tie-broken outputs out of scriptPubKey order")
	}

	before := append([]*wire.TxOut{}, tx.TxOut...)
	SortOutputsBIP69(tx)
	for i := range before {
		if before[i] != tx.TxOut[i] {
			t.Fatalf("sorting an already-sorted output set changed the order")
		}
	}
}

// TestSortInputsBIP69RotatesLastToFirst builds a 17-input transaction whose
// previous-output hashes are constructed so the lexicographic ordering
// rotates the last input to the front -- the permutation [16,0,1,...,15]
// spec.md's BIP-69 scenario calls out -- and checks that sorting an
// already-sorted input set is a no-op.
func TestSortInputsBIP69RotatesLastToFirst(t *testing.T) {
	const numInputs = 17

	tx := wire.NewMsgTx(2)
	for i := 0; i < numInputs; i++ {
		var hash chainhash.Hash
		// Every input but the last gets a strictly increasing hash;
		// the last input's hash sorts before all of them.
		if i < numInputs-1 {
			hash[0] = byte(i + 1)
		}
		tx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: wire.OutPoint{Hash: hash, Index: 0},
		})
	}

	SortInputsBIP69(tx)

	// The input that started at index numInputs-1 (all-zero hash) must
	// now lead.
	if tx.TxIn[0].PreviousOutPoint.Hash[0] != 0 {
		t.Fatalf("expected the zero-hash input to sort first, got byte %d",
			tx.TxIn[0].PreviousOutPoint.Hash[0])
	}
	for i := 1; i < numInputs; i++ {
		if tx.TxIn[i].PreviousOutPoint.Hash[0] != byte(i) {
			t.Fatalf("input %d out of order: got hash byte %d want %d",
				i, tx.TxIn[i].PreviousOutPoint.Hash[0], i)
		}
	}

	before := append([]*wire.TxIn{}, tx.TxIn...)
	SortInputsBIP69(tx)
	for i := range before {
		if before[i] != tx.TxIn[i] {
			t.Fatalf("sorting an already-sorted input set changed the order")
		}
	}
}
