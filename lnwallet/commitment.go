package lnwallet

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/brontidewire/lncore/input"
	"github.com/brontidewire/lncore/keychain"
	"github.com/brontidewire/lncore/lnwire"
	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
)

const (
	// commitWeight is the base weight of a commitment transaction before
	// any HTLC outputs are added: version, locktime, the single funding
	// input, the to_local and to_remote outputs, and their witnesses.
	commitWeight = 724

	// htlcWeight is the incremental weight a single untrimmed HTLC
	// output adds to a commitment transaction.
	htlcWeight = 172

	// htlcTimeoutWeight is the weight of the second-level HTLC-timeout
	// transaction, used only to decide whether an offered HTLC clears
	// the dust threshold.
	htlcTimeoutWeight = 663

	// htlcSuccessWeight is the weight of the second-level HTLC-success
	// transaction, used only to decide whether an accepted HTLC clears
	// the dust threshold.
	htlcSuccessWeight = 703
)

// HtlcDirection records which party originated an HTLC on a commitment
// transaction: the offering party pays out on timeout, the accepting party
// pays out on redemption with the preimage.
type HtlcDirection bool

const (
	// Offered marks an HTLC this party is paying to the remote party.
	Offered HtlcDirection = false

	// Accepted marks an HTLC the remote party is paying to this party.
	Accepted HtlcDirection = true
)

// PaymentDescriptor describes a single HTLC to be included on a commitment
// transaction.
type PaymentDescriptor struct {
	// Direction is Offered if this party is the HTLC's sender on this
	// commitment, Accepted otherwise.
	Direction HtlcDirection

	// Amount is the HTLC value.
	Amount lnwire.MilliSatoshi

	// PaymentHash is the HTLC's payment hash.
	PaymentHash [32]byte

	// Expiry is the HTLC's CLTV expiry height.
	Expiry uint32
}

// toSatoshis truncates a millisatoshi amount down to whole satoshis.
func toSatoshis(m lnwire.MilliSatoshi) btcutil.Amount {
	return btcutil.Amount(m / 1000)
}

// KeyRing collects every public key a commitment transaction's scripts are
// built from, already tweaked for the specific commitment being built.
type KeyRing struct {
	// CommitPoint is this commitment's per-commitment point.
	CommitPoint *btcec.PublicKey

	// LocalDelayKey is the owner's commitment-specific to_local key.
	LocalDelayKey *btcec.PublicKey

	// LocalHtlcKey and RemoteHtlcKey are the commitment-specific HTLC
	// keys for the owner and the counter-party respectively.
	LocalHtlcKey, RemoteHtlcKey *btcec.PublicKey

	// RemotePaymentKey is the counter-party's to_remote key: their
	// payment basepoint, untweaked (BOLT-3 leaves to_remote unblinded
	// by the per-commitment point).
	RemotePaymentKey *btcec.PublicKey

	// RevocationKey is this commitment's revocation public key, derived
	// from the owner's revocation basepoint and the per-commitment
	// point held by the counter-party.
	RevocationKey *btcec.PublicKey
}

// CommitmentKeyDerivation groups the channel-static basepoints and the
// per-commitment point needed to derive a KeyRing for one commitment. Each
// basepoint is held as a keychain.KeyDescriptor rather than a bare public
// key, tagging it with the KeyFamily a wallet would have derived it under,
// mirroring the shape the teacher's channel reservation code populates from
// DeriveNextKey.
type CommitmentKeyDerivation struct {
	CommitPoint *btcec.PublicKey

	LocalDelayBasePoint keychain.KeyDescriptor
	LocalHtlcBasePoint  keychain.KeyDescriptor
	RemoteHtlcBasePoint keychain.KeyDescriptor
	RemotePaymentKey    keychain.KeyDescriptor

	// RevocationBasePoint is the basepoint of whichever party owns the
	// commitment being built -- the counter-party will be able to
	// derive the matching private key once this commitment is revoked.
	RevocationBasePoint keychain.KeyDescriptor
}

// DeriveCommitmentKeys tweaks every channel basepoint by the commitment's
// per-commitment point to produce the concrete keys its scripts reference.
func DeriveCommitmentKeys(d *CommitmentKeyDerivation) *KeyRing {
	return &KeyRing{
		CommitPoint:      d.CommitPoint,
		LocalDelayKey:    input.TweakPubKey(d.LocalDelayBasePoint.PubKey, d.CommitPoint),
		LocalHtlcKey:     input.TweakPubKey(d.LocalHtlcBasePoint.PubKey, d.CommitPoint),
		RemoteHtlcKey:    input.TweakPubKey(d.RemoteHtlcBasePoint.PubKey, d.CommitPoint),
		RemotePaymentKey: d.RemotePaymentKey.PubKey,
		RevocationKey:    input.DeriveRevocationPubkey(d.RevocationBasePoint.PubKey, d.CommitPoint),
	}
}

// CommitmentParams carries everything needed to build one party's view of a
// channel's commitment transaction.
type CommitmentParams struct {
	FundingOutpoint wire.OutPoint
	FundingAmount   btcutil.Amount

	DustLimit btcutil.Amount
	CsvDelay  uint32
	FeePerKw  btcutil.Amount

	// LocalPaymentBasePoint and RemotePaymentBasePoint are the channel's
	// static (untweaked) payment basepoints, in the order BOLT-3's
	// obscured commit number formula expects: local always first
	// regardless of which party's commitment is being built.
	LocalPaymentBasePoint  *btcec.PublicKey
	RemotePaymentBasePoint *btcec.PublicKey

	CommitNumber uint64

	// IsFunder is true if this party pays the commitment fee.
	IsFunder bool

	LocalBalance  lnwire.MilliSatoshi
	RemoteBalance lnwire.MilliSatoshi

	Keys *KeyRing

	Htlcs []PaymentDescriptor
}

// ObscuredCommitNumber returns the 48-bit value that CommitNumber is XORed
// with before being split across nSequence/nLockTime, per BOLT-3.
func ObscuredCommitNumber(localPayBase, remotePayBase *btcec.PublicKey) uint64 {
	l := localPayBase.SerializeCompressed()
	r := remotePayBase.SerializeCompressed()

	h := sha256.Sum256(append(l[:], r[:]...))

	var obscure uint64
	for _, b := range h[26:32] {
		obscure = obscure<<8 | uint64(b)
	}
	return obscure
}

// commitLocktimeAndSequence splits an obscured commitment number across the
// nSequence and nLockTime fields of the commitment transaction's single
// input, exactly as BOLT-3 specifies, so neither field leaks the real
// commit number to anyone but the two channel parties.
func commitLocktimeAndSequence(commitNum, obscure uint64) (uint32, uint32) {
	obscured := commitNum ^ obscure

	sequence := uint32(0x80000000) | uint32((obscured>>24)&0xffffff)
	locktime := uint32(0x20000000) | uint32(obscured&0xffffff)

	return sequence, locktime
}

// htlcTrimmed reports whether an HTLC of the given direction and amount
// falls below the dust threshold at feePerKw, per BOLT-3's fee/trimming
// rule.
func htlcTrimmed(direction HtlcDirection, amt, dustLimit, feePerKw btcutil.Amount) bool {
	weight := btcutil.Amount(htlcSuccessWeight)
	if direction == Offered {
		weight = htlcTimeoutWeight
	}

	threshold := dustLimit + (weight*feePerKw)/1000
	return amt < threshold
}

// CommitScript builds the witness script and p2wsh output for a single
// HTLC on a commitment transaction, selecting the offered or accepted form
// by direction.
func CommitScript(keys *KeyRing, htlc *PaymentDescriptor,
	csvDelay uint32) ([]byte, *wire.TxOut, error) {

	amt := toSatoshis(htlc.Amount)

	var (
		script []byte
		err    error
	)
	switch htlc.Direction {
	case Offered:
		script, err = input.SenderHTLCScript(
			keys.LocalHtlcKey, keys.RemoteHtlcKey,
			keys.RevocationKey, htlc.PaymentHash[:],
		)
	case Accepted:
		script, err = input.ReceiverHTLCScript(
			htlc.Expiry, keys.RemoteHtlcKey, keys.LocalHtlcKey,
			keys.RevocationKey, htlc.PaymentHash[:],
		)
	}
	if err != nil {
		return nil, nil, err
	}

	pkScript, err := input.WitnessScriptHash(script)
	if err != nil {
		return nil, nil, err
	}

	return script, &wire.TxOut{Value: int64(amt), PkScript: pkScript}, nil
}

// CreateCommitTx assembles one party's version of the commitment
// transaction: the single funding input with its obscured locktime and
// sequence, the to_local/to_remote outputs, every untrimmed HTLC output,
// and the BIP-69 canonical output ordering.
func CreateCommitTx(p *CommitmentParams) (*wire.MsgTx, error) {
	obscure := ObscuredCommitNumber(p.LocalPaymentBasePoint, p.RemotePaymentBasePoint)
	sequence, locktime := commitLocktimeAndSequence(p.CommitNumber, obscure)

	commitTx := wire.NewMsgTx(2)
	commitTx.LockTime = locktime
	commitTx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: p.FundingOutpoint,
		Sequence:         sequence,
	})

	var numHtlcs int
	for i := range p.Htlcs {
		htlc := &p.Htlcs[i]
		if htlcTrimmed(htlc.Direction, toSatoshis(htlc.Amount), p.DustLimit, p.FeePerKw) {
			continue
		}
		numHtlcs++

		_, txOut, err := CommitScript(p.Keys, htlc, p.CsvDelay)
		if err != nil {
			return nil, fmt.Errorf("lnwallet: building htlc script: %v", err)
		}
		commitTx.AddTxOut(txOut)
	}

	weight := btcutil.Amount(commitWeight + htlcWeight*numHtlcs)
	fee := weight * p.FeePerKw / 1000

	localBalance := toSatoshis(p.LocalBalance)
	remoteBalance := toSatoshis(p.RemoteBalance)

	if p.IsFunder {
		if fee > localBalance {
			localBalance = 0
		} else {
			localBalance -= fee
		}
	} else {
		if fee > remoteBalance {
			remoteBalance = 0
		} else {
			remoteBalance -= fee
		}
	}

	if localBalance >= p.DustLimit {
		toLocalScript, err := input.CommitScriptToSelf(
			p.CsvDelay, p.Keys.LocalDelayKey, p.Keys.RevocationKey,
		)
		if err != nil {
			return nil, err
		}
		pkScript, err := input.WitnessScriptHash(toLocalScript)
		if err != nil {
			return nil, err
		}
		commitTx.AddTxOut(&wire.TxOut{
			Value:    int64(localBalance),
			PkScript: pkScript,
		})
	}

	if remoteBalance >= p.DustLimit {
		toRemoteScript, err := input.CommitScriptUnencumbered(p.Keys.RemotePaymentKey)
		if err != nil {
			return nil, err
		}
		commitTx.AddTxOut(&wire.TxOut{
			Value:    int64(remoteBalance),
			PkScript: toRemoteScript,
		})
	}

	SortOutputsBIP69(commitTx)

	return commitTx, nil
}

// SortOutputsBIP69 reorders a transaction's outputs in place by ascending
// value, breaking ties by lexicographically ascending scriptPubKey.
func SortOutputsBIP69(tx *wire.MsgTx) {
	sort.Sort(bip69OutputSorter(tx.TxOut))
}

type bip69OutputSorter []*wire.TxOut

func (s bip69OutputSorter) Len() int      { return len(s) }
func (s bip69OutputSorter) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s bip69OutputSorter) Less(i, j int) bool {
	if s[i].Value != s[j].Value {
		return s[i].Value < s[j].Value
	}
	return bytes.Compare(s[i].PkScript, s[j].PkScript) < 0
}

// SortInputsBIP69 reorders a transaction's inputs in place by ascending
// (previous tx hash, previous output index), the lexicographic input
// ordering BOLT-2 requires every commitment and funding transaction to use.
func SortInputsBIP69(tx *wire.MsgTx) {
	sort.Sort(bip69InputSorter(tx.TxIn))
}

type bip69InputSorter []*wire.TxIn

func (s bip69InputSorter) Len() int      { return len(s) }
func (s bip69InputSorter) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s bip69InputSorter) Less(i, j int) bool {
	cmp := bytes.Compare(
		s[i].PreviousOutPoint.Hash[:], s[j].PreviousOutPoint.Hash[:],
	)
	if cmp != 0 {
		return cmp < 0
	}
	return s[i].PreviousOutPoint.Index < s[j].PreviousOutPoint.Index
}
