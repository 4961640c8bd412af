package input

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
	"golang.org/x/crypto/ripemd160"
)

// WitnessScriptHash generates a pay-to-witness-script-hash public key
// script paying to the SHA256 of the passed redeem script.
func WitnessScriptHash(witnessScript []byte) ([]byte, error) {
	bldr := txscript.NewScriptBuilder()

	bldr.AddOp(txscript.OP_0)
	scriptHash := sha256.Sum256(witnessScript)
	bldr.AddData(scriptHash[:])
	return bldr.Script()
}

// Ripemd160H returns the RIPEMD160 digest of data, used directly where the
// BOLT-3 scripts hash an already-32-byte value (a payment hash) rather than
// a raw public key.
func Ripemd160H(data []byte) []byte {
	h := ripemd160.New()
	h.Write(data)
	return h.Sum(nil)
}

// GenMultiSigScript generates the non-p2sh'd multisig script for the 2-of-2
// funding output, with pubkeys lexicographically sorted per BOLT-3.
func GenMultiSigScript(aPub, bPub []byte) ([]byte, error) {
	if len(aPub) != 33 || len(bPub) != 33 {
		return nil, fmt.Errorf("pubkey size error: compressed pubkeys only")
	}

	if bytes.Compare(aPub, bPub) == 1 {
		aPub, bPub = bPub, aPub
	}

	bldr := txscript.NewScriptBuilder()
	bldr.AddOp(txscript.OP_2)
	bldr.AddData(aPub)
	bldr.AddData(bPub)
	bldr.AddOp(txscript.OP_2)
	bldr.AddOp(txscript.OP_CHECKMULTISIG)
	return bldr.Script()
}

// GenFundingPkScript creates the funding transaction's redeem script and
// its matching p2wsh output.
func GenFundingPkScript(aPub, bPub []byte, amt int64) ([]byte, *wire.TxOut, error) {
	if amt < 0 {
		return nil, nil, fmt.Errorf("can't create funding script with a negative amount")
	}

	redeemScript, err := GenMultiSigScript(aPub, bPub)
	if err != nil {
		return nil, nil, err
	}
	pkScript, err := WitnessScriptHash(redeemScript)
	if err != nil {
		return nil, nil, err
	}

	return redeemScript, &wire.TxOut{Value: amt, PkScript: pkScript}, nil
}

// CommitScriptToSelf constructs the public key script for the to_local
// output on a commitment transaction: immediately spendable by the
// counter-party if they learn the revocation secret, otherwise spendable by
// its owner after csvTimeout blocks.
//
// Possible Input Scripts:
//     REVOKE:  <sig> 1
//     TIMEOUT: <sig> 0
func CommitScriptToSelf(csvTimeout uint32, selfKey, revokeKey *btcec.PublicKey) ([]byte, error) {
	builder := txscript.NewScriptBuilder()

	builder.AddOp(txscript.OP_IF)
	builder.AddData(revokeKey.SerializeCompressed())
	builder.AddOp(txscript.OP_ELSE)
	builder.AddInt64(int64(csvTimeout))
	builder.AddOp(txscript.OP_CHECKSEQUENCEVERIFY)
	builder.AddOp(txscript.OP_DROP)
	builder.AddData(selfKey.SerializeCompressed())
	builder.AddOp(txscript.OP_ENDIF)
	builder.AddOp(txscript.OP_CHECKSIG)

	return builder.Script()
}

// CommitScriptUnencumbered constructs the to_remote output script: a plain
// p2wpkh paying the counter-party, spendable immediately.
func CommitScriptUnencumbered(key *btcec.PublicKey) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_0)
	builder.AddData(btcutil.Hash160(key.SerializeCompressed()))

	return builder.Script()
}

// SenderHTLCScript constructs the public key script for an offered
// (outgoing) HTLC output on the sender's commitment transaction.
//
// Possible Input Scripts:
//     REVOKE:  <sig> <revocationkey>
//     REDEEM:  <sig> <preimage>
//     TIMEOUT: <> <remotehtlcsig> <localhtlcsig> <>
//
// Output Script:
//     OP_DUP OP_HASH160 <RIPEMD160(revocationkey)> OP_EQUAL
//     OP_IF
//         OP_CHECKSIG
//     OP_ELSE
//         <receiverkey> OP_SWAP OP_SIZE 32 OP_EQUAL
//         OP_NOTIF
//             OP_DROP 2 OP_SWAP <senderkey> 2 OP_CHECKMULTISIG
//         OP_ELSE
//             OP_HASH160 <RIPEMD160(payment_hash)> OP_EQUALVERIFY
//             OP_CHECKSIG
//         OP_ENDIF
//     OP_ENDIF
func SenderHTLCScript(senderHtlcKey, receiverHtlcKey,
	revocationKey *btcec.PublicKey, paymentHash []byte) ([]byte, error) {

	builder := txscript.NewScriptBuilder()

	builder.AddOp(txscript.OP_DUP)
	builder.AddOp(txscript.OP_HASH160)
	builder.AddData(btcutil.Hash160(revocationKey.SerializeCompressed()))
	builder.AddOp(txscript.OP_EQUAL)
	builder.AddOp(txscript.OP_IF)
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_ELSE)
	builder.AddData(receiverHtlcKey.SerializeCompressed())
	builder.AddOp(txscript.OP_SWAP)
	builder.AddOp(txscript.OP_SIZE)
	builder.AddInt64(32)
	builder.AddOp(txscript.OP_EQUAL)
	builder.AddOp(txscript.OP_NOTIF)
	builder.AddOp(txscript.OP_DROP)
	builder.AddInt64(2)
	builder.AddOp(txscript.OP_SWAP)
	builder.AddData(senderHtlcKey.SerializeCompressed())
	builder.AddInt64(2)
	builder.AddOp(txscript.OP_CHECKMULTISIG)
	builder.AddOp(txscript.OP_ELSE)
	builder.AddOp(txscript.OP_HASH160)
	builder.AddData(Ripemd160H(paymentHash))
	builder.AddOp(txscript.OP_EQUALVERIFY)
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_ENDIF)
	builder.AddOp(txscript.OP_ENDIF)

	return builder.Script()
}

// ReceiverHTLCScript constructs the public key script for a received
// (incoming) HTLC output on the receiver's commitment transaction.
//
// Possible Input Scripts:
//     REVOKE:  <sig> <revocationkey>
//     REDEEM:  <remotehtlcsig> <localhtlcsig> <preimage>
//     TIMEOUT: <sig> <>
//
// Output Script:
//     OP_DUP OP_HASH160 <RIPEMD160(revocationkey)> OP_EQUAL
//     OP_IF
//         OP_CHECKSIG
//     OP_ELSE
//         <senderkey> OP_SWAP OP_SIZE 32 OP_EQUAL
//         OP_IF
//             OP_HASH160 <RIPEMD160(payment_hash)> OP_EQUALVERIFY
//             2 OP_SWAP <receiverkey> 2 OP_CHECKMULTISIG
//         OP_ELSE
//             OP_DROP <cltv_expiry> OP_CHECKLOCKTIMEVERIFY OP_DROP
//             OP_CHECKSIG
//         OP_ENDIF
//     OP_ENDIF
func ReceiverHTLCScript(cltvExpiry uint32, senderHtlcKey, receiverHtlcKey,
	revocationKey *btcec.PublicKey, paymentHash []byte) ([]byte, error) {

	builder := txscript.NewScriptBuilder()

	builder.AddOp(txscript.OP_DUP)
	builder.AddOp(txscript.OP_HASH160)
	builder.AddData(btcutil.Hash160(revocationKey.SerializeCompressed()))
	builder.AddOp(txscript.OP_EQUAL)
	builder.AddOp(txscript.OP_IF)
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_ELSE)
	builder.AddData(senderHtlcKey.SerializeCompressed())
	builder.AddOp(txscript.OP_SWAP)
	builder.AddOp(txscript.OP_SIZE)
	builder.AddInt64(32)
	builder.AddOp(txscript.OP_EQUAL)
	builder.AddOp(txscript.OP_IF)
	builder.AddOp(txscript.OP_HASH160)
	builder.AddData(Ripemd160H(paymentHash))
	builder.AddOp(txscript.OP_EQUALVERIFY)
	builder.AddInt64(2)
	builder.AddOp(txscript.OP_SWAP)
	builder.AddData(receiverHtlcKey.SerializeCompressed())
	builder.AddInt64(2)
	builder.AddOp(txscript.OP_CHECKMULTISIG)
	builder.AddOp(txscript.OP_ELSE)
	builder.AddOp(txscript.OP_DROP)
	builder.AddInt64(int64(cltvExpiry))
	builder.AddOp(txscript.OP_CHECKLOCKTIMEVERIFY)
	builder.AddOp(txscript.OP_DROP)
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_ENDIF)
	builder.AddOp(txscript.OP_ENDIF)

	return builder.Script()
}

// DeriveRevocationPubkey derives the public revocation key given the
// per-commitment point and a channel party's revocation basepoint, per
// BOLT-3:
//
//   revocationPubkey := revocationBasepoint * SHA256(revocationBasepoint ||
//       perCommitmentPoint) + perCommitmentPoint * SHA256(perCommitmentPoint
//       || revocationBasepoint)
func DeriveRevocationPubkey(revocationBasepoint,
	perCommitmentPoint *btcec.PublicKey) *btcec.PublicKey {

	rBase := revocationBasepoint.SerializeCompressed()
	pComm := perCommitmentPoint.SerializeCompressed()

	rTweak := sha256.Sum256(append(rBase[:], pComm[:]...))
	pTweak := sha256.Sum256(append(pComm[:], rBase[:]...))

	rX, rY := btcec.S256().ScalarMult(
		revocationBasepoint.X, revocationBasepoint.Y, rTweak[:],
	)
	pX, pY := btcec.S256().ScalarMult(
		perCommitmentPoint.X, perCommitmentPoint.Y, pTweak[:],
	)

	x, y := btcec.S256().Add(rX, rY, pX, pY)
	return &btcec.PublicKey{Curve: btcec.S256(), X: x, Y: y}
}

// DeriveRevocationPrivKey derives the private revocation key given the
// per-commitment secret and a channel party's revocation basepoint secret,
// mirroring DeriveRevocationPubkey on the scalar side.
func DeriveRevocationPrivKey(revocationBasePriv,
	perCommitmentSecret *btcec.PrivateKey) *btcec.PrivateKey {

	rBase := revocationBasePriv.PubKey().SerializeCompressed()
	pComm := perCommitmentSecret.PubKey().SerializeCompressed()

	rTweak := sha256.Sum256(append(rBase[:], pComm[:]...))
	pTweak := sha256.Sum256(append(pComm[:], rBase[:]...))

	rTweakScalar := new(big.Int).SetBytes(rTweak[:])
	rTweakScalar.Mul(rTweakScalar, revocationBasePriv.D)

	pTweakScalar := new(big.Int).SetBytes(pTweak[:])
	pTweakScalar.Mul(pTweakScalar, perCommitmentSecret.D)

	priv := new(big.Int).Add(rTweakScalar, pTweakScalar)
	priv.Mod(priv, btcec.S256().N)

	result, _ := btcec.PrivKeyFromBytes(btcec.S256(), priv.Bytes())
	return result
}

// ComputeCommitmentPoint derives the per-commitment public point from a
// 32-byte per-commitment secret seed.
func ComputeCommitmentPoint(seed []byte) *btcec.PublicKey {
	_, pub := btcec.PrivKeyFromBytes(btcec.S256(), seed)
	return pub
}

// SingleTweakBytes computes the scalar used to derive a party's non
// revocation keys (local, payment, delayed, HTLC) from its basepoint for a
// given commitment, per BOLT-3:
//
//   tweak := SHA256(perCommitmentPoint || basePoint)
func SingleTweakBytes(perCommitmentPoint, basePoint *btcec.PublicKey) []byte {
	pComm := perCommitmentPoint.SerializeCompressed()
	base := basePoint.SerializeCompressed()

	h := sha256.Sum256(append(pComm[:], base[:]...))
	return h[:]
}

// TweakPubKey derives a commitment-specific public key from a basepoint and
// the single tweak bytes computed from the commitment's per-commitment
// point: basePoint + tweak*G.
func TweakPubKey(basePoint, perCommitmentPoint *btcec.PublicKey) *btcec.PublicKey {
	tweakBytes := SingleTweakBytes(perCommitmentPoint, basePoint)

	tX, tY := btcec.S256().ScalarBaseMult(tweakBytes)
	x, y := btcec.S256().Add(basePoint.X, basePoint.Y, tX, tY)

	return &btcec.PublicKey{Curve: btcec.S256(), X: x, Y: y}
}

// TweakPrivKey derives the private key matching TweakPubKey:
// basePriv + tweak mod N.
func TweakPrivKey(basePriv *btcec.PrivateKey, commitTweak []byte) *btcec.PrivateKey {
	tweakInt := new(big.Int).SetBytes(commitTweak)

	privInt := new(big.Int).Add(basePriv.D, tweakInt)
	privInt.Mod(privInt, btcec.S256().N)

	priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), privInt.Bytes())
	return priv
}
