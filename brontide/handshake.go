package brontide

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec"
	"golang.org/x/crypto/hkdf"
)

// handshakeState tags which act a Machine is expecting to produce or
// consume next. It's the "state field that the transition atomically
// invalidates" the spec calls for in a GC'd language: every Gen*/Recv*
// method checks it on entry and advances it on success, so reusing a
// state (calling RecvActOne twice, or GenActTwo before RecvActOne) is a
// detectable error rather than silently re-running a step.
type handshakeState int

const (
	// handshakeNotStarted is the zero value; no act has been exchanged.
	handshakeNotStarted handshakeState = iota

	// initiator states.
	initiatorAwaitingActTwo
	initiatorAwaitingFinalize

	// responder states.
	responderAwaitingActOne
	responderAwaitingActThree

	// handshakeComplete marks a Machine that has already produced its
	// two steady-state cipher states; no further Gen*/Recv* calls are
	// valid.
	handshakeComplete
)

// ErrInvalidTransition is returned when a handshake method is called out of
// the single legal sequence for the Machine's role (initiator or
// responder).
type ErrInvalidTransition struct {
	Have handshakeState
	Want handshakeState
}

func (e ErrInvalidTransition) Error() string {
	return "brontide: handshake act invoked out of sequence"
}

const (
	// actOneSize is version(1) || ephemeral pubkey(33) || tag(16).
	actOneSize = 1 + 33 + 16

	// actTwoSize has the identical layout to act one.
	actTwoSize = actOneSize

	// actThreeSize is version(1) || encrypted static pubkey(33) ||
	// tag(16) || empty-payload tag(16).
	actThreeSize = 1 + 33 + 16 + 16

	// handshakeVersion is the only version byte this implementation
	// will produce or accept.
	handshakeVersion = 0
)

// Machine drives the three-act Noise_XK handshake described in BOLT 8 and
// spec.md ยง4.C. A single Machine instance is used for either the initiator
// or the responder role; which Gen*/Recv* methods are legal at any instant
// is governed by the handshakeState tag above.
type Machine struct {
	state handshakeState

	initiator bool

	// genEphemeral produces the responder's Act Two ephemeral scalar. The
	// initiator's equivalent generator is consumed once, up front, in
	// NewInitiatorMachine, so only the responder needs to retain it.
	genEphemeral EphemeralGenerator

	ss symmetricState

	localStatic    keyPair
	localEphemeral keyPair

	remoteStatic    *btcec.PublicKey
	remoteEphemeral *btcec.PublicKey

	// SendCipher and RecvCipher are populated on the successful
	// conclusion of the handshake (Finalize is called internally by the
	// final Gen*/Recv* step). They are swapped between initiator and
	// responder so that the initiator's SendCipher key equals the
	// responder's RecvCipher key.
	SendCipher cipherState
	RecvCipher cipherState
}

// keyPair bundles a secp256k1 scalar with its derived point, so callers
// never have to recompute PubKey().
type keyPair struct {
	priv *btcec.PrivateKey
	pub  *btcec.PublicKey
}

// EphemeralGenerator produces a fresh, cryptographically secure
// secp256k1 scalar. Spec.md ยง6 requires this be injectable for
// deterministic testing; production callers should pass
// btcec.NewPrivateKey bound to crypto/rand.
type EphemeralGenerator func() (*btcec.PrivateKey, error)

// DefaultEphemeralGenerator draws a fresh scalar from crypto/rand via
// btcec.
func DefaultEphemeralGenerator() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey(btcec.S256())
}

// NewInitiatorMachine creates a Machine in the initiator role: it knows its
// own static key and the remote party's static public key (obtained out of
// band, per spec.md ยง6).
func NewInitiatorMachine(localStatic *btcec.PrivateKey, remoteStatic *btcec.PublicKey, genEphemeral EphemeralGenerator) (*Machine, error) {
	ephemeral, err := genEphemeral()
	if err != nil {
		return nil, wrapCrypto(err)
	}

	m := &Machine{
		state:     handshakeNotStarted,
		initiator: true,
		ss:        *newSymmetricState(),
		localStatic: keyPair{
			priv: localStatic,
			pub:  localStatic.PubKey(),
		},
		localEphemeral: keyPair{
			priv: ephemeral,
			pub:  ephemeral.PubKey(),
		},
		remoteStatic: remoteStatic,
	}
	m.mixPrologueAndRemoteStatic()

	return m, nil
}

// NewResponderMachine creates a Machine in the responder role. It needs
// only its own static secret; the remote static key is recovered from Act
// Three. genEphemeral generates the responder's Act Two ephemeral scalar;
// pass nil to use DefaultEphemeralGenerator.
func NewResponderMachine(localStatic *btcec.PrivateKey, genEphemeral EphemeralGenerator) *Machine {
	if genEphemeral == nil {
		genEphemeral = DefaultEphemeralGenerator
	}

	m := &Machine{
		state:        responderAwaitingActOne,
		initiator:    false,
		ss:           *newSymmetricState(),
		genEphemeral: genEphemeral,
		localStatic: keyPair{
			priv: localStatic,
			pub:  localStatic.PubKey(),
		},
	}
	m.mixPrologueAndRemoteStatic()
	return m
}

// mixPrologueAndRemoteStatic mixes the ASCII prologue and the responder's
// static public key into the handshake digest, per spec.md ยง3
// (SymmetricState construction). Both roles know the responder's static
// key at this point: the initiator was handed it out of band, and the
// responder's own static key is exactly that key.
func (m *Machine) mixPrologueAndRemoteStatic() {
	m.ss.mixHash([]byte(prologue))

	if m.initiator {
		m.ss.mixHash(m.remoteStatic.SerializeCompressed())
	} else {
		m.ss.mixHash(m.localStatic.pub.SerializeCompressed())
	}
}

// ecdh performs the BOLT 8 Diffie-Hellman primitive: serialize the compressed
// shared point, then SHA-256 it.
func ecdh(priv *btcec.PrivateKey, pub *btcec.PublicKey) []byte {
	var point btcec.PublicKey
	x, y := btcec.S256().ScalarMult(pub.X, pub.Y, priv.D.Bytes())
	point.X, point.Y = x, y

	h := sha256.Sum256(point.SerializeCompressed())
	return h[:]
}

// assertState fails fast if the Machine isn't in the expected stage,
// enforcing the typestate invariant described on handshakeState.
func (m *Machine) assertState(want handshakeState) error {
	if m.state != want {
		return ErrInvalidTransition{Have: m.state, Want: want}
	}
	return nil
}

// GenActOne is called by the initiator to produce Act One: a fresh
// ephemeral key, mixed into the digest, then an es = DH(e, remoteStatic)
// used to key an empty-payload AEAD tag.
func (m *Machine) GenActOne() ([actOneSize]byte, error) {
	var out [actOneSize]byte

	if err := m.assertState(handshakeNotStarted); err != nil {
		return out, err
	}

	ephemeralPub := m.localEphemeral.pub.SerializeCompressed()
	m.ss.mixHash(ephemeralPub)

	es := ecdh(m.localEphemeral.priv, m.remoteStatic)
	if err := m.ss.mixKey(es); err != nil {
		return out, err
	}

	tag := m.ss.encryptAndHash(nil)

	out[0] = handshakeVersion
	copy(out[1:34], ephemeralPub)
	copy(out[34:], tag)

	m.state = initiatorAwaitingActTwo

	return out, nil
}

// RecvActOne is called by the responder to consume Act One.
func (m *Machine) RecvActOne(actOne [actOneSize]byte) error {
	if err := m.assertState(responderAwaitingActOne); err != nil {
		return err
	}

	if actOne[0] != handshakeVersion {
		return ErrUnknownHandshakeVersion{Version: actOne[0]}
	}

	remoteEphemeral, err := btcec.ParsePubKey(actOne[1:34], btcec.S256())
	if err != nil {
		return wrapCrypto(err)
	}
	m.remoteEphemeral = remoteEphemeral

	m.ss.mixHash(actOne[1:34])

	es := ecdh(m.localStatic.priv, m.remoteEphemeral)
	if err := m.ss.mixKey(es); err != nil {
		return err
	}

	tag := actOne[34:]
	if _, err := m.ss.decryptAndHash(tag); err != nil {
		return err
	}

	m.state = responderAwaitingActThree

	return nil
}

// GenActTwo is called by the responder after RecvActOne; it mirrors Act One
// using a fresh responder ephemeral and ee = DH(e_responder, e_initiator).
func (m *Machine) GenActTwo() ([actTwoSize]byte, error) {
	var out [actTwoSize]byte

	// The responder transitions out of responderAwaitingActOne directly
	// into act three waiting inside RecvActOne; GenActTwo is only valid
	// once that has happened.
	if err := m.assertState(responderAwaitingActThree); err != nil {
		return out, err
	}
	if m.localEphemeral.priv != nil {
		// GenActTwo already called once.
		return out, ErrInvalidTransition{Have: m.state, Want: responderAwaitingActThree}
	}

	ephemeral, err := m.genEphemeral()
	if err != nil {
		return out, wrapCrypto(err)
	}
	m.localEphemeral = keyPair{priv: ephemeral, pub: ephemeral.PubKey()}

	ephemeralPub := m.localEphemeral.pub.SerializeCompressed()
	m.ss.mixHash(ephemeralPub)

	ee := ecdh(m.localEphemeral.priv, m.remoteEphemeral)
	if err := m.ss.mixKey(ee); err != nil {
		return out, err
	}

	tag := m.ss.encryptAndHash(nil)

	out[0] = handshakeVersion
	copy(out[1:34], ephemeralPub)
	copy(out[34:], tag)

	return out, nil
}

// RecvActTwo is called by the initiator to consume Act Two.
func (m *Machine) RecvActTwo(actTwo [actTwoSize]byte) error {
	if err := m.assertState(initiatorAwaitingActTwo); err != nil {
		return err
	}

	if actTwo[0] != handshakeVersion {
		return ErrUnknownHandshakeVersion{Version: actTwo[0]}
	}

	remoteEphemeral, err := btcec.ParsePubKey(actTwo[1:34], btcec.S256())
	if err != nil {
		return wrapCrypto(err)
	}
	m.remoteEphemeral = remoteEphemeral

	m.ss.mixHash(actTwo[1:34])

	ee := ecdh(m.localEphemeral.priv, m.remoteEphemeral)
	if err := m.ss.mixKey(ee); err != nil {
		return err
	}

	if _, err := m.ss.decryptAndHash(actTwo[34:]); err != nil {
		return err
	}

	m.state = initiatorAwaitingFinalize

	return nil
}

// GenActThree is called by the initiator: it encrypts its own static
// public key under the running digest, mixes in se = DH(s_local, e_remote),
// then produces a second, empty-payload tag.
func (m *Machine) GenActThree() ([actThreeSize]byte, error) {
	var out [actThreeSize]byte

	if err := m.assertState(initiatorAwaitingFinalize); err != nil {
		return out, err
	}

	ourStaticPub := m.localStatic.pub.SerializeCompressed()
	encryptedStatic := m.ss.encryptAndHash(ourStaticPub)

	se := ecdh(m.localStatic.priv, m.remoteEphemeral)
	if err := m.ss.mixKey(se); err != nil {
		return out, err
	}

	tag := m.ss.encryptAndHash(nil)

	out[0] = handshakeVersion
	copy(out[1:50], encryptedStatic)
	copy(out[50:], tag)

	m.split()
	m.state = handshakeComplete

	return out, nil
}

// RecvActThree is called by the responder to consume Act Three, recovering
// the initiator's static public key and finalizing the handshake.
func (m *Machine) RecvActThree(actThree [actThreeSize]byte) error {
	if err := m.assertState(responderAwaitingActThree); err != nil {
		return err
	}
	// NB: RecvActOne already advanced state to responderAwaitingActThree
	// and GenActTwo doesn't change it, so this single state value covers
	// both "about to gen act two" and "about to recv act three". The
	// localEphemeral-set check in GenActTwo prevents it from being
	// invoked twice; this method is one-shot because a successful call
	// moves the state to handshakeComplete, so a second call is rejected
	// by assertState above.

	if actThree[0] != handshakeVersion {
		return ErrUnknownHandshakeVersion{Version: actThree[0]}
	}

	encryptedStatic := actThree[1:50]
	tag1 := actThree[50:66]

	remoteStaticBytes, err := m.ss.decryptAndHash(append(append([]byte{}, encryptedStatic...), tag1...))
	if err != nil {
		return err
	}

	remoteStatic, err := btcec.ParsePubKey(remoteStaticBytes, btcec.S256())
	if err != nil {
		return wrapCrypto(err)
	}
	m.remoteStatic = remoteStatic

	se := ecdh(m.localEphemeral.priv, m.remoteStatic)
	if err := m.ss.mixKey(se); err != nil {
		return err
	}

	tag2 := actThree[66:]
	if _, err := m.ss.decryptAndHash(tag2); err != nil {
		return err
	}

	m.split()
	m.state = handshakeComplete

	return nil
}

// split is the handshake finalize step of spec.md ยง4.C: derive (sk, rk) =
// HKDF(chainingKey, "", 64), then install them as SendCipher/RecvCipher,
// swapped between initiator and responder so that the initiator's send key
// equals the responder's receive key. The symmetric state's own cipherState
// is discarded; ownership of key material moves one-way into the two fresh
// cipherStates.
func (m *Machine) split() {
	sk, rk := m.ss.deriveSessionKeys()

	if m.initiator {
		m.SendCipher = sk
		m.RecvCipher = rk
	} else {
		m.SendCipher = rk
		m.RecvCipher = sk
	}
}

// deriveSessionKeys performs the final HKDF(chainingKey, zero_ikm, 64) and
// returns two independent cipherStates seeded with salt=chainingKey.
func (s *symmetricState) deriveSessionKeys() (sendKey, recvKey cipherState) {
	h := hkdf.New(sha256New, nil, s.chainingKey[:], nil)

	okm := make([]byte, 64)
	if _, err := h.Read(okm); err != nil {
		panic(err)
	}

	var k1, k2 [32]byte
	copy(k1[:], okm[:32])
	copy(k2[:], okm[32:])

	c1, _ := newCipherState(s.chainingKey, k1)
	c2, _ := newCipherState(s.chainingKey, k2)

	return *c1, *c2
}

// RemoteStatic returns the remote party's static public key, valid only
// once the handshake is complete (or, for the responder, once Act Three has
// been processed).
func (m *Machine) RemoteStatic() *btcec.PublicKey {
	return m.remoteStatic
}
