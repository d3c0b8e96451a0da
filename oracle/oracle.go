// Package oracle implements the schnorr attestation scheme the CFD
// settles on. The oracle announces a nonce per event ahead of time, so
// everyone can compute the signature point of each possible outcome: the
// public key whose discrete log is the s value of the attestation the
// oracle will eventually publish. CETs are adaptor-encrypted toward these
// points, and the published attestation is the decryption key.
package oracle

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// AttestationSize is the length of a BIP340 attestation: the x coordinate
// of the nonce point followed by the s scalar.
const AttestationSize = 64

// InvalidMessageError is returned when an outcome message is empty. Every
// outcome must carry at least one byte so its signature point is well
// defined.
type InvalidMessageError struct{}

func (e *InvalidMessageError) Error() string {
	return "empty outcome message"
}

// Attest signs the sha256 digest of msg with the oracle key and the
// pre-announced nonce, per BIP340. The nonce is fixed by the
// announcement instead of being derived from the message, which is what
// lets outsiders compute the signature point in advance.
func Attest(priv, nonce *btcec.PrivateKey, msg []byte) ([]byte, error) {
	if len(msg) == 0 {
		return nil, &InvalidMessageError{}
	}

	d := priv.Key
	if pub := priv.PubKey(); pub.SerializeCompressed()[0] == 0x03 {
		d.Negate()
	}
	k := nonce.Key
	noncePub := nonce.PubKey()
	if noncePub.SerializeCompressed()[0] == 0x03 {
		k.Negate()
	}

	msgHash := sha256.Sum256(msg)
	e := challenge(noncePub, priv.PubKey(), msgHash[:])

	// s = k + e*d
	s := new(btcec.ModNScalar).Mul2(e, &d)
	s.Add(&k)

	sig := make([]byte, 0, AttestationSize)
	sig = append(sig, schnorr.SerializePubKey(noncePub)...)
	sBytes := s.Bytes()
	sig = append(sig, sBytes[:]...)

	return sig, nil
}

// VerifyAttestation checks an attestation against the oracle key, nonce
// point and outcome message.
func VerifyAttestation(
	sig []byte, oraclePk, noncePk *btcec.PublicKey, msg []byte,
) error {
	if len(sig) != AttestationSize {
		return fmt.Errorf(
			"invalid attestation length: got %d, want %d", len(sig), AttestationSize,
		)
	}

	parsed, err := schnorr.ParseSignature(sig)
	if err != nil {
		return fmt.Errorf("invalid attestation: %s", err)
	}

	if !bytes.Equal(sig[:32], schnorr.SerializePubKey(noncePk)) {
		return fmt.Errorf("attestation nonce does not match the announced nonce")
	}

	msgHash := sha256.Sum256(msg)
	if !parsed.Verify(msgHash[:], oraclePk) {
		return fmt.Errorf("invalid attestation")
	}

	return nil
}

// SignaturePoint computes S = R + e*P for the given outcome message: the
// public key of the s scalar the oracle will publish when attesting msg.
func SignaturePoint(
	oraclePk, noncePk *btcec.PublicKey, msg []byte,
) (*btcec.PublicKey, error) {
	if len(msg) == 0 {
		return nil, &InvalidMessageError{}
	}

	// BIP340 works on x-only keys, lift both to their even-Y variants.
	r, err := liftX(noncePk)
	if err != nil {
		return nil, err
	}
	p, err := liftX(oraclePk)
	if err != nil {
		return nil, err
	}

	msgHash := sha256.Sum256(msg)
	e := challenge(r, p, msgHash[:])

	var pj, eP, rj, sum btcec.JacobianPoint
	p.AsJacobian(&pj)
	btcec.ScalarMultNonConst(e, &pj, &eP)
	r.AsJacobian(&rj)
	btcec.AddNonConst(&rj, &eP, &sum)
	if sum.Z.IsZero() {
		return nil, fmt.Errorf("signature point is the point at infinity")
	}
	sum.ToAffine()

	return btcec.NewPublicKey(&sum.X, &sum.Y), nil
}

// DecomposeAttestation splits an attestation into the nonce point and the
// s scalar packaged as a private key. The scalar is the decryption key
// for every adaptor signature encrypted toward the attestation's
// signature point.
func DecomposeAttestation(sig []byte) (*btcec.PublicKey, *btcec.PrivateKey, error) {
	if len(sig) != AttestationSize {
		return nil, nil, fmt.Errorf(
			"invalid attestation length: got %d, want %d", len(sig), AttestationSize,
		)
	}

	noncePk, err := schnorr.ParsePubKey(sig[:32])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid attestation nonce: %s", err)
	}

	var s btcec.ModNScalar
	if overflow := s.SetByteSlice(sig[32:]); overflow {
		return nil, nil, fmt.Errorf("attestation scalar overflows the curve order")
	}
	if s.IsZero() {
		return nil, nil, fmt.Errorf("attestation scalar is zero")
	}

	sBytes := s.Bytes()
	priv, _ := btcec.PrivKeyFromBytes(sBytes[:])

	return noncePk, priv, nil
}

func challenge(r, p *btcec.PublicKey, msgHash []byte) *btcec.ModNScalar {
	hash := chainhash.TaggedHash(
		chainhash.TagBIP0340Challenge,
		schnorr.SerializePubKey(r),
		schnorr.SerializePubKey(p),
		msgHash,
	)

	e := new(btcec.ModNScalar)
	e.SetByteSlice(hash[:])
	return e
}

// liftX returns the even-Y point with the same x coordinate as pub.
func liftX(pub *btcec.PublicKey) (*btcec.PublicKey, error) {
	return schnorr.ParsePubKey(schnorr.SerializePubKey(pub))
}
