// Package adaptor implements ECDSA adaptor signatures on secp256k1. An
// adaptor signature encrypts an ordinary ECDSA signature toward an
// encryption public key Y: anyone holding the discrete log y of Y can
// decrypt it into a valid signature, and anyone holding the adaptor
// signature can recover y from the decrypted signature once it appears on
// chain. A DLEQ proof carried alongside makes the adaptor verifiable
// without knowing y.
package adaptor

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// SignatureSize is the length of a serialized adaptor signature:
// R (33) || R_hat (33) || s' (32) || proof c (32) || proof z (32).
const SignatureSize = 162

// InvalidMessageEncodingError is returned when the message to sign is not
// a 32-byte digest.
type InvalidMessageEncodingError struct {
	Length int
}

func (e *InvalidMessageEncodingError) Error() string {
	return fmt.Sprintf("message must be a 32-byte digest, got %d bytes", e.Length)
}

// Signature is an adaptor signature. R is the nonce point k*Y whose
// x coordinate becomes the r scalar of the decrypted signature, RHat is
// the proof nonce k*G, and SPrime is the encrypted s value.
type Signature struct {
	R      *btcec.PublicKey
	RHat   *btcec.PublicKey
	SPrime btcec.ModNScalar
	Proof  DleqProof
}

// Encrypt produces an adaptor signature over msgHash with the given
// private key, encrypted toward encKey.
func Encrypt(
	priv *btcec.PrivateKey, encKey *btcec.PublicKey, msgHash []byte,
) (*Signature, error) {
	if len(msgHash) != 32 {
		return nil, &InvalidMessageEncodingError{Length: len(msgHash)}
	}

	var e btcec.ModNScalar
	e.SetByteSlice(msgHash)

	privBytes := priv.Serialize()
	extra := sha256.Sum256(encKey.SerializeCompressed())

	for iter := uint32(0); ; iter++ {
		k := secp256k1.NonceRFC6979(privBytes, msgHash, extra[:], nil, iter)
		if k == nil || k.IsZero() {
			continue
		}

		rHat := scalarBaseMult(k)

		r, err := scalarMult(k, encKey)
		if err != nil {
			// k*Y is the point at infinity, try the next nonce.
			continue
		}

		var rScalar btcec.ModNScalar
		rScalar.SetByteSlice(r.SerializeCompressed()[1:33])
		if rScalar.IsZero() {
			continue
		}

		// s' = k^-1 * (e + r*d)
		kInv := new(btcec.ModNScalar).InverseValNonConst(k)
		sPrime := new(btcec.ModNScalar).Mul2(&rScalar, &priv.Key)
		sPrime.Add(&e)
		sPrime.Mul(kInv)
		if sPrime.IsZero() {
			continue
		}

		proof, err := dleqProve(k, encKey, rHat, r)
		if err != nil {
			continue
		}

		return &Signature{
			R:      r,
			RHat:   rHat,
			SPrime: *sPrime,
			Proof:  *proof,
		}, nil
	}
}

// Verify checks that the adaptor signature is a valid encryption, toward
// encKey, of a signature over msgHash by pub.
func (s *Signature) Verify(
	pub, encKey *btcec.PublicKey, msgHash []byte,
) error {
	if len(msgHash) != 32 {
		return &InvalidMessageEncodingError{Length: len(msgHash)}
	}

	if err := s.Proof.verify(encKey, s.RHat, s.R); err != nil {
		return err
	}

	var rScalar btcec.ModNScalar
	rScalar.SetByteSlice(s.R.SerializeCompressed()[1:33])
	if rScalar.IsZero() || s.SPrime.IsZero() {
		return fmt.Errorf("degenerate adaptor signature scalar")
	}

	var e btcec.ModNScalar
	e.SetByteSlice(msgHash)

	// u1*G + u2*P must equal R_hat, with u1 = e/s' and u2 = r/s'.
	sInv := new(btcec.ModNScalar).InverseValNonConst(&s.SPrime)
	u1 := new(btcec.ModNScalar).Mul2(&e, sInv)
	u2 := new(btcec.ModNScalar).Mul2(&rScalar, sInv)

	var u1G, u2P, sum btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(u1, &u1G)
	var p btcec.JacobianPoint
	pub.AsJacobian(&p)
	btcec.ScalarMultNonConst(u2, &p, &u2P)
	btcec.AddNonConst(&u1G, &u2P, &sum)
	if sum.Z.IsZero() {
		return fmt.Errorf("invalid adaptor signature")
	}
	sum.ToAffine()

	got := btcec.NewPublicKey(&sum.X, &sum.Y)
	if !bytes.Equal(got.SerializeCompressed(), s.RHat.SerializeCompressed()) {
		return fmt.Errorf("invalid adaptor signature")
	}

	return nil
}

// Decrypt completes the adaptor signature into an ordinary ECDSA
// signature using the decryption key y. The resulting s value is
// normalized to the low-S form required for standardness.
func (s *Signature) Decrypt(decKey *btcec.PrivateKey) (*ecdsa.Signature, error) {
	if decKey.Key.IsZero() {
		return nil, fmt.Errorf("decryption key is zero")
	}

	var rScalar btcec.ModNScalar
	rScalar.SetByteSlice(s.R.SerializeCompressed()[1:33])

	yInv := new(btcec.ModNScalar).InverseValNonConst(&decKey.Key)
	sig := new(btcec.ModNScalar).Mul2(&s.SPrime, yInv)
	if sig.IsOverHalfOrder() {
		sig.Negate()
	}

	return ecdsa.NewSignature(&rScalar, sig), nil
}

// Recover extracts the decryption key from a decrypted signature. It
// returns an error if the signature was not produced by decrypting this
// adaptor signature with the discrete log of encKey.
func (s *Signature) Recover(
	sig *ecdsa.Signature, encKey *btcec.PublicKey,
) (*btcec.PrivateKey, error) {
	sigR, sigS, err := parseDERScalars(sig.Serialize())
	if err != nil {
		return nil, err
	}

	var rScalar btcec.ModNScalar
	rScalar.SetByteSlice(s.R.SerializeCompressed()[1:33])
	if !sigR.Equals(&rScalar) {
		return nil, fmt.Errorf("signature nonce does not match adaptor signature")
	}

	// s = s'/y up to sign, hence y = s'/s up to sign.
	sInv := new(btcec.ModNScalar).InverseValNonConst(sigS)
	y := new(btcec.ModNScalar).Mul2(&s.SPrime, sInv)

	expected := encKey.SerializeCompressed()
	candidate := scalarBaseMult(y)
	if !bytes.Equal(candidate.SerializeCompressed(), expected) {
		y.Negate()
		candidate = scalarBaseMult(y)
		if !bytes.Equal(candidate.SerializeCompressed(), expected) {
			return nil, fmt.Errorf("signature is unrelated to adaptor signature")
		}
	}

	yBytes := y.Bytes()
	priv, _ := btcec.PrivKeyFromBytes(yBytes[:])

	return priv, nil
}

// Serialize returns the fixed-size binary encoding of the adaptor
// signature.
func (s *Signature) Serialize() []byte {
	buf := make([]byte, 0, SignatureSize)
	buf = append(buf, s.R.SerializeCompressed()...)
	buf = append(buf, s.RHat.SerializeCompressed()...)
	sPrime := s.SPrime.Bytes()
	buf = append(buf, sPrime[:]...)
	c := s.Proof.C.Bytes()
	buf = append(buf, c[:]...)
	z := s.Proof.Z.Bytes()
	buf = append(buf, z[:]...)
	return buf
}

// ParseSignature decodes an adaptor signature serialized with Serialize.
func ParseSignature(b []byte) (*Signature, error) {
	if len(b) != SignatureSize {
		return nil, fmt.Errorf(
			"invalid adaptor signature length: got %d, want %d", len(b), SignatureSize,
		)
	}

	r, err := btcec.ParsePubKey(b[0:33])
	if err != nil {
		return nil, fmt.Errorf("invalid nonce point: %s", err)
	}
	rHat, err := btcec.ParsePubKey(b[33:66])
	if err != nil {
		return nil, fmt.Errorf("invalid proof nonce point: %s", err)
	}

	sig := &Signature{R: r, RHat: rHat}
	if overflow := sig.SPrime.SetByteSlice(b[66:98]); overflow {
		return nil, fmt.Errorf("encrypted s value overflows the curve order")
	}
	if overflow := sig.Proof.C.SetByteSlice(b[98:130]); overflow {
		return nil, fmt.Errorf("proof challenge overflows the curve order")
	}
	if overflow := sig.Proof.Z.SetByteSlice(b[130:162]); overflow {
		return nil, fmt.Errorf("proof response overflows the curve order")
	}

	return sig, nil
}

func scalarBaseMult(s *btcec.ModNScalar) *btcec.PublicKey {
	var p btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(s, &p)
	p.ToAffine()
	return btcec.NewPublicKey(&p.X, &p.Y)
}

func scalarMult(s *btcec.ModNScalar, pub *btcec.PublicKey) (*btcec.PublicKey, error) {
	var p, r btcec.JacobianPoint
	pub.AsJacobian(&p)
	btcec.ScalarMultNonConst(s, &p, &r)
	if r.Z.IsZero() {
		return nil, fmt.Errorf("point at infinity")
	}
	r.ToAffine()
	return btcec.NewPublicKey(&r.X, &r.Y), nil
}

// parseDERScalars extracts the r and s scalars from a DER encoded ECDSA
// signature.
func parseDERScalars(der []byte) (*btcec.ModNScalar, *btcec.ModNScalar, error) {
	// 0x30 <total-len> 0x02 <r-len> <r> 0x02 <s-len> <s>
	if len(der) < 8 || der[0] != 0x30 {
		return nil, nil, fmt.Errorf("malformed DER signature")
	}
	if der[2] != 0x02 {
		return nil, nil, fmt.Errorf("malformed DER signature")
	}
	rLen := int(der[3])
	if 4+rLen+2 > len(der) {
		return nil, nil, fmt.Errorf("malformed DER signature")
	}
	rBytes := der[4 : 4+rLen]

	if der[4+rLen] != 0x02 {
		return nil, nil, fmt.Errorf("malformed DER signature")
	}
	sLen := int(der[5+rLen])
	if 6+rLen+sLen != len(der) {
		return nil, nil, fmt.Errorf("malformed DER signature")
	}
	sBytes := der[6+rLen : 6+rLen+sLen]

	rBytes = stripLeadingZero(rBytes)
	sBytes = stripLeadingZero(sBytes)
	if len(rBytes) > 32 || len(sBytes) > 32 {
		return nil, nil, fmt.Errorf("malformed DER signature")
	}

	r := new(btcec.ModNScalar)
	if overflow := r.SetByteSlice(rBytes); overflow {
		return nil, nil, fmt.Errorf("signature r overflows the curve order")
	}
	s := new(btcec.ModNScalar)
	if overflow := s.SetByteSlice(sBytes); overflow {
		return nil, nil, fmt.Errorf("signature s overflows the curve order")
	}

	return r, s, nil
}

func stripLeadingZero(b []byte) []byte {
	for len(b) > 1 && b[0] == 0x00 {
		b = b[1:]
	}
	return b
}
