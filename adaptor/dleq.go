package adaptor

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var (
	dleqTag      = []byte("ECDSAadaptor/DLEQ")
	dleqNonceTag = []byte("ECDSAadaptor/DLEQnonce")
)

// DleqProof is a Chaum-Pedersen proof that two points share the same
// discrete log with respect to different bases: log_G(R_hat) = log_Y(R).
type DleqProof struct {
	C btcec.ModNScalar
	Z btcec.ModNScalar
}

// dleqProve proves knowledge of k such that rHat = k*G and r = k*Y.
func dleqProve(
	k *btcec.ModNScalar, y *btcec.PublicKey, rHat, r *btcec.PublicKey,
) (*DleqProof, error) {
	kBytes := k.Bytes()
	transcript := chainhash.TaggedHash(
		dleqNonceTag,
		y.SerializeCompressed(),
		rHat.SerializeCompressed(),
		r.SerializeCompressed(),
	)

	for iter := uint32(0); ; iter++ {
		a := secp256k1.NonceRFC6979(kBytes[:], transcript[:], nil, nil, iter)
		if a == nil || a.IsZero() {
			continue
		}

		aG := scalarBaseMult(a)
		aY, err := scalarMult(a, y)
		if err != nil {
			continue
		}

		c := dleqChallenge(y, rHat, r, aG, aY)
		if c.IsZero() {
			continue
		}

		// z = a + c*k
		z := new(btcec.ModNScalar).Mul2(c, k)
		z.Add(a)

		return &DleqProof{C: *c, Z: *z}, nil
	}
}

// verify recomputes the commitments from the proof and checks the
// challenge: A_G = z*G - c*R_hat and A_Y = z*Y - c*R.
func (p *DleqProof) verify(y *btcec.PublicKey, rHat, r *btcec.PublicKey) error {
	aG, err := linearCombination(&p.Z, nil, &p.C, rHat)
	if err != nil {
		return fmt.Errorf("invalid dleq proof: %s", err)
	}
	aY, err := linearCombination(&p.Z, y, &p.C, r)
	if err != nil {
		return fmt.Errorf("invalid dleq proof: %s", err)
	}

	c := dleqChallenge(y, rHat, r, aG, aY)
	if !c.Equals(&p.C) {
		return fmt.Errorf("invalid dleq proof: challenge mismatch")
	}

	return nil
}

// linearCombination computes z*B - c*P where B is the given base point, or
// the generator when base is nil.
func linearCombination(
	z *btcec.ModNScalar, base *btcec.PublicKey, c *btcec.ModNScalar, p *btcec.PublicKey,
) (*btcec.PublicKey, error) {
	var zB btcec.JacobianPoint
	if base == nil {
		btcec.ScalarBaseMultNonConst(z, &zB)
	} else {
		var b btcec.JacobianPoint
		base.AsJacobian(&b)
		btcec.ScalarMultNonConst(z, &b, &zB)
	}

	negC := new(btcec.ModNScalar).NegateVal(c)
	var pj, cP, sum btcec.JacobianPoint
	p.AsJacobian(&pj)
	btcec.ScalarMultNonConst(negC, &pj, &cP)

	btcec.AddNonConst(&zB, &cP, &sum)
	if sum.Z.IsZero() {
		return nil, fmt.Errorf("point at infinity")
	}
	sum.ToAffine()

	return btcec.NewPublicKey(&sum.X, &sum.Y), nil
}

func dleqChallenge(y, rHat, r, aG, aY *btcec.PublicKey) *btcec.ModNScalar {
	hash := chainhash.TaggedHash(
		dleqTag,
		y.SerializeCompressed(),
		rHat.SerializeCompressed(),
		r.SerializeCompressed(),
		aG.SerializeCompressed(),
		aY.SerializeCompressed(),
	)

	c := new(btcec.ModNScalar)
	c.SetByteSlice(hash[:])
	return c
}
