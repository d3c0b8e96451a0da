// Package script builds the witness scripts locking the CFD transaction
// graph outputs: the 2-of-2 lock output and the revocable commit output
// with its two punishment branches.
package script

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
)

// DegenerateKeysError is returned when two keys that must be distinct in a
// script coincide, which would collapse a 2-of-2 branch into a single-key
// spend.
type DegenerateKeysError struct {
	Key string
}

func (e *DegenerateKeysError) Error() string {
	return fmt.Sprintf("degenerate script keys: %s appears twice", e.Key)
}

// Lock returns the witness script of the 2-of-2 lock output. Keys are
// ordered lexicographically by their compressed serialization so that both
// parties derive the same script regardless of who builds it.
func Lock(pk1, pk2 *btcec.PublicKey) ([]byte, error) {
	first, second := sortKeys(pk1, pk2)
	if bytes.Equal(first, second) {
		return nil, &DegenerateKeysError{Key: fmt.Sprintf("%x", first)}
	}

	return txscript.NewScriptBuilder().
		AddData(first).
		AddOp(txscript.OP_CHECKSIGVERIFY).
		AddData(second).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// Commit returns the witness script of the commit output. It has three
// branches:
//
//	IF: settlement, both identity keys sign (CETs and refund)
//	ELSE IF: maker punishes taker, maker identity + taker punish key
//	ELSE: taker punishes maker, taker identity + maker punish key
//
// The punish key of a party is the sum of its revocation and publish
// public keys, so a single signature under the combined secret satisfies
// the branch.
func Commit(
	makerPk, takerPk, makerPunishPk, takerPunishPk *btcec.PublicKey,
) ([]byte, error) {
	keys := [][]byte{
		makerPk.SerializeCompressed(),
		takerPk.SerializeCompressed(),
		makerPunishPk.SerializeCompressed(),
		takerPunishPk.SerializeCompressed(),
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if bytes.Equal(keys[i], keys[j]) {
				return nil, &DegenerateKeysError{Key: fmt.Sprintf("%x", keys[i])}
			}
		}
	}

	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_IF).
		AddData(makerPk.SerializeCompressed()).
		AddOp(txscript.OP_CHECKSIGVERIFY).
		AddData(takerPk.SerializeCompressed()).
		AddOp(txscript.OP_CHECKSIG).
		AddOp(txscript.OP_ELSE).
		AddOp(txscript.OP_IF).
		AddData(makerPk.SerializeCompressed()).
		AddOp(txscript.OP_CHECKSIGVERIFY).
		AddData(takerPunishPk.SerializeCompressed()).
		AddOp(txscript.OP_CHECKSIG).
		AddOp(txscript.OP_ELSE).
		AddData(takerPk.SerializeCompressed()).
		AddOp(txscript.OP_CHECKSIGVERIFY).
		AddData(makerPunishPk.SerializeCompressed()).
		AddOp(txscript.OP_CHECKSIG).
		AddOp(txscript.OP_ENDIF).
		AddOp(txscript.OP_ENDIF).
		Script()
}

// CombinePubKeys returns the punish key of a party: the point sum of its
// revocation and publish public keys. Knowing both secrets, or one secret
// and the other recovered from a published commit transaction, yields the
// combined secret key.
func CombinePubKeys(revocationPk, publishPk *btcec.PublicKey) (*btcec.PublicKey, error) {
	var rev, pub, sum btcec.JacobianPoint
	revocationPk.AsJacobian(&rev)
	publishPk.AsJacobian(&pub)
	btcec.AddNonConst(&rev, &pub, &sum)
	if sum.Z.IsZero() {
		return nil, &DegenerateKeysError{
			Key: fmt.Sprintf("%x", revocationPk.SerializeCompressed()),
		}
	}
	sum.ToAffine()

	return btcec.NewPublicKey(&sum.X, &sum.Y), nil
}

// P2WSH returns the output script paying to the given witness script.
func P2WSH(witnessScript []byte) ([]byte, error) {
	hash := sha256.Sum256(witnessScript)
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(hash[:]).
		Script()
}

func sortKeys(pk1, pk2 *btcec.PublicKey) ([]byte, []byte) {
	a := pk1.SerializeCompressed()
	b := pk2.SerializeCompressed()
	if bytes.Compare(a, b) > 0 {
		return b, a
	}
	return a, b
}
