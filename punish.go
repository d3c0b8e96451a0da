package cfdsdk

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"

	"github.com/cfd-protocol/go-sdk/adaptor"
	"github.com/cfd-protocol/go-sdk/script"
)

// PunishTransaction builds and fully signs a transaction sweeping the
// commit output of a revoked commit transaction the counterparty
// broadcast.
//
// Broadcasting the commit transaction required the counterparty to
// decrypt our encrypted signature with their publish key, so the witness
// of the observed transaction reveals that key: we recover it from our
// own encrypted signature, combine it with the revocation secret they
// disclosed when the version was revoked, and satisfy the punishment
// branch of the commit script before their CETs' relative timelock
// expires.
func PunishTransaction(
	commitScript []byte, destinationAddress string,
	ownEncSig *adaptor.Signature, identitySk *btcec.PrivateKey,
	counterpartyRevocationSk *btcec.PrivateKey,
	counterpartyPublishPk *btcec.PublicKey,
	revokedCommitTx *wire.MsgTx,
	feeRatePerVb, dust uint64, net *chaincfg.Params,
) (*wire.MsgTx, error) {
	txid := revokedCommitTx.TxHash()

	commitPkScript, err := script.P2WSH(commitScript)
	if err != nil {
		return nil, err
	}

	commitVout := -1
	for vout, out := range revokedCommitTx.TxOut {
		if bytes.Equal(out.PkScript, commitPkScript) {
			commitVout = vout
			break
		}
	}
	if commitVout < 0 {
		return nil, NotPunishableError{
			Txid:   txid.String(),
			Reason: "no commit output found",
		}
	}
	commitValue := btcutil.Amount(revokedCommitTx.TxOut[commitVout].Value)

	publishSk, err := recoverPublishKey(ownEncSig, counterpartyPublishPk, revokedCommitTx)
	if err != nil {
		return nil, NotPunishableError{Txid: txid.String(), Reason: err.Error()}
	}

	// The punishment branch requires a single signature under the sum of
	// the counterparty's revocation and publish secrets.
	combinedKey := counterpartyRevocationSk.Key
	combinedKey.Add(&publishSk.Key)
	if combinedKey.IsZero() {
		return nil, NotPunishableError{
			Txid:   txid.String(),
			Reason: "revocation and publish keys cancel out",
		}
	}
	combinedKeyBytes := combinedKey.Bytes()
	combinedSk, _ := btcec.PrivKeyFromBytes(combinedKeyBytes[:])

	isMaker, err := punisherIsMaker(commitScript, identitySk.PubKey(), combinedSk.PubKey())
	if err != nil {
		return nil, NotPunishableError{Txid: txid.String(), Reason: err.Error()}
	}

	fee := punishTxFee(feeRatePerVb)
	if commitValue <= fee {
		return nil, FeePolicyViolationError{
			Party: "punisher", Available: commitValue, Required: fee,
		}
	}

	destinationScript, err := addressToPkScript(destinationAddress, net)
	if err != nil {
		return nil, err
	}

	punishTx := wire.NewMsgTx(2)
	commitOutpoint := wire.OutPoint{Hash: txid, Index: uint32(commitVout)}
	punishTx.AddTxIn(wire.NewTxIn(&commitOutpoint, nil, nil))
	out := wire.NewTxOut(int64(commitValue-fee), destinationScript)
	if isDust(out, dust) {
		return nil, NotPunishableError{
			Txid:   txid.String(),
			Reason: "commit output too small to sweep",
		}
	}
	punishTx.AddTxOut(out)

	sigHash, err := spendingTxSigHash(punishTx, commitScript, commitValue)
	if err != nil {
		return nil, err
	}
	identitySig := ecdsa.Sign(identitySk, sigHash)
	combinedSig := ecdsa.Sign(combinedSk, sigHash)

	// Select the punishment branch matching our role: the outer IF is
	// always false, the inner one picks maker (true) or taker (false).
	innerSelector := []byte{}
	if isMaker {
		innerSelector = []byte{0x01}
	}
	punishTx.TxIn[0].Witness = wire.TxWitness{
		witnessSig(combinedSig.Serialize()),
		witnessSig(identitySig.Serialize()),
		innerSelector,
		{},
		commitScript,
	}

	if err := VerifySpend(punishTx, commitScript, commitValue); err != nil {
		return nil, err
	}

	log.Debugf(
		"built punish tx %s sweeping revoked commit tx %s",
		punishTx.TxHash().String(), txid.String(),
	)

	return punishTx, nil
}

// recoverPublishKey scans the witness of the observed commit transaction
// for the signature decrypted from our encrypted signature and recovers
// the counterparty's publish key from it.
func recoverPublishKey(
	ownEncSig *adaptor.Signature, counterpartyPublishPk *btcec.PublicKey,
	commitTx *wire.MsgTx,
) (*btcec.PrivateKey, error) {
	for _, in := range commitTx.TxIn {
		for _, item := range in.Witness {
			if len(item) < 9 {
				continue
			}

			// Witness signatures carry a trailing sighash flag byte.
			sig, err := ecdsa.ParseDERSignature(item[:len(item)-1])
			if err != nil {
				continue
			}

			publishSk, err := ownEncSig.Recover(sig, counterpartyPublishPk)
			if err != nil {
				continue
			}

			return publishSk, nil
		}
	}

	return nil, fmt.Errorf("witness does not reveal the counterparty's publish key")
}

// punisherIsMaker determines which punishment branch we can satisfy by
// matching our identity key against the keys pushed by the commit script.
func punisherIsMaker(
	commitScript []byte, ownPk, combinedPk *btcec.PublicKey,
) (bool, error) {
	pushes, err := txscript.PushedData(commitScript)
	if err != nil {
		return false, fmt.Errorf("malformed commit script: %s", err)
	}
	if len(pushes) < 6 {
		return false, fmt.Errorf("malformed commit script: %d pushes", len(pushes))
	}

	makerPk := pushes[0]
	takerPk := pushes[1]
	takerPunishPk := pushes[3]
	makerPunishPk := pushes[5]

	ownPkBytes := ownPk.SerializeCompressed()
	combinedPkBytes := combinedPk.SerializeCompressed()

	switch {
	case bytes.Equal(ownPkBytes, makerPk):
		if !bytes.Equal(combinedPkBytes, takerPunishPk) {
			return false, fmt.Errorf("combined punish key does not match the commit script")
		}
		return true, nil
	case bytes.Equal(ownPkBytes, takerPk):
		if !bytes.Equal(combinedPkBytes, makerPunishPk) {
			return false, fmt.Errorf("combined punish key does not match the commit script")
		}
		return false, nil
	default:
		return false, fmt.Errorf("identity key not found in the commit script")
	}
}
