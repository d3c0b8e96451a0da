package cfdsdk

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/cfd-protocol/go-sdk/script"
)

// FinalizeSpendTransaction attaches the witness spending the 2-of-2 lock
// output to the first input of tx. The lock script orders keys
// lexicographically, so signatures are placed according to the key order
// rather than the maker/taker roles.
func FinalizeSpendTransaction(
	tx *wire.MsgTx, lockScript []byte,
	pk1 *btcec.PublicKey, sig1 *ecdsa.Signature,
	pk2 *btcec.PublicKey, sig2 *ecdsa.Signature,
) (*wire.MsgTx, error) {
	if len(tx.TxIn) == 0 {
		return nil, fmt.Errorf("tx has no inputs")
	}

	firstSig, secondSig := sig1, sig2
	if bytes.Compare(pk1.SerializeCompressed(), pk2.SerializeCompressed()) > 0 {
		firstSig, secondSig = sig2, sig1
	}

	// The first key's signature is checked first, so it must sit on top
	// of the stack.
	tx.TxIn[0].Witness = wire.TxWitness{
		witnessSig(secondSig.Serialize()),
		witnessSig(firstSig.Serialize()),
		lockScript,
	}

	return tx, nil
}

// FinalizeSettlementTransaction attaches the witness spending the commit
// output through its settlement branch, used for both CETs and the refund
// transaction.
func FinalizeSettlementTransaction(
	tx *wire.MsgTx, commitScript []byte,
	makerSig, takerSig *ecdsa.Signature,
) (*wire.MsgTx, error) {
	if len(tx.TxIn) == 0 {
		return nil, fmt.Errorf("tx has no inputs")
	}

	tx.TxIn[0].Witness = wire.TxWitness{
		witnessSig(takerSig.Serialize()),
		witnessSig(makerSig.Serialize()),
		{0x01},
		commitScript,
	}

	return tx, nil
}

// VerifySpend executes the first input of tx against the P2WSH output it
// spends, locked by witnessScript and worth value.
func VerifySpend(
	tx *wire.MsgTx, witnessScript []byte, value btcutil.Amount,
) error {
	pkScript, err := script.P2WSH(witnessScript)
	if err != nil {
		return err
	}

	fetcher := txscript.NewCannedPrevOutputFetcher(pkScript, int64(value))
	engine, err := txscript.NewEngine(
		pkScript, tx, 0, txscript.StandardVerifyFlags, nil,
		txscript.NewTxSigHashes(tx, fetcher), int64(value), fetcher,
	)
	if err != nil {
		return ScriptSatisfactionError{
			Txid:   tx.TxHash().String(),
			Reason: err.Error(),
		}
	}

	if err := engine.Execute(); err != nil {
		return ScriptSatisfactionError{
			Txid:   tx.TxHash().String(),
			Reason: err.Error(),
		}
	}

	return nil
}
