package cfdsdk

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/cfd-protocol/go-sdk/internal/utils"
	"github.com/cfd-protocol/go-sdk/script"
	"github.com/cfd-protocol/go-sdk/types"
)

// spendingTxSigHash computes the BIP143 sighash of the first input of tx,
// which spends a P2WSH output locked by witnessScript worth value.
func spendingTxSigHash(
	tx *wire.MsgTx, witnessScript []byte, value btcutil.Amount,
) ([]byte, error) {
	pkScript, err := script.P2WSH(witnessScript)
	if err != nil {
		return nil, err
	}

	fetcher := txscript.NewCannedPrevOutputFetcher(pkScript, int64(value))
	return txscript.CalcWitnessSigHash(
		witnessScript, txscript.NewTxSigHashes(tx, fetcher),
		txscript.SigHashAll, tx, 0, int64(value),
	)
}

func addressToPkScript(addr string, net *chaincfg.Params) ([]byte, error) {
	pkScript, err := utils.ParseBitcoinAddress(addr, net)
	if err != nil {
		return nil, fmt.Errorf("invalid address %s: %s", addr, err)
	}
	return pkScript, nil
}

func outpointFromTypes(o types.Outpoint) (*wire.OutPoint, error) {
	hash, err := chainhash.NewHashFromStr(o.Txid)
	if err != nil {
		return nil, fmt.Errorf("invalid txid %s: %s", o.Txid, err)
	}
	return wire.NewOutPoint(hash, o.VOut), nil
}

func sortFundingInputs(inputs []types.FundingInput) []types.FundingInput {
	sorted := make([]types.FundingInput, len(inputs))
	copy(sorted, inputs)
	slices.SortStableFunc(sorted, func(i, j types.FundingInput) int {
		txidCmp := strings.Compare(i.Txid, j.Txid)
		if txidCmp != 0 {
			return txidCmp
		}
		return int(i.VOut) - int(j.VOut)
	})
	return sorted
}

func sortChangeOutputs(outputs []*wire.TxOut) {
	slices.SortStableFunc(outputs, func(i, j *wire.TxOut) int {
		if i.Value != j.Value {
			if i.Value < j.Value {
				return -1
			}
			return 1
		}
		return bytes.Compare(i.PkScript, j.PkScript)
	})
}

// witnessSig appends the sighash flag required in witness signatures.
func witnessSig(der []byte) []byte {
	return append(der, byte(txscript.SigHashAll))
}

func ecPubkeyFromHex(pubkey string) (*btcec.PublicKey, error) {
	buf, err := hex.DecodeString(pubkey)
	if err != nil {
		return nil, err
	}
	return btcec.ParsePubKey(buf)
}
