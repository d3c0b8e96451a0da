package cfdsdk

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txrules"
	"github.com/ccoveille/go-safecast"
	"github.com/lightningnetwork/lnd/lntypes"
)

// The protocol transactions are built before they can be signed, so their
// fees are fixed upfront from estimated virtual sizes. Both parties derive
// the same amounts and therefore identical transactions.
const (
	commitTxVsize = 150
	refundTxVsize = 190
	cetVsize      = 190
	punishTxVsize = 160

	// DefaultFeeRatePerVb is the fee rate applied to the protocol
	// transactions when no explicit rate is configured.
	DefaultFeeRatePerVb uint64 = 2

	// defaultDustLimit mirrors the relay dust threshold for P2WPKH
	// outputs.
	defaultDustLimit uint64 = 546
)

func commitTxFee(feeRatePerVb uint64) btcutil.Amount {
	return btcutil.Amount(commitTxVsize * feeRatePerVb)
}

func refundTxFee(feeRatePerVb uint64) btcutil.Amount {
	return btcutil.Amount(refundTxVsize * feeRatePerVb)
}

func cetFee(feeRatePerVb uint64) btcutil.Amount {
	return btcutil.Amount(cetVsize * feeRatePerVb)
}

func punishTxFee(feeRatePerVb uint64) btcutil.Amount {
	return btcutil.Amount(punishTxVsize * feeRatePerVb)
}

// splitFee deducts fee from the two gross amounts, half each. A party with
// a zero payout pays nothing, shifting its share to the counterparty. The
// odd satoshi of an uneven fee lands on the maker side.
func splitFee(
	makerAmount, takerAmount, fee btcutil.Amount,
) (btcutil.Amount, btcutil.Amount, error) {
	makerShare := fee - fee/2
	takerShare := fee / 2

	switch {
	case makerAmount == 0 && takerAmount == 0:
		return 0, 0, FeePolicyViolationError{
			Party: "maker and taker", Available: 0, Required: fee,
		}
	case makerAmount == 0:
		takerShare = fee
		makerShare = 0
	case takerAmount == 0:
		makerShare = fee
		takerShare = 0
	}

	if makerAmount < makerShare {
		return 0, 0, FeePolicyViolationError{
			Party: "maker", Available: makerAmount, Required: makerShare,
		}
	}
	if takerAmount < takerShare {
		return 0, 0, FeePolicyViolationError{
			Party: "taker", Available: takerAmount, Required: takerShare,
		}
	}

	return makerAmount - makerShare, takerAmount - takerShare, nil
}

// CheckTxFee verifies that spendTx pays at least the minimum relay fee of
// 1 sat per virtual byte. inputTxs must contain every transaction spendTx
// spends from.
func CheckTxFee(inputTxs []*wire.MsgTx, spendTx *wire.MsgTx) error {
	prevOutputs := make(map[wire.OutPoint]int64)
	for _, tx := range inputTxs {
		txid := tx.TxHash()
		for vout, out := range tx.TxOut {
			index, err := safecast.ToUint32(vout)
			if err != nil {
				return err
			}
			prevOutputs[wire.OutPoint{Hash: txid, Index: index}] = out.Value
		}
	}

	var inputAmount int64
	for _, in := range spendTx.TxIn {
		value, ok := prevOutputs[in.PreviousOutPoint]
		if !ok {
			return fmt.Errorf(
				"input %s of tx %s not found in the provided transactions",
				in.PreviousOutPoint.String(), spendTx.TxHash().String(),
			)
		}
		inputAmount += value
	}

	var outputAmount int64
	for _, out := range spendTx.TxOut {
		outputAmount += out.Value
	}

	fee := btcutil.Amount(inputAmount - outputAmount)
	vsize := uint64(computeVSize(spendTx))
	if fee < 0 || uint64(fee) < vsize {
		return BelowMinRelayFeeError{
			Txid:  spendTx.TxHash().String(),
			Fee:   fee,
			VSize: vsize,
		}
	}

	return nil
}

func computeVSize(tx *wire.MsgTx) lntypes.VByte {
	baseSize := tx.SerializeSizeStripped()
	totalSize := tx.SerializeSize() // including witness
	weight := totalSize + baseSize*3
	return lntypes.WeightUnit(uint64(weight)).ToVB()
}

// isDust applies both the configured dust limit and the standard relay
// dust policy.
func isDust(out *wire.TxOut, dustLimit uint64) bool {
	if out.Value < int64(dustLimit) {
		return true
	}
	return txrules.IsDustOutput(out, txrules.DefaultRelayFeePerKb)
}
