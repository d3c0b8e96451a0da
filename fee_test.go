package cfdsdk

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestSplitFee(t *testing.T) {
	tests := []struct {
		name        string
		makerAmount btcutil.Amount
		takerAmount btcutil.Amount
		fee         btcutil.Amount
		wantMaker   btcutil.Amount
		wantTaker   btcutil.Amount
	}{
		{
			name:        "even fee split in half",
			makerAmount: 1000, takerAmount: 1000, fee: 100,
			wantMaker: 950, wantTaker: 950,
		},
		{
			name:        "odd satoshi lands on the maker",
			makerAmount: 1000, takerAmount: 1000, fee: 101,
			wantMaker: 949, wantTaker: 950,
		},
		{
			name:        "zero maker payout shifts the fee to the taker",
			makerAmount: 0, takerAmount: 2000, fee: 100,
			wantMaker: 0, wantTaker: 1900,
		},
		{
			name:        "zero taker payout shifts the fee to the maker",
			makerAmount: 2000, takerAmount: 0, fee: 100,
			wantMaker: 1900, wantTaker: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maker, taker, err := splitFee(tt.makerAmount, tt.takerAmount, tt.fee)
			require.NoError(t, err)
			require.Equal(t, tt.wantMaker, maker)
			require.Equal(t, tt.wantTaker, taker)
		})
	}
}

func TestSplitFeeViolations(t *testing.T) {
	_, _, err := splitFee(0, 0, 100)
	var violation FeePolicyViolationError
	require.ErrorAs(t, err, &violation)

	// Maker cannot cover its half.
	_, _, err = splitFee(40, 1000, 100)
	require.ErrorAs(t, err, &violation)
	require.Equal(t, "maker", violation.Party)

	// Taker cannot cover the whole fee shifted onto it.
	_, _, err = splitFee(0, 80, 100)
	require.ErrorAs(t, err, &violation)
	require.Equal(t, "taker", violation.Party)
}

func TestCheckTxFee(t *testing.T) {
	funding := wire.NewMsgTx(2)
	funding.AddTxOut(wire.NewTxOut(100_000, make([]byte, 22)))

	outpoint := wire.OutPoint{Hash: funding.TxHash(), Index: 0}

	spend := wire.NewMsgTx(2)
	spend.AddTxIn(wire.NewTxIn(&outpoint, nil, nil))
	spend.AddTxOut(wire.NewTxOut(99_000, make([]byte, 22)))

	require.NoError(t, CheckTxFee([]*wire.MsgTx{funding}, spend))

	// Same spend paying less than 1 sat/vb.
	spend.TxOut[0].Value = 99_990
	err := CheckTxFee([]*wire.MsgTx{funding}, spend)
	var feeErr BelowMinRelayFeeError
	require.ErrorAs(t, err, &feeErr)
	require.Equal(t, btcutil.Amount(10), feeErr.Fee)

	// A spend paying out more than it takes in must never pass the floor.
	spend.TxOut[0].Value = 150_000
	err = CheckTxFee([]*wire.MsgTx{funding}, spend)
	require.ErrorAs(t, err, &feeErr)
	require.Equal(t, btcutil.Amount(-50_000), feeErr.Fee)

	// A fee of exactly 1 sat/vb is the acceptance boundary.
	vsize := int64(computeVSize(spend))
	spend.TxOut[0].Value = 100_000 - vsize
	require.NoError(t, CheckTxFee([]*wire.MsgTx{funding}, spend))

	spend.TxOut[0].Value = 100_000 - vsize + 1
	err = CheckTxFee([]*wire.MsgTx{funding}, spend)
	require.ErrorAs(t, err, &feeErr)
}

func TestCheckTxFeeMissingInput(t *testing.T) {
	funding := wire.NewMsgTx(2)
	funding.AddTxOut(wire.NewTxOut(100_000, make([]byte, 22)))

	unknown := wire.OutPoint{Hash: chainhash.Hash{0x01}, Index: 0}
	spend := wire.NewMsgTx(2)
	spend.AddTxIn(wire.NewTxIn(&unknown, nil, nil))
	spend.AddTxOut(wire.NewTxOut(50_000, make([]byte, 22)))

	require.Error(t, CheckTxFee([]*wire.MsgTx{funding}, spend))
}

func TestFixedTransactionFees(t *testing.T) {
	require.Equal(t, btcutil.Amount(300), commitTxFee(2))
	require.Equal(t, btcutil.Amount(380), refundTxFee(2))
	require.Equal(t, btcutil.Amount(380), cetFee(2))
	require.Equal(t, btcutil.Amount(320), punishTxFee(2))
}
