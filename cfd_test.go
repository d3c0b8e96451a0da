package cfdsdk

import (
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/cfd-protocol/go-sdk/adaptor"
	"github.com/cfd-protocol/go-sdk/oracle"
	"github.com/cfd-protocol/go-sdk/script"
	"github.com/cfd-protocol/go-sdk/types"
)

const (
	testFundingAmount = btcutil.Amount(110_000_000)
	testLockAmount    = btcutil.Amount(100_000_000)
	testChangeAmount  = btcutil.Amount(9_990_000)

	testRefundTimelock = uint32(800_000)
	testCetCsvDelay    = uint32(24)
	testFeeRatePerVb   = DefaultFeeRatePerVb
	testDust           = defaultDustLimit
)

var testNet = &chaincfg.RegressionNetParams

type testParty struct {
	identity   *btcec.PrivateKey
	revocation *btcec.PrivateKey
	publish    *btcec.PrivateKey
	params     types.PartyParams
	punish     types.PunishParams
}

func newTestParty(t *testing.T, fundingTxid string) testParty {
	t.Helper()

	identity, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	revocation, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	publish, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	addr := p2wpkhAddress(t, identity.PubKey())
	pkScript, err := addressToPkScript(addr, testNet)
	require.NoError(t, err)

	return testParty{
		identity:   identity,
		revocation: revocation,
		publish:    publish,
		params: types.PartyParams{
			IdentityPk: identity.PubKey(),
			LockAmount: testLockAmount,
			FundingInputs: []types.FundingInput{{
				Outpoint: types.Outpoint{Txid: fundingTxid, VOut: 0},
				Amount:   testFundingAmount,
				PkScript: pkScript,
			}},
			ChangeAddress: addr,
			ChangeAmount:  testChangeAmount,
			PayoutAddress: addr,
		},
		punish: types.PunishParams{
			RevocationPk: revocation.PubKey(),
			PublishPk:    publish.PubKey(),
		},
	}
}

func p2wpkhAddress(t *testing.T, pk *btcec.PublicKey) string {
	t.Helper()
	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		btcutil.Hash160(pk.SerializeCompressed()), testNet,
	)
	require.NoError(t, err)
	return addr.EncodeAddress()
}

type contractFixture struct {
	maker testParty
	taker testParty

	oracleKey *btcec.PrivateKey
	nonceKey  *btcec.PrivateKey
	oracle    types.OracleParams

	payouts []types.Payout

	makerCfd *CfdTransactions
	takerCfd *CfdTransactions

	makerSigs SignatureSet
	takerSigs SignatureSet
}

// newContractFixture builds the same contract from the maker's and the
// taker's point of view. Two outcomes: "win" pays the maker 1.5 BTC,
// "lose" pays the taker everything.
func newContractFixture(t *testing.T) *contractFixture {
	t.Helper()

	f := &contractFixture{
		maker: newTestParty(t, fmt.Sprintf("%064x", 0xaa)),
		taker: newTestParty(t, fmt.Sprintf("%064x", 0xbb)),
	}

	var err error
	f.oracleKey, err = btcec.NewPrivateKey()
	require.NoError(t, err)
	f.nonceKey, err = btcec.NewPrivateKey()
	require.NoError(t, err)
	f.oracle = types.OracleParams{
		Pk:      f.oracleKey.PubKey(),
		NoncePk: f.nonceKey.PubKey(),
	}

	f.payouts = []types.Payout{
		{Outcome: []byte("win"), MakerAmount: 150_000_000, TakerAmount: 50_000_000},
		{Outcome: []byte("lose"), MakerAmount: 0, TakerAmount: 200_000_000},
	}

	f.makerCfd, err = CreateCfdTransactions(
		f.maker.params, f.maker.punish, f.taker.params, f.taker.punish,
		f.oracle, f.payouts, testRefundTimelock, testCetCsvDelay,
		f.maker.identity, testFeeRatePerVb, testDust, testNet,
	)
	require.NoError(t, err)

	f.takerCfd, err = CreateCfdTransactions(
		f.maker.params, f.maker.punish, f.taker.params, f.taker.punish,
		f.oracle, f.payouts, testRefundTimelock, testCetCsvDelay,
		f.taker.identity, testFeeRatePerVb, testDust, testNet,
	)
	require.NoError(t, err)

	f.makerSigs = f.makerCfd.OwnSignatures()
	f.takerSigs = f.takerCfd.OwnSignatures()

	return f
}

func (f *contractFixture) cet(t *testing.T, cfd *CfdTransactions, outcome string) *Cet {
	t.Helper()
	for i := range cfd.Cets {
		if string(cfd.Cets[i].Outcome) == outcome {
			return &cfd.Cets[i]
		}
	}
	t.Fatalf("no cet for outcome %s", outcome)
	return nil
}

func (f *contractFixture) commitValue() btcutil.Amount {
	return btcutil.Amount(f.makerCfd.Commit.Tx.TxOut[0].Value)
}

// broadcastCommit finalizes the commit transaction the way the taker
// would broadcast it: decrypting the maker's encrypted signature with the
// taker's publish key and adding the taker's own signature.
func (f *contractFixture) broadcastCommit(t *testing.T) *wire.MsgTx {
	t.Helper()

	lockValue := f.maker.params.LockAmount + f.taker.params.LockAmount
	commitTx := f.takerCfd.Commit.Tx

	sigHash, err := spendingTxSigHash(commitTx, f.takerCfd.LockScript, lockValue)
	require.NoError(t, err)
	takerSig := ecdsa.Sign(f.taker.identity, sigHash)

	makerSig, err := f.makerSigs.CommitEncSig.Decrypt(f.taker.publish)
	require.NoError(t, err)

	broadcast, err := FinalizeSpendTransaction(
		commitTx, f.takerCfd.LockScript,
		f.maker.params.IdentityPk, makerSig,
		f.taker.params.IdentityPk, takerSig,
	)
	require.NoError(t, err)

	return broadcast
}

func TestCreateCfdTransactionsSymmetry(t *testing.T) {
	f := newContractFixture(t)

	require.Equal(
		t, f.makerCfd.Lock.UnsignedTx.TxHash(), f.takerCfd.Lock.UnsignedTx.TxHash(),
	)
	require.Equal(t, f.makerCfd.LockScript, f.takerCfd.LockScript)
	require.Equal(t, f.makerCfd.Commit.Tx.TxHash(), f.takerCfd.Commit.Tx.TxHash())
	require.Equal(t, f.makerCfd.Commit.Script, f.takerCfd.Commit.Script)
	require.Equal(t, f.makerCfd.Refund.Tx.TxHash(), f.takerCfd.Refund.Tx.TxHash())
	require.Len(t, f.makerCfd.Cets, len(f.payouts))
	require.Len(t, f.takerCfd.Cets, len(f.payouts))
	for i := range f.makerCfd.Cets {
		require.Equal(t, f.makerCfd.Cets[i].Tx.TxHash(), f.takerCfd.Cets[i].Tx.TxHash())
	}

	// Lock tx: one lock output plus both parties' change.
	lockTx := f.makerCfd.Lock.UnsignedTx
	require.Len(t, lockTx.TxIn, 2)
	require.Len(t, lockTx.TxOut, 3)
	require.Equal(t, int64(200_000_000), lockTx.TxOut[0].Value)

	require.Equal(t, testRefundTimelock, f.makerCfd.Refund.Tx.LockTime)
	require.Equal(
		t, wire.MaxTxInSequenceNum-1, f.makerCfd.Refund.Tx.TxIn[0].Sequence,
	)
	for _, cet := range f.makerCfd.Cets {
		require.Equal(t, testCetCsvDelay, cet.Tx.TxIn[0].Sequence)
	}
}

func TestVerifySignatures(t *testing.T) {
	f := newContractFixture(t)

	require.NoError(t, f.makerCfd.VerifySignatures(
		f.taker.params.IdentityPk, f.maker.publish.PubKey(), f.oracle, f.takerSigs,
	))
	require.NoError(t, f.takerCfd.VerifySignatures(
		f.maker.params.IdentityPk, f.taker.publish.PubKey(), f.oracle, f.makerSigs,
	))

	// Swapped signature sets must not verify.
	require.Error(t, f.makerCfd.VerifySignatures(
		f.taker.params.IdentityPk, f.maker.publish.PubKey(), f.oracle, f.makerSigs,
	))

	// A commit signature encrypted toward the wrong publish key must not
	// verify either, or the punishment mechanism breaks.
	require.Error(t, f.makerCfd.VerifySignatures(
		f.taker.params.IdentityPk, f.taker.publish.PubKey(), f.oracle, f.takerSigs,
	))

	incomplete := f.takerSigs
	incomplete.CetEncSigs = map[string]*adaptor.Signature{}
	require.Error(t, f.makerCfd.VerifySignatures(
		f.taker.params.IdentityPk, f.maker.publish.PubKey(), f.oracle, incomplete,
	))
}

func TestCommitBroadcast(t *testing.T) {
	f := newContractFixture(t)

	broadcast := f.broadcastCommit(t)

	lockValue := f.maker.params.LockAmount + f.taker.params.LockAmount
	require.NoError(t, VerifySpend(broadcast, f.takerCfd.LockScript, lockValue))
	require.NoError(t, CheckTxFee(
		[]*wire.MsgTx{f.takerCfd.Lock.UnsignedTx}, broadcast,
	))
}

func TestCetSettlement(t *testing.T) {
	f := newContractFixture(t)
	commitTx := f.broadcastCommit(t)

	attestation, err := oracle.Attest(f.oracleKey, f.nonceKey, []byte("win"))
	require.NoError(t, err)
	_, decryptionKey, err := oracle.DecomposeAttestation(attestation)
	require.NoError(t, err)

	outcomeKey := hex.EncodeToString([]byte("win"))
	makerSig, err := f.makerSigs.CetEncSigs[outcomeKey].Decrypt(decryptionKey)
	require.NoError(t, err)
	takerSig, err := f.takerSigs.CetEncSigs[outcomeKey].Decrypt(decryptionKey)
	require.NoError(t, err)

	cet := f.cet(t, f.makerCfd, "win")
	settled, err := FinalizeSettlementTransaction(
		cet.Tx, f.makerCfd.Commit.Script, makerSig, takerSig,
	)
	require.NoError(t, err)

	require.NoError(t, VerifySpend(settled, f.makerCfd.Commit.Script, f.commitValue()))
	require.NoError(t, CheckTxFee([]*wire.MsgTx{commitTx}, settled))

	// Both parties pay half of the commit and cet fees: 340 sats each at
	// 2 sats/vb.
	require.Len(t, settled.TxOut, 2)
	require.Equal(t, int64(149_999_660), settled.TxOut[0].Value)
	require.Equal(t, int64(49_999_660), settled.TxOut[1].Value)
}

func TestCetZeroPayoutOmitsOutput(t *testing.T) {
	f := newContractFixture(t)

	// The maker gets nothing on "lose", so the whole fee lands on the
	// taker and the cet carries a single output.
	cet := f.cet(t, f.makerCfd, "lose")
	require.Len(t, cet.Tx.TxOut, 1)
	require.Equal(t, int64(199_999_320), cet.Tx.TxOut[0].Value)
}

func TestCetPayoutBelowDustOmitsOutput(t *testing.T) {
	f := newContractFixture(t)

	payouts := []types.Payout{
		{Outcome: []byte("scratch"), MakerAmount: 880, TakerAmount: 199_999_120},
	}
	cfd, err := CreateCfdTransactions(
		f.maker.params, f.maker.punish, f.taker.params, f.taker.punish,
		f.oracle, payouts, testRefundTimelock, testCetCsvDelay,
		f.maker.identity, testFeeRatePerVb, testDust, testNet,
	)
	require.NoError(t, err)

	// The maker's 540 sats after the fee split clear the relay dust
	// threshold but not the configured limit, so the output is dropped.
	require.Len(t, cfd.Cets, 1)
	require.Len(t, cfd.Cets[0].Tx.TxOut, 1)
	require.Equal(t, int64(199_998_780), cfd.Cets[0].Tx.TxOut[0].Value)
}

func TestWrongAttestationCannotSettle(t *testing.T) {
	f := newContractFixture(t)

	attestation, err := oracle.Attest(f.oracleKey, f.nonceKey, []byte("lose"))
	require.NoError(t, err)
	_, wrongKey, err := oracle.DecomposeAttestation(attestation)
	require.NoError(t, err)

	outcomeKey := hex.EncodeToString([]byte("win"))
	makerSig, err := f.makerSigs.CetEncSigs[outcomeKey].Decrypt(wrongKey)
	require.NoError(t, err)
	takerSig, err := f.takerSigs.CetEncSigs[outcomeKey].Decrypt(wrongKey)
	require.NoError(t, err)

	cet := f.cet(t, f.makerCfd, "win")
	settled, err := FinalizeSettlementTransaction(
		cet.Tx, f.makerCfd.Commit.Script, makerSig, takerSig,
	)
	require.NoError(t, err)

	err = VerifySpend(settled, f.makerCfd.Commit.Script, f.commitValue())
	require.Error(t, err)

	var scriptErr ScriptSatisfactionError
	require.ErrorAs(t, err, &scriptErr)
}

func TestRefundSettlement(t *testing.T) {
	f := newContractFixture(t)
	commitTx := f.broadcastCommit(t)

	refund, err := FinalizeSettlementTransaction(
		f.makerCfd.Refund.Tx, f.makerCfd.Commit.Script,
		f.makerSigs.RefundSig, f.takerSigs.RefundSig,
	)
	require.NoError(t, err)

	require.NoError(t, VerifySpend(refund, f.makerCfd.Commit.Script, f.commitValue()))
	require.NoError(t, CheckTxFee([]*wire.MsgTx{commitTx}, refund))

	require.Len(t, refund.TxOut, 2)
	require.Equal(t, int64(99_999_660), refund.TxOut[0].Value)
	require.Equal(t, int64(99_999_660), refund.TxOut[1].Value)
}

func TestPunishRevokedCommit(t *testing.T) {
	f := newContractFixture(t)

	// The taker broadcasts a commit transaction the maker treats as
	// revoked: the taker's revocation secret has been disclosed.
	broadcast := f.broadcastCommit(t)

	punishTx, err := PunishTransaction(
		f.makerCfd.Commit.Script, f.maker.params.PayoutAddress,
		f.makerCfd.Commit.EncSig, f.maker.identity,
		f.taker.revocation, f.taker.publish.PubKey(),
		broadcast, testFeeRatePerVb, testDust, testNet,
	)
	require.NoError(t, err)

	require.Len(t, punishTx.TxOut, 1)
	require.Equal(t, int64(f.commitValue())-320, punishTx.TxOut[0].Value)
	require.NoError(t, CheckTxFee([]*wire.MsgTx{broadcast}, punishTx))
}

func TestPunishRequiresCommitBroadcast(t *testing.T) {
	f := newContractFixture(t)

	// A refund spend of the commit output does not reveal the publish
	// key, so there is nothing to punish.
	refund, err := FinalizeSettlementTransaction(
		f.makerCfd.Refund.Tx, f.makerCfd.Commit.Script,
		f.makerSigs.RefundSig, f.takerSigs.RefundSig,
	)
	require.NoError(t, err)

	_, err = PunishTransaction(
		f.makerCfd.Commit.Script, f.maker.params.PayoutAddress,
		f.makerCfd.Commit.EncSig, f.maker.identity,
		f.taker.revocation, f.taker.publish.PubKey(),
		refund, testFeeRatePerVb, testDust, testNet,
	)
	require.Error(t, err)

	var notPunishable NotPunishableError
	require.True(t, errors.As(err, &notPunishable))
}

func TestPunishAfterRollover(t *testing.T) {
	f := newContractFixture(t)

	makerRevocation, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	makerPublish, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	takerRevocation, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	takerPublish, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	makerPunish := types.PunishParams{
		RevocationPk: makerRevocation.PubKey(), PublishPk: makerPublish.PubKey(),
	}
	takerPunish := types.PunishParams{
		RevocationPk: takerRevocation.PubKey(), PublishPk: takerPublish.PubKey(),
	}

	renewedMaker, err := RenewCfdTransactions(
		f.makerCfd.Lock,
		f.maker.params, makerPunish, f.taker.params, takerPunish,
		f.oracle, f.payouts, testRefundTimelock, testCetCsvDelay,
		f.maker.identity, testFeeRatePerVb, testDust, testNet,
	)
	require.NoError(t, err)
	renewedTaker, err := RenewCfdTransactions(
		f.takerCfd.Lock,
		f.maker.params, makerPunish, f.taker.params, takerPunish,
		f.oracle, f.payouts, testRefundTimelock, testCetCsvDelay,
		f.taker.identity, testFeeRatePerVb, testDust, testNet,
	)
	require.NoError(t, err)

	// The taker broadcasts the superseded commit transaction. The
	// previous version's material still punishes it.
	revoked := f.broadcastCommit(t)
	punishTx, err := PunishTransaction(
		f.makerCfd.Commit.Script, f.maker.params.PayoutAddress,
		f.makerCfd.Commit.EncSig, f.maker.identity,
		f.taker.revocation, f.taker.publish.PubKey(),
		revoked, testFeeRatePerVb, testDust, testNet,
	)
	require.NoError(t, err)
	require.Len(t, punishTx.TxOut, 1)
	require.NoError(t, CheckTxFee([]*wire.MsgTx{revoked}, punishTx))

	// The current commit transaction is not revoked: the previous
	// version's material must not punish it.
	lockValue := f.maker.params.LockAmount + f.taker.params.LockAmount
	sigHash, err := spendingTxSigHash(
		renewedTaker.Commit.Tx, renewedTaker.LockScript, lockValue,
	)
	require.NoError(t, err)
	takerSig := ecdsa.Sign(f.taker.identity, sigHash)
	makerSig, err := renewedMaker.OwnSignatures().CommitEncSig.Decrypt(takerPublish)
	require.NoError(t, err)
	current, err := FinalizeSpendTransaction(
		renewedTaker.Commit.Tx, renewedTaker.LockScript,
		f.maker.params.IdentityPk, makerSig,
		f.taker.params.IdentityPk, takerSig,
	)
	require.NoError(t, err)

	_, err = PunishTransaction(
		f.makerCfd.Commit.Script, f.maker.params.PayoutAddress,
		f.makerCfd.Commit.EncSig, f.maker.identity,
		f.taker.revocation, f.taker.publish.PubKey(),
		current, testFeeRatePerVb, testDust, testNet,
	)
	var notPunishable NotPunishableError
	require.ErrorAs(t, err, &notPunishable)
}

func TestRenewCfdTransactions(t *testing.T) {
	f := newContractFixture(t)

	// Fresh punish keys for the next version.
	makerRevocation, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	makerPublish, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	takerRevocation, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	takerPublish, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	makerPunish := types.PunishParams{
		RevocationPk: makerRevocation.PubKey(), PublishPk: makerPublish.PubKey(),
	}
	takerPunish := types.PunishParams{
		RevocationPk: takerRevocation.PubKey(), PublishPk: takerPublish.PubKey(),
	}

	payouts := []types.Payout{
		{Outcome: []byte("win"), MakerAmount: 120_000_000, TakerAmount: 80_000_000},
		{Outcome: []byte("lose"), MakerAmount: 80_000_000, TakerAmount: 120_000_000},
	}

	renewedMaker, err := RenewCfdTransactions(
		f.makerCfd.Lock,
		f.maker.params, makerPunish, f.taker.params, takerPunish,
		f.oracle, payouts, testRefundTimelock, testCetCsvDelay,
		f.maker.identity, testFeeRatePerVb, testDust, testNet,
	)
	require.NoError(t, err)
	renewedTaker, err := RenewCfdTransactions(
		f.takerCfd.Lock,
		f.maker.params, makerPunish, f.taker.params, takerPunish,
		f.oracle, payouts, testRefundTimelock, testCetCsvDelay,
		f.taker.identity, testFeeRatePerVb, testDust, testNet,
	)
	require.NoError(t, err)

	// Same lock, new commit.
	require.Equal(
		t, f.makerCfd.Lock.UnsignedTx.TxHash(), renewedMaker.Lock.UnsignedTx.TxHash(),
	)
	require.Equal(t, renewedMaker.Commit.Tx.TxHash(), renewedTaker.Commit.Tx.TxHash())
	require.NotEqual(
		t, f.makerCfd.Commit.Tx.TxHash(), renewedMaker.Commit.Tx.TxHash(),
	)

	require.NoError(t, renewedMaker.VerifySignatures(
		f.taker.params.IdentityPk, makerPublish.PubKey(), f.oracle,
		renewedTaker.OwnSignatures(),
	))
	require.NoError(t, renewedTaker.VerifySignatures(
		f.maker.params.IdentityPk, takerPublish.PubKey(), f.oracle,
		renewedMaker.OwnSignatures(),
	))
}

func TestCreateCfdTransactionsRejectsBadPayouts(t *testing.T) {
	f := newContractFixture(t)

	payouts := []types.Payout{
		{Outcome: []byte("win"), MakerAmount: 150_000_000, TakerAmount: 60_000_000},
	}
	_, err := CreateCfdTransactions(
		f.maker.params, f.maker.punish, f.taker.params, f.taker.punish,
		f.oracle, payouts, testRefundTimelock, testCetCsvDelay,
		f.maker.identity, testFeeRatePerVb, testDust, testNet,
	)
	require.Error(t, err)

	_, err = CreateCfdTransactions(
		f.maker.params, f.maker.punish, f.taker.params, f.taker.punish,
		f.oracle, nil, testRefundTimelock, testCetCsvDelay,
		f.maker.identity, testFeeRatePerVb, testDust, testNet,
	)
	require.Error(t, err)
}

func TestCreateCfdTransactionsRejectsSharedKeys(t *testing.T) {
	f := newContractFixture(t)

	// Same revocation key on both sides.
	takerPunish := types.PunishParams{
		RevocationPk: f.maker.punish.RevocationPk,
		PublishPk:    f.taker.punish.PublishPk,
	}
	_, err := CreateCfdTransactions(
		f.maker.params, f.maker.punish, f.taker.params, takerPunish,
		f.oracle, f.payouts, testRefundTimelock, testCetCsvDelay,
		f.maker.identity, testFeeRatePerVb, testDust, testNet,
	)
	var degenerate *script.DegenerateKeysError
	require.ErrorAs(t, err, &degenerate)

	// Revocation and publish key coincide within one party.
	makerPunish := types.PunishParams{
		RevocationPk: f.maker.revocation.PubKey(),
		PublishPk:    f.maker.revocation.PubKey(),
	}
	_, err = CreateCfdTransactions(
		f.maker.params, makerPunish, f.taker.params, f.taker.punish,
		f.oracle, f.payouts, testRefundTimelock, testCetCsvDelay,
		f.maker.identity, testFeeRatePerVb, testDust, testNet,
	)
	require.ErrorAs(t, err, &degenerate)

	// An identity key reused as a punish key.
	takerPunish = types.PunishParams{
		RevocationPk: f.taker.punish.RevocationPk,
		PublishPk:    f.maker.params.IdentityPk,
	}
	_, err = CreateCfdTransactions(
		f.maker.params, f.maker.punish, f.taker.params, takerPunish,
		f.oracle, f.payouts, testRefundTimelock, testCetCsvDelay,
		f.maker.identity, testFeeRatePerVb, testDust, testNet,
	)
	require.ErrorAs(t, err, &degenerate)
}

func TestCreateCfdTransactionsRejectsStrangerKey(t *testing.T) {
	f := newContractFixture(t)

	stranger, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	_, err = CreateCfdTransactions(
		f.maker.params, f.maker.punish, f.taker.params, f.taker.punish,
		f.oracle, f.payouts, testRefundTimelock, testCetCsvDelay,
		stranger, testFeeRatePerVb, testDust, testNet,
	)
	require.Error(t, err)
}
