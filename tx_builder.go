package cfdsdk

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"

	"github.com/cfd-protocol/go-sdk/adaptor"
	"github.com/cfd-protocol/go-sdk/oracle"
	"github.com/cfd-protocol/go-sdk/script"
	"github.com/cfd-protocol/go-sdk/types"
)

// Cet is a contract execution transaction: one possible settlement of the
// contract, spendable once the oracle attests its outcome.
type Cet struct {
	Tx      *wire.MsgTx
	EncSig  *adaptor.Signature
	Outcome []byte
}

// CommitTransaction is the revocable intermediate transaction between the
// lock output and the settlement transactions. The encrypted signature is
// our signature on it, encrypted toward the counterparty's publish key:
// broadcasting the commit transaction forces them to reveal that key.
type CommitTransaction struct {
	Tx     *wire.MsgTx
	Script []byte
	EncSig *adaptor.Signature
}

// RefundTransaction returns both parties their collateral after the
// refund timelock, should the oracle never attest.
type RefundTransaction struct {
	Tx  *wire.MsgTx
	Sig *ecdsa.Signature
}

// CfdTransactions is the full transaction graph of a CFD, along with the
// signatures the building party contributes.
type CfdTransactions struct {
	Lock       *psbt.Packet
	LockScript []byte
	Commit     CommitTransaction
	Refund     RefundTransaction
	Cets       []Cet
}

// SignatureSet is the set of signatures one party sends the other during
// contract setup or rollover. Cet signatures are keyed by hex-encoded
// outcome.
type SignatureSet struct {
	CommitEncSig *adaptor.Signature
	RefundSig    *ecdsa.Signature
	CetEncSigs   map[string]*adaptor.Signature
}

// OwnSignatures extracts the signatures to be sent to the counterparty.
func (c *CfdTransactions) OwnSignatures() SignatureSet {
	cetSigs := make(map[string]*adaptor.Signature, len(c.Cets))
	for _, cet := range c.Cets {
		cetSigs[hex.EncodeToString(cet.Outcome)] = cet.EncSig
	}
	return SignatureSet{
		CommitEncSig: c.Commit.EncSig,
		RefundSig:    c.Refund.Sig,
		CetEncSigs:   cetSigs,
	}
}

// CreateCfdTransactions builds the whole transaction graph of a new CFD
// and signs our side of it. identitySk must be the secret key of either
// the maker or the taker identity.
func CreateCfdTransactions(
	maker types.PartyParams, makerPunish types.PunishParams,
	taker types.PartyParams, takerPunish types.PunishParams,
	oracleParams types.OracleParams, payouts []types.Payout,
	refundTimelock, cetCsvDelay uint32,
	identitySk *btcec.PrivateKey, feeRatePerVb, dust uint64,
	net *chaincfg.Params,
) (*CfdTransactions, error) {
	lockScript, err := script.Lock(maker.IdentityPk, taker.IdentityPk)
	if err != nil {
		return nil, err
	}

	lockValue := maker.LockAmount + taker.LockAmount

	lockPacket, err := buildLockTransaction(maker, taker, lockScript, lockValue, dust, net)
	if err != nil {
		return nil, fmt.Errorf("failed to build lock tx: %s", err)
	}

	lockOutpoint := wire.OutPoint{Hash: lockPacket.UnsignedTx.TxHash(), Index: 0}

	return buildContractTransactions(
		lockPacket, lockOutpoint, lockScript, lockValue,
		maker, makerPunish, taker, takerPunish,
		oracleParams, payouts, refundTimelock, cetCsvDelay,
		identitySk, feeRatePerVb, dust, net,
	)
}

// RenewCfdTransactions rebuilds the revocable part of the graph on top of
// an existing lock transaction. Used on rollover: fresh punish keys and
// payouts yield a new commit transaction, refund transaction and CETs,
// after which the previous commit transaction is revoked.
func RenewCfdTransactions(
	lockTx *psbt.Packet,
	maker types.PartyParams, makerPunish types.PunishParams,
	taker types.PartyParams, takerPunish types.PunishParams,
	oracleParams types.OracleParams, payouts []types.Payout,
	refundTimelock, cetCsvDelay uint32,
	identitySk *btcec.PrivateKey, feeRatePerVb, dust uint64,
	net *chaincfg.Params,
) (*CfdTransactions, error) {
	lockScript, err := script.Lock(maker.IdentityPk, taker.IdentityPk)
	if err != nil {
		return nil, err
	}
	lockPkScript, err := script.P2WSH(lockScript)
	if err != nil {
		return nil, err
	}

	lockVout := -1
	for vout, out := range lockTx.UnsignedTx.TxOut {
		if bytes.Equal(out.PkScript, lockPkScript) {
			lockVout = vout
			break
		}
	}
	if lockVout < 0 {
		return nil, fmt.Errorf("lock tx has no output for the parties' identity keys")
	}

	lockValue := btcutil.Amount(lockTx.UnsignedTx.TxOut[lockVout].Value)
	if lockValue != maker.LockAmount+taker.LockAmount {
		return nil, fmt.Errorf(
			"lock output value %d does not match the parties' amounts %d",
			lockValue, maker.LockAmount+taker.LockAmount,
		)
	}

	lockOutpoint := wire.OutPoint{
		Hash:  lockTx.UnsignedTx.TxHash(),
		Index: uint32(lockVout),
	}

	return buildContractTransactions(
		lockTx, lockOutpoint, lockScript, lockValue,
		maker, makerPunish, taker, takerPunish,
		oracleParams, payouts, refundTimelock, cetCsvDelay,
		identitySk, feeRatePerVb, dust, net,
	)
}

// VerifySignatures checks every signature the counterparty sent against
// the transaction graph: the commit encrypted signature must be encrypted
// toward our publish key, the refund signature must be a plain ECDSA
// signature and each CET signature must be encrypted toward the signature
// point of its outcome.
func (c *CfdTransactions) VerifySignatures(
	counterpartyPk, ownPublishPk *btcec.PublicKey,
	oracleParams types.OracleParams, sigs SignatureSet,
) error {
	lockValue, err := c.lockOutputValue()
	if err != nil {
		return err
	}

	if sigs.CommitEncSig == nil || sigs.RefundSig == nil {
		return fmt.Errorf("incomplete signature set")
	}

	commitSigHash, err := spendingTxSigHash(c.Commit.Tx, c.LockScript, lockValue)
	if err != nil {
		return err
	}
	if err := sigs.CommitEncSig.Verify(
		counterpartyPk, ownPublishPk, commitSigHash,
	); err != nil {
		return fmt.Errorf("invalid commit tx signature: %s", err)
	}

	commitValue := btcutil.Amount(c.Commit.Tx.TxOut[0].Value)

	refundSigHash, err := spendingTxSigHash(c.Refund.Tx, c.Commit.Script, commitValue)
	if err != nil {
		return err
	}
	if !sigs.RefundSig.Verify(refundSigHash, counterpartyPk) {
		return fmt.Errorf("invalid refund tx signature")
	}

	for _, cet := range c.Cets {
		encSig, ok := sigs.CetEncSigs[hex.EncodeToString(cet.Outcome)]
		if !ok || encSig == nil {
			return fmt.Errorf("missing signature for outcome %x", cet.Outcome)
		}

		sigPoint, err := oracle.SignaturePoint(
			oracleParams.Pk, oracleParams.NoncePk, cet.Outcome,
		)
		if err != nil {
			return err
		}

		cetSigHash, err := spendingTxSigHash(cet.Tx, c.Commit.Script, commitValue)
		if err != nil {
			return err
		}
		if err := encSig.Verify(counterpartyPk, sigPoint, cetSigHash); err != nil {
			return fmt.Errorf("invalid signature for outcome %x: %s", cet.Outcome, err)
		}
	}

	return nil
}

func (c *CfdTransactions) lockOutputValue() (btcutil.Amount, error) {
	lockPkScript, err := script.P2WSH(c.LockScript)
	if err != nil {
		return 0, err
	}
	for _, out := range c.Lock.UnsignedTx.TxOut {
		if bytes.Equal(out.PkScript, lockPkScript) {
			return btcutil.Amount(out.Value), nil
		}
	}
	return 0, fmt.Errorf("lock tx has no lock output")
}

func buildLockTransaction(
	maker, taker types.PartyParams, lockScript []byte, lockValue btcutil.Amount,
	dust uint64, net *chaincfg.Params,
) (*psbt.Packet, error) {
	lockPkScript, err := script.P2WSH(lockScript)
	if err != nil {
		return nil, err
	}

	inputs := sortFundingInputs(
		append(
			append([]types.FundingInput{}, maker.FundingInputs...),
			taker.FundingInputs...,
		),
	)
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no funding inputs")
	}

	outpoints := make([]*wire.OutPoint, 0, len(inputs))
	sequences := make([]uint32, 0, len(inputs))
	for _, in := range inputs {
		outpoint, err := outpointFromTypes(in.Outpoint)
		if err != nil {
			return nil, err
		}
		outpoints = append(outpoints, outpoint)
		sequences = append(sequences, wire.MaxTxInSequenceNum)
	}

	outputs := []*wire.TxOut{{
		Value:    int64(lockValue),
		PkScript: lockPkScript,
	}}

	changes := make([]*wire.TxOut, 0, 2)
	for _, party := range []types.PartyParams{maker, taker} {
		if party.ChangeAmount == 0 {
			continue
		}
		pkScript, err := addressToPkScript(party.ChangeAddress, net)
		if err != nil {
			return nil, err
		}
		change := &wire.TxOut{Value: int64(party.ChangeAmount), PkScript: pkScript}
		if isDust(change, dust) {
			continue
		}
		changes = append(changes, change)
	}
	sortChangeOutputs(changes)
	outputs = append(outputs, changes...)

	packet, err := psbt.New(outpoints, outputs, 2, 0, sequences)
	if err != nil {
		return nil, err
	}

	// Attach the spent outputs so wallets can sign their inputs.
	for i, in := range inputs {
		packet.Inputs[i].WitnessUtxo = &wire.TxOut{
			Value:    int64(in.Amount),
			PkScript: in.PkScript,
		}
	}

	return packet, nil
}

func buildContractTransactions(
	lockPacket *psbt.Packet, lockOutpoint wire.OutPoint,
	lockScript []byte, lockValue btcutil.Amount,
	maker types.PartyParams, makerPunish types.PunishParams,
	taker types.PartyParams, takerPunish types.PunishParams,
	oracleParams types.OracleParams, payouts []types.Payout,
	refundTimelock, cetCsvDelay uint32,
	identitySk *btcec.PrivateKey, feeRatePerVb, dust uint64,
	net *chaincfg.Params,
) (*CfdTransactions, error) {
	if len(payouts) == 0 {
		return nil, fmt.Errorf("no payouts")
	}
	for _, payout := range payouts {
		if payout.MakerAmount+payout.TakerAmount != lockValue {
			return nil, fmt.Errorf(
				"payout for outcome %x does not split the locked amount: %d + %d != %d",
				payout.Outcome, payout.MakerAmount, payout.TakerAmount, lockValue,
			)
		}
	}

	ownPk := identitySk.PubKey()
	var counterpartyPublishPk *btcec.PublicKey
	switch {
	case ownPk.IsEqual(maker.IdentityPk):
		counterpartyPublishPk = takerPunish.PublishPk
	case ownPk.IsEqual(taker.IdentityPk):
		counterpartyPublishPk = makerPunish.PublishPk
	default:
		return nil, fmt.Errorf("identity key does not belong to either party")
	}

	// All six script keys must be distinct: a shared key collapses a
	// commit branch or lets one party compute the other's punish secret.
	scriptKeys := []*btcec.PublicKey{
		maker.IdentityPk, taker.IdentityPk,
		makerPunish.RevocationPk, makerPunish.PublishPk,
		takerPunish.RevocationPk, takerPunish.PublishPk,
	}
	for i := range scriptKeys {
		for j := i + 1; j < len(scriptKeys); j++ {
			if scriptKeys[i].IsEqual(scriptKeys[j]) {
				return nil, &script.DegenerateKeysError{
					Key: fmt.Sprintf("%x", scriptKeys[i].SerializeCompressed()),
				}
			}
		}
	}

	makerPunishPk, err := script.CombinePubKeys(
		makerPunish.RevocationPk, makerPunish.PublishPk,
	)
	if err != nil {
		return nil, err
	}
	takerPunishPk, err := script.CombinePubKeys(
		takerPunish.RevocationPk, takerPunish.PublishPk,
	)
	if err != nil {
		return nil, err
	}

	commitScript, err := script.Commit(
		maker.IdentityPk, taker.IdentityPk, makerPunishPk, takerPunishPk,
	)
	if err != nil {
		return nil, err
	}
	commitPkScript, err := script.P2WSH(commitScript)
	if err != nil {
		return nil, err
	}

	commitFeeAmt := commitTxFee(feeRatePerVb)
	if lockValue <= commitFeeAmt {
		return nil, FeePolicyViolationError{
			Party: "maker and taker", Available: lockValue, Required: commitFeeAmt,
		}
	}
	commitValue := lockValue - commitFeeAmt

	commitTx := wire.NewMsgTx(2)
	commitTx.AddTxIn(wire.NewTxIn(&lockOutpoint, nil, nil))
	commitTx.AddTxOut(wire.NewTxOut(int64(commitValue), commitPkScript))

	commitOutpoint := wire.OutPoint{Hash: commitTx.TxHash(), Index: 0}

	makerPayoutScript, err := addressToPkScript(maker.PayoutAddress, net)
	if err != nil {
		return nil, err
	}
	takerPayoutScript, err := addressToPkScript(taker.PayoutAddress, net)
	if err != nil {
		return nil, err
	}

	refundTx := wire.NewMsgTx(2)
	refundIn := wire.NewTxIn(&commitOutpoint, nil, nil)
	// Signal the absolute locktime without opting into full RBF semantics.
	refundIn.Sequence = wire.MaxTxInSequenceNum - 1
	refundTx.AddTxIn(refundIn)
	refundTx.LockTime = refundTimelock

	makerRefund, takerRefund, err := splitFee(
		maker.LockAmount, taker.LockAmount, commitFeeAmt+refundTxFee(feeRatePerVb),
	)
	if err != nil {
		return nil, err
	}
	addPayoutOutputs(refundTx, makerRefund, takerRefund, makerPayoutScript, takerPayoutScript, dust)

	cets := make([]Cet, 0, len(payouts))
	for _, payout := range payouts {
		cetTx := wire.NewMsgTx(2)
		cetIn := wire.NewTxIn(&commitOutpoint, nil, nil)
		cetIn.Sequence = cetCsvDelay
		cetTx.AddTxIn(cetIn)

		makerOut, takerOut, err := splitFee(
			payout.MakerAmount, payout.TakerAmount, commitFeeAmt+cetFee(feeRatePerVb),
		)
		if err != nil {
			return nil, err
		}
		addPayoutOutputs(cetTx, makerOut, takerOut, makerPayoutScript, takerPayoutScript, dust)

		cets = append(cets, Cet{Tx: cetTx, Outcome: payout.Outcome})
	}

	// Sign our side of the graph.
	commitSigHash, err := spendingTxSigHash(commitTx, lockScript, lockValue)
	if err != nil {
		return nil, err
	}
	commitEncSig, err := adaptor.Encrypt(identitySk, counterpartyPublishPk, commitSigHash)
	if err != nil {
		return nil, err
	}

	refundSigHash, err := spendingTxSigHash(refundTx, commitScript, commitValue)
	if err != nil {
		return nil, err
	}
	refundSig := ecdsa.Sign(identitySk, refundSigHash)

	for i := range cets {
		sigPoint, err := oracle.SignaturePoint(
			oracleParams.Pk, oracleParams.NoncePk, cets[i].Outcome,
		)
		if err != nil {
			return nil, err
		}

		cetSigHash, err := spendingTxSigHash(cets[i].Tx, commitScript, commitValue)
		if err != nil {
			return nil, err
		}
		cets[i].EncSig, err = adaptor.Encrypt(identitySk, sigPoint, cetSigHash)
		if err != nil {
			return nil, err
		}
	}

	return &CfdTransactions{
		Lock:       lockPacket,
		LockScript: lockScript,
		Commit: CommitTransaction{
			Tx:     commitTx,
			Script: commitScript,
			EncSig: commitEncSig,
		},
		Refund: RefundTransaction{
			Tx:  refundTx,
			Sig: refundSig,
		},
		Cets: cets,
	}, nil
}

func addPayoutOutputs(
	tx *wire.MsgTx, makerAmount, takerAmount btcutil.Amount,
	makerScript, takerScript []byte, dust uint64,
) {
	makerOut := wire.NewTxOut(int64(makerAmount), makerScript)
	if makerAmount > 0 && !isDust(makerOut, dust) {
		tx.AddTxOut(makerOut)
	}
	takerOut := wire.NewTxOut(int64(takerAmount), takerScript)
	if takerAmount > 0 && !isDust(takerOut, dust) {
		tx.AddTxOut(takerOut)
	}
}
