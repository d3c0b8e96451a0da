// Package singlekeywallet provides a minimal wallet backed by a single
// secp256k1 key, encrypted at rest with a password. Funding inputs are
// expected to pay to the key's P2WPKH address.
package singlekeywallet

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/cfd-protocol/go-sdk/internal/utils"
	"github.com/cfd-protocol/go-sdk/types"
	"github.com/cfd-protocol/go-sdk/wallet"
	walletstore "github.com/cfd-protocol/go-sdk/wallet/singlekey/store"
)

type singlekeyWallet struct {
	configStore types.ConfigStore
	walletStore walletstore.WalletStore

	mu      sync.Mutex
	privKey *btcec.PrivateKey
}

func NewWallet(
	configStore types.ConfigStore, walletStore walletstore.WalletStore,
) (wallet.WalletService, error) {
	if configStore == nil {
		return nil, fmt.Errorf("missing config store")
	}
	if walletStore == nil {
		return nil, fmt.Errorf("missing wallet store")
	}
	return &singlekeyWallet{
		configStore: configStore,
		walletStore: walletStore,
	}, nil
}

func (w *singlekeyWallet) GetType() string {
	return wallet.SingleKeyWallet
}

func (w *singlekeyWallet) Create(
	_ context.Context, password, seed string,
) (string, error) {
	if len(password) == 0 {
		return "", fmt.Errorf("missing password")
	}

	var privKey *btcec.PrivateKey
	if len(seed) > 0 {
		buf, err := hex.DecodeString(seed)
		if err != nil {
			return "", fmt.Errorf("invalid seed: %s", err)
		}
		privKey, _ = btcec.PrivKeyFromBytes(buf)
	} else {
		var err error
		privKey, err = utils.GenerateRandomPrivateKey()
		if err != nil {
			return "", err
		}
	}

	encrypted, err := utils.EncryptAES256(privKey.Serialize(), []byte(password))
	if err != nil {
		return "", err
	}

	if err := w.walletStore.AddWallet(walletstore.WalletData{
		EncryptedPrvkey: encrypted,
		PasswordHash:    utils.HashPassword([]byte(password)),
		PubKey:          privKey.PubKey(),
	}); err != nil {
		return "", err
	}

	return hex.EncodeToString(privKey.Serialize()), nil
}

func (w *singlekeyWallet) Lock(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.privKey = nil
	return nil
}

func (w *singlekeyWallet) Unlock(
	_ context.Context, password string,
) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.privKey != nil {
		return true, nil
	}

	data, err := w.walletStore.GetWallet()
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, fmt.Errorf("wallet not initialized")
	}

	buf, err := utils.DecryptAES256(data.EncryptedPrvkey, []byte(password))
	if err != nil {
		return false, err
	}

	privKey, _ := btcec.PrivKeyFromBytes(buf)
	w.privKey = privKey
	return false, nil
}

func (w *singlekeyWallet) IsLocked() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.privKey == nil
}

func (w *singlekeyWallet) PubKey(_ context.Context) (*btcec.PublicKey, error) {
	data, err := w.walletStore.GetWallet()
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("wallet not initialized")
	}
	return data.PubKey, nil
}

func (w *singlekeyWallet) PrivateKey(_ context.Context) (*btcec.PrivateKey, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.privKey == nil {
		return nil, fmt.Errorf("wallet is locked")
	}
	return w.privKey, nil
}

func (w *singlekeyWallet) NewAddress(ctx context.Context) (string, error) {
	pubkey, err := w.PubKey(ctx)
	if err != nil {
		return "", err
	}

	net, err := w.network(ctx)
	if err != nil {
		return "", err
	}

	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		btcutil.Hash160(pubkey.SerializeCompressed()), net,
	)
	if err != nil {
		return "", err
	}

	return addr.EncodeAddress(), nil
}

// Rough per-party share of the lock transaction weight, used to reserve
// a fee margin when selecting coins.
const lockTxPartyVsize = 150

// BuildPartyParams selects coins out of the given utxo set to cover the
// lock amount plus a fee margin for the lock transaction, and fills the
// party's side of the contract with the wallet's key and address.
func (w *singlekeyWallet) BuildPartyParams(
	ctx context.Context, lockAmount btcutil.Amount, utxos []types.FundingInput,
) (*types.PartyParams, error) {
	if lockAmount <= 0 {
		return nil, fmt.Errorf("missing lock amount")
	}

	pubkey, err := w.PubKey(ctx)
	if err != nil {
		return nil, err
	}
	addr, err := w.NewAddress(ctx)
	if err != nil {
		return nil, err
	}

	data, err := w.configStore.GetData(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("missing config data")
	}
	feeMargin := btcutil.Amount(lockTxPartyVsize * data.FeeRatePerVb)

	sorted := make([]types.FundingInput, len(utxos))
	copy(sorted, utxos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount > sorted[j].Amount
	})

	target := lockAmount + feeMargin
	selected := make([]types.FundingInput, 0, len(sorted))
	var total btcutil.Amount
	for _, utxo := range sorted {
		if total >= target {
			break
		}
		selected = append(selected, utxo)
		total += utxo.Amount
	}
	if total < target {
		return nil, fmt.Errorf(
			"insufficient funds: have %d, need %d", total, target,
		)
	}

	return &types.PartyParams{
		IdentityPk:    pubkey,
		LockAmount:    lockAmount,
		FundingInputs: selected,
		ChangeAddress: addr,
		ChangeAmount:  total - target,
		PayoutAddress: addr,
	}, nil
}

// SignPsbt signs every input paying to the wallet's P2WPKH script and
// finalizes it. Inputs belonging to the counterparty are left untouched.
func (w *singlekeyWallet) SignPsbt(
	ctx context.Context, packet *psbt.Packet,
) (int, error) {
	privKey, err := w.PrivateKey(ctx)
	if err != nil {
		return 0, err
	}

	net, err := w.network(ctx)
	if err != nil {
		return 0, err
	}

	pubkeyHash := btcutil.Hash160(privKey.PubKey().SerializeCompressed())
	addr, err := btcutil.NewAddressWitnessPubKeyHash(pubkeyHash, net)
	if err != nil {
		return 0, err
	}
	ownScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return 0, err
	}

	prevOutputs := make(map[int]*psbt.PInput)
	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i := range packet.Inputs {
		in := &packet.Inputs[i]
		if in.WitnessUtxo == nil {
			continue
		}
		prevOutputs[i] = in
		fetcher.AddPrevOut(
			packet.UnsignedTx.TxIn[i].PreviousOutPoint, in.WitnessUtxo,
		)
	}

	sigHashes := txscript.NewTxSigHashes(packet.UnsignedTx, fetcher)

	signed := 0
	for i, in := range prevOutputs {
		if !bytes.Equal(in.WitnessUtxo.PkScript, ownScript) {
			continue
		}

		witness, err := txscript.WitnessSignature(
			packet.UnsignedTx, sigHashes, i, in.WitnessUtxo.Value,
			in.WitnessUtxo.PkScript, txscript.SigHashAll, privKey, true,
		)
		if err != nil {
			return signed, err
		}

		packet.UnsignedTx.TxIn[i].Witness = witness
		in.FinalScriptWitness, err = serializeWitness(witness)
		if err != nil {
			return signed, err
		}
		signed++
	}

	return signed, nil
}

func (w *singlekeyWallet) Dump(ctx context.Context) (string, error) {
	privKey, err := w.PrivateKey(ctx)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(privKey.Serialize()), nil
}

func serializeWitness(witness wire.TxWitness) ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.WriteVarInt(&buf, 0, uint64(len(witness))); err != nil {
		return nil, err
	}
	for _, item := range witness {
		if err := wire.WriteVarBytes(&buf, 0, item); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (w *singlekeyWallet) network(ctx context.Context) (*chaincfg.Params, error) {
	data, err := w.configStore.GetData(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("missing config data")
	}
	return utils.ToBitcoinNetwork(data.Network), nil
}
