package wallet

import (
	"context"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"

	"github.com/cfd-protocol/go-sdk/types"
)

const (
	SingleKeyWallet = "singlekey"
)

// WalletService manages the identity key of one party. The CFD protocol
// signs with the identity key directly (plain and adaptor signatures), so
// an unlocked wallet exposes it to the client.
type WalletService interface {
	GetType() string
	Create(ctx context.Context, password, seed string) (walletSeed string, err error)
	Lock(ctx context.Context) (err error)
	Unlock(ctx context.Context, password string) (alreadyUnlocked bool, err error)
	IsLocked() bool
	PubKey(ctx context.Context) (*btcec.PublicKey, error)
	PrivateKey(ctx context.Context) (*btcec.PrivateKey, error)
	NewAddress(ctx context.Context) (string, error)
	BuildPartyParams(
		ctx context.Context, lockAmount btcutil.Amount, utxos []types.FundingInput,
	) (*types.PartyParams, error)
	SignPsbt(ctx context.Context, packet *psbt.Packet) (signedInputs int, err error)
	Dump(ctx context.Context) (seed string, err error)
}
