package cfdsdk

import (
	"context"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"

	"github.com/cfd-protocol/go-sdk/types"
)

var Version string

// CfdClient ties the pure protocol functions to a wallet and a store. It
// covers the life of a contract on one side of the channel: building and
// signing the transaction graph, verifying the counterparty's signatures,
// rolling the contract over and punishing a revoked commit transaction.
type CfdClient interface {
	GetVersion() string
	GetConfigData(ctx context.Context) (*types.Config, error)
	Init(ctx context.Context, args InitArgs) error
	InitWithWallet(ctx context.Context, args InitWithWalletArgs) error
	IsLocked(ctx context.Context) bool
	Unlock(ctx context.Context, password string) error
	Lock(ctx context.Context) error
	PubKey(ctx context.Context) (string, error)
	NewAddress(ctx context.Context) (string, error)
	BuildPartyParams(
		ctx context.Context, lockAmount uint64, utxos []types.FundingInput,
	) (*types.PartyParams, error)
	OpenContract(ctx context.Context, args OpenContractArgs) (*CfdTransactions, error)
	RolloverContract(
		ctx context.Context, args RolloverContractArgs,
	) (*CfdTransactions, error)
	VerifyContractSignatures(
		ctx context.Context, contract *CfdTransactions,
		counterpartyPk string, ownPublishPk string,
		oracleParams types.OracleParams, sigs SignatureSet,
	) error
	SignLockTransaction(ctx context.Context, packet *psbt.Packet) (int, error)
	RevokeVersion(
		ctx context.Context, contractID string, number uint32, secret []byte,
	) error
	Punish(ctx context.Context, args PunishArgs) (*wire.MsgTx, error)
	ListContracts(ctx context.Context) ([]types.Contract, error)
	GetContractVersions(
		ctx context.Context, contractID string,
	) ([]types.ContractVersion, error)
	GetContractEventChannel(ctx context.Context) <-chan types.ContractEvent
	Dump(ctx context.Context) (seed string, err error)
	Reset(ctx context.Context)
	Stop()
}
