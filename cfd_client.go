package cfdsdk

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"

	"github.com/cfd-protocol/go-sdk/adaptor"
	"github.com/cfd-protocol/go-sdk/internal/utils"
	"github.com/cfd-protocol/go-sdk/types"
	"github.com/cfd-protocol/go-sdk/wallet"
	singlekeywallet "github.com/cfd-protocol/go-sdk/wallet/singlekey"
	walletstore "github.com/cfd-protocol/go-sdk/wallet/singlekey/store"
)

// InitArgs configures a fresh client: the network and protocol
// parameters shared by every contract, plus the wallet to create.
type InitArgs struct {
	WalletType     string
	Network        string
	Password       string
	Seed           string
	RefundTimelock uint32
	CetCsvDelay    uint32
	FeeRatePerVb   uint64
	Dust           uint64
}

type InitWithWalletArgs struct {
	Network        string
	Password       string
	Seed           string
	RefundTimelock uint32
	CetCsvDelay    uint32
	FeeRatePerVb   uint64
	Dust           uint64
	Wallet         wallet.WalletService
}

// OpenContractArgs carries both parties' side of a new contract. The
// wallet's key must be the identity key of either the maker or the
// taker.
type OpenContractArgs struct {
	Maker       types.PartyParams
	MakerPunish types.PunishParams
	Taker       types.PartyParams
	TakerPunish types.PunishParams
	Oracle      types.OracleParams
	Payouts     []types.Payout
}

// RolloverContractArgs rebuilds the revocable part of an open contract
// with fresh punish keys and payouts, on top of its existing lock
// transaction.
type RolloverContractArgs struct {
	ContractID  string
	LockTx      *psbt.Packet
	Maker       types.PartyParams
	MakerPunish types.PunishParams
	Taker       types.PartyParams
	TakerPunish types.PunishParams
	Oracle      types.OracleParams
	Payouts     []types.Payout
}

// PunishArgs identifies a revoked commit transaction observed on-chain
// and the disclosed secrets needed to sweep it.
type PunishArgs struct {
	CommitScript             []byte
	DestinationAddress       string
	OwnCommitEncSig          *adaptor.Signature
	CounterpartyRevocationSk *btcec.PrivateKey
	CounterpartyPublishPk    *btcec.PublicKey
	RevokedCommitTx          *wire.MsgTx
}

type cfdClient struct {
	*types.Config
	wallet wallet.WalletService
	store  types.Store

	withoutContractStore bool
}

func NewCfdClient(sdkStore types.Store, opts ...ClientOption) (CfdClient, error) {
	if sdkStore == nil {
		return nil, fmt.Errorf("missing sdk repository")
	}

	cfgData, err := sdkStore.ConfigStore().GetData(context.Background())
	if err != nil {
		return nil, err
	}
	if cfgData != nil {
		return nil, ErrAlreadyInitialized
	}

	client := &cfdClient{store: sdkStore}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func LoadCfdClient(sdkStore types.Store, opts ...ClientOption) (CfdClient, error) {
	if sdkStore == nil {
		return nil, fmt.Errorf("missing sdk repository")
	}

	cfgData, err := sdkStore.ConfigStore().GetData(context.Background())
	if err != nil {
		return nil, err
	}
	if cfgData == nil {
		return nil, ErrNotInitialized
	}

	walletSvc, err := getWallet(sdkStore.ConfigStore(), cfgData)
	if err != nil {
		return nil, fmt.Errorf("failed to setup wallet: %s", err)
	}

	client := &cfdClient{
		Config: cfgData,
		wallet: walletSvc,
		store:  sdkStore,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func LoadCfdClientWithWallet(
	sdkStore types.Store, walletSvc wallet.WalletService, opts ...ClientOption,
) (CfdClient, error) {
	if sdkStore == nil {
		return nil, fmt.Errorf("missing sdk repository")
	}
	if walletSvc == nil {
		return nil, fmt.Errorf("missing wallet service")
	}

	cfgData, err := sdkStore.ConfigStore().GetData(context.Background())
	if err != nil {
		return nil, err
	}
	if cfgData == nil {
		return nil, ErrNotInitialized
	}

	client := &cfdClient{
		Config: cfgData,
		wallet: walletSvc,
		store:  sdkStore,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func (a *cfdClient) GetVersion() string {
	return Version
}

func (a *cfdClient) GetConfigData(ctx context.Context) (*types.Config, error) {
	if a.Config == nil {
		return nil, fmt.Errorf("client sdk not initialized")
	}
	return a.Config, nil
}

func (a *cfdClient) Init(ctx context.Context, args InitArgs) error {
	if len(args.Password) == 0 {
		return fmt.Errorf("missing password")
	}
	if net := utils.ToBitcoinNetwork(args.Network); net.Name != args.Network {
		return fmt.Errorf("unknown network '%s'", args.Network)
	}

	walletType := args.WalletType
	if walletType == "" {
		walletType = wallet.SingleKeyWallet
	}
	feeRate := args.FeeRatePerVb
	if feeRate == 0 {
		feeRate = DefaultFeeRatePerVb
	}
	dust := args.Dust
	if dust == 0 {
		dust = defaultDustLimit
	}

	cfgData := types.Config{
		Network:        args.Network,
		WalletType:     walletType,
		RefundTimelock: args.RefundTimelock,
		CetCsvDelay:    args.CetCsvDelay,
		FeeRatePerVb:   feeRate,
		Dust:           dust,
	}
	if err := a.store.ConfigStore().AddData(ctx, cfgData); err != nil {
		return err
	}

	walletSvc, err := getWallet(a.store.ConfigStore(), &cfgData)
	if err != nil {
		// nolint:errcheck
		a.store.ConfigStore().CleanData(ctx)
		return fmt.Errorf("failed to setup wallet: %s", err)
	}

	if _, err := walletSvc.Create(ctx, args.Password, args.Seed); err != nil {
		// nolint:errcheck
		a.store.ConfigStore().CleanData(ctx)
		return err
	}
	if _, err := walletSvc.Unlock(ctx, args.Password); err != nil {
		// nolint:errcheck
		a.store.ConfigStore().CleanData(ctx)
		return err
	}

	a.Config = &cfgData
	a.wallet = walletSvc
	return nil
}

func (a *cfdClient) InitWithWallet(ctx context.Context, args InitWithWalletArgs) error {
	if args.Wallet == nil {
		return fmt.Errorf("missing wallet service")
	}
	if len(args.Password) == 0 {
		return fmt.Errorf("missing password")
	}
	if net := utils.ToBitcoinNetwork(args.Network); net.Name != args.Network {
		return fmt.Errorf("unknown network '%s'", args.Network)
	}

	feeRate := args.FeeRatePerVb
	if feeRate == 0 {
		feeRate = DefaultFeeRatePerVb
	}
	dust := args.Dust
	if dust == 0 {
		dust = defaultDustLimit
	}

	cfgData := types.Config{
		Network:        args.Network,
		WalletType:     args.Wallet.GetType(),
		RefundTimelock: args.RefundTimelock,
		CetCsvDelay:    args.CetCsvDelay,
		FeeRatePerVb:   feeRate,
		Dust:           dust,
	}
	if err := a.store.ConfigStore().AddData(ctx, cfgData); err != nil {
		return err
	}

	if _, err := args.Wallet.Create(ctx, args.Password, args.Seed); err != nil {
		// nolint:errcheck
		a.store.ConfigStore().CleanData(ctx)
		return err
	}
	if _, err := args.Wallet.Unlock(ctx, args.Password); err != nil {
		// nolint:errcheck
		a.store.ConfigStore().CleanData(ctx)
		return err
	}

	a.Config = &cfgData
	a.wallet = args.Wallet
	return nil
}

func (a *cfdClient) IsLocked(ctx context.Context) bool {
	if a.wallet == nil {
		return true
	}
	return a.wallet.IsLocked()
}

func (a *cfdClient) Unlock(ctx context.Context, password string) error {
	if a.wallet == nil {
		return ErrNotInitialized
	}
	_, err := a.wallet.Unlock(ctx, password)
	return err
}

func (a *cfdClient) Lock(ctx context.Context) error {
	if a.wallet == nil {
		return ErrNotInitialized
	}
	return a.wallet.Lock(ctx)
}

func (a *cfdClient) PubKey(ctx context.Context) (string, error) {
	if a.wallet == nil {
		return "", ErrNotInitialized
	}
	pubkey, err := a.wallet.PubKey(ctx)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(pubkey.SerializeCompressed()), nil
}

func (a *cfdClient) NewAddress(ctx context.Context) (string, error) {
	if err := a.safeCheck(); err != nil {
		return "", err
	}
	return a.wallet.NewAddress(ctx)
}

func (a *cfdClient) BuildPartyParams(
	ctx context.Context, lockAmount uint64, utxos []types.FundingInput,
) (*types.PartyParams, error) {
	if err := a.safeCheck(); err != nil {
		return nil, err
	}
	return a.wallet.BuildPartyParams(ctx, btcutil.Amount(lockAmount), utxos)
}

func (a *cfdClient) OpenContract(
	ctx context.Context, args OpenContractArgs,
) (*CfdTransactions, error) {
	if err := a.safeCheck(); err != nil {
		return nil, err
	}

	identitySk, err := a.wallet.PrivateKey(ctx)
	if err != nil {
		return nil, err
	}

	contract, err := CreateCfdTransactions(
		args.Maker, args.MakerPunish, args.Taker, args.TakerPunish,
		args.Oracle, args.Payouts, a.RefundTimelock, a.CetCsvDelay,
		identitySk, a.FeeRatePerVb, a.Dust, utils.ToBitcoinNetwork(a.Network),
	)
	if err != nil {
		return nil, err
	}

	lockTxid := contract.Lock.UnsignedTx.TxHash().String()
	log.Debugf("built contract %s with %d cets", lockTxid, len(contract.Cets))

	if err := a.saveContract(ctx, lockTxid, args, contract, 0); err != nil {
		return nil, err
	}

	return contract, nil
}

func (a *cfdClient) RolloverContract(
	ctx context.Context, args RolloverContractArgs,
) (*CfdTransactions, error) {
	if err := a.safeCheck(); err != nil {
		return nil, err
	}
	if args.LockTx == nil {
		return nil, fmt.Errorf("missing lock tx")
	}

	identitySk, err := a.wallet.PrivateKey(ctx)
	if err != nil {
		return nil, err
	}

	contract, err := RenewCfdTransactions(
		args.LockTx,
		args.Maker, args.MakerPunish, args.Taker, args.TakerPunish,
		args.Oracle, args.Payouts, a.RefundTimelock, a.CetCsvDelay,
		identitySk, a.FeeRatePerVb, a.Dust, utils.ToBitcoinNetwork(a.Network),
	)
	if err != nil {
		return nil, err
	}

	if a.contractStore() != nil && args.ContractID != "" {
		current, err := a.contractStore().GetCurrentVersion(ctx, args.ContractID)
		if err != nil {
			return nil, err
		}
		number := uint32(0)
		if current != nil {
			number = current.Number + 1
		}
		version := newContractVersion(args.ContractID, number, contract, OpenContractArgs{
			MakerPunish: args.MakerPunish, TakerPunish: args.TakerPunish,
		})
		if _, err := a.contractStore().AddVersions(
			ctx, []types.ContractVersion{version},
		); err != nil {
			return nil, err
		}
		log.Debugf("rolled contract %s over to version %d", args.ContractID, number)
	}

	return contract, nil
}

func (a *cfdClient) VerifyContractSignatures(
	ctx context.Context, contract *CfdTransactions,
	counterpartyPk string, ownPublishPk string,
	oracleParams types.OracleParams, sigs SignatureSet,
) error {
	otherPk, err := ecPubkeyFromHex(counterpartyPk)
	if err != nil {
		return fmt.Errorf("invalid counterparty pubkey: %s", err)
	}
	publishPk, err := ecPubkeyFromHex(ownPublishPk)
	if err != nil {
		return fmt.Errorf("invalid publish pubkey: %s", err)
	}
	return contract.VerifySignatures(otherPk, publishPk, oracleParams, sigs)
}

func (a *cfdClient) SignLockTransaction(
	ctx context.Context, packet *psbt.Packet,
) (int, error) {
	if err := a.safeCheck(); err != nil {
		return 0, err
	}
	return a.wallet.SignPsbt(ctx, packet)
}

// RevokeVersion records the revocation secret the counterparty disclosed
// for a superseded contract version. The secret must match the
// revocation key the counterparty committed to in that version.
func (a *cfdClient) RevokeVersion(
	ctx context.Context, contractID string, number uint32, secret []byte,
) error {
	if a.contractStore() == nil {
		return fmt.Errorf("no contract store configured")
	}
	if err := a.safeCheck(); err != nil {
		return err
	}

	contract, err := a.contractStore().GetContract(ctx, contractID)
	if err != nil {
		return err
	}
	if contract == nil {
		return fmt.Errorf("contract %s not found", contractID)
	}

	versions, err := a.contractStore().GetVersions(ctx, contractID)
	if err != nil {
		return err
	}
	var version *types.ContractVersion
	for i := range versions {
		if versions[i].Number == number {
			version = &versions[i]
			break
		}
	}
	if version == nil {
		return fmt.Errorf("version %d of contract %s not found", number, contractID)
	}

	ownPk, err := a.PubKey(ctx)
	if err != nil {
		return err
	}
	counterpartyRevocationPk := version.TakerRevocationPk
	if ownPk == contract.TakerPk {
		counterpartyRevocationPk = version.MakerRevocationPk
	}

	revSk, revPk := btcec.PrivKeyFromBytes(secret)
	if revSk.Key.IsZero() ||
		!bytes.Equal(revPk.SerializeCompressed(), counterpartyRevocationPk) {
		return fmt.Errorf(
			"revocation secret does not match version %d of contract %s",
			number, contractID,
		)
	}

	revoked, err := a.contractStore().RevokeVersions(
		ctx, map[string][]byte{version.Key(): secret},
	)
	if err != nil {
		return err
	}
	if revoked == 0 {
		return fmt.Errorf(
			"version %d of contract %s already revoked", number, contractID,
		)
	}
	log.Debugf("revoked version %d of contract %s", number, contractID)
	return nil
}

func (a *cfdClient) Punish(
	ctx context.Context, args PunishArgs,
) (*wire.MsgTx, error) {
	if err := a.safeCheck(); err != nil {
		return nil, err
	}

	identitySk, err := a.wallet.PrivateKey(ctx)
	if err != nil {
		return nil, err
	}

	return PunishTransaction(
		args.CommitScript, args.DestinationAddress,
		args.OwnCommitEncSig, identitySk,
		args.CounterpartyRevocationSk, args.CounterpartyPublishPk,
		args.RevokedCommitTx,
		a.FeeRatePerVb, a.Dust, utils.ToBitcoinNetwork(a.Network),
	)
}

func (a *cfdClient) ListContracts(ctx context.Context) ([]types.Contract, error) {
	if a.contractStore() == nil {
		return nil, fmt.Errorf("no contract store configured")
	}
	return a.contractStore().GetAllContracts(ctx)
}

func (a *cfdClient) GetContractVersions(
	ctx context.Context, contractID string,
) ([]types.ContractVersion, error) {
	if a.contractStore() == nil {
		return nil, fmt.Errorf("no contract store configured")
	}
	return a.contractStore().GetVersions(ctx, contractID)
}

func (a *cfdClient) GetContractEventChannel(
	ctx context.Context,
) <-chan types.ContractEvent {
	if a.contractStore() == nil {
		return nil
	}
	return a.contractStore().GetEventChannel()
}

func (a *cfdClient) Dump(ctx context.Context) (string, error) {
	if err := a.safeCheck(); err != nil {
		return "", err
	}
	return a.wallet.Dump(ctx)
}

func (a *cfdClient) Reset(ctx context.Context) {
	a.store.Clean(ctx)
	a.Config = nil
}

func (a *cfdClient) Stop() {
	if a.wallet != nil {
		// nolint:errcheck
		a.wallet.Lock(context.Background())
	}
	a.store.Close()
}

func (a *cfdClient) safeCheck() error {
	if a.Config == nil || a.wallet == nil {
		return ErrNotInitialized
	}
	if a.wallet.IsLocked() {
		return fmt.Errorf("wallet is locked")
	}
	return nil
}

func (a *cfdClient) contractStore() types.ContractStore {
	if a.withoutContractStore {
		return nil
	}
	return a.store.ContractStore()
}

func (a *cfdClient) saveContract(
	ctx context.Context, contractID string,
	args OpenContractArgs, contract *CfdTransactions, number uint32,
) error {
	if a.contractStore() == nil {
		return nil
	}

	lockValue, err := contract.lockOutputValue()
	if err != nil {
		return err
	}

	record := types.Contract{
		ID:          contractID,
		MakerPk:     hex.EncodeToString(args.Maker.IdentityPk.SerializeCompressed()),
		TakerPk:     hex.EncodeToString(args.Taker.IdentityPk.SerializeCompressed()),
		LockTxid:    contract.Lock.UnsignedTx.TxHash().String(),
		LockAmount:  uint64(lockValue),
		RefundAfter: a.RefundTimelock,
		CreatedAt:   time.Now(),
	}
	if _, err := a.contractStore().AddContracts(
		ctx, []types.Contract{record},
	); err != nil {
		return err
	}

	version := newContractVersion(contractID, number, contract, args)
	if _, err := a.contractStore().AddVersions(
		ctx, []types.ContractVersion{version},
	); err != nil {
		return err
	}
	return nil
}

func newContractVersion(
	contractID string, number uint32,
	contract *CfdTransactions, args OpenContractArgs,
) types.ContractVersion {
	return types.ContractVersion{
		ContractID:        contractID,
		Number:            number,
		CommitTxid:        contract.Commit.Tx.TxHash().String(),
		MakerRevocationPk: args.MakerPunish.RevocationPk.SerializeCompressed(),
		MakerPublishPk:    args.MakerPunish.PublishPk.SerializeCompressed(),
		TakerRevocationPk: args.TakerPunish.RevocationPk.SerializeCompressed(),
		TakerPublishPk:    args.TakerPunish.PublishPk.SerializeCompressed(),
		CreatedAt:         time.Now(),
	}
}

func getWallet(
	configStore types.ConfigStore, data *types.Config,
) (wallet.WalletService, error) {
	switch data.WalletType {
	case wallet.SingleKeyWallet:
		return getSingleKeyWallet(configStore)
	default:
		return nil, fmt.Errorf("unsupported wallet type '%s'", data.WalletType)
	}
}

func getSingleKeyWallet(
	configStore types.ConfigStore,
) (wallet.WalletService, error) {
	walletStore, err := getWalletStore(
		configStore.GetType(), configStore.GetDatadir(),
	)
	if err != nil {
		return nil, err
	}
	return singlekeywallet.NewWallet(configStore, walletStore)
}

func getWalletStore(
	storeType, datadir string,
) (walletstore.WalletStore, error) {
	switch storeType {
	case types.InMemoryStore:
		return walletstore.NewInMemoryWalletStore()
	case types.FileStore:
		return walletstore.NewFileWalletStore(datadir)
	default:
		return nil, fmt.Errorf("unknown wallet store type '%s'", storeType)
	}
}
