package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
)

const (
	InMemoryStore = "inmemory"
	FileStore     = "file"
	KVStore       = "kv"
	SQLStore      = "sql"
)

type Config struct {
	Network        string
	WalletType     string
	RefundTimelock uint32
	CetCsvDelay    uint32
	FeeRatePerVb   uint64
	Dust           uint64
}

type Outpoint struct {
	Txid string
	VOut uint32
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.Txid, o.VOut)
}

// FundingInput is a confirmed coin a party contributes to the lock
// transaction. The PkScript is the previous output's script, needed to
// sign the lock input.
type FundingInput struct {
	Outpoint
	Amount   btcutil.Amount
	PkScript []byte
}

// PartyParams carries everything one side of the contract commits to the
// transaction graph: the identity key used in the multisig scripts, the
// coins funding its share of the lock output and where change and payouts
// should go.
type PartyParams struct {
	IdentityPk    *btcec.PublicKey
	LockAmount    btcutil.Amount
	FundingInputs []FundingInput
	ChangeAddress string
	ChangeAmount  btcutil.Amount
	PayoutAddress string
}

// PunishParams holds the per-version keys protecting a party against the
// counterparty broadcasting a revoked commit transaction. Both keys are
// rotated on every renewal.
type PunishParams struct {
	RevocationPk *btcec.PublicKey
	PublishPk    *btcec.PublicKey
}

// OracleParams identifies the oracle event the contract settles on: the
// oracle's static key and the nonce it announced for the event.
type OracleParams struct {
	Pk      *btcec.PublicKey
	NoncePk *btcec.PublicKey
}

// Payout maps one outcome the oracle may attest to the amounts each party
// receives. Outcome is the raw message the oracle signs.
type Payout struct {
	Outcome     []byte
	MakerAmount btcutil.Amount
	TakerAmount btcutil.Amount
}

func (p Payout) String() string {
	return fmt.Sprintf(
		"outcome=%x maker=%d taker=%d", p.Outcome, p.MakerAmount, p.TakerAmount,
	)
}

// Contract is the persisted view of an open CFD.
type Contract struct {
	ID          string
	MakerPk     string
	TakerPk     string
	LockTxid    string
	LockAmount  uint64
	RefundAfter uint32
	CreatedAt   time.Time
}

func (c Contract) String() string {
	// nolint
	b, _ := json.MarshalIndent(c, "", "  ")
	return string(b)
}

// ContractVersion is one generation of the revocable part of the graph.
// Rolling the contract over creates a new version with fresh punish keys;
// revoking an old version stores the counterparty's disclosed revocation
// secret so the punish transaction can be built if the old commit ever
// confirms.
type ContractVersion struct {
	ContractID        string
	Number            uint32
	CommitTxid        string
	MakerRevocationPk []byte
	MakerPublishPk    []byte
	TakerRevocationPk []byte
	TakerPublishPk    []byte
	Revoked           bool
	RevocationSecret  []byte
	CreatedAt         time.Time
}

func (v ContractVersion) Key() string {
	return fmt.Sprintf("%s:%d", v.ContractID, v.Number)
}

type ContractEventType int

const (
	ContractsAdded ContractEventType = iota
	ContractVersionsAdded
	ContractVersionsRevoked
)

func (e ContractEventType) String() string {
	return map[ContractEventType]string{
		ContractsAdded:          "CONTRACTS_ADDED",
		ContractVersionsAdded:   "CONTRACT_VERSIONS_ADDED",
		ContractVersionsRevoked: "CONTRACT_VERSIONS_REVOKED",
	}[e]
}

type ContractEvent struct {
	Type      ContractEventType
	Contracts []Contract
	Versions  []ContractVersion
}
