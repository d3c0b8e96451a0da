package types

import (
	"context"
)

type Store interface {
	ConfigStore() ConfigStore
	ContractStore() ContractStore
	Clean(ctx context.Context)
	Close()
}

type ConfigStore interface {
	GetType() string
	GetDatadir() string
	AddData(ctx context.Context, data Config) error
	GetData(ctx context.Context) (*Config, error)
	CleanData(ctx context.Context) error
	Close()
}

type ContractStore interface {
	AddContracts(ctx context.Context, contracts []Contract) (int, error)
	GetContract(ctx context.Context, id string) (*Contract, error)
	GetAllContracts(ctx context.Context) ([]Contract, error)
	AddVersions(ctx context.Context, versions []ContractVersion) (int, error)
	RevokeVersions(
		ctx context.Context, secrets map[string][]byte,
	) (int, error)
	GetCurrentVersion(ctx context.Context, contractID string) (*ContractVersion, error)
	GetVersions(ctx context.Context, contractID string) ([]ContractVersion, error)
	Clean(ctx context.Context) error
	GetEventChannel() <-chan ContractEvent
	Close()
}
