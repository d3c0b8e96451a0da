package store

import (
	"context"
	"database/sql"
	"fmt"

	filestore "github.com/cfd-protocol/go-sdk/store/file"
	inmemorystore "github.com/cfd-protocol/go-sdk/store/inmemory"
	kvstore "github.com/cfd-protocol/go-sdk/store/kv"
	sqlstore "github.com/cfd-protocol/go-sdk/store/sql"
	"github.com/cfd-protocol/go-sdk/types"
	"github.com/dgraph-io/badger/v4"
)

// Config selects the backends for the two repositories of the SDK: the
// config store holding the static contract parameters and the contract
// store holding contracts and their revocable versions.
type Config struct {
	ConfigStoreType   string
	ContractStoreType string

	BaseDir string
}

type service struct {
	configStore   types.ConfigStore
	contractStore types.ContractStore
}

func NewStore(storeConfig Config) (types.Store, error) {
	var (
		configStore   types.ConfigStore
		contractStore types.ContractStore
		err           error

		dir = storeConfig.BaseDir
	)

	switch storeConfig.ConfigStoreType {
	case types.InMemoryStore:
		configStore, err = inmemorystore.NewConfigStore()
	case types.FileStore:
		configStore, err = filestore.NewConfigStore(dir)
	default:
		err = fmt.Errorf("unknown config store type '%s'", storeConfig.ConfigStoreType)
	}
	if err != nil {
		return nil, err
	}

	switch storeConfig.ContractStoreType {
	case "":
		// contract store is optional, nothing to do
	case types.InMemoryStore:
		contractStore, err = inmemorystore.NewContractStore()
	case types.KVStore:
		var logger badger.Logger
		contractStore, err = kvstore.NewContractStore(dir, logger)
	case types.SQLStore:
		var db *sql.DB
		db, err = sqlstore.OpenDb(dir)
		if err == nil {
			contractStore = sqlstore.NewContractStore(db)
		}
	default:
		err = fmt.Errorf(
			"unknown contract store type '%s'", storeConfig.ContractStoreType,
		)
	}
	if err != nil {
		return nil, err
	}

	return &service{configStore, contractStore}, nil
}

func (s *service) ConfigStore() types.ConfigStore {
	return s.configStore
}

func (s *service) ContractStore() types.ContractStore {
	return s.contractStore
}

func (s *service) Clean(ctx context.Context) {
	// nolint:errcheck
	s.configStore.CleanData(ctx)
	if s.contractStore != nil {
		// nolint:errcheck
		s.contractStore.Clean(ctx)
	}
}

func (s *service) Close() {
	s.configStore.Close()
	if s.contractStore != nil {
		s.contractStore.Close()
	}
}
