package kvstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cfd-protocol/go-sdk/types"
	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const (
	contractStoreDir = "contracts"
)

type contractStore struct {
	db      *badgerhold.Store
	lock    *sync.Mutex
	eventCh chan types.ContractEvent
}

type contractRecord struct {
	ID          string
	MakerPk     string
	TakerPk     string
	LockTxid    string
	LockAmount  uint64
	RefundAfter uint32
	CreatedAt   time.Time
}

type versionRecord struct {
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

func NewContractStore(dir string, logger badger.Logger) (types.ContractStore, error) {
	if dir != "" {
		dir = filepath.Join(dir, contractStoreDir)
	}
	badgerDb, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open contract store: %s", err)
	}
	return &contractStore{
		db:      badgerDb,
		lock:    &sync.Mutex{},
		eventCh: make(chan types.ContractEvent, 100),
	}, nil
}

func (s *contractStore) AddContracts(
	_ context.Context, contracts []types.Contract,
) (int, error) {
	addedContracts := make([]types.Contract, 0, len(contracts))
	for _, contract := range contracts {
		record := toContractRecord(contract)
		if err := s.db.Insert(contract.ID, &record); err != nil {
			if errors.Is(err, badgerhold.ErrKeyExists) {
				continue
			}
			return -1, err
		}
		addedContracts = append(addedContracts, contract)
	}

	if len(addedContracts) > 0 {
		go s.sendEvent(types.ContractEvent{
			Type: types.ContractsAdded, Contracts: addedContracts,
		})
	}

	return len(addedContracts), nil
}

func (s *contractStore) GetContract(
	_ context.Context, id string,
) (*types.Contract, error) {
	var record contractRecord
	if err := s.db.Get(id, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	contract := record.toContract()
	return &contract, nil
}

func (s *contractStore) GetAllContracts(_ context.Context) ([]types.Contract, error) {
	var records []contractRecord
	if err := s.db.Find(&records, nil); err != nil {
		return nil, err
	}

	contracts := make([]types.Contract, 0, len(records))
	for _, record := range records {
		contracts = append(contracts, record.toContract())
	}
	sort.SliceStable(contracts, func(i, j int) bool {
		return contracts[i].CreatedAt.Before(contracts[j].CreatedAt)
	})
	return contracts, nil
}

func (s *contractStore) AddVersions(
	_ context.Context, versions []types.ContractVersion,
) (int, error) {
	addedVersions := make([]types.ContractVersion, 0, len(versions))
	for _, version := range versions {
		if version.CreatedAt.IsZero() {
			version.CreatedAt = time.Now()
		}
		record := toVersionRecord(version)
		if err := s.db.Insert(version.Key(), &record); err != nil {
			if errors.Is(err, badgerhold.ErrKeyExists) {
				continue
			}
			return -1, err
		}
		addedVersions = append(addedVersions, version)
	}

	if len(addedVersions) > 0 {
		go s.sendEvent(types.ContractEvent{
			Type: types.ContractVersionsAdded, Versions: addedVersions,
		})
	}

	return len(addedVersions), nil
}

func (s *contractStore) RevokeVersions(
	_ context.Context, secrets map[string][]byte,
) (int, error) {
	revokedVersions := make([]types.ContractVersion, 0, len(secrets))
	for key, secret := range secrets {
		var record versionRecord
		if err := s.db.Get(key, &record); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				continue
			}
			return -1, err
		}
		if record.Revoked {
			continue
		}
		record.Revoked = true
		record.RevocationSecret = secret
		if err := s.db.Update(key, &record); err != nil {
			return -1, err
		}
		revokedVersions = append(revokedVersions, record.toVersion())
	}

	if len(revokedVersions) > 0 {
		go s.sendEvent(types.ContractEvent{
			Type: types.ContractVersionsRevoked, Versions: revokedVersions,
		})
	}

	return len(revokedVersions), nil
}

func (s *contractStore) GetCurrentVersion(
	ctx context.Context, contractID string,
) (*types.ContractVersion, error) {
	versions, err := s.GetVersions(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	current := versions[len(versions)-1]
	return &current, nil
}

func (s *contractStore) GetVersions(
	_ context.Context, contractID string,
) ([]types.ContractVersion, error) {
	var records []versionRecord
	query := badgerhold.Where("ContractID").Eq(contractID)
	if err := s.db.Find(&records, query); err != nil {
		return nil, err
	}

	versions := make([]types.ContractVersion, 0, len(records))
	for _, record := range records {
		versions = append(versions, record.toVersion())
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Number < versions[j].Number
	})
	return versions, nil
}

func (s *contractStore) Clean(_ context.Context) error {
	if err := s.db.Badger().DropAll(); err != nil {
		return fmt.Errorf("failed to clean the contract db: %s", err)
	}
	return nil
}

func (s *contractStore) GetEventChannel() <-chan types.ContractEvent {
	return s.eventCh
}

func (s *contractStore) Close() {
	if err := s.db.Close(); err != nil {
		log.Debugf("error on closing db: %s", err)
	}
}

func (s *contractStore) sendEvent(event types.ContractEvent) {
	s.lock.Lock()
	defer s.lock.Unlock()

	select {
	case s.eventCh <- event:
		return
	default:
		time.Sleep(100 * time.Millisecond)
	}
}

func toContractRecord(contract types.Contract) contractRecord {
	return contractRecord{
		ID:          contract.ID,
		MakerPk:     contract.MakerPk,
		TakerPk:     contract.TakerPk,
		LockTxid:    contract.LockTxid,
		LockAmount:  contract.LockAmount,
		RefundAfter: contract.RefundAfter,
		CreatedAt:   contract.CreatedAt,
	}
}

func (r contractRecord) toContract() types.Contract {
	return types.Contract{
		ID:          r.ID,
		MakerPk:     r.MakerPk,
		TakerPk:     r.TakerPk,
		LockTxid:    r.LockTxid,
		LockAmount:  r.LockAmount,
		RefundAfter: r.RefundAfter,
		CreatedAt:   r.CreatedAt,
	}
}

func toVersionRecord(version types.ContractVersion) versionRecord {
	return versionRecord{
		ContractID:        version.ContractID,
		Number:            version.Number,
		CommitTxid:        version.CommitTxid,
		MakerRevocationPk: version.MakerRevocationPk,
		MakerPublishPk:    version.MakerPublishPk,
		TakerRevocationPk: version.TakerRevocationPk,
		TakerPublishPk:    version.TakerPublishPk,
		Revoked:           version.Revoked,
		RevocationSecret:  version.RevocationSecret,
		CreatedAt:         version.CreatedAt,
	}
}

func (r versionRecord) toVersion() types.ContractVersion {
	return types.ContractVersion{
		ContractID:        r.ContractID,
		Number:            r.Number,
		CommitTxid:        r.CommitTxid,
		MakerRevocationPk: r.MakerRevocationPk,
		MakerPublishPk:    r.MakerPublishPk,
		TakerRevocationPk: r.TakerRevocationPk,
		TakerPublishPk:    r.TakerPublishPk,
		Revoked:           r.Revoked,
		RevocationSecret:  r.RevocationSecret,
		CreatedAt:         r.CreatedAt,
	}
}
