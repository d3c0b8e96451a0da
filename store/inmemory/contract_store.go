package inmemorystore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cfd-protocol/go-sdk/types"
)

type contractStore struct {
	contracts map[string]types.Contract
	versions  map[string]types.ContractVersion
	lock      *sync.RWMutex
	eventCh   chan types.ContractEvent
}

func NewContractStore() (types.ContractStore, error) {
	return &contractStore{
		contracts: make(map[string]types.Contract),
		versions:  make(map[string]types.ContractVersion),
		lock:      &sync.RWMutex{},
		eventCh:   make(chan types.ContractEvent, 100),
	}, nil
}

func (s *contractStore) AddContracts(
	_ context.Context, contracts []types.Contract,
) (int, error) {
	s.lock.Lock()
	addedContracts := make([]types.Contract, 0, len(contracts))
	for _, contract := range contracts {
		if _, ok := s.contracts[contract.ID]; ok {
			continue
		}
		s.contracts[contract.ID] = contract
		addedContracts = append(addedContracts, contract)
	}
	s.lock.Unlock()

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
	s.lock.RLock()
	defer s.lock.RUnlock()

	contract, ok := s.contracts[id]
	if !ok {
		return nil, nil
	}
	return &contract, nil
}

func (s *contractStore) GetAllContracts(_ context.Context) ([]types.Contract, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	contracts := make([]types.Contract, 0, len(s.contracts))
	for _, contract := range s.contracts {
		contracts = append(contracts, contract)
	}
	sort.SliceStable(contracts, func(i, j int) bool {
		return contracts[i].CreatedAt.Before(contracts[j].CreatedAt)
	})
	return contracts, nil
}

func (s *contractStore) AddVersions(
	_ context.Context, versions []types.ContractVersion,
) (int, error) {
	s.lock.Lock()
	addedVersions := make([]types.ContractVersion, 0, len(versions))
	for _, version := range versions {
		if _, ok := s.versions[version.Key()]; ok {
			continue
		}
		if version.CreatedAt.IsZero() {
			version.CreatedAt = time.Now()
		}
		s.versions[version.Key()] = version
		addedVersions = append(addedVersions, version)
	}
	s.lock.Unlock()

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
	s.lock.Lock()
	revokedVersions := make([]types.ContractVersion, 0, len(secrets))
	for key, secret := range secrets {
		version, ok := s.versions[key]
		if !ok || version.Revoked {
			continue
		}
		version.Revoked = true
		version.RevocationSecret = secret
		s.versions[key] = version
		revokedVersions = append(revokedVersions, version)
	}
	s.lock.Unlock()

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
	s.lock.RLock()
	defer s.lock.RUnlock()

	var versions []types.ContractVersion
	for _, version := range s.versions {
		if version.ContractID == contractID {
			versions = append(versions, version)
		}
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Number < versions[j].Number
	})
	return versions, nil
}

func (s *contractStore) Clean(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.contracts = make(map[string]types.Contract)
	s.versions = make(map[string]types.ContractVersion)
	return nil
}

func (s *contractStore) GetEventChannel() <-chan types.ContractEvent {
	return s.eventCh
}

func (s *contractStore) Close() {}

func (s *contractStore) sendEvent(event types.ContractEvent) {
	select {
	case s.eventCh <- event:
	default:
		time.Sleep(100 * time.Millisecond)
	}
}
