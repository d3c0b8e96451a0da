package store

import (
	"sync"
)

type inmemoryStore struct {
	mu   sync.Mutex
	data *WalletData
}

func NewInMemoryWalletStore() (WalletStore, error) {
	return &inmemoryStore{}, nil
}

func (s *inmemoryStore) AddWallet(data WalletData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = &data
	return nil
}

func (s *inmemoryStore) GetWallet() (*WalletData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return nil, nil
	}
	data := *s.data
	return &data, nil
}
