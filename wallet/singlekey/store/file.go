package store

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
)

const walletFilename = "wallet.json"

type walletData struct {
	EncryptedPrvkey string `json:"encrypted_private_key"`
	PasswordHash    string `json:"password_hash"`
	PubKey          string `json:"pubkey"`
}

func (d walletData) isEmpty() bool {
	return d == walletData{}
}

func (d walletData) decode() (*WalletData, error) {
	encryptedPrvkey, err := hex.DecodeString(d.EncryptedPrvkey)
	if err != nil {
		return nil, err
	}
	passwordHash, err := hex.DecodeString(d.PasswordHash)
	if err != nil {
		return nil, err
	}
	buf, err := hex.DecodeString(d.PubKey)
	if err != nil {
		return nil, err
	}
	pubkey, err := btcec.ParsePubKey(buf)
	if err != nil {
		return nil, err
	}
	return &WalletData{
		EncryptedPrvkey: encryptedPrvkey,
		PasswordHash:    passwordHash,
		PubKey:          pubkey,
	}, nil
}

type fileStore struct {
	filePath string
	lock     *sync.Mutex
}

// NewFileWalletStore persists the wallet data as a JSON file under the
// given directory, creating it if missing.
func NewFileWalletStore(dir string) (WalletStore, error) {
	if err := os.MkdirAll(dir, os.ModeDir|0755); err != nil {
		return nil, fmt.Errorf("failed to create wallet store directory: %s", err)
	}

	filePath := filepath.Join(dir, walletFilename)
	store := &fileStore{filePath, &sync.Mutex{}}

	if _, err := store.read(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := store.write(walletData{}); err != nil {
			return nil, fmt.Errorf("failed to initialize wallet store: %s", err)
		}
	}

	return store, nil
}

func (s *fileStore) AddWallet(data WalletData) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.write(walletData{
		EncryptedPrvkey: hex.EncodeToString(data.EncryptedPrvkey),
		PasswordHash:    hex.EncodeToString(data.PasswordHash),
		PubKey:          hex.EncodeToString(data.PubKey.SerializeCompressed()),
	})
}

func (s *fileStore) GetWallet() (*WalletData, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	data, err := s.read()
	if err != nil {
		return nil, err
	}
	if data.isEmpty() {
		return nil, nil
	}
	return data.decode()
}

func (s *fileStore) read() (walletData, error) {
	var data walletData
	file, err := os.ReadFile(s.filePath)
	if err != nil {
		return data, err
	}
	if err := json.Unmarshal(file, &data); err != nil {
		return data, fmt.Errorf("failed to parse wallet store file: %s", err)
	}
	return data, nil
}

func (s *fileStore) write(data walletData) error {
	file, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, file, 0644)
}
