package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cfd-protocol/go-sdk/types"
)

const filename = "state.json"

type configStore struct {
	filePath string
	lock     *sync.Mutex
}

// NewConfigStore persists the contract parameters as a JSON file under
// the given directory, creating both if missing.
func NewConfigStore(baseDir string) (types.ConfigStore, error) {
	if len(baseDir) <= 0 {
		return nil, fmt.Errorf("missing base directory")
	}
	datadir := cleanAndExpandPath(baseDir)
	if err := makeDirectoryIfNotExists(datadir); err != nil {
		return nil, fmt.Errorf("failed to initialize config store directory: %s", err)
	}
	filePath := filepath.Join(datadir, filename)
	store := &configStore{filePath, &sync.Mutex{}}
	if _, err := store.open(); err != nil {
		return nil, fmt.Errorf("failed to open config store: %s", err)
	}

	return store, nil
}

func (s *configStore) GetType() string {
	return types.FileStore
}

func (s *configStore) GetDatadir() string {
	return filepath.Dir(s.filePath)
}

func (s *configStore) AddData(_ context.Context, data types.Config) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.write(encode(data))
}

func (s *configStore) GetData(_ context.Context) (*types.Config, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	data, err := s.open()
	if err != nil {
		return nil, err
	}
	if data.isEmpty() {
		return nil, nil
	}

	config := data.decode()
	return &config, nil
}

func (s *configStore) CleanData(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.write(storeData{}); err != nil {
		return fmt.Errorf("failed to clean config store: %s", err)
	}
	return nil
}

func (s *configStore) Close() {}

func (s *configStore) open() (storeData, error) {
	var data storeData
	file, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return data, err
		}
		if err := s.write(data); err != nil {
			return data, err
		}
		return data, nil
	}
	if err := json.Unmarshal(file, &data); err != nil {
		return data, fmt.Errorf("failed to parse config store file: %s", err)
	}
	return data, nil
}

func (s *configStore) write(data storeData) error {
	file, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, file, 0644)
}

func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}
	// Expand initial ~ to OS specific home directory.
	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		path = filepath.Join(homeDir, path[1:])
	}
	return filepath.Clean(os.ExpandEnv(path))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
