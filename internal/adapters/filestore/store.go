// Package filestore - хранилище настроек в локальном JSON-файле.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"moderation-console/internal/contextkeys"
	"moderation-console/internal/core/port"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

const filePerms = 0o600

// Store хранит все ключи одним JSON-объектом. Файл можно править руками:
// комментарии и висячие запятые допускаются. Запись атомарная.
type Store struct {
	path   string
	mu     sync.Mutex
	logger port.LoggerPort
}

var _ port.KeyValueStorePort = (*Store)(nil)

func NewStore(path string, logger port.LoggerPort) (*Store, error) {
	if path == "" {
		return nil, errors.New("filestore: path is required")
	}
	if logger == nil {
		logger = contextkeys.NoopLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("filestore: failed to create directory: %w", err)
	}
	return &Store{
		path:   path,
		logger: logger.WithFields(port.Fields{"component": "FileStore", "path": path}),
	}, nil
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	value, ok := values[key]
	return value, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.save(values)
}

// load читает файл целиком. Отсутствующий файл - пустое хранилище,
// поврежденный - тоже, с предупреждением; следующий Set его перезапишет.
func (s *Store) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: failed to read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]string{}, nil
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		s.logger.Warn("Store file is not valid JSONC, ignoring it", port.Fields{"error": err.Error()})
		return map[string]string{}, nil
	}
	values := map[string]string{}
	if err := json.Unmarshal(standardized, &values); err != nil {
		s.logger.Warn("Store file has unexpected shape, ignoring it", port.Fields{"error": err.Error()})
		return map[string]string{}, nil
	}
	return values, nil
}

func (s *Store) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: failed to marshal values: %w", err)
	}
	data = append(data, '\n')

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("filestore: failed to write %s: %w", s.path, err)
	}
	// atomic.WriteFile не выставляет права для нового файла
	if err := os.Chmod(s.path, filePerms); err != nil {
		return fmt.Errorf("filestore: failed to set file permissions: %w", err)
	}
	return nil
}
