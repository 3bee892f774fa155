package localstate

import (
	"encoding/json"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Well-known keys.
const (
	KeyEmployeeName           = "employeeName"
	KeyPhoneNumber            = "phoneNumber"
	KeyOwnershipRecords       = "ownershipRecords"
	KeyLastActiveView         = "lastActiveView"
	KeyNotificationPermission = "notificationPermission"
)

// Store is a string key-value state persisted as one JSON file. It stands in
// for the browser-local storage of the original client: a missing or corrupt
// file is treated as empty, never as an error.
type Store struct {
	filePath string
	logger   *zap.Logger

	mu   sync.Mutex
	data map[string]string
}

func New(filePath string, logger *zap.Logger) *Store {
	s := &Store{
		filePath: filePath,
		logger:   logger,
		data:     make(map[string]string),
	}
	s.load()
	return s
}

func (s *Store) load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read local state, starting empty",
				zap.String("path", s.filePath), zap.Error(err))
		}
		return
	}

	data := make(map[string]string)
	if err := json.Unmarshal(raw, &data); err != nil {
		s.logger.Warn("local state unparsable, starting empty",
			zap.String("path", s.filePath), zap.Error(err))
		return
	}
	s.data = data
}

// Get returns the stored value, or "" when the key is absent.
func (s *Store) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key]
}

// Set stores the value and persists the whole state to disk. A persist
// failure is logged and the in-memory value kept, so the session keeps
// working with reduced durability.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	s.persist()
}

// Delete removes the key and persists.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	s.persist()
}

func (s *Store) persist() {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		s.logger.Warn("failed to encode local state", zap.Error(err))
		return
	}
	if err := os.WriteFile(s.filePath, raw, 0o644); err != nil {
		s.logger.Warn("failed to persist local state",
			zap.String("path", s.filePath), zap.Error(err))
	}
}
