// Package credentials provides durable storage for the tokens and cached
// profile of the current session.
package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Storage keys. These are the canonical names; older clients used a mix of
// access_token/authToken spellings which are not read back.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserProfile  = "userProfile"
)

// Store is the persistence contract the session layer depends on.
//
// Implementations must treat every internal failure as "value absent":
// Get reports ok=false, Set/Remove/ClearAll log and return nil effects.
// A session must survive running with a broken store, it just won't
// persist across restarts.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
	ClearAll()
}

type fileConfig struct {
	Version   int               `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
	Values    map[string]string `json:"values"`
}

// FileStore keeps credentials in a JSON file on the local filesystem.
type FileStore struct {
	baseDir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed credential store.
// If baseDir is empty, uses ~/.courseware/credentials/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".courseware", "credentials")
	}

	// Create directory with 0700 permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}

	store := &FileStore{baseDir: baseDir}

	if err := store.ensureConfig(); err != nil {
		return nil, err
	}

	log.Debug().Str("baseDir", baseDir).Msg("credential store initialized")

	return store, nil
}

// Get retrieves a stored value. Any read or parse failure reports absence.
func (s *FileStore) Get(key string) (string, bool) {
	cfg, err := s.loadConfig()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("credential read failed, treating as absent")
		return "", false
	}

	value, ok := cfg.Values[key]
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// Set stores a value. Failures are logged and swallowed; a later Get
// simply reports the value absent.
func (s *FileStore) Set(key, value string) {
	cfg, err := s.loadConfig()
	if err != nil {
		cfg = &fileConfig{Version: 1, Values: make(map[string]string)}
	}

	cfg.Values[key] = value

	if err := s.saveConfig(cfg); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("credential write failed")
	}
}

// Remove deletes a single value.
func (s *FileStore) Remove(key string) {
	cfg, err := s.loadConfig()
	if err != nil {
		return
	}

	if _, ok := cfg.Values[key]; !ok {
		return
	}
	delete(cfg.Values, key)

	if err := s.saveConfig(cfg); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("credential remove failed")
	}
}

// ClearAll wipes every stored value. Used on logout and on session-fatal
// errors, so a restart never resurrects a dead session.
func (s *FileStore) ClearAll() {
	cfg := &fileConfig{Version: 1, Values: make(map[string]string)}
	if err := s.saveConfig(cfg); err != nil {
		log.Warn().Err(err).Msg("credential clear failed")
	}
	log.Debug().Msg("credentials cleared")
}

// ensureConfig creates an empty config if it doesn't exist.
func (s *FileStore) ensureConfig() error {
	configPath := filepath.Join(s.baseDir, "credentials.json")

	if _, err := os.Stat(configPath); err == nil {
		return nil // Config exists
	}

	cfg := &fileConfig{
		Version: 1,
		Values:  make(map[string]string),
	}

	return s.saveConfig(cfg)
}

// loadConfig reads the credentials file.
func (s *FileStore) loadConfig() (*fileConfig, error) {
	configPath := filepath.Join(s.baseDir, "credentials.json")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var cfg fileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	if cfg.Values == nil {
		cfg.Values = make(map[string]string)
	}

	return &cfg, nil
}

// saveConfig writes the credentials file atomically.
func (s *FileStore) saveConfig(cfg *fileConfig) error {
	cfg.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// Write to temp file first
	configPath := filepath.Join(s.baseDir, "credentials.json")
	tempPath := configPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, configPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	return nil
}
