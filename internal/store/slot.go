// Package store keeps product details alive across the navigation from a
// product page into its review list.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"

	"github.com/law-makers/revscrape/pkg/models"
)

const (
	// KeyringService is the service name for keyring storage
	KeyringService = "revscrape"
	// SlotKey names the single product info entry
	SlotKey = "amazonScraperProductInfo"
)

// Slot is a single-entry store for the product captured before a handoff
type Slot interface {
	// Load returns the stored product. ok is false when the slot is empty.
	Load() (info models.ProductInfo, ok bool, err error)
	// Save overwrites the slot
	Save(info models.ProductInfo) error
	// Clear empties the slot. Clearing an empty slot is not an error.
	Clear() error
}

// The slot holds the product info as plain JSON
func encode(info models.ProductInfo) ([]byte, error) {
	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize product info: %w", err)
	}
	return data, nil
}

func decode(data []byte) (models.ProductInfo, error) {
	var info models.ProductInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return models.ProductInfo{}, fmt.Errorf("failed to deserialize product info: %w", err)
	}
	return info, nil
}

// Open returns the slot for the named backend. The keyring backend falls back
// to a file under dir when no keyring is reachable.
func Open(backend, dir string) (Slot, error) {
	switch backend {
	case "memory":
		return &MemorySlot{}, nil
	case "file":
		return NewFileSlot(dir), nil
	case "keyring", "":
		if useFileBasedStorage() {
			log.Debug().Str("dir", dir).Msg("Keyring unavailable, using file slot")
			return NewFileSlot(dir), nil
		}
		return &KeyringSlot{Service: KeyringService, Key: SlotKey}, nil
	default:
		return nil, fmt.Errorf("unknown slot backend %q", backend)
	}
}

var (
	fileFallbackOnce sync.Once
	fileFallback     bool
)

// useFileBasedStorage reports whether the keyring should be skipped. CI and
// Codespaces never have one; elsewhere the keyring is probed once.
func useFileBasedStorage() bool {
	fileFallbackOnce.Do(func() {
		if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
			fileFallback = true
			return
		}
		testKey := "_test_keyring_access_"
		if err := keyring.Set(KeyringService, testKey, "test"); err != nil {
			fileFallback = true
			return
		}
		_ = keyring.Delete(KeyringService, testKey)
	})
	return fileFallback
}

// KeyringSlot stores the product in the OS keyring
type KeyringSlot struct {
	Service string
	Key     string
}

func (s *KeyringSlot) Load() (models.ProductInfo, bool, error) {
	data, err := keyring.Get(s.Service, s.Key)
	if errors.Is(err, keyring.ErrNotFound) {
		return models.ProductInfo{}, false, nil
	}
	if err != nil {
		return models.ProductInfo{}, false, fmt.Errorf("failed to load from keyring: %w", err)
	}
	info, err := decode([]byte(data))
	if err != nil {
		return models.ProductInfo{}, false, err
	}
	return info, true, nil
}

func (s *KeyringSlot) Save(info models.ProductInfo) error {
	data, err := encode(info)
	if err != nil {
		return err
	}
	if err := keyring.Set(s.Service, s.Key, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

func (s *KeyringSlot) Clear() error {
	err := keyring.Delete(s.Service, s.Key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// FileSlot stores the product as a JSON file readable only by the owner
type FileSlot struct {
	Path string
}

// NewFileSlot returns a slot backed by <dir>/<SlotKey>.json
func NewFileSlot(dir string) *FileSlot {
	return &FileSlot{Path: filepath.Join(dir, SlotKey+".json")}
}

func (s *FileSlot) Load() (models.ProductInfo, bool, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return models.ProductInfo{}, false, nil
	}
	if err != nil {
		return models.ProductInfo{}, false, fmt.Errorf("failed to load slot file: %w", err)
	}
	info, err := decode(data)
	if err != nil {
		return models.ProductInfo{}, false, err
	}
	return info, true, nil
}

func (s *FileSlot) Save(info models.ProductInfo) error {
	data, err := encode(info)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create slot dir: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("failed to save slot file: %w", err)
	}
	return nil
}

func (s *FileSlot) Clear() error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete slot file: %w", err)
	}
	return nil
}

// MemorySlot keeps the product in process memory
type MemorySlot struct {
	mu   sync.Mutex
	info *models.ProductInfo
}

func (s *MemorySlot) Load() (models.ProductInfo, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		return models.ProductInfo{}, false, nil
	}
	return *s.info, true, nil
}

func (s *MemorySlot) Save(info models.ProductInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = &info
	return nil
}

func (s *MemorySlot) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = nil
	return nil
}
