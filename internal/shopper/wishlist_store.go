package shopper

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"storefront/internal/domain"
)

// WishlistStore persists the wishlist on the shopper's device
type WishlistStore interface {
	Load() (domain.Wishlist, error)
	Save(w domain.Wishlist) error
}

// FileWishlistStore keeps the wishlist as a JSON array of product ids
type FileWishlistStore struct {
	path string
	mu   sync.Mutex
}

func NewFileWishlistStore(path string) *FileWishlistStore {
	return &FileWishlistStore{path: path}
}

// Load returns an empty wishlist when the file does not exist yet
func (s *FileWishlistStore) Load() (domain.Wishlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.NewWishlist(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read wishlist: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to decode wishlist: %w", err)
	}
	return domain.NewWishlist(ids...), nil
}

// Save replaces the file through a rename
func (s *FileWishlistStore) Save(w domain.Wishlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(w.IDs())
	if err != nil {
		return fmt.Errorf("failed to encode wishlist: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create wishlist directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write wishlist: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace wishlist: %w", err)
	}
	return nil
}
