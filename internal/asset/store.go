package asset

import (
	"log"
	"sync"
	"time"

	"room-studio/internal/storage"
)

const storageKey = "assets"

// Store is the durable asset list. Records are kept newest-first for
// display; IDs are unique for the lifetime of the store.
type Store struct {
	mu      sync.RWMutex
	backend *storage.Store
	assets  []*Asset
}

// NewStore creates a store persisted through the given backend and loads
// any previously saved assets. A corrupt or missing document yields an
// empty store rather than an error.
func NewStore(backend *storage.Store) (*Store, error) {
	s := &Store{backend: backend}

	var saved []*Asset
	ok, err := backend.Get(storageKey, &saved)
	if err != nil {
		return nil, err
	}
	if ok {
		s.assets = saved
		log.Printf("[store] loaded %d assets", len(saved))
	}
	return s, nil
}

// Add creates a new asset record from the given template, assigning an ID
// and creation timestamp, prepends it to the list, and persists.
func (s *Store) Add(a Asset) (*Asset, error) {
	a.ID = NewID()
	a.CreatedAt = time.Now()

	s.mu.Lock()
	s.assets = append([]*Asset{&a}, s.assets...)
	err := s.persistLocked()
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	log.Printf("[store] asset saved: %s (%s)", a.URL, a.Kind)
	return &a, nil
}

// Get returns the asset with the given ID, or nil.
func (s *Store) Get(id string) *Asset {
	if id == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.assets {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// URL returns the image URL for the given asset ID, or "" if unknown.
func (s *Store) URL(id string) string {
	if a := s.Get(id); a != nil {
		return a.URL
	}
	return ""
}

// Has reports whether an asset with the given ID exists.
func (s *Store) Has(id string) bool {
	return s.Get(id) != nil
}

// Remove deletes the asset with the given ID and persists. It returns the
// removed record, or nil if the ID was unknown.
func (s *Store) Remove(id string) (*Asset, error) {
	s.mu.Lock()
	var removed *Asset
	for i, a := range s.assets {
		if a.ID == id {
			removed = a
			s.assets = append(s.assets[:i], s.assets[i+1:]...)
			break
		}
	}
	var err error
	if removed != nil {
		err = s.persistLocked()
	}
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if removed != nil {
		log.Printf("[store] asset deleted: %s", removed.URL)
	}
	return removed, nil
}

// All returns the assets newest-first. The returned slice is a copy; the
// records are shared.
func (s *Store) All() []*Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Asset, len(s.assets))
	copy(out, s.assets)
	return out
}

// Len returns the number of stored assets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}

// Newest returns the most recently created asset, or nil when empty.
func (s *Store) Newest() *Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.assets) == 0 {
		return nil
	}
	return s.assets[0]
}

// FindReference returns the reference asset with the given URL, or nil.
func (s *Store) FindReference(url string) *Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.assets {
		if a.Kind == KindReference && a.URL == url {
			return a
		}
	}
	return nil
}

func (s *Store) persistLocked() error {
	return s.backend.Put(storageKey, s.assets)
}
