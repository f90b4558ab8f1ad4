// Package cache provides the two-tier card-data cache: an in-process LRU
// front and pluggable on-disk backends. Two disk disciplines coexist: one
// file per key (for caches that grow with the catalog) and a single JSON
// map file (for small hot maps like the price-staleness cache).
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Entry is a keyed, timestamped wrapper around cached data. Data is stored
// as raw JSON so one store can hold cards, search results, and price maps.
type Entry struct {
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Store is the backend-agnostic cache contract. Values are immutable once
// stored; callers must not mutate data returned from Get.
type Store interface {
	Get(key string) (Entry, bool)
	Set(key string, data json.RawMessage) error
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeKey turns an arbitrary cache key (usually a card name) into a
// filesystem-safe token: lowercased, runs of non-alphanumerics collapsed
// to a single underscore.
func SanitizeKey(key string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(key), "_")
}

// FileStore persists one JSON file per key under a cache directory.
// Preferred for anything that can grow unbounded (per-card records).
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, SanitizeKey(key)+".json")
}

// Get reads the entry for key. Missing files and malformed JSON are both
// treated as a cache miss; the read path never fails.
func (s *FileStore) Get(key string) (Entry, bool) {
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false
	}
	return e, true
}

func (s *FileStore) Set(key string, data json.RawMessage) error {
	e := Entry{Key: key, Data: data, Timestamp: time.Now()}
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := os.WriteFile(s.path(key), raw, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// MapFileStore keeps all entries in a single JSON map file, rewritten
// wholesale on every write. Acceptable only when key cardinality is
// bounded by session traffic, not catalog size.
type MapFileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]Entry
}

// NewMapFileStore loads the map file if present. A missing or corrupt
// file starts an empty map; the cache rebuilds itself over time.
func NewMapFileStore(path string) *MapFileStore {
	s := &MapFileStore{path: path, entries: make(map[string]Entry)}
	raw, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var entries map[string]Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return s
	}
	s.entries = entries
	return s
}

func (s *MapFileStore) Get(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok
}

func (s *MapFileStore) Set(key string, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = Entry{Key: key, Data: data, Timestamp: time.Now()}
	return s.persistLocked()
}

// Expired reports whether the entry for key is older than ttl. Absent
// keys are always expired and must be treated as a miss.
func (s *MapFileStore) Expired(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return true
	}
	return time.Since(e.Timestamp) > ttl
}

// Keys returns a snapshot of all stored keys.
func (s *MapFileStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of stored entries.
func (s *MapFileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MapFileStore) persistLocked() error {
	raw, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("failed to encode cache map: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write cache map: %w", err)
	}
	return nil
}

// MemoryTier fronts a Store with an in-process LRU. Entries live for the
// process lifetime (subject to LRU eviction); disk hits are promoted.
type MemoryTier struct {
	lru     *lru.Cache[string, Entry]
	backing Store
}

func NewMemoryTier(size int, backing Store) (*MemoryTier, error) {
	c, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryTier{lru: c, backing: backing}, nil
}

// Get checks the memory tier first, then the backing store.
// The second return reports a hit in either tier; the third reports
// whether the hit came from memory.
func (t *MemoryTier) Get(key string) (Entry, bool, bool) {
	if e, ok := t.lru.Get(key); ok {
		return e, true, true
	}
	if t.backing == nil {
		return Entry{}, false, false
	}
	e, ok := t.backing.Get(key)
	if !ok {
		return Entry{}, false, false
	}
	t.lru.Add(key, e)
	return e, true, false
}

// Set writes to memory, then persists to the backing store. A disk write
// failure does not roll back the memory write; the in-memory entry stays
// authoritative for the rest of the process lifetime.
func (t *MemoryTier) Set(key string, data json.RawMessage) error {
	e := Entry{Key: key, Data: data, Timestamp: time.Now()}
	t.lru.Add(key, e)
	if t.backing == nil {
		return nil
	}
	return t.backing.Set(key, data)
}

// Purge drops every in-memory entry. Disk state is untouched.
func (t *MemoryTier) Purge() {
	t.lru.Purge()
}
