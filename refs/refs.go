// Package refs maps names to blob keys, persisted as canonical key strings.
package refs

import (
	"sync"
	"unicode"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vechain/blobstore/blob"
	"github.com/vechain/blobstore/kv"
)

const (
	refPrefix     = ".refs/"
	maxNameLength = 255
)

var (
	// ErrCorruptRef stored value is not a well-formed key string
	ErrCorruptRef = errors.New("corrupt ref")
	// ErrInvalidName name is empty, too long or has control characters
	ErrInvalidName = errors.New("invalid ref name")
)

func makeRefKey(name string) []byte {
	return []byte(refPrefix + name)
}

// Entry a named key.
type Entry struct {
	Name string   `json:"name"`
	Key  blob.Key `json:"key"`
}

// OptKey optional key
type OptKey struct {
	V *blob.Key
}

// ValidateName checks a ref name.
func ValidateName(name string) error {
	if name == "" || len(name) > maxNameLength {
		return errors.Wrapf(ErrInvalidName, "%q", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return errors.Wrapf(ErrInvalidName, "%q", name)
		}
	}
	return nil
}

// Manager to manage refs
type Manager struct {
	store kv.Store

	cache struct {
		sync.Mutex
		m map[string]blob.Key
		// bumped by every write, so that a lookup racing a write doesn't cache a stale value
		gen uint64
	}
}

// New create a ref manager instance
func New(store kv.Store) *Manager {
	m := &Manager{store: store}
	m.cache.m = make(map[string]blob.Key)
	return m
}

func (m *Manager) getCached(name string) (blob.Key, uint64, bool) {
	m.cache.Lock()
	defer m.cache.Unlock()
	key, ok := m.cache.m[name]
	return key, m.cache.gen, ok
}

// fillCached caches key read from store unless a write happened since gen.
func (m *Manager) fillCached(name string, key blob.Key, gen uint64) {
	m.cache.Lock()
	defer m.cache.Unlock()
	if m.cache.gen == gen {
		m.cache.m[name] = key
	}
}

func (m *Manager) setCached(name string, key *blob.Key) {
	m.cache.Lock()
	defer m.cache.Unlock()
	m.cache.gen++
	if key == nil {
		delete(m.cache.m, name)
		return
	}
	m.cache.m[name] = *key
}

func decodeValue(name string, value []byte) (blob.Key, error) {
	key, err := blob.ParseKey(string(value))
	if err != nil {
		log.Warnf("ref %q holds malformed key: %v", name, err)
		return blob.Key{}, errors.Wrapf(ErrCorruptRef, "ref %q: %v", name, err)
	}
	return key, nil
}

// Set points name at key.
func (m *Manager) Set(name string, key blob.Key) error {
	if err := ValidateName(name); err != nil {
		return errors.Wrap(err, "set ref")
	}
	if err := m.store.Put(makeRefKey(name), []byte(key.String())); err != nil {
		return errors.Wrap(err, "set ref")
	}
	m.setCached(name, &key)
	return nil
}

// Get resolves name.
// A stored value that fails to decode yields ErrCorruptRef.
func (m *Manager) Get(name string) (*OptKey, error) {
	key, gen, ok := m.getCached(name)
	if ok {
		return &OptKey{V: &key}, nil
	}
	value, err := m.store.Get(makeRefKey(name))
	if err != nil {
		return nil, errors.Wrap(err, "get ref")
	}
	if value.V == nil {
		return &OptKey{}, nil
	}
	key, err = decodeValue(name, value.V)
	if err != nil {
		return nil, errors.Wrap(err, "get ref")
	}
	m.fillCached(name, key, gen)
	return &OptKey{V: &key}, nil
}

// Delete removes name.
func (m *Manager) Delete(name string) error {
	if err := m.store.Delete(makeRefKey(name)); err != nil {
		return errors.Wrap(err, "delete ref")
	}
	m.setCached(name, nil)
	return nil
}

// List returns all refs ordered by name. Corrupt refs are skipped.
func (m *Manager) List() ([]Entry, error) {
	var entries []Entry
	iter := m.store.NewIterator(kv.NewRangeWithBytesPrefix([]byte(refPrefix)))
	defer iter.Release()
	for iter.Next() {
		name := string(iter.Key()[len(refPrefix):])
		key, err := decodeValue(name, iter.Value())
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Name: name, Key: key})
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "list refs")
	}
	return entries, nil
}
