package blob

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Handle refers to a key slot allocated in a Table.
// The zero handle is never issued.
type Handle uintptr

type slot struct {
	key   Key
	owned bool
}

// Table allocates key slots on behalf of a storage engine.
// A slot lives until the Ref owning it is released.
type Table struct {
	mu    sync.Mutex
	next  Handle
	slots map[Handle]*slot
	pins  map[[KeyLength]byte]int
}

// NewTable create an empty table.
func NewTable() *Table {
	return &Table{
		slots: make(map[Handle]*slot),
		pins:  make(map[[KeyLength]byte]int),
	}
}

// alloc stores key in a new slot and returns its handle.
// The handle is unowned until passed to NewRef.
func (t *Table) alloc(key Key) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	h := t.next
	t.slots[h] = &slot{key: key}
	t.pins[key.digest]++
	return h
}

// Acquire allocates a slot for key and returns the ref owning it.
func (t *Table) Acquire(key Key) *Ref {
	ref, err := NewRef(t, t.alloc(key))
	if err != nil {
		// a fresh handle is always adoptable
		panic(err)
	}
	return ref
}

// Pinned reports whether any live slot holds key.
func (t *Table) Pinned(key Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pins[key.digest] > 0
}

// Len returns count of live slots.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

func (t *Table) adopt(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.slots[h]
	if s == nil || s.owned {
		return false
	}
	s.owned = true
	return true
}

func (t *Table) load(h Handle) (Key, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.slots[h]
	if s == nil {
		return Key{}, false
	}
	return s.key, true
}

func (t *Table) free(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.slots[h]
	if s == nil {
		return
	}
	delete(t.slots, h)
	if n := t.pins[s.key.digest] - 1; n > 0 {
		t.pins[s.key.digest] = n
	} else {
		delete(t.pins, s.key.digest)
	}
}

// Ref is the exclusive owner of a table slot.
// Release must be called once the ref is no longer needed.
// Accessors fail with ErrAlreadyReleased afterwards.
type Ref struct {
	table  *Table
	handle Handle

	mu       sync.RWMutex
	released atomic.Bool
}

// NewRef takes ownership of handle h allocated in t.
func NewRef(t *Table, h Handle) (*Ref, error) {
	if t == nil || h == 0 {
		return nil, errors.Wrap(ErrInvalidHandle, "new ref: zero handle")
	}
	if !t.adopt(h) {
		return nil, errors.Wrapf(ErrInvalidHandle, "new ref: handle %d not allocated or already owned", h)
	}
	ref := &Ref{table: t, handle: h}
	runtime.SetFinalizer(ref, finalizeRef)
	return ref, nil
}

// ParseRef decodes a canonical key string into a ref owned by the caller.
func ParseRef(t *Table, str string) (*Ref, error) {
	key, err := ParseKey(str)
	if err != nil {
		return nil, err
	}
	return t.Acquire(key), nil
}

// backstop for refs dropped without Release.
func finalizeRef(ref *Ref) {
	if ref.released.Load() {
		return
	}
	log.Debugf("blob ref %d collected without release", ref.handle)
	ref.Release()
}

// Release frees the slot. Calls after the first are no-ops.
func (ref *Ref) Release() {
	if ref.released.Load() {
		return
	}
	ref.mu.Lock()
	defer ref.mu.Unlock()
	if ref.released.Load() {
		return
	}
	ref.released.Store(true)
	ref.table.free(ref.handle)
	runtime.SetFinalizer(ref, nil)
}

// Released reports whether Release has been called.
func (ref *Ref) Released() bool {
	return ref.released.Load()
}

// Key returns the key held by the ref.
func (ref *Ref) Key() (Key, error) {
	if ref.released.Load() {
		return Key{}, ErrAlreadyReleased
	}
	ref.mu.RLock()
	defer ref.mu.RUnlock()
	if ref.released.Load() {
		return Key{}, ErrAlreadyReleased
	}
	key, ok := ref.table.load(ref.handle)
	if !ok {
		return Key{}, errors.Wrapf(ErrInvalidHandle, "ref %d", ref.handle)
	}
	return key, nil
}

// Handle returns the owned handle.
func (ref *Ref) Handle() (Handle, error) {
	if ref.released.Load() {
		return 0, ErrAlreadyReleased
	}
	return ref.handle, nil
}

// Bytes returns a copy of the raw digest.
func (ref *Ref) Bytes() ([]byte, error) {
	key, err := ref.Key()
	if err != nil {
		return nil, err
	}
	return key.Bytes(), nil
}

// Encode returns the canonical string of the key.
func (ref *Ref) Encode() (string, error) {
	key, err := ref.Key()
	if err != nil {
		return "", err
	}
	return key.String(), nil
}

// Equal compares keys of two refs.
func (ref *Ref) Equal(other *Ref) (bool, error) {
	a, err := ref.Key()
	if err != nil {
		return false, err
	}
	if other == nil {
		return false, errors.Wrap(ErrInvalidHandle, "equal: nil ref")
	}
	if other == ref {
		return true, nil
	}
	b, err := other.Key()
	if err != nil {
		return false, err
	}
	return a.Equal(b), nil
}

func (ref *Ref) String() string {
	str, err := ref.Encode()
	if err != nil {
		return "<released>"
	}
	return str
}
