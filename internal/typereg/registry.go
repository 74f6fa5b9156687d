package typereg

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"fortio.org/safecast"
)

// Tag is a dense identifier of a concrete type inside one Registry.
type Tag uint32

// Entry pairs a registered type identity with its tag.
type Entry struct {
	Type reflect.Type
	Tag  Tag
}

// Name returns a printable name for the entry's type.
func (e Entry) Name() string {
	return typeName(e.Type)
}

// Registry assigns stable tags to the concrete types of one hierarchy.
//
// Tags are handed out 0..N-1 in first-registration order. Every mutation of
// the mapping happens under mu, and the generation counter is published only
// after the corresponding entry is visible, so a reader that observes
// generation g always finds at least g entries in KnownTypes.
type Registry struct {
	name string

	mu      sync.RWMutex
	index   map[reflect.Type]Tag
	entries []Entry

	gen atomic.Uint64
}

// New constructs an empty registry. The name only shows up in diagnostics.
func New(name string) *Registry {
	return &Registry{
		name:  name,
		index: make(map[reflect.Type]Tag, 16),
	}
}

// Name returns the registry's diagnostic name.
func (r *Registry) Name() string {
	return r.name
}

// Register returns the tag of key, assigning the next one on first sight.
func (r *Registry) Register(key reflect.Type) Tag {
	if key == nil {
		panic("typereg: nil type identity")
	}
	r.mu.RLock()
	tag, ok := r.index[key]
	r.mu.RUnlock()
	if ok {
		return tag
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if tag, ok := r.index[key]; ok {
		return tag
	}
	next, err := safecast.Conv[uint32](len(r.entries))
	if err != nil {
		panic(fmt.Errorf("typereg: tag space exhausted: %w", err))
	}
	tag = Tag(next)
	r.entries = append(r.entries, Entry{Type: key, Tag: tag})
	r.index[key] = tag
	r.gen.Store(uint64(len(r.entries)))
	return tag
}

// Generation counts the distinct types ever registered.
func (r *Registry) Generation() uint64 {
	return r.gen.Load()
}

// KnownTypes returns a snapshot of all entries in registration order.
func (r *Registry) KnownTypes() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lookup reports the tag of key without registering it.
func (r *Registry) Lookup(key reflect.Type) (Tag, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tag, ok := r.index[key]
	return tag, ok
}

// Entry returns the entry for tag, if it has been assigned.
func (r *Registry) Entry(tag Tag) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(tag) >= len(r.entries) {
		return Entry{}, false
	}
	return r.entries[tag], true
}

// TagName returns the type name behind tag, or a placeholder for unknown tags.
func (r *Registry) TagName(tag Tag) string {
	e, ok := r.Entry(tag)
	if !ok {
		return fmt.Sprintf("<tag %d>", tag)
	}
	return e.Name()
}

// ByName finds a registered type by its printed name.
func (r *Registry) ByName(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.Name() == name {
			return e, true
		}
	}
	return Entry{}, false
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
