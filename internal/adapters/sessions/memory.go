package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/relocator/internal/domain/gate"
)

// node is one entry of the insertion-ordered list; head is the newest.
type node struct {
	id      string
	data    []byte
	expires time.Time
	prev    *node
	next    *node
}

func (n *node) reset() {
	*n = node{}
}

// MemoryStore is a bounded in-process session store. Entries expire after
// the TTL and the oldest entry is evicted when capacity is reached.
type MemoryStore struct {
	opts options

	mu       sync.Mutex
	entries  map[string]*node
	head     *node
	tail     *node
	nodePool sync.Pool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		opts:     applyOptions(opts),
		entries:  make(map[string]*node),
		nodePool: sync.Pool{New: func() any { return &node{} }},
	}
}

func (m *MemoryStore) Save(_ context.Context, s *gate.Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	expires := m.opts.now().Add(m.opts.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.entries[s.ID]; ok {
		m.unlink(n)
		n.data, n.expires = data, expires
		m.pushFront(n)
		return nil
	}
	if m.opts.capacity > 0 && len(m.entries) >= m.opts.capacity {
		m.evict(m.tail)
	}
	n := m.nodePool.Get().(*node)
	n.id, n.data, n.expires = s.ID, data, expires
	m.entries[s.ID] = n
	m.pushFront(n)
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*gate.Session, error) {
	m.mu.Lock()
	n, ok := m.entries[id]
	if ok && !m.opts.now().Before(n.expires) {
		m.evict(n)
		ok = false
	}
	var data []byte
	if ok {
		data = n.data
	}
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return decode(data)
}

// Len returns the number of stored sessions, expired ones included until
// they are touched.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.tail != nil {
		m.evict(m.tail)
	}
	return nil
}

// pushFront must be called with m.mu held.
func (m *MemoryStore) pushFront(n *node) {
	n.prev, n.next = nil, m.head
	if m.head != nil {
		m.head.prev = n
	}
	m.head = n
	if m.tail == nil {
		m.tail = n
	}
}

// unlink must be called with m.mu held.
func (m *MemoryStore) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		m.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		m.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

// evict must be called with m.mu held.
func (m *MemoryStore) evict(n *node) {
	if n == nil {
		return
	}
	m.unlink(n)
	delete(m.entries, n.id)
	n.reset()
	m.nodePool.Put(n)
}
