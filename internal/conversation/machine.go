package conversation

import (
	"hash/fnv"
	"strings"
	"sync"
)

const shardCount = 32

// Machine is a keyed store of conversation states, one entry per member external identity.
// Get, Set and Clear are atomic per key. Lock gives callers exclusive use of a key across
// several operations; keys on different members never block each other.
type Machine struct {
	shards [shardCount]*shard
}

type shard struct {
	mu     sync.Mutex
	states map[string]State
	locks  map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewMachine creates an empty state machine.
func NewMachine() *Machine {
	m := &Machine{}
	for i := range m.shards {
		m.shards[i] = &shard{
			states: map[string]State{},
			locks:  map[string]*keyLock{},
		}
	}
	return m
}

// Get returns the current state for key, Idle when absent.
func (m *Machine) Get(key string) State {
	key = normalizeKey(key)
	sh := m.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if st, ok := sh.states[key]; ok {
		return st
	}
	return Idle{}
}

// Set overwrites the state for key. Setting Idle (or nil) removes the entry.
func (m *Machine) Set(key string, st State) {
	key = normalizeKey(key)
	sh := m.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if IsIdle(st) {
		delete(sh.states, key)
		return
	}
	sh.states[key] = st
}

// Clear removes the entry for key.
func (m *Machine) Clear(key string) {
	m.Set(key, nil)
}

// Len returns the number of non-idle entries.
func (m *Machine) Len() int {
	total := 0
	for _, sh := range m.shards {
		sh.mu.Lock()
		total += len(sh.states)
		sh.mu.Unlock()
	}
	return total
}

// Lock acquires the per-key mutex and returns its release function.
// The lock entry is dropped once no goroutine holds or waits for it.
func (m *Machine) Lock(key string) (unlock func()) {
	key = normalizeKey(key)
	sh := m.shard(key)

	sh.mu.Lock()
	kl, ok := sh.locks[key]
	if !ok {
		kl = &keyLock{}
		sh.locks[key] = kl
	}
	kl.refs++
	sh.mu.Unlock()

	kl.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			kl.mu.Unlock()
			sh.mu.Lock()
			kl.refs--
			if kl.refs == 0 {
				delete(sh.locks, key)
			}
			sh.mu.Unlock()
		})
	}
}

func (m *Machine) shard(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return m.shards[h.Sum32()%shardCount]
}

func normalizeKey(key string) string {
	return strings.TrimSpace(key)
}
