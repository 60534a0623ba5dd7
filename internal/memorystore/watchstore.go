package memorystore

import (
	"sort"
	"sync"
)

// WatchStore is the in-memory alert registry, sharded per chat.
type WatchStore struct {
	globalMu sync.RWMutex
	data     map[int64]*chatWatchStore
	nextID   uint64
}

type chatWatchStore struct {
	mu      sync.Mutex
	watches []Watch
}

func NewWatchStore() *WatchStore {
	return &WatchStore{
		data: make(map[int64]*chatWatchStore),
	}
}

func (s *WatchStore) chat(chatID int64) *chatWatchStore {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()
	return s.data[chatID]
}

// Add registers w and returns it with its ID set.
func (s *WatchStore) Add(w Watch) Watch {
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	s.nextID++
	w.ID = s.nextID

	store, ok := s.data[w.ChatID]
	if !ok {
		store = &chatWatchStore{}
		s.data[w.ChatID] = store
	}

	store.mu.Lock()
	store.watches = append(store.watches, w)
	store.mu.Unlock()
	return w
}

// GetByChat returns a copy of the chat's watches in registration order.
func (s *WatchStore) GetByChat(chatID int64) []Watch {
	store := s.chat(chatID)
	if store == nil {
		return nil
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	cp := make([]Watch, len(store.watches))
	copy(cp, store.watches)
	return cp
}

// RemoveChat drops every watch of the chat and returns how many were removed.
// The shard is emptied as well, so a Take already holding it cannot return
// the removed watches.
func (s *WatchStore) RemoveChat(chatID int64) int {
	s.globalMu.Lock()
	store, ok := s.data[chatID]
	delete(s.data, chatID)
	s.globalMu.Unlock()
	if !ok {
		return 0
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	n := len(store.watches)
	store.watches = nil
	return n
}

// Take removes and returns every watch for which match is true, ordered by ID.
// A watch is returned by at most one Take call.
func (s *WatchStore) Take(match func(Watch) bool) []Watch {
	s.globalMu.RLock()
	stores := make([]*chatWatchStore, 0, len(s.data))
	for _, store := range s.data {
		stores = append(stores, store)
	}
	s.globalMu.RUnlock()

	var taken []Watch
	for _, store := range stores {
		store.mu.Lock()
		kept := store.watches[:0]
		for _, w := range store.watches {
			if match(w) {
				taken = append(taken, w)
			} else {
				kept = append(kept, w)
			}
		}
		store.watches = kept
		store.mu.Unlock()
	}

	sort.Slice(taken, func(i, j int) bool { return taken[i].ID < taken[j].ID })
	return taken
}

// CountAll returns the total number of watches across all chats.
func (s *WatchStore) CountAll() int {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	total := 0
	for _, store := range s.data {
		store.mu.Lock()
		total += len(store.watches)
		store.mu.Unlock()
	}
	return total
}
