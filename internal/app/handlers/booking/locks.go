package booking

import (
	"sync"

	domainlistings "staybook/internal/domain/listings"
)

// ListingLocks serializes booking creation per listing. The persistent store's
// transaction plus the ledger's (listing, date) uniqueness already guarantee a
// single winner; this mutex gives the in-memory deployment the same property
// and keeps the check-then-act window closed regardless of backend.
type ListingLocks struct {
	mu    sync.Mutex
	locks map[domainlistings.ListingID]*sync.Mutex
}

func NewListingLocks() *ListingLocks {
	return &ListingLocks{locks: make(map[domainlistings.ListingID]*sync.Mutex)}
}

// Acquire locks the listing and returns the unlock function.
func (l *ListingLocks) Acquire(id domainlistings.ListingID) func() {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[id] = lock
	}
	l.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}
