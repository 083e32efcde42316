package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
)

// ListingRepository is the in-memory listing catalog. Safe for concurrent use.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrListingNotFound
	}
	return listing, nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing.Version++
	r.items[listing.ID] = listing
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainlistings.ErrListingNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *ListingRepository) ListByHost(ctx context.Context, host domainlistings.HostID) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainlistings.Listing, 0)
	for _, listing := range r.items {
		if listing.Host == host {
			matches = append(matches, listing)
		}
	}
	sortNewestFirst(matches)
	return matches, nil
}

// Search applies the capacity, host and location filters, ordered newest
// created first.
func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainlistings.Listing, 0, len(r.items))
	for _, listing := range r.items {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if opts.Host != "" && listing.Host != opts.Host {
			continue
		}
		if opts.MinGuests > 0 && listing.GuestsLimit < opts.MinGuests {
			continue
		}
		if !listing.MatchesLocation(opts.LocationQuery) {
			continue
		}
		matches = append(matches, listing)
	}
	sortNewestFirst(matches)

	total := len(matches)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}
	return matches[start:end], nil
}

func sortNewestFirst(items []*domainlistings.Listing) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// BookingRepository stores bookings in memory with optimistic version bumps.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return booking, nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking.Version++
	r.items[booking.ID] = booking
	return nil
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID, states []domainbooking.BookingState) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.ListingID != listingID {
			continue
		}
		if len(states) > 0 && !stateIncluded(booking.State, states) {
			continue
		}
		matches = append(matches, booking)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[j].Range.CheckIn.Before(matches[i].Range.CheckIn)
	})
	return matches, nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id := strings.TrimSpace(guestID)
	if id == "" {
		return nil, errors.New("memory: guest id required")
	}
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.GuestID == id {
			matches = append(matches, booking)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *BookingRepository) ListAll(ctx context.Context) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0, len(r.items))
	for _, booking := range r.items {
		matches = append(matches, booking)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func stateIncluded(state domainbooking.BookingState, allowed []domainbooking.BookingState) bool {
	for _, candidate := range allowed {
		if state == candidate {
			return true
		}
	}
	return false
}

// LedgerRepository keeps the unavailability ledger in memory. Insert is
// atomic insert-if-absent under the repository mutex, which gives this
// backend the same first-writer-wins guarantee the mongo unique index does.
type LedgerRepository struct {
	mu      sync.RWMutex
	entries map[ledgerKey]domainavailability.Entry
}

type ledgerKey struct {
	listing domainlistings.ListingID
	date    string
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{entries: make(map[ledgerKey]domainavailability.Entry)}
}

func (r *LedgerRepository) Insert(ctx context.Context, entry domainavailability.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ledgerKey{listing: entry.ListingID, date: entry.Date.String()}
	if _, taken := r.entries[key]; taken {
		return domainavailability.ErrDateTaken
	}
	r.entries[key] = entry
	return nil
}

func (r *LedgerRepository) Delete(ctx context.Context, listingID domainlistings.ListingID, date daterange.Date) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ledgerKey{listing: listingID, date: date.String()}
	entry, ok := r.entries[key]
	if !ok {
		return domainavailability.ErrEntryNotFound
	}
	if entry.Reason.Protected() {
		return domainavailability.ErrBookingProtected
	}
	delete(r.entries, key)
	return nil
}

func (r *LedgerRepository) DeleteByBooking(ctx context.Context, listingID domainlistings.ListingID, bookingID domainbooking.BookingID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, entry := range r.entries {
		if key.listing == listingID && entry.BookingID == bookingID && bookingID != "" {
			delete(r.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (r *LedgerRepository) List(ctx context.Context, listingID domainlistings.ListingID, window domainavailability.Window) ([]domainavailability.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked(listingID, window), nil
}

func (r *LedgerRepository) ListBulk(ctx context.Context, listingIDs []domainlistings.ListingID, window domainavailability.Window) (map[domainlistings.ListingID][]domainavailability.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domainlistings.ListingID][]domainavailability.Entry, len(listingIDs))
	for _, id := range listingIDs {
		entries := r.listLocked(id, window)
		if len(entries) == 0 {
			continue
		}
		out[id] = entries
	}
	return out, nil
}

func (r *LedgerRepository) listLocked(listingID domainlistings.ListingID, window domainavailability.Window) []domainavailability.Entry {
	entries := make([]domainavailability.Entry, 0)
	for key, entry := range r.entries {
		if key.listing != listingID {
			continue
		}
		if !window.Contains(entry.Date) {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries
}
