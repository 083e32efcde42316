package availability

import (
	"context"
	"errors"
	"strings"

	"staybook/internal/domain/booking"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
)

var (
	// ErrDateTaken is the (listing, date) uniqueness violation. Callers treat
	// it as non-fatal when expanding ranges and as a booking conflict when it
	// surfaces during reservation commit.
	ErrDateTaken = errors.New("availability: date already blocked")
	// ErrDateUnavailable is the booking-facing conflict: the requested range
	// overlaps an active booking.
	ErrDateUnavailable = errors.New("availability: requested dates are unavailable")
	// ErrBookingProtected guards booked entries from manual unblocking.
	ErrBookingProtected = errors.New("availability: entry belongs to a booking")
	ErrEntryNotFound    = errors.New("availability: entry not found")
)

// Reason tags why a calendar day is blocked.
type Reason string

const (
	ReasonBooked  Reason = "booked"
	ReasonBlocked Reason = "blocked"
)

// ParseReason normalizes caller-supplied labels for manual blocks. Empty
// input falls back to the manual block reason. The booked label is reserved
// for booking expansion, where entries carry the owning booking id; a caller
// claiming it is downgraded so the entry stays removable through UnblockDate.
func ParseReason(raw string) Reason {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" || Reason(label) == ReasonBooked {
		return ReasonBlocked
	}
	return Reason(label)
}

// Protected reports whether the reason ties the entry to a booking's lifetime.
func (r Reason) Protected() bool {
	return r == ReasonBooked
}

// Entry marks a single listing day as unavailable. At most one entry exists
// per (listing, date); booked entries always carry the owning booking id.
type Entry struct {
	ListingID listings.ListingID
	Date      daterange.Date
	Reason    Reason
	BookingID booking.BookingID
}

// Window optionally bounds ledger reads to [From, To). A zero Date on either
// side leaves that side unbounded.
type Window struct {
	From daterange.Date
	To   daterange.Date
}

// Contains reports whether the day falls inside the window.
func (w Window) Contains(d daterange.Date) bool {
	if !w.From.IsZero() && d.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !d.Before(w.To) {
		return false
	}
	return true
}

// Repository is the persistent unavailability ledger. Insert is
// insert-if-absent: a collision on (listing, date) reports ErrDateTaken,
// distinguishable from any other storage failure.
type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	// Delete removes a single entry unless its reason is booking-protected,
	// in which case ErrBookingProtected is returned and the entry survives.
	Delete(ctx context.Context, listingID listings.ListingID, date daterange.Date) error
	// DeleteByBooking removes every entry owned by the booking, regardless of
	// reason, and returns how many were removed.
	DeleteByBooking(ctx context.Context, listingID listings.ListingID, bookingID booking.BookingID) (int, error)
	// List returns the listing's entries inside the window, ascending by date.
	List(ctx context.Context, listingID listings.ListingID, window Window) ([]Entry, error)
	// ListBulk fans List out over several listings. Listings with no entries
	// are absent from the returned map.
	ListBulk(ctx context.Context, listingIDs []listings.ListingID, window Window) (map[listings.ListingID][]Entry, error)
}
