package ledger

import (
	"context"
	"errors"
	"fmt"

	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
)

// BlockDate inserts a single-day entry. First writer wins: an existing entry
// for the same (listing, date) is left untouched and the call reports that no
// insertion occurred.
func BlockDate(ctx context.Context, repo domainavailability.Repository, entry domainavailability.Entry) (bool, error) {
	err := repo.Insert(ctx, entry)
	if errors.Is(err, domainavailability.ErrDateTaken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// BlockRange expands the range into one entry per night. A uniqueness
// collision on one night skips that night and continues; any other storage
// error aborts the remaining nights. Returns the inserted count and the
// dates that were already taken.
func BlockRange(
	ctx context.Context,
	repo domainavailability.Repository,
	listingID domainlistings.ListingID,
	dr daterange.DateRange,
	reason domainavailability.Reason,
	bookingID domainbooking.BookingID,
) (int, []daterange.Date, error) {
	inserted := 0
	var taken []daterange.Date
	for _, night := range dr.Nights() {
		entry := domainavailability.Entry{
			ListingID: listingID,
			Date:      night,
			Reason:    reason,
			BookingID: bookingID,
		}
		err := repo.Insert(ctx, entry)
		switch {
		case errors.Is(err, domainavailability.ErrDateTaken):
			taken = append(taken, night)
		case err != nil:
			return inserted, taken, fmt.Errorf("block %s: %w", night, err)
		default:
			inserted++
		}
	}
	return inserted, taken, nil
}

// Rebuild drops every booked entry for the listing and re-derives them from
// the active booking set. The ledger is a cache of booking ranges, so this
// repair pass can run at any time.
func Rebuild(
	ctx context.Context,
	repo domainavailability.Repository,
	bookings domainbooking.Repository,
	listingID domainlistings.ListingID,
) (int, error) {
	active, err := bookings.ListByListing(ctx, listingID, domainbooking.ActiveStates)
	if err != nil {
		return 0, err
	}
	entries, err := repo.List(ctx, listingID, domainavailability.Window{})
	if err != nil {
		return 0, err
	}
	owners := make(map[domainbooking.BookingID]struct{})
	for _, e := range entries {
		if e.Reason.Protected() && e.BookingID != "" {
			owners[e.BookingID] = struct{}{}
		}
	}
	for owner := range owners {
		if _, err := repo.DeleteByBooking(ctx, listingID, owner); err != nil {
			return 0, err
		}
	}
	restored := 0
	for _, b := range active {
		n, _, err := BlockRange(ctx, repo, listingID, b.Range, domainavailability.ReasonBooked, b.ID)
		restored += n
		if err != nil {
			return restored, err
		}
	}
	return restored, nil
}
