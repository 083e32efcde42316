package availability

import (
	"context"

	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
)

// Oracle answers availability questions by re-deriving truth from the booking
// set. The unavailability ledger is a denormalized cache and is never
// consulted for conflict detection.
type Oracle struct {
	Bookings domainbooking.Repository
	Listings domainlistings.Repository
}

// IsAvailable reports whether the listing is free for the whole half-open
// range. A listing with zero active bookings is always available. Read-only
// and safe to call concurrently.
func (o Oracle) IsAvailable(ctx context.Context, listingID domainlistings.ListingID, dr daterange.DateRange) (bool, error) {
	active, err := o.Bookings.ListByListing(ctx, listingID, domainbooking.ActiveStates)
	if err != nil {
		return false, err
	}
	for _, b := range active {
		if b.Range.Overlaps(dr) {
			return false, nil
		}
	}
	return true, nil
}

// SearchParams narrow the candidate set before the per-listing availability scan.
type SearchParams struct {
	Range         daterange.DateRange
	MinGuests     int
	LocationQuery string
}

// SearchAvailable filters listings by capacity and optional location/title
// substring, then keeps only those free for the requested range, preserving
// the catalog's newest-first ordering.
//
// Cost is O(listings x bookings-per-listing); fine at this scale. A larger
// deployment would replace the scan with an interval index per listing while
// keeping these boolean semantics.
func (o Oracle) SearchAvailable(ctx context.Context, params SearchParams) ([]*domainlistings.Listing, error) {
	candidates, err := o.Listings.Search(ctx, domainlistings.SearchParams{
		MinGuests:     params.MinGuests,
		LocationQuery: params.LocationQuery,
	})
	if err != nil {
		return nil, err
	}
	matches := make([]*domainlistings.Listing, 0, len(candidates))
	for _, listing := range candidates {
		free, err := o.IsAvailable(ctx, listing.ID, params.Range)
		if err != nil {
			return nil, err
		}
		if free {
			matches = append(matches, listing)
		}
	}
	return matches, nil
}
