package dto

import (
	domainavailability "staybook/internal/domain/availability"
	domainlistings "staybook/internal/domain/listings"
)

type UnavailableDate struct {
	Date      string `json:"date"`
	Reason    string `json:"reason"`
	BookingID string `json:"booking_id,omitempty"`
}

type UnavailableDates struct {
	ListingID string            `json:"listing_id"`
	Dates     []UnavailableDate `json:"dates"`
}

// BulkUnavailability maps listing id to its blocked days. Listings without
// entries do not appear as keys.
type BulkUnavailability struct {
	Listings map[string][]UnavailableDate `json:"listings"`
}

func MapEntry(e domainavailability.Entry) UnavailableDate {
	return UnavailableDate{
		Date:      e.Date.String(),
		Reason:    string(e.Reason),
		BookingID: string(e.BookingID),
	}
}

func MapEntries(listingID domainlistings.ListingID, entries []domainavailability.Entry) UnavailableDates {
	out := UnavailableDates{ListingID: string(listingID), Dates: make([]UnavailableDate, 0, len(entries))}
	for _, e := range entries {
		out.Dates = append(out.Dates, MapEntry(e))
	}
	return out
}

func MapBulk(byListing map[domainlistings.ListingID][]domainavailability.Entry) BulkUnavailability {
	out := BulkUnavailability{Listings: make(map[string][]UnavailableDate, len(byListing))}
	for id, entries := range byListing {
		mapped := make([]UnavailableDate, 0, len(entries))
		for _, e := range entries {
			mapped = append(mapped, MapEntry(e))
		}
		out.Listings[string(id)] = mapped
	}
	return out
}
