package dto

import (
	"time"

	domainlistings "staybook/internal/domain/listings"
)

type ListingSummary struct {
	ID               string    `json:"id"`
	HostID           string    `json:"host_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Location         string    `json:"location"`
	MaxGuests        int       `json:"max_guests"`
	Bedrooms         int       `json:"bedrooms"`
	Bathrooms        int       `json:"bathrooms"`
	Amenities        []string  `json:"amenities"`
	Images           []string  `json:"images"`
	Lat              float64   `json:"latitude,omitempty"`
	Lon              float64   `json:"longitude,omitempty"`
	NightlyRateCents int64     `json:"nightly_rate_cents"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type ListingCollection struct {
	Items []ListingSummary `json:"items"`
}

type SearchDates struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

// AvailableListing is a catalog entry returned from an availability search.
type AvailableListing struct {
	ListingSummary
	Available   bool        `json:"available"`
	SearchDates SearchDates `json:"search_dates"`
}

type AvailableListingCollection struct {
	Items []AvailableListing `json:"items"`
}

func MapListing(l *domainlistings.Listing) ListingSummary {
	if l == nil {
		return ListingSummary{}
	}
	return ListingSummary{
		ID:               string(l.ID),
		HostID:           string(l.Host),
		Title:            l.Title,
		Description:      l.Description,
		Location:         l.Location,
		MaxGuests:        l.GuestsLimit,
		Bedrooms:         l.Bedrooms,
		Bathrooms:        l.Bathrooms,
		Amenities:        append([]string(nil), l.Amenities...),
		Images:           append([]string(nil), l.Images...),
		Lat:              l.Lat,
		Lon:              l.Lon,
		NightlyRateCents: l.NightlyRateCents,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

func MapListings(items []*domainlistings.Listing) ListingCollection {
	out := ListingCollection{Items: make([]ListingSummary, 0, len(items))}
	for _, l := range items {
		out.Items = append(out.Items, MapListing(l))
	}
	return out
}
