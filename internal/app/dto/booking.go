package dto

import (
	"time"

	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
)

type BookingSummary struct {
	ID              string    `json:"id"`
	ListingID       string    `json:"listing_id"`
	ListingTitle    string    `json:"listing_title,omitempty"`
	ListingLocation string    `json:"listing_location,omitempty"`
	GuestID         string    `json:"guest_id"`
	CheckIn         string    `json:"check_in"`
	CheckOut        string    `json:"check_out"`
	Guests          int       `json:"guests"`
	TotalCents      int64     `json:"total_cents"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

type BookingCollection struct {
	Items []BookingSummary `json:"items"`
}

func MapBooking(b *domainbooking.Booking, listing *domainlistings.Listing) BookingSummary {
	summary := BookingSummary{
		ID:         string(b.ID),
		ListingID:  string(b.ListingID),
		GuestID:    b.GuestID,
		CheckIn:    b.Range.CheckIn.String(),
		CheckOut:   b.Range.CheckOut.String(),
		Guests:     b.Guests,
		TotalCents: b.Total.Amount,
		Currency:   b.Total.Currency,
		Status:     string(b.State),
		CreatedAt:  b.CreatedAt,
	}
	if listing != nil {
		summary.ListingTitle = listing.Title
		summary.ListingLocation = listing.Location
	}
	return summary
}
