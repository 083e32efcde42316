package availability

import (
	"context"
	"testing"
	"time"

	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/infra/storage/memory"
)

func mustRange(t *testing.T, in, out string) daterange.DateRange {
	t.Helper()
	r, err := daterange.Parse(in, out)
	if err != nil {
		t.Fatalf("Parse(%s, %s): %v", in, out, err)
	}
	return r
}

func seedBooking(t *testing.T, repo *memory.BookingRepository, id string, dr daterange.DateRange, state domainbooking.BookingState) {
	t.Helper()
	err := repo.Save(context.Background(), &domainbooking.Booking{
		ID:        domainbooking.BookingID(id),
		ListingID: "l1",
		GuestID:   "g1",
		Range:     dr,
		Guests:    2,
		State:     state,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed booking %s: %v", id, err)
	}
}

func TestIsAvailableAgainstActiveBookings(t *testing.T) {
	bookings := memory.NewBookingRepository()
	oracle := Oracle{Bookings: bookings}
	ctx := context.Background()

	seedBooking(t, bookings, "b1", mustRange(t, "2027-08-10", "2027-08-13"), domainbooking.StateConfirmed)
	seedBooking(t, bookings, "b2", mustRange(t, "2027-08-20", "2027-08-22"), domainbooking.StateCancelled)

	cases := []struct {
		name string
		in   string
		out  string
		want bool
	}{
		{"overlapping one night", "2027-08-12", "2027-08-14", false},
		{"fully inside", "2027-08-11", "2027-08-12", false},
		{"checkout day adjacency", "2027-08-13", "2027-08-15", true},
		{"checkin day adjacency", "2027-08-08", "2027-08-10", true},
		{"cancelled booking ignored", "2027-08-20", "2027-08-22", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			free, err := oracle.IsAvailable(ctx, "l1", mustRange(t, c.in, c.out))
			if err != nil {
				t.Fatalf("IsAvailable: %v", err)
			}
			if free != c.want {
				t.Fatalf("IsAvailable(%s/%s) = %v, want %v", c.in, c.out, free, c.want)
			}
		})
	}
}

func TestIsAvailableWithNoBookings(t *testing.T) {
	oracle := Oracle{Bookings: memory.NewBookingRepository()}
	free, err := oracle.IsAvailable(context.Background(), "l1", mustRange(t, "2027-08-10", "2027-08-12"))
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if !free {
		t.Fatal("listing without bookings must be available")
	}
}

func TestSearchAvailableFiltersCapacityAndConflicts(t *testing.T) {
	listings := memory.NewListingRepository()
	bookings := memory.NewBookingRepository()
	oracle := Oracle{Bookings: bookings, Listings: listings}
	ctx := context.Background()
	base := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := []struct {
		id     domainlistings.ListingID
		guests int
	}{
		{"l1", 2},
		{"l2", 4},
		{"l3", 4},
	}
	for i, s := range seed {
		if err := listings.Save(ctx, &domainlistings.Listing{
			ID:          s.id,
			Host:        "h1",
			Title:       "Listing " + string(s.id),
			GuestsLimit: s.guests,
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("seed listing %s: %v", s.id, err)
		}
	}

	// l2 is booked over the searched range.
	if err := bookings.Save(ctx, &domainbooking.Booking{
		ID:        "b1",
		ListingID: "l2",
		GuestID:   "g1",
		Range:     mustRange(t, "2027-08-10", "2027-08-13"),
		Guests:    2,
		State:     domainbooking.StatePending,
		CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	got, err := oracle.SearchAvailable(ctx, SearchParams{
		Range:     mustRange(t, "2027-08-11", "2027-08-12"),
		MinGuests: 3,
	})
	if err != nil {
		t.Fatalf("SearchAvailable: %v", err)
	}
	if len(got) != 1 || got[0].ID != "l3" {
		names := make([]domainlistings.ListingID, 0, len(got))
		for _, l := range got {
			names = append(names, l.ID)
		}
		t.Fatalf("SearchAvailable = %v, want [l3]", names)
	}
}
