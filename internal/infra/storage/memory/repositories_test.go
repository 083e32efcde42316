package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
)

func mustDate(t *testing.T, raw string) daterange.Date {
	t.Helper()
	d, err := daterange.ParseDate(raw)
	if err != nil {
		t.Fatalf("ParseDate(%s): %v", raw, err)
	}
	return d
}

func mustRange(t *testing.T, in, out string) daterange.DateRange {
	t.Helper()
	r, err := daterange.Parse(in, out)
	if err != nil {
		t.Fatalf("Parse(%s, %s): %v", in, out, err)
	}
	return r
}

func TestLedgerInsertFirstWriterWins(t *testing.T) {
	repo := NewLedgerRepository()
	ctx := context.Background()
	entry := domainavailability.Entry{
		ListingID: "l1",
		Date:      mustDate(t, "2027-06-10"),
		Reason:    domainavailability.ReasonBlocked,
	}
	if err := repo.Insert(ctx, entry); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := repo.Insert(ctx, domainavailability.Entry{
		ListingID: "l1",
		Date:      mustDate(t, "2027-06-10"),
		Reason:    domainavailability.ReasonBooked,
		BookingID: "b1",
	})
	if !errors.Is(err, domainavailability.ErrDateTaken) {
		t.Fatalf("second insert: want ErrDateTaken, got %v", err)
	}

	// Same date on another listing is a different key.
	if err := repo.Insert(ctx, domainavailability.Entry{
		ListingID: "l2",
		Date:      mustDate(t, "2027-06-10"),
		Reason:    domainavailability.ReasonBlocked,
	}); err != nil {
		t.Fatalf("insert other listing: %v", err)
	}
}

func TestLedgerDeleteProtectsBookedEntries(t *testing.T) {
	repo := NewLedgerRepository()
	ctx := context.Background()
	booked := domainavailability.Entry{
		ListingID: "l1",
		Date:      mustDate(t, "2027-06-10"),
		Reason:    domainavailability.ReasonBooked,
		BookingID: "b1",
	}
	manual := domainavailability.Entry{
		ListingID: "l1",
		Date:      mustDate(t, "2027-06-11"),
		Reason:    domainavailability.ReasonBlocked,
	}
	for _, e := range []domainavailability.Entry{booked, manual} {
		if err := repo.Insert(ctx, e); err != nil {
			t.Fatalf("insert %s: %v", e.Date, err)
		}
	}

	if err := repo.Delete(ctx, "l1", booked.Date); !errors.Is(err, domainavailability.ErrBookingProtected) {
		t.Fatalf("delete booked: want ErrBookingProtected, got %v", err)
	}
	if err := repo.Delete(ctx, "l1", manual.Date); err != nil {
		t.Fatalf("delete manual: %v", err)
	}
	if err := repo.Delete(ctx, "l1", manual.Date); !errors.Is(err, domainavailability.ErrEntryNotFound) {
		t.Fatalf("delete again: want ErrEntryNotFound, got %v", err)
	}

	// The booked entry survived the protected delete.
	entries, err := repo.List(ctx, "l1", domainavailability.Window{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].BookingID != "b1" {
		t.Fatalf("expected only the booked entry to survive, got %+v", entries)
	}
}

func TestLedgerDeleteByBooking(t *testing.T) {
	repo := NewLedgerRepository()
	ctx := context.Background()
	for _, raw := range []string{"2027-06-10", "2027-06-11", "2027-06-12"} {
		if err := repo.Insert(ctx, domainavailability.Entry{
			ListingID: "l1",
			Date:      mustDate(t, raw),
			Reason:    domainavailability.ReasonBooked,
			BookingID: "b1",
		}); err != nil {
			t.Fatalf("insert %s: %v", raw, err)
		}
	}
	if err := repo.Insert(ctx, domainavailability.Entry{
		ListingID: "l1",
		Date:      mustDate(t, "2027-06-20"),
		Reason:    domainavailability.ReasonBlocked,
	}); err != nil {
		t.Fatalf("insert manual: %v", err)
	}

	removed, err := repo.DeleteByBooking(ctx, "l1", "b1")
	if err != nil {
		t.Fatalf("DeleteByBooking: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}

	// An empty booking id never matches manual entries.
	removed, err = repo.DeleteByBooking(ctx, "l1", "")
	if err != nil {
		t.Fatalf("DeleteByBooking empty id: %v", err)
	}
	if removed != 0 {
		t.Fatalf("empty booking id removed %d entries", removed)
	}

	entries, err := repo.List(ctx, "l1", domainavailability.Window{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Reason != domainavailability.ReasonBlocked {
		t.Fatalf("expected the manual block to survive, got %+v", entries)
	}
}

func TestLedgerListWindowAndOrdering(t *testing.T) {
	repo := NewLedgerRepository()
	ctx := context.Background()
	for _, raw := range []string{"2027-06-14", "2027-06-10", "2027-06-12", "2027-06-20"} {
		if err := repo.Insert(ctx, domainavailability.Entry{
			ListingID: "l1",
			Date:      mustDate(t, raw),
			Reason:    domainavailability.ReasonBlocked,
		}); err != nil {
			t.Fatalf("insert %s: %v", raw, err)
		}
	}

	window := domainavailability.Window{
		From: mustDate(t, "2027-06-11"),
		To:   mustDate(t, "2027-06-20"),
	}
	entries, err := repo.List(ctx, "l1", window)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := make([]string, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.Date.String())
	}
	want := []string{"2027-06-12", "2027-06-14"}
	if len(got) != len(want) {
		t.Fatalf("window entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("window entries = %v, want %v", got, want)
		}
	}
}

func TestLedgerListBulkOmitsEmptyListings(t *testing.T) {
	repo := NewLedgerRepository()
	ctx := context.Background()
	if err := repo.Insert(ctx, domainavailability.Entry{
		ListingID: "l1",
		Date:      mustDate(t, "2027-06-10"),
		Reason:    domainavailability.ReasonBlocked,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	out, err := repo.ListBulk(ctx, []domainlistings.ListingID{"l1", "l2"}, domainavailability.Window{})
	if err != nil {
		t.Fatalf("ListBulk: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("bulk map size = %d, want 1", len(out))
	}
	if _, ok := out["l2"]; ok {
		t.Fatal("listing without entries must be absent from bulk result")
	}
	if len(out["l1"]) != 1 {
		t.Fatalf("l1 entries = %d, want 1", len(out["l1"]))
	}
}

func TestBookingListByListingFiltersStatesAndOrders(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	now := time.Now()

	seed := []struct {
		id    domainbooking.BookingID
		in    string
		out   string
		state domainbooking.BookingState
	}{
		{"b1", "2027-06-10", "2027-06-12", domainbooking.StatePending},
		{"b2", "2027-06-20", "2027-06-22", domainbooking.StateConfirmed},
		{"b3", "2027-06-15", "2027-06-17", domainbooking.StateCancelled},
	}
	for _, s := range seed {
		if err := repo.Save(ctx, &domainbooking.Booking{
			ID:        s.id,
			ListingID: "l1",
			GuestID:   "g1",
			Range:     mustRange(t, s.in, s.out),
			Guests:    2,
			State:     s.state,
			CreatedAt: now,
		}); err != nil {
			t.Fatalf("save %s: %v", s.id, err)
		}
	}

	active, err := repo.ListByListing(ctx, "l1", domainbooking.ActiveStates)
	if err != nil {
		t.Fatalf("ListByListing: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active = %d, want 2 (cancelled excluded)", len(active))
	}
	if active[0].ID != "b2" || active[1].ID != "b1" {
		t.Fatalf("order = [%s %s], want check-in descending [b2 b1]", active[0].ID, active[1].ID)
	}

	all, err := repo.ListByListing(ctx, "l1", nil)
	if err != nil {
		t.Fatalf("ListByListing all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all = %d, want 3", len(all))
	}
}

func TestListingSearchFilters(t *testing.T) {
	repo := NewListingRepository()
	ctx := context.Background()
	base := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := []struct {
		id       domainlistings.ListingID
		location string
		guests   int
		offset   time.Duration
	}{
		{"l1", "Lisbon", 2, 0},
		{"l2", "Porto", 4, time.Hour},
		{"l3", "Lisbon", 6, 2 * time.Hour},
	}
	for _, s := range seed {
		if err := repo.Save(ctx, &domainlistings.Listing{
			ID:          s.id,
			Host:        "h1",
			Title:       "Casa " + string(s.id),
			Location:    s.location,
			GuestsLimit: s.guests,
			CreatedAt:   base.Add(s.offset),
		}); err != nil {
			t.Fatalf("save %s: %v", s.id, err)
		}
	}

	got, err := repo.Search(ctx, domainlistings.SearchParams{MinGuests: 4})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 || got[0].ID != "l3" || got[1].ID != "l2" {
		t.Fatalf("capacity search returned %v, want [l3 l2] newest-first", ids(got))
	}

	got, err = repo.Search(ctx, domainlistings.SearchParams{LocationQuery: "lisbon"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("location search = %v, want two Lisbon listings", ids(got))
	}

	got, err = repo.Search(ctx, domainlistings.SearchParams{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "l2" {
		t.Fatalf("paged search = %v, want [l2]", ids(got))
	}
}

func ids(listings []*domainlistings.Listing) []domainlistings.ListingID {
	out := make([]domainlistings.ListingID, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}
