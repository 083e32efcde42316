package ledger

import (
	"context"
	"testing"
	"time"

	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
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

func TestBlockDateReportsExistingEntryWithoutError(t *testing.T) {
	repo := memory.NewLedgerRepository()
	ctx := context.Background()
	entry := domainavailability.Entry{
		ListingID: "l1",
		Date:      mustRange(t, "2027-07-01", "2027-07-02").CheckIn,
		Reason:    domainavailability.ReasonBlocked,
	}

	inserted, err := BlockDate(ctx, repo, entry)
	if err != nil || !inserted {
		t.Fatalf("first block: inserted=%v err=%v", inserted, err)
	}
	inserted, err = BlockDate(ctx, repo, entry)
	if err != nil {
		t.Fatalf("repeat block: %v", err)
	}
	if inserted {
		t.Fatal("repeat block must report no insertion")
	}
}

func TestBlockRangeSkipsTakenNights(t *testing.T) {
	repo := memory.NewLedgerRepository()
	ctx := context.Background()
	dr := mustRange(t, "2027-07-01", "2027-07-05")

	// Pre-block one night in the middle of the range.
	taken := dr.CheckIn.AddDays(2)
	if err := repo.Insert(ctx, domainavailability.Entry{
		ListingID: "l1",
		Date:      taken,
		Reason:    domainavailability.ReasonBlocked,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	inserted, skipped, err := BlockRange(ctx, repo, "l1", dr, domainavailability.ReasonBlocked, "")
	if err != nil {
		t.Fatalf("BlockRange: %v", err)
	}
	if inserted != 3 {
		t.Fatalf("inserted = %d, want 3", inserted)
	}
	if len(skipped) != 1 || !skipped[0].Equal(taken) {
		t.Fatalf("skipped = %v, want [%s]", skipped, taken)
	}

	entries, err := repo.List(ctx, "l1", domainavailability.Window{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// Four nights total and no entry for the checkout day.
	if len(entries) != 4 {
		t.Fatalf("ledger entries = %d, want 4", len(entries))
	}
	for _, e := range entries {
		if e.Date.Equal(dr.CheckOut) {
			t.Fatal("checkout day must never be blocked")
		}
	}
}

func TestRebuildRederivesBookedEntries(t *testing.T) {
	ledgerRepo := memory.NewLedgerRepository()
	bookings := memory.NewBookingRepository()
	ctx := context.Background()
	now := time.Now()

	active := &domainbooking.Booking{
		ID:        "b1",
		ListingID: "l1",
		GuestID:   "g1",
		Range:     mustRange(t, "2027-07-01", "2027-07-04"),
		Guests:    2,
		State:     domainbooking.StateConfirmed,
		CreatedAt: now,
	}
	cancelled := &domainbooking.Booking{
		ID:        "b2",
		ListingID: "l1",
		GuestID:   "g2",
		Range:     mustRange(t, "2027-07-10", "2027-07-12"),
		Guests:    2,
		State:     domainbooking.StateCancelled,
		CreatedAt: now,
	}
	for _, b := range []*domainbooking.Booking{active, cancelled} {
		if err := bookings.Save(ctx, b); err != nil {
			t.Fatalf("save %s: %v", b.ID, err)
		}
	}

	// Simulate drift: a stale booked entry for the cancelled booking and a
	// manual host block that the rebuild must leave alone.
	if err := ledgerRepo.Insert(ctx, domainavailability.Entry{
		ListingID: "l1",
		Date:      cancelled.Range.CheckIn,
		Reason:    domainavailability.ReasonBooked,
		BookingID: cancelled.ID,
	}); err != nil {
		t.Fatalf("seed stale: %v", err)
	}
	if err := ledgerRepo.Insert(ctx, domainavailability.Entry{
		ListingID: "l1",
		Date:      mustRange(t, "2027-07-20", "2027-07-21").CheckIn,
		Reason:    domainavailability.ReasonBlocked,
	}); err != nil {
		t.Fatalf("seed manual: %v", err)
	}

	restored, err := Rebuild(ctx, ledgerRepo, bookings, "l1")
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if restored != 3 {
		t.Fatalf("restored = %d, want 3 nights of the active booking", restored)
	}

	entries, err := ledgerRepo.List(ctx, "l1", domainavailability.Window{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	booked := 0
	manual := 0
	for _, e := range entries {
		switch {
		case e.Reason == domainavailability.ReasonBooked && e.BookingID == active.ID:
			booked++
		case e.Reason == domainavailability.ReasonBlocked:
			manual++
		case e.BookingID == cancelled.ID:
			t.Fatalf("stale entry for cancelled booking survived: %+v", e)
		}
	}
	if booked != 3 || manual != 1 {
		t.Fatalf("booked=%d manual=%d, want 3 and 1", booked, manual)
	}
}
