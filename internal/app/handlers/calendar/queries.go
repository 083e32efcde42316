package calendar

import (
	"context"

	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	availsvc "staybook/internal/app/services/availability"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
)

const (
	unavailabilityKey     = "calendar.unavailable"
	bulkUnavailabilityKey = "calendar.unavailable.bulk"
	checkAvailabilityKey  = "calendar.check"
)

// UnavailabilityQuery lists a listing's blocked days, optionally windowed.
type UnavailabilityQuery struct {
	ListingID string
	Window    domainavailability.Window
}

func (q UnavailabilityQuery) Key() string { return unavailabilityKey }

type UnavailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UnavailabilityHandler) Handle(ctx context.Context, query UnavailabilityQuery) (*dto.UnavailableDates, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listingID := domainlistings.ListingID(query.ListingID)
	if _, err := unit.Listings().ByID(execCtx, listingID); err != nil {
		return nil, err
	}
	entries, err := unit.Ledger().List(execCtx, listingID, query.Window)
	if err != nil {
		return nil, err
	}
	result := dto.MapEntries(listingID, entries)
	return &result, nil
}

// BulkUnavailabilityQuery fans the ledger read out over several listings in a
// single round trip. Unknown listing ids are simply absent from the result,
// like listings with an empty calendar.
type BulkUnavailabilityQuery struct {
	ListingIDs []string
	Window     domainavailability.Window
}

func (q BulkUnavailabilityQuery) Key() string { return bulkUnavailabilityKey }

type BulkUnavailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *BulkUnavailabilityHandler) Handle(ctx context.Context, query BulkUnavailabilityQuery) (*dto.BulkUnavailability, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	ids := make([]domainlistings.ListingID, 0, len(query.ListingIDs))
	seen := make(map[domainlistings.ListingID]struct{}, len(query.ListingIDs))
	for _, raw := range query.ListingIDs {
		id := domainlistings.ListingID(raw)
		if _, dup := seen[id]; dup || raw == "" {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	byListing, err := unit.Ledger().ListBulk(execCtx, ids, query.Window)
	if err != nil {
		return nil, err
	}
	result := dto.MapBulk(byListing)
	return &result, nil
}

// CheckAvailabilityQuery asks whether a listing is free for a range. The
// answer is derived from active bookings, not the ledger.
type CheckAvailabilityQuery struct {
	ListingID string
	CheckIn   daterange.Date
	CheckOut  daterange.Date
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityResult struct {
	ListingID string `json:"listing_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Available bool   `json:"available"`
}

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, query CheckAvailabilityQuery) (*CheckAvailabilityResult, error) {
	dr, err := daterange.New(query.CheckIn, query.CheckOut)
	if err != nil {
		return nil, err
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listingID := domainlistings.ListingID(query.ListingID)
	if _, err := unit.Listings().ByID(execCtx, listingID); err != nil {
		return nil, err
	}
	oracle := availsvc.Oracle{Bookings: unit.Bookings(), Listings: unit.Listings()}
	free, err := oracle.IsAvailable(execCtx, listingID, dr)
	if err != nil {
		return nil, err
	}
	return &CheckAvailabilityResult{
		ListingID: query.ListingID,
		CheckIn:   dr.CheckIn.String(),
		CheckOut:  dr.CheckOut.String(),
		Available: free,
	}, nil
}

var _ queries.Handler[UnavailabilityQuery, *dto.UnavailableDates] = (*UnavailabilityHandler)(nil)
var _ queries.Handler[BulkUnavailabilityQuery, *dto.BulkUnavailability] = (*BulkUnavailabilityHandler)(nil)
var _ queries.Handler[CheckAvailabilityQuery, *CheckAvailabilityResult] = (*CheckAvailabilityHandler)(nil)
