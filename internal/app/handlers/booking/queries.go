package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"staybook/internal/app/dto"
	handlersupport "staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
)

const (
	listGuestBookingsKey   = "booking.list.guest"
	listListingBookingsKey = "booking.list.listing"
	listAllBookingsKey     = "booking.list.all"
)

type ListGuestBookingsQuery struct {
	GuestID string
}

func (q ListGuestBookingsQuery) Key() string { return listGuestBookingsKey }

type ListGuestBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListGuestBookingsHandler) Handle(ctx context.Context, q ListGuestBookingsQuery) (dto.BookingCollection, error) {
	guestID := strings.TrimSpace(q.GuestID)
	if guestID == "" {
		return dto.BookingCollection{}, errors.New("guest id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByGuest(execCtx, guestID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return mapBookings(execCtx, unit, bookings, h.Logger), nil
}

type ListListingBookingsQuery struct {
	ListingID string
}

func (q ListListingBookingsQuery) Key() string { return listListingBookingsKey }

type ListListingBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListListingBookingsHandler) Handle(ctx context.Context, q ListListingBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listingID := domainlistings.ListingID(q.ListingID)
	if _, err := unit.Listings().ByID(execCtx, listingID); err != nil {
		return dto.BookingCollection{}, err
	}
	bookings, err := unit.Bookings().ListByListing(execCtx, listingID, nil)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return mapBookings(execCtx, unit, bookings, h.Logger), nil
}

type ListAllBookingsQuery struct{}

func (q ListAllBookingsQuery) Key() string { return listAllBookingsKey }

type ListAllBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListAllBookingsHandler) Handle(ctx context.Context, q ListAllBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListAll(execCtx)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return mapBookings(execCtx, unit, bookings, h.Logger), nil
}

func mapBookings(ctx context.Context, unit uow.UnitOfWork, bookings []*domainbooking.Booking, logger *slog.Logger) dto.BookingCollection {
	cache := make(map[domainlistings.ListingID]*domainlistings.Listing)
	items := make([]dto.BookingSummary, 0, len(bookings))
	for _, b := range bookings {
		listing, ok := cache[b.ListingID]
		if !ok {
			var err error
			listing, err = unit.Listings().ByID(ctx, b.ListingID)
			if err != nil {
				if logger != nil && !errors.Is(err, domainlistings.ErrListingNotFound) {
					logger.Warn("listing lookup failed for booking", "booking_id", b.ID, "listing_id", b.ListingID, "error", err)
				}
				listing = nil
			}
			cache[b.ListingID] = listing
		}
		items = append(items, dto.MapBooking(b, listing))
	}
	return dto.BookingCollection{Items: items}
}

var _ queries.Handler[ListGuestBookingsQuery, dto.BookingCollection] = (*ListGuestBookingsHandler)(nil)
var _ queries.Handler[ListListingBookingsQuery, dto.BookingCollection] = (*ListListingBookingsHandler)(nil)
var _ queries.Handler[ListAllBookingsQuery, dto.BookingCollection] = (*ListAllBookingsHandler)(nil)
