package booking

import (
	"context"
	"errors"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	availabilitysvc "staybook/internal/app/services/availability"
	ledgersvc "staybook/internal/app/services/ledger"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

const requestBookingKey = "booking.request"

var (
	ErrUnitOfWorkRequired = errors.New("booking: unit of work required")
	ErrCapacityExceeded   = errors.New("booking: guests exceed listing capacity")
)

type RequestBookingCommand struct {
	CommandID       string
	ListingID       string
	GuestID         string
	CheckIn         daterange.Date
	CheckOut        daterange.Date
	Guests          int
	TotalCents      int64
	Currency        string
	Confirmed       bool
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// RequestBookingHandler coordinates booking admission: availability recheck,
// booking persistence, and expansion into the unavailability ledger, all
// inside one unit of work.
type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Locks      *ListingLocks
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	if h.Locks != nil {
		unlock := h.Locks.Acquire(domainlistings.ListingID(cmd.ListingID))
		defer unlock()
	}

	unit, ok := uow.Current(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.Attach(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	dr, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := domainbooking.ValidateDateRange(dr, now); err != nil {
		return nil, err
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if cmd.Guests > listing.GuestsLimit {
		return nil, ErrCapacityExceeded
	}

	// Commit-time recheck. Truth is the booking set, not the ledger.
	oracle := availabilitysvc.Oracle{Bookings: unit.Bookings(), Listings: unit.Listings()}
	free, err := oracle.IsAvailable(ctx, listing.ID, dr)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, domainavailability.ErrDateUnavailable
	}

	total, err := resolveTotal(cmd, listing, dr)
	if err != nil {
		return nil, err
	}
	state := domainbooking.StatePending
	if cmd.Confirmed {
		state = domainbooking.StateConfirmed
	}
	booked, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(cmd.CommandID),
		ListingID: listing.ID,
		GuestID:   cmd.GuestID,
		Range:     dr,
		Guests:    cmd.Guests,
		Total:     total,
		State:     state,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	// Claim the nights before the booking row exists. Any night already taken
	// means a concurrent writer (or a host block) beat us: release what this
	// attempt inserted and surface the conflict. Compensation is explicit
	// rather than left to Rollback, so stores without transactional rollback
	// never keep a rejected booking or its partial nights.
	_, taken, err := ledgersvc.BlockRange(ctx, unit.Ledger(), listing.ID, dr, domainavailability.ReasonBooked, booked.ID)
	if err != nil {
		_, _ = unit.Ledger().DeleteByBooking(ctx, listing.ID, booked.ID)
		return nil, err
	}
	if len(taken) > 0 {
		if _, err := unit.Ledger().DeleteByBooking(ctx, listing.ID, booked.ID); err != nil {
			return nil, errors.Join(domainavailability.ErrDateUnavailable, err)
		}
		return nil, domainavailability.ErrDateUnavailable
	}

	if err := unit.Bookings().Save(ctx, booked); err != nil {
		_, _ = unit.Ledger().DeleteByBooking(ctx, listing.ID, booked.ID)
		return nil, err
	}

	pending := booked.PendingEvents()
	booked.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &RequestBookingResult{BookingID: string(booked.ID), Status: string(booked.State)}, nil
}

func resolveTotal(cmd RequestBookingCommand, listing *domainlistings.Listing, dr daterange.DateRange) (money.Money, error) {
	if cmd.TotalCents > 0 {
		return money.New(cmd.TotalCents, cmd.Currency)
	}
	nightly, err := money.New(listing.NightlyRateCents, cmd.Currency)
	if err != nil {
		return money.Money{}, err
	}
	return nightly.Multiply(int64(dr.NightsCount())), nil
}

func (h *RequestBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
