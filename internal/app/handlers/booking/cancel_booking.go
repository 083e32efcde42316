package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
)

const cancelBookingKey = "booking.cancel"

// ErrPartialCancellation reports that the status flip and the ledger release
// did not both succeed. An orphaned ledger entry blocks dates forever; an
// un-released booking risks double booking. Operators repair with the ledger
// rebuild command.
var ErrPartialCancellation = errors.New("booking: cancellation partially applied")

type CancelBookingCommand struct {
	BookingID string
	Reason    string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Released  int    `json:"released_nights"`
}

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
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

	booked, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	// Attempt both halves even when one fails: the failure modes are
	// asymmetric and both need surfacing.
	var statusErr error
	if err := booked.Cancel(cmd.Reason, now); err != nil {
		statusErr = err
	} else if err := unit.Bookings().Save(ctx, booked); err != nil {
		statusErr = err
	}

	released, releaseErr := unit.Ledger().DeleteByBooking(ctx, booked.ListingID, booked.ID)

	if statusErr != nil && releaseErr != nil {
		return nil, errors.Join(statusErr, releaseErr)
	}
	if statusErr != nil || releaseErr != nil {
		err := fmt.Errorf("%w: %w", ErrPartialCancellation, errors.Join(statusErr, releaseErr))
		if h.Logger != nil {
			h.Logger.Error("booking cancellation partially applied",
				"booking_id", booked.ID, "status_error", statusErr, "release_error", releaseErr)
		}
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

	return &CancelBookingResult{
		BookingID: string(booked.ID),
		Status:    string(booked.State),
		Released:  released,
	}, nil
}

func (h *CancelBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
