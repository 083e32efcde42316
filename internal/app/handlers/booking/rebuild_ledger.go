package booking

import (
	"context"

	"staybook/internal/app/commands"
	ledgersvc "staybook/internal/app/services/ledger"
	"staybook/internal/app/uow"
	domainlistings "staybook/internal/domain/listings"
)

const rebuildLedgerKey = "booking.ledger.rebuild"

// RebuildLedgerCommand reconstructs the booked ledger entries for a listing
// from its booking set. Used to repair entries lost when ledger expansion
// failed after a booking was persisted, or orphans left by partial
// cancellations.
type RebuildLedgerCommand struct {
	ListingID string
}

func (c RebuildLedgerCommand) Key() string { return rebuildLedgerKey }

type RebuildLedgerResult struct {
	ListingID string `json:"listing_id"`
	Restored  int    `json:"restored_nights"`
}

type RebuildLedgerHandler struct {
	UoWFactory uow.UoWFactory
	Locks      *ListingLocks
}

func (h *RebuildLedgerHandler) Handle(ctx context.Context, cmd RebuildLedgerCommand) (*RebuildLedgerResult, error) {
	listingID := domainlistings.ListingID(cmd.ListingID)
	if h.Locks != nil {
		unlock := h.Locks.Acquire(listingID)
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

	if _, err := unit.Listings().ByID(ctx, listingID); err != nil {
		return nil, err
	}

	restored, err := ledgersvc.Rebuild(ctx, unit.Ledger(), unit.Bookings(), listingID)
	if err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &RebuildLedgerResult{ListingID: cmd.ListingID, Restored: restored}, nil
}

var _ commands.Handler[RebuildLedgerCommand, *RebuildLedgerResult] = (*RebuildLedgerHandler)(nil)
