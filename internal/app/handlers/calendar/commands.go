package calendar

import (
	"context"
	"errors"

	"staybook/internal/app/commands"
	"staybook/internal/app/handlers/support"
	ledgersvc "staybook/internal/app/services/ledger"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
)

const (
	blockDateKey   = "calendar.block.date"
	blockRangeKey  = "calendar.block.range"
	unblockDateKey = "calendar.unblock.date"
)

// BlockDateCommand marks a single day unavailable. First writer wins; the
// result reports whether an entry was actually inserted.
type BlockDateCommand struct {
	ListingID string
	Date      daterange.Date
	Reason    string
}

func (c BlockDateCommand) Key() string { return blockDateKey }

type BlockDateResult struct {
	Inserted bool `json:"inserted"`
}

type BlockDateHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *BlockDateHandler) Handle(ctx context.Context, cmd BlockDateCommand) (*BlockDateResult, error) {
	unit, execCtx, done, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}

	listingID := domainlistings.ListingID(cmd.ListingID)
	if _, err := unit.Listings().ByID(execCtx, listingID); err != nil {
		done(err)
		return nil, err
	}
	inserted, err := ledgersvc.BlockDate(execCtx, unit.Ledger(), domainavailability.Entry{
		ListingID: listingID,
		Date:      cmd.Date,
		Reason:    domainavailability.ParseReason(cmd.Reason),
	})
	if err := done(err); err != nil {
		return nil, err
	}
	return &BlockDateResult{Inserted: inserted}, nil
}

// BlockRangeCommand expands [CheckIn, CheckOut) into nightly entries.
type BlockRangeCommand struct {
	ListingID string
	CheckIn   daterange.Date
	CheckOut  daterange.Date
	Reason    string
}

func (c BlockRangeCommand) Key() string { return blockRangeKey }

type BlockRangeResult struct {
	Inserted int      `json:"inserted"`
	Skipped  []string `json:"skipped,omitempty"`
}

type BlockRangeHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *BlockRangeHandler) Handle(ctx context.Context, cmd BlockRangeCommand) (*BlockRangeResult, error) {
	dr, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	unit, execCtx, done, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}

	listingID := domainlistings.ListingID(cmd.ListingID)
	if _, err := unit.Listings().ByID(execCtx, listingID); err != nil {
		done(err)
		return nil, err
	}
	inserted, taken, err := ledgersvc.BlockRange(execCtx, unit.Ledger(), listingID, dr, domainavailability.ParseReason(cmd.Reason), "")
	if err := done(err); err != nil {
		return nil, err
	}
	skipped := make([]string, 0, len(taken))
	for _, d := range taken {
		skipped = append(skipped, d.String())
	}
	return &BlockRangeResult{Inserted: inserted, Skipped: skipped}, nil
}

// UnblockDateCommand removes a manual block. Booking-owned entries are
// immune: they only disappear through booking cancellation.
type UnblockDateCommand struct {
	ListingID string
	Date      daterange.Date
}

func (c UnblockDateCommand) Key() string { return unblockDateKey }

type UnblockDateResult struct {
	Removed bool `json:"removed"`
}

type UnblockDateHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UnblockDateHandler) Handle(ctx context.Context, cmd UnblockDateCommand) (*UnblockDateResult, error) {
	unit, execCtx, done, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}

	listingID := domainlistings.ListingID(cmd.ListingID)
	if _, err := unit.Listings().ByID(execCtx, listingID); err != nil {
		done(err)
		return nil, err
	}
	err = unit.Ledger().Delete(execCtx, listingID, cmd.Date)
	removed := err == nil
	// A protected or absent entry is a no-op for the caller, matching the
	// delete-where-reason-not-booked contract.
	if errors.Is(err, domainavailability.ErrBookingProtected) || errors.Is(err, domainavailability.ErrEntryNotFound) {
		err = nil
	}
	if err := done(err); err != nil {
		return nil, err
	}
	return &UnblockDateResult{Removed: removed}, nil
}

var _ commands.Handler[BlockDateCommand, *BlockDateResult] = (*BlockDateHandler)(nil)
var _ commands.Handler[BlockRangeCommand, *BlockRangeResult] = (*BlockRangeHandler)(nil)
var _ commands.Handler[UnblockDateCommand, *UnblockDateResult] = (*UnblockDateHandler)(nil)
