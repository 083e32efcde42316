package listings

import (
	"context"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/commands"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/uow"
	domainlistings "staybook/internal/domain/listings"
)

const (
	createListingKey = "listings.create"
	updateListingKey = "listings.update"
	deleteListingKey = "listings.delete"
)

// ListingInput is the mutable listing surface shared by create and update.
type ListingInput struct {
	Title            string
	Description      string
	Location         string
	GuestsLimit      int
	Bedrooms         int
	Bathrooms        int
	Amenities        []string
	Images           []string
	Lat              float64
	Lon              float64
	NightlyRateCents int64
}

type CreateListingCommand struct {
	HostID string
	Input  ListingInput
}

func (c CreateListingCommand) Key() string { return createListingKey }

type CreateListingResult struct {
	ListingID string `json:"listing_id"`
}

type CreateListingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (*CreateListingResult, error) {
	unit, execCtx, done, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}

	listing, err := domainlistings.New(domainlistings.CreateParams{
		ID:               domainlistings.ListingID(uuid.NewString()),
		Host:             domainlistings.HostID(cmd.HostID),
		Title:            cmd.Input.Title,
		Description:      cmd.Input.Description,
		Location:         cmd.Input.Location,
		GuestsLimit:      cmd.Input.GuestsLimit,
		Bedrooms:         cmd.Input.Bedrooms,
		Bathrooms:        cmd.Input.Bathrooms,
		Amenities:        cmd.Input.Amenities,
		Images:           cmd.Input.Images,
		Lat:              cmd.Input.Lat,
		Lon:              cmd.Input.Lon,
		NightlyRateCents: cmd.Input.NightlyRateCents,
		Now:              time.Now(),
	})
	if err != nil {
		done(err)
		return nil, err
	}
	if err := done(unit.Listings().Save(execCtx, listing)); err != nil {
		return nil, err
	}
	return &CreateListingResult{ListingID: string(listing.ID)}, nil
}

type UpdateListingCommand struct {
	ListingID string
	HostID    string
	Input     ListingInput
}

func (c UpdateListingCommand) Key() string { return updateListingKey }

type UpdateListingResult struct {
	ListingID string `json:"listing_id"`
}

type UpdateListingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UpdateListingHandler) Handle(ctx context.Context, cmd UpdateListingCommand) (*UpdateListingResult, error) {
	unit, execCtx, done, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		done(err)
		return nil, err
	}
	if !listing.OwnedBy(domainlistings.HostID(cmd.HostID)) {
		done(domainlistings.ErrNotOwner)
		return nil, domainlistings.ErrNotOwner
	}
	if err := listing.Update(domainlistings.UpdateParams{
		Title:            cmd.Input.Title,
		Description:      cmd.Input.Description,
		Location:         cmd.Input.Location,
		GuestsLimit:      cmd.Input.GuestsLimit,
		Bedrooms:         cmd.Input.Bedrooms,
		Bathrooms:        cmd.Input.Bathrooms,
		Amenities:        cmd.Input.Amenities,
		Images:           cmd.Input.Images,
		Lat:              cmd.Input.Lat,
		Lon:              cmd.Input.Lon,
		NightlyRateCents: cmd.Input.NightlyRateCents,
		Now:              time.Now(),
	}); err != nil {
		done(err)
		return nil, err
	}
	if err := done(unit.Listings().Save(execCtx, listing)); err != nil {
		return nil, err
	}
	return &UpdateListingResult{ListingID: cmd.ListingID}, nil
}

type DeleteListingCommand struct {
	ListingID string
	HostID    string
}

func (c DeleteListingCommand) Key() string { return deleteListingKey }

type DeleteListingResult struct {
	ListingID string `json:"listing_id"`
}

type DeleteListingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *DeleteListingHandler) Handle(ctx context.Context, cmd DeleteListingCommand) (*DeleteListingResult, error) {
	unit, execCtx, done, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		done(err)
		return nil, err
	}
	if !listing.OwnedBy(domainlistings.HostID(cmd.HostID)) {
		done(domainlistings.ErrNotOwner)
		return nil, domainlistings.ErrNotOwner
	}
	if err := done(unit.Listings().Delete(execCtx, listing.ID)); err != nil {
		return nil, err
	}
	return &DeleteListingResult{ListingID: cmd.ListingID}, nil
}

var _ commands.Handler[CreateListingCommand, *CreateListingResult] = (*CreateListingHandler)(nil)
var _ commands.Handler[UpdateListingCommand, *UpdateListingResult] = (*UpdateListingHandler)(nil)
var _ commands.Handler[DeleteListingCommand, *DeleteListingResult] = (*DeleteListingHandler)(nil)
