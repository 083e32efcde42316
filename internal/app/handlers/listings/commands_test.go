package listings

import (
	"context"
	"errors"
	"testing"

	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/infra/storage/memory"
)

func newFactory() (memory.Factory, *memory.ListingRepository) {
	repo := memory.NewListingRepository()
	return memory.Factory{
		ListingsRepo: repo,
		BookingRepo:  memory.NewBookingRepository(),
		LedgerRepo:   memory.NewLedgerRepository(),
	}, repo
}

func validInput() ListingInput {
	return ListingInput{
		Title:            "Canal house",
		Description:      "Two floors on the water",
		Location:         "Amsterdam",
		GuestsLimit:      4,
		NightlyRateCents: 21000,
	}
}

func TestCreateListing(t *testing.T) {
	factory, repo := newFactory()
	handler := &CreateListingHandler{UoWFactory: factory}
	ctx := context.Background()

	result, err := handler.Handle(ctx, CreateListingCommand{HostID: "h1", Input: validInput()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	stored, err := repo.ByID(ctx, domainlistings.ListingID(result.ListingID))
	if err != nil {
		t.Fatalf("listing not persisted: %v", err)
	}
	if stored.Host != "h1" || stored.Title != "Canal house" {
		t.Fatalf("stored = %+v", stored)
	}

	input := validInput()
	input.Title = "  "
	if _, err := handler.Handle(ctx, CreateListingCommand{HostID: "h1", Input: input}); !errors.Is(err, domainlistings.ErrTitleRequired) {
		t.Fatalf("blank title: want ErrTitleRequired, got %v", err)
	}

	input = validInput()
	input.GuestsLimit = 0
	if _, err := handler.Handle(ctx, CreateListingCommand{HostID: "h1", Input: input}); !errors.Is(err, domainlistings.ErrGuestsLimit) {
		t.Fatalf("zero guests: want ErrGuestsLimit, got %v", err)
	}
}

func TestUpdateListingEnforcesOwnership(t *testing.T) {
	factory, repo := newFactory()
	ctx := context.Background()

	created, err := (&CreateListingHandler{UoWFactory: factory}).Handle(ctx, CreateListingCommand{HostID: "h1", Input: validInput()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	update := &UpdateListingHandler{UoWFactory: factory}
	input := validInput()
	input.Title = "Canal house deluxe"
	input.GuestsLimit = 6

	if _, err := update.Handle(ctx, UpdateListingCommand{ListingID: created.ListingID, HostID: "intruder", Input: input}); !errors.Is(err, domainlistings.ErrNotOwner) {
		t.Fatalf("foreign host: want ErrNotOwner, got %v", err)
	}

	if _, err := update.Handle(ctx, UpdateListingCommand{ListingID: created.ListingID, HostID: "h1", Input: input}); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, err := repo.ByID(ctx, domainlistings.ListingID(created.ListingID))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Title != "Canal house deluxe" || stored.GuestsLimit != 6 {
		t.Fatalf("update not applied: %+v", stored)
	}

	if _, err := update.Handle(ctx, UpdateListingCommand{ListingID: "missing", HostID: "h1", Input: input}); !errors.Is(err, domainlistings.ErrListingNotFound) {
		t.Fatalf("missing listing: want ErrListingNotFound, got %v", err)
	}
}

func TestDeleteListingEnforcesOwnership(t *testing.T) {
	factory, repo := newFactory()
	ctx := context.Background()

	created, err := (&CreateListingHandler{UoWFactory: factory}).Handle(ctx, CreateListingCommand{HostID: "h1", Input: validInput()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	del := &DeleteListingHandler{UoWFactory: factory}
	if _, err := del.Handle(ctx, DeleteListingCommand{ListingID: created.ListingID, HostID: "intruder"}); !errors.Is(err, domainlistings.ErrNotOwner) {
		t.Fatalf("foreign host: want ErrNotOwner, got %v", err)
	}
	if _, err := del.Handle(ctx, DeleteListingCommand{ListingID: created.ListingID, HostID: "h1"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.ByID(ctx, domainlistings.ListingID(created.ListingID)); !errors.Is(err, domainlistings.ErrListingNotFound) {
		t.Fatalf("listing survived delete: %v", err)
	}
}
