package listings

import (
	"context"

	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	availsvc "staybook/internal/app/services/availability"
	"staybook/internal/app/uow"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
)

const (
	getListingKey      = "listings.get"
	listListingsKey    = "listings.list"
	hostListingsKey    = "listings.list.host"
	searchAvailableKey = "listings.search.available"
)

type GetListingQuery struct {
	ListingID string
}

func (q GetListingQuery) Key() string { return getListingKey }

type GetListingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetListingHandler) Handle(ctx context.Context, query GetListingQuery) (*dto.ListingSummary, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(query.ListingID))
	if err != nil {
		return nil, err
	}
	summary := dto.MapListing(listing)
	return &summary, nil
}

// ListListingsQuery pages through the catalog with optional capacity and
// location filters.
type ListListingsQuery struct {
	MinGuests     int
	LocationQuery string
	Limit         int
	Offset        int
}

func (q ListListingsQuery) Key() string { return listListingsKey }

type ListListingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListListingsHandler) Handle(ctx context.Context, query ListListingsQuery) (*dto.ListingCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Listings().Search(execCtx, domainlistings.SearchParams{
		MinGuests:     query.MinGuests,
		LocationQuery: query.LocationQuery,
		Limit:         query.Limit,
		Offset:        query.Offset,
	})
	if err != nil {
		return nil, err
	}
	collection := dto.MapListings(items)
	return &collection, nil
}

type HostListingsQuery struct {
	HostID string
}

func (q HostListingsQuery) Key() string { return hostListingsKey }

type HostListingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *HostListingsHandler) Handle(ctx context.Context, query HostListingsQuery) (*dto.ListingCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Listings().ListByHost(execCtx, domainlistings.HostID(query.HostID))
	if err != nil {
		return nil, err
	}
	collection := dto.MapListings(items)
	return &collection, nil
}

// SearchAvailableQuery finds listings free for the whole requested range,
// narrowed by capacity and an optional location substring.
type SearchAvailableQuery struct {
	CheckIn       daterange.Date
	CheckOut      daterange.Date
	MinGuests     int
	LocationQuery string
}

func (q SearchAvailableQuery) Key() string { return searchAvailableKey }

type SearchAvailableHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SearchAvailableHandler) Handle(ctx context.Context, query SearchAvailableQuery) (*dto.AvailableListingCollection, error) {
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

	oracle := availsvc.Oracle{Bookings: unit.Bookings(), Listings: unit.Listings()}
	matches, err := oracle.SearchAvailable(execCtx, availsvc.SearchParams{
		Range:         dr,
		MinGuests:     query.MinGuests,
		LocationQuery: query.LocationQuery,
	})
	if err != nil {
		return nil, err
	}
	dates := dto.SearchDates{CheckIn: dr.CheckIn.String(), CheckOut: dr.CheckOut.String()}
	out := dto.AvailableListingCollection{Items: make([]dto.AvailableListing, 0, len(matches))}
	for _, listing := range matches {
		out.Items = append(out.Items, dto.AvailableListing{
			ListingSummary: dto.MapListing(listing),
			Available:      true,
			SearchDates:    dates,
		})
	}
	return &out, nil
}

var _ queries.Handler[GetListingQuery, *dto.ListingSummary] = (*GetListingHandler)(nil)
var _ queries.Handler[ListListingsQuery, *dto.ListingCollection] = (*ListListingsHandler)(nil)
var _ queries.Handler[HostListingsQuery, *dto.ListingCollection] = (*HostListingsHandler)(nil)
var _ queries.Handler[SearchAvailableQuery, *dto.AvailableListingCollection] = (*SearchAvailableHandler)(nil)
