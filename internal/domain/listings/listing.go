package listings

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrListingNotFound = errors.New("listings: not found")
	ErrTitleRequired   = errors.New("listings: title is required")
	ErrHostRequired    = errors.New("listings: host is required")
	ErrGuestsLimit     = errors.New("listings: guests limit must be at least 1")
	ErrNightlyRate     = errors.New("listings: nightly rate must be non-negative")
	ErrNotOwner        = errors.New("listings: caller does not own the listing")
)

type ListingID string
type HostID string

// Listing is a bookable house. Amenities and image URLs are structured string
// slices rather than encoded blobs.
type Listing struct {
	ID               ListingID
	Host             HostID
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
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int64
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id ListingID) error
	ListByHost(ctx context.Context, host HostID) ([]*Listing, error)
	Search(ctx context.Context, params SearchParams) ([]*Listing, error)
}

type CreateParams struct {
	ID               ListingID
	Host             HostID
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
	Now              time.Time
}

func New(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, ErrHostRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.GuestsLimit < 1 {
		return nil, ErrGuestsLimit
	}
	if params.NightlyRateCents < 0 {
		return nil, ErrNightlyRate
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	bedrooms := params.Bedrooms
	if bedrooms < 1 {
		bedrooms = 1
	}
	bathrooms := params.Bathrooms
	if bathrooms < 1 {
		bathrooms = 1
	}

	return &Listing{
		ID:               params.ID,
		Host:             params.Host,
		Title:            strings.TrimSpace(params.Title),
		Description:      strings.TrimSpace(params.Description),
		Location:         strings.TrimSpace(params.Location),
		GuestsLimit:      params.GuestsLimit,
		Bedrooms:         bedrooms,
		Bathrooms:        bathrooms,
		Amenities:        append([]string(nil), params.Amenities...),
		Images:           append([]string(nil), params.Images...),
		Lat:              params.Lat,
		Lon:              params.Lon,
		NightlyRateCents: params.NightlyRateCents,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

type UpdateParams struct {
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
	Now              time.Time
}

// Update replaces the mutable fields. Ownership is checked by the caller
// against Host before invoking.
func (l *Listing) Update(params UpdateParams) error {
	if strings.TrimSpace(params.Title) == "" {
		return ErrTitleRequired
	}
	if params.GuestsLimit < 1 {
		return ErrGuestsLimit
	}
	if params.NightlyRateCents < 0 {
		return ErrNightlyRate
	}
	l.Title = strings.TrimSpace(params.Title)
	l.Description = strings.TrimSpace(params.Description)
	l.Location = strings.TrimSpace(params.Location)
	l.GuestsLimit = params.GuestsLimit
	l.Bedrooms = params.Bedrooms
	l.Bathrooms = params.Bathrooms
	l.Amenities = append([]string(nil), params.Amenities...)
	l.Images = append([]string(nil), params.Images...)
	l.Lat = params.Lat
	l.Lon = params.Lon
	l.NightlyRateCents = params.NightlyRateCents
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	l.UpdatedAt = now.UTC()
	return nil
}

// OwnedBy reports whether the given host owns the listing.
func (l *Listing) OwnedBy(host HostID) bool {
	return l.Host == host
}
