package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "staybook/internal/domain/listings"
)

const listingCollection = "agg_listing"

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(listingCollection)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	filter := bson.M{"_id": doc.ID, "version": listing.Version}
	doc.Version = listing.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	listing.Version = doc.Version
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainlistings.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) ListByHost(ctx context.Context, host domainlistings.HostID) ([]*domainlistings.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"host_id": string(host)}, opts)
}

// Search filters by capacity, host and location substring, ordered newest
// first. The location match runs server-side as a case-insensitive regex over
// location and title.
func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	opts := params.Normalized()
	filter := bson.M{}
	if opts.Host != "" {
		filter["host_id"] = string(opts.Host)
	}
	if opts.MinGuests > 0 {
		filter["guests_limit"] = bson.M{"$gte": opts.MinGuests}
	}
	if opts.LocationQuery != "" {
		pattern := primitiveRegex(opts.LocationQuery)
		filter["$or"] = bson.A{
			bson.M{"location": pattern},
			bson.M{"title": pattern},
		}
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))
	return r.find(ctx, filter, findOpts)
}

func (r *ListingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainlistings.Listing, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	out := make([]*domainlistings.Listing, 0)
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func primitiveRegex(query string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
}

type listingDocument struct {
	ID               string   `bson:"_id"`
	HostID           string   `bson:"host_id"`
	Title            string   `bson:"title"`
	Description      string   `bson:"description"`
	Location         string   `bson:"location"`
	GuestsLimit      int      `bson:"guests_limit"`
	Bedrooms         int      `bson:"bedrooms"`
	Bathrooms        int      `bson:"bathrooms"`
	Amenities        []string `bson:"amenities"`
	Images           []string `bson:"images"`
	Lat              float64  `bson:"lat"`
	Lon              float64  `bson:"lon"`
	NightlyRateCents int64    `bson:"nightly_rate_cents"`
	CreatedAt        int64    `bson:"created_at"`
	UpdatedAt        int64    `bson:"updated_at"`
	Version          int64    `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:               string(l.ID),
		HostID:           string(l.Host),
		Title:            l.Title,
		Description:      l.Description,
		Location:         l.Location,
		GuestsLimit:      l.GuestsLimit,
		Bedrooms:         l.Bedrooms,
		Bathrooms:        l.Bathrooms,
		Amenities:        l.Amenities,
		Images:           l.Images,
		Lat:              l.Lat,
		Lon:              l.Lon,
		NightlyRateCents: l.NightlyRateCents,
		CreatedAt:        l.CreatedAt.UnixMilli(),
		UpdatedAt:        l.UpdatedAt.UnixMilli(),
		Version:          l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:               domainlistings.ListingID(d.ID),
		Host:             domainlistings.HostID(d.HostID),
		Title:            d.Title,
		Description:      d.Description,
		Location:         d.Location,
		GuestsLimit:      d.GuestsLimit,
		Bedrooms:         d.Bedrooms,
		Bathrooms:        d.Bathrooms,
		Amenities:        d.Amenities,
		Images:           d.Images,
		Lat:              d.Lat,
		Lon:              d.Lon,
		NightlyRateCents: d.NightlyRateCents,
		CreatedAt:        time.UnixMilli(d.CreatedAt).UTC(),
		UpdatedAt:        time.UnixMilli(d.UpdatedAt).UTC(),
		Version:          d.Version,
	}
}
