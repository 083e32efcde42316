package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
)

const ledgerCollection = "availability_ledger"

// LedgerRepository persists unavailability entries one document per
// (listing, date). The unique compound index turns a concurrent double-block
// into a duplicate key error, which surfaces as ErrDateTaken.
type LedgerRepository struct {
	col *mongo.Collection
}

func NewLedgerRepository(db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{col: db.Collection(ledgerCollection)}
}

func (r *LedgerRepository) Insert(ctx context.Context, entry domainavailability.Entry) error {
	doc := bson.M{
		"listing_id": string(entry.ListingID),
		"date":       entry.Date.String(),
		"reason":     string(entry.Reason),
		"booking_id": string(entry.BookingID),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainavailability.ErrDateTaken
		}
		return err
	}
	return nil
}

func (r *LedgerRepository) Delete(ctx context.Context, listingID domainlistings.ListingID, date daterange.Date) error {
	filter := bson.M{
		"listing_id": string(listingID),
		"date":       date.String(),
		"reason":     bson.M{"$ne": string(domainavailability.ReasonBooked)},
	}
	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount > 0 {
		return nil
	}
	// Nothing matched: either the day is clear or it belongs to a booking.
	count, err := r.col.CountDocuments(ctx, bson.M{"listing_id": string(listingID), "date": date.String()})
	if err != nil {
		return err
	}
	if count > 0 {
		return domainavailability.ErrBookingProtected
	}
	return domainavailability.ErrEntryNotFound
}

func (r *LedgerRepository) DeleteByBooking(ctx context.Context, listingID domainlistings.ListingID, bookingID domainbooking.BookingID) (int, error) {
	if bookingID == "" {
		return 0, nil
	}
	res, err := r.col.DeleteMany(ctx, bson.M{
		"listing_id": string(listingID),
		"booking_id": string(bookingID),
	})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

func (r *LedgerRepository) List(ctx context.Context, listingID domainlistings.ListingID, window domainavailability.Window) ([]domainavailability.Entry, error) {
	filter := bson.M{"listing_id": string(listingID)}
	applyWindow(filter, window)
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	entries := make([]domainavailability.Entry, 0)
	for cursor.Next(ctx) {
		var doc ledgerDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		entry, err := doc.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, cursor.Err()
}

func (r *LedgerRepository) ListBulk(ctx context.Context, listingIDs []domainlistings.ListingID, window domainavailability.Window) (map[domainlistings.ListingID][]domainavailability.Entry, error) {
	if len(listingIDs) == 0 {
		return map[domainlistings.ListingID][]domainavailability.Entry{}, nil
	}
	ids := make([]string, 0, len(listingIDs))
	for _, id := range listingIDs {
		ids = append(ids, string(id))
	}
	filter := bson.M{"listing_id": bson.M{"$in": ids}}
	applyWindow(filter, window)
	opts := options.Find().SetSort(bson.D{{Key: "listing_id", Value: 1}, {Key: "date", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	out := make(map[domainlistings.ListingID][]domainavailability.Entry, len(listingIDs))
	for cursor.Next(ctx) {
		var doc ledgerDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		entry, err := doc.toEntry()
		if err != nil {
			return nil, err
		}
		out[entry.ListingID] = append(out[entry.ListingID], entry)
	}
	return out, cursor.Err()
}

// applyWindow adds date bounds to the filter. The ISO day strings sort
// lexicographically in calendar order, so plain string comparison works.
func applyWindow(filter bson.M, window domainavailability.Window) {
	bounds := bson.M{}
	if !window.From.IsZero() {
		bounds["$gte"] = window.From.String()
	}
	if !window.To.IsZero() {
		bounds["$lt"] = window.To.String()
	}
	if len(bounds) > 0 {
		filter["date"] = bounds
	}
}

type ledgerDocument struct {
	ListingID string `bson:"listing_id"`
	Date      string `bson:"date"`
	Reason    string `bson:"reason"`
	BookingID string `bson:"booking_id"`
}

func (d ledgerDocument) toEntry() (domainavailability.Entry, error) {
	date, err := daterange.ParseDate(d.Date)
	if err != nil {
		return domainavailability.Entry{}, errors.Join(errors.New("mongo: malformed ledger date"), err)
	}
	return domainavailability.Entry{
		ListingID: domainlistings.ListingID(d.ListingID),
		Date:      date,
		Reason:    domainavailability.Reason(d.Reason),
		BookingID: domainbooking.BookingID(d.BookingID),
	}, nil
}

var _ domainavailability.Repository = (*LedgerRepository)(nil)
