package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "facilitybook/internal/bookings/errors"
	"facilitybook/pkg/config"
	mongotx "facilitybook/pkg/db/mongo"
	"facilitybook/pkg/model"
	"facilitybook/pkg/slot"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	// UpdateIfStatus writes booking only while its stored status is one of
	// expected. A lost race yields bookingserrors.ErrStatusChanged.
	UpdateIfStatus(ctx context.Context, booking *model.Booking, expected ...model.BookingStatus) error
	// MarkCanceled sets only the status and cancel audit fields, leaving any
	// decision or placement committed since the caller's read intact. It
	// returns the stored booking after the update.
	MarkCanceled(ctx context.Context, id, canceledBy, reason string, at time.Time) (*model.Booking, error)
	FindApprovedOverlapping(ctx context.Context, facilityID, date string, start, end slot.TimeOfDay, excludeID string) ([]*model.Booking, error)
	FindInRange(ctx context.Context, from, to string, statuses []model.BookingStatus) ([]*model.Booking, error)
	// FindPending lists PENDING bookings on facilityIDs; nil means every facility.
	FindPending(ctx context.Context, facilityIDs []string, limit int, offset int64) ([]*model.Booking, error)
	CountPending(ctx context.Context, facilityIDs []string) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout bounds ctx by timeout unless ctx belongs to a transaction;
// a SessionContext cannot be wrapped without leaving the transaction.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) UpdateIfStatus(ctx context.Context, booking *model.Booking, expected ...model.BookingStatus) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(booking.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, booking.ID)
	}

	booking.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	filter := bson.M{
		"_id":    objectID,
		"status": bson.M{"$in": expected},
	}
	update := bson.M{
		"$set": bson.M{
			"facility_id":      booking.FacilityID,
			"date":             booking.Date,
			"start_slot":       booking.StartSlot,
			"end_slot":         booking.EndSlot,
			"title":            booking.Title,
			"status":           booking.Status,
			"approved_by":      booking.ApprovedBy,
			"approved_at":      booking.ApprovedAt,
			"rejected_by":      booking.RejectedBy,
			"rejected_at":      booking.RejectedAt,
			"rejection_reason": booking.RejectionReason,
			"canceled_by":      booking.CanceledBy,
			"canceled_at":      booking.CanceledAt,
			"cancel_reason":    booking.CancelReason,
			"updated_at":       booking.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrStatusChanged
	}
	return nil
}

func (r *mongoBookingRepository) MarkCanceled(ctx context.Context, id, canceledBy, reason string, at time.Time) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	at = at.UTC().Truncate(time.Millisecond)
	filter := bson.M{
		"_id":    objectID,
		"status": bson.M{"$in": model.CancelableStatuses},
	}
	update := bson.M{
		"$set": bson.M{
			"status":        model.StatusCanceled,
			"canceled_by":   canceledBy,
			"canceled_at":   at,
			"cancel_reason": reason,
			"updated_at":    at,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrStatusChanged
		}
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindApprovedOverlapping(
	ctx context.Context,
	facilityID, date string,
	start, end slot.TimeOfDay,
	excludeID string,
) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"facility_id": facilityID,
		"date":        date,
		"status":      model.StatusApproved,
		"start_slot":  bson.M{"$lt": end},
		"end_slot":    bson.M{"$gt": start},
	}
	if excludeID != "" {
		if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
			filter["_id"] = bson.M{"$ne": oid}
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_slot", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *mongoBookingRepository) FindInRange(ctx context.Context, from, to string, statuses []model.BookingStatus) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"date":   bson.M{"$gte": from, "$lte": to},
		"status": bson.M{"$in": statuses},
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "start_slot", Value: 1},
	})
	return r.find(ctx, filter, opts)
}

func (r *mongoBookingRepository) FindPending(ctx context.Context, facilityIDs []string, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{
			{Key: "date", Value: 1},
			{Key: "start_slot", Value: 1},
			{Key: "created_at", Value: 1},
		}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, pendingFilter(facilityIDs), opts)
}

func (r *mongoBookingRepository) CountPending(ctx context.Context, facilityIDs []string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, pendingFilter(facilityIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to count pending bookings: %w", err)
	}
	return count, nil
}

func pendingFilter(facilityIDs []string) bson.M {
	filter := bson.M{"status": model.StatusPending}
	if facilityIDs != nil {
		filter["facility_id"] = bson.M{"$in": facilityIDs}
	}
	return filter
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Booking, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
