package repository

import (
	"context"
	"errors"
	"fmt"

	bookingserrors "facilitybook/internal/bookings/errors"
	"facilitybook/pkg/config"
	"facilitybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const FacilityCollectionName = "Facilities"

// FacilityRepository is read-only; facilities are managed outside this service.
type FacilityRepository interface {
	FindByID(ctx context.Context, id string) (*model.Facility, error)
	FindActive(ctx context.Context) ([]*model.Facility, error)
	FindActiveByApprover(ctx context.Context, approverID string) ([]*model.Facility, error)
}

type mongoFacilityRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoFacilityRepository(cfg *config.Config) FacilityRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoFacilityRepository{
		cfg:        cfg,
		collection: db.Collection(FacilityCollectionName),
	}
}

func (r *mongoFacilityRepository) FindByID(ctx context.Context, id string) (*model.Facility, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var facility model.Facility
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&facility)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrFacilityNotFound
		}
		return nil, fmt.Errorf("failed to find facility: %w", err)
	}
	return &facility, nil
}

func (r *mongoFacilityRepository) FindActive(ctx context.Context) ([]*model.Facility, error) {
	return r.findActive(ctx, bson.M{"active": true})
}

func (r *mongoFacilityRepository) FindActiveByApprover(ctx context.Context, approverID string) ([]*model.Facility, error) {
	return r.findActive(ctx, bson.M{"active": true, "approver_id": approverID})
}

func (r *mongoFacilityRepository) findActive(ctx context.Context, filter bson.M) ([]*model.Facility, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find facilities: %w", err)
	}
	defer cursor.Close(ctx)

	facilities := []*model.Facility{}
	if err = cursor.All(ctx, &facilities); err != nil {
		return nil, fmt.Errorf("failed to decode facilities: %w", err)
	}
	return facilities, nil
}
