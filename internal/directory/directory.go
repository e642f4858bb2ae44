// Package directory resolves authenticated user ids into actors. It reads
// the user collection on every call so rank and department changes apply to
// the next request.
package directory

import (
	"context"
	"errors"
	"fmt"

	"facilitybook/pkg/config"
	"facilitybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Users"

var ErrUserNotFound = errors.New("user not found")

type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type mongoUserStore struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserStore(cfg *config.Config) UserStore {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserStore{cfg: cfg, collection: db.Collection(CollectionName)}
}

func (s *mongoUserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	var user model.User
	if err := s.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

type Directory struct {
	users UserStore
}

func New(users UserStore) *Directory {
	return &Directory{users: users}
}

// Resolve returns an unauthenticated actor for unknown or inactive users.
// Only store failures are returned as errors.
func (d *Directory) Resolve(ctx context.Context, userID string) (*model.Actor, error) {
	if userID == "" {
		return &model.Actor{}, nil
	}

	user, err := d.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return &model.Actor{}, nil
		}
		return nil, err
	}
	return model.ActorFromUser(user), nil
}
