package testutil

import (
	"context"
	"testing"

	"facilitybook/internal/bookings/repository"
	"facilitybook/internal/directory"
	"facilitybook/internal/notifications"
	"facilitybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoHelper seeds and cleans the service database directly.
type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoHelper(t *testing.T, mongoURI, dbName string) *MongoHelper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	return &MongoHelper{
		Client:   client,
		Database: client.Database(dbName),
	}
}

func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()
	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("failed to disconnect from MongoDB: %v", err)
	}
}

func (m *MongoHelper) CleanDatabase(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	for _, name := range []string{
		repository.CollectionName,
		repository.FacilityCollectionName,
		repository.LockCollectionName,
		directory.CollectionName,
		notifications.InboxCollectionName,
	} {
		if _, err := m.Database.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			t.Fatalf("failed to clean %s: %v", name, err)
		}
	}
}

// InsertUser stores user with a generated id and returns that id.
func (m *MongoHelper) InsertUser(t *testing.T, user *model.User) string {
	t.Helper()
	user.ID = ""
	user.ID = m.insert(t, directory.CollectionName, user)
	return user.ID
}

// InsertFacility stores facility with a generated id and returns that id.
func (m *MongoHelper) InsertFacility(t *testing.T, facility *model.Facility) string {
	t.Helper()
	facility.ID = ""
	facility.ID = m.insert(t, repository.FacilityCollectionName, facility)
	return facility.ID
}

func (m *MongoHelper) insert(t *testing.T, collection string, doc any) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()
	result, err := m.Database.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		t.Fatalf("failed to insert into %s: %v", collection, err)
	}
	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		t.Fatalf("unexpected id type %T in %s", result.InsertedID, collection)
	}
	return oid.Hex()
}
