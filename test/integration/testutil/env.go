package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"facilitybook/pkg/auth"
	"facilitybook/pkg/client"
)

const (
	DefaultMongoURI     = "mongodb://localhost:27017"
	DefaultDatabaseName = "facilitybook"
	ConnectionTimeout   = 10 * time.Second
	TokenTTL            = time.Hour
)

// TestEnv points at a running bookings service and its database. Tests are
// skipped unless TEST_SERVER_URL is set.
type TestEnv struct {
	MongoURI     string
	DatabaseName string
	ServerURL    string
	JWTSecret    string
}

func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	serverURL := os.Getenv("TEST_SERVER_URL")
	if serverURL == "" {
		t.Skip("TEST_SERVER_URL not set; skipping integration tests")
	}

	return &TestEnv{
		MongoURI:     getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName: getEnv("TEST_DB_NAME", DefaultDatabaseName),
		ServerURL:    serverURL,
		JWTSecret:    getEnv("JWT_SECRET", ""),
	}
}

func (e *TestEnv) Setup(t *testing.T) (*MongoHelper, *client.BookingClient) {
	t.Helper()

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanDatabase(t)
	t.Cleanup(func() {
		mongo.CleanDatabase(t)
		mongo.Close(t)
	})

	c := client.NewBookingClient(e.ServerURL, "")
	ctx, cancel := context.WithTimeout(context.Background(), 30*ConnectionTimeout)
	defer cancel()
	if err := c.WaitForHealthy(ctx); err != nil {
		t.Fatalf("bookings service is not healthy: %v", err)
	}
	return mongo, c
}

// Token mints an access token for userID signed with the service secret.
func (e *TestEnv) Token(t *testing.T, userID string) string {
	t.Helper()
	if e.JWTSecret == "" {
		t.Fatal("JWT_SECRET must match the service under test")
	}
	token, err := auth.NewTokenManager(e.JWTSecret, auth.DefaultIssuer).CreateAccessToken(userID, TokenTTL)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return token
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
