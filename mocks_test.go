package auth_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/barbertime/go-auth"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// capturingSink records activity events in order for assertions.
type capturingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt auth.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) Events() []auth.ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]auth.ActivityEvent, len(c.events))
	copy(out, c.events)
	return out
}

func (c *capturingSink) Types() []auth.ActivityEventType {
	var types []auth.ActivityEventType
	for _, evt := range c.Events() {
		types = append(types, evt.EventType)
	}
	return types
}

// memoryNotifier captures outbound mail. Delivery happens on a goroutine, so
// assertions go through WaitForMessage.
type memoryNotifier struct {
	messages chan auth.Message
}

func newMemoryNotifier() *memoryNotifier {
	return &memoryNotifier{messages: make(chan auth.Message, 8)}
}

func (n *memoryNotifier) Send(ctx context.Context, msg auth.Message) error {
	n.messages <- msg
	return nil
}

func (n *memoryNotifier) WaitForMessage(t *testing.T) auth.Message {
	t.Helper()
	select {
	case msg := <-n.messages:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outbound message")
		return auth.Message{}
	}
}

// MockUserStore implements auth.CredentialStore[*auth.User]
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

// MockBarberStore implements auth.CredentialStore[*auth.Barber]
type MockBarberStore struct {
	mock.Mock
}

func (m *MockBarberStore) GetByEmail(ctx context.Context, email string) (*auth.Barber, error) {
	args := m.Called(ctx, email)
	barber, _ := args.Get(0).(*auth.Barber)
	return barber, args.Error(1)
}

func newTestConfig() auth.SimpleConfig {
	return auth.SimpleConfig{
		SigningKey:  "test-signing-key",
		Issuer:      "barbertime-test",
		Audience:    []string{"barbertime"},
		FrontendURL: "https://app.test",
	}
}

// newTestDB opens an in-memory SQLite database with the full schema applied
// and a repository manager over it.
func newTestDB(t *testing.T) (*bun.DB, auth.RepositoryManager) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// one connection so every statement sees the same in-memory database
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, model := range []any{
		(*auth.User)(nil),
		(*auth.Barber)(nil),
		(*auth.Token)(nil),
	} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	return db, auth.NewRepositoryManager(db)
}

// Hashing is deliberately expensive, so tests share one precomputed hash for
// the canonical password.
const testPassword = "sup3rS3cret!"

var (
	testHashOnce sync.Once
	testHash     string
)

func hashedTestPassword(t *testing.T) string {
	t.Helper()
	testHashOnce.Do(func() {
		hash, err := auth.HashPassword(testPassword)
		if err != nil {
			panic(fmt.Sprintf("failed to hash test password: %v", err))
		}
		testHash = hash
	})
	return testHash
}

func seedUser(t *testing.T, repo auth.RepositoryManager, email string) *auth.User {
	t.Helper()

	user, err := repo.Users().Create(context.Background(), &auth.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: hashedTestPassword(t),
	})
	require.NoError(t, err)
	return user
}

func seedBarber(t *testing.T, repo auth.RepositoryManager, email string) *auth.Barber {
	t.Helper()

	barber, err := repo.Barbers().Create(context.Background(), &auth.Barber{
		Name:         "Test Barber",
		Email:        email,
		PasswordHash: hashedTestPassword(t),
	})
	require.NoError(t, err)
	return barber
}
