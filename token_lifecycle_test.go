package auth_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barbertime/go-auth"
)

func newLifecycle(t *testing.T) (auth.RepositoryManager, *auth.TokenLifecycle) {
	t.Helper()
	_, repo := newTestDB(t)
	lifecycle := auth.NewTokenLifecycle(repo.Tokens(), newTestConfig()).WithLogger(testLogger{})
	return repo, lifecycle
}

func TestIssueTokenShapes(t *testing.T) {
	ctx := context.Background()
	repo, lifecycle := newLifecycle(t)
	user := seedUser(t, repo, "ada@example.com")

	t.Run("Login codes are six digits", func(t *testing.T) {
		record, err := lifecycle.Issue(ctx, auth.TokenLoginCode, user.ID)
		require.NoError(t, err)

		assert.Len(t, record.Token, 6)
		_, err = strconv.Atoi(record.Token)
		assert.NoError(t, err, "login codes are numeric")
		assert.True(t, record.IsValid)
		assert.False(t, record.HasBeenValidated)
	})

	t.Run("Link tokens are opaque", func(t *testing.T) {
		record, err := lifecycle.Issue(ctx, auth.TokenEmailVerification, user.ID)
		require.NoError(t, err)

		// 32 random bytes, base64url encoded without padding
		assert.Len(t, record.Token, 43)
	})

	t.Run("TTL follows the token type", func(t *testing.T) {
		now := time.Now()

		code, err := lifecycle.Issue(ctx, auth.TokenLoginCode, user.ID)
		require.NoError(t, err)
		assert.WithinDuration(t, now.Add(auth.DefaultLoginCodeTTL), code.ExpiresAt, 5*time.Second)

		recovery, err := lifecycle.Issue(ctx, auth.TokenPasswordRecovery, user.ID)
		require.NoError(t, err)
		assert.WithinDuration(t, now.Add(auth.DefaultPasswordRecoveryTTL), recovery.ExpiresAt, 5*time.Second)

		verification, err := lifecycle.Issue(ctx, auth.TokenEmailVerification, user.ID)
		require.NoError(t, err)
		assert.WithinDuration(t, now.Add(auth.DefaultEmailVerificationTTL), verification.ExpiresAt, 5*time.Second)
	})
}

func TestIssueEmitsActivity(t *testing.T) {
	ctx := context.Background()
	repo, lifecycle := newLifecycle(t)
	user := seedUser(t, repo, "ada@example.com")

	sink := &capturingSink{}
	lifecycle.WithActivitySink(sink)

	record, err := lifecycle.Issue(ctx, auth.TokenLoginCode, user.ID)
	require.NoError(t, err)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, auth.ActivityEventTokenIssued, events[0].EventType)
	assert.Equal(t, user.ID.String(), events[0].UserID)
	assert.Equal(t, record.ID.String(), events[0].Metadata["token_id"])
}

func TestValidateForConsumption(t *testing.T) {
	ctx := context.Background()
	repo, lifecycle := newLifecycle(t)
	user := seedUser(t, repo, "ada@example.com")

	t.Run("Fresh token validates", func(t *testing.T) {
		record, err := lifecycle.Issue(ctx, auth.TokenPasswordRecovery, user.ID)
		require.NoError(t, err)

		got, err := lifecycle.ValidateForConsumption(ctx, record.Token, auth.TokenPasswordRecovery)
		require.NoError(t, err)
		assert.Equal(t, record.ID, got.ID)
	})

	t.Run("Unknown value", func(t *testing.T) {
		_, err := lifecycle.ValidateForConsumption(ctx, "no-such-token", auth.TokenPasswordRecovery)
		assert.ErrorIs(t, err, auth.ErrTokenNotFound)
	})

	t.Run("Type mismatch", func(t *testing.T) {
		record, err := lifecycle.Issue(ctx, auth.TokenEmailVerification, user.ID)
		require.NoError(t, err)

		// a verification token must not reset a password
		_, err = lifecycle.ValidateForConsumption(ctx, record.Token, auth.TokenPasswordRecovery)
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})

	t.Run("Expired token", func(t *testing.T) {
		record, err := lifecycle.Issue(ctx, auth.TokenPasswordRecovery, user.ID)
		require.NoError(t, err)

		lifecycle.WithClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
		defer lifecycle.WithClock(time.Now)

		_, err = lifecycle.ValidateForConsumption(ctx, record.Token, auth.TokenPasswordRecovery)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("Consumed token cannot be replayed", func(t *testing.T) {
		record, err := lifecycle.Issue(ctx, auth.TokenPasswordRecovery, user.ID)
		require.NoError(t, err)

		require.NoError(t, lifecycle.Consume(ctx, record))

		_, err = lifecycle.ValidateForConsumption(ctx, record.Token, auth.TokenPasswordRecovery)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("Invalidated token cannot be used", func(t *testing.T) {
		record, err := lifecycle.Issue(ctx, auth.TokenPasswordRecovery, user.ID)
		require.NoError(t, err)

		require.NoError(t, lifecycle.Invalidate(ctx, record))

		_, err = lifecycle.ValidateForConsumption(ctx, record.Token, auth.TokenPasswordRecovery)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})
}

func TestConsumeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, lifecycle := newLifecycle(t)
	user := seedUser(t, repo, "ada@example.com")

	sink := &capturingSink{}
	lifecycle.WithActivitySink(sink)

	record, err := lifecycle.Issue(ctx, auth.TokenEmailVerification, user.ID)
	require.NoError(t, err)

	require.NoError(t, lifecycle.Consume(ctx, record))
	assert.True(t, record.HasBeenValidated)

	// consuming twice is a no-op, no second consumed event
	require.NoError(t, lifecycle.Consume(ctx, record))

	var consumed int
	for _, evt := range sink.Events() {
		if evt.EventType == auth.ActivityEventTokenConsumed {
			consumed++
		}
	}
	assert.Equal(t, 1, consumed)
}

func TestCurrentLoginCode(t *testing.T) {
	ctx := context.Background()
	repo, lifecycle := newLifecycle(t)
	user := seedUser(t, repo, "ada@example.com")

	t.Run("No code issued", func(t *testing.T) {
		_, err := lifecycle.CurrentLoginCode(ctx, user.ID)
		assert.ErrorIs(t, err, auth.ErrInvalidCode)
	})

	t.Run("Most recent code wins", func(t *testing.T) {
		now := time.Now().UTC()
		older := now.Add(-time.Minute)

		first, err := repo.Tokens().Create(ctx, &auth.Token{
			Token:     "111111",
			Type:      auth.TokenLoginCode,
			UserID:    user.ID,
			ExpiresAt: now.Add(10 * time.Minute),
			IsValid:   true,
			CreatedAt: &older,
		})
		require.NoError(t, err)

		second, err := repo.Tokens().Create(ctx, &auth.Token{
			Token:     "222222",
			Type:      auth.TokenLoginCode,
			UserID:    user.ID,
			ExpiresAt: now.Add(10 * time.Minute),
			IsValid:   true,
			CreatedAt: &now,
		})
		require.NoError(t, err)

		current, err := lifecycle.CurrentLoginCode(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, current.ID)
		assert.NotEqual(t, first.ID, current.ID)
	})
}

func TestActiveVerificationToken(t *testing.T) {
	ctx := context.Background()
	repo, lifecycle := newLifecycle(t)
	user := seedUser(t, repo, "ada@example.com")

	t.Run("None issued", func(t *testing.T) {
		_, ok := lifecycle.ActiveVerificationToken(ctx, user.ID)
		assert.False(t, ok)
	})

	t.Run("Fresh token is reused", func(t *testing.T) {
		record, err := lifecycle.Issue(ctx, auth.TokenEmailVerification, user.ID)
		require.NoError(t, err)

		got, ok := lifecycle.ActiveVerificationToken(ctx, user.ID)
		require.True(t, ok)
		assert.Equal(t, record.ID, got.ID)
	})

	t.Run("Consumed token is not reused", func(t *testing.T) {
		current, ok := lifecycle.ActiveVerificationToken(ctx, user.ID)
		require.True(t, ok)
		require.NoError(t, lifecycle.Consume(ctx, current))

		_, ok = lifecycle.ActiveVerificationToken(ctx, user.ID)
		assert.False(t, ok)
	})
}
