package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barbertime/go-auth"
)

func TestForgotPasswordHandler(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (auth.RepositoryManager, *memoryNotifier, *auth.ForgotPasswordHandler) {
		_, repo := newTestDB(t)
		lifecycle := auth.NewTokenLifecycle(repo.Tokens(), newTestConfig()).WithLogger(testLogger{})
		notifier := newMemoryNotifier()

		handler := auth.NewForgotPasswordHandler(repo, lifecycle, newTestConfig()).
			WithNotifier(notifier).
			WithLogger(testLogger{})

		return repo, notifier, handler
	}

	t.Run("Issues a recovery token and mails the link", func(t *testing.T) {
		repo, notifier, handler := setup(t)
		user := seedUser(t, repo, "ada@example.com")

		var issued *auth.Token
		err := handler.Execute(ctx, auth.ForgotPasswordMessage{
			Email:      "ada@example.com",
			OnResponse: func(token *auth.Token) { issued = token },
		})
		require.NoError(t, err)
		require.NotNil(t, issued)
		assert.Equal(t, auth.TokenPasswordRecovery, issued.Type)
		assert.Equal(t, user.ID, issued.UserID)

		msg := notifier.WaitForMessage(t)
		assert.Equal(t, "ada@example.com", msg.To)
		assert.Contains(t, msg.Body, issued.Token)
	})

	t.Run("Unknown email", func(t *testing.T) {
		_, _, handler := setup(t)

		err := handler.Execute(ctx, auth.ForgotPasswordMessage{Email: "ghost@example.com"})
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}

func TestResetPasswordHandler(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (auth.RepositoryManager, *auth.TokenLifecycle, *auth.ResetPasswordHandler, *auth.User, *auth.Token) {
		_, repo := newTestDB(t)
		lifecycle := auth.NewTokenLifecycle(repo.Tokens(), newTestConfig()).WithLogger(testLogger{})
		user := seedUser(t, repo, "ada@example.com")

		token, err := lifecycle.Issue(ctx, auth.TokenPasswordRecovery, user.ID)
		require.NoError(t, err)

		handler := auth.NewResetPasswordHandler(repo, lifecycle).WithLogger(testLogger{})

		return repo, lifecycle, handler, user, token
	}

	t.Run("Rotates the password and consumes the token", func(t *testing.T) {
		repo, _, handler, user, token := setup(t)

		sink := &capturingSink{}
		handler.WithActivitySink(sink)

		err := handler.Execute(ctx, auth.ResetPasswordMessage{
			Token:           token.Token,
			NewPassword:     "brandNewSecret1",
			ConfirmPassword: "brandNewSecret1",
		})
		require.NoError(t, err)

		stored, err := repo.Users().GetByID(ctx, user.ID.String())
		require.NoError(t, err)
		assert.NoError(t, auth.ComparePasswordAndHash("brandNewSecret1", stored.PasswordHash))
		assert.Error(t, auth.ComparePasswordAndHash(testPassword, stored.PasswordHash))

		record, err := repo.Tokens().GetByToken(ctx, token.Token)
		require.NoError(t, err)
		assert.True(t, record.HasBeenValidated)

		assert.Contains(t, sink.Types(), auth.ActivityEventPasswordResetSuccess)
	})

	t.Run("Confirmation mismatch leaves everything untouched", func(t *testing.T) {
		repo, _, handler, user, token := setup(t)

		err := handler.Execute(ctx, auth.ResetPasswordMessage{
			Token:           token.Token,
			NewPassword:     "brandNewSecret1",
			ConfirmPassword: "differentSecret2",
		})
		assert.ErrorIs(t, err, auth.ErrPasswordsDoNotMatch)

		// the old password still works and the token is still live
		stored, err := repo.Users().GetByID(ctx, user.ID.String())
		require.NoError(t, err)
		assert.NoError(t, auth.ComparePasswordAndHash(testPassword, stored.PasswordHash))

		record, err := repo.Tokens().GetByToken(ctx, token.Token)
		require.NoError(t, err)
		assert.False(t, record.HasBeenValidated)
	})

	t.Run("Consumed token cannot reset twice", func(t *testing.T) {
		_, _, handler, _, token := setup(t)

		msg := auth.ResetPasswordMessage{
			Token:           token.Token,
			NewPassword:     "brandNewSecret1",
			ConfirmPassword: "brandNewSecret1",
		}

		require.NoError(t, handler.Execute(ctx, msg))
		assert.ErrorIs(t, handler.Execute(ctx, msg), auth.ErrTokenExpired)
	})

	t.Run("Unknown token", func(t *testing.T) {
		_, _, handler, _, _ := setup(t)

		err := handler.Execute(ctx, auth.ResetPasswordMessage{
			Token:           "no-such-token",
			NewPassword:     "brandNewSecret1",
			ConfirmPassword: "brandNewSecret1",
		})
		assert.ErrorIs(t, err, auth.ErrTokenNotFound)
	})

	t.Run("Verification token cannot reset a password", func(t *testing.T) {
		_, lifecycle, handler, user, _ := setup(t)

		verification, err := lifecycle.Issue(ctx, auth.TokenEmailVerification, user.ID)
		require.NoError(t, err)

		err = handler.Execute(ctx, auth.ResetPasswordMessage{
			Token:           verification.Token,
			NewPassword:     "brandNewSecret1",
			ConfirmPassword: "brandNewSecret1",
		})
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})
}
