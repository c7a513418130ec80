package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// EmailChangeGuard enforces email uniqueness across create and update flows
// for one principal kind. The check is a read-then-write fast path; the
// authoritative guarantee is the store's unique index, whose violation the
// repositories surface as a conflict.
type EmailChangeGuard[T Principal] struct {
	store CredentialStore[T]
}

func NewEmailChangeGuard[T Principal](store CredentialStore[T]) *EmailChangeGuard[T] {
	return &EmailChangeGuard[T]{store: store}
}

// CheckCreate fails with a conflict when any existing principal of this kind
// already owns the email.
func (g *EmailChangeGuard[T]) CheckCreate(ctx context.Context, email string) error {
	_, err := g.store.GetByEmail(ctx, email)
	if err == nil {
		return ErrEmailTaken
	}

	if repository.IsRecordNotFound(err) {
		return nil
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
}

// CheckUpdate re-checks uniqueness only when the update actually changes the
// email. An update that re-submits the current value never conflicts with
// itself.
func (g *EmailChangeGuard[T]) CheckUpdate(ctx context.Context, currentEmail, newEmail string) error {
	if newEmail == "" || newEmail == currentEmail {
		return nil
	}
	return g.CheckCreate(ctx, newEmail)
}
