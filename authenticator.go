package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// CredentialStore retrieves principals of one kind by email. Users and
// Barbers both satisfy it, which keeps the Authenticator a single generic
// algorithm over the shared capability set.
type CredentialStore[T Principal] interface {
	GetByEmail(ctx context.Context, email string) (T, error)
}

// Authenticator verifies a principal's identity with a password or a
// one-time login code. Checks are ordered so the first violated
// precondition fails the attempt; every failure collapses to the same
// external message to avoid account enumeration.
type Authenticator[T Principal] struct {
	store     CredentialStore[T]
	lifecycle *TokenLifecycle
	logger    Logger
	activity  ActivitySink
	actorType string
	now       func() time.Time
}

// NewAuthenticator returns an authenticator over one principal kind.
// actorType tags audit events, e.g. "user" or "barber".
func NewAuthenticator[T Principal](store CredentialStore[T], lifecycle *TokenLifecycle, actorType string) *Authenticator[T] {
	return &Authenticator[T]{
		store:     store,
		lifecycle: lifecycle,
		logger:    defLogger{},
		activity:  noopActivitySink{},
		actorType: actorType,
		now:       time.Now,
	}
}

func (a *Authenticator[T]) WithLogger(logger Logger) *Authenticator[T] {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithActivitySink sets the sink used to emit authentication events.
func (a *Authenticator[T]) WithActivitySink(sink ActivitySink) *Authenticator[T] {
	a.activity = normalizeActivitySink(sink)
	return a
}

// WithClock overrides the time source. Used by tests to pin expiry.
func (a *Authenticator[T]) WithClock(now func() time.Time) *Authenticator[T] {
	if now != nil {
		a.now = now
	}
	return a
}

// AuthenticateWithPassword verifies email plus password. The returned
// principal still carries its password hash; callers strip it through the
// profile projection before anything externally observable.
func (a *Authenticator[T]) AuthenticateWithPassword(ctx context.Context, email, password string) (T, error) {
	var zero T

	principal, err := a.store.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			a.emitFailure(ctx, ActivityEventLoginFailure, email, "", "identity not found")
			return zero, ErrIdentityNotFound
		}
		return zero, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve principal during verification")
	}

	if !principal.Active() {
		a.emitFailure(ctx, ActivityEventLoginFailure, email, principal.PrincipalID().String(), "account inactive")
		return zero, ErrAccountInactive
	}

	if err := ComparePasswordAndHash(password, principal.Credentials()); err != nil {
		a.emitFailure(ctx, ActivityEventLoginFailure, email, principal.PrincipalID().String(), "password mismatch")
		return zero, ErrMismatchedHashAndPassword
	}

	a.emitSuccess(ctx, ActivityEventLoginSuccess, email, principal.PrincipalID().String())

	return principal, nil
}

// AuthenticateWithCode verifies email plus a one-time login code. A
// successful attempt consumes the code: it cannot authenticate twice even
// inside its expiry window.
func (a *Authenticator[T]) AuthenticateWithCode(ctx context.Context, email, code string) (T, error) {
	var zero T

	principal, err := a.store.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			a.emitFailure(ctx, ActivityEventCodeLoginFailure, email, "", "identity not found")
			return zero, ErrIdentityNotFound
		}
		return zero, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve principal during verification")
	}

	record, err := a.lifecycle.CurrentLoginCode(ctx, principal.PrincipalID())
	if err != nil {
		a.emitFailure(ctx, ActivityEventCodeLoginFailure, email, principal.PrincipalID().String(), "no code found")
		return zero, err
	}

	if record.ExpiredAt(a.now()) || record.Token != code || !record.IsValid {
		a.emitFailure(ctx, ActivityEventCodeLoginFailure, email, principal.PrincipalID().String(), "invalid or expired code")
		return zero, ErrTokenExpired
	}

	if err := a.lifecycle.Invalidate(ctx, record); err != nil {
		return zero, err
	}

	a.emitSuccess(ctx, ActivityEventCodeLoginSuccess, email, principal.PrincipalID().String())

	return principal, nil
}

func (a *Authenticator[T]) emitSuccess(ctx context.Context, eventType ActivityEventType, email, id string) {
	a.record(ctx, ActivityEvent{
		EventType: eventType,
		Actor:     ActorRef{ID: id, Type: a.actorType},
		UserID:    id,
		Metadata:  map[string]any{"identifier": email},
	})
}

func (a *Authenticator[T]) emitFailure(ctx context.Context, eventType ActivityEventType, email, id, reason string) {
	actor := ActorRef{ID: id, Type: a.actorType}
	if id == "" {
		actor = ActorRef{Type: "unknown"}
	}

	a.record(ctx, ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    id,
		Metadata: map[string]any{
			"identifier": email,
			"reason":     reason,
		},
	})
}

func (a *Authenticator[T]) record(ctx context.Context, event ActivityEvent) {
	event.OccurredAt = a.now()
	if err := a.activity.Record(ctx, event); err != nil {
		a.logger.Error("activity sink error during %s: %v", event.EventType, err)
	}
}
