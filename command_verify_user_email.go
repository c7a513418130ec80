package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type VerifyUserEmailMessage struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

func (e VerifyUserEmailMessage) Type() string { return "user.verify_email" }

func (e VerifyUserEmailMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Token, validation.Required),
	)
}

// VerifyUserEmailHandler consumes an email verification token and marks the
// owning user as verified.
//
// The operation is idempotent: re-visiting an already validated link, or
// verifying an already verified user, returns success with no state change.
type VerifyUserEmailHandler struct {
	repo      RepositoryManager
	lifecycle *TokenLifecycle
	logger    Logger
	activity  ActivitySink
	now       func() time.Time
}

// NewVerifyUserEmailHandler creates a handler with sane defaults.
func NewVerifyUserEmailHandler(repo RepositoryManager, lifecycle *TokenLifecycle) *VerifyUserEmailHandler {
	return &VerifyUserEmailHandler{
		repo:      repo,
		lifecycle: lifecycle,
		logger:    defLogger{},
		activity:  noopActivitySink{},
		now:       time.Now,
	}
}

func (h *VerifyUserEmailHandler) WithLogger(logger Logger) *VerifyUserEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithActivitySink sets the sink used to emit verification events.
func (h *VerifyUserEmailHandler) WithActivitySink(sink ActivitySink) *VerifyUserEmailHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithClock overrides the time source. Used by tests to pin expiry.
func (h *VerifyUserEmailHandler) WithClock(now func() time.Time) *VerifyUserEmailHandler {
	if now != nil {
		h.now = now
	}
	return h
}

func (h *VerifyUserEmailHandler) Execute(ctx context.Context, event VerifyUserEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyUserEmailHandler) execute(ctx context.Context, event VerifyUserEmailMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid verification payload")
	}

	h.logger.Info("email validation attempt email=%s", event.Email)

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	record, err := h.repo.Tokens().GetByToken(ctx, event.Token)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			h.logger.Debug("email validation failed: token not found email=%s", event.Email)
			return ErrTokenInvalid
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up verification token")
	}

	// the already-done short-circuit comes before every validity check so a
	// re-visited link stays a success even once the token has expired
	if record.HasBeenValidated {
		h.logger.Debug("email already validated email=%s", event.Email)
		return nil
	}

	if record.Type != TokenEmailVerification || record.ExpiredAt(h.now()) {
		h.logger.Debug("email validation failed: invalid token email=%s", event.Email)
		return ErrTokenInvalid
	}

	user, err := h.repo.Users().GetByID(ctx, record.UserID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for verification")
	}

	if user.IsEmailVerified {
		h.logger.Debug("user email already verified user_id=%s", user.ID)
		return nil
	}

	if user.Email != event.Email {
		h.logger.Debug("email validation failed: email mismatch user_id=%s", user.ID)
		return ErrTokenInvalid
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.Users().MarkEmailVerifiedTx(ctx, tx, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark user email as verified")
		}

		return h.lifecycle.ConsumeTx(ctx, tx, record)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "email verification transaction failed")
	}

	h.recordActivity(ctx, user)

	return nil
}

func (h *VerifyUserEmailHandler) recordActivity(ctx context.Context, user *User) {
	event := ActivityEvent{
		EventType:  ActivityEventEmailVerified,
		Actor:      ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:     user.ID.String(),
		OccurredAt: h.now(),
	}

	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Error("activity sink error during email verification: %v", err)
	}
}
