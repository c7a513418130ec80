package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ResetPasswordMessage struct {
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (e ResetPasswordMessage) Type() string { return "user.reset_password" }

func (e ResetPasswordMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Token, validation.Required),
		validation.Field(&e.NewPassword, validation.Required, validation.Length(6, 0)),
		validation.Field(&e.ConfirmPassword, validation.Required),
	)
}

// ResetPasswordHandler rotates a user's password against a valid recovery
// token. The confirmation mismatch check runs before any store mutation, and
// the token is consumed in the same transaction as the password write.
type ResetPasswordHandler struct {
	repo      RepositoryManager
	lifecycle *TokenLifecycle
	logger    Logger
	activity  ActivitySink
}

// NewResetPasswordHandler creates a handler with sane defaults.
func NewResetPasswordHandler(repo RepositoryManager, lifecycle *TokenLifecycle) *ResetPasswordHandler {
	return &ResetPasswordHandler{
		repo:      repo,
		lifecycle: lifecycle,
		logger:    defLogger{},
		activity:  noopActivitySink{},
	}
}

func (h *ResetPasswordHandler) WithLogger(logger Logger) *ResetPasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithActivitySink sets the sink used to emit password reset events.
func (h *ResetPasswordHandler) WithActivitySink(sink ActivitySink) *ResetPasswordHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *ResetPasswordHandler) Execute(ctx context.Context, event ResetPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResetPasswordHandler) execute(ctx context.Context, event ResetPasswordMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid reset payload")
	}

	h.logger.Info("password reset attempt")

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	record, err := h.lifecycle.ValidateForConsumption(ctx, event.Token, TokenPasswordRecovery)
	if err != nil {
		h.logger.Debug("password reset failed: %v", err)
		return err
	}

	if event.NewPassword != event.ConfirmPassword {
		h.logger.Debug("password reset failed: passwords do not match user_id=%s", record.UserID)
		return ErrPasswordsDoNotMatch
	}

	passwordHash, err := HashPassword(event.NewPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.Users().ResetPasswordTx(ctx, tx, record.UserID, passwordHash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password")
		}

		return h.lifecycle.ConsumeTx(ctx, tx, record)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset transaction failed")
	}

	h.recordActivity(ctx, record)

	h.logger.Info("password reset successful user_id=%s", record.UserID)

	return nil
}

func (h *ResetPasswordHandler) recordActivity(ctx context.Context, record *Token) {
	event := ActivityEvent{
		EventType:  ActivityEventPasswordResetSuccess,
		Actor:      ActorRef{ID: record.UserID.String(), Type: "user"},
		UserID:     record.UserID.String(),
		Metadata:   map[string]any{"token_id": record.ID.String()},
		OccurredAt: time.Now(),
	}

	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Error("activity sink error during password reset: %v", err)
	}
}
