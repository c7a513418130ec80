package auth

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type ResendUserEmailValidationMessage struct {
	Email string `json:"email"`
}

func (e ResendUserEmailValidationMessage) Type() string { return "user.resend_email_validation" }

func (e ResendUserEmailValidationMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// ResendUserEmailValidationHandler re-sends the verification email. When the
// user still holds an unconsumed, unexpired verification token the same
// token is reused, so a link already sitting in an open email tab is not
// invalidated; otherwise a fresh token is minted.
type ResendUserEmailValidationHandler struct {
	repo      RepositoryManager
	lifecycle *TokenLifecycle
	notifier  Notifier
	config    Config
	logger    Logger
}

// NewResendUserEmailValidationHandler creates a handler with sane defaults.
func NewResendUserEmailValidationHandler(repo RepositoryManager, lifecycle *TokenLifecycle, config Config) *ResendUserEmailValidationHandler {
	return &ResendUserEmailValidationHandler{
		repo:      repo,
		lifecycle: lifecycle,
		notifier:  NewLoggerNotifier(nil),
		config:    config,
		logger:    defLogger{},
	}
}

func (h *ResendUserEmailValidationHandler) WithNotifier(notifier Notifier) *ResendUserEmailValidationHandler {
	if notifier != nil {
		h.notifier = notifier
	}
	return h
}

func (h *ResendUserEmailValidationHandler) WithLogger(logger Logger) *ResendUserEmailValidationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResendUserEmailValidationHandler) Execute(ctx context.Context, event ResendUserEmailValidationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendUserEmailValidationHandler) execute(ctx context.Context, event ResendUserEmailValidationMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid resend payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for resend")
	}

	record, ok := h.lifecycle.ActiveVerificationToken(ctx, user.ID)
	if !ok {
		if record, err = h.lifecycle.Issue(ctx, TokenEmailVerification, user.ID); err != nil {
			return err
		}
	}

	link := templateURL(h.config.GetFrontendURL(), fmt.Sprintf("verify-email?token=%s", record.Token))
	dispatchMail(h.notifier, h.logger, verifyEmailMessage(user.Email, user.Name, link))

	return nil
}
