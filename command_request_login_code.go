package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type RequestLoginCodeMessage struct {
	Email string `json:"email"`
}

func (e RequestLoginCodeMessage) Type() string { return "user.request_login_code" }

func (e RequestLoginCodeMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// RequestLoginCodeHandler issues a one-time login code and emails it to the
// account owner. The code is short-lived and consumed on first successful
// authentication.
type RequestLoginCodeHandler struct {
	repo      RepositoryManager
	lifecycle *TokenLifecycle
	notifier  Notifier
	logger    Logger
}

// NewRequestLoginCodeHandler creates a handler with sane defaults.
func NewRequestLoginCodeHandler(repo RepositoryManager, lifecycle *TokenLifecycle) *RequestLoginCodeHandler {
	return &RequestLoginCodeHandler{
		repo:      repo,
		lifecycle: lifecycle,
		notifier:  NewLoggerNotifier(nil),
		logger:    defLogger{},
	}
}

func (h *RequestLoginCodeHandler) WithNotifier(notifier Notifier) *RequestLoginCodeHandler {
	if notifier != nil {
		h.notifier = notifier
	}
	return h
}

func (h *RequestLoginCodeHandler) WithLogger(logger Logger) *RequestLoginCodeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestLoginCodeHandler) Execute(ctx context.Context, event RequestLoginCodeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during login code request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestLoginCodeHandler) execute(ctx context.Context, event RequestLoginCodeMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login code payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for login code")
	}

	record, err := h.lifecycle.Issue(ctx, TokenLoginCode, user.ID)
	if err != nil {
		return err
	}

	dispatchMail(h.notifier, h.logger, loginCodeMessage(user.Email, user.Name, record.Token))

	h.logger.Info("login code issued user_id=%s", user.ID)

	return nil
}
