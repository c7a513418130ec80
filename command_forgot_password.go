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

type ForgotPasswordMessage struct {
	Email      string `json:"email"`
	OnResponse func(token *Token)
}

func (e ForgotPasswordMessage) Type() string { return "user.forgot_password" }

func (e ForgotPasswordMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// ForgotPasswordHandler issues a password recovery token and emails the
// recovery link to the account owner.
type ForgotPasswordHandler struct {
	repo      RepositoryManager
	lifecycle *TokenLifecycle
	notifier  Notifier
	config    Config
	logger    Logger
}

// NewForgotPasswordHandler creates a handler with sane defaults.
func NewForgotPasswordHandler(repo RepositoryManager, lifecycle *TokenLifecycle, config Config) *ForgotPasswordHandler {
	return &ForgotPasswordHandler{
		repo:      repo,
		lifecycle: lifecycle,
		notifier:  NewLoggerNotifier(nil),
		config:    config,
		logger:    defLogger{},
	}
}

func (h *ForgotPasswordHandler) WithNotifier(notifier Notifier) *ForgotPasswordHandler {
	if notifier != nil {
		h.notifier = notifier
	}
	return h
}

func (h *ForgotPasswordHandler) WithLogger(logger Logger) *ForgotPasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ForgotPasswordHandler) Execute(ctx context.Context, event ForgotPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password recovery request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ForgotPasswordHandler) execute(ctx context.Context, event ForgotPasswordMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid recovery payload")
	}

	h.logger.Info("password recovery requested email=%s", event.Email)

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			h.logger.Debug("password recovery failed: user not found email=%s", event.Email)
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for recovery")
	}

	record, err := h.lifecycle.Issue(ctx, TokenPasswordRecovery, user.ID)
	if err != nil {
		return err
	}

	link := templateURL(h.config.GetFrontendURL(), fmt.Sprintf("reset-password?token=%s", record.Token))
	dispatchMail(h.notifier, h.logger, passwordRecoveryMessage(user.Email, user.Name, link))

	h.logger.Info("password recovery email sent user_id=%s", user.ID)

	if event.OnResponse != nil {
		event.OnResponse(record)
	}

	return nil
}
