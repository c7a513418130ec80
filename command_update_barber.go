package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// UpdateBarberMessage carries a partial update: zero-value fields are left
// untouched, pointer fields distinguish "absent" from "set to false".
type UpdateBarberMessage struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Password     string     `json:"password"`
	PhoneNumber  *string    `json:"phone_number"`
	Role         BarberRole `json:"role"`
	IsActive     *bool      `json:"is_active"`
	Bio          *string    `json:"bio"`
	ProfilePhoto *string    `json:"profile_photo"`
	OnResponse   func(barber *Barber)
}

func (e UpdateBarberMessage) Type() string { return "barber.update" }

func (e UpdateBarberMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.ID, validation.Required),
		validation.Field(&e.Email, is.Email),
		validation.Field(&e.Password, validation.Length(6, 0)),
		validation.Field(&e.Role, validation.In(RoleBarber, RoleManager, RoleAdmin)),
	)
}

// UpdateBarberHandler applies a partial update to a barber record. The email
// uniqueness check only runs when the email actually changes, and the
// password is re-hashed only when a new one is supplied.
type UpdateBarberHandler struct {
	repo     RepositoryManager
	guard    *EmailChangeGuard[*Barber]
	logger   Logger
	activity ActivitySink
}

// NewUpdateBarberHandler creates a handler with sane defaults.
func NewUpdateBarberHandler(repo RepositoryManager) *UpdateBarberHandler {
	return &UpdateBarberHandler{
		repo:     repo,
		guard:    NewEmailChangeGuard[*Barber](repo.Barbers()),
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (h *UpdateBarberHandler) WithLogger(logger Logger) *UpdateBarberHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithActivitySink sets the sink used to emit barber lifecycle events.
func (h *UpdateBarberHandler) WithActivitySink(sink ActivitySink) *UpdateBarberHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *UpdateBarberHandler) Execute(ctx context.Context, event UpdateBarberMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during barber update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateBarberHandler) execute(ctx context.Context, event UpdateBarberMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid barber update payload")
	}

	h.logger.Info("updating barber barber_id=%s", event.ID)

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	barber, err := h.repo.Barbers().GetByID(ctx, event.ID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			h.logger.Debug("barber update failed: barber not found barber_id=%s", event.ID)
			return ErrBarberNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve barber for update")
	}

	if err := h.guard.CheckUpdate(ctx, barber.Email, event.Email); err != nil {
		h.logger.Debug("barber update failed: email already exists email=%s", event.Email)
		return err
	}

	if event.Name != "" {
		barber.Name = event.Name
	}
	if event.Email != "" {
		barber.Email = event.Email
	}
	if event.Role != "" {
		barber.Role = event.Role
	}
	if event.PhoneNumber != nil {
		barber.PhoneNumber = *event.PhoneNumber
	}
	if event.IsActive != nil {
		barber.IsActive = *event.IsActive
	}
	if event.Bio != nil {
		barber.Bio = *event.Bio
	}
	if event.ProfilePhoto != nil {
		barber.ProfilePhoto = *event.ProfilePhoto
	}

	if event.Password != "" {
		hash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}
		barber.PasswordHash = hash
	}

	if barber, err = h.repo.Barbers().Update(ctx, barber); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not update barber")
	}

	h.logger.Info("barber updated barber_id=%s", barber.ID)

	h.recordActivity(ctx, barber)

	if event.OnResponse != nil {
		event.OnResponse(barber)
	}

	return nil
}

func (h *UpdateBarberHandler) recordActivity(ctx context.Context, barber *Barber) {
	event := ActivityEvent{
		EventType:  ActivityEventBarberUpdated,
		Actor:      ActorRef{ID: barber.ID.String(), Type: "barber"},
		UserID:     barber.ID.String(),
		OccurredAt: time.Now(),
	}

	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Error("activity sink error during barber update: %v", err)
	}
}
