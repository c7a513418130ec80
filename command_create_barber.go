package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

type CreateBarberMessage struct {
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Password     string     `json:"password"`
	PhoneNumber  string     `json:"phone_number"`
	Role         BarberRole `json:"role"`
	Bio          string     `json:"bio"`
	ProfilePhoto string     `json:"profile_photo"`
	OnResponse   func(barber *Barber)
}

func (e CreateBarberMessage) Type() string { return "barber.create" }

func (e CreateBarberMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(6, 0)),
		validation.Field(&e.PhoneNumber, validation.By(validPhoneNumber)),
		validation.Field(&e.Role, validation.In(RoleBarber, RoleManager, RoleAdmin)),
		validation.Field(&e.ProfilePhoto, is.URL),
	)
}

// validPhoneNumber accepts empty values and otherwise requires a parseable,
// valid international number.
func validPhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "")
	if err != nil {
		return err
	}

	if !phonenumbers.IsValidNumber(num) {
		return validation.NewError("validation_phone", "must be a valid phone number")
	}

	return nil
}

// CreateBarberHandler registers a new barber account.
type CreateBarberHandler struct {
	repo     RepositoryManager
	guard    *EmailChangeGuard[*Barber]
	logger   Logger
	activity ActivitySink
}

// NewCreateBarberHandler creates a handler with sane defaults.
func NewCreateBarberHandler(repo RepositoryManager) *CreateBarberHandler {
	return &CreateBarberHandler{
		repo:     repo,
		guard:    NewEmailChangeGuard[*Barber](repo.Barbers()),
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (h *CreateBarberHandler) WithLogger(logger Logger) *CreateBarberHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithActivitySink sets the sink used to emit barber lifecycle events.
func (h *CreateBarberHandler) WithActivitySink(sink ActivitySink) *CreateBarberHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *CreateBarberHandler) Execute(ctx context.Context, event CreateBarberMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during barber creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateBarberHandler) execute(ctx context.Context, event CreateBarberMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid barber payload")
	}

	h.logger.Info("creating new barber email=%s", event.Email)

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := h.guard.CheckCreate(ctx, event.Email); err != nil {
		h.logger.Debug("barber creation failed: email already exists email=%s", event.Email)
		return err
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	barber := &Barber{
		Name:         event.Name,
		Email:        event.Email,
		PasswordHash: hash,
		PhoneNumber:  event.PhoneNumber,
		Role:         event.Role,
		Bio:          event.Bio,
		ProfilePhoto: event.ProfilePhoto,
	}

	if barber, err = h.repo.Barbers().Create(ctx, barber); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create barber")
	}

	h.logger.Info("barber created barber_id=%s email=%s", barber.ID, barber.Email)

	h.recordActivity(ctx, ActivityEventBarberCreated, barber)

	if event.OnResponse != nil {
		event.OnResponse(barber)
	}

	return nil
}

func (h *CreateBarberHandler) recordActivity(ctx context.Context, eventType ActivityEventType, barber *Barber) {
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      ActorRef{ID: barber.ID.String(), Type: "barber"},
		UserID:     barber.ID.String(),
		Metadata:   map[string]any{"email": barber.Email},
		OccurredAt: time.Now(),
	}

	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Error("activity sink error during barber create: %v", err)
	}
}
