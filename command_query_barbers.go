package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

type GetBarberMessage struct {
	ID         uuid.UUID `json:"id"`
	OnResponse func(profile BarberProfile)
}

func (e GetBarberMessage) Type() string { return "barber.get" }

func (e GetBarberMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.ID, validation.Required),
	)
}

// GetBarberHandler fetches a single barber, password stripped.
type GetBarberHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewGetBarberHandler creates a handler with sane defaults.
func NewGetBarberHandler(repo RepositoryManager) *GetBarberHandler {
	return &GetBarberHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *GetBarberHandler) WithLogger(logger Logger) *GetBarberHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *GetBarberHandler) Execute(ctx context.Context, event GetBarberMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during barber fetch",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *GetBarberHandler) execute(ctx context.Context, event GetBarberMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid barber fetch payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	barber, err := h.repo.Barbers().GetByID(ctx, event.ID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			h.logger.Debug("barber not found barber_id=%s", event.ID)
			return ErrBarberNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve barber")
	}

	if event.OnResponse != nil {
		event.OnResponse(barber.Profile())
	}

	return nil
}

type ListBarbersMessage struct {
	IsActive   *bool `json:"is_active"`
	Skip       int   `json:"skip"`
	Take       int   `json:"take"`
	OnResponse func(profiles []BarberProfile)
}

func (e ListBarbersMessage) Type() string { return "barber.list" }

// ListBarbersHandler lists barbers with optional activity filter and paging.
// Passwords are stripped from every record before the response leaves the
// handler.
type ListBarbersHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewListBarbersHandler creates a handler with sane defaults.
func NewListBarbersHandler(repo RepositoryManager) *ListBarbersHandler {
	return &ListBarbersHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *ListBarbersHandler) WithLogger(logger Logger) *ListBarbersHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ListBarbersHandler) Execute(ctx context.Context, event ListBarbersMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during barber listing",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ListBarbersHandler) execute(ctx context.Context, event ListBarbersMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	records, err := h.repo.Barbers().List(ctx, ListBarbersCriteria{
		IsActive: event.IsActive,
		Offset:   event.Skip,
		Limit:    event.Take,
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list barbers")
	}

	profiles := make([]BarberProfile, 0, len(records))
	for _, record := range records {
		profiles = append(profiles, record.Profile())
	}

	if event.OnResponse != nil {
		event.OnResponse(profiles)
	}

	return nil
}
