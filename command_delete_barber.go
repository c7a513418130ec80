package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

type DeleteBarberMessage struct {
	ID uuid.UUID `json:"id"`
}

func (e DeleteBarberMessage) Type() string { return "barber.delete" }

func (e DeleteBarberMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.ID, validation.Required),
	)
}

// DeleteBarberHandler hard-deletes a barber record. Barbers are the only
// principal kind with a delete operation.
type DeleteBarberHandler struct {
	repo     RepositoryManager
	logger   Logger
	activity ActivitySink
}

// NewDeleteBarberHandler creates a handler with sane defaults.
func NewDeleteBarberHandler(repo RepositoryManager) *DeleteBarberHandler {
	return &DeleteBarberHandler{
		repo:     repo,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (h *DeleteBarberHandler) WithLogger(logger Logger) *DeleteBarberHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithActivitySink sets the sink used to emit barber lifecycle events.
func (h *DeleteBarberHandler) WithActivitySink(sink ActivitySink) *DeleteBarberHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *DeleteBarberHandler) Execute(ctx context.Context, event DeleteBarberMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during barber deletion",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *DeleteBarberHandler) execute(ctx context.Context, event DeleteBarberMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid barber delete payload")
	}

	h.logger.Info("deleting barber barber_id=%s", event.ID)

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	barber, err := h.repo.Barbers().GetByID(ctx, event.ID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			h.logger.Debug("barber deletion failed: barber not found barber_id=%s", event.ID)
			return ErrBarberNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve barber for deletion")
	}

	if err := h.repo.Barbers().DeleteByID(ctx, barber.ID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not delete barber")
	}

	h.logger.Info("barber deleted barber_id=%s", barber.ID)

	h.recordActivity(ctx, barber)

	return nil
}

func (h *DeleteBarberHandler) recordActivity(ctx context.Context, barber *Barber) {
	event := ActivityEvent{
		EventType:  ActivityEventBarberDeleted,
		Actor:      ActorRef{ID: barber.ID.String(), Type: "barber"},
		UserID:     barber.ID.String(),
		Metadata:   map[string]any{"email": barber.Email},
		OccurredAt: time.Now(),
	}

	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Error("activity sink error during barber delete: %v", err)
	}
}
