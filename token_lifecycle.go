package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// linkTokenBytes sizes the random secret for link-based tokens. 32 bytes is
// well past the point where guessing is feasible inside any TTL window.
const linkTokenBytes = 32

// loginCodeDigits is the length of one-time login codes. Codes are
// low-entropy and compensate with a short TTL and single-use consumption.
const loginCodeDigits = 6

// TokenLifecycle issues, validates, and consumes typed security tokens.
//
// The per-token state machine is Issued -> Consumed and Issued -> Expired.
// Expired is derived from ExpiresAt at read time, never stored. Neither
// terminal state can be left.
type TokenLifecycle struct {
	tokens   Tokens
	config   Config
	logger   Logger
	activity ActivitySink
	now      func() time.Time
}

// NewTokenLifecycle wires a lifecycle over the given token store.
func NewTokenLifecycle(tokens Tokens, config Config) *TokenLifecycle {
	return &TokenLifecycle{
		tokens:   tokens,
		config:   config,
		logger:   defLogger{},
		activity: noopActivitySink{},
		now:      time.Now,
	}
}

func (l *TokenLifecycle) WithLogger(logger Logger) *TokenLifecycle {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// WithActivitySink sets the sink used to emit token events.
func (l *TokenLifecycle) WithActivitySink(sink ActivitySink) *TokenLifecycle {
	l.activity = normalizeActivitySink(sink)
	return l
}

// WithClock overrides the time source. Used by tests to pin expiry.
func (l *TokenLifecycle) WithClock(now func() time.Time) *TokenLifecycle {
	if now != nil {
		l.now = now
	}
	return l
}

// Issue mints a fresh token of the given type for the principal. The secret
// shape is policy per type: a numeric code for login flows, an opaque random
// string for link flows.
func (l *TokenLifecycle) Issue(ctx context.Context, tokenType TokenType, userID uuid.UUID) (*Token, error) {
	return l.IssueTx(ctx, nil, tokenType, userID)
}

func (l *TokenLifecycle) IssueTx(ctx context.Context, tx bun.IDB, tokenType TokenType, userID uuid.UUID) (*Token, error) {
	secret, err := generateTokenSecret(tokenType)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate token secret")
	}

	record := &Token{
		Token:     secret,
		Type:      tokenType,
		UserID:    userID,
		ExpiresAt: l.now().Add(l.config.GetTokenTTL(tokenType)),
		IsValid:   true,
	}

	if tx != nil {
		record, err = l.tokens.CreateTx(ctx, tx, record)
	} else {
		record, err = l.tokens.Create(ctx, record)
	}
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist token")
	}

	l.recordActivity(ctx, ActivityEventTokenIssued, record)

	return record, nil
}

// ValidateForConsumption looks a token up by value and checks every rule that
// gates its use: existence, type, expiry, and prior consumption. It does not
// flip any flag; each calling use case decides the precise consumption
// semantics.
func (l *TokenLifecycle) ValidateForConsumption(ctx context.Context, value string, expectedType TokenType) (*Token, error) {
	record, err := l.tokens.GetByToken(ctx, value)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrTokenNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up token")
	}

	if record.Type != expectedType {
		l.logger.Debug("token type mismatch: have %s want %s", record.Type, expectedType)
		return nil, ErrTokenInvalid
	}

	if record.ExpiredAt(l.now()) {
		return nil, ErrTokenExpired
	}

	if record.HasBeenValidated || !record.IsValid {
		return nil, ErrTokenExpired
	}

	return record, nil
}

// Consume marks a token as validated, ending its primary purpose. Consuming
// an already validated token is a no-op, not an error: re-visiting a used
// verification link reports success without side effects.
func (l *TokenLifecycle) Consume(ctx context.Context, record *Token) error {
	return l.ConsumeTx(ctx, nil, record)
}

func (l *TokenLifecycle) ConsumeTx(ctx context.Context, tx bun.IDB, record *Token) error {
	if record.HasBeenValidated {
		return nil
	}

	var err error
	if tx != nil {
		err = l.tokens.MarkValidatedTx(ctx, tx, record.ID)
	} else {
		err = l.tokens.MarkValidated(ctx, record.ID)
	}
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark token as validated")
	}

	record.HasBeenValidated = true
	l.recordActivity(ctx, ActivityEventTokenConsumed, record)

	return nil
}

// Invalidate flips IsValid off, the single-use consumption for login codes.
// A code cannot authenticate twice even inside its expiry window.
func (l *TokenLifecycle) Invalidate(ctx context.Context, record *Token) error {
	if err := l.tokens.Invalidate(ctx, record.ID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to invalidate token")
	}

	record.IsValid = false
	l.recordActivity(ctx, ActivityEventTokenConsumed, record)

	return nil
}

// CurrentLoginCode returns the principal's most recent login code token, or
// ErrInvalidCode when none exists.
func (l *TokenLifecycle) CurrentLoginCode(ctx context.Context, userID uuid.UUID) (*Token, error) {
	record, err := l.tokens.GetCurrentForUser(ctx, userID, TokenLoginCode)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCode
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up login code")
	}
	return record, nil
}

// ActiveVerificationToken returns the principal's current email verification
// token when it is still usable. Resends reuse this token instead of minting
// a new one, so a link already sitting in the user's inbox stays valid.
func (l *TokenLifecycle) ActiveVerificationToken(ctx context.Context, userID uuid.UUID) (*Token, bool) {
	record, err := l.tokens.GetCurrentForUser(ctx, userID, TokenEmailVerification)
	if err != nil {
		return nil, false
	}

	if !record.ConsumableAt(l.now()) {
		return nil, false
	}

	return record, true
}

func (l *TokenLifecycle) recordActivity(ctx context.Context, eventType ActivityEventType, record *Token) {
	event := ActivityEvent{
		EventType: eventType,
		Actor:     ActorRef{ID: record.UserID.String(), Type: "user"},
		UserID:    record.UserID.String(),
		Metadata: map[string]any{
			"token_id":   record.ID.String(),
			"token_type": record.Type,
		},
		OccurredAt: l.now(),
	}

	if err := l.activity.Record(ctx, event); err != nil {
		l.logger.Error("activity sink error during token %s: %v", eventType, err)
	}
}

func generateTokenSecret(tokenType TokenType) (string, error) {
	if tokenType == TokenLoginCode {
		return generateNumericCode(loginCodeDigits)
	}
	return generateOpaqueToken(linkTokenBytes)
}

func generateOpaqueToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func generateNumericCode(digits int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}
