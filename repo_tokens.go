package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Tokens is the persistence contract for security tokens. Tokens are only
// ever inserted and updated; expiry and consumption are flag/timestamp
// checks, never deletes.
type Tokens interface {
	repository.Repository[*Token]

	GetByToken(ctx context.Context, value string) (*Token, error)
	GetByTokenTx(ctx context.Context, tx bun.IDB, value string) (*Token, error)

	// GetCurrentForUser returns the most recently issued token of the given
	// type for the principal.
	GetCurrentForUser(ctx context.Context, userID uuid.UUID, tokenType TokenType) (*Token, error)
	GetCurrentForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, tokenType TokenType) (*Token, error)

	// MarkValidated flips the consumption flag used by verification flows.
	MarkValidated(ctx context.Context, id uuid.UUID) error
	MarkValidatedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	// Invalidate flips IsValid off, the single-use consumption for codes.
	Invalidate(ctx context.Context, id uuid.UUID) error
	InvalidateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type tokens struct {
	repository.Repository[*Token]
	db *bun.DB
}

var (
	_ Tokens                        = (*tokens)(nil)
	_ repository.Repository[*Token] = (*tokens)(nil)
)

func NewTokensRepository(db *bun.DB) Tokens {
	repo := repository.NewRepository[*Token](db, repository.ModelHandlers[*Token]{
		NewRecord: func() *Token { return &Token{} },
		GetID: func(t *Token) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Token, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &tokens{
		Repository: repo,
		db:         db,
	}
}

func (a *tokens) GetByToken(ctx context.Context, value string) (*Token, error) {
	return a.GetByTokenTx(ctx, a.db, value)
}

func (a *tokens) GetByTokenTx(ctx context.Context, tx bun.IDB, value string) (*Token, error) {
	record := &Token{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (a *tokens) GetCurrentForUser(ctx context.Context, userID uuid.UUID, tokenType TokenType) (*Token, error) {
	return a.GetCurrentForUserTx(ctx, a.db, userID, tokenType)
}

func (a *tokens) GetCurrentForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, tokenType TokenType) (*Token, error) {
	record := &Token{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.type = ?", tokenType).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"user_id": userID.String(),
					"type":    tokenType,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *tokens) MarkValidated(ctx context.Context, id uuid.UUID) error {
	return a.MarkValidatedTx(ctx, a.db, id)
}

func (a *tokens) MarkValidatedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewUpdate().
		Model((*Token)(nil)).
		Set("has_been_validated = ?", true).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	return err
}

func (a *tokens) Invalidate(ctx context.Context, id uuid.UUID) error {
	return a.InvalidateTx(ctx, a.db, id)
}

func (a *tokens) InvalidateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewUpdate().
		Model((*Token)(nil)).
		Set("is_valid = ?", false).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	return err
}

func (a *tokens) Create(ctx context.Context, record *Token, criteria ...repository.InsertCriteria) (*Token, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *tokens) CreateTx(ctx context.Context, tx bun.IDB, record *Token, criteria ...repository.InsertCriteria) (*Token, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}
