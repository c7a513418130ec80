package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ListBarbersCriteria filters and pages barber listings.
type ListBarbersCriteria struct {
	IsActive *bool
	Offset   int
	Limit    int
}

// Barbers is the persistence contract for barber principals. Unlike users,
// barbers support hard deletion.
type Barbers interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*Barber, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (*Barber, error)

	Create(ctx context.Context, record *Barber, criteria ...repository.InsertCriteria) (*Barber, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Barber, criteria ...repository.InsertCriteria) (*Barber, error)

	Update(ctx context.Context, record *Barber, criteria ...repository.UpdateCriteria) (*Barber, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *Barber, criteria ...repository.UpdateCriteria) (*Barber, error)

	GetByEmail(ctx context.Context, email string) (*Barber, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Barber, error)

	List(ctx context.Context, criteria ListBarbersCriteria) ([]*Barber, error)

	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type barbers struct {
	repository.Repository[*Barber]
	db *bun.DB
}

var _ Barbers = (*barbers)(nil)

func NewBarbersRepository(db *bun.DB) Barbers {
	repo := repository.NewRepository[*Barber](db, repository.ModelHandlers[*Barber]{
		NewRecord: func() *Barber { return &Barber{} },
		GetID: func(b *Barber) uuid.UUID {
			if b == nil {
				return uuid.Nil
			}
			return b.ID
		},
		SetID: func(b *Barber, id uuid.UUID) {
			if b != nil {
				b.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &barbers{
		Repository: repo,
		db:         db,
	}
}

func (a *barbers) GetByEmail(ctx context.Context, email string) (*Barber, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *barbers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Barber, error) {
	record := &Barber{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *barbers) Create(ctx context.Context, record *Barber, criteria ...repository.InsertCriteria) (*Barber, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *barbers) CreateTx(ctx context.Context, tx bun.IDB, record *Barber, criteria ...repository.InsertCriteria) (*Barber, error) {
	prepareBarberDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *barbers) Update(ctx context.Context, record *Barber, criteria ...repository.UpdateCriteria) (*Barber, error) {
	return a.UpdateTx(ctx, a.db, record, criteria...)
}

// UpdateTx writes the full row so boolean flags can transition to false.
func (a *barbers) UpdateTx(ctx context.Context, tx bun.IDB, record *Barber, _ ...repository.UpdateCriteria) (*Barber, error) {
	if _, err := tx.NewUpdate().
		Model(record).
		WherePK().
		Exec(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

func (a *barbers) List(ctx context.Context, criteria ListBarbersCriteria) ([]*Barber, error) {
	var records []*Barber

	q := a.db.NewSelect().
		Model(&records).
		Order("created_at DESC")

	if criteria.IsActive != nil {
		q = q.Where("?TableAlias.is_active = ?", *criteria.IsActive)
	}

	if criteria.Offset > 0 {
		q = q.Offset(criteria.Offset)
	}

	if criteria.Limit > 0 {
		q = q.Limit(criteria.Limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

func (a *barbers) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return a.DeleteByIDTx(ctx, a.db, id)
}

func (a *barbers) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*Barber)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	return err
}

func prepareBarberDefaults(record *Barber) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.Role == "" {
		record.Role = RoleBarber
	}

	// new barbers always start active; deactivation is an update concern
	record.IsActive = true
}
