package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BarberRole is the barber's role
type BarberRole = string

const (
	// RoleUser is the implicit non-barber role carried by plain user tokens
	RoleUser BarberRole = "user"
	// RoleBarber is the base barber role
	RoleBarber BarberRole = "BARBER"
	// RoleManager can manage shop-level resources
	RoleManager BarberRole = "MANAGER"
	// RoleAdmin can manage other barbers
	RoleAdmin BarberRole = "ADMIN"
)

// User is the end-user model
type User struct {
	bun.BaseModel   `bun:"table:users,alias:usr"`
	ID              uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name            string     `bun:"name,notnull" json:"name,omitempty"`
	Email           string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash    string     `bun:"password_hash" json:"password_hash,omitempty"`
	IsEmailVerified bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	CreatedAt       *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Barber is the barber model
type Barber struct {
	bun.BaseModel `bun:"table:barbers,alias:brb"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"password_hash,omitempty"`
	PhoneNumber   string     `bun:"phone_number" json:"phone_number,omitempty"`
	Role          BarberRole `bun:"role,notnull" json:"role,omitempty"`
	IsActive      bool       `bun:"is_active,notnull,default:true" json:"is_active,omitempty"`
	Bio           string     `bun:"bio" json:"bio,omitempty"`
	ProfilePhoto  string     `bun:"profile_photo" json:"profile_photo,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// BarberProfile is the externally visible projection of a Barber, with the
// password hash stripped.
type BarberProfile struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PhoneNumber  string     `json:"phone_number,omitempty"`
	Role         BarberRole `json:"role"`
	IsActive     bool       `json:"is_active"`
	Bio          string     `json:"bio,omitempty"`
	ProfilePhoto string     `json:"profile_photo,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Profile strips credentials from a barber record.
func (b *Barber) Profile() BarberProfile {
	return BarberProfile{
		ID:           b.ID,
		Name:         b.Name,
		Email:        b.Email,
		PhoneNumber:  b.PhoneNumber,
		Role:         b.Role,
		IsActive:     b.IsActive,
		Bio:          b.Bio,
		ProfilePhoto: b.ProfilePhoto,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

// UserProfile is the externally visible projection of a User.
type UserProfile struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	IsEmailVerified bool       `json:"is_email_verified"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// Profile strips credentials from a user record.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// TokenType tags a token with the single use case that may consume it
type TokenType = string

const (
	// TokenEmailVerification backs verify-email links
	TokenEmailVerification TokenType = "email_verification"
	// TokenPasswordRecovery backs reset-password links
	TokenPasswordRecovery TokenType = "password_recovery"
	// TokenLoginCode backs one-time login codes
	TokenLoginCode TokenType = "login_code"
)

// Token is a time-boxed, typed, single-purpose secret linked to one principal.
// Tokens are never physically deleted: consumption flips HasBeenValidated or
// IsValid, and expiry is derived from ExpiresAt at read time.
type Token struct {
	bun.BaseModel    `bun:"table:tokens,alias:tkn"`
	ID               uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token            string     `bun:"token,notnull" json:"-"`
	Type             TokenType  `bun:"type,notnull" json:"type,omitempty"`
	UserID           uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	ExpiresAt        time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	IsValid          bool       `bun:"is_valid,notnull,default:true" json:"is_valid,omitempty"`
	HasBeenValidated bool       `bun:"has_been_validated,notnull,default:false" json:"has_been_validated,omitempty"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// ExpiredAt reports whether the token is past its expiry at the given instant.
// Expiry is strict: a token is invalid only after ExpiresAt.
func (t *Token) ExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// ConsumableAt reports whether the token can still serve its primary purpose:
// unexpired, unconsumed, and still valid.
func (t *Token) ConsumableAt(now time.Time) bool {
	return t.IsValid && !t.HasBeenValidated && !t.ExpiredAt(now)
}

// Principal is an entity capable of authenticating: a User or a Barber.
// Both kinds expose the same capability set so the Authenticator stays a
// single generic algorithm.
type Principal interface {
	PrincipalID() uuid.UUID
	PrincipalEmail() string
	Credentials() string
	Active() bool
	PrincipalRole() BarberRole
}

func (u *User) PrincipalID() uuid.UUID { return u.ID }
func (u *User) PrincipalEmail() string { return u.Email }
func (u *User) Credentials() string { return u.PasswordHash }
func (u *User) PrincipalRole() BarberRole { return RoleUser }

// Active is always true for users: the user kind carries no activation flag,
// only an email-verified flag that does not gate password login.
func (u *User) Active() bool { return true }

func (b *Barber) PrincipalID() uuid.UUID { return b.ID }
func (b *Barber) PrincipalEmail() string { return b.Email }
func (b *Barber) Credentials() string { return b.PasswordHash }
func (b *Barber) PrincipalRole() BarberRole { return b.Role }
func (b *Barber) Active() bool { return b.IsActive }

var (
	_ Principal = (*User)(nil)
	_ Principal = (*Barber)(nil)
)
