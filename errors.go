package auth

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCreds    = "invalid_credentials"
	TextCodeAccountInactive = "account_inactive"
	TextCodeInvalidCode     = "invalid_code"
	TextCodeTokenExpired    = "token_expired"
	TextCodeTokenNotFound   = "token_not_found"
	TextCodeTokenInvalid    = "token_invalid"
	TextCodeEmailExists     = "email_exists"
	TextCodePasswordsDiffer = "passwords_differ"
	TextCodeUserNotFound    = "user_not_found"
	TextCodeBarberNotFound  = "barber_not_found"
	TextCodeBarberRequired  = "barber_access_required"
)

// ErrMismatchedHashAndPassword is returned when a password does not verify
// against the stored hash. It carries the same external message as
// ErrIdentityNotFound so callers cannot distinguish a bad password from an
// unknown account.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is returned when no principal owns the identifier.
var ErrIdentityNotFound = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrAccountInactive is returned when the principal exists but its account
// has been deactivated.
var ErrAccountInactive = errors.New("account is inactive", errors.CategoryAuth).
	WithTextCode(TextCodeAccountInactive).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCode is returned when a principal has no current login code.
var ErrInvalidCode = errors.New("invalid code", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCode).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a token is past its expiry, already
// consumed, or does not match the supplied secret.
var ErrTokenExpired = errors.New("this token has expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenNotFound is returned when no token matches the supplied value.
var ErrTokenNotFound = errors.New("this token is not valid", errors.CategoryNotFound).
	WithTextCode(TextCodeTokenNotFound).
	WithCode(errors.CodeNotFound)

// ErrTokenInvalid is returned when a token exists but cannot be consumed for
// the requested purpose (wrong type, wrong owner).
var ErrTokenInvalid = errors.New("this token is not valid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrEmailTaken is returned when a create or update would give two principals
// of the same kind the same email.
var ErrEmailTaken = errors.New("email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeConflict)

// ErrPasswordsDoNotMatch is returned when the new password and its
// confirmation differ on a password reset.
var ErrPasswordsDoNotMatch = errors.New("password does not match", errors.CategoryBadInput).
	WithTextCode(TextCodePasswordsDiffer).
	WithCode(errors.CodeBadRequest)

// ErrUserNotFound is returned when a referenced user record does not exist.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrBarberNotFound is returned when a referenced barber record does not exist.
var ErrBarberNotFound = errors.New("barber not found", errors.CategoryNotFound).
	WithTextCode(TextCodeBarberNotFound).
	WithCode(errors.CodeNotFound)

// ErrBarberAccessRequired is returned by the role guard when a credential
// carries no barber role, or the non-barber default.
var ErrBarberAccessRequired = errors.New("barber access required", errors.CategoryAuth).
	WithTextCode(TextCodeBarberRequired).
	WithCode(errors.CodeForbidden)

// ErrNoEmptyString rejects empty input where a secret is required.
var ErrNoEmptyString = errors.New("value should not be an empty string", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)
