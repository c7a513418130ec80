package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barbertime/go-auth"
)

func TestSessionRoundTrip(t *testing.T) {
	svc := auth.NewSessionService(newTestConfig())

	barber := &auth.Barber{
		ID:       uuid.New(),
		Email:    "figaro@example.com",
		Role:     auth.RoleBarber,
		IsActive: true,
	}

	token, err := svc.Generate(barber)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, barber.ID.String(), claims.UID)
	assert.Equal(t, barber.ID.String(), claims.Subject)
	assert.Equal(t, auth.RoleBarber, claims.Role)
	assert.Equal(t, "barbertime-test", claims.Issuer)
}

func TestSessionUserTokenCarriesUserRole(t *testing.T) {
	svc := auth.NewSessionService(newTestConfig())

	user := &auth.User{ID: uuid.New(), Email: "ada@example.com"}

	token, err := svc.Generate(user)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, claims.Role)
}

func TestSessionValidateRejectsTampering(t *testing.T) {
	svc := auth.NewSessionService(newTestConfig())

	token, err := svc.Generate(&auth.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.Validate(token + "x")
	assert.Error(t, err)

	_, err = svc.Validate("not-a-jwt")
	assert.Error(t, err)
}

func TestSessionValidateRejectsForeignKey(t *testing.T) {
	svc := auth.NewSessionService(newTestConfig())

	otherCfg := newTestConfig()
	otherCfg.SigningKey = "a-different-signing-key"
	other := auth.NewSessionService(otherCfg)

	token, err := other.Generate(&auth.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestSessionValidateRejectsExpired(t *testing.T) {
	cfg := newTestConfig()
	cfg.SessionDuration = time.Millisecond
	svc := auth.NewSessionService(cfg)

	token, err := svc.Generate(&auth.User{ID: uuid.New()})
	require.NoError(t, err)

	// claim timestamps carry second precision
	time.Sleep(2 * time.Second)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestRequireBarberRole(t *testing.T) {
	tests := []struct {
		name    string
		claims  *auth.SessionClaims
		wantErr bool
	}{
		{
			name:    "Nil claims",
			claims:  nil,
			wantErr: true,
		},
		{
			name:    "Missing role",
			claims:  &auth.SessionClaims{},
			wantErr: true,
		},
		{
			name:    "User role",
			claims:  &auth.SessionClaims{Role: auth.RoleUser},
			wantErr: true,
		},
		{
			name:    "Unknown role",
			claims:  &auth.SessionClaims{Role: "SWEEPER"},
			wantErr: true,
		},
		{
			name:    "Barber role",
			claims:  &auth.SessionClaims{Role: auth.RoleBarber},
			wantErr: false,
		},
		{
			name:    "Manager role",
			claims:  &auth.SessionClaims{Role: auth.RoleManager},
			wantErr: false,
		},
		{
			name:    "Admin role",
			claims:  &auth.SessionClaims{Role: auth.RoleAdmin},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.RequireBarberRole(tt.claims)
			if tt.wantErr {
				assert.ErrorIs(t, err, auth.ErrBarberAccessRequired)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestIsValidBarberRole(t *testing.T) {
	assert.True(t, auth.IsValidBarberRole(auth.RoleBarber))
	assert.True(t, auth.IsValidBarberRole(auth.RoleManager))
	assert.True(t, auth.IsValidBarberRole(auth.RoleAdmin))
	assert.False(t, auth.IsValidBarberRole(auth.RoleUser))
	assert.False(t, auth.IsValidBarberRole(""))
	assert.False(t, auth.IsValidBarberRole("barber"))
}

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		name string
		role auth.BarberRole
		min  auth.BarberRole
		want bool
	}{
		{"barber meets barber", auth.RoleBarber, auth.RoleBarber, true},
		{"barber below manager", auth.RoleBarber, auth.RoleManager, false},
		{"manager meets barber", auth.RoleManager, auth.RoleBarber, true},
		{"admin meets manager", auth.RoleAdmin, auth.RoleManager, true},
		{"admin meets admin", auth.RoleAdmin, auth.RoleAdmin, true},
		{"user role never qualifies", auth.RoleUser, auth.RoleBarber, false},
		{"unknown role never qualifies", auth.BarberRole("SWEEPER"), auth.RoleBarber, false},
		{"unknown minimum never satisfied", auth.RoleAdmin, auth.BarberRole("OWNER"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, auth.RoleAtLeast(tc.role, tc.min))
		})
	}
}
