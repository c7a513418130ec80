package auth

import "time"

// Default TTLs per token type. Login codes are short-lived because they are
// low-entropy; link tokens carry enough entropy for longer windows.
const (
	DefaultEmailVerificationTTL = 24 * time.Hour
	DefaultPasswordRecoveryTTL  = time.Hour
	DefaultLoginCodeTTL         = 10 * time.Minute
	DefaultSessionDuration      = 24 * time.Hour
)

// SimpleConfig implements Config with plain fields and sane defaults.
type SimpleConfig struct {
	SigningKey      string
	Issuer          string
	Audience        []string
	SessionDuration time.Duration
	TokenTTLs       map[TokenType]time.Duration
	FrontendURL     string
}

func (c SimpleConfig) GetSigningKey() string { return c.SigningKey }
func (c SimpleConfig) GetIssuer() string     { return c.Issuer }
func (c SimpleConfig) GetAudience() []string { return c.Audience }
func (c SimpleConfig) GetFrontendURL() string {
	return c.FrontendURL
}

func (c SimpleConfig) GetSessionDuration() time.Duration {
	if c.SessionDuration > 0 {
		return c.SessionDuration
	}
	return DefaultSessionDuration
}

func (c SimpleConfig) GetTokenTTL(tokenType TokenType) time.Duration {
	if ttl, ok := c.TokenTTLs[tokenType]; ok && ttl > 0 {
		return ttl
	}
	switch tokenType {
	case TokenPasswordRecovery:
		return DefaultPasswordRecoveryTTL
	case TokenLoginCode:
		return DefaultLoginCodeTTL
	default:
		return DefaultEmailVerificationTTL
	}
}

var _ Config = SimpleConfig{}
