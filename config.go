package rentauth

import (
	"errors"
	"time"
)

// TokenConfig carries signing secrets and lifetimes for the three token
// classes. Secrets must be at least 32 bytes and pairwise distinct.
type TokenConfig struct {
	Issuer        string
	AccessSecret  []byte
	RefreshSecret []byte
	MFASecret     []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ChallengeTTL  time.Duration
	Leeway        time.Duration
}

// PasswordConfig tunes credential hashing and the password policy.
type PasswordConfig struct {
	Cost      int
	MinLength int
}

// TOTPConfig tunes MFA code generation and validation.
type TOTPConfig struct {
	Issuer string
	Digits uint
	Period uint
	Skew   uint
}

// VerificationConfig tunes email verification. LinkBase is the absolute
// URL the token is appended to when composing the mail.
type VerificationConfig struct {
	TokenTTL time.Duration
	LinkBase string
}

// StoreConfig bounds every credential and token store call.
type StoreConfig struct {
	Timeout time.Duration
}

// MailConfig bounds the fire-and-forget verification mail dispatch.
type MailConfig struct {
	SendTimeout time.Duration
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Config is the full engine configuration. Build validates it once; the
// engine treats it as immutable afterwards.
type Config struct {
	Token        TokenConfig
	Password     PasswordConfig
	TOTP         TOTPConfig
	Verification VerificationConfig
	Store        StoreConfig
	Mail         MailConfig
	Audit        AuditConfig
}

// DefaultConfig returns the production defaults. Token secrets have no
// default and must always be supplied.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Issuer:       "rentauth",
			AccessTTL:    15 * time.Minute,
			RefreshTTL:   7 * 24 * time.Hour,
			ChallengeTTL: 5 * time.Minute,
			Leeway:       30 * time.Second,
		},
		Password: PasswordConfig{
			Cost:      10,
			MinLength: 8,
		},
		TOTP: TOTPConfig{
			Issuer: "Bike Rent",
			Digits: 6,
			Period: 30,
			Skew:   1,
		},
		Verification: VerificationConfig{
			TokenTTL: time.Hour,
		},
		Store: StoreConfig{
			Timeout: 3 * time.Second,
		},
		Mail: MailConfig{
			SendTimeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

// Validate checks the invariants the engine depends on. Token secret
// strength and distinctness are enforced separately when the issuer is
// constructed.
func (c Config) Validate() error {
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 || c.Token.ChallengeTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	if c.Password.MinLength < 8 {
		return errors.New("password minimum length must be at least 8")
	}
	if c.TOTP.Issuer == "" {
		return errors.New("totp issuer is required")
	}
	if c.Verification.TokenTTL <= 0 {
		return errors.New("verification token TTL must be positive")
	}
	if c.Verification.LinkBase == "" {
		return errors.New("verification link base is required")
	}
	if c.Store.Timeout <= 0 {
		return errors.New("store timeout must be positive")
	}
	if c.Mail.SendTimeout <= 0 {
		return errors.New("mail send timeout must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.AccessSecret = cloneBytes(cfg.Token.AccessSecret)
	out.Token.RefreshSecret = cloneBytes(cfg.Token.RefreshSecret)
	out.Token.MFASecret = cloneBytes(cfg.Token.MFASecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
