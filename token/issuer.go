package token

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Class selects which of the three independently-secured token families an
// operation targets. Every class signs with its own secret so that a
// compromised secret for one class never validates tokens of another.
type Class uint8

const (
	// ClassAccess is the short-lived bearer credential carried in the
	// Authorization header.
	ClassAccess Class = iota
	// ClassRefresh is the long-lived rotating credential delivered only via
	// the refresh cookie.
	ClassRefresh
	// ClassMFAChallenge bridges a password-verified login to the TOTP step
	// without granting any access.
	ClassMFAChallenge
)

const (
	classClaimAccess  = "access"
	classClaimRefresh = "refresh"
	classClaimMFA     = "mfa"

	minSecretBytes = 32
)

var (
	// ErrExpired reports a structurally valid token past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrInvalid reports a malformed token, a bad signature, or a token of
	// the wrong class.
	ErrInvalid = errors.New("token invalid")
)

// Config carries the per-class signing secrets and lifetimes. Secrets must
// be at least 256 bits and pairwise distinct.
type Config struct {
	Issuer string

	AccessSecret  []byte
	RefreshSecret []byte
	MFASecret     []byte

	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	ChallengeTTL time.Duration

	Leeway time.Duration
}

// Claims is the claim set shared by all three token classes. Email and Role
// are populated only on access tokens; TokenClass pins the class so a token
// presented against the wrong Verify class fails even before signature
// separation is considered.
type Claims struct {
	Email      string `json:"email,omitempty"`
	Role       string `json:"role,omitempty"`
	TokenClass string `json:"cls"`
	jwt.RegisteredClaims
}

// Issuer creates and validates the signed tokens of all three classes.
// Issuer instances are configured once at startup and immutable thereafter.
type Issuer struct {
	config Config
}

// NewIssuer validates the configuration and returns a ready Issuer.
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.ChallengeTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	for name, secret := range map[string][]byte{
		"access":  cfg.AccessSecret,
		"refresh": cfg.RefreshSecret,
		"mfa":     cfg.MFASecret,
	} {
		if len(secret) < minSecretBytes {
			return nil, fmt.Errorf("%s secret must be at least %d bytes", name, minSecretBytes)
		}
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) ||
		bytes.Equal(cfg.AccessSecret, cfg.MFASecret) ||
		bytes.Equal(cfg.RefreshSecret, cfg.MFASecret) {
		return nil, errors.New("token class secrets must be distinct")
	}

	return &Issuer{config: cfg}, nil
}

// IssueAccess signs a 15-minute-class access token carrying the subject's
// identity claims.
func (i *Issuer) IssueAccess(accountID, email, role string) (string, error) {
	claims := Claims{
		Email:      email,
		Role:       role,
		TokenClass: classClaimAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    i.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(i.config.AccessTTL)),
		},
	}
	return i.sign(claims, i.config.AccessSecret)
}

// IssueRefresh signs a refresh token carrying only the subject. The random
// jti guarantees that rotation always produces a distinct token value, even
// for two tokens issued within the same second.
func (i *Issuer) IssueRefresh(accountID string) (string, error) {
	claims := Claims{
		TokenClass: classClaimRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    i.config.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(i.config.RefreshTTL)),
		},
	}
	return i.sign(claims, i.config.RefreshSecret)
}

// IssueMFAChallenge signs the short-lived subject-only token that proves
// password verification succeeded while withholding all access.
func (i *Issuer) IssueMFAChallenge(accountID string) (string, error) {
	claims := Claims{
		TokenClass: classClaimMFA,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    i.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(i.config.ChallengeTTL)),
		},
	}
	return i.sign(claims, i.config.MFASecret)
}

// Verify parses tokenStr against the secret and class claim of the given
// class. It fails with ErrExpired for timed-out tokens and ErrInvalid for
// everything else, including a well-signed token of a different class.
func (i *Issuer) Verify(tokenStr string, class Class) (*Claims, error) {
	secret, classClaim, err := i.classParams(class)
	if err != nil {
		return nil, err
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if i.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(i.config.Leeway))
	}
	if i.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(i.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.TokenClass != classClaim {
		return nil, ErrInvalid
	}
	if claims.Subject == "" {
		return nil, ErrInvalid
	}

	return claims, nil
}

func (i *Issuer) sign(claims Claims, secret []byte) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func (i *Issuer) classParams(class Class) ([]byte, string, error) {
	switch class {
	case ClassAccess:
		return i.config.AccessSecret, classClaimAccess, nil
	case ClassRefresh:
		return i.config.RefreshSecret, classClaimRefresh, nil
	case ClassMFAChallenge:
		return i.config.MFASecret, classClaimMFA, nil
	default:
		return nil, "", errors.New("unknown token class")
	}
}
