package rentauth

import (
	"errors"

	"go.uber.org/zap"

	"github.com/raananp/bike-rent-docer-v3-sub000/password"
	"github.com/raananp/bike-rent-docer-v3-sub000/token"
	"github.com/raananp/bike-rent-docer-v3-sub000/totp"
)

// Builder assembles an Engine. Configure it during initialization, call
// Build once, and discard it.
type Builder struct {
	config Config

	accounts      AccountStore
	verifications VerificationStore
	mailer        Mailer
	auditSink     AuditSink
	logger        *zap.Logger

	built bool
}

// New returns a builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithAccountStore sets the credential store. Required.
func (b *Builder) WithAccountStore(store AccountStore) *Builder {
	b.accounts = store
	return b
}

// WithVerificationStore sets the single-use token store. Required.
func (b *Builder) WithVerificationStore(store VerificationStore) *Builder {
	b.verifications = store
	return b
}

// WithMailer sets the verification-mail transport. Required.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithAuditSink sets the destination for audit events. Only consulted when
// auditing is enabled in the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(log *zap.Logger) *Builder {
	b.logger = log
	return b
}

// Build validates the configuration, constructs the token issuer, password
// hasher, and TOTP manager, and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.accounts == nil {
		return nil, errors.New("account store required")
	}
	if b.verifications == nil {
		return nil, errors.New("verification store required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}

	issuer, err := token.NewIssuer(token.Config{
		Issuer:        cfg.Token.Issuer,
		AccessSecret:  cfg.Token.AccessSecret,
		RefreshSecret: cfg.Token.RefreshSecret,
		MFASecret:     cfg.Token.MFASecret,
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
		ChallengeTTL:  cfg.Token.ChallengeTTL,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.New(password.Config{
		Cost: cfg.Password.Cost,
	})
	if err != nil {
		return nil, err
	}

	totpManager, err := totp.NewManager(totp.Config{
		Issuer: cfg.TOTP.Issuer,
		Digits: cfg.TOTP.Digits,
		Period: cfg.TOTP.Period,
		Skew:   cfg.TOTP.Skew,
	})
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		config:        cfg,
		accounts:      b.accounts,
		verifications: b.verifications,
		mailer:        b.mailer,
		issuer:        issuer,
		hasher:        hasher,
		totp:          totpManager,
		audit:         newAuditDispatcher(cfg.Audit, b.auditSink),
		log:           logger,
	}

	b.built = true

	return engine, nil
}
