// Package totp implements time-based one-time-password enrollment and code
// verification for the MFA flow.
package totp

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	defaultDigits     = 6
	defaultPeriod     = 30
	defaultSkew       = 1
	defaultSecretSize = 20 // 160-bit secrets per RFC 4226
	qrSizePixels      = 200
)

// Config tunes code verification. Zero values select the defaults above.
type Config struct {
	// Issuer is the name shown in authenticator apps.
	Issuer string
	Digits uint
	Period uint
	// Skew is the number of adjacent time steps accepted on either side of
	// the current one.
	Skew uint
}

// Enrollment is the material handed to a user during MFA setup.
type Enrollment struct {
	// Secret is the base32 shared secret, persisted until confirm or disable.
	Secret string
	// URI is the otpauth:// provisioning URI.
	URI string
	// QRCode is a PNG rendering of URI as a base64 data URL.
	QRCode string
}

// Manager generates enrollment secrets and validates submitted codes.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("totp issuer is required")
	}
	if cfg.Digits == 0 {
		cfg.Digits = defaultDigits
	}
	if cfg.Digits != 6 && cfg.Digits != 8 {
		return nil, errors.New("totp digits must be 6 or 8")
	}
	if cfg.Period == 0 {
		cfg.Period = defaultPeriod
	}
	if cfg.Skew == 0 {
		cfg.Skew = defaultSkew
	}
	return &Manager{config: cfg}, nil
}

// Generate creates a fresh shared secret with provisioning URI and QR code
// for the given account name.
func (m *Manager) Generate(accountName string) (*Enrollment, error) {
	if accountName == "" {
		return nil, errors.New("account name is required")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      m.config.Issuer,
		AccountName: accountName,
		SecretSize:  defaultSecretSize,
		Digits:      otp.Digits(m.config.Digits),
		Period:      m.config.Period,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp key: %w", err)
	}

	img, err := key.Image(qrSizePixels, qrSizePixels)
	if err != nil {
		return nil, fmt.Errorf("render totp qr: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode totp qr: %w", err)
	}

	return &Enrollment{
		Secret: key.Secret(),
		URI:    key.URL(),
		QRCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// VerifyCode reports whether code is valid for secret within the configured
// skew window. Structurally invalid codes fail verification without error.
func (m *Manager) VerifyCode(secret, code string) bool {
	code = strings.TrimSpace(code)
	if len(code) != int(m.config.Digits) {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}

	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    m.config.Period,
		Skew:      m.config.Skew,
		Digits:    otp.Digits(m.config.Digits),
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
