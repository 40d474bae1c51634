package httpapi_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

func secretFromURI(t *testing.T, otpauth string) string {
	t.Helper()

	parsed, err := url.Parse(otpauth)
	if err != nil {
		t.Fatalf("parse provisioning URI: %v", err)
	}
	secret := parsed.Query().Get("secret")
	if secret == "" {
		t.Fatalf("provisioning URI without secret: %q", otpauth)
	}
	return secret
}

func currentTOTPCode(t *testing.T, secret string) string {
	t.Helper()

	code, err := totp.GenerateCodeCustom(secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		t.Fatalf("generate totp code: %v", err)
	}
	return code
}
