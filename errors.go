package rentauth

import "errors"

var (
	// ErrBadInput reports a request rejected before any side effect.
	ErrBadInput = errors.New("invalid request")
	// ErrInvalidCredentials is returned for every credential failure during
	// login. The message never reveals whether the email exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailUnverified blocks login for accounts that never followed the
	// verification link.
	ErrEmailUnverified = errors.New("email not verified")
	// ErrEmailTaken reports a signup against an already registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrAccountNotFound is returned by account stores for unknown emails
	// and IDs.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned by account stores when the unique email
	// insert loses to an earlier registration.
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrTokenInvalid covers malformed, tampered, and wrong-class tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired reports a well-formed token past its lifetime.
	ErrTokenExpired = errors.New("token expired")
	// ErrVerificationInvalid reports an unknown or already consumed
	// verification token.
	ErrVerificationInvalid = errors.New("verification token invalid")
	// ErrVerificationExpired reports a verification token past its lifetime.
	ErrVerificationExpired = errors.New("verification token expired")
	// ErrPasswordPolicy reports a password below the configured minimum.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrRoleInvalid reports a role outside the known set.
	ErrRoleInvalid = errors.New("invalid account role")
	// ErrTOTPInvalid reports a rejected one-time code. The message is the
	// same whether the code was malformed, stale, or simply wrong.
	ErrTOTPInvalid = errors.New("invalid totp code")
	// ErrTOTPNotConfigured reports a confirm without a prior setup.
	ErrTOTPNotConfigured = errors.New("totp not configured")
	// ErrTOTPAlreadyEnabled blocks a second enrollment while MFA is active.
	ErrTOTPAlreadyEnabled = errors.New("totp already enabled")
	// ErrMFANotEnabled reports a disable for an account without active MFA.
	ErrMFANotEnabled = errors.New("mfa not enabled")
	// ErrUnavailable reports a storage or infrastructure failure. Details
	// are logged, never returned to callers.
	ErrUnavailable = errors.New("authentication backend unavailable")
	// ErrEngineNotReady reports use of an engine missing a dependency.
	ErrEngineNotReady = errors.New("engine not initialized")
)
