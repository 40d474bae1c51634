package rentauth

import (
	"context"
	"errors"
)

// SetupTOTP starts MFA enrollment: a fresh secret is generated and stored
// with enabled=false. The account stays MFA-free until ConfirmTOTP proves
// the authenticator was provisioned. Calling setup again before confirm
// replaces the pending secret.
func (e *Engine) SetupTOTP(ctx context.Context, accountID string) (*MFAEnrollment, error) {
	if e.accounts == nil {
		return nil, ErrEngineNotReady
	}
	if accountID == "" {
		return nil, ErrBadInput
	}

	storeCtx, cancel := e.storeCtx(ctx)
	defer cancel()

	account, err := e.accounts.FindByID(storeCtx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, e.storeFailure("account lookup", err)
	}
	if account.TOTPEnabled {
		return nil, ErrTOTPAlreadyEnabled
	}

	enrollment, err := e.totp.Generate(account.Email)
	if err != nil {
		return nil, e.storeFailure("totp generate", err)
	}

	if err := e.accounts.SetTOTPSecret(storeCtx, account.ID, enrollment.Secret); err != nil {
		return nil, e.storeFailure("totp secret store", err)
	}

	e.emitAudit(ctx, auditEventTOTPSetup, true, account.ID, account.Email, nil, nil)

	return &MFAEnrollment{
		Secret: enrollment.Secret,
		URI:    enrollment.URI,
		QRCode: enrollment.QRCode,
	}, nil
}

// ConfirmTOTP flips MFA on after the caller proves possession of the
// pending secret with a valid code.
func (e *Engine) ConfirmTOTP(ctx context.Context, accountID, code string) error {
	if e.accounts == nil {
		return ErrEngineNotReady
	}
	if accountID == "" || code == "" {
		return ErrBadInput
	}

	storeCtx, cancel := e.storeCtx(ctx)
	defer cancel()

	account, err := e.accounts.FindByID(storeCtx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return e.storeFailure("account lookup", err)
	}
	if account.TOTPEnabled {
		return ErrTOTPAlreadyEnabled
	}
	if account.TOTPSecret == "" {
		return ErrTOTPNotConfigured
	}

	if !e.totp.VerifyCode(account.TOTPSecret, code) {
		e.emitAudit(ctx, auditEventMFAFailure, false, account.ID, account.Email, ErrTOTPInvalid, nil)
		return ErrTOTPInvalid
	}

	if err := e.accounts.EnableTOTP(storeCtx, account.ID); err != nil {
		return e.storeFailure("totp enable", err)
	}

	e.emitAudit(ctx, auditEventTOTPConfirmed, true, account.ID, account.Email, nil, nil)

	return nil
}

// DisableTOTP clears the secret and the enabled flag in one update.
func (e *Engine) DisableTOTP(ctx context.Context, accountID string) error {
	if e.accounts == nil {
		return ErrEngineNotReady
	}
	if accountID == "" {
		return ErrBadInput
	}

	storeCtx, cancel := e.storeCtx(ctx)
	defer cancel()

	account, err := e.accounts.FindByID(storeCtx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return e.storeFailure("account lookup", err)
	}
	if !account.TOTPEnabled && account.TOTPSecret == "" {
		return ErrMFANotEnabled
	}

	if err := e.accounts.ClearTOTP(storeCtx, account.ID); err != nil {
		return e.storeFailure("totp clear", err)
	}

	e.emitAudit(ctx, auditEventTOTPDisabled, true, account.ID, account.Email, nil, nil)

	return nil
}
