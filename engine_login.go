package rentauth

import (
	"context"
	"errors"

	"github.com/raananp/bike-rent-docer-v3-sub000/token"
)

// Login checks a password credential. Unknown email and wrong password
// fail identically. Accounts with MFA enabled receive a short-lived
// challenge token instead of a session; the caller must follow up with
// ConfirmMFA.
func (e *Engine) Login(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	if e.accounts == nil {
		return nil, ErrEngineNotReady
	}
	if email == "" || plainPassword == "" {
		e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	storeCtx, cancel := e.storeCtx(ctx)
	defer cancel()

	account, err := e.accounts.FindByEmail(storeCtx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, e.storeFailure("account lookup", err)
	}

	ok, err := e.hasher.Verify(account.PasswordHash, plainPassword)
	if err != nil {
		return nil, e.storeFailure("password verify", err)
	}
	if !ok {
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, email, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	if !account.EmailVerified {
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, email, ErrEmailUnverified, nil)
		return nil, ErrEmailUnverified
	}

	if account.TOTPEnabled {
		challenge, err := e.issuer.IssueMFAChallenge(account.ID)
		if err != nil {
			return nil, e.storeFailure("issue mfa challenge", err)
		}
		e.emitAudit(ctx, auditEventMFAChallenge, true, account.ID, email, nil, nil)
		return &LoginResult{
			MFARequired:    true,
			ChallengeToken: challenge,
		}, nil
	}

	payload, err := e.issueSession(account)
	if err != nil {
		return nil, e.storeFailure("issue session", err)
	}

	e.emitAudit(ctx, auditEventLoginSuccess, true, account.ID, email, nil, nil)

	return &LoginResult{Auth: payload}, nil
}

// ConfirmMFA completes a login that was answered with a challenge token.
// The challenge proves the password step; the code proves the second
// factor. Only both together produce a session.
func (e *Engine) ConfirmMFA(ctx context.Context, challengeToken, code string) (*AuthPayload, error) {
	if e.accounts == nil {
		return nil, ErrEngineNotReady
	}
	if challengeToken == "" || code == "" {
		return nil, ErrBadInput
	}

	claims, err := e.issuer.Verify(challengeToken, token.ClassMFAChallenge)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			e.emitAudit(ctx, auditEventMFAFailure, false, "", "", ErrTokenExpired, nil)
			return nil, ErrTokenExpired
		}
		e.emitAudit(ctx, auditEventMFAFailure, false, "", "", ErrTokenInvalid, nil)
		return nil, ErrTokenInvalid
	}

	storeCtx, cancel := e.storeCtx(ctx)
	defer cancel()

	account, err := e.accounts.FindByID(storeCtx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, e.storeFailure("account lookup", err)
	}

	if !account.TOTPEnabled || account.TOTPSecret == "" {
		return nil, ErrMFANotEnabled
	}

	if !e.totp.VerifyCode(account.TOTPSecret, code) {
		e.emitAudit(ctx, auditEventMFAFailure, false, account.ID, account.Email, ErrTOTPInvalid, nil)
		return nil, ErrTOTPInvalid
	}

	payload, err := e.issueSession(account)
	if err != nil {
		return nil, e.storeFailure("issue session", err)
	}

	e.emitAudit(ctx, auditEventMFASuccess, true, account.ID, account.Email, nil, nil)

	return payload, nil
}
