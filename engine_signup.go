package rentauth

import (
	"context"
	"errors"
	"net/mail"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Signup registers a new account and dispatches the verification mail.
// No tokens are issued: verification is mandatory before the first login.
func (e *Engine) Signup(ctx context.Context, req SignupRequest) (*SignupResult, error) {
	if e.accounts == nil || e.verifications == nil || e.mailer == nil {
		return nil, ErrEngineNotReady
	}

	if req.Email == "" || req.FirstName == "" || req.LastName == "" {
		return nil, ErrBadInput
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, ErrBadInput
	}
	if len(req.Password) < e.config.Password.MinLength {
		e.emitAudit(ctx, auditEventSignupFailure, false, "", req.Email, ErrPasswordPolicy, nil)
		return nil, ErrPasswordPolicy
	}

	role := req.Role
	if role == "" {
		role = RoleUser
	}
	if !validRole(role) {
		return nil, ErrRoleInvalid
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		e.emitAudit(ctx, auditEventSignupFailure, false, "", req.Email, ErrPasswordPolicy, nil)
		return nil, ErrPasswordPolicy
	}

	account := &Account{
		ID:           uuid.NewString(),
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Role:         role,
	}

	storeCtx, cancel := e.storeCtx(ctx)
	defer cancel()

	if err := e.accounts.Create(storeCtx, account); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			e.emitAudit(ctx, auditEventSignupFailure, false, "", req.Email, ErrEmailTaken, nil)
			return nil, ErrEmailTaken
		}
		return nil, e.storeFailure("account create", err)
	}

	verificationToken, err := e.verifications.Issue(storeCtx, account.ID, e.config.Verification.TokenTTL)
	if err != nil {
		// The account exists; the user can still be verified by a resent
		// token, so the signup itself is reported as created.
		e.log.Error("verification token issue failed",
			zap.String("account_id", account.ID), zap.Error(err))
	} else {
		e.dispatchVerificationMail(account.Email, verificationToken)
	}

	e.emitAudit(ctx, auditEventSignupSuccess, true, account.ID, account.Email, nil, func() map[string]string {
		return map[string]string{
			"role": account.Role,
		}
	})

	return &SignupResult{AccountID: account.ID}, nil
}

// VerifyEmail consumes a verification token, marks the account verified,
// and signs the account in. Re-verifying an already verified account is
// harmless; replaying a consumed token is not possible.
func (e *Engine) VerifyEmail(ctx context.Context, verificationToken string) (*AuthPayload, error) {
	if e.accounts == nil || e.verifications == nil {
		return nil, ErrEngineNotReady
	}
	if verificationToken == "" {
		return nil, ErrBadInput
	}

	storeCtx, cancel := e.storeCtx(ctx)
	defer cancel()

	accountID, err := e.verifications.Consume(storeCtx, verificationToken)
	if err != nil {
		if errors.Is(err, ErrVerificationInvalid) || errors.Is(err, ErrVerificationExpired) {
			return nil, err
		}
		return nil, e.storeFailure("verification consume", err)
	}

	account, err := e.accounts.FindByID(storeCtx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrVerificationInvalid
		}
		return nil, e.storeFailure("account lookup", err)
	}

	if !account.EmailVerified {
		if err := e.accounts.MarkEmailVerified(storeCtx, account.ID); err != nil {
			return nil, e.storeFailure("mark verified", err)
		}
		account.EmailVerified = true
	}

	payload, err := e.issueSession(account)
	if err != nil {
		return nil, e.storeFailure("issue session", err)
	}

	e.emitAudit(ctx, auditEventEmailVerified, true, account.ID, account.Email, nil, nil)

	return payload, nil
}

// dispatchVerificationMail sends the mail off the request path. Delivery
// is bounded by the configured timeout; failures are logged, never
// surfaced to the signup caller.
func (e *Engine) dispatchVerificationMail(email, verificationToken string) {
	link := e.config.Verification.LinkBase + "?token=" + url.QueryEscape(verificationToken)

	e.mailWG.Add(1)
	go func() {
		defer e.mailWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), e.config.Mail.SendTimeout)
		defer cancel()

		started := time.Now()
		if err := e.mailer.SendVerification(ctx, email, link); err != nil {
			e.log.Error("verification mail dispatch failed",
				zap.String("email", email),
				zap.Duration("elapsed", time.Since(started)),
				zap.Error(err))
		}
	}()
}
