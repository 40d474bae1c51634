package rentauth

import (
	"context"
	"errors"

	"github.com/raananp/bike-rent-docer-v3-sub000/token"
)

// Refresh exchanges a valid refresh token for a rotated access/refresh
// pair. The random jti inside every refresh token guarantees the new one
// differs from the submitted one. Sessions of deleted accounts die here.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*AuthPayload, error) {
	if e.accounts == nil {
		return nil, ErrEngineNotReady
	}
	if refreshToken == "" {
		return nil, ErrTokenInvalid
	}

	claims, err := e.issuer.Verify(refreshToken, token.ClassRefresh)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			e.emitAudit(ctx, auditEventRefreshFailure, false, "", "", ErrTokenExpired, nil)
			return nil, ErrTokenExpired
		}
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", "", ErrTokenInvalid, nil)
		return nil, ErrTokenInvalid
	}

	storeCtx, cancel := e.storeCtx(ctx)
	defer cancel()

	account, err := e.accounts.FindByID(storeCtx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.emitAudit(ctx, auditEventRefreshFailure, false, claims.Subject, "", ErrTokenInvalid, nil)
			return nil, ErrTokenInvalid
		}
		return nil, e.storeFailure("account lookup", err)
	}

	payload, err := e.issueSession(account)
	if err != nil {
		return nil, e.storeFailure("issue session", err)
	}

	e.emitAudit(ctx, auditEventRefreshSuccess, true, account.ID, account.Email, nil, nil)

	return payload, nil
}
