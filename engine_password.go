package rentauth

import (
	"context"
	"errors"
)

// ChangePassword re-authenticates with the current password and stores a
// hash of the new one. Existing refresh tokens stay valid; rotation and
// the short refresh lifetime age them out.
func (e *Engine) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	if e.accounts == nil {
		return ErrEngineNotReady
	}
	if accountID == "" || currentPassword == "" {
		return ErrBadInput
	}
	if len(newPassword) < e.config.Password.MinLength {
		return ErrPasswordPolicy
	}

	storeCtx, cancel := e.storeCtx(ctx)
	defer cancel()

	account, err := e.accounts.FindByID(storeCtx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrInvalidCredentials
		}
		return e.storeFailure("account lookup", err)
	}

	ok, err := e.hasher.Verify(account.PasswordHash, currentPassword)
	if err != nil {
		return e.storeFailure("password verify", err)
	}
	if !ok {
		e.emitAudit(ctx, auditEventPasswordChangeFail, false, account.ID, account.Email, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return ErrPasswordPolicy
	}

	if err := e.accounts.UpdatePasswordHash(storeCtx, account.ID, hash); err != nil {
		return e.storeFailure("password update", err)
	}

	e.emitAudit(ctx, auditEventPasswordChanged, true, account.ID, account.Email, nil, nil)

	return nil
}
