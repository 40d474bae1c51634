package rentauth

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/raananp/bike-rent-docer-v3-sub000/password"
	"github.com/raananp/bike-rent-docer-v3-sub000/token"
	"github.com/raananp/bike-rent-docer-v3-sub000/totp"
)

// Engine orchestrates the account lifecycle: signup, email verification,
// login, MFA, token refresh, and password change. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	config Config

	accounts      AccountStore
	verifications VerificationStore
	mailer        Mailer

	issuer *token.Issuer
	hasher *password.Hasher
	totp   *totp.Manager

	audit *auditDispatcher
	log   *zap.Logger

	mailWG sync.WaitGroup
}

// Authenticate verifies an access token and returns the caller identity.
func (e *Engine) Authenticate(_ context.Context, accessToken string) (*Identity, error) {
	if e.issuer == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.issuer.Verify(accessToken, token.ClassAccess)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	return &Identity{
		AccountID: claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
	}, nil
}

// Logout records the logout. Sessions are stateless, so the only server
// side effect is the audit trail; cookie clearing happens at the HTTP
// layer.
func (e *Engine) Logout(ctx context.Context, refreshToken string) {
	accountID := ""
	if e.issuer != nil && refreshToken != "" {
		if claims, err := e.issuer.Verify(refreshToken, token.ClassRefresh); err == nil {
			accountID = claims.Subject
		}
	}
	e.emitAudit(ctx, auditEventLogout, true, accountID, "", nil, nil)
}

// Close waits for in-flight verification mail and drains the audit buffer.
func (e *Engine) Close() {
	e.mailWG.Wait()
	e.audit.Close()
}

// AuditDropped reports how many audit events were discarded under load.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// storeCtx derives the bounded context used for every store call.
func (e *Engine) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, e.config.Store.Timeout)
}

// issueSession signs a fresh token pair for a fully authenticated account.
func (e *Engine) issueSession(account *Account) (*AuthPayload, error) {
	accessToken, err := e.issuer.IssueAccess(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := e.issuer.IssueRefresh(account.ID)
	if err != nil {
		return nil, err
	}
	return &AuthPayload{
		Tokens: TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		},
		User: publicUser(account),
	}, nil
}

// storeFailure logs the underlying error and returns the opaque
// infrastructure sentinel.
func (e *Engine) storeFailure(op string, err error) error {
	e.log.Error("store operation failed", zap.String("op", op), zap.Error(err))
	return ErrUnavailable
}

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, accountID, email string, failure error, metadata func() map[string]string) {
	if e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		AccountID: accountID,
		Email:     email,
		Success:   success,
	}
	if failure != nil {
		event.Error = failure.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
