package rentauth

import (
	"context"
	"time"
)

// Account roles. RoleUser is assigned at signup; the other roles are
// granted administratively.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleBasic = "basic"
)

func validRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleBasic:
		return true
	default:
		return false
	}
}

// Account is the stored credential record. PasswordHash is a bcrypt hash;
// TOTPSecret is empty unless MFA enrollment has at least started.
type Account struct {
	ID            string
	Email         string
	FirstName     string
	LastName      string
	PasswordHash  string
	EmailVerified bool
	TOTPSecret    string
	TOTPEnabled   bool
	Role          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AccountStore persists accounts. Create must fail with ErrDuplicateEmail
// when the email is already registered; the lookup methods fail with
// ErrAccountNotFound. Partial updates touch only the named fields.
type AccountStore interface {
	Create(ctx context.Context, account *Account) error
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	MarkEmailVerified(ctx context.Context, id string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	SetTOTPSecret(ctx context.Context, id, secret string) error
	EnableTOTP(ctx context.Context, id string) error
	ClearTOTP(ctx context.Context, id string) error
}

// VerificationStore holds single-use verification tokens. Consume is
// atomic: for any token value it succeeds at most once, failing with
// ErrVerificationInvalid afterwards and ErrVerificationExpired past the
// issue TTL.
type VerificationStore interface {
	Issue(ctx context.Context, ownerID string, ttl time.Duration) (string, error)
	Consume(ctx context.Context, token string) (string, error)
}

// Mailer delivers verification mail. Implementations must respect ctx so
// the engine can bound delivery time.
type Mailer interface {
	SendVerification(ctx context.Context, to, link string) error
}

// SignupRequest carries the fields collected on the registration form.
// Role is optional and defaults to RoleUser.
type SignupRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// SignupResult acknowledges a registration. No credential material is
// returned before the email is verified.
type SignupResult struct {
	AccountID string
}

// User is the public projection of an account, safe to return to clients.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
	TOTPEnabled   bool   `json:"totpEnabled"`
}

func publicUser(account *Account) User {
	return User{
		ID:            account.ID,
		Email:         account.Email,
		FirstName:     account.FirstName,
		LastName:      account.LastName,
		Role:          account.Role,
		EmailVerified: account.EmailVerified,
		TOTPEnabled:   account.TOTPEnabled,
	}
}

// TokenPair is a freshly issued access/refresh token couple.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthPayload is the result of any operation that establishes a session.
type AuthPayload struct {
	Tokens TokenPair
	User   User
}

// LoginResult is the outcome of a successful password check. Exactly one
// of Auth and ChallengeToken is set: accounts with MFA enabled receive a
// challenge token and no session.
type LoginResult struct {
	MFARequired    bool
	ChallengeToken string
	Auth           *AuthPayload
}

// Identity is the verified caller extracted from an access token.
type Identity struct {
	AccountID string
	Email     string
	Role      string
}

// MFAEnrollment is the provisioning material returned by SetupTOTP.
type MFAEnrollment struct {
	Secret string
	URI    string
	QRCode string
}
