package rentauth

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSignupCreatesUnverifiedAccount(t *testing.T) {
	env := newTestEngine(t)

	result, err := env.engine.Signup(context.Background(), SignupRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		Password:  "Secret1!",
	})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if result.AccountID == "" {
		t.Fatal("expected an account id")
	}

	account, err := env.accounts.FindByEmail(context.Background(), "jane@x.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if account.EmailVerified {
		t.Fatal("fresh accounts must start unverified")
	}
	if account.PasswordHash == "Secret1!" || account.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}
	if account.Role != RoleUser {
		t.Fatalf("expected default role %q, got %q", RoleUser, account.Role)
	}
}

func TestSignupDispatchesVerificationMail(t *testing.T) {
	env := newTestEngine(t)

	if _, err := env.engine.Signup(context.Background(), SignupRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		Password:  "Secret1!",
	}); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	env.engine.mailWG.Wait()

	messages := env.mailer.messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 verification mail, got %d", len(messages))
	}
	if messages[0].to != "jane@x.com" {
		t.Fatalf("mail sent to %q", messages[0].to)
	}
	if !strings.HasPrefix(messages[0].link, "http://localhost:8080/api/auth/verify-email?token=") {
		t.Fatalf("unexpected verification link: %q", messages[0].link)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEngine(t)

	req := SignupRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		Password:  "Secret1!",
	}
	if _, err := env.engine.Signup(context.Background(), req); err != nil {
		t.Fatalf("first Signup failed: %v", err)
	}

	if _, err := env.engine.Signup(context.Background(), req); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	env := newTestEngine(t)

	cases := []struct {
		name string
		req  SignupRequest
		want error
	}{
		{"missing first name", SignupRequest{LastName: "Doe", Email: "jane@x.com", Password: "Secret1!"}, ErrBadInput},
		{"missing email", SignupRequest{FirstName: "Jane", LastName: "Doe", Password: "Secret1!"}, ErrBadInput},
		{"malformed email", SignupRequest{FirstName: "Jane", LastName: "Doe", Email: "not-an-email", Password: "Secret1!"}, ErrBadInput},
		{"short password", SignupRequest{FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", Password: "short"}, ErrPasswordPolicy},
		{"unknown role", SignupRequest{FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", Password: "Secret1!", Role: "root"}, ErrRoleInvalid},
	}

	for _, tc := range cases {
		if _, err := env.engine.Signup(context.Background(), tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestSignupMailFailureDoesNotFailSignup(t *testing.T) {
	env := newTestEngine(t)
	env.mailer.fail = errors.New("relay down")

	if _, err := env.engine.Signup(context.Background(), SignupRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		Password:  "Secret1!",
	}); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
}

func TestVerifyEmailIssuesSession(t *testing.T) {
	env := newTestEngine(t)
	payload := env.signupVerified(t, "jane@x.com", "Secret1!")

	if payload.Tokens.AccessToken == "" || payload.Tokens.RefreshToken == "" {
		t.Fatal("expected a full token pair after verification")
	}
	if !payload.User.EmailVerified {
		t.Fatal("expected the user projection to show the verified flag")
	}

	account, err := env.accounts.FindByEmail(context.Background(), "jane@x.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if !account.EmailVerified {
		t.Fatal("expected the stored account to be verified")
	}
}

func TestVerifyEmailTokenSingleUse(t *testing.T) {
	env := newTestEngine(t)

	result, err := env.engine.Signup(context.Background(), SignupRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		Password:  "Secret1!",
	})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	env.verifications.mu.Lock()
	var tokenValue string
	for value, entry := range env.verifications.tokens {
		if entry.ownerID == result.AccountID {
			tokenValue = value
		}
	}
	env.verifications.mu.Unlock()

	if _, err := env.engine.VerifyEmail(context.Background(), tokenValue); err != nil {
		t.Fatalf("first VerifyEmail failed: %v", err)
	}
	if _, err := env.engine.VerifyEmail(context.Background(), tokenValue); !errors.Is(err, ErrVerificationInvalid) {
		t.Fatalf("expected ErrVerificationInvalid on replay, got %v", err)
	}
}

func TestVerifyEmailRejectsUnknownToken(t *testing.T) {
	env := newTestEngine(t)

	if _, err := env.engine.VerifyEmail(context.Background(), ""); !errors.Is(err, ErrBadInput) {
		t.Fatalf("expected ErrBadInput for empty token, got %v", err)
	}
	if _, err := env.engine.VerifyEmail(context.Background(), "no-such-token"); !errors.Is(err, ErrVerificationInvalid) {
		t.Fatalf("expected ErrVerificationInvalid, got %v", err)
	}
}
