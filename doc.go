// Package rentauth is the account-authentication core of the bike rental
// platform: signup with mandatory email verification, password login with
// optional TOTP second factor, short-lived access tokens with rotating
// refresh tokens, and password management.
//
// The package is storage-agnostic. Callers assemble an Engine through the
// Builder, supplying an AccountStore, a VerificationStore, and a Mailer;
// the store and httpapi subpackages provide the production implementations
// and the HTTP surface.
package rentauth
