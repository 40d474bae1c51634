// Package token issues and validates the three signed token classes used by
// the authentication engine: access, refresh, and MFA challenge. Each class
// signs with an independent HMAC-SHA256 secret and carries a class claim,
// so presenting a token of one class where another is expected always fails.
package token
