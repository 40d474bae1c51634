// Package httpapi exposes the authentication engine over HTTP with gin.
// All routes mount under /api/auth; access tokens travel in the
// Authorization header and refresh tokens only in an http-only cookie.
package httpapi
