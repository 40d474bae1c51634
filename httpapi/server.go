package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	rentauth "github.com/raananp/bike-rent-docer-v3-sub000"
)

// Server binds the authentication engine to the HTTP surface.
type Server struct {
	engine  *rentauth.Engine
	cookies *CookieManager
	log     *zap.Logger
}

// NewServer wires the engine behind the route handlers.
func NewServer(engine *rentauth.Engine, cookies *CookieManager, log *zap.Logger) (*Server, error) {
	if engine == nil {
		return nil, errors.New("engine required")
	}
	if cookies == nil {
		cookies = NewCookieManager(CookieConfig{})
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		engine:  engine,
		cookies: cookies,
		log:     log,
	}, nil
}

// Register mounts every route under /api/auth on the given router.
func (s *Server) Register(router gin.IRouter) {
	auth := router.Group("/api/auth")

	auth.POST("/signup", s.handleSignup)
	auth.GET("/verify-email", s.handleVerifyEmail)
	auth.POST("/login", s.handleLogin)
	auth.POST("/mfa/verify", s.handleMFAVerify)
	auth.POST("/refresh", s.handleRefresh)
	auth.POST("/logout", s.handleLogout)

	protected := auth.Group("", s.requireAuth())
	protected.POST("/mfa/setup", s.handleMFASetup)
	protected.POST("/mfa/confirm", s.handleMFAConfirm)
	protected.POST("/mfa/disable", s.handleMFADisable)
	protected.PATCH("/change-password", s.handleChangePassword)
}

// Router returns a ready-to-serve gin engine with the routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	s.Register(router)
	return router
}

// statusFor maps engine sentinels onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, rentauth.ErrBadInput),
		errors.Is(err, rentauth.ErrPasswordPolicy),
		errors.Is(err, rentauth.ErrRoleInvalid),
		errors.Is(err, rentauth.ErrVerificationInvalid),
		errors.Is(err, rentauth.ErrVerificationExpired),
		errors.Is(err, rentauth.ErrMFANotEnabled),
		errors.Is(err, rentauth.ErrTOTPNotConfigured),
		errors.Is(err, rentauth.ErrTOTPAlreadyEnabled):
		return http.StatusBadRequest
	case errors.Is(err, rentauth.ErrInvalidCredentials),
		errors.Is(err, rentauth.ErrTokenInvalid),
		errors.Is(err, rentauth.ErrTokenExpired),
		errors.Is(err, rentauth.ErrTOTPInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, rentauth.ErrEmailUnverified):
		return http.StatusForbidden
	case errors.Is(err, rentauth.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, rentauth.ErrEmailTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorBody renders the client-facing error message. Authentication
// failures share one opaque message so callers cannot probe which check
// failed; internal failures are flattened to a fixed message with details
// only in the server log.
func errorBody(err error) gin.H {
	switch statusFor(err) {
	case http.StatusUnauthorized:
		return gin.H{"error": "invalid credentials"}
	case http.StatusInternalServerError:
		return gin.H{"error": "internal error"}
	default:
		return gin.H{"error": err.Error()}
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, errorBody(err))
}
