package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultCookieName = "refresh_token"
	defaultCookiePath = "/api"
)

// CookieConfig scopes the refresh cookie. Secure should be on in every
// TLS deployment; it defaults off only to allow plain-HTTP development.
type CookieConfig struct {
	Name   string
	Path   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

// CookieManager attaches and clears the http-only refresh cookie. Clear
// reuses the exact scope attributes of Attach so browsers match the
// original cookie when expiring it.
type CookieManager struct {
	config CookieConfig
}

func NewCookieManager(cfg CookieConfig) *CookieManager {
	if cfg.Name == "" {
		cfg.Name = defaultCookieName
	}
	if cfg.Path == "" {
		cfg.Path = defaultCookiePath
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 7 * 24 * time.Hour
	}
	return &CookieManager{config: cfg}
}

// Attach sets the refresh cookie on the response.
func (m *CookieManager) Attach(c *gin.Context, refreshToken string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		m.config.Name,
		refreshToken,
		int(m.config.MaxAge.Seconds()),
		m.config.Path,
		m.config.Domain,
		m.config.Secure,
		true,
	)
}

// Clear expires the refresh cookie using identical scope attributes.
func (m *CookieManager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		m.config.Name,
		"",
		-1,
		m.config.Path,
		m.config.Domain,
		m.config.Secure,
		true,
	)
}

// Read returns the refresh token from the request cookie, or empty when
// the cookie is absent.
func (m *CookieManager) Read(c *gin.Context) string {
	value, err := c.Cookie(m.config.Name)
	if err != nil {
		return ""
	}
	return value
}
