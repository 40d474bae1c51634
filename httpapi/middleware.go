package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	rentauth "github.com/raananp/bike-rent-docer-v3-sub000"
)

const identityKey = "rentauth.identity"

// requireAuth verifies the bearer access token and stashes the caller
// identity in the request context. Requests without a valid token never
// reach the handler.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenValue := bearerToken(c.GetHeader("Authorization"))
		if tokenValue == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody(rentauth.ErrTokenInvalid))
			return
		}

		identity, err := s.engine.Authenticate(c.Request.Context(), tokenValue)
		if err != nil {
			c.AbortWithStatusJSON(statusFor(err), errorBody(err))
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func callerIdentity(c *gin.Context) *rentauth.Identity {
	value, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, ok := value.(*rentauth.Identity)
	if !ok {
		return nil
	}
	return identity
}
