package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func setCookieHeader(t *testing.T, fn func(c *gin.Context)) string {
	t.Helper()

	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	fn(c)

	header := recorder.Header().Get("Set-Cookie")
	if header == "" {
		t.Fatal("expected a Set-Cookie header")
	}
	return header
}

func TestAttachSetsProtectedCookie(t *testing.T) {
	m := NewCookieManager(CookieConfig{MaxAge: 7 * 24 * time.Hour})

	header := setCookieHeader(t, func(c *gin.Context) {
		m.Attach(c, "refresh-value")
	})

	for _, want := range []string{
		"refresh_token=refresh-value",
		"Path=/api",
		"HttpOnly",
		"SameSite=Strict",
		"Max-Age=604800",
	} {
		if !strings.Contains(header, want) {
			t.Fatalf("cookie header missing %q: %s", want, header)
		}
	}
	if strings.Contains(header, "Secure") {
		t.Fatalf("Secure set without configuration: %s", header)
	}
}

func TestAttachSecure(t *testing.T) {
	m := NewCookieManager(CookieConfig{Secure: true})

	header := setCookieHeader(t, func(c *gin.Context) {
		m.Attach(c, "refresh-value")
	})
	if !strings.Contains(header, "Secure") {
		t.Fatalf("expected Secure attribute: %s", header)
	}
}

func TestClearMatchesAttachScope(t *testing.T) {
	m := NewCookieManager(CookieConfig{Domain: "rent.example.com", Secure: true})

	header := setCookieHeader(t, func(c *gin.Context) {
		m.Clear(c)
	})

	// Browsers only expire a cookie when name, path, and domain all match
	// the original.
	for _, want := range []string{
		"refresh_token=",
		"Path=/api",
		"Domain=rent.example.com",
		"HttpOnly",
		"SameSite=Strict",
		"Secure",
		"Max-Age=0",
	} {
		if !strings.Contains(header, want) {
			t.Fatalf("clear header missing %q: %s", want, header)
		}
	}
}

func TestReadMissingCookie(t *testing.T) {
	m := NewCookieManager(CookieConfig{})

	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)

	if got := m.Read(c); got != "" {
		t.Fatalf("expected empty token for missing cookie, got %q", got)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":                     "",
		"Bearer abc":           "abc",
		"bearer abc":           "abc",
		"Basic abc":            "",
		"Bearer":               "",
		"Bearer  spaced-token": "spaced-token",
	}
	for header, want := range cases {
		if got := bearerToken(header); got != want {
			t.Fatalf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
