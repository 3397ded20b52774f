package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func adminTestRouter(accessHash, accessCode string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secure", AdminAuth(accessHash, accessCode), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestAdminAuthPlaintextCode(t *testing.T) {
	r := adminTestRouter("", "let-me-in")

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("X-Admin-Access", "let-me-in")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid code, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("X-Admin-Access", "wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with invalid code, got %d", w.Code)
	}
}

func TestAdminAuthBcryptHashPreferred(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("let-me-in"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	r := adminTestRouter(string(hash), "something-else")

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer let-me-in")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 against hash, got %d", w.Code)
	}

	// The plaintext fallback must not apply once a hash is configured.
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("X-Admin-Access", "something-else")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for plaintext against hash, got %d", w.Code)
	}
}

func TestAdminAuthDeniesWhenUnconfigured(t *testing.T) {
	r := adminTestRouter("", "")
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("X-Admin-Access", "anything")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when unconfigured, got %d", w.Code)
	}
}

func TestAdminAuthMissingCode(t *testing.T) {
	r := adminTestRouter("", "let-me-in")
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without code, got %d", w.Code)
	}
}
