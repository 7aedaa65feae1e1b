package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func protected(key string) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return APIKey(key)(next)
}

func TestAPIKey_ValidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/process", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	rec := httptest.NewRecorder()

	protected("secret-key").ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKey_CaseInsensitiveScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/process", nil)
	req.Header.Set("Authorization", "bearer secret-key")
	rec := httptest.NewRecorder()

	protected("secret-key").ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKey_MissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/process", nil)
	rec := httptest.NewRecorder()

	protected("secret-key").ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIKey_WrongToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/process", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()

	protected("secret-key").ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIKey_MalformedHeader(t *testing.T) {
	for _, header := range []string{"Bearer", "Bearer  ", "Basic dXNlcjpwYXNz", "secret-key"} {
		req := httptest.NewRequest(http.MethodPost, "/process", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()

		protected("secret-key").ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAPIKey_HealthBypassesAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	protected("secret-key").ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKey_EmptyKeyDisablesAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/process", nil)
	rec := httptest.NewRecorder()

	protected("").ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
