package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func serve(t *testing.T, secret, header string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	var seen string
	e.GET("/private", func(c echo.Context) error {
		seen, _ = c.Get(UserIDKey).(string)
		return c.NoContent(http.StatusNoContent)
	}, JwtAuthMiddleware(secret))

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	token, err := GenerateAccessToken(testSecret, "user-42", "Ada", time.Hour)
	require.NoError(t, err)

	rec, userID := serve(t, testSecret, "Bearer "+token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-42", userID)
}

func TestMiddlewareRejects(t *testing.T) {
	expired, err := GenerateAccessToken(testSecret, "user-42", "", -time.Minute)
	require.NoError(t, err)
	foreign, err := GenerateAccessToken("other-secret", "user-42", "", time.Hour)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &JwtCustomClaims{
		UserID:           "user-42",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"garbage":      "Bearer not-a-jwt",
		"expired":      "Bearer " + expired,
		"wrong secret": "Bearer " + foreign,
		"alg none":     "Bearer " + unsigned,
	} {
		rec, userID := serve(t, testSecret, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
		assert.Empty(t, userID, name)
	}
}

func TestMiddlewareWithoutSecret(t *testing.T) {
	rec, _ := serve(t, "", "Bearer whatever")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGenerateAccessToken(t *testing.T) {
	_, err := GenerateAccessToken("", "u", "", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = GenerateAccessToken(testSecret, " ", "", time.Hour)
	assert.Error(t, err)

	token, err := GenerateAccessToken(testSecret, "u-1", "Bo", time.Hour)
	require.NoError(t, err)
	claims, err := ParseAccessToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "Bo", claims.Name)
	assert.Equal(t, Issuer, claims.Issuer)
}
