package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/lumora-shop/marketplace-api/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject, role, sellerID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role:     role,
		SellerID: sellerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func invoke(t *testing.T, authHeader string) (*httptest.ResponseRecorder, dto.Identity, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got dto.Identity
	handler := Auth(testSecret)(func(c echo.Context) error {
		identity, ok := IdentityFrom(c)
		require.True(t, ok)
		got = identity
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	return rec, got, err
}

func TestAuthResolvesIdentity(t *testing.T) {
	token := signToken(t, testSecret, "user-1", dto.RoleSeller, "seller-1")

	rec, identity, err := invoke(t, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "seller-1", identity.SellerID)
	assert.True(t, identity.IsSeller())
}

func TestAuthRejectsMissingToken(t *testing.T) {
	_, _, err := invoke(t, "")
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	token := signToken(t, "other-secret", "user-1", dto.RoleCustomer, "")

	_, _, err := invoke(t, "Bearer "+token)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: dto.RoleCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, _, err = invoke(t, "Bearer "+signed)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthRejectsMissingSubject(t *testing.T) {
	token := signToken(t, testSecret, "", dto.RoleCustomer, "")

	_, _, err := invoke(t, "Bearer "+token)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
