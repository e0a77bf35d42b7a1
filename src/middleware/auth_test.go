package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-for-unit-tests-32ch!"

// withTestSecret installs a JWT secret for the duration of the test
func withTestSecret(t *testing.T) {
	t.Helper()
	originalSecret := JWTSecret
	require.NoError(t, SetJWTSecret(testSecret))
	t.Cleanup(func() { JWTSecret = originalSecret })
}

// newProtectedRouter returns a router with AdminAuthMiddleware in front of /test
func newProtectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AdminAuthMiddleware())
	router.GET("/test", func(c *gin.Context) {
		username, _ := c.Get("username")
		c.JSON(http.StatusOK, gin.H{"username": username})
	})
	return router
}

func TestSetJWTSecret(t *testing.T) {
	originalSecret := JWTSecret
	defer func() { JWTSecret = originalSecret }()

	assert.Error(t, SetJWTSecret(""))
	assert.Error(t, SetJWTSecret("too-short"))
	assert.NoError(t, SetJWTSecret(testSecret))
	assert.Equal(t, testSecret, JWTSecret)
}

func TestGenerateAdminToken_RoundTrip(t *testing.T) {
	withTestSecret(t)

	adminID := uuid.New()
	token, err := GenerateAdminToken(adminID, "operator")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, adminID.String(), claims.AdminID)
	assert.Equal(t, "operator", claims.Username)
	assert.Equal(t, "license-gate", claims.Issuer)
}

func TestGenerateAdminToken_NoSecret(t *testing.T) {
	originalSecret := JWTSecret
	JWTSecret = ""
	defer func() { JWTSecret = originalSecret }()

	_, err := GenerateAdminToken(uuid.New(), "operator")
	assert.Error(t, err)
}

func TestValidateAdminToken_Rejects(t *testing.T) {
	withTestSecret(t)

	t.Run("garbage", func(t *testing.T) {
		_, err := ValidateAdminToken("not-a-jwt")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		claims := AdminClaims{
			Username:         "operator",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "license-gate"},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret-another-secret-00"))
		require.NoError(t, err)

		_, err = ValidateAdminToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		claims := AdminClaims{
			Username: "operator",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "license-gate",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = ValidateAdminToken(token)
		assert.Error(t, err)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		claims := AdminClaims{
			Username:         "operator",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = ValidateAdminToken(token)
		assert.Error(t, err)
	})
}

func TestAdminAuthMiddleware_WithValidCookie(t *testing.T) {
	withTestSecret(t)

	token, err := GenerateAdminToken(uuid.New(), "operator")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: "admin_token", Value: token})
	newProtectedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "operator")
}

func TestAdminAuthMiddleware_WithValidHeader(t *testing.T) {
	withTestSecret(t)

	token, err := GenerateAdminToken(uuid.New(), "operator")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	newProtectedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestAdminAuthMiddleware_MissingToken(t *testing.T) {
	withTestSecret(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	newProtectedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing authentication token")
}

func TestAdminAuthMiddleware_InvalidToken(t *testing.T) {
	withTestSecret(t)

	tests := []struct {
		name   string
		header string
	}{
		{"garbage bearer", "Bearer invalid_token"},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", tt.header)
			newProtectedRouter().ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestSetAdminCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/login", nil)

	SetAdminCookie(c, "token-value")

	cookie := w.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, "admin_token=token-value")
	assert.Contains(t, cookie, "HttpOnly")
	assert.Contains(t, cookie, "SameSite=Strict")
}
