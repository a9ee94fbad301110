package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreeji-gems/diamond-api/internal/models"
	"github.com/shreeji-gems/diamond-api/internal/service"
)

func sessionRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := service.NewAuthService(nil, nil, nil, service.AuthConfig{Secret: "test-secret"})
	r := gin.New()
	r.Use(Session(svc, "dmd_session"))
	r.GET("/whoami", func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.SessionClaims)
		c.String(http.StatusOK, claims.UserName)
	})
	return r
}

func signSessionToken(t *testing.T, secret string) string {
	t.Helper()
	now := time.Now().UTC()
	claims := &models.SessionClaims{
		UserID:   "user-1",
		UserName: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestSessionRejectsMissingToken(t *testing.T) {
	r := sessionRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAcceptsCookieToken(t *testing.T) {
	r := sessionRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "dmd_session", Value: signSessionToken(t, "test-secret")})
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Body.String())
}

func TestSessionAcceptsBearerHeader(t *testing.T) {
	r := sessionRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signSessionToken(t, "test-secret"))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionRejectsForeignSecret(t *testing.T) {
	r := sessionRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signSessionToken(t, "other-secret"))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionRejectsMalformedAuthorizationHeader(t *testing.T) {
	r := sessionRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Token abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
