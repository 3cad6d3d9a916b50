package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-pos-core/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(issuer *auth.Issuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api", AuthMiddleware(issuer))
	api.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetUint(UserIDKey), "role": c.GetString(RoleKey)})
	})
	api.GET("/admin", RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r http.Handler, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	r := newRouter(issuer)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/me", "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/me", "Bearer not-a-jwt").Code)

	token, err := issuer.GenerateToken(7, "cashier")
	require.NoError(t, err)
	w := do(r, "/api/me", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"role":"cashier"}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	r := newRouter(issuer)

	cashier, err := issuer.GenerateToken(2, "cashier")
	require.NoError(t, err)
	admin, err := issuer.GenerateToken(1, "admin")
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(r, "/api/admin", "Bearer "+cashier).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/api/admin", "Bearer "+admin).Code)
}
