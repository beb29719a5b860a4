package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	jwtutil "github.com/famsphere/famsphere-server/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, name, role string) string {
	t.Helper()
	token, err := jwtutil.GenerateToken("507f1f77bcf86cd799439011", name, role, testSecret, 1)
	require.NoError(t, err)
	return token
}

// parentOnlyHandler mirrors the route stack of the parent-only endpoints:
// AuthMiddleware wrapping RequireRole wrapping the handler.
func parentOnlyHandler() http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return AuthMiddleware(testSecret)(RequireRole("parent")(inner))
}

func TestRequireRoleAllowsParent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/members/manage", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "Sarah", "parent"))
	rec := httptest.NewRecorder()

	parentOnlyHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejectsChild(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/members/manage", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "Emma", "child"))
	rec := httptest.NewRecorder()

	parentOnlyHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/members/manage", nil)
	rec := httptest.NewRecorder()

	parentOnlyHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/members/manage", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()

	parentOnlyHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareStoresClaims(t *testing.T) {
	var got *jwtutil.Claims
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetUserFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/goals", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "Emma", "child"))
	rec := httptest.NewRecorder()

	AuthMiddleware(testSecret)(inner).ServeHTTP(rec, req)

	require.NotNil(t, got)
	assert.Equal(t, "Emma", got.Name)
	assert.Equal(t, "child", got.Role)
}
