package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskeep/dormitory/internal/utils"
)

const testSecret = "unit-test-secret"

func doRequest(t *testing.T, mw []echo.MiddlewareFunc, authHeader string, inspect echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h := inspect
	if h == nil {
		h = func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	}
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestJWTAuthRejectsMissingAndBadTokens(t *testing.T) {
	mw := []echo.MiddlewareFunc{JWTAuth(testSecret)}

	rec := doRequest(t, mw, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, mw, "Bearer not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token signed with a different secret.
	tok, err := utils.NewAccessToken("other-secret", 1, "STUDENT", "alice", nil, 5)
	require.NoError(t, err)
	rec = doRequest(t, mw, "Bearer "+tok.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthInjectsClaims(t *testing.T) {
	sn := "S100"
	tok, err := utils.NewAccessToken(testSecret, 42, "STUDENT", "alice", &sn, 5)
	require.NoError(t, err)

	var gotRole, gotUser, gotSN interface{}
	rec := doRequest(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, "Bearer "+tok.Token, func(c echo.Context) error {
		gotRole = c.Get("role")
		gotUser = c.Get("username")
		gotSN = c.Get("student_no")
		return c.NoContent(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "STUDENT", gotRole)
	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, "S100", gotSN)
}

func TestRequireRole(t *testing.T) {
	studentTok, err := utils.NewAccessToken(testSecret, 42, "STUDENT", "alice", nil, 5)
	require.NoError(t, err)

	mwStudent := []echo.MiddlewareFunc{JWTAuth(testSecret), RequireRole("STUDENT")}
	rec := doRequest(t, mwStudent, "Bearer "+studentTok.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	mwManager := []echo.MiddlewareFunc{JWTAuth(testSecret), RequireRole("MANAGER")}
	rec = doRequest(t, mwManager, "Bearer "+studentTok.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleWithoutAuth(t *testing.T) {
	rec := doRequest(t, []echo.MiddlewareFunc{RequireRole("MANAGER")}, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
