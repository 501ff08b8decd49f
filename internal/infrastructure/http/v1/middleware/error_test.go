package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ritel/internal/core/apperror"
	corectx "ritel/internal/core/context"
	"ritel/internal/domain/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_RendersAppError(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/boom", func(c *gin.Context) {
		_ = c.Error(apperror.NewNotFound("item", "abc"))
		c.Abort()
	})

	w := perform(router, http.MethodGet, "/boom", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, apperror.CodeNotFound, body["code"])
	details := body["details"].(map[string]any)
	assert.Equal(t, "item", details["entity"])
}

func TestErrorHandler_HidesUnknownErrors(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: connection refused"))
		c.Abort()
	})

	w := perform(router, http.MethodGet, "/boom", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, apperror.CodeInternal, body["code"])
	assert.Equal(t, "internal server error", body["message"])
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestErrorHandler_DoesNotOverrideWrittenResponse(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		_ = c.Error(errors.New("late failure"))
	})

	w := perform(router, http.MethodGet, "/ok", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

type stubVerifier struct {
	claims *auth.Claims
	err    error
}

func (s stubVerifier) VerifyToken(string) (*auth.Claims, error) {
	return s.claims, s.err
}

func TestAuth_MissingHeader(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.Use(Auth(stubVerifier{}))
	router.GET("/protected", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := perform(router, http.MethodGet, "/protected", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_MalformedHeader(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.Use(Auth(stubVerifier{}))
	router.GET("/protected", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := perform(router, http.MethodGet, "/protected", map[string]string{
		"Authorization": "Basic dXNlcjpwdw==",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ValidTokenPopulatesContext(t *testing.T) {
	verifier := stubVerifier{claims: &auth.Claims{
		UserID:   "u-1",
		Username: "kasir",
		Role:     corectx.RoleStaff,
	}}

	router := gin.New()
	router.Use(ErrorHandler())
	router.Use(Auth(verifier))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})

	w := perform(router, http.MethodGet, "/protected", map[string]string{
		"Authorization": "Bearer token",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u-1"`)
}

func TestRequireRole_StaffPrincipal(t *testing.T) {
	verifier := stubVerifier{claims: &auth.Claims{
		UserID:   "u-1",
		Username: "kasir",
		Role:     corectx.RoleStaff,
	}}

	router := gin.New()
	router.Use(ErrorHandler())
	router.Use(Auth(verifier))
	router.GET("/admin-only", RequireRole(corectx.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/any-staff", RequireRole(corectx.RoleAdmin, corectx.RoleStaff), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	headers := map[string]string{"Authorization": "Bearer token"}
	assert.Equal(t, http.StatusForbidden, perform(router, http.MethodGet, "/admin-only", headers).Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/any-staff", headers).Code)
}

func TestRequireRole_AdminPrincipal(t *testing.T) {
	admin := auth.NewUser("boss", corectx.RoleAdmin)
	require.NoError(t, admin.Validate(context.Background()))

	verifier := stubVerifier{claims: &auth.Claims{
		UserID:   admin.ID.String(),
		Username: admin.Username,
		Role:     admin.Role,
	}}

	router := gin.New()
	router.Use(ErrorHandler())
	router.Use(Auth(verifier))
	router.GET("/admin-only", RequireRole(corectx.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	headers := map[string]string{"Authorization": "Bearer token"}
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/admin-only", headers).Code)
}

func TestAuth_VerifierError(t *testing.T) {
	verifier := stubVerifier{err: apperror.NewUnauthorized("token expired")}

	router := gin.New()
	router.Use(ErrorHandler())
	router.Use(Auth(verifier))
	router.GET("/protected", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := perform(router, http.MethodGet, "/protected", map[string]string{
		"Authorization": "Bearer stale",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, apperror.CodeUnauthorized, body["code"])
}
