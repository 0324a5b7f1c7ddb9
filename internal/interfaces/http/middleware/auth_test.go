package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/infrastructure/auth"
	"github.com/erp/receiving/internal/infrastructure/logger"
	"github.com/erp/receiving/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-test-secret-that-is-long-enough-for-hs256"

func authRouter(cfg AuthConfig, seen *shared.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Authenticate(cfg))
	handler := func(c *gin.Context) {
		if actor, ok := ActorFrom(c); ok && seen != nil {
			*seen = actor
			c.Header("X-Log-Tenant", logger.TenantID(c.Request.Context()))
		}
		c.Status(http.StatusOK)
	}
	router.GET("/health", handler)
	router.GET("/api/v1/receives", handler)
	return router
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestAuthenticate_BearerToken(t *testing.T) {
	validator := auth.NewTokenValidator(testSecret, "receiving")
	actor := shared.NewActor(uuid.New(), uuid.New(), "clerk", shared.RoleAdmin)
	token, err := validator.Issue(actor, time.Hour)
	require.NoError(t, err)

	var seen shared.Actor
	router := authRouter(AuthConfig{Validator: validator, SkipPaths: []string{"/health"}}, &seen)

	t.Run("valid token yields the actor", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/receives", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, actor, seen)
		assert.Equal(t, actor.TenantID.String(), w.Header().Get("X-Log-Tenant"))
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/receives", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, w))
	})

	t.Run("headers are ignored when tokens are required", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/receives", nil)
		req.Header.Set(TenantIDHeader, uuid.NewString())
		req.Header.Set(UserIDHeader, uuid.NewString())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		forged, err := auth.NewTokenValidator("another-secret-that-is-long-enough-too", "receiving").Issue(actor, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/receives", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+forged)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, errorCode(t, w))
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := validator.Issue(actor, -time.Minute)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/receives", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+expired)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenExpired, errorCode(t, w))
	})

	t.Run("skip paths need no credentials", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuthenticate_Headers(t *testing.T) {
	var seen shared.Actor
	router := authRouter(AuthConfig{}, &seen)
	tenantID, userID := uuid.New(), uuid.New()

	t.Run("builds the actor from headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/receives", nil)
		req.Header.Set(TenantIDHeader, tenantID.String())
		req.Header.Set(UserIDHeader, userID.String())
		req.Header.Set(UserRoleHeader, "viewer")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tenantID, seen.TenantID)
		assert.Equal(t, userID, seen.UserID)
		assert.Equal(t, shared.RoleViewer, seen.Role)
	})

	t.Run("role defaults to member", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/receives", nil)
		req.Header.Set(TenantIDHeader, tenantID.String())
		req.Header.Set(UserIDHeader, userID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, shared.RoleMember, seen.Role)
	})

	t.Run("malformed tenant", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/receives", nil)
		req.Header.Set(TenantIDHeader, "tenant-1")
		req.Header.Set(UserIDHeader, userID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, errorCode(t, w))
	})
}
