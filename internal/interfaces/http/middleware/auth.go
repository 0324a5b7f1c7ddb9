package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/infrastructure/auth"
	"github.com/erp/receiving/internal/infrastructure/logger"
	"github.com/erp/receiving/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Authentication headers
const (
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
	TenantIDHeader = "X-Tenant-ID"
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"
	UserNameHeader = "X-User-Name"
)

// ActorKey is the gin context key holding the authenticated shared.Actor
const ActorKey = "actor"

// ActorValidator turns a bearer token into an actor
type ActorValidator interface {
	Validate(token string) (shared.Actor, error)
}

// AuthConfig holds configuration for the authentication middleware
type AuthConfig struct {
	// Validator checks bearer tokens. Nil means header authentication.
	Validator ActorValidator
	// SkipPaths are served without an actor
	SkipPaths []string
	Logger    *zap.Logger
}

// Authenticate resolves the caller into a shared.Actor. With a validator it
// requires a bearer token; without one it trusts the X-Tenant-ID, X-User-ID
// and X-User-Role headers, which is meant for local development only.
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		var (
			actor shared.Actor
			err   error
		)
		if cfg.Validator != nil {
			actor, err = actorFromToken(c, cfg.Validator)
		} else {
			actor, err = actorFromHeaders(c)
		}
		if err != nil {
			log.Debug("authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestID(c)),
				zap.Error(err),
			)
			abortUnauthorized(c, err)
			return
		}

		c.Set(ActorKey, actor)
		ctx := logger.WithTenantID(c.Request.Context(), actor.TenantID.String())
		ctx = logger.WithUserID(ctx, actor.UserID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ActorFrom returns the actor set by Authenticate
func ActorFrom(c *gin.Context) (shared.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return shared.Actor{}, false
	}
	actor, ok := v.(shared.Actor)
	return actor, ok
}

var errMissingCredentials = errors.New("missing credentials")

func actorFromToken(c *gin.Context, validator ActorValidator) (shared.Actor, error) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return shared.Actor{}, errMissingCredentials
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	if token == "" {
		return shared.Actor{}, errMissingCredentials
	}
	return validator.Validate(token)
}

func actorFromHeaders(c *gin.Context) (shared.Actor, error) {
	tenantRaw, userRaw := c.GetHeader(TenantIDHeader), c.GetHeader(UserIDHeader)
	if tenantRaw == "" || userRaw == "" {
		return shared.Actor{}, errMissingCredentials
	}
	tenantID, err := uuid.Parse(tenantRaw)
	if err != nil {
		return shared.Actor{}, auth.ErrMissingTenantID
	}
	userID, err := uuid.Parse(userRaw)
	if err != nil {
		return shared.Actor{}, auth.ErrMissingUserID
	}
	return shared.NewActor(tenantID, userID, c.GetHeader(UserNameHeader), shared.Role(c.GetHeader(UserRoleHeader))), nil
}

func abortUnauthorized(c *gin.Context, err error) {
	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
		code, message = dto.ErrCodeTokenInvalid, "Token is invalid"
	case errors.Is(err, auth.ErrMissingTenantID), errors.Is(err, auth.ErrMissingUserID):
		code, message = dto.ErrCodeTokenInvalid, err.Error()
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, requestID(c)))
}
