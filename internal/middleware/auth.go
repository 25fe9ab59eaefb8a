package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
)

const (
	ContextActor     = "actor"
	ContextRequestID = "requestID"
	ContextLogger    = "logger"
)

// AuthMiddleware decodes the bearer token into the caller's actor. The
// token is an identity assertion only; no session state is kept.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httperr.Unauthorized(c, "missing_authorization_header", "Authorization header is required.")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httperr.Unauthorized(c, "invalid_authorization_header", "Expected a bearer token.")
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenMalformed
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			httperr.Unauthorized(c, "invalid_token", "Token is invalid or expired.")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			httperr.Unauthorized(c, "invalid_token_claims", "Token claims are unreadable.")
			c.Abort()
			return
		}

		sub, _ := claims["sub"].(string)
		role, _ := claims["role"].(string)

		actor := domain.Actor{ID: strings.TrimSpace(sub), Role: domain.Role(role)}
		if actor.ID == "" || !actor.Role.Valid() {
			httperr.Unauthorized(c, "invalid_token_payload", "Token must carry sub and role.")
			c.Abort()
			return
		}

		c.Set(ContextActor, actor)
		c.Next()
	}
}

// RequireRole rejects actors of any other role. It runs after AuthMiddleware.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ActorFrom(c).Role != role {
			httperr.Write(c, http.StatusForbidden, httperr.CodeForbidden, "This operation requires the "+string(role)+" role.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorFrom returns the authenticated actor, or the zero Actor on public routes.
func ActorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get(ContextActor); ok {
		if a, ok := v.(domain.Actor); ok {
			return a
		}
	}
	return domain.Actor{}
}

// SignToken mints a bearer token for actor. The identity service owns real
// issuance; this serves the CLI and tests.
func SignToken(secret string, actor domain.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  actor.ID,
		"role": string(actor.Role),
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
