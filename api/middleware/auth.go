package middleware

import (
	"strings"

	"ecommerce/api/response"
	apporder "ecommerce/application/order"
	apperrors "ecommerce/pkg/errors"
	"ecommerce/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const actorKey = "actor"

// Claims 由外部认证服务签发，这里只校验
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Auth 校验 Bearer token（HS256），并把调用方写入 gin context
func Auth(secret, issuer string) gin.HandlerFunc {
	key := []byte(secret)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Abort(c, apperrors.Unauthorized("missing bearer token"))
			return
		}

		claims := &Claims{}
		_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil || claims.UserID == "" {
			logger.Warn("Rejected token",
				zap.String("request_id", response.GetRequestID(c)),
				zap.Error(err))
			response.Abort(c, apperrors.Unauthorized("invalid or expired token"))
			return
		}

		role := apporder.Role(claims.Role)
		if role == "" {
			role = apporder.RoleCustomer
		}
		c.Set(actorKey, apporder.Actor{UserID: claims.UserID, Role: role})
		c.Next()
	}
}

// RequireRoles 必须在 Auth 之后
func RequireRoles(roles ...apporder.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			response.Abort(c, apperrors.Unauthorized("authentication required"))
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		response.Abort(c, apperrors.Forbidden("role "+string(actor.Role)+" may not access this resource"))
	}
}

// ActorFrom returns the caller set by Auth.
func ActorFrom(c *gin.Context) (apporder.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return apporder.Actor{}, false
	}
	actor, ok := v.(apporder.Actor)
	return actor, ok
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
