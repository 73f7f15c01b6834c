package middleware

import (
	"net/http"
	"strings"

	"taxflow/internal/authz"
	"taxflow/internal/token"
	"taxflow/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const principalKey = "principal"

// Guard authenticates bearer tokens and authorizes roles against the casbin policy.
type Guard struct {
	tokens     *token.Manager
	authorizer *authz.Authorizer
	logger     *zap.Logger
}

func NewGuard(tokens *token.Manager, authorizer *authz.Authorizer, logger *zap.Logger) *Guard {
	return &Guard{tokens: tokens, authorizer: authorizer, logger: logger}
}

// Authenticate validates the access token and stores the principal in the context.
// The Authorization header wins over the access_token cookie.
func (g *Guard) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ""
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
				return
			}
			raw = parts[1]
		} else if cookie, err := c.Cookie("access_token"); err == nil {
			raw = cookie
		}

		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		p, err := g.tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// Authorize requires the caller's role to be allowed action on object.
func (g *Guard) Authorize(object, action string) gin.HandlerFunc {
	return g.authorizeWith(func(*gin.Context) string { return object }, action)
}

// AuthorizeDashboard guards /dashboards/:role with the dashboard:<role> object.
func (g *Guard) AuthorizeDashboard(param string) gin.HandlerFunc {
	return g.authorizeWith(func(c *gin.Context) string {
		return authz.DashboardObject(c.Param(param))
	}, authz.ActionRead)
}

func (g *Guard) authorizeWith(object func(*gin.Context) string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		obj := object(c)
		allowed, err := g.authorizer.Authorize(p.Role, obj, action)
		if err != nil {
			g.logger.Error("authorization check failed", zap.String("object", obj), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Next()
	}
}

// GetPrincipal returns the principal stored by Authenticate.
func GetPrincipal(c *gin.Context) (token.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return token.Principal{}, false
	}
	p, ok := v.(token.Principal)
	return p, ok
}

// SetPrincipal is used by tests that bypass Authenticate.
func SetPrincipal(c *gin.Context, p token.Principal) {
	c.Set(principalKey, p)
}
