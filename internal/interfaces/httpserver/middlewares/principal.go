package middlewares

import (
	"github.com/gin-gonic/gin"

	domain "model-lens/services/catalog-api/internal/domain"
)

const (
	UserIDHeader = "X-User-ID"
	TeamIDHeader = "X-Team-ID"
	AdminHeader  = "X-Admin"

	principalKey = "principal"
)

// Principal resolves the caller identity from trusted gateway headers.
// Authentication happens upstream; these headers are set by the gateway
// after token validation.
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := domain.Principal{
			UserID:  c.GetHeader(UserIDHeader),
			TeamID:  c.GetHeader(TeamIDHeader),
			IsAdmin: c.GetHeader(AdminHeader) == "true",
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// PrincipalFrom returns the resolved principal for the request; zero
// value when the middleware did not run.
func PrincipalFrom(c *gin.Context) domain.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(domain.Principal); ok {
			return p
		}
	}
	return domain.Principal{}
}
