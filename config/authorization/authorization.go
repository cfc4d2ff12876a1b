package authorization

import (
	"context"
	"strings"

	"PatientRegistry/role"
	"PatientRegistry/services"
	"PatientRegistry/util"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

type Authorizer interface {
	Authorize(ctx context.Context, token string, required role.Role) (*services.Principal, error)
}

/*
* Read the bearer token from the Authorization header
* Let the auth service check signature, role and staff status
* The resolved principal is kept on the context for the handlers
 */
func JWTAuth(auth Authorizer, required role.Role, showDetail bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := auth.Authorize(c.Request.Context(), BearerToken(c.GetHeader("Authorization")), required)
		if err != nil {
			c.AbortWithStatusJSON(util.HTTPStatus(err), util.FailedResponse(err, showDetail))
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetPrincipal returns what JWTAuth stored. It is always set behind JWTAuth.
func GetPrincipal(c *gin.Context) *services.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*services.Principal)
	return p
}
