package middleware

import (
	"github.com/gin-gonic/gin"

	"emaginer/internal/errs"
)

// RequireRoles — пускает дальше только аккаунты с ролью из списка.
// Ставится после AuthMiddleware.
func RequireRoles(allowed ...string) gin.HandlerFunc {
	allowedSet := map[string]struct{}{}
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abortWithError(c, errs.ErrUnauthenticated)
			return
		}
		if _, ok := allowedSet[user.Role]; !ok {
			abortWithError(c, errs.ErrForbidden)
			return
		}
		c.Next()
	}
}
