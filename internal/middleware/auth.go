package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"emaginer/internal/errs"
	"emaginer/internal/models"
	"emaginer/internal/services"
)

const ctxUserKey = "current_user"

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(errs.Wrap(err, "auth.middleware", ""))
	c.Abort()
}

// AuthMiddleware — проверка bearer-токена на каждом защищённом запросе:
// парсим заголовок, проверяем подпись и срок, затем перечитываем аккаунт
// из БД (не кэшируем личность) и отклоняем токены, выпущенные до
// последней смены пароля.
func AuthMiddleware(tokens services.TokenService, users services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			abortWithError(c, errs.ErrUnauthenticated)
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abortWithError(c, errs.ErrUnauthenticated)
			return
		}

		claims, err := tokens.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			abortWithError(c, err)
			return
		}

		// пользователь мог быть удалён после выпуска токена
		user, err := users.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if user == nil {
			abortWithError(c, errs.ErrUnauthenticated)
			return
		}

		// iat сравниваем в секундах, как и хранит его JWT
		if user.PasswordChangedAt != nil && user.PasswordChangedAt.Unix() > claims.IssuedAt.Unix() {
			abortWithError(c, errs.ErrStaleToken)
			return
		}

		c.Set(ctxUserKey, user)
		c.Next()
	}
}

// CurrentUser — аккаунт, положенный в контекст auth-middleware.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
