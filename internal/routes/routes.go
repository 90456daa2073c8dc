package routes

import (
	"github.com/gin-gonic/gin"

	"emaginer/internal/authz"
	"emaginer/internal/handlers"
	"emaginer/internal/middleware"
	"emaginer/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tokens services.TokenService,
	users services.UserService,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)

	usersGroup := r.Group("/users")
	usersGroup.POST("/register", userHandler.Register)
	usersGroup.POST("/verify-account/:userID/:code", userHandler.Verify)
	usersGroup.GET("/resend-code/:userName", userHandler.ResendCode)
	usersGroup.POST("/forgot-password", userHandler.ForgotPassword)
	usersGroup.PATCH("/reset-password/:code", userHandler.ResetPassword)

	// ---- protected
	auth := usersGroup.Group("")
	auth.Use(middleware.AuthMiddleware(tokens, users))

	auth.GET("/me", userHandler.GetMyProfile)

	admin := auth.Group("")
	admin.Use(middleware.RequireRoles(authz.RoleAdmin))
	admin.PUT("/:id/admin", userHandler.AdminUpdate)
	admin.DELETE("/:id", userHandler.DeleteUser)
	admin.GET("/:id/export", userHandler.ExportProfile)

	return r
}
