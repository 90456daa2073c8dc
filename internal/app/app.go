package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"emaginer/internal/config"
	"emaginer/internal/handlers"
	"emaginer/internal/middleware"
	"emaginer/internal/pdf"
	"emaginer/internal/repositories"
	"emaginer/internal/routes"
	"emaginer/internal/services"
	"emaginer/migrations"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	_ "emaginer/docs"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()

	// === Migrations ===
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("Ошибка goose dialect: ", err)
	}
	if err := goose.UpContext(context.Background(), db, "."); err != nil {
		log.Fatal("Ошибка миграций: ", err)
	}

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	codeRepo := repositories.NewSecretCodeRepository(db)

	// === Services ===
	authService := services.NewAuthService(cfg.Bcrypt.Cost)
	tokenService := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	alertService := services.NewTelegramAlertService(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID)

	userService := services.NewUserService(
		db,
		userRepo,
		codeRepo,
		authService,
		tokenService,
		emailService,
		cfg.OTP.LengthBytes,
		cfg.App.BaseURL,
	)

	pdfGen := pdf.NewProfileGenerator()

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService, pdfGen)

	// === Gin ===
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(middleware.ErrorHandler(cfg.IsDevelopment(), alertService))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, authHandler, userHandler, tokenService, userService)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Ошибка запуска сервера: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
