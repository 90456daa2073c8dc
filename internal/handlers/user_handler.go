package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"emaginer/internal/errs"
	"emaginer/internal/middleware"
	"emaginer/internal/models"
	"emaginer/internal/pdf"
	"emaginer/internal/services"
)

type UserHandler struct {
	service services.UserService
	pdfGen  pdf.Generator
}

func NewUserHandler(service services.UserService, pdfGen pdf.Generator) *UserHandler {
	return &UserHandler{service: service, pdfGen: pdfGen}
}

// собираем руками только разрешённые поля: status/role из запроса не берём
type registerRequest struct {
	Name            string     `json:"name" binding:"required,min=2,max=100"`
	UserName        string     `json:"user_name" binding:"required,min=2,max=100"`
	Email           string     `json:"email" binding:"required,email"`
	Password        string     `json:"password" binding:"required,min=8"`
	ConfirmPassword string     `json:"confirm_password" binding:"required,eqfield=Password"`
	Gender          string     `json:"gender" binding:"omitempty,oneof=male female other"`
	DOB             *time.Time `json:"dob" binding:"omitempty"`
}

type forgotPasswordRequest struct {
	UserName string `json:"user_name" binding:"required"`
}

type resetPasswordRequest struct {
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}

type adminUpdateRequest struct {
	Status string `json:"status" binding:"omitempty,oneof=NOT_INITIALIZED ACTIVE SUSPENDED DEACTIVE"`
	Role   string `json:"role" binding:"omitempty,oneof=user admin"`
}

// @Summary      Регистрация
// @Description  Создаёт аккаунт (NOT_INITIALIZED), выдаёт одноразовый код на email и возвращает токен
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        user  body      registerRequest  true  "Данные регистрации"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Router       /users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}

	user := &models.User{
		Name:     req.Name,
		UserName: req.UserName,
		Email:    req.Email,
		Gender:   req.Gender,
		DOB:      req.DOB,
		Role:     "user",
	}
	savedUser, token, err := h.service.Register(c.Request.Context(), user, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token":     token,
		"savedUser": savedUser, // password_hash помечен json:"-", наружу не уйдёт
	})
}

// @Summary      Активация аккаунта
// @Description  Переводит аккаунт в ACTIVE по одноразовому коду из письма
// @Tags         Users
// @Produce      json
// @Param        userID  path      int     true  "ID пользователя"
// @Param        code    path      string  true  "Одноразовый код"
// @Success      200     {object}  map[string]interface{}
// @Failure      401     {object}  map[string]interface{}
// @Router       /users/verify-account/{userID}/{code} [post]
func (h *UserHandler) Verify(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		_ = c.Error(errs.Field("userID", "Invalid URL"))
		return
	}
	code := c.Param("code")
	if code == "" {
		_ = c.Error(errs.Field("code", "Invalid URL"))
		return
	}

	existingUser, err := h.service.Verify(c.Request.Context(), userID, code)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"existingUser": existingUser})
}

// @Summary      Повторная отправка кода
// @Description  Выдаёт новый код активации; предыдущий код перестаёт действовать
// @Tags         Users
// @Produce      json
// @Param        userName  path      string  true  "Имя пользователя"
// @Success      200       {object}  map[string]interface{}
// @Failure      401       {object}  map[string]interface{}
// @Router       /users/resend-code/{userName} [get]
func (h *UserHandler) ResendCode(c *gin.Context) {
	userName := c.Param("userName")
	if userName == "" {
		_ = c.Error(errs.Field("userName", "Invalid URL"))
		return
	}
	if err := h.service.ResendCode(c.Request.Context(), userName); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// @Summary      Забытый пароль
// @Description  Отправляет на email письмо со ссылкой для сброса пароля
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Имя пользователя"
// @Success      200   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]interface{}
// @Router       /users/forgot-password [post]
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}
	if err := h.service.ForgotPassword(c.Request.Context(), req.UserName); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// @Summary      Сброс пароля
// @Description  Устанавливает новый пароль по коду из письма; все ранее выпущенные токены перестают действовать
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        code  path      string                true  "Одноразовый код"
// @Param        body  body      resetPasswordRequest  true  "Новый пароль"
// @Success      200   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]interface{}
// @Router       /users/reset-password/{code} [patch]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		_ = c.Error(errs.Field("code", "Invalid URL"))
		return
	}
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}
	if err := h.service.ResetPassword(c.Request.Context(), code, req.Password); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// @Summary      Мой профиль
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.User
// @Failure      401  {object}  map[string]interface{}
// @Router       /users/me [get]
func (h *UserHandler) GetMyProfile(c *gin.Context) {
	// аккаунт уже перечитан auth-middleware
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// @Summary      Изменение статуса/роли (админ)
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                 true  "ID пользователя"
// @Param        body  body      adminUpdateRequest  true  "Новые статус/роль"
// @Success      200   {object}  models.User
// @Failure      403   {object}  map[string]interface{}
// @Router       /users/{id}/admin [put]
func (h *UserHandler) AdminUpdate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		_ = c.Error(errs.Field("id", "Invalid user ID"))
		return
	}
	var req adminUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}
	user, err := h.service.AdminUpdate(c.Request.Context(), id, req.Status, req.Role)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary      Удаление аккаунта (админ)
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      int  true  "ID пользователя"
// @Success      200 {object}  map[string]interface{}
// @Failure      403 {object}  map[string]interface{}
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		_ = c.Error(errs.Field("id", "Invalid user ID"))
		return
	}
	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// @Summary      Экспорт карточки аккаунта в PDF (админ)
// @Tags         Users
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id  path  int  true  "ID пользователя"
// @Success      200
// @Failure      403 {object}  map[string]interface{}
// @Router       /users/{id}/export [get]
func (h *UserHandler) ExportProfile(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		_ = c.Error(errs.Field("id", "Invalid user ID"))
		return
	}
	user, err := h.service.GetUserByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if user == nil {
		_ = c.Error(errs.ErrNotFound)
		return
	}
	data, err := h.pdfGen.GenerateProfile(user)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="profile.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
