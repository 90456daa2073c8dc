package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"emaginer/internal/errs"
)

func init() {
	// имена полей в ошибках валидации — из json-тегов, не из Go-имён
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Please enter your %s", fe.Field())
	case "email":
		return "Email is invalid"
	case "eqfield":
		return "Password confirmation does not match password"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// bindingError — ошибки binding-тегов в формат {field: {msg, param}}.
func bindingError(err error) *errs.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs.New(http.StatusBadRequest, err.Error())
	}
	ae := &errs.AppError{
		Status: http.StatusBadRequest,
		Errors: map[string]any{},
		Err:    err,
	}
	for _, fe := range verrs {
		ae.Errors[fe.Field()] = errs.FieldError{
			Msg:   validationMessage(fe),
			Param: fe.Field(),
		}
	}
	return ae
}
