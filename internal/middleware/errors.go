package middleware

import (
	"log"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"emaginer/internal/errs"
	"emaginer/internal/services"
)

// ErrorHandler — единая точка формирования ответа об ошибке. Хендлеры и
// middleware кладут ошибку через c.Error(...), сюда она приходит уже
// аннотированной меткой потока и correlation id. Формат ответа:
// {status, errors}, где errors — {globalMessage} либо карта полевых ошибок.
func ErrorHandler(isDevelopment bool, alerts *services.TelegramAlertService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		ae := errs.Wrap(c.Errors.Last().Err, "", "")

		payload := ae.Errors
		if ae.Status >= 500 {
			// 5xx логируем со стеком, адресом клиента и correlation id
			log.Printf("[error][5xx] status=%d label=%s corr=%s remote=%s err=%v\n%s",
				ae.Status, ae.Label, ae.Correlation, c.ClientIP(), ae, debug.Stack())
			alerts.NotifyServerError(ae.Label, ae.Correlation, ae.Status)
			// в production детали серверных ошибок наружу не отдаём
			if !isDevelopment {
				payload = map[string]any{"globalMessage": "Server error occurred! please try again"}
			}
		} else {
			log.Printf("[error] status=%d label=%s corr=%s remote=%s: %v",
				ae.Status, ae.Label, ae.Correlation, c.ClientIP(), ae)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(ae.Status, gin.H{
			"status": ae.Status,
			"errors": payload,
		})
	}
}
