package main

import "emaginer/internal/app"

// @title           Emaginer Account API
// @version         1.0
// @description     Регистрация, активация по одноразовому коду, вход и сброс пароля.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	app.Run()
}
