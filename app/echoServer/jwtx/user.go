// app/echoServer/jwtx/jwtx.go
package jwtx

import (
	"github.com/labstack/echo/v4"

	"github.com/sunilverma11/town-book/model"
)

func UserID(c echo.Context) int64 {
	uid, _ := c.Get("user_id").(int64)
	return uid
}

func Role(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}

func IsLibrarian(c echo.Context) bool {
	return Role(c) == model.RoleLibrarian
}
