// app/echoServer/routes.go
package echoServer

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/sunilverma11/town-book/app/echoServer/controller/auth"
	"github.com/sunilverma11/town-book/app/echoServer/controller/book"
	"github.com/sunilverma11/town-book/app/echoServer/controller/bookrequest"
	"github.com/sunilverma11/town-book/app/echoServer/controller/reservation"
	"github.com/sunilverma11/town-book/app/echoServer/controller/room"
	"github.com/sunilverma11/town-book/app/echoServer/controller/roomrequest"
)

// Controllers bundles every handler the router mounts.
type Controllers struct {
	Auth         *auth.Controller
	Books        *book.Controller
	Rooms        *room.Controller
	BookRequests *bookrequest.Controller
	RoomRequests *roomrequest.Controller
	Reservations *reservation.Controller
}

func RegisterRoutes(e *echo.Echo, jwtSecret string, ct Controllers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	ag := api.Group("/auth")
	ag.POST("/register", ct.Auth.Register)
	ag.POST("/login", ct.Auth.Login)

	authd := JWTAuth(jwtSecret)

	bg := api.Group("/books", authd...)
	bg.GET("", ct.Books.List)
	bg.GET("/:id", ct.Books.Detail)
	bg.POST("", ct.Books.Create)
	bg.PUT("/:id", ct.Books.Update)
	bg.DELETE("/:id", ct.Books.Delete)
	bg.POST("/:id/borrow", ct.Books.Borrow)
	bg.POST("/:id/return", ct.Books.Return)

	rg := api.Group("/rooms", authd...)
	rg.GET("", ct.Rooms.List)
	rg.GET("/:id", ct.Rooms.Detail)
	rg.POST("", ct.Rooms.Create)
	rg.PUT("/:id", ct.Rooms.Update)
	rg.DELETE("/:id", ct.Rooms.Delete)

	brg := api.Group("/book-requests", authd...)
	brg.POST("", ct.BookRequests.Create)
	brg.GET("", ct.BookRequests.List)
	brg.GET("/my-requests", ct.BookRequests.MyRequests)
	brg.PUT("/:id/process", ct.BookRequests.Process)
	brg.POST("/:bookId/return-request", ct.BookRequests.SubmitReturn)
	brg.PUT("/:id/process-return", ct.BookRequests.ProcessReturn)

	rrg := api.Group("/room-requests", authd...)
	rrg.POST("", ct.RoomRequests.Create)
	rrg.GET("", ct.RoomRequests.List)
	rrg.GET("/pending", ct.RoomRequests.Pending)
	rrg.GET("/my-requests", ct.RoomRequests.MyRequests)
	rrg.PUT("/:id/process", ct.RoomRequests.Process)
	rrg.POST("/:id/leave-request", ct.RoomRequests.SubmitLeave)
	rrg.PUT("/:id/process-leave", ct.RoomRequests.ProcessLeave)

	resg := api.Group("/reservations", authd...)
	resg.POST("", ct.Reservations.Create)
	resg.GET("", ct.Reservations.List)
	resg.PUT("/:id/status", ct.Reservations.UpdateStatus)
	resg.POST("/:id/pickup", ct.Reservations.Pickup)
	resg.POST("/:id/return", ct.Reservations.Return)
}
