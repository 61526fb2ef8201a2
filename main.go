package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/sunilverma11/town-book/app/echoServer"
	authctl "github.com/sunilverma11/town-book/app/echoServer/controller/auth"
	bookctl "github.com/sunilverma11/town-book/app/echoServer/controller/book"
	bookreqctl "github.com/sunilverma11/town-book/app/echoServer/controller/bookrequest"
	reservationctl "github.com/sunilverma11/town-book/app/echoServer/controller/reservation"
	roomctl "github.com/sunilverma11/town-book/app/echoServer/controller/room"
	roomreqctl "github.com/sunilverma11/town-book/app/echoServer/controller/roomrequest"
	"github.com/sunilverma11/town-book/app/echoServer/validation"
	"github.com/sunilverma11/town-book/config"
	bookrepo "github.com/sunilverma11/town-book/repository/book"
	bookreqrepo "github.com/sunilverma11/town-book/repository/bookrequest"
	"github.com/sunilverma11/town-book/repository/catalogcache"
	reservationrepo "github.com/sunilverma11/town-book/repository/reservation"
	roomrepo "github.com/sunilverma11/town-book/repository/room"
	roomreqrepo "github.com/sunilverma11/town-book/repository/roomrequest"
	userrepo "github.com/sunilverma11/town-book/repository/user"
	authsvc "github.com/sunilverma11/town-book/service/auth"
	booksvc "github.com/sunilverma11/town-book/service/book"
	bookreqsvc "github.com/sunilverma11/town-book/service/bookrequest"
	overduesvc "github.com/sunilverma11/town-book/service/overdue"
	reservationsvc "github.com/sunilverma11/town-book/service/reservation"
	roomsvc "github.com/sunilverma11/town-book/service/room"
	roomreqsvc "github.com/sunilverma11/town-book/service/roomrequest"
	"github.com/sunilverma11/town-book/util/database"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	// Catalog cache is optional; without REDIS_ADDR every read goes to Postgres.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, running without catalog cache", "err", err)
			rdb = nil
		}
	}
	cache := catalogcache.New(rdb, 5*time.Minute)

	users := userrepo.New(db)
	books := bookrepo.New(db)
	rooms := roomrepo.New(db)
	bookRequests := bookreqrepo.New(db)
	roomRequests := roomreqrepo.New(db)
	reservations := reservationrepo.New(db)

	authS := authsvc.New(users, cfg.JWTSecret, cfg.JWTTTLHours)
	bookS := booksvc.New(db, books, cache)
	roomS := roomsvc.New(db, rooms)
	bookReqS := bookreqsvc.New(db, books, bookRequests, cache)
	roomReqS := roomreqsvc.New(db, rooms, roomRequests)
	reservationS := reservationsvc.New(db, books, rooms, reservations, cache)

	sweeper := overduesvc.New(bookRequests, log)
	sweeper.Run(ctx)
	sweeper.Start()
	defer sweeper.Stop()

	v := validator.New()

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()
	echoServer.RegisterMiddlewares(e)

	echoServer.RegisterRoutes(e, cfg.JWTSecret, echoServer.Controllers{
		Auth:         &authctl.Controller{Svc: authS, V: v, Log: log},
		Books:        &bookctl.Controller{Svc: bookS, V: v, Log: log},
		Rooms:        &roomctl.Controller{Svc: roomS, V: v, Log: log},
		BookRequests: &bookreqctl.Controller{Svc: bookReqS, V: v, Log: log},
		RoomRequests: &roomreqctl.Controller{Svc: roomReqS, V: v, Log: log},
		Reservations: &reservationctl.Controller{Svc: reservationS, V: v, Log: log},
	})

	log.Info("starting server", "port", cfg.Port, "env", cfg.Env)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
