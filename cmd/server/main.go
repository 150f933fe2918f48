package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/campuskeep/dormitory/internal/allocation"
	"github.com/campuskeep/dormitory/internal/config"
	"github.com/campuskeep/dormitory/internal/database"
	"github.com/campuskeep/dormitory/internal/handler"
	"github.com/campuskeep/dormitory/internal/queue"
	"github.com/campuskeep/dormitory/internal/repository"
	"github.com/campuskeep/dormitory/internal/router"
	queue_publisher "github.com/campuskeep/dormitory/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	buildings := repository.NewBuildingRepo(db)
	beds := repository.NewBedRepo(db)
	rooms := repository.NewRoomRepo(db, beds)
	students := repository.NewStudentRepo(db)
	apps := repository.NewApplicationRepo(db)
	stays := repository.NewStayRecordRepo(db)
	audit := repository.NewAuditLogRepo(db)

	svc := allocation.NewService(db, beds, students, apps, stays)
	svc.Publish = queue_publisher.PublishAllocationEvent

	// The audit consumer runs for the life of the process and handles
	// broker reconnects itself.
	go func() {
		if err := queue.StartAuditConsumer(db); err != nil {
			log.Printf("audit-consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, users, students, tokens),
		Public:      handler.NewPublicHandler(buildings, rooms, beds),
		Application: handler.NewApplicationHandler(svc, apps),
		Allocation:  handler.NewAllocationHandler(svc, stays),
		Admin:       handler.NewAdminHandler(buildings, rooms, students, audit),
	}, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
