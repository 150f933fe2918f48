// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/campuskeep/dormitory/internal/config"
	"github.com/campuskeep/dormitory/internal/handler"
	"github.com/campuskeep/dormitory/internal/middleware"
)

// Handlers groups every handler the router needs.
type Handlers struct {
	Auth        *handler.AuthHandler
	Public      *handler.PublicHandler
	Application *handler.ApplicationHandler
	Allocation  *handler.AllocationHandler
	Admin       *handler.AdminHandler
}

// Register mounts all routes. Public availability listings sit behind
// the Redis response cache; everything under /v1 (except auth) requires
// a valid access token, with role checks per group.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	e.Use(rl)

	// Unauthenticated auth operations.
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/refresh-access", h.Auth.RefreshAccess)
	// Logout works with either a bearer token or a refresh token in the
	// body, so it stays outside the JWT middleware.
	auth.POST("/logout", h.Auth.Logout)

	// Public availability browsing, cached.
	pub := e.Group("/v1", middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	pub.GET("/buildings", h.Public.ListBuildings)
	pub.GET("/buildings/:id/rooms", h.Public.ListRooms)
	pub.GET("/rooms/:id/beds", h.Public.ListBeds)

	jwtAuth := middleware.JWTAuth(cfg.JWTSecret)

	me := e.Group("/v1", jwtAuth)
	me.GET("/me", h.Auth.Me)

	// Student workflow.
	student := e.Group("/v1", jwtAuth, middleware.RequireRole("STUDENT"))
	student.POST("/applications", h.Application.Submit)
	student.GET("/applications/mine", h.Application.Mine)
	student.DELETE("/applications/:id", h.Application.Withdraw)
	student.GET("/stays/mine", h.Allocation.MyStays)

	// Manager operations.
	manager := e.Group("/v1/manage", jwtAuth, middleware.RequireRole("MANAGER"))
	manager.GET("/applications", h.Application.List)
	manager.POST("/applications/:id/approve", h.Application.Approve)
	manager.POST("/applications/:id/reject", h.Application.Reject)
	manager.POST("/check-in", h.Allocation.CheckIn)
	manager.POST("/check-out", h.Allocation.CheckOut)
	manager.POST("/buildings", h.Admin.CreateBuilding)
	manager.DELETE("/buildings/:id", h.Admin.DeleteBuilding)
	manager.POST("/rooms", h.Admin.CreateRoom)
	manager.DELETE("/rooms/:id", h.Admin.DeleteRoom)
	manager.POST("/students", h.Admin.CreateStudent)
	manager.GET("/students", h.Admin.ListStudents)
	manager.GET("/students/:student_no", h.Admin.GetStudent)
	manager.GET("/students/:student_no/stays", h.Allocation.StayHistory)
	manager.GET("/audit-logs", h.Admin.ListAuditLogs)
}
