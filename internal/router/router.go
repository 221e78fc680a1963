// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/quantora/signals-backend/internal/handler"
	"github.com/quantora/signals-backend/internal/middleware"
)

// Handlers carries every handler the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Signals       *handler.SignalHandler
	Analysis      *handler.AnalysisHandler
	Content       *handler.ContentHandler
	Verifications *handler.VerificationHandler
	AdminUsers    *handler.AdminUserHandler
	AdminPartners *handler.AdminPartnerHandler
	AdminSubs     *handler.AdminSubscriptionHandler
	Chat          *handler.ChatHandler
}

// Options carries the cross-cutting middleware built in main.
type Options struct {
	JWTSecret string
	RateLimit echo.MiddlewareFunc // token bucket on the auth surface
	Cache     echo.MiddlewareFunc // response cache on public content
	UploadDir string
}

// Register mounts the full route table.
func Register(e *echo.Echo, h Handlers, opt Options) {
	e.GET("/healthz", handler.Health)

	// Uploaded screenshots and chart images are served statically.
	e.Static("/uploads", opt.UploadDir)

	// Public auth surface. The token bucket throttles credential and
	// OTP guessing per client; the OTP engine adds its own per-record
	// cooldowns on top.
	auth := e.Group("/api/auth")
	if opt.RateLimit != nil {
		auth.Use(opt.RateLimit)
	}
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/verify-otp", h.Auth.VerifyOtp)
	auth.POST("/resend-otp", h.Auth.ResendOtp)
	auth.POST("/forgot-password", h.Auth.ForgotPassword)
	auth.POST("/verify-forgot-otp", h.Auth.VerifyForgotOtp)
	auth.POST("/reset-password", h.Auth.ResetPassword)

	// Public, read-heavy content goes through the response cache.
	pub := e.Group("/api")
	if opt.Cache != nil {
		pub.Use(opt.Cache)
	}
	pub.GET("/results", h.Content.ListResults)
	pub.GET("/announcements", h.Content.ListAnnouncements)
	pub.GET("/analysis/top/:category", h.Analysis.Top)

	// Authenticated surface.
	api := e.Group("/api", middleware.JWTAuth(opt.JWTSecret))
	api.GET("/signals", h.Signals.List)
	api.POST("/subscriptions/verify", h.Verifications.Submit)

	// Admin surface.
	admin := e.Group("/api/admin", middleware.JWTAuth(opt.JWTSecret), middleware.RequireRole("admin"))
	admin.GET("/users/recent", h.AdminUsers.Recent)
	admin.GET("/users", h.AdminUsers.List)
	admin.POST("/users", h.AdminUsers.Create)

	admin.POST("/partners", h.AdminPartners.Create)
	admin.GET("/partners", h.AdminPartners.List)
	admin.GET("/partners/:id", h.AdminPartners.Get)
	admin.PUT("/partners/:id", h.AdminPartners.Update)
	admin.DELETE("/partners/:id", h.AdminPartners.Delete)

	admin.GET("/subscriptions", h.AdminSubs.List)
	admin.PUT("/subscriptions/:id", h.AdminSubs.Update)

	admin.GET("/verifications", h.Verifications.Pending)
	admin.POST("/verifications/:id/review", h.Verifications.Review)

	admin.POST("/announcements", h.Content.CreateAnnouncement)
	admin.POST("/results", h.Content.CreateResult)

	admin.POST("/signals", h.Signals.Create)
	admin.POST("/analysis", h.Analysis.Create)
	admin.GET("/analysis/:category", h.Analysis.ByCategory)

	// The WebSocket endpoint authenticates inside the handler: browser
	// clients pass the token as a query parameter.
	e.GET("/ws/chat", h.Chat.Serve)
}
