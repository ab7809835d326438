package router // route registration for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/qnowapp/qnow-backend/internal/handler"
	"github.com/qnowapp/qnow-backend/internal/middleware"
	"github.com/qnowapp/qnow-backend/internal/model"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Queues       *handler.QueueHandler
	QueueClients *handler.QueueClientHandler
	Notify       *handler.NotificationHandler
	Webhooks     *handler.WebhookHandler
}

// Register mounts all routes on the Echo instance.  jwtSecret signs and
// verifies access tokens; limiter guards the join and notification
// endpoints and may be nil.
func Register(e *echo.Echo, h Handlers, jwtSecret string, limiter echo.MiddlewareFunc) {
	if limiter == nil {
		limiter = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	e.GET("/health", handler.Health)
	e.GET("/", handler.APIIndex)

	// Auth. Register/login/refresh/reset need no session; profile,
	// logout-everywhere and device registration need a JWT.
	auth := e.Group("/api/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout, middleware.OptionalJWT(jwtSecret))
	auth.POST("/forgot-password", h.Auth.ForgotPassword)
	auth.POST("/reset-password", h.Auth.ResetPassword)
	auth.GET("/profile", h.Auth.Profile, middleware.JWTAuth(jwtSecret))
	auth.PUT("/profile", h.Auth.UpdateProfile, middleware.JWTAuth(jwtSecret))
	auth.DELETE("/profile", h.Auth.DeleteAccount, middleware.JWTAuth(jwtSecret))
	auth.PUT("/fcm-token", h.Auth.UpdateFCMToken, middleware.JWTAuth(jwtSecret))

	// Public queue browsing and joining. The join route parses a JWT
	// when one is sent so account holders get linked memberships.
	e.GET("/api/queues/:id", h.Queues.Get)
	e.POST("/api/queues/:id/join", h.Queues.Join, limiter, middleware.OptionalJWT(jwtSecret))

	// Queue management, business accounts only.
	owner := e.Group("/api/queues")
	owner.Use(middleware.JWTAuth(jwtSecret))
	owner.Use(middleware.RequireRole(model.RoleBusiness))
	owner.POST("", h.Queues.Create)
	owner.GET("", h.Queues.List)
	owner.PUT("/:id", h.Queues.Update)
	owner.DELETE("/:id", h.Queues.Delete)
	owner.GET("/:id/clients", h.Queues.ListClients)

	// Membership management, business accounts only.
	clients := e.Group("/api/queue-clients")
	clients.Use(middleware.JWTAuth(jwtSecret))
	clients.Use(middleware.RequireRole(model.RoleBusiness))
	clients.POST("", h.QueueClients.Create)
	clients.GET("/:id", h.QueueClients.Get)
	clients.PUT("/:id", h.QueueClients.Update)
	clients.DELETE("/:id", h.QueueClients.Remove)

	// Dispatch endpoints, business accounts only, rate limited.
	notify := e.Group("/api/notifications")
	notify.Use(limiter)
	notify.Use(middleware.JWTAuth(jwtSecret))
	notify.Use(middleware.RequireRole(model.RoleBusiness))
	notify.POST("/next/:clientId", h.Notify.NotifyNext)
	notify.POST("/turn/:clientId", h.Notify.NotifyTurn)
	notify.POST("/queue-status/:queueId", h.Notify.QueueStatusChanged)

	// Database webhook relay, guarded by the shared secret inside the
	// handler rather than by JWT middleware.
	hooks := e.Group("/api/webhooks")
	hooks.GET("/ping", h.Webhooks.Ping)
	hooks.POST("/notification-created", h.Webhooks.NotificationCreated)
}
