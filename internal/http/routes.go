package http

import (
	"time"

	"todoweb/internal/http/handlers"
	"todoweb/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the page routes behind session and CSRF middleware.
// Operational endpoints (health, metrics) are registered by the entrypoint
// outside the session layer.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, useRedis bool, authRateLimit int, authRateWindow time.Duration) {
	// Login/signup POSTs get a fixed-window limiter; Redis-backed when
	// available, in-process otherwise.
	authRL := middleware.SimpleRateLimit(authRateLimit, authRateWindow)
	if useRedis {
		authRL = middleware.RedisRateLimit(authRateLimit, authRateWindow)
	}

	web := r.Group("/", middleware.EnsureSession(h.Sessions), middleware.CSRF())

	web.GET("/", h.Home)

	web.GET("/signup", h.SignupPage)
	web.POST("/signup", authRL, h.Signup)
	web.GET("/login", h.LoginPage)
	web.POST("/login", authRL, h.Login)
	web.POST("/logout", middleware.RequireUser(), h.Logout)

	tasks := web.Group("/tasks", middleware.RequireUser())
	{
		tasks.GET("", h.TaskList)
		tasks.GET("/new", h.TaskCreatePage)
		tasks.POST("/new", h.TaskCreate)
		tasks.GET("/:id/edit", h.TaskUpdatePage)
		tasks.POST("/:id/edit", h.TaskUpdate)
		tasks.GET("/:id/delete", h.TaskDeletePage)
		tasks.POST("/:id/delete", h.TaskDelete)
		tasks.POST("/:id/toggle", h.TaskToggle)
	}

	r.NoRoute(func(c *gin.Context) {
		c.HTML(404, "error.html", gin.H{
			"Status":  404,
			"Message": "The page you requested was not found.",
		})
	})
}
