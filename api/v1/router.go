package v1

import (
	"github.com/gin-gonic/gin"

	auditapi "go_netinv/api/v1/audit"
	"go_netinv/api/v1/auth"
	"go_netinv/api/v1/devices"
	"go_netinv/api/v1/middleware"
	"go_netinv/internal/audit"
	perm "go_netinv/internal/auth"
	"go_netinv/internal/config"
	"go_netinv/internal/devicecmd"
	"go_netinv/internal/devicehealth"
	"go_netinv/internal/httpx"
	"go_netinv/internal/model"
	"go_netinv/internal/store"
	"go_netinv/internal/ws"
)

// Deps are the services the API is built on
type Deps struct {
	Config       *config.Config
	Store        *store.Store
	Reconciler   *devicehealth.Reconciler
	Orchestrator *devicecmd.Orchestrator
	Discoverer   devices.Discoverer
	Hub          *ws.Hub // nil disables realtime events
}

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, deps Deps) {
	r.Use(middleware.RequestID(), middleware.AccessLog())

	if deps.Hub != nil {
		r.GET("/socket.io/*any", gin.WrapH(deps.Hub.Handler()))
		r.POST("/socket.io/*any", gin.WrapH(deps.Hub.Handler()))
	}

	audited := func(action model.AuditAction) gin.HandlerFunc {
		return audit.Middleware(deps.Store, action)
	}
	can := middleware.RequirePermission

	v1 := r.Group("/api/v1")
	{
		// Public routes (no authentication required)
		v1.GET("/ping", pingHandler)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", audited(model.AuditActionLogin), auth.LoginHandler(deps.Store, deps.Config))
		}

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/me", meHandler)

			devicesHandler := devices.NewHandler(deps.Store, deps.Reconciler, deps.Orchestrator, deps.Discoverer)
			devicesGroup := protected.Group("/devices")
			{
				devicesGroup.GET("", can(perm.PermRead), devicesHandler.List)
				devicesGroup.GET("/statistics", can(perm.PermRead), devicesHandler.Statistics)
				devicesGroup.GET("/:id", can(perm.PermRead), devicesHandler.Get)
				devicesGroup.POST("/create", can(perm.PermWrite), audited(model.AuditActionCreate), devicesHandler.Create)
				devicesGroup.POST("/update", can(perm.PermWrite), audited(model.AuditActionUpdate), devicesHandler.Update)
				devicesGroup.POST("/delete", can(perm.PermDelete), audited(model.AuditActionDelete), devicesHandler.Delete)

				// Reachability
				devicesGroup.POST("/ping", can(perm.PermRead), devicesHandler.Ping)
				devicesGroup.POST("/update-status", can(perm.PermRead), devicesHandler.UpdateStatus)
				devicesGroup.GET("/:id/status", can(perm.PermRead), devicesHandler.Status)

				// Remote management
				devicesGroup.POST("/bulk-command", can(perm.PermExecute), audited(model.AuditActionExecute), devicesHandler.BulkCommand)
				devicesGroup.GET("/:id/commands", can(perm.PermExecute), devicesHandler.ListCommands)
				devicesGroup.POST("/:id/commands", can(perm.PermExecute), audited(model.AuditActionExecute), devicesHandler.ExecuteCommand)
				devicesGroup.GET("/:id/configurations", can(perm.PermExecute), devicesHandler.ListConfigurations)
				devicesGroup.POST("/:id/configurations", can(perm.PermExecute), audited(model.AuditActionCreate), devicesHandler.ApplyConfiguration)
				devicesGroup.POST("/:id/discover", can(perm.PermExecute), audited(model.AuditActionUpdate), devicesHandler.Discover)
			}

			auditHandler := auditapi.NewHandler(deps.Store)
			protected.GET("/audit/logs", can(perm.PermRead), auditHandler.List)
		}
	}
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}

// meHandler returns current user information
func meHandler(c *gin.Context) {
	httpx.OK(c, middleware.CurrentActor(c))
}
