package main

import (
	"github.com/gin-gonic/gin"

	"github.com/studygrouphub/backend/internal/config"
	"github.com/studygrouphub/backend/internal/middleware"
	"github.com/studygrouphub/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	r.Use(middleware.RequestID(), logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS())
	r.Use(middleware.BodyLimit(cfg.Upload.MaxRequestMB << 20))

	// login and upload are the only endpoints worth throttling per IP
	limited := middleware.RateLimit(cfg.RateLimit)

	r.GET("/health", svc.healthHandler.CheckHealth)

	api := r.Group("/api")
	{
		user := api.Group("/user")
		{
			user.GET("/login", svc.userHandler.LoginHint)
			user.POST("/login", limited, svc.userHandler.Login)
			user.GET("/:id", svc.userHandler.GetByID)
			user.GET("/:id/stats", svc.userHandler.GetStats)
		}

		group := api.Group("/group")
		{
			group.POST("/create", svc.groupHandler.Create)
			group.GET("/user/:id", svc.groupHandler.ListForUser)
			group.GET("/:id", svc.groupHandler.GetDetail)
			group.GET("/:id/members", svc.groupHandler.Members)
			group.POST("/:id/invite", svc.groupHandler.Invite)
			group.POST("/:id/remove", svc.groupHandler.Remove)
		}

		task := api.Group("/task")
		{
			task.POST("/create", svc.taskHandler.Create)
			task.GET("/group/:id", svc.taskHandler.ListByGroup)
			task.GET("/group/:id/progress", svc.taskHandler.Progress)
			task.PUT("/:id/status", svc.taskHandler.UpdateStatus)
		}

		file := api.Group("/file")
		{
			file.POST("/upload", limited, svc.fileHandler.Upload)
			file.GET("/group/:id", svc.fileHandler.ListByGroup)
			file.GET("/download/:id", svc.fileHandler.Download)
			file.GET("/preview/:id", svc.fileHandler.Preview)
			file.DELETE("/:id", svc.fileHandler.Delete)
		}
	}
}
