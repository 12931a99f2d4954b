package router

import (
	"github.com/docflow/review-service/handler"
	"github.com/docflow/review-service/middleware"
	"github.com/gin-gonic/gin"
)

func Setup(
	auth *handler.AuthHandler,
	files *handler.FileHandler,
	reviews *handler.ReviewHandler,
	notifications *handler.NotificationHandler,
	users *handler.UserHandler,
	authenticator *middleware.Authenticator,
) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.Prometheus())

	api := r.Group("/api")
	{
		api.POST("/register", auth.Register)
		api.POST("/login", auth.Login)
	}

	authed := api.Group("")
	authed.Use(authenticator.JWTAuth())
	{
		authed.GET("/users", users.List)
		authed.GET("/users/:id", users.Get)

		authed.POST("/files", files.Upload)
		authed.GET("/files", files.List)
		authed.GET("/files/:id", files.Get)
		authed.PUT("/files/:id/content", files.Edit)
		authed.POST("/files/:id/replace", files.Replace)
		authed.POST("/files/:id/convert", files.Convert)
		authed.GET("/files/:id/download", files.Download)
		authed.GET("/files/:id/versions", files.History)
		authed.POST("/files/:id/comments", files.AddComment)
		authed.GET("/files/:id/comments", files.Comments)
		authed.DELETE("/files/:id", files.Delete)
		authed.POST("/files/:id/transition", reviews.Transition)

		authed.GET("/notifications", notifications.Inbox)
		authed.GET("/notifications/unread", notifications.UnreadCount)
		authed.POST("/notifications/read", notifications.MarkAllRead)
		authed.POST("/notifications/:id/read", notifications.MarkRead)
		authed.DELETE("/notifications/:id", notifications.Dismiss)
	}

	return r
}
