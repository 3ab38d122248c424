package api

import (
	"net/http"

	"flowstate-backend/internal/auth/delivery"
	authUsecase "flowstate-backend/internal/auth/usecase"
	connDelivery "flowstate-backend/internal/connection/delivery"
	inboxDelivery "flowstate-backend/internal/inbox/delivery"
	taskDelivery "flowstate-backend/internal/task/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, connectionHandler *connDelivery.ConnectionHandler, inboxHandler *inboxDelivery.InboxHandler, taskHandler *taskDelivery.TaskHandler) {
	authHandler := delivery.NewAuthHandler(authUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", delivery.AuthMiddleware(authUsecase), authHandler.Me)
		}

		// Connection routes. The OAuth callback is hit by the provider
		// redirect, so it stays outside the auth middleware.
		api.GET("/connections/callback", connectionHandler.Callback)

		connections := api.Group("/connections")
		connections.Use(delivery.AuthMiddleware(authUsecase))
		{
			connections.GET("", connectionHandler.List)
			connections.GET("/:platform/authorize", connectionHandler.Authorize)
			connections.DELETE("/:platform", connectionHandler.Disconnect)
			connections.POST("/:platform/sync", connectionHandler.Sync)
		}

		// Inbox routes (protected)
		items := api.Group("/items")
		items.Use(delivery.AuthMiddleware(authUsecase))
		{
			items.GET("", inboxHandler.ListItems)
			items.GET("/:id", inboxHandler.GetItem)
			items.PATCH("/:id", inboxHandler.UpdateItem)
		}

		// Deadline routes (protected)
		deadlines := api.Group("/deadlines")
		deadlines.Use(delivery.AuthMiddleware(authUsecase))
		{
			deadlines.GET("", inboxHandler.ListDeadlines)
			deadlines.POST("", inboxHandler.CreateDeadline)
			deadlines.POST("/:id/complete", inboxHandler.CompleteDeadline)
			deadlines.POST("/:id/cancel", inboxHandler.CancelDeadline)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(delivery.AuthMiddleware(authUsecase))
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/stats", taskHandler.TaskStats)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.POST("", taskHandler.CreateTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.POST("/:id/complete", taskHandler.CompleteTask)
		}

		// Briefing routes (protected)
		briefings := api.Group("/briefings")
		briefings.Use(delivery.AuthMiddleware(authUsecase))
		{
			briefings.GET("/latest", inboxHandler.LatestBriefing)
			briefings.GET("", inboxHandler.ListBriefings)
			briefings.POST("/generate", inboxHandler.GenerateBriefing)
		}
	}
}
