package api

import (
	authUsecase "flowstate-backend/internal/auth/usecase"
	connDelivery "flowstate-backend/internal/connection/delivery"
	connUsecasePkg "flowstate-backend/internal/connection/usecase"
	inboxDelivery "flowstate-backend/internal/inbox/delivery"
	syncUsecasePkg "flowstate-backend/internal/sync/usecase"
	taskDelivery "flowstate-backend/internal/task/delivery"
	taskUsecasePkg "flowstate-backend/internal/task/usecase"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase       authUsecase.AuthUsecase
	connectionHandler *connDelivery.ConnectionHandler
	inboxHandler      *inboxDelivery.InboxHandler
	taskHandler       *taskDelivery.TaskHandler
}

func NewHandler(
	authUc authUsecase.AuthUsecase,
	connUc connUsecasePkg.ConnectionUsecase,
	syncUc syncUsecasePkg.SyncUsecase,
	taskUc taskUsecasePkg.TaskUsecase,
	inboxHandler *inboxDelivery.InboxHandler,
) *Handler {
	return &Handler{
		authUsecase:       authUc,
		connectionHandler: connDelivery.NewConnectionHandler(connUc, syncUc),
		inboxHandler:      inboxHandler,
		taskHandler:       taskDelivery.NewTaskHandler(taskUc),
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.connectionHandler, h.inboxHandler, h.taskHandler)

	return r.Run(addr)
}
