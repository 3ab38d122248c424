package delivery

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	conndomain "flowstate-backend/internal/connection/domain"
	"flowstate-backend/internal/connection/usecase"
	syncusecase "flowstate-backend/internal/sync/usecase"
)

type ConnectionHandler struct {
	connUsecase usecase.ConnectionUsecase
	syncUsecase syncusecase.SyncUsecase
}

func NewConnectionHandler(connUsecase usecase.ConnectionUsecase, syncUsecase syncusecase.SyncUsecase) *ConnectionHandler {
	return &ConnectionHandler{
		connUsecase: connUsecase,
		syncUsecase: syncUsecase,
	}
}

func parsePlatform(raw string) (conndomain.Platform, bool) {
	switch conndomain.Platform(raw) {
	case conndomain.PlatformMail, conndomain.PlatformChat, conndomain.PlatformCalendar:
		return conndomain.Platform(raw), true
	default:
		return "", false
	}
}

func (h *ConnectionHandler) List(c *gin.Context) {
	userID := c.GetString("userID")

	conns, err := h.connUsecase.List(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"connections": conns})
}

func (h *ConnectionHandler) Authorize(c *gin.Context) {
	userID := c.GetString("userID")
	platform, ok := parsePlatform(c.Param("platform"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform"})
		return
	}

	resp, err := h.connUsecase.AuthorizeURL(userID, platform)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Callback is hit by the OAuth provider redirect; the state carries the
// user and platform so no auth header is required here.
func (h *ConnectionHandler) Callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing state or code"})
		return
	}

	conn, err := h.connUsecase.HandleCallback(c.Request.Context(), state, code)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidState) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"platform": conn.Platform, "status": conn.Status})
}

func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	userID := c.GetString("userID")
	platform, ok := parsePlatform(c.Param("platform"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform"})
		return
	}

	if err := h.connUsecase.Disconnect(userID, platform); err != nil {
		if errors.Is(err, usecase.ErrNotConnected) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "disconnected"})
}

// Sync triggers a manual sync pass outside the scheduled cadence.
func (h *ConnectionHandler) Sync(c *gin.Context) {
	userID := c.GetString("userID")
	platform, ok := parsePlatform(c.Param("platform"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform"})
		return
	}

	result, err := h.syncUsecase.SyncUserPlatform(c.Request.Context(), userID, platform)
	if err != nil {
		switch {
		case errors.Is(err, syncusecase.ErrSyncInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, usecase.ErrNotConnected):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
