package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	briefingusecase "flowstate-backend/internal/briefing/usecase"
	"flowstate-backend/internal/inbox/dto"
	"flowstate-backend/internal/inbox/usecase"
)

type InboxHandler struct {
	inboxUsecase    usecase.InboxUsecase
	briefingUsecase briefingusecase.BriefingUsecase
}

func NewInboxHandler(inboxUsecase usecase.InboxUsecase, briefingUsecase briefingusecase.BriefingUsecase) *InboxHandler {
	return &InboxHandler{
		inboxUsecase:    inboxUsecase,
		briefingUsecase: briefingUsecase,
	}
}

func (h *InboxHandler) ListItems(c *gin.Context) {
	userID := c.GetString("userID")

	var query dto.ListItemsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.inboxUsecase.ListItems(userID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *InboxHandler) GetItem(c *gin.Context) {
	userID := c.GetString("userID")

	item, err := h.inboxUsecase.GetItem(userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *InboxHandler) UpdateItem(c *gin.Context) {
	userID := c.GetString("userID")

	var req dto.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.inboxUsecase.UpdateItem(userID, c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *InboxHandler) ListDeadlines(c *gin.Context) {
	userID := c.GetString("userID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	deadlines, err := h.inboxUsecase.ListDeadlines(userID, c.Query("status"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deadlines": deadlines})
}

func (h *InboxHandler) CreateDeadline(c *gin.Context) {
	userID := c.GetString("userID")

	var req dto.CreateDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deadline, err := h.inboxUsecase.CreateDeadline(userID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, deadline)
}

func (h *InboxHandler) CompleteDeadline(c *gin.Context) {
	h.setDeadlineStatus(c, h.inboxUsecase.CompleteDeadline)
}

func (h *InboxHandler) CancelDeadline(c *gin.Context) {
	h.setDeadlineStatus(c, h.inboxUsecase.CancelDeadline)
}

func (h *InboxHandler) setDeadlineStatus(c *gin.Context, update func(userID, id string) error) {
	userID := c.GetString("userID")

	if err := update(userID, c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "deadline not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (h *InboxHandler) LatestBriefing(c *gin.Context) {
	userID := c.GetString("userID")

	briefing, err := h.briefingUsecase.Latest(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no briefings yet"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, briefing)
}

func (h *InboxHandler) ListBriefings(c *gin.Context) {
	userID := c.GetString("userID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	briefings, err := h.briefingUsecase.List(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"briefings": briefings})
}

func (h *InboxHandler) GenerateBriefing(c *gin.Context) {
	userID := c.GetString("userID")

	briefing, err := h.briefingUsecase.GenerateOnDemand(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, briefing)
}
