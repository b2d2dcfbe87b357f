package notify

import (
	"net/http"
	"strconv"

	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	inbox Inbox
}

func NewHandler(inbox Inbox) *Handler {
	return &Handler{inbox: inbox}
}

type NotificationsMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

// List takes ?unread=true to show only unread notifications
func (h *Handler) List(c *gin.Context) {
	page, pageSize := utils.GetPaginationParams(c)
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))

	notifications, total, err := h.inbox.List(c.Request.Context(), c.GetUint64("user_id"), unreadOnly, page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, struct {
		Data []domain.Notification `json:"data"`
		Meta NotificationsMeta     `json:"meta"`
	}{
		Data: notifications,
		Meta: NotificationsMeta{
			Total:       total,
			CurrentPage: page,
			PerPage:     pageSize,
			TotalPage:   int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.inbox.MarkRead(c.Request.Context(), id, c.GetUint64("user_id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	n, err := h.inbox.MarkAllRead(c.Request.Context(), c.GetUint64("user_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": n})
}
