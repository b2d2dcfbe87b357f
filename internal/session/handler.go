package session

import (
	"net/http"

	"screenplay-collab/internal/errors"
	"screenplay-collab/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type HeartbeatRequest struct {
	ScriptID *uint64 `json:"script_id"`
}

// Open starts a session on the script in the path
func (h *Handler) Open(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	session, err := h.service.Open(c.Request.Context(), c.GetUint64("user_id"), OpenInput{
		ScriptID:  &scriptID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (h *Handler) ListActive(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	sessions, err := h.service.ActiveForScript(c.Request.Context(), scriptID, c.GetUint64("user_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sessions})
}

func (h *Handler) Show(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), c.Param("id"), c.GetUint64("user_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) Heartbeat(c *gin.Context) {
	var req HeartbeatRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errors.NewValidationError(err))
			return
		}
	}

	session, err := h.service.Heartbeat(c.Request.Context(), c.Param("id"), c.GetUint64("user_id"), req.ScriptID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) Close(c *gin.Context) {
	if err := h.service.Close(c.Request.Context(), c.Param("id"), c.GetUint64("user_id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
