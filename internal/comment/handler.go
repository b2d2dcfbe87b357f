package comment

import (
	"net/http"
	"strconv"

	"screenplay-collab/internal/domain"
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

type AddRequest struct {
	Content   string  `json:"content" binding:"required,max=5000"`
	ParentID  *uint64 `json:"parent_id"`
	LineStart int     `json:"line_start" binding:"min=0"`
	LineEnd   int     `json:"line_end" binding:"min=0"`
	CharStart int     `json:"char_start" binding:"min=0"`
	CharEnd   int     `json:"char_end" binding:"min=0"`
}

type EditRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

func (h *Handler) Add(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	comment, err := h.service.Add(c.Request.Context(), scriptID, c.GetUint64("user_id"), AddInput{
		Content:  req.Content,
		ParentID: req.ParentID,
		Range: domain.CommentRange{
			LineStart: req.LineStart,
			LineEnd:   req.LineEnd,
			CharStart: req.CharStart,
			CharEnd:   req.CharEnd,
		},
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// List takes ?include_resolved=true to show resolved threads
func (h *Handler) List(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	includeResolved, _ := strconv.ParseBool(c.DefaultQuery("include_resolved", "false"))

	threads, err := h.service.List(c.Request.Context(), scriptID, c.GetUint64("user_id"), includeResolved)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": threads})
}

func (h *Handler) Edit(c *gin.Context) {
	commentID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	comment, err := h.service.Edit(c.Request.Context(), commentID, c.GetUint64("user_id"), req.Content)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

func (h *Handler) Resolve(c *gin.Context) {
	commentID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	comment, err := h.service.Resolve(c.Request.Context(), commentID, c.GetUint64("user_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

func (h *Handler) Reopen(c *gin.Context) {
	commentID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	comment, err := h.service.Reopen(c.Request.Context(), commentID, c.GetUint64("user_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

func (h *Handler) Delete(c *gin.Context) {
	commentID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), commentID, c.GetUint64("user_id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
