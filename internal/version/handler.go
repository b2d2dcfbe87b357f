package version

import (
	"net/http"
	"strconv"

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

type CommitRequest struct {
	// content may legitimately be empty, a blank page is a version too
	Content string `json:"content"`
	Message string `json:"message" binding:"max=500"`
}

func (h *Handler) Commit(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	version, err := h.service.Commit(c.Request.Context(), scriptID, c.GetUint64("user_id"), CommitInput{
		Content: req.Content,
		Message: req.Message,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, version)
}

func (h *Handler) List(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.List(c.Request.Context(), scriptID, c.GetUint64("user_id"), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Latest(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	version, err := h.service.Latest(c.Request.Context(), scriptID, c.GetUint64("user_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, version)
}

func (h *Handler) Show(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	number, err := utils.ParamID(c, "number")
	if err != nil {
		c.Error(err)
		return
	}

	version, err := h.service.Get(c.Request.Context(), scriptID, c.GetUint64("user_id"), number)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, version)
}

// Diff expects ?from=N&to=M
func (h *Handler) Diff(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	from, err1 := strconv.ParseUint(c.Query("from"), 10, 64)
	to, err2 := strconv.ParseUint(c.Query("to"), 10, 64)
	if err1 != nil || err2 != nil || from == 0 || to == 0 {
		c.Error(errors.BadRequest("from and to must be version numbers", nil))
		return
	}

	result, err := h.service.Diff(c.Request.Context(), scriptID, c.GetUint64("user_id"), from, to)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}
