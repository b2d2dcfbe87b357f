package script

import (
	"net/http"

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

type CreateRequest struct {
	Title       string                 `json:"title" binding:"required,min=1,max=255"`
	Description string                 `json:"description" binding:"max=5000"`
	Category    string                 `json:"category" binding:"max=50"`
	Genre       string                 `json:"genre" binding:"max=50"`
	Privacy     string                 `json:"privacy" binding:"omitempty,oneof=private shared public"`
	Tags        []string               `json:"tags" binding:"max=20,dive,max=30"`
	Settings    *domain.ScriptSettings `json:"settings"`
}

type UpdateRequest struct {
	Title       *string                `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string                `json:"description" binding:"omitempty,max=5000"`
	Category    *string                `json:"category" binding:"omitempty,max=50"`
	Genre       *string                `json:"genre" binding:"omitempty,max=50"`
	Privacy     *string                `json:"privacy" binding:"omitempty,oneof=private shared public"`
	Tags        []string               `json:"tags" binding:"omitempty,max=20,dive,max=30"`
	Settings    *domain.ScriptSettings `json:"settings"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft in-progress review completed archived"`
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	script, err := h.service.Create(c.Request.Context(), c.GetUint64("user_id"), CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Genre:       req.Genre,
		Privacy:     domain.ScriptPrivacy(req.Privacy),
		Tags:        req.Tags,
		Settings:    req.Settings,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, script)
}

func (h *Handler) Show(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	script, err := h.service.Get(c.Request.Context(), scriptID, c.GetUint64("user_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, script)
}

func (h *Handler) ListOwned(c *gin.Context) {
	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.ListOwned(c.Request.Context(), c.GetUint64("user_id"), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ListShared(c *gin.Context) {
	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.ListShared(c.Request.Context(), c.GetUint64("user_id"), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Update(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	input := UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Genre:       req.Genre,
		Tags:        req.Tags,
		Settings:    req.Settings,
	}
	if req.Privacy != nil {
		privacy := domain.ScriptPrivacy(*req.Privacy)
		input.Privacy = &privacy
	}

	script, err := h.service.Update(c.Request.Context(), scriptID, c.GetUint64("user_id"), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, script)
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	script, err := h.service.ChangeStatus(c.Request.Context(), scriptID, c.GetUint64("user_id"), domain.ScriptStatus(req.Status))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, script)
}

func (h *Handler) Reopen(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	script, err := h.service.Reopen(c.Request.Context(), scriptID, c.GetUint64("user_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, script)
}

func (h *Handler) Delete(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), scriptID, c.GetUint64("user_id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
