package sharelink

import (
	"net/http"
	"time"

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
	Permission string     `json:"permission" binding:"required,oneof=view comment edit"`
	ExpiresAt  *time.Time `json:"expires_at"`
	Password   string     `json:"password" binding:"omitempty,min=4,max=72"`
}

type ResolveRequest struct {
	Password string `json:"password"`
}

func (h *Handler) Create(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	link, err := h.service.Create(c.Request.Context(), scriptID, c.GetUint64("user_id"), CreateInput{
		Permission: domain.SharePermission(req.Permission),
		ExpiresAt:  req.ExpiresAt,
		Password:   req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, link)
}

func (h *Handler) List(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	links, err := h.service.List(c.Request.Context(), scriptID, c.GetUint64("user_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": links})
}

func (h *Handler) Revoke(c *gin.Context) {
	linkID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.Revoke(c.Request.Context(), linkID, c.GetUint64("user_id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Resolve is public, the token itself is the credential
func (h *Handler) Resolve(c *gin.Context) {
	var req ResolveRequest
	// an empty body means no password
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errors.NewValidationError(err))
			return
		}
	}

	grant, err := h.service.Resolve(c.Request.Context(), c.Param("token"), req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, grant)
}
