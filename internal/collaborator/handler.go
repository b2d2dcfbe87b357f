package collaborator

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

type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=editor viewer commenter"`
}

type BulkInviteRequest struct {
	Emails string `json:"emails" binding:"required"`
	Role   string `json:"role" binding:"required,oneof=editor viewer commenter"`
}

type RespondRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

type RoleRequest struct {
	Role string `json:"role" binding:"required,oneof=editor viewer commenter"`
}

type PresenceRequest struct {
	Online *bool          `json:"online" binding:"required"`
	Cursor *domain.Cursor `json:"cursor"`
}

func (h *Handler) Invite(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	collab, err := h.service.Invite(c.Request.Context(), scriptID, c.GetUint64("user_id"), req.Email, domain.CollaboratorRole(req.Role))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, collab)
}

func (h *Handler) BulkInvite(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req BulkInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	result, err := h.service.BulkInvite(c.Request.Context(), scriptID, c.GetUint64("user_id"), req.Emails, domain.CollaboratorRole(req.Role))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Respond(c *gin.Context) {
	collabID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	collab, err := h.service.Respond(c.Request.Context(), collabID, c.GetUint64("user_id"), *req.Accept)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, collab)
}

func (h *Handler) Invitations(c *gin.Context) {
	invitations, err := h.service.Invitations(c.Request.Context(), c.GetUint64("user_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invitations})
}

func (h *Handler) ChangeRole(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	userID, err := utils.ParamID(c, "userId")
	if err != nil {
		c.Error(err)
		return
	}

	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	collab, err := h.service.ChangeRole(c.Request.Context(), scriptID, c.GetUint64("user_id"), userID, domain.CollaboratorRole(req.Role))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, collab)
}

func (h *Handler) Remove(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	userID, err := utils.ParamID(c, "userId")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.Remove(c.Request.Context(), scriptID, c.GetUint64("user_id"), userID); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Leave(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.Leave(c.Request.Context(), scriptID, c.GetUint64("user_id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) List(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	members, err := h.service.List(c.Request.Context(), scriptID, c.GetUint64("user_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": members})
}

func (h *Handler) UpdatePresence(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req PresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	entry, err := h.service.UpdatePresence(c.Request.Context(), scriptID, c.GetUint64("user_id"), PresenceInput{
		Online: *req.Online,
		Cursor: req.Cursor,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *Handler) ListPresence(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	entries, err := h.service.ListPresence(c.Request.Context(), scriptID, c.GetUint64("user_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}
