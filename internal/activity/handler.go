package activity

import (
	"net/http"
	"strconv"

	"screenplay-collab/internal/access"
	"screenplay-collab/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	recorder *Recorder
	access   *access.Resolver
}

func NewHandler(recorder *Recorder, resolver *access.Resolver) *Handler {
	return &Handler{recorder: recorder, access: resolver}
}

// List returns the script's latest activity, ?limit caps it at 200
func (h *Handler) List(c *gin.Context) {
	scriptID, err := utils.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	ctx := c.Request.Context()
	if _, _, err := h.access.Require(ctx, scriptID, c.GetUint64("user_id"), access.Any, "No access to this script"); err != nil {
		c.Error(err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.recorder.List(ctx, scriptID, limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}
