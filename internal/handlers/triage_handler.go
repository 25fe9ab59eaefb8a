package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/triage"
)

type TriageHandler struct {
	router *triage.Router
}

func NewTriageHandler(router *triage.Router) *TriageHandler {
	return &TriageHandler{router: router}
}

type TriageRequest struct {
	Text       string   `json:"text" binding:"required"`
	PriorTurns []string `json:"prior_turns"`
}

// Triage classifies one patient turn. The client keeps the conversation and
// sends the earlier turns back with each request.
func (h *TriageHandler) Triage(c *gin.Context) {
	var req TriageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "text is required.")
		return
	}

	res, err := h.router.Route(c.Request.Context(), middleware.ActorFrom(c).ID, req.Text, req.PriorTurns)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, res)
}
