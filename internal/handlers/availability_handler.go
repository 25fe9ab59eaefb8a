package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

type AvailabilityHandler struct {
	list         *ucAppointment.ListAvailability
	changes      *ucAppointment.ChangesSince
	getConfig    *ucAppointment.GetAvailabilityConfig
	updateConfig *ucAppointment.UpdateAvailabilityConfig
	pollInterval time.Duration
}

func NewAvailabilityHandler(svc *ucAppointment.Service, pollInterval time.Duration) *AvailabilityHandler {
	return &AvailabilityHandler{
		list:         svc.ListAvailability,
		changes:      svc.ChangesSince,
		getConfig:    svc.GetConfig,
		updateConfig: svc.UpdateConfig,
		pollInterval: pollInterval,
	}
}

// ======================================================
// SLOTS
// ======================================================

func (h *AvailabilityHandler) Slots(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		httperr.BadRequest(c, httperr.CodeValidation, "date is required.")
		return
	}

	slots, err := h.list.Execute(c.Request.Context(), c.Param("provider_id"), dateStr)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, slots)
}

// ======================================================
// CHANGES
// ======================================================

type ChangesResponse struct {
	Cursor              int64 `json:"cursor"`
	Changed             bool  `json:"changed"`
	PollIntervalSeconds int   `json:"poll_interval_seconds"`
}

// Changes answers the polling client. A missing cursor is 0, so the first
// poll always reports a change when anything was ever written.
func (h *AvailabilityHandler) Changes(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		httperr.BadRequest(c, httperr.CodeValidation, "date is required.")
		return
	}

	cursor, err := strconv.ParseInt(c.DefaultQuery("cursor", "0"), 10, 64)
	if err != nil || cursor < 0 {
		httperr.BadRequest(c, httperr.CodeValidation, "cursor must be a non-negative integer.")
		return
	}

	sig, err := h.changes.Execute(c.Request.Context(), c.Param("provider_id"), dateStr, cursor)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChangesResponse{
		Cursor:              sig.Cursor,
		Changed:             sig.Changed,
		PollIntervalSeconds: int(h.pollInterval / time.Second),
	})
}

// ======================================================
// CONFIG
// ======================================================

type UpdateConfigRequest struct {
	WorkStart      string `json:"work_start" binding:"required"`
	WorkEnd        string `json:"work_end" binding:"required"`
	SlotDuration   int    `json:"slot_duration"`
	BufferDuration int    `json:"buffer_duration"`
	Mode           string `json:"mode" binding:"required"`
}

func (h *AvailabilityHandler) GetConfig(c *gin.Context) {
	cfg, err := h.getConfig.Execute(c.Request.Context(), c.Param("provider_id"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, cfg.ToModel())
}

func (h *AvailabilityHandler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "work_start, work_end and mode are required.")
		return
	}

	cfg, err := h.updateConfig.Execute(c.Request.Context(), middleware.ActorFrom(c), ucAppointment.ConfigInput{
		ProviderID:     c.Param("provider_id"),
		WorkStart:      req.WorkStart,
		WorkEnd:        req.WorkEnd,
		SlotDuration:   req.SlotDuration,
		BufferDuration: req.BufferDuration,
		Mode:           req.Mode,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, cfg.ToModel())
}
