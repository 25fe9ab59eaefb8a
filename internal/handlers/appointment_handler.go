package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	book           *ucAppointment.BookAppointment
	cancel         *ucAppointment.CancelAppointment
	confirm        *ucAppointment.ConfirmAppointment
	complete       *ucAppointment.CompleteAppointment
	get            *ucAppointment.GetAppointment
	listByDate     *ucAppointment.ListAppointmentsByDate
	listByMonth    *ucAppointment.ListAppointmentsByMonth
	listForPatient *ucAppointment.ListPatientAppointments
}

func NewAppointmentHandler(svc *ucAppointment.Service) *AppointmentHandler {
	return &AppointmentHandler{
		book:           svc.Book,
		cancel:         svc.Cancel,
		confirm:        svc.Confirm,
		complete:       svc.Complete,
		get:            svc.Get,
		listByDate:     svc.ListByDate,
		listByMonth:    svc.ListByMonth,
		listForPatient: svc.ListForPatient,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type BookAppointmentRequest struct {
	ProviderID string `json:"provider_id" binding:"required"`
	Start      string `json:"start" binding:"required"`
	Reason     string `json:"reason"`
}

// ======================================================
// BOOK
// ======================================================

// Book reserves a slot for the calling patient. A slot that was bookable
// when listed but is taken by now answers 409 slot_taken.
func (h *AppointmentHandler) Book(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	var req BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "provider_id and start are required.")
		return
	}

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.Start))
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "start must be an RFC 3339 timestamp.")
		return
	}

	ap, err := h.book.Execute(c.Request.Context(), ucAppointment.BookInput{
		ProviderID: req.ProviderID,
		PatientID:  actor.ID,
		Start:      start,
		Reason:     req.Reason,
	})
	if err != nil {
		if httperr.IsBusiness(err, httperr.CodeSlotTaken) {
			middleware.LoggerFrom(c).Info("booking lost the slot")
		}
		httperr.FromError(c, err)
		return
	}

	httpresp.Created(c, ap)
}

// ======================================================
// GET
// ======================================================

func (h *AppointmentHandler) Get(c *gin.Context) {
	ap, err := h.get.Execute(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, ap)
}

// ======================================================
// TRANSITIONS
// ======================================================

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	ap, err := h.cancel.Execute(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	ap, err := h.confirm.Execute(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	ap, err := h.complete.Execute(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, ap)
}

// ======================================================
// CALENDAR
// ======================================================

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		httperr.BadRequest(c, httperr.CodeValidation, "date is required.")
		return
	}

	includeCancelled, _ := strconv.ParseBool(c.DefaultQuery("include_cancelled", "false"))

	list, err := h.listByDate.Execute(
		c.Request.Context(),
		middleware.ActorFrom(c),
		c.Param("provider_id"),
		dateStr,
		includeCancelled,
	)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, list)
}

func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	yearStr := c.Query("year")
	monthStr := c.Query("month")

	if yearStr == "" || monthStr == "" {
		httperr.BadRequest(c, httperr.CodeValidation, "year and month are required.")
		return
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 2000 || year > 2100 {
		httperr.BadRequest(c, httperr.CodeValidation, "year is invalid.")
		return
	}

	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		httperr.BadRequest(c, httperr.CodeValidation, "month is invalid.")
		return
	}

	list, err := h.listByMonth.Execute(
		c.Request.Context(),
		middleware.ActorFrom(c),
		c.Param("provider_id"),
		year,
		month,
	)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":         year,
		"month":        month,
		"appointments": list,
	})
}

// ======================================================
// PATIENT
// ======================================================

func (h *AppointmentHandler) ListMine(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	list, err := h.listForPatient.Execute(c.Request.Context(), actor, actor.ID)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, list)
}
