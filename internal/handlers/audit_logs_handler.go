package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// ======================================================
// HANDLER
// ======================================================

type AuditLogsHandler struct {
	store audit.Store
}

func NewAuditLogsHandler(store audit.Store) *AuditLogsHandler {
	return &AuditLogsHandler{store: store}
}

// List pages through the audit trail of one provider, newest first.
func (h *AuditLogsHandler) List(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	providerID := c.Param("provider_id")

	if !actor.ActsFor(providerID) {
		httperr.FromError(c, domain.ErrForbidden("read this audit trail"))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	f := audit.Filter{
		ProviderID: providerID,
		Action:     c.Query("action"),
		Entity:     c.Query("entity"),
		Page:       page,
		Limit:      limit,
	}

	// --------------------------------------------------
	// Optional date range, whole days inclusive
	// --------------------------------------------------

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := timezone.ParseDate(fromStr, "UTC")
		if err != nil {
			httperr.BadRequest(c, httperr.CodeValidation, "from must be YYYY-MM-DD.")
			return
		}
		f.From = &from
	}

	if toStr := c.Query("to"); toStr != "" {
		to, err := timezone.ParseDate(toStr, "UTC")
		if err != nil {
			httperr.BadRequest(c, httperr.CodeValidation, "to must be YYYY-MM-DD.")
			return
		}
		end := to.AddDate(0, 0, 1)
		f.To = &end
	}

	f.Normalize()

	logs, total, err := h.store.ListAuditLogs(c.Request.Context(), f)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.Page(c, logs, f.Page, f.Limit, total)
}
