package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

type ProviderHandler struct {
	list *ucAppointment.ListProviders
}

func NewProviderHandler(svc *ucAppointment.Service) *ProviderHandler {
	return &ProviderHandler{list: svc.ListProviders}
}

func (h *ProviderHandler) List(c *gin.Context) {
	providers, err := h.list.Execute(c.Request.Context(), c.Query("specialization"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.List(c, providers)
}
