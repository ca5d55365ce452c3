package handlers

import (
	"net/http"

	"medeasy-api-server/internal/service"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	Dashboards *service.Dashboards
}

func (h *DashboardHandler) Retailer(c *gin.Context) {
	d, err := h.Dashboards.Retailer(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DashboardHandler) Wholesaler(c *gin.Context) {
	d, err := h.Dashboards.Wholesaler(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
