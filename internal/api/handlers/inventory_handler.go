package handlers

import (
	"net/http"

	"medeasy-api-server/internal/api/middleware"
	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/service"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	Stock *service.Stock
}

type UpdateStockRequest struct {
	MedicineID string `json:"medicineId" binding:"required"`
	Quantity   *int64 `json:"quantity" binding:"required,gte=0"`
	PartyID    string `json:"partyId"`
	Role       string `json:"role"`
}

// UpdateStock overwrites stock quantities. POST /api/inventory/update
func (h *InventoryHandler) UpdateStock(c *gin.Context) {
	var req UpdateStockRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Stock.Set(c.Request.Context(), service.SetStockInput{
		MedicineID: req.MedicineID,
		Quantity:   req.Quantity,
		PartyID:    req.PartyID,
		Role:       req.Role,
		Caller: &service.Caller{
			UserID: middleware.UserID(c),
			Role:   middleware.UserRole(c),
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *InventoryHandler) roster(c *gin.Context, role models.Role) {
	out, err := h.Stock.Roster(c.Request.Context(), role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CustomerMedicines lists retailer stores with their stock.
func (h *InventoryHandler) CustomerMedicines(c *gin.Context) {
	h.roster(c, models.RoleRetailer)
}

// WholesalerMedicines lists wholesaler stores with their stock.
func (h *InventoryHandler) WholesalerMedicines(c *gin.Context) {
	h.roster(c, models.RoleWholesaler)
}

// Search handles GET /api/search?lat=&lng=&radiusKm=&q=
func (h *InventoryHandler) Search(c *gin.Context) {
	lat, err := queryFloat(c, "lat")
	if err != nil {
		respondError(c, err)
		return
	}
	lng, err := queryFloat(c, "lng")
	if err != nil {
		respondError(c, err)
		return
	}
	radius, err := queryFloat(c, "radiusKm")
	if err != nil {
		respondError(c, err)
		return
	}

	in := service.SearchInput{Latitude: lat, Longitude: lng, Query: c.Query("q")}
	if radius != nil {
		in.RadiusKm = *radius
	}
	out, err := h.Stock.Search(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
