package handlers

import (
	"net/http"

	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/service"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	Ledger *service.Ledger
}

type OrderItemRequest struct {
	MedicineID string `json:"medicineId" binding:"required"`
	Quantity   int64  `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	RetailerUserID string             `json:"retailerUserId"`
	WholesalerID   string             `json:"wholesalerId"`
	Items          []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateOrder handles POST /api/orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	retailerID, err := actingRetailer(c, req.RetailerUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, models.OrderItem{MedicineID: it.MedicineID, Quantity: it.Quantity})
	}
	o, err := h.Ledger.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		RetailerUserID: retailerID,
		WholesalerID:   req.WholesalerID,
		Items:          items,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// ListOrders handles GET /api/orders?status=&retailerUserId=
func (h *OrderHandler) ListOrders(c *gin.Context) {
	f, err := listFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := h.Ledger.ListOrders(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.Ledger.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// UpdateOrderStatus approves, rejects or completes an order.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.Ledger.TransitionOrder(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
