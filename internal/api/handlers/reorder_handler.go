package handlers

import (
	"net/http"

	"medeasy-api-server/internal/service"

	"github.com/gin-gonic/gin"
)

type ReorderHandler struct {
	Ledger *service.Ledger
}

type CreateReorderRequest struct {
	RetailerUserID string `json:"retailerUserId"`
	MedicineID     string `json:"medicineId" binding:"required"`
	Quantity       int64  `json:"quantity" binding:"required,gt=0"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateReorder handles POST /api/reorder-requests.
func (h *ReorderHandler) CreateReorder(c *gin.Context) {
	var req CreateReorderRequest
	if !bindJSON(c, &req) {
		return
	}
	retailerID, err := actingRetailer(c, req.RetailerUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	r, err := h.Ledger.CreateReorder(c.Request.Context(), service.CreateReorderInput{
		RetailerUserID: retailerID,
		MedicineID:     req.MedicineID,
		Quantity:       req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func listFilter(c *gin.Context) (service.ListFilter, error) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return service.ListFilter{}, err
	}
	return service.ListFilter{
		RetailerUserID: c.Query("retailerUserId"),
		Status:         c.Query("status"),
		Limit:          limit,
	}, nil
}

// ListReorders handles GET /api/reorder-requests?retailerUserId=&status=
func (h *ReorderHandler) ListReorders(c *gin.Context) {
	f, err := listFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := h.Ledger.ListReorders(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReorderHandler) GetReorder(c *gin.Context) {
	r, err := h.Ledger.GetReorder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// UpdateReorderStatus approves or rejects a pending reorder request.
func (h *ReorderHandler) UpdateReorderStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.Ledger.TransitionReorder(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
