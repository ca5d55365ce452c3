package handlers

import (
	"net/http"

	"medeasy-api-server/internal/apperr"
	"medeasy-api-server/internal/service"

	"github.com/gin-gonic/gin"
)

// maxImageSize caps medicine image uploads.
const maxImageSize = 5 << 20

type MedicineHandler struct {
	Catalog *service.Catalog
}

type CreateMedicineRequest struct {
	Name  string `json:"name" binding:"required"`
	Brand string `json:"brand"`
	Image string `json:"image"`
}

// ListMedicines handles GET /api/medicines?q=&limit=
func (h *MedicineHandler) ListMedicines(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := h.Catalog.List(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MedicineHandler) GetMedicine(c *gin.Context) {
	m, err := h.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MedicineHandler) CreateMedicine(c *gin.Context) {
	var req CreateMedicineRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.Catalog.Create(c.Request.Context(), service.CreateMedicineInput{
		Name:  req.Name,
		Brand: req.Brand,
		Image: req.Image,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// UploadImage stores the multipart "file" field and returns its URL.
func (h *MedicineHandler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, apperr.Validation(apperr.CodeInvalidBody, "file is required").Wrap(err))
		return
	}
	if fileHeader.Size > maxImageSize {
		respondError(c, apperr.Validation(apperr.CodeInvalidBody, "file is too large"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, apperr.Internal(err))
		return
	}
	defer file.Close()

	url, err := h.Catalog.UploadImage(c.Request.Context(), file, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
