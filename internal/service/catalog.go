package service

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"medeasy-api-server/internal/apperr"
	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/store"

	"github.com/google/uuid"
)

// Catalog manages medicines. Entries are immutable once created.
type Catalog struct {
	medicines store.MedicineStore
	uploader  ImageUploader
	clock     Clock
}

type CreateMedicineInput struct {
	Name  string
	Brand string
	Image string
}

func (c *Catalog) Create(ctx context.Context, in CreateMedicineInput) (*models.Medicine, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation(apperr.CodeInvalidBody, "name is required")
	}
	m := &models.Medicine{
		ID:        uuid.NewString(),
		Name:      name,
		NameKey:   models.NormalizeName(name),
		Brand:     strings.TrimSpace(in.Brand),
		Image:     strings.TrimSpace(in.Image),
		CreatedAt: c.clock().UTC(),
	}
	if err := c.medicines.Create(ctx, m); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict(apperr.CodeMedicineExists, "medicine already exists")
		}
		return nil, apperr.Internal(err)
	}
	return m, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (*models.Medicine, error) {
	m, err := c.medicines.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(apperr.CodeMedicineNotFound, "medicine not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return m, nil
}

// List filters by name or brand. An empty query lists everything.
func (c *Catalog) List(ctx context.Context, query string, limit int) ([]models.Medicine, error) {
	out, err := c.medicines.List(ctx, query, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if out == nil {
		out = []models.Medicine{}
	}
	return out, nil
}

// UploadImage stores a medicine picture and returns its public URL.
func (c *Catalog) UploadImage(ctx context.Context, file io.Reader, filename, contentType string) (string, error) {
	if c.uploader == nil {
		return "", apperr.Unavailable(apperr.CodeUploadsDisabled, "image uploads are not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperr.Validation(apperr.CodeInvalidBody, "file must be an image")
	}
	key := "medicines/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
	url, err := c.uploader.UploadFile(ctx, file, key, contentType)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return url, nil
}
