// internal/database/seeder.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogRow is one line of the catalogue data file.
type CatalogRow struct {
	MedicineName string    `json:"Medicine name"`
	Brand        string    `json:"Source/Brand"`
	Image        string    `json:"Image"`
	Retailer     string    `json:"Retailer"`
	Supplier     string    `json:"Supplier/Distributor"`
	Latitude     flexFloat `json:"Latitude"`
	Longitude    flexFloat `json:"Longitude"`
	Stock        flexFloat `json:"Stock"`
}

// flexFloat accepts a JSON number, a numeric string, or an empty value.
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = flexFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	*f = flexFloat{Value: v, Valid: true}
	return nil
}

// SeedReport counts what a seeding run created.
type SeedReport struct {
	Medicines   int
	Retailers   int
	Wholesalers int
	StockLinks  int
}

// SeedCatalogFile reads rows from path and seeds them.
func SeedCatalogFile(ctx context.Context, stores store.Stores, path string) (SeedReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SeedReport{}, fmt.Errorf("read catalog: %w", err)
	}
	var rows []CatalogRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return SeedReport{}, fmt.Errorf("decode catalog: %w", err)
	}
	return SeedCatalog(ctx, stores, rows)
}

// SeedCatalog creates each medicine once by name and one party per distinct
// retailer and supplier name. Running it again creates nothing new.
func SeedCatalog(ctx context.Context, stores store.Stores, rows []CatalogRow) (SeedReport, error) {
	var report SeedReport

	for i, row := range rows {
		name := strings.TrimSpace(row.MedicineName)
		if name == "" {
			zap.L().Warn("catalog row without medicine name skipped", zap.Int("row", i))
			continue
		}

		med, created, err := ensureMedicine(ctx, stores.Medicines, name, row)
		if err != nil {
			return report, fmt.Errorf("row %d: %w", i, err)
		}
		if created {
			report.Medicines++
		}

		loc := rowLocation(row)

		if r := strings.TrimSpace(row.Retailer); r != "" {
			party, created, err := ensureParty(ctx, stores.Parties, models.RoleRetailer, r, loc)
			if err != nil {
				return report, fmt.Errorf("row %d: %w", i, err)
			}
			if created {
				report.Retailers++
			}
			if row.Stock.Valid && row.Stock.Value > 0 {
				key := models.StockKey{PartyID: party.ID, MedicineID: med.ID}
				if _, err := stores.Stock.Get(ctx, key); errors.Is(err, store.ErrNotFound) {
					if _, err := stores.Stock.Set(ctx, key, models.RoleRetailer, int64(row.Stock.Value)); err != nil {
						return report, fmt.Errorf("row %d: stock: %w", i, err)
					}
					report.StockLinks++
				} else if err != nil {
					return report, fmt.Errorf("row %d: stock: %w", i, err)
				}
			}
		}

		if w := strings.TrimSpace(row.Supplier); w != "" {
			_, created, err := ensureParty(ctx, stores.Parties, models.RoleWholesaler, w, loc)
			if err != nil {
				return report, fmt.Errorf("row %d: %w", i, err)
			}
			if created {
				report.Wholesalers++
			}
		}
	}

	zap.L().Info("catalog seeded",
		zap.Int("rows", len(rows)),
		zap.Int("medicines", report.Medicines),
		zap.Int("retailers", report.Retailers),
		zap.Int("wholesalers", report.Wholesalers),
		zap.Int("stockLinks", report.StockLinks))
	return report, nil
}

func rowLocation(row CatalogRow) *models.Address {
	if !row.Latitude.Valid || !row.Longitude.Valid {
		return nil
	}
	return &models.Address{Latitude: row.Latitude.Value, Longitude: row.Longitude.Value}
}

func ensureMedicine(ctx context.Context, medicines store.MedicineStore, name string, row CatalogRow) (*models.Medicine, bool, error) {
	existing, err := medicines.GetByName(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	med := &models.Medicine{
		ID:    uuid.NewString(),
		Name:  name,
		Brand: strings.TrimSpace(row.Brand),
		Image: strings.TrimSpace(row.Image),
	}
	if err := medicines.Create(ctx, med); err != nil {
		return nil, false, fmt.Errorf("create medicine %q: %w", name, err)
	}
	return med, true, nil
}

func ensureParty(ctx context.Context, parties store.PartyStore, role models.Role, name string, loc *models.Address) (*models.Party, bool, error) {
	existing, err := parties.GetByName(ctx, role, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	party := &models.Party{
		ID:       uuid.NewString(),
		Role:     role,
		Name:     name,
		Location: loc,
	}
	if err := parties.Create(ctx, party); err != nil {
		return nil, false, fmt.Errorf("create %s %q: %w", role, name, err)
	}
	return party, true, nil
}
