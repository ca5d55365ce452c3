// Package service holds the marketplace use cases: accounts, catalogue,
// the request ledger with its reconciliation step, stock corrections,
// proximity search and dashboards.
package service

import (
	"context"
	"io"
	"time"

	"medeasy-api-server/config"
	"medeasy-api-server/internal/auth"
	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/store"
)

// ReconcileScope selects which stock pools an approval credits.
type ReconcileScope string

const (
	// ScopeStore credits only the requesting retailer's store.
	ScopeStore ReconcileScope = "store"
	// ScopeRole credits every retailer store.
	ScopeRole ReconcileScope = "role"
)

// Options are the business constants of the marketplace.
type Options struct {
	UnitPrice           int64
	ReorderThreshold    int64
	SearchRadiusKm      float64
	ReconcileScope      ReconcileScope
	RecentRequestsLimit int
}

func DefaultOptions() Options {
	return Options{
		UnitPrice:           100,
		ReorderThreshold:    10,
		SearchRadiusKm:      1000,
		ReconcileScope:      ScopeStore,
		RecentRequestsLimit: 20,
	}
}

// OptionsFromConfig maps the marketplace config section.
func OptionsFromConfig(c config.MarketplaceConfig) Options {
	return Options{
		UnitPrice:           c.UnitPrice,
		ReorderThreshold:    c.ReorderThreshold,
		SearchRadiusKm:      c.SearchRadiusKm,
		ReconcileScope:      ReconcileScope(c.ReconcileScope),
		RecentRequestsLimit: c.RecentRequestsLimit,
	}
}

// Publisher delivers live events. Delivery is best-effort and must not block.
type Publisher interface {
	PublishToUser(userID string, ev models.Event)
	PublishToRole(role models.Role, ev models.Event)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishToUser(string, models.Event)      {}
func (NopPublisher) PublishToRole(models.Role, models.Event) {}

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	UploadFile(ctx context.Context, file io.Reader, objectKey, contentType string) (string, error)
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

// Services is the full set of use cases wired over one set of stores.
type Services struct {
	Accounts   *Accounts
	Catalog    *Catalog
	Ledger     *Ledger
	Stock      *Stock
	Dashboards *Dashboards
}

// Deps are the collaborators shared by the services. Uploader may be nil.
type Deps struct {
	Stores    store.Stores
	Tokens    *auth.Manager
	Uploader  ImageUploader
	Publisher Publisher
	Options   Options
	Clock     Clock
}

func New(d Deps) *Services {
	if d.Publisher == nil {
		d.Publisher = NopPublisher{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Options.ReconcileScope == "" {
		d.Options.ReconcileScope = ScopeStore
	}

	reconciler := &Reconciler{parties: d.Stores.Parties, stock: d.Stores.Stock, scope: d.Options.ReconcileScope}
	return &Services{
		Accounts: &Accounts{
			users:   d.Stores.Users,
			parties: d.Stores.Parties,
			tx:      d.Stores.Tx,
			tokens:  d.Tokens,
			clock:   d.Clock,
		},
		Catalog: &Catalog{
			medicines: d.Stores.Medicines,
			uploader:  d.Uploader,
			clock:     d.Clock,
		},
		Ledger: &Ledger{
			stores:     d.Stores,
			reconciler: reconciler,
			publisher:  d.Publisher,
			opts:       d.Options,
			clock:      d.Clock,
		},
		Stock: &Stock{
			parties:   d.Stores.Parties,
			medicines: d.Stores.Medicines,
			stock:     d.Stores.Stock,
			publisher: d.Publisher,
			opts:      d.Options,
			clock:     d.Clock,
		},
		Dashboards: &Dashboards{
			stores: d.Stores,
			opts:   d.Options,
			clock:  d.Clock,
		},
	}
}
