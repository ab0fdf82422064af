/**
 * @description
 * The Syncer is the application core: it owns the collaborator interfaces
 * and runs the two sync jobs (transaction reconciliation and daily balance
 * snapshots) over them. Interfaces are declared here, on the consuming side,
 * so stores, the aggregator client, and the notifier can be swapped for
 * fakes in tests.
 */

package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/goldstone/sync-service/internal/config"
	"github.com/goldstone/sync-service/internal/domain"
	"github.com/goldstone/sync-service/internal/metrics"
	"github.com/goldstone/sync-service/pkg/plaidclient"
)

// TransactionStore defines the transaction reads and writes the jobs need.
type TransactionStore interface {
	GetRange(ctx context.Context, tenantID uuid.UUID, startDate, endDate domain.Date) ([]domain.Transaction, error)
	Upsert(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
}

// AccountStore defines account lookups.
type AccountStore interface {
	GetAll(ctx context.Context, tenantID uuid.UUID) ([]domain.Account, error)
	GetByToken(ctx context.Context, tenantID uuid.UUID, accessToken string) ([]domain.Account, error)
}

// CredentialStore defines institution-linkage lookups.
type CredentialStore interface {
	GetByItem(ctx context.Context, tenantID uuid.UUID, itemID string, state domain.AccessCredentialState) (*domain.AccessCredential, error)
	GetAll(ctx context.Context, tenantID uuid.UUID, state domain.AccessCredentialState) ([]domain.AccessCredential, error)
}

// TenantStore defines tenant lookups.
type TenantStore interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*domain.Tenant, error)
	GetAll(ctx context.Context) ([]domain.Tenant, error)
}

// CatalogStore defines balance snapshot reads and writes.
type CatalogStore interface {
	Get(ctx context.Context, tenantID uuid.UUID, id domain.AccountDate) (*domain.AccountCatalog, error)
	Upsert(ctx context.Context, catalog *domain.AccountCatalog) (*domain.AccountCatalog, error)
}

// AggregatorClient defines the calls made to the financial-data aggregator.
type AggregatorClient interface {
	GetTransactions(ctx context.Context, accessToken string, startDate, endDate domain.Date) (*plaidclient.GetTransactionsResponse, error)
	GetBalances(ctx context.Context, accessToken string) (*plaidclient.GetBalancesResponse, error)
}

// Notifier delivers operator alerts. Delivery is best effort; the jobs log
// and continue when it fails.
type Notifier interface {
	NotifySyncFailure(ctx context.Context, tenantID uuid.UUID, itemID string, cause error) error
}

// RateLimiter spaces out calls to the aggregator's balance endpoint.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// Syncer runs the sync jobs.
type Syncer struct {
	transactions TransactionStore
	accounts     AccountStore
	credentials  CredentialStore
	tenants      TenantStore
	catalogs     CatalogStore
	aggregator   AggregatorClient
	notifier     Notifier
	limiter      RateLimiter
	metrics      *metrics.Metrics
	logger       *slog.Logger
	config       *config.Config

	// now is swappable for tests.
	now func() time.Time
}

// NewSyncer creates the job runner.
func NewSyncer(
	transactions TransactionStore,
	accounts AccountStore,
	credentials CredentialStore,
	tenants TenantStore,
	catalogs CatalogStore,
	aggregator AggregatorClient,
	notifier Notifier,
	limiter RateLimiter,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg *config.Config,
) *Syncer {
	return &Syncer{
		transactions: transactions,
		accounts:     accounts,
		credentials:  credentials,
		tenants:      tenants,
		catalogs:     catalogs,
		aggregator:   aggregator,
		notifier:     notifier,
		limiter:      limiter,
		metrics:      m,
		logger:       logger,
		config:       cfg,
		now:          time.Now,
	}
}

// localToday resolves the tenant's current calendar date.
func localToday(tenant *domain.Tenant, now time.Time) (domain.Date, error) {
	loc, err := time.LoadLocation(tenant.TimeZoneID)
	if err != nil {
		return domain.Date{}, err
	}
	return domain.NewDate(now.In(loc)), nil
}
