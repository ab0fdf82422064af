package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountState marks whether an account participates in sync jobs.
type AccountState string

const (
	AccountStateNone     AccountState = "None"
	AccountStateActive   AccountState = "Active"
	AccountStateInactive AccountState = "Inactive"
)

// AssetType classifies what an account's balance represents.
type AssetType string

const (
	AssetCash       AssetType = "Cash"
	AssetInvestment AssetType = "Investment"
	AssetRetirement AssetType = "Retirement"
)

// ExpenseType classifies how an account spends.
type ExpenseType string

const (
	ExpenseTypeCash     ExpenseType = "Cash"
	ExpenseTypeChecking ExpenseType = "Checking"
	ExpenseTypeSaving   ExpenseType = "Saving"
	ExpenseTypeCredit   ExpenseType = "Credit"
)

// TrackingType says how an account's daily value is obtained: pulled from
// the aggregator, or filled in by the carry-forward job.
type TrackingType string

const (
	TrackingJob   TrackingType = "Job"
	TrackingPlaid TrackingType = "Plaid"
)

// Account is one trackable financial account of a tenant. AliasID is the
// aggregator's own identifier for the account; AccessToken references the
// institution linkage the account was discovered through.
type Account struct {
	ID          uuid.UUID    `json:"id"`
	Symbol      string       `json:"symbol,omitempty"`
	Name        string       `json:"name"`
	TenantID    uuid.UUID    `json:"tenantId"`
	UserID      uuid.UUID    `json:"userId"`
	AccessToken string       `json:"accessToken,omitempty"`
	State       AccountState `json:"state"`
	AssetType   *AssetType   `json:"assetType,omitempty"`
	ExpenseType *ExpenseType `json:"expenseType,omitempty"`
	Tracking    TrackingType `json:"trackingType,omitempty"`
	AliasID     string       `json:"aliasId,omitempty"`

	Etag string `json:"-"`
}

// AccessCredentialState marks whether a linkage is still reconciled.
type AccessCredentialState string

const (
	CredentialActive   AccessCredentialState = "Active"
	CredentialInactive AccessCredentialState = "Inactive"
)

// AccessCredential is one institution linkage of a tenant. Many accounts may
// share one credential (a single linkage can expose several sub-accounts).
type AccessCredential struct {
	ID              uuid.UUID             `json:"id"`
	TenantID        uuid.UUID             `json:"tenantId"`
	UserID          uuid.UUID             `json:"userId"`
	InstitutionID   uint32                `json:"institutionId,omitempty"`
	InstitutionName string                `json:"institutionName,omitempty"`
	ItemID          string                `json:"itemId"`
	Token           string                `json:"accessToken"`
	State           AccessCredentialState `json:"state"`
	Tracking        TrackingType          `json:"trackingType,omitempty"`

	Etag string `json:"-"`
}

// TenantState marks whether a tenant participates in scheduled syncs.
type TenantState string

const (
	TenantActive   TenantState = "Active"
	TenantInactive TenantState = "Inactive"
)

// Tenant owns a partition of every collection. TimeZoneID is an IANA zone
// name; "today" for both sync jobs is the tenant's local date.
type Tenant struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	TimeZoneID string      `json:"timeZoneId"`
	State      TenantState `json:"state"`

	Etag string `json:"-"`
}

// LocalNow converts the current UTC time into the tenant's time zone.
func (t *Tenant) LocalNow() (time.Time, error) {
	loc, err := time.LoadLocation(t.TimeZoneID)
	if err != nil {
		return time.Time{}, fmt.Errorf("tenant %s has invalid time zone %q: %w", t.ID, t.TimeZoneID, err)
	}
	return time.Now().UTC().In(loc), nil
}

// AccountCatalog is one account's value on one calendar date.
type AccountCatalog struct {
	ID       AccountDate     `json:"id"`
	TenantID uuid.UUID       `json:"tenantId"`
	Value    decimal.Decimal `json:"value"`

	Etag string `json:"-"`
}
