package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
)

// ErrCacheMiss is returned by CompanyInfoCache when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// CompanyInfoRepository defines durable access to ledger records.
type CompanyInfoRepository interface {
	FindByCompanyID(ctx context.Context, companyID int) (*domain.CompanyInfo, error)
	FindAll(ctx context.Context) ([]*domain.CompanyInfo, error)
	Save(ctx context.Context, info *domain.CompanyInfo) error
	// MaxCompanyID returns the highest known company id, 0 when the ledger
	// is empty.
	MaxCompanyID(ctx context.Context) (int, error)
	// FindLatestByFeed returns the record whose marker timestamp for the
	// feed is most recent, or domain.ErrCompanyInfoNotFound.
	FindLatestByFeed(ctx context.Context, feed domain.FeedType) (*domain.CompanyInfo, error)
}

// CompanyInfoCache caches ledger records with a TTL.
type CompanyInfoCache interface {
	Get(ctx context.Context, companyID int) (*domain.CompanyInfo, error)
	Set(ctx context.Context, info *domain.CompanyInfo, ttl time.Duration) error
	Delete(ctx context.Context, companyID int) error
}

// CompanyClient fetches directory entries from the upstream registry, one
// page at a time.
type CompanyClient interface {
	List(ctx context.Context, limit, afterID int) ([]domain.Company, error)
	Get(ctx context.Context, id int) (domain.Company, error)
}

// TransactionFeed fetches one page of transfers from a feed, ordered by
// timestamp ascending.
type TransactionFeed interface {
	Fetch(ctx context.Context, feed domain.FeedType, params domain.TransactionParams) ([]domain.Transaction, error)
}

// RateSource fetches the full exchange-rate table.
type RateSource interface {
	Fetch(ctx context.Context) ([]domain.ExchangeRate, error)
}

// IDGenerator generates unique ledger record ids.
type IDGenerator interface {
	Generate() string
}

// CompanyInfoStore is the cache-aside accessor the reconciler goes through.
type CompanyInfoStore interface {
	GetCached(ctx context.Context, companyID int) (*domain.CompanyInfo, error)
	Update(ctx context.Context, info *domain.CompanyInfo) error
	CreateForCompany(ctx context.Context, companyID int) (*domain.CompanyInfo, error)
}

// Converter resolves exchange rates and converts transaction amounts into
// the home currency.
type Converter interface {
	Rates(ctx context.Context) (domain.RateTable, error)
	Convert(tx *domain.Transaction, table domain.RateTable) (decimal.Decimal, error)
}

// Resolver maps IBANs to owning company ids.
type Resolver interface {
	Map(ctx context.Context) (map[string]int, error)
}

// CompanyService exposes directory reads to other use cases.
type CompanyService interface {
	ListAll(ctx context.Context, limit, afterID int) ([]domain.Company, error)
	GetByID(ctx context.Context, id int) (domain.Company, error)
}
