package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
	"github.com/ahemkaric/cashflow-monitoring/internal/infrastructure/metrics"
)

// CompanyInfoUseCase is the cache-aside accessor over the ledger store. The
// cache is never a hard dependency: any cache failure degrades to the
// durable store.
type CompanyInfoUseCase struct {
	repo      CompanyInfoRepository
	cache     CompanyInfoCache
	directory CompanyService
	idGen     IDGenerator
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewCompanyInfoUseCase creates a new CompanyInfoUseCase. metrics may be nil.
func NewCompanyInfoUseCase(
	repo CompanyInfoRepository,
	cache CompanyInfoCache,
	directory CompanyService,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *CompanyInfoUseCase {
	return &CompanyInfoUseCase{
		repo:      repo,
		cache:     cache,
		directory: directory,
		idGen:     idGen,
		metrics:   m,
		logger:    logger,
	}
}

// GetCached returns the ledger record for a company, populating the cache on
// a miss. Cache errors are logged and absorbed.
func (uc *CompanyInfoUseCase) GetCached(ctx context.Context, companyID int) (*domain.CompanyInfo, error) {
	info, err := uc.cache.Get(ctx, companyID)
	if err == nil {
		if uc.metrics != nil {
			uc.metrics.CacheHits.Inc()
		}
		return info, nil
	}

	if uc.metrics != nil {
		uc.metrics.CacheMisses.Inc()
	}

	if !errors.Is(err, ErrCacheMiss) {
		uc.logger.Warn().Err(err).Int("company_id", companyID).
			Msg("cache unavailable, falling back to store")
	}

	info, err = uc.repo.FindByCompanyID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if err := uc.cache.Set(ctx, info, CompanyInfoCacheTTL); err != nil {
		uc.logger.Warn().Err(err).Int("company_id", companyID).Msg("failed to populate cache")
	}

	return info, nil
}

// Update persists a ledger record and then refreshes its cache entry. When
// the persist fails the cache is left untouched.
func (uc *CompanyInfoUseCase) Update(ctx context.Context, info *domain.CompanyInfo) error {
	info.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Save(ctx, info); err != nil {
		return fmt.Errorf("save company info %d: %w", info.CompanyID, err)
	}

	if err := uc.cache.Set(ctx, info, CompanyInfoCacheTTL); err != nil {
		uc.logger.Warn().Err(err).Int("company_id", info.CompanyID).Msg("failed to refresh cache")
	}

	return nil
}

// Evict removes the cache entry only. The durable record stays.
func (uc *CompanyInfoUseCase) Evict(ctx context.Context, companyID int) error {
	return uc.cache.Delete(ctx, companyID)
}

// CreateForCompany creates a zero-balance ledger record for a company.
func (uc *CompanyInfoUseCase) CreateForCompany(ctx context.Context, companyID int) (*domain.CompanyInfo, error) {
	info := domain.NewCompanyInfo(uc.idGen.Generate(), companyID)
	if err := uc.Update(ctx, info); err != nil {
		return nil, err
	}

	return info, nil
}

// Balance returns the company's EUR balance.
func (uc *CompanyInfoUseCase) Balance(ctx context.Context, companyID int) (decimal.Decimal, error) {
	info, err := uc.repo.FindByCompanyID(ctx, companyID)
	if err != nil {
		return decimal.Zero, err
	}

	return info.BalanceEUR, nil
}

// CountryDetails returns a company's currency-usage stats sorted by
// descending transaction count.
func (uc *CompanyInfoUseCase) CountryDetails(ctx context.Context, companyID int) ([]domain.CountryDetail, error) {
	info, err := uc.repo.FindByCompanyID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	return info.SortedCountryDetails(), nil
}

// FindAll returns every ledger record.
func (uc *CompanyInfoUseCase) FindAll(ctx context.Context) ([]*domain.CompanyInfo, error) {
	return uc.repo.FindAll(ctx)
}

// LatestMarker returns the most recent last-processed marker for a feed, or
// nils when the feed has never been processed.
func (uc *CompanyInfoUseCase) LatestMarker(ctx context.Context, feed domain.FeedType) (*domain.CompanyInfo, error) {
	info, err := uc.repo.FindLatestByFeed(ctx, feed)
	if errors.Is(err, domain.ErrCompanyInfoNotFound) {
		return &domain.CompanyInfo{}, nil
	}
	if err != nil {
		return nil, err
	}

	return info, nil
}

// SyncNewCompanies pulls directory entries past the highest known company id
// and eagerly creates a ledger record for each.
func (uc *CompanyInfoUseCase) SyncNewCompanies(ctx context.Context, limit int) ([]*domain.CompanyInfo, error) {
	maxID, err := uc.repo.MaxCompanyID(ctx)
	if err != nil {
		return nil, err
	}

	companies, err := uc.directory.ListAll(ctx, limit, maxID)
	if err != nil {
		return nil, err
	}

	uc.logger.Info().Int("count", len(companies)).Int("after_id", maxID).Msg("syncing new companies")

	created := make([]*domain.CompanyInfo, 0, len(companies))
	for _, company := range companies {
		info, err := uc.CreateForCompany(ctx, company.ID)
		if err != nil {
			return nil, err
		}

		created = append(created, info)
	}

	if uc.metrics != nil {
		uc.metrics.CompaniesSynced.Add(float64(len(created)))
	}

	return created, nil
}
