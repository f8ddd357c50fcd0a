package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
)

// CompanyUseCase reads the external company directory.
type CompanyUseCase struct {
	client CompanyClient
	logger zerolog.Logger
}

// NewCompanyUseCase creates a new CompanyUseCase.
func NewCompanyUseCase(client CompanyClient, logger zerolog.Logger) *CompanyUseCase {
	return &CompanyUseCase{
		client: client,
		logger: logger,
	}
}

// ListAll fetches directory entries page by page until a short page. A limit
// of 0 means no caller-imposed bound; afterID of 0 starts from the beginning.
func (uc *CompanyUseCase) ListAll(ctx context.Context, limit, afterID int) ([]domain.Company, error) {
	var accumulated []domain.Company

	remaining := limit
	cursor := afterID

	for {
		page, err := uc.client.List(ctx, remaining, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetch companies after id %d: %w", cursor, err)
		}

		accumulated = append(accumulated, page...)

		if len(page) < DefaultPageSize {
			return accumulated, nil
		}

		cursor = page[len(page)-1].ID
		if remaining > 0 {
			remaining -= DefaultPageSize
			if remaining <= 0 {
				return accumulated, nil
			}
		}
	}
}

// GetByID fetches a single directory entry.
func (uc *CompanyUseCase) GetByID(ctx context.Context, id int) (domain.Company, error) {
	company, err := uc.client.Get(ctx, id)
	if err != nil {
		uc.logger.Error().Err(err).Int("company_id", id).Msg("failed to fetch company")
		return domain.Company{}, err
	}

	return company, nil
}
