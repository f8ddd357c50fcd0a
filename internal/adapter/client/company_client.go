package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
)

// CompanyClient reads the external company directory.
type CompanyClient struct {
	*Client
}

// NewCompanyClient creates a CompanyClient over a shared transport.
func NewCompanyClient(c *Client) *CompanyClient {
	return &CompanyClient{Client: c}
}

// List fetches one directory page.
func (c *CompanyClient) List(ctx context.Context, limit, afterID int) ([]domain.Company, error) {
	var dtos []companyDTO
	if err := c.getJSON(ctx, c.urls.Companies(limit, afterID), &dtos); err != nil {
		return nil, err
	}

	companies := make([]domain.Company, 0, len(dtos))
	for _, dto := range dtos {
		companies = append(companies, dto.toDomain())
	}

	return companies, nil
}

// Get fetches one directory entry. A 404 maps to domain.ErrCompanyNotFound.
func (c *CompanyClient) Get(ctx context.Context, id int) (domain.Company, error) {
	var dto companyDTO
	if err := c.getJSON(ctx, c.urls.Company(id), &dto); err != nil {
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode == http.StatusNotFound {
			return domain.Company{}, domain.ErrCompanyNotFound
		}
		return domain.Company{}, err
	}

	return dto.toDomain(), nil
}
