package client

import (
	"context"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
)

// ExchangeRateClient reads the external exchange-rate listing.
type ExchangeRateClient struct {
	*Client
}

// NewExchangeRateClient creates an ExchangeRateClient over a shared transport.
func NewExchangeRateClient(c *Client) *ExchangeRateClient {
	return &ExchangeRateClient{Client: c}
}

// Fetch retrieves the full rate listing.
func (c *ExchangeRateClient) Fetch(ctx context.Context) ([]domain.ExchangeRate, error) {
	var dtos []exchangeRateDTO
	if err := c.getJSON(ctx, c.urls.ExchangeRates(), &dtos); err != nil {
		return nil, err
	}

	rates := make([]domain.ExchangeRate, 0, len(dtos))
	for _, dto := range dtos {
		rates = append(rates, dto.toDomain())
	}

	return rates, nil
}
