package client

import (
	"context"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
)

// TransactionClient reads the external transaction feeds. One client serves
// both feeds; the feed decides the path and the counterparty parameter names.
type TransactionClient struct {
	*Client
}

// NewTransactionClient creates a TransactionClient over a shared transport.
func NewTransactionClient(c *Client) *TransactionClient {
	return &TransactionClient{Client: c}
}

// Fetch retrieves one page of a feed.
func (c *TransactionClient) Fetch(ctx context.Context, feed domain.FeedType, params domain.TransactionParams) ([]domain.Transaction, error) {
	url := c.urls.Transactions(feed, params)

	switch feed {
	case domain.FeedSwift:
		var dtos []swiftTransactionDTO
		if err := c.getJSON(ctx, url, &dtos); err != nil {
			return nil, err
		}

		txs := make([]domain.Transaction, 0, len(dtos))
		for _, dto := range dtos {
			tx, err := dto.toDomain()
			if err != nil {
				return nil, err
			}
			txs = append(txs, tx)
		}
		return txs, nil

	default:
		var dtos []sepaTransactionDTO
		if err := c.getJSON(ctx, url, &dtos); err != nil {
			return nil, err
		}

		txs := make([]domain.Transaction, 0, len(dtos))
		for _, dto := range dtos {
			tx, err := dto.toDomain()
			if err != nil {
				return nil, err
			}
			txs = append(txs, tx)
		}
		return txs, nil
	}
}
