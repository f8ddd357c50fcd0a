package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
	"github.com/ahemkaric/cashflow-monitoring/internal/usecase"
)

// CompanyInfoCache implements usecase.CompanyInfoCache on Redis. Records are
// stored as JSON under companyInfo:<company id>.
type CompanyInfoCache struct {
	client *redis.Client
	prefix string
}

// NewCompanyInfoCache creates a new CompanyInfoCache.
func NewCompanyInfoCache(client *redis.Client) *CompanyInfoCache {
	return &CompanyInfoCache{
		client: client,
		prefix: "companyInfo:",
	}
}

func (c *CompanyInfoCache) key(companyID int) string {
	return c.prefix + strconv.Itoa(companyID)
}

// Get retrieves a cached record. A missing key maps to usecase.ErrCacheMiss.
func (c *CompanyInfoCache) Get(ctx context.Context, companyID int) (*domain.CompanyInfo, error) {
	payload, err := c.client.Get(ctx, c.key(companyID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, usecase.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get company %d: %w", companyID, err)
	}

	var info domain.CompanyInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		return nil, fmt.Errorf("cache decode company %d: %w", companyID, err)
	}

	return &info, nil
}

// Set stores a record with a TTL.
func (c *CompanyInfoCache) Set(ctx context.Context, info *domain.CompanyInfo, ttl time.Duration) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("cache encode company %d: %w", info.CompanyID, err)
	}

	return c.client.Set(ctx, c.key(info.CompanyID), payload, ttl).Err()
}

// Delete removes a record's cache entry.
func (c *CompanyInfoCache) Delete(ctx context.Context, companyID int) error {
	return c.client.Del(ctx, c.key(companyID)).Err()
}
