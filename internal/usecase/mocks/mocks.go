package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
	"github.com/ahemkaric/cashflow-monitoring/internal/usecase"
)

// MockCompanyInfoRepository is an in-memory CompanyInfoRepository.
type MockCompanyInfoRepository struct {
	mu    sync.RWMutex
	infos map[int]*domain.CompanyInfo

	FindByCompanyIDFunc  func(ctx context.Context, companyID int) (*domain.CompanyInfo, error)
	FindAllFunc          func(ctx context.Context) ([]*domain.CompanyInfo, error)
	SaveFunc             func(ctx context.Context, info *domain.CompanyInfo) error
	MaxCompanyIDFunc     func(ctx context.Context) (int, error)
	FindLatestByFeedFunc func(ctx context.Context, feed domain.FeedType) (*domain.CompanyInfo, error)
}

func NewMockCompanyInfoRepository() *MockCompanyInfoRepository {
	return &MockCompanyInfoRepository{
		infos: make(map[int]*domain.CompanyInfo),
	}
}

// Seed stores a record directly, bypassing any configured SaveFunc.
func (m *MockCompanyInfoRepository) Seed(info *domain.CompanyInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos[info.CompanyID] = info
}

func (m *MockCompanyInfoRepository) FindByCompanyID(ctx context.Context, companyID int) (*domain.CompanyInfo, error) {
	if m.FindByCompanyIDFunc != nil {
		return m.FindByCompanyIDFunc(ctx, companyID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if info, ok := m.infos[companyID]; ok {
		copied := *info
		return &copied, nil
	}
	return nil, domain.ErrCompanyInfoNotFound
}

func (m *MockCompanyInfoRepository) FindAll(ctx context.Context) ([]*domain.CompanyInfo, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]*domain.CompanyInfo, 0, len(m.infos))
	for _, info := range m.infos {
		copied := *info
		infos = append(infos, &copied)
	}
	return infos, nil
}

func (m *MockCompanyInfoRepository) Save(ctx context.Context, info *domain.CompanyInfo) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, info)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *info
	m.infos[info.CompanyID] = &copied
	return nil
}

func (m *MockCompanyInfoRepository) MaxCompanyID(ctx context.Context) (int, error) {
	if m.MaxCompanyIDFunc != nil {
		return m.MaxCompanyIDFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	max := 0
	for id := range m.infos {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (m *MockCompanyInfoRepository) FindLatestByFeed(ctx context.Context, feed domain.FeedType) (*domain.CompanyInfo, error) {
	if m.FindLatestByFeedFunc != nil {
		return m.FindLatestByFeedFunc(ctx, feed)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.CompanyInfo
	var latestAt *time.Time
	for _, info := range m.infos {
		_, at := info.MarkerFor(feed)
		if at == nil {
			continue
		}
		if latestAt == nil || at.After(*latestAt) {
			copied := *info
			latest = &copied
			latestAt = at
		}
	}
	if latest == nil {
		return nil, domain.ErrCompanyInfoNotFound
	}
	return latest, nil
}

// MockCompanyInfoCache is an in-memory CompanyInfoCache. TTLs are ignored.
type MockCompanyInfoCache struct {
	mu      sync.RWMutex
	entries map[int]*domain.CompanyInfo

	GetFunc    func(ctx context.Context, companyID int) (*domain.CompanyInfo, error)
	SetFunc    func(ctx context.Context, info *domain.CompanyInfo, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, companyID int) error
}

func NewMockCompanyInfoCache() *MockCompanyInfoCache {
	return &MockCompanyInfoCache{
		entries: make(map[int]*domain.CompanyInfo),
	}
}

func (m *MockCompanyInfoCache) Get(ctx context.Context, companyID int) (*domain.CompanyInfo, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, companyID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if info, ok := m.entries[companyID]; ok {
		copied := *info
		return &copied, nil
	}
	return nil, usecase.ErrCacheMiss
}

func (m *MockCompanyInfoCache) Set(ctx context.Context, info *domain.CompanyInfo, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, info, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *info
	m.entries[info.CompanyID] = &copied
	return nil
}

func (m *MockCompanyInfoCache) Delete(ctx context.Context, companyID int) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, companyID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, companyID)
	return nil
}

// MockCompanyClient is a canned CompanyClient.
type MockCompanyClient struct {
	Companies []domain.Company

	ListFunc func(ctx context.Context, limit, afterID int) ([]domain.Company, error)
	GetFunc  func(ctx context.Context, id int) (domain.Company, error)
}

func (m *MockCompanyClient) List(ctx context.Context, limit, afterID int) ([]domain.Company, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, afterID)
	}
	var page []domain.Company
	for _, c := range m.Companies {
		if c.ID > afterID {
			page = append(page, c)
		}
	}
	return page, nil
}

func (m *MockCompanyClient) Get(ctx context.Context, id int) (domain.Company, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	for _, c := range m.Companies {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Company{}, domain.ErrCompanyNotFound
}

// MockTransactionFeed serves scripted pages per feed and records every fetch.
type MockTransactionFeed struct {
	mu      sync.Mutex
	pages   map[domain.FeedType][][]domain.Transaction
	fetches map[domain.FeedType]int

	FetchFunc func(ctx context.Context, feed domain.FeedType, params domain.TransactionParams) ([]domain.Transaction, error)
}

func NewMockTransactionFeed() *MockTransactionFeed {
	return &MockTransactionFeed{
		pages:   make(map[domain.FeedType][][]domain.Transaction),
		fetches: make(map[domain.FeedType]int),
	}
}

// Script queues pages that successive fetches return in order; once the
// script runs out, fetches return empty pages.
func (m *MockTransactionFeed) Script(feed domain.FeedType, pages ...[]domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[feed] = append(m.pages[feed], pages...)
}

func (m *MockTransactionFeed) Fetch(ctx context.Context, feed domain.FeedType, params domain.TransactionParams) ([]domain.Transaction, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, feed, params)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches[feed]++
	queued := m.pages[feed]
	if len(queued) == 0 {
		return nil, nil
	}
	page := queued[0]
	m.pages[feed] = queued[1:]
	return page, nil
}

// Fetches reports how many pages were requested for a feed.
func (m *MockTransactionFeed) Fetches(feed domain.FeedType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches[feed]
}

// MockRateSource is a canned RateSource counting its fetches.
type MockRateSource struct {
	mu      sync.Mutex
	calls   int
	Rates   []domain.ExchangeRate
	Err     error
	OnFetch func()
}

func (m *MockRateSource) Fetch(ctx context.Context) ([]domain.ExchangeRate, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.OnFetch != nil {
		m.OnFetch()
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Rates, nil
}

func (m *MockRateSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockIDGenerator yields deterministic sequential ids.
type MockIDGenerator struct {
	mu   sync.Mutex
	next int
}

func (m *MockIDGenerator) Generate() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return fmt.Sprintf("record-%d", m.next)
}

// MockResolver returns a fixed IBAN-to-company mapping.
type MockResolver struct {
	Mapping map[string]int
	Err     error
}

func (m *MockResolver) Map(ctx context.Context) (map[string]int, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Mapping, nil
}

// MockConverter converts with a fixed table, multiplying by EURRate.
type MockConverter struct {
	Table domain.RateTable
	Err   error
}

func (m *MockConverter) Rates(ctx context.Context) (domain.RateTable, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Table, nil
}

func (m *MockConverter) Convert(tx *domain.Transaction, table domain.RateTable) (decimal.Decimal, error) {
	if tx.Currency == usecase.HomeCurrency {
		return tx.Amount, nil
	}
	rate, ok := table[tx.Currency]
	if !ok {
		return decimal.Zero, &domain.ExchangeRateNotFoundError{Currency: tx.Currency}
	}
	return tx.Amount.Mul(decimal.NewFromFloat(rate.EURRate)), nil
}
