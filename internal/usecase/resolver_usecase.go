package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ResolverUseCase maps every IBAN known to the ledger to its owning company
// id by joining the ledger records with the company directory. The join is
// expensive, so the result is memoized with a TTL; Invalidate drops it early
// when the directory changes.
type ResolverUseCase struct {
	infos     CompanyInfoRepository
	directory CompanyService
	ttl       time.Duration
	logger    zerolog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	mapping map[string]int
	builtAt time.Time
}

// NewResolverUseCase creates a new ResolverUseCase.
func NewResolverUseCase(infos CompanyInfoRepository, directory CompanyService, logger zerolog.Logger) *ResolverUseCase {
	return &ResolverUseCase{
		infos:     infos,
		directory: directory,
		ttl:       ResolverTTL,
		logger:    logger,
	}
}

// WithTTL overrides the memo lifetime. Non-positive values keep the default.
func (uc *ResolverUseCase) WithTTL(ttl time.Duration) *ResolverUseCase {
	if ttl > 0 {
		uc.ttl = ttl
	}
	return uc
}

// Map returns the IBAN-to-company-id mapping, rebuilding it when stale.
// Concurrent rebuilds collapse into one.
func (uc *ResolverUseCase) Map(ctx context.Context) (map[string]int, error) {
	uc.mu.RLock()
	if uc.mapping != nil && time.Since(uc.builtAt) < uc.ttl {
		mapping := uc.mapping
		uc.mu.RUnlock()
		return mapping, nil
	}
	uc.mu.RUnlock()

	result, err, _ := uc.group.Do("resolver", func() (any, error) {
		uc.mu.RLock()
		if uc.mapping != nil && time.Since(uc.builtAt) < uc.ttl {
			mapping := uc.mapping
			uc.mu.RUnlock()
			return mapping, nil
		}
		uc.mu.RUnlock()

		mapping, err := uc.build(ctx)
		if err != nil {
			return nil, err
		}

		uc.mu.Lock()
		uc.mapping = mapping
		uc.builtAt = time.Now()
		uc.mu.Unlock()

		return mapping, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(map[string]int), nil
}

// Invalidate drops the memoized mapping. Call after the directory changes.
func (uc *ResolverUseCase) Invalidate() {
	uc.mu.Lock()
	uc.mapping = nil
	uc.mu.Unlock()
}

func (uc *ResolverUseCase) build(ctx context.Context) (map[string]int, error) {
	infos, err := uc.infos.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	mapping := make(map[string]int)
	for _, info := range infos {
		company, err := uc.directory.GetByID(ctx, info.CompanyID)
		if err != nil {
			return nil, err
		}

		for _, iban := range company.IBANs {
			mapping[iban] = info.CompanyID
		}
	}

	uc.logger.Info().Int("ibans", len(mapping)).Msg("built iban-to-company map")

	return mapping, nil
}
