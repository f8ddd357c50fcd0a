package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
)

const companyInfoColumns = `record_id, company_id, balance_eur,
	last_sepa_transaction_id, last_sepa_transaction_at,
	last_swift_transaction_id, last_swift_transaction_at,
	country_details, updated_at`

// CompanyInfoRepository implements usecase.CompanyInfoRepository on
// PostgreSQL. Writes go through the retrier so transient serialization
// failures do not surface to callers.
type CompanyInfoRepository struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewCompanyInfoRepository creates a new CompanyInfoRepository.
func NewCompanyInfoRepository(pool *pgxpool.Pool, retrier *Retrier) *CompanyInfoRepository {
	return &CompanyInfoRepository{pool: pool, retrier: retrier}
}

// FindByCompanyID returns the ledger record of one company.
func (r *CompanyInfoRepository) FindByCompanyID(ctx context.Context, companyID int) (*domain.CompanyInfo, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+companyInfoColumns+` FROM company_info WHERE company_id = $1`,
		companyID)

	info, err := scanCompanyInfo(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCompanyInfoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find company info %d: %w", companyID, err)
	}

	return info, nil
}

// FindAll returns every ledger record.
func (r *CompanyInfoRepository) FindAll(ctx context.Context) ([]*domain.CompanyInfo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+companyInfoColumns+` FROM company_info ORDER BY company_id`)
	if err != nil {
		return nil, fmt.Errorf("find all company info: %w", err)
	}
	defer rows.Close()

	var infos []*domain.CompanyInfo
	for rows.Next() {
		info, err := scanCompanyInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company info: %w", err)
		}
		infos = append(infos, info)
	}

	return infos, rows.Err()
}

// Save upserts a ledger record keyed by company id.
func (r *CompanyInfoRepository) Save(ctx context.Context, info *domain.CompanyInfo) error {
	details, err := json.Marshal(info.CountryDetails)
	if err != nil {
		return fmt.Errorf("marshal country details: %w", err)
	}

	return r.retrier.Retry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO company_info (`+companyInfoColumns+`)
			 VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (company_id) DO UPDATE SET
				balance_eur               = EXCLUDED.balance_eur,
				last_sepa_transaction_id  = EXCLUDED.last_sepa_transaction_id,
				last_sepa_transaction_at  = EXCLUDED.last_sepa_transaction_at,
				last_swift_transaction_id = EXCLUDED.last_swift_transaction_id,
				last_swift_transaction_at = EXCLUDED.last_swift_transaction_at,
				country_details           = EXCLUDED.country_details,
				updated_at                = EXCLUDED.updated_at`,
			info.RecordID,
			info.CompanyID,
			info.BalanceEUR.String(),
			info.LastSepaTransactionID,
			info.LastSepaTransactionAt,
			info.LastSwiftTransactionID,
			info.LastSwiftTransactionAt,
			details,
			info.UpdatedAt,
		)
		return err
	})
}

// MaxCompanyID returns the highest company id known to the ledger, 0 when
// the ledger is empty.
func (r *CompanyInfoRepository) MaxCompanyID(ctx context.Context) (int, error) {
	var maxID int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(company_id), 0) FROM company_info`).Scan(&maxID)
	if err != nil {
		return 0, fmt.Errorf("max company id: %w", err)
	}

	return maxID, nil
}

// FindLatestByFeed returns the record carrying the newest last-processed
// marker for a feed. Records that never saw the feed do not qualify.
func (r *CompanyInfoRepository) FindLatestByFeed(ctx context.Context, feed domain.FeedType) (*domain.CompanyInfo, error) {
	column := "last_sepa_transaction_at"
	if feed == domain.FeedSwift {
		column = "last_swift_transaction_at"
	}

	row := r.pool.QueryRow(ctx,
		`SELECT `+companyInfoColumns+` FROM company_info
		 WHERE `+column+` IS NOT NULL
		 ORDER BY `+column+` DESC LIMIT 1`)

	info, err := scanCompanyInfo(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCompanyInfoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find latest %s marker: %w", feed, err)
	}

	return info, nil
}

func scanCompanyInfo(row pgx.Row) (*domain.CompanyInfo, error) {
	var (
		info       domain.CompanyInfo
		balance    pgtype.Numeric
		sepaID     *uuid.UUID
		sepaAt     *time.Time
		swiftID    *uuid.UUID
		swiftAt    *time.Time
		rawDetails []byte
	)

	err := row.Scan(
		&info.RecordID,
		&info.CompanyID,
		&balance,
		&sepaID,
		&sepaAt,
		&swiftID,
		&swiftAt,
		&rawDetails,
		&info.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	info.BalanceEUR, err = toDecimal(balance)
	if err != nil {
		return nil, err
	}

	info.LastSepaTransactionID = sepaID
	info.LastSepaTransactionAt = sepaAt
	info.LastSwiftTransactionID = swiftID
	info.LastSwiftTransactionAt = swiftAt

	if len(rawDetails) > 0 {
		if err := json.Unmarshal(rawDetails, &info.CountryDetails); err != nil {
			return nil, fmt.Errorf("unmarshal country details: %w", err)
		}
	}

	return &info, nil
}

func toDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(n.Int.String())
	if err != nil {
		return decimal.Zero, err
	}

	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d, nil
}
