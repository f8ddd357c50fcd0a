package client

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
)

type companyDTO struct {
	ID      int      `json:"id"`
	IBANs   []string `json:"ibans"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
}

func (d companyDTO) toDomain() domain.Company {
	return domain.Company{
		ID:      d.ID,
		IBANs:   d.IBANs,
		Name:    d.Name,
		Address: d.Address,
	}
}

type sepaTransactionDTO struct {
	ID        uuid.UUID       `json:"id"`
	Payer     string          `json:"payer"`
	Receiver  string          `json:"receiver"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Timestamp string          `json:"timestamp"`
}

func (d sepaTransactionDTO) toDomain() (domain.Transaction, error) {
	ts, err := parseTimestamp(d.Timestamp)
	if err != nil {
		return domain.Transaction{}, err
	}

	return domain.Transaction{
		ID:        d.ID,
		Amount:    d.Amount,
		Currency:  d.Currency,
		Timestamp: ts,
		Issuer:    d.Payer,
		Recipient: d.Receiver,
		Feed:      domain.FeedSepa,
	}, nil
}

type swiftTransactionDTO struct {
	ID          uuid.UUID       `json:"id"`
	Sender      string          `json:"sender"`
	Beneficiary string          `json:"beneficiary"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Timestamp   string          `json:"timestamp"`
}

func (d swiftTransactionDTO) toDomain() (domain.Transaction, error) {
	ts, err := parseTimestamp(d.Timestamp)
	if err != nil {
		return domain.Transaction{}, err
	}

	return domain.Transaction{
		ID:        d.ID,
		Amount:    d.Amount,
		Currency:  d.Currency,
		Timestamp: ts,
		Issuer:    d.Sender,
		Recipient: d.Beneficiary,
		Feed:      domain.FeedSwift,
	}, nil
}

type exchangeRateDTO struct {
	Currency string  `json:"currency"`
	EURRate  float64 `json:"eur_rate"`
	USDRate  float64 `json:"usd_rate"`
}

func (d exchangeRateDTO) toDomain() domain.ExchangeRate {
	return domain.ExchangeRate{
		Currency: d.Currency,
		EURRate:  d.EURRate,
		USDRate:  d.USDRate,
	}
}

func parseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse transaction timestamp %q: %w", s, err)
	}
	return ts, nil
}
