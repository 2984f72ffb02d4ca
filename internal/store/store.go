package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"investpulse/internal/models"
)

type Store interface {
	ListSecurities(ctx context.Context) ([]models.Security, error)
	CreateSecurity(ctx context.Context, s models.Security) (models.Security, error)
	UpdateSecurityPrice(ctx context.Context, id int64, price decimal.Decimal) error
	ListOperations(ctx context.Context) ([]models.InvestmentOperation, error)
	InsertOperation(ctx context.Context, op models.InvestmentOperation) error
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) ListSecurities(ctx context.Context) ([]models.Security, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticker, name, current_price
		FROM securities ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query securities: %w", err)
	}
	defer rows.Close()

	securities := make([]models.Security, 0)
	for rows.Next() {
		var sec models.Security
		if err := rows.Scan(&sec.ID, &sec.Ticker, &sec.Name, &sec.CurrentPrice); err != nil {
			return nil, fmt.Errorf("scan security: %w", err)
		}
		securities = append(securities, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate securities: %w", err)
	}
	return securities, nil
}

func (s *SQLiteStore) CreateSecurity(ctx context.Context, sec models.Security) (models.Security, error) {
	sec.Ticker = strings.ToUpper(strings.TrimSpace(sec.Ticker))
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO securities(id, ticker, name, current_price)
		VALUES (?, ?, ?, ?)`, sec.ID, sec.Ticker, sec.Name, sec.CurrentPrice)
	if err != nil {
		return models.Security{}, fmt.Errorf("insert security: %w", err)
	}
	return sec, nil
}

func (s *SQLiteStore) UpdateSecurityPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE securities SET current_price = ? WHERE id = ?`, price, id)
	if err != nil {
		return fmt.Errorf("update security price: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("security rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *SQLiteStore) ListOperations(ctx context.Context) ([]models.InvestmentOperation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, security_id, quantity, purchase_price_per_share, commission, target_buy_price, created_at
		FROM operations ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	ops := make([]models.InvestmentOperation, 0)
	for rows.Next() {
		var op models.InvestmentOperation
		if err := rows.Scan(&op.ID, &op.SecurityID, &op.Quantity, &op.PurchasePricePerShare,
			&op.Commission, &op.TargetBuyPrice, &op.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}

func (s *SQLiteStore) InsertOperation(ctx context.Context, op models.InvestmentOperation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operations(id, security_id, quantity, purchase_price_per_share, commission, target_buy_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		op.ID, op.SecurityID, op.Quantity, op.PurchasePricePerShare, op.Commission, op.TargetBuyPrice, op.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}
	return nil
}
