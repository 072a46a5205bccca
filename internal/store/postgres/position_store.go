package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// PositionStore implements domain.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *pgxpool.Pool
}

// NewPositionStore creates a new PositionStore backed by the given connection pool.
func NewPositionStore(pool *pgxpool.Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

const positionSelectCols = `id, symbol, entry_price, quantity, entry_time,
	portfolio_id, category, stop_loss, target, horizon_end, status, notes,
	exit_price, exit_time, exit_reason, realized_pnl, realized_pnl_percent,
	last_known_price, created_at, updated_at`

func scanPositionRow(row pgx.Row) (domain.Position, error) {
	var p domain.Position
	var category, status string

	err := row.Scan(
		&p.ID, &p.Symbol, &p.EntryPrice, &p.Quantity, &p.EntryTime,
		&p.PortfolioID, &category, &p.StopLoss, &p.Target, &p.HorizonEnd,
		&status, &p.Notes,
		&p.ExitPrice, &p.ExitTime, &p.ExitReason, &p.RealizedPnL, &p.RealizedPnLPercent,
		&p.LastKnownPrice, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Position{}, err
	}
	p.Category = domain.Category(category)
	p.Status = domain.PositionStatus(status)
	return p, nil
}

func scanPositionRows(rows pgx.Rows) ([]domain.Position, error) {
	positions := []domain.Position{}
	for rows.Next() {
		p, err := scanPositionRow(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// Create inserts a new ACTIVE position.
func (s *PositionStore) Create(ctx context.Context, p domain.Position) error {
	const query = `
		INSERT INTO positions (
			id, symbol, entry_price, quantity, entry_time,
			portfolio_id, category, stop_loss, target, horizon_end,
			status, notes, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, NOW(), NOW()
		)`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Symbol, p.EntryPrice, p.Quantity, p.EntryTime,
		p.PortfolioID, string(p.Category), p.StopLoss, p.Target, p.HorizonEnd,
		string(p.Status), p.Notes,
	)
	if err != nil {
		return fmt.Errorf("postgres: create position %s: %w", p.ID, err)
	}
	return nil
}

// GetByID retrieves a single position by its ID.
func (s *PositionStore) GetByID(ctx context.Context, id string) (domain.Position, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+positionSelectCols+` FROM positions WHERE id = $1`, id)

	p, err := scanPositionRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Position{}, domain.ErrNotFound
		}
		return domain.Position{}, fmt.Errorf("postgres: get position %s: %w", id, err)
	}
	return p, nil
}

// List returns positions matching filter, oldest entry first.
func (s *PositionStore) List(ctx context.Context, filter domain.PositionFilter) ([]domain.Position, error) {
	query := `SELECT ` + positionSelectCols + ` FROM positions WHERE 1=1`
	args := []any{}
	argIdx := 1

	if filter.PortfolioID != "" {
		query += fmt.Sprintf(" AND portfolio_id = $%d", argIdx)
		args = append(args, filter.PortfolioID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Symbol != "" {
		query += fmt.Sprintf(" AND symbol = $%d", argIdx)
		args = append(args, filter.Symbol)
	}
	query += " ORDER BY entry_time ASC, id ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions: %w", err)
	}
	defer rows.Close()

	positions, err := scanPositionRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan positions: %w", err)
	}
	return positions, nil
}

// Transition moves an ACTIVE position to status and records the exit. The
// realized P&L is derived from the stored entry fields.
func (s *PositionStore) Transition(ctx context.Context, id string, status domain.PositionStatus, exit domain.ExitRecord) error {
	if status != domain.PositionStatusClosed && status != domain.PositionStatusStopped {
		return fmt.Errorf("postgres: transition %s to %s: %w", id, status, domain.ErrInvalidTransition)
	}

	const query = `
		UPDATE positions SET
			status               = $2,
			exit_price           = $3,
			exit_time            = $4,
			exit_reason          = $5,
			realized_pnl         = ($3 - entry_price) * quantity,
			realized_pnl_percent = CASE WHEN entry_price > 0
				THEN ($3 - entry_price) / entry_price * 100 ELSE 0 END,
			updated_at           = NOW()
		WHERE id = $1 AND status = 'ACTIVE'`

	tag, err := s.pool.Exec(ctx, query, id, string(status), exit.Price, exit.Time, exit.Reason)
	if err != nil {
		return fmt.Errorf("postgres: transition position %s: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Distinguish a missing row from one that already left ACTIVE.
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("postgres: transition position %s: %w", id, domain.ErrInvalidTransition)
}

// UpdateNotes replaces the free-text notes of a position.
func (s *PositionStore) UpdateNotes(ctx context.Context, id string, notes string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE positions SET notes = $2, updated_at = NOW() WHERE id = $1`, id, notes)
	if err != nil {
		return fmt.Errorf("postgres: update notes %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordPrices stores last observed prices in one batch round trip.
func (s *PositionStore) RecordPrices(ctx context.Context, prices map[string]float64) error {
	if len(prices) == 0 {
		return nil
	}

	const query = `
		UPDATE positions SET last_known_price = $2, updated_at = NOW()
		WHERE symbol = $1 AND status = 'ACTIVE'`

	batch := &pgx.Batch{}
	for symbol, price := range prices {
		batch.Queue(query, symbol, price)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres: record prices: %w", err)
	}
	return nil
}
