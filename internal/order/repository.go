package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// OrderFilter narrows and pages ListOrders.
type OrderFilter struct {
	AccountID string
	Status    Status
	Page      int
	Size      int
}

// Repository persists orders and detail lines. The orchestrator is the sole
// writer; UpdateTotal is guarded by the order's version stamp and fails with
// ErrVersionConflict when the stamp moved since the read.
type Repository interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal, version int64) error
	CreateDetail(ctx context.Context, d *DetailLine) error
	GetDetailByID(ctx context.Context, id uuid.UUID) (*DetailLine, error)
	ListDetailsByOrder(ctx context.Context, orderID uuid.UUID, page, size int) ([]DetailLine, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateOrder(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO orders (id, account_id, status, total, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		o.ID, o.AccountID, string(o.Status), o.Total, o.Version, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `
		SELECT id, account_id, status, total, version, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	var o Order
	err := r.db.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.AccountID, &o.Status, &o.Total, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFound("order", id.String())
		}
		return nil, fmt.Errorf("repository: failed to fetch order: %w", err)
	}
	return &o, nil
}

func (r *postgresRepository) ListOrders(ctx context.Context, f OrderFilter) ([]Order, error) {
	query := `
		SELECT id, account_id, status, total, version, created_at, updated_at
		FROM orders
		WHERE ($1 = '' OR account_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, f.AccountID, string(f.Status), f.Size, f.Page*f.Size)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.AccountID, &o.Status, &o.Total, &o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed to iterate orders: %w", err)
	}
	return orders, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	query := `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("repository: failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("order", id.String())
	}
	return nil
}

func (r *postgresRepository) UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal, version int64) error {
	query := `
		UPDATE orders
		SET total = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $3
	`
	tag, err := r.db.Exec(ctx, query, id, total, version)
	if err != nil {
		return fmt.Errorf("repository: failed to update order total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("repository: failed to check order existence: %w", err)
		}
		if !exists {
			return NotFound("order", id.String())
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *postgresRepository) CreateDetail(ctx context.Context, d *DetailLine) error {
	query := `
		INSERT INTO order_details (id, order_id, game_id, quantity, unit_price, subtotal, tax, license_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		d.ID, d.OrderID, d.GameID, d.Quantity, d.UnitPrice, d.Subtotal, d.Tax, d.LicenseID, d.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: the license_id unique index is the last line of defence
		// against a double-claimed license reaching two lines.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &Error{Kind: KindConflict, Resource: "license", Msg: "license already attached to a line"}
		}
		return fmt.Errorf("repository: failed to insert detail line: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetDetailByID(ctx context.Context, id uuid.UUID) (*DetailLine, error) {
	query := `
		SELECT id, order_id, game_id, quantity, unit_price, subtotal, tax, license_id, created_at
		FROM order_details
		WHERE id = $1
	`
	var d DetailLine
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.OrderID, &d.GameID, &d.Quantity, &d.UnitPrice, &d.Subtotal, &d.Tax, &d.LicenseID, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFound("detail", id.String())
		}
		return nil, fmt.Errorf("repository: failed to fetch detail line: %w", err)
	}
	return &d, nil
}

func (r *postgresRepository) ListDetailsByOrder(ctx context.Context, orderID uuid.UUID, page, size int) ([]DetailLine, error) {
	query := `
		SELECT id, order_id, game_id, quantity, unit_price, subtotal, tax, license_id, created_at
		FROM order_details
		WHERE order_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, orderID, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list detail lines: %w", err)
	}
	defer rows.Close()

	var lines []DetailLine
	for rows.Next() {
		var d DetailLine
		if err := rows.Scan(&d.ID, &d.OrderID, &d.GameID, &d.Quantity, &d.UnitPrice, &d.Subtotal, &d.Tax, &d.LicenseID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan detail line: %w", err)
		}
		lines = append(lines, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed to iterate detail lines: %w", err)
	}
	return lines, nil
}
