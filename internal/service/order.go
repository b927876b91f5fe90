package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rationdesk/internal/model"
)

var (
	// ErrNoRowsFound is returned by Update when no order has the given id.
	// Orders that only exist on this device hit it routinely.
	ErrNoRowsFound = errors.New("No rows found")
	ErrEmptyPatch  = errors.New("empty patch")
)

const orderColumns = `id, user_id, phone_no, items, cost, pay_history, visit_time, order_status, COALESCE(delivery_status, ''), created_at`

// OrderService is the remote order store backed by PostgreSQL.
type OrderService struct {
	db *sql.DB
}

func NewOrderService(db *sql.DB) *OrderService {
	return &OrderService{db: db}
}

func (s *OrderService) ListByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM ration_orders
		WHERE order_status = $1
		ORDER BY created_at DESC
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.PhoneNo, &o.Items, &o.Cost, &o.Paid,
			&o.VisitTime, &o.OrderStatus, &o.DeliveryStatus, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return orders, nil
}

// Update applies the set fields of p to the order with the given id.
func (s *OrderService) Update(ctx context.Context, id string, p model.Patch) error {
	if p.Empty() {
		return ErrEmptyPatch
	}

	var (
		sets []string
		args []any
	)
	if p.OrderStatus != nil {
		args = append(args, string(*p.OrderStatus))
		sets = append(sets, fmt.Sprintf("order_status = $%d", len(args)))
	}
	if p.DeliveryStatus != nil {
		args = append(args, string(*p.DeliveryStatus))
		sets = append(sets, fmt.Sprintf("delivery_status = $%d", len(args)))
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE ration_orders SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNoRowsFound
	}
	return nil
}

// Seed inserts orders that are not present yet and reports how many were new.
func (s *OrderService) Seed(ctx context.Context, orders []model.Order) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var inserted int
	for _, o := range orders {
		var delivery any
		if o.DeliveryStatus != "" {
			delivery = string(o.DeliveryStatus)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO ration_orders (id, user_id, phone_no, items, cost, pay_history, visit_time, order_status, delivery_status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO NOTHING
		`, o.ID, o.UserID, o.PhoneNo, o.Items, o.Cost, o.Paid, o.VisitTime, string(o.OrderStatus), delivery, o.CreatedAt)
		if err != nil {
			return 0, fmt.Errorf("insert order %s: %w", o.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return inserted, nil
}
