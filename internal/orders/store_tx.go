package orders

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// Operasi order yang harus jalan di dalam transaksi transisi status.

// LockForTransition mengunci baris order (FOR UPDATE) dan memuat line-nya.
// Kunci di baris order men-serialize dua transisi konkuren untuk order yang sama.
func (r *Repo) LockForTransition(ctx context.Context, tx pgx.Tx, orderID string) (Order, error) {
	var o Order
	var s string
	err := tx.QueryRow(ctx, `
		SELECT id, external_id, store_id, status, total_cents, ordered_at, updated_at
		FROM orders WHERE id=$1
		FOR UPDATE`, orderID).
		Scan(&o.ID, &o.ExternalID, &o.StoreID, &s, &o.TotalCents, &o.OrderedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(s)

	rows, err := tx.Query(ctx, `
		SELECT id, order_id, menu_id, qty, price_cents
		FROM order_lines WHERE order_id=$1`, orderID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.MenuID, &l.Qty, &l.PriceCents); err != nil {
			return Order{}, err
		}
		o.Lines = append(o.Lines, l)
	}
	return o, rows.Err()
}

func (r *Repo) SetStatusTx(ctx context.Context, tx pgx.Tx, orderID string, next Status, at time.Time) error {
	ct, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`,
		orderID, string(next), at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}
