package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ItemInput struct {
	MenuID string `json:"menu_id"`
	Qty    int    `json:"qty"`
}

var ErrNotFound = errors.New("order not found")

type Repo struct{ DB *pgxpool.Pool }

// CreateOrderTx: idempotent via external_id.
// - jika external_id sudah ada -> return existing order_id + total (existed=true).
// - harga di-snapshot dari table menus (hindari trust dari client).
func (r *Repo) CreateOrderTx(ctx context.Context, externalID, storeID string, items []ItemInput) (orderID string, total int, existed bool, err error) {
	row := r.DB.QueryRow(ctx, `SELECT id, total_cents FROM orders WHERE external_id=$1`, externalID)
	if err = row.Scan(&orderID, &total); err == nil {
		return orderID, total, true, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", 0, false, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", 0, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	menuIDs := make([]any, 0, len(items))
	params := ""
	for i, it := range items {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		menuIDs = append(menuIDs, it.MenuID)
	}
	rows, err := tx.Query(ctx, `SELECT id, price_cents FROM menus WHERE active AND id IN (`+params+`)`, menuIDs...)
	if err != nil {
		return "", 0, false, err
	}
	prices := map[string]int{}
	for rows.Next() {
		var id string
		var price int
		if err := rows.Scan(&id, &price); err != nil {
			return "", 0, false, err
		}
		prices[id] = price
	}
	if err := rows.Err(); err != nil {
		return "", 0, false, err
	}

	total = 0
	for _, it := range items {
		price, ok := prices[it.MenuID]
		if !ok {
			return "", 0, false, fmt.Errorf("menu not found: %s", it.MenuID)
		}
		if it.Qty <= 0 {
			return "", 0, false, fmt.Errorf("invalid qty for menu %s", it.MenuID)
		}
		total += price * it.Qty
	}

	orderID = uuid.NewString()
	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, external_id, store_id, status, total_cents, ordered_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$6)`,
		orderID, externalID, storeID, string(StatusPending), total, now)
	if err != nil {
		return "", 0, false, err
	}

	for _, it := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_lines(id, order_id, menu_id, qty, price_cents)
			VALUES ($1,$2,$3,$4,$5)`,
			uuid.NewString(), orderID, it.MenuID, it.Qty, prices[it.MenuID])
		if err != nil {
			return "", 0, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", 0, false, err
	}
	return orderID, total, false, nil
}

func (r *Repo) GetOrderStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

func (r *Repo) GetOrder(ctx context.Context, orderID string) (Order, error) {
	var o Order
	var s string
	err := r.DB.QueryRow(ctx, `
		SELECT id, external_id, store_id, status, total_cents, ordered_at, updated_at
		FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.ExternalID, &o.StoreID, &s, &o.TotalCents, &o.OrderedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(s)
	if o.Lines, err = r.linesFor(ctx, orderID); err != nil {
		return Order{}, err
	}
	return o, nil
}

// KitchenOrders = daftar order untuk layar dapur (KDS): order aktif satu gerai,
// yang masuk duluan tampil duluan.
func (r *Repo) KitchenOrders(ctx context.Context, storeID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, external_id, store_id, status, total_cents, ordered_at, updated_at
		FROM orders
		WHERE store_id=$1 AND status = ANY($2)
		ORDER BY ordered_at ASC`,
		storeID, []string{string(StatusPreparing), string(StatusCooking), string(StatusReady)})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		var s string
		if err := rows.Scan(&o.ID, &o.ExternalID, &o.StoreID, &s, &o.TotalCents, &o.OrderedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Status = Status(s)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Lines, err = r.linesFor(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repo) linesFor(ctx context.Context, orderID string) ([]OrderLine, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, menu_id, qty, price_cents
		FROM order_lines WHERE order_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderLine
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.MenuID, &l.Qty, &l.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
