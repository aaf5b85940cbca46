package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// AuditLog mencatat jejak konsumsi bahan per order, sekali tulis.
// Tidak ada jalur update/delete; memo membawa correlation id ORDER-{order_id}
// supaya "kenapa material X berkurang Y" bisa dirunut balik ke ordernya.
type AuditLog struct{ DB *pgxpool.Pool }

// LogDeduction menulis satu entri per (order, material) di transaksi pemanggil.
func (a *AuditLog) LogDeduction(ctx context.Context, tx pgx.Tx, orderID string, lines []DeductedLine, correlationID string, at time.Time) error {
	for _, ln := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO usage_logs(id, order_id, store_material_id, qty, unit, memo, created_at)
			VALUES ($1,$2,$3,$4::numeric,$5,$6,$7)`,
			uuid.NewString(), orderID, ln.StoreMaterialID, ln.Qty.String(), ln.Unit, correlationID, at)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListByStore = feed audit untuk pelaporan, terbaru dulu.
func (a *AuditLog) ListByStore(ctx context.Context, storeID string, limit int) ([]UsageLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := a.DB.Query(ctx, `
		SELECT u.id, u.order_id, u.store_material_id, u.qty::text, u.unit, u.memo, u.created_at
		FROM usage_logs u
		JOIN store_materials sm ON sm.id = u.store_material_id
		WHERE sm.store_id=$1
		ORDER BY u.created_at DESC
		LIMIT $2`, storeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsageLogs(rows)
}

// ListByOrder merunut semua konsumsi satu order.
func (a *AuditLog) ListByOrder(ctx context.Context, orderID string) ([]UsageLog, error) {
	rows, err := a.DB.Query(ctx, `
		SELECT id, order_id, store_material_id, qty::text, unit, memo, created_at
		FROM usage_logs
		WHERE order_id=$1
		ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsageLogs(rows)
}

func scanUsageLogs(rows pgx.Rows) ([]UsageLog, error) {
	var out []UsageLog
	for rows.Next() {
		var u UsageLog
		var qty string
		if err := rows.Scan(&u.ID, &u.OrderID, &u.StoreMaterialID, &qty, &u.Unit, &u.Memo, &u.CreatedAt); err != nil {
			return nil, err
		}
		var err error
		if u.Qty, err = decimal.NewFromString(qty); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
