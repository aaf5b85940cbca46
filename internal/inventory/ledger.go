package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrSlotNotFound      = errors.New("inventory slot not found")
)

// skala kuantitas ledger: DECIMAL(15,3), pembulatan half-up.
const qtyScale = 3

func Quantize(d decimal.Decimal) decimal.Decimal { return d.Round(qtyScale) }

// ApplyDeduct = aritmetika inti satu baris pemotongan: current - req.
// Floor policy: tolak kalau hasil akan negatif (tidak ada clamp ke nol).
// low = posisi akhir sudah menyentuh ambang optimal.
func ApplyDeduct(current, req, optimal decimal.Decimal) (after decimal.Decimal, low bool, err error) {
	req = Quantize(req)
	if current.LessThan(req) {
		return decimal.Decimal{}, false,
			fmt.Errorf("%w: current=%s required=%s", ErrInsufficientStock, current, req)
	}
	after = current.Sub(req)
	return after, after.LessThanOrEqual(optimal), nil
}

// Ledger = satu-satunya pintu mutasi kuantitas stok gerai.
// Setiap mutasi mengunci baris (FOR UPDATE) lalu menulis riwayat movement;
// flow masuk (restock) memakai disiplin kunci yang sama dengan pemotongan.
type Ledger struct{ DB *pgxpool.Pool }

// Consume memotong stok per baris di dalam transaksi pemanggil.
// Baris yang sama ter-serialize lewat row lock; baris berbeda tidak saling blokir.
// Kekurangan stok di baris manapun menggagalkan seluruh operasi (rollback oleh caller).
func (l *Ledger) Consume(ctx context.Context, tx pgx.Tx, storeID string, lines []ConsumeLine, memo string, at time.Time) ([]DeductedLine, error) {
	out := make([]DeductedLine, 0, len(lines))

	for _, ln := range lines {
		current, optimal, err := lockSlot(ctx, tx, storeID, ln.StoreMaterialID)
		if err != nil {
			return nil, err
		}

		after, low, err := ApplyDeduct(current, ln.Qty, optimal)
		if err != nil {
			return nil, fmt.Errorf("store_material=%s: %w", ln.StoreMaterialID, err)
		}

		if err := writeSlot(ctx, tx, storeID, ln.StoreMaterialID, after, low, at); err != nil {
			return nil, err
		}
		if err := writeMovement(ctx, tx, storeID, ln.StoreMaterialID,
			Quantize(ln.Qty).Neg(), after, DocTypeOrder, memo, at); err != nil {
			return nil, err
		}

		out = append(out, DeductedLine{
			StoreMaterialID: ln.StoreMaterialID,
			MaterialID:      ln.MaterialID,
			Qty:             Quantize(ln.Qty),
			Unit:            ln.Unit,
			StockAfter:      after,
			OptimalQty:      optimal,
			Low:             low,
		})
	}
	return out, nil
}

// Restock menambah stok lewat pintu yang sama (flow inbound), transaksi sendiri.
func (l *Ledger) Restock(ctx context.Context, storeID, storeMaterialID string, qty decimal.Decimal, memo string, at time.Time) (Row, error) {
	qty = Quantize(qty)
	if qty.Sign() <= 0 {
		return Row{}, fmt.Errorf("restock qty must be positive: %s", qty)
	}

	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Row{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, optimal, err := lockSlot(ctx, tx, storeID, storeMaterialID)
	if err != nil {
		return Row{}, err
	}
	after := current.Add(qty)
	low := after.LessThanOrEqual(optimal)

	if err := writeSlot(ctx, tx, storeID, storeMaterialID, after, low, at); err != nil {
		return Row{}, err
	}
	if err := writeMovement(ctx, tx, storeID, storeMaterialID, qty, after, DocTypeRestock, memo, at); err != nil {
		return Row{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Row{}, err
	}
	return Row{StoreMaterialID: storeMaterialID, Quantity: after, OptimalQty: optimal, Low: low, UpdatedAt: at}, nil
}

// ListByStore = read model stok (dipakai list & alerting hilir).
func (l *Ledger) ListByStore(ctx context.Context, storeID string) ([]Row, error) {
	rows, err := l.DB.Query(ctx, `
		SELECT i.store_material_id, sm.material_id, sm.name,
		       i.quantity::text, sm.base_unit, sm.optimal_qty::text, i.low, i.updated_at
		FROM store_inventory i
		JOIN store_materials sm ON sm.id = i.store_material_id
		WHERE i.store_id=$1
		ORDER BY sm.name`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var qty, optimal string
		if err := rows.Scan(&r.StoreMaterialID, &r.MaterialID, &r.Name,
			&qty, &r.Unit, &optimal, &r.Low, &r.UpdatedAt); err != nil {
			return nil, err
		}
		if r.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, err
		}
		if r.OptimalQty, err = decimal.NewFromString(optimal); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func lockSlot(ctx context.Context, tx pgx.Tx, storeID, storeMaterialID string) (current, optimal decimal.Decimal, err error) {
	var qty, opt string
	err = tx.QueryRow(ctx, `
		SELECT i.quantity::text, sm.optimal_qty::text
		FROM store_inventory i
		JOIN store_materials sm ON sm.id = i.store_material_id
		WHERE i.store_id=$1 AND i.store_material_id=$2
		FOR UPDATE OF i`, storeID, storeMaterialID).Scan(&qty, &opt)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Decimal{}, decimal.Decimal{},
			fmt.Errorf("%w: store=%s store_material=%s", ErrSlotNotFound, storeID, storeMaterialID)
	}
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	if current, err = decimal.NewFromString(qty); err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	if optimal, err = decimal.NewFromString(opt); err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	return current, optimal, nil
}

func writeSlot(ctx context.Context, tx pgx.Tx, storeID, storeMaterialID string, after decimal.Decimal, low bool, at time.Time) error {
	ct, err := tx.Exec(ctx, `
		UPDATE store_inventory
		SET quantity=$3::numeric, low=$4, updated_at=$5
		WHERE store_id=$1 AND store_material_id=$2`,
		storeID, storeMaterialID, after.String(), low, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("%w: store=%s store_material=%s", ErrSlotNotFound, storeID, storeMaterialID)
	}
	return nil
}

func writeMovement(ctx context.Context, tx pgx.Tx, storeID, storeMaterialID string, delta, after decimal.Decimal, docType, memo string, at time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO inventory_movements(id, store_id, store_material_id, qty_delta, stock_after, doc_type, memo, event_at)
		VALUES ($1,$2,$3,$4::numeric,$5::numeric,$6,$7,$8)`,
		uuid.NewString(), storeID, storeMaterialID, delta.String(), after.String(), docType, memo, at)
	return err
}
