package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrMappingNotFound = errors.New("store material mapping not found")

type MappingRepo struct{ DB *pgxpool.Pool }

// MappingFor: storeId + materialId -> slot stok gerai. Tidak ada mapping berarti
// material belum di-provision untuk gerai itu -> hard failure di pemanggil.
func (r *MappingRepo) MappingFor(ctx context.Context, storeID, materialID string) (StoreMaterial, error) {
	var sm StoreMaterial
	var optimal string
	err := r.DB.QueryRow(ctx, `
		SELECT id, store_id, material_id, name, base_unit, optimal_qty::text
		FROM store_materials
		WHERE store_id=$1 AND material_id=$2`, storeID, materialID).
		Scan(&sm.ID, &sm.StoreID, &sm.MaterialID, &sm.Name, &sm.BaseUnit, &optimal)
	if errors.Is(err, pgx.ErrNoRows) {
		return StoreMaterial{}, fmt.Errorf("%w: store=%s material=%s", ErrMappingNotFound, storeID, materialID)
	}
	if err != nil {
		return StoreMaterial{}, err
	}
	if sm.OptimalQty, err = decimal.NewFromString(optimal); err != nil {
		return StoreMaterial{}, err
	}
	return sm, nil
}
