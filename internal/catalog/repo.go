package catalog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) RecipeLinesFor(ctx context.Context, menuID string) ([]RecipeLine, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT menu_id, COALESCE(material_id, ''), qty_per_unit::text, unit
		FROM menu_recipes WHERE menu_id=$1`, menuID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecipeLine
	for rows.Next() {
		var rl RecipeLine
		var qty string
		if err := rows.Scan(&rl.MenuID, &rl.MaterialID, &qty, &rl.Unit); err != nil {
			return nil, err
		}
		if rl.QtyPerUnit, err = decimal.NewFromString(qty); err != nil {
			return nil, err
		}
		out = append(out, rl)
	}
	return out, rows.Err()
}

func (r *Repo) ListMenus(ctx context.Context) ([]Menu, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, price_cents, active FROM menus ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Menu
	for rows.Next() {
		var m Menu
		if err := rows.Scan(&m.ID, &m.Name, &m.PriceCents, &m.Active); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
