package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// RecipeSource = lookup resep per menu (read-only reference data).
type RecipeSource interface {
	RecipeLinesFor(ctx context.Context, menuID string) ([]RecipeLine, error)
}

// LineInput = satu baris order: menu + jumlah pesan.
type LineInput struct {
	MenuID string
	Qty    int
}

// NeedForOrder menghitung total kebutuhan material untuk seluruh order:
// materialID -> total qty. Murni agregasi, tanpa efek samping.
//
// Aturan:
//   - qty <= 0 dianggap 1 (defensif; validasi create order harusnya sudah menjaga)
//   - baris resep tanpa material (proses-only) dilewati
//   - material yang sama di beberapa menu/baris diakumulasi
//
// Catatan: TIDAK ada konversi satuan. Qty dijumlah apa adanya mengikuti satuan
// yang dideklarasikan resep; resep yang memakai satuan berbeda untuk material
// yang sama adalah error penyusunan data, bukan urusan kalkulator ini.
func NeedForOrder(ctx context.Context, src RecipeSource, lines []LineInput) (map[string]decimal.Decimal, error) {
	need := make(map[string]decimal.Decimal)

	for _, ln := range lines {
		if ln.MenuID == "" {
			continue
		}
		qty := ln.Qty
		if qty <= 0 {
			qty = 1
		}

		recipe, err := src.RecipeLinesFor(ctx, ln.MenuID)
		if err != nil {
			return nil, err
		}
		for _, r := range recipe {
			if r.MaterialID == "" {
				continue // proses-only, tidak menyentuh stok
			}
			total := r.QtyPerUnit.Mul(decimal.NewFromInt(int64(qty)))
			need[r.MaterialID] = need[r.MaterialID].Add(total)
		}
	}
	return need, nil
}
