package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// StoreMaterial = binding material pusat ke slot stok lokal gerai.
// Maksimal satu mapping per (store, material); mapping yang hilang untuk
// material yang dipakai resep adalah error integritas data.
type StoreMaterial struct {
	ID         string
	StoreID    string
	MaterialID string
	Name       string
	BaseUnit   string
	OptimalQty decimal.Decimal // ambang stok menipis
}

// ConsumeLine = satu baris permintaan pemotongan, sudah ter-resolve ke slot gerai.
type ConsumeLine struct {
	StoreMaterialID string
	MaterialID      string
	Qty             decimal.Decimal
	Unit            string
}

// DeductedLine = hasil pemotongan satu baris ledger (dipakai event & audit).
type DeductedLine struct {
	StoreMaterialID string          `json:"store_material_id"`
	MaterialID      string          `json:"material_id"`
	Qty             decimal.Decimal `json:"qty"`
	Unit            string          `json:"unit"`
	StockAfter      decimal.Decimal `json:"stock_after"`
	OptimalQty      decimal.Decimal `json:"optimal_qty"`
	Low             bool            `json:"low"`
}

// Row = read model satu slot stok gerai (dipakai list & alerting).
type Row struct {
	StoreMaterialID string          `json:"store_material_id"`
	MaterialID      string          `json:"material_id"`
	Name            string          `json:"name"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	OptimalQty      decimal.Decimal `json:"optimal_qty"`
	Low             bool            `json:"low"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// UsageLog = jejak audit sekali-tulis per (order, material).
type UsageLog struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"order_id"`
	StoreMaterialID string          `json:"store_material_id"`
	Qty             decimal.Decimal `json:"qty"`
	Unit            string          `json:"unit"`
	Memo            string          `json:"memo"` // correlation id: ORDER-{order_id}
	CreatedAt       time.Time       `json:"created_at"`
}

const (
	DocTypeOrder   = "ORDER"
	DocTypeRestock = "RESTOCK"
)
