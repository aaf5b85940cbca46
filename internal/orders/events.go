package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-franchise-backoffice.git/internal/inventory"
)

const (
	EventOrderStatusChanged = "OrderStatusChanged"
	EventInventoryDeducted  = "InventoryDeducted"
	EventStockLow           = "StockLow"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "backoffice-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id / store_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type OrderStatusChangedPayload struct {
	OrderID    string `json:"order_id"`
	StoreID    string `json:"store_id"`
	PrevStatus Status `json:"prev_status"`
	NewStatus  Status `json:"new_status"`
	Deducted   bool   `json:"deducted"` // true kalau transisi memicu pemotongan stok
}

type InventoryDeductedPayload struct {
	OrderID       string                   `json:"order_id"`
	StoreID       string                   `json:"store_id"`
	CorrelationID string                   `json:"correlation_id"` // ORDER-{order_id}
	Lines         []inventory.DeductedLine `json:"lines"`
}

type StockLowPayload struct {
	StoreID         string          `json:"store_id"`
	StoreMaterialID string          `json:"store_material_id"`
	MaterialID      string          `json:"material_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	Optimal         decimal.Decimal `json:"optimal"`
	Unit            string          `json:"unit"`
}
