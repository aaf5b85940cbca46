package orders

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-franchise-backoffice.git/internal/catalog"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/inventory"
	kafkax "github.com/ariefcatur/go-franchise-backoffice.git/internal/kafka"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/redisx"
)

// CorrelationID = token idempoten/penelusuran turunan order id, ikut tercatat
// di memo movement & usage log.
func CorrelationID(orderID string) string { return "ORDER-" + orderID }

// ---- kolaborator transisi (pgx-backed di produksi, fake di test) ----

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type OrderStore interface {
	LockForTransition(ctx context.Context, tx pgx.Tx, orderID string) (Order, error)
	SetStatusTx(ctx context.Context, tx pgx.Tx, orderID string, next Status, at time.Time) error
}

type MappingSource interface {
	MappingFor(ctx context.Context, storeID, materialID string) (inventory.StoreMaterial, error)
}

type Ledger interface {
	Consume(ctx context.Context, tx pgx.Tx, storeID string, lines []inventory.ConsumeLine, memo string, at time.Time) ([]inventory.DeductedLine, error)
}

type AuditLogger interface {
	LogDeduction(ctx context.Context, tx pgx.Tx, orderID string, lines []inventory.DeductedLine, correlationID string, at time.Time) error
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// TransitionService = pemilik state machine status order.
// Seluruh urutan potong-stok (kalkulasi -> mapping -> ledger -> audit) dan
// penulisan status jalan dalam SATU transaksi: gagal di mana pun, status batal.
type TransitionService struct {
	DB      TxBeginner
	Orders  OrderStore
	Recipes catalog.RecipeSource
	Mapping MappingSource
	Ledger  Ledger
	Audit   AuditLogger

	// efek samping pasca-commit, best effort (boleh nil di test)
	Redis          *redis.Client
	ProducerStatus Publisher // order.status.changed
	ProducerDeduct Publisher // inventory.deducted
	ProducerLow    Publisher // inventory.stock.low
	ServiceName    string
}

type TransitionResult struct {
	OrderID    string                   `json:"order_id"`
	PrevStatus Status                   `json:"prev_status"`
	NewStatus  Status                   `json:"new_status"`
	NoOp       bool                     `json:"no_op"`
	Deducted   []inventory.DeductedLine `json:"deducted,omitempty"`
}

// UpdateStatus menulis status baru untuk sebuah order.
//
// Penulisan status sengaja permisif (warisan sistem lama): status apapun boleh
// di-set selama dikenal; lompatan di luar alur kanonik hanya dicatat di log.
// Pengerasan idempotensi: status sama -> no-op sukses, supaya retry client
// atas PREPARING->COOKING tidak memotong stok dua kali.
func (s *TransitionService) UpdateStatus(ctx context.Context, orderID string, next Status, traceID string) (TransitionResult, error) {
	next, err := ParseStatus(string(next))
	if err != nil {
		return TransitionResult{}, err
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return TransitionResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order, err := s.Orders.LockForTransition(ctx, tx, orderID)
	if err != nil {
		return TransitionResult{}, err
	}
	prev := order.Status

	if prev == next {
		// sudah di status target; kemungkinan retry setelah timeout yang
		// sebenarnya sudah commit. Jangan potong stok lagi.
		if err := tx.Commit(ctx); err != nil {
			return TransitionResult{}, err
		}
		return TransitionResult{OrderID: orderID, PrevStatus: prev, NewStatus: next, NoOp: true}, nil
	}

	if !OnGraph(prev, next) {
		log.Printf("off-graph transition order=%s %s->%s", orderID, prev, next)
	}

	now := time.Now().UTC()
	if err := s.Orders.SetStatusTx(ctx, tx, orderID, next, now); err != nil {
		return TransitionResult{}, err
	}

	var deducted []inventory.DeductedLine
	if TriggersDeduction(prev, next) {
		if deducted, err = s.applyUsage(ctx, tx, order, now); err != nil {
			return TransitionResult{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return TransitionResult{}, err
	}

	s.afterCommit(ctx, order, prev, next, deducted, traceID)
	return TransitionResult{OrderID: orderID, PrevStatus: prev, NewStatus: next, Deducted: deducted}, nil
}

// applyUsage = urutan potong stok saat produksi dimulai:
// agregasi kebutuhan per resep -> resolve slot gerai -> potong ledger -> audit log.
// Semua di transaksi yang sama dengan penulisan status.
func (s *TransitionService) applyUsage(ctx context.Context, tx pgx.Tx, order Order, at time.Time) ([]inventory.DeductedLine, error) {
	lines := make([]catalog.LineInput, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, catalog.LineInput{MenuID: l.MenuID, Qty: l.Qty})
	}

	need, err := catalog.NeedForOrder(ctx, s.Recipes, lines)
	if err != nil {
		return nil, err
	}
	if len(need) == 0 {
		return nil, nil // order kosong / resep proses-only semua: valid, tidak ada potongan
	}

	corr := CorrelationID(order.ID)

	// materialId pusat -> slot stok gerai; mapping hilang = error integritas data,
	// seluruh transisi batal (tidak ada potongan parsial).
	consume := make([]inventory.ConsumeLine, 0, len(need))
	for materialID, qty := range need {
		sm, err := s.Mapping.MappingFor(ctx, order.StoreID, materialID)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", order.ID, err)
		}
		consume = append(consume, inventory.ConsumeLine{
			StoreMaterialID: sm.ID,
			MaterialID:      materialID,
			Qty:             qty,
			Unit:            sm.BaseUnit,
		})
	}

	deducted, err := s.Ledger.Consume(ctx, tx, order.StoreID, consume, corr, at)
	if err != nil {
		return nil, err
	}
	if err := s.Audit.LogDeduction(ctx, tx, order.ID, deducted, corr, at); err != nil {
		return nil, err
	}
	return deducted, nil
}

// afterCommit: cache status + publish event. Best effort; transisi sudah commit.
func (s *TransitionService) afterCommit(ctx context.Context, order Order, prev, next Status, deducted []inventory.DeductedLine, traceID string) {
	if s.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, order.ID)
		val := fmt.Sprintf(`{"status":%q}`, next)
		_ = s.Redis.Set(ctx, key, val, redisx.TTLStatusCache).Err()
	}

	if s.ProducerStatus != nil {
		s.publish(s.ProducerStatus, EventOrderStatusChanged, order.ID, traceID,
			OrderStatusChangedPayload{
				OrderID: order.ID, StoreID: order.StoreID,
				PrevStatus: prev, NewStatus: next, Deducted: len(deducted) > 0,
			})
	}
	if len(deducted) == 0 {
		return
	}
	if s.ProducerDeduct != nil {
		s.publish(s.ProducerDeduct, EventInventoryDeducted, order.ID, traceID,
			InventoryDeductedPayload{
				OrderID: order.ID, StoreID: order.StoreID,
				CorrelationID: CorrelationID(order.ID), Lines: deducted,
			})
	}
	if s.ProducerLow != nil {
		for _, d := range deducted {
			if !d.Low {
				continue
			}
			s.publish(s.ProducerLow, EventStockLow, order.StoreID, traceID,
				StockLowPayload{
					StoreID:         order.StoreID,
					StoreMaterialID: d.StoreMaterialID,
					MaterialID:      d.MaterialID,
					Quantity:        d.StockAfter,
					Optimal:         d.OptimalQty,
					Unit:            d.Unit,
				})
		}
	}
}

func (s *TransitionService) publish(p Publisher, eventType, correlation, traceID string, payload any) {
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       traceID,
		CorrelationID: correlation,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(PartitionKey(correlation), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
