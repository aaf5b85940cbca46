package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-franchise-backoffice.git/internal/kafka"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/orders"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/redisx"
)

// Service mendengarkan event stok menipis hasil pemotongan order dan menyimpan
// alert terakhir per slot gerai. Pengiriman push ke perangkat di luar lingkup;
// alert di Redis dikonsumsi layar back-office.
type Service struct {
	Redis       *redis.Client
	ServiceName string
}

// HandleStockLow: dipasang sebagai handler consumer.
func (s *Service) HandleStockLow(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventStockLow {
		return nil // bukan urusan kita, commit saja
	}

	// dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.StockLowPayload](env.Payload)
	if err != nil {
		return err
	}

	// simpan alert terakhir per (store, slot); overwrite tidak masalah,
	// yang dibutuhkan layar adalah posisi terkini.
	akey := fmt.Sprintf(redisx.KeyStockLowAlert, p.StoreID, p.StoreMaterialID)
	if err := s.Redis.Set(ctx, akey, string(env.Payload), redisx.TTLStockLowAlert).Err(); err != nil {
		return err
	}

	log.Printf("stock low: store=%s material=%s qty=%s/%s %s",
		p.StoreID, p.MaterialID, p.Quantity, p.Optimal, p.Unit)
	return nil
}
