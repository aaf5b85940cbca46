package alerts

import (
	"context"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/ariefcatur/go-franchise-backoffice.git/internal/kafka"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/orders"
)

func TestHandleStockLow_IgnoresOtherEventTypes(t *testing.T) {
	svc := &Service{ServiceName: "test-alerts"} // Redis tidak disentuh sebelum cek tipe

	env := orders.Envelope{
		EventID:   "ev-1",
		EventType: orders.EventOrderStatusChanged,
		Payload:   kafkax.MustMarshal(orders.OrderStatusChangedPayload{OrderID: "o1"}),
	}
	err := svc.HandleStockLow(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(env)})
	assert.NoError(t, err)
}

func TestHandleStockLow_MalformedEnvelope(t *testing.T) {
	svc := &Service{ServiceName: "test-alerts"}

	err := svc.HandleStockLow(context.Background(), kafkago.Message{Value: []byte("not-json")})
	require.Error(t, err)
}
