package orders

const (
	TopicOrderStatusChanged = "order.status.changed"
	TopicInventoryDeducted  = "inventory.deducted"
	TopicStockLow           = "inventory.stock.low"
)

// Partition key per order supaya event 1 order maintain urutan.
func PartitionKey(id string) []byte { return []byte(id) }
