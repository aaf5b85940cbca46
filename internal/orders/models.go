package orders

import "time"

type Order struct {
	ID         string
	ExternalID string
	StoreID    string
	Status     Status // lihat status.go
	TotalCents int
	OrderedAt  time.Time
	UpdatedAt  time.Time
	Lines      []OrderLine
}

// OrderLine immutable setelah order dibuat; harga di-snapshot dari menu.
type OrderLine struct {
	ID         string
	OrderID    string
	MenuID     string
	Qty        int
	PriceCents int
}
