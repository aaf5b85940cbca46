package catalog

import "github.com/shopspring/decimal"

type Menu struct {
	ID         string
	Name       string
	PriceCents int
	Active     bool
}

// RecipeLine = deklarasi statis: 1 unit menu memakai berapa banyak material.
// MaterialID kosong berarti langkah proses saja (bukan stok), tidak ikut dihitung.
type RecipeLine struct {
	MenuID     string
	MaterialID string
	QtyPerUnit decimal.Decimal
	Unit       string
}

type Material struct {
	ID   string
	Name string
	Unit string
}
