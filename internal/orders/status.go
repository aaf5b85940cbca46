package orders

import (
	"errors"
	"strings"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusPreparing Status = "PREPARING"
	StatusCooking   Status = "COOKING"
	StatusReady     Status = "READY"
	StatusCompleted Status = "COMPLETED"
	StatusCanceled  Status = "CANCELED"
	StatusRefunded  Status = "REFUNDED"
)

var ErrUnknownStatus = errors.New("unknown order status")

// label tampilan (dipakai KDS / laporan), bukan nilai yang disimpan di DB.
var labels = map[Status]string{
	StatusPending:   "menunggu",
	StatusPaid:      "dibayar",
	StatusPreparing: "disiapkan",
	StatusCooking:   "dimasak",
	StatusReady:     "siap diambil",
	StatusCompleted: "selesai",
	StatusCanceled:  "dibatalkan",
	StatusRefunded:  "refund",
}

// validNext = alur kanonik. Penulisan status sendiri tetap permisif
// (perilaku sistem lama dipertahankan); tabel ini dipakai untuk menandai
// lompatan di luar alur, bukan menolaknya.
var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusPaid: true, StatusCanceled: true},
	StatusPaid:      {StatusPreparing: true, StatusCanceled: true, StatusRefunded: true},
	StatusPreparing: {StatusCooking: true, StatusCanceled: true, StatusRefunded: true},
	StatusCooking:   {StatusReady: true, StatusCanceled: true, StatusRefunded: true},
	StatusReady:     {StatusCompleted: true, StatusCanceled: true, StatusRefunded: true},
	StatusCompleted: {},
	StatusCanceled:  {},
	StatusRefunded:  {},
}

// ParseStatus menerima string dari client (case-insensitive, mis. "cooking").
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := labels[st]; !ok {
		return "", ErrUnknownStatus
	}
	return st, nil
}

func (s Status) Label() string { return labels[s] }

func (s Status) IsTerminal() bool { return len(validNext[s]) == 0 }

// OnGraph true kalau transisi mengikuti alur kanonik.
func OnGraph(from, to Status) bool { return validNext[from][to] }

// TriggersDeduction: satu-satunya transisi yang memicu pemotongan stok bahan.
func TriggersDeduction(prev, next Status) bool {
	return prev == StatusPreparing && next == StatusCooking
}
