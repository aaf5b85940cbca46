package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-franchise-backoffice.git/internal/inventory"
)

type InventoryHandler struct {
	Ledger *inventory.Ledger
	Audit  *inventory.AuditLog
}

type RestockReq struct {
	StoreMaterialID string          `json:"store_material_id"`
	Qty             decimal.Decimal `json:"qty"`
	Memo            string          `json:"memo"`
}

func (h *InventoryHandler) Register(r *chi.Mux) {
	r.Get("/stores/{storeID}/inventory", h.listInventory)
	r.Post("/stores/{storeID}/inventory/restock", h.restock)
	r.Get("/stores/{storeID}/usage-logs", h.usageLogs)
}

func (h *InventoryHandler) listInventory(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	rows, err := h.Ledger.ListByStore(ctx, storeID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// restock = flow inbound manual; lewat pintu ledger yang sama dengan pemotongan
// supaya disiplin kuncinya konsisten.
func (h *InventoryHandler) restock(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")
	var req RestockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.StoreMaterialID == "" || req.Qty.Sign() <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}
	memo := req.Memo
	if memo == "" {
		memo = "RESTOCK"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	row, err := h.Ledger.Restock(ctx, storeID, req.StoreMaterialID, req.Qty, memo, time.Now().UTC())
	if err != nil {
		writeJSON(w, statusForErr(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (h *InventoryHandler) usageLogs(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	logs, err := h.Audit.ListByStore(ctx, storeID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
