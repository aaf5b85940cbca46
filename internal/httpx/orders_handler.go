package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-franchise-backoffice.git/internal/catalog"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/inventory"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/orders"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/redisx"
)

type OrdersHandler struct {
	Repo       *orders.Repo
	Transition *orders.TransitionService
	Catalog    *catalog.Repo
	Audit      *inventory.AuditLog
	Redis      *redis.Client
}

type CreateOrderReq struct {
	ExternalID string             `json:"external_id"`
	StoreID    string             `json:"store_id"`
	Items      []orders.ItemInput `json:"items"`
}

type CreateOrderResp struct {
	OrderID    string `json:"order_id"`
	TotalCents int    `json:"total_cents"`
	Idempotent bool   `json:"idempotent"`
}

type UpdateStatusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Patch("/orders/{id}/status", h.updateStatus)
	r.Get("/orders/{id}/usage-logs", h.orderUsageLogs)
	r.Get("/stores/{storeID}/kitchen/orders", h.kitchenOrders)
	r.Get("/menus", h.listMenus)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForErr memetakan taksonomi error domain ke kode HTTP.
func statusForErr(err error) int {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrUnknownStatus):
		return http.StatusBadRequest
	case errors.Is(err, inventory.ErrMappingNotFound),
		errors.Is(err, inventory.ErrSlotNotFound),
		errors.Is(err, inventory.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ExternalID == "" || req.StoreID == "" || len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orderID, total, existed, err := h.Repo.CreateOrderTx(ctx, req.ExternalID, req.StoreID, req.Items)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// shortcut idempotency + cache status biar GET cepat
	idemKey := fmt.Sprintf(redisx.KeyIdemOrderCreate, req.ExternalID)
	_ = h.Redis.Set(ctx, idemKey, orderID, redisx.TTLIdempotency).Err()
	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, statusKey, `{"status":"PENDING"}`, redisx.TTLStatusCache).Err()

	writeJSON(w, http.StatusCreated, CreateOrderResp{OrderID: orderID, TotalCents: total, Idempotent: existed})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	// 2) fallback DB
	status, err := h.Repo.GetOrderStatus(ctx, orderID)
	if err != nil {
		writeJSON(w, statusForErr(err), map[string]string{"error": err.Error()})
		return
	}
	body := map[string]any{"status": status}
	b, _ := json.Marshal(body)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// updateStatus = satu-satunya pintu masuk penggerak fulfillment (dipakai KDS).
func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req UpdateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	next, err := orders.ParseStatus(req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.Transition.UpdateStatus(ctx, orderID, next, r.Header.Get("X-Request-Id"))
	if err != nil {
		writeJSON(w, statusForErr(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrdersHandler) kitchenOrders(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Repo.KitchenOrders(ctx, storeID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, toKitchenDTOs(list))
}

type KitchenOrderDTO struct {
	OrderID     string           `json:"order_id"`
	Status      orders.Status    `json:"status"`
	StatusLabel string           `json:"status_label"`
	OrderedAt   time.Time        `json:"ordered_at"`
	Lines       []KitchenLineDTO `json:"lines"`
}

type KitchenLineDTO struct {
	MenuID string `json:"menu_id"`
	Qty    int    `json:"qty"`
}

func toKitchenDTOs(list []orders.Order) []KitchenOrderDTO {
	out := make([]KitchenOrderDTO, 0, len(list))
	for _, o := range list {
		dto := KitchenOrderDTO{
			OrderID:     o.ID,
			Status:      o.Status,
			StatusLabel: o.Status.Label(),
			OrderedAt:   o.OrderedAt,
		}
		for _, l := range o.Lines {
			dto.Lines = append(dto.Lines, KitchenLineDTO{MenuID: l.MenuID, Qty: l.Qty})
		}
		out = append(out, dto)
	}
	return out
}

func (h *OrdersHandler) listMenus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ms, err := h.Catalog.ListMenus(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (h *OrdersHandler) orderUsageLogs(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	logs, err := h.Audit.ListByOrder(ctx, orderID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
