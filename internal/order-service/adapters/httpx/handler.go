package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/order-management/internal/order-service/app"
	"github.com/jcmexdev/order-management/internal/order-service/domain"
	"github.com/jcmexdev/order-management/internal/pkg/cache"
)

// snapshotTTL bounds staleness of cached order snapshots; mutations also
// invalidate eagerly.
const snapshotTTL = 30 * time.Second

// Handler serves the order domain over HTTP.
// snapshots may be nil — caching is then skipped entirely.
type Handler struct {
	svc       *app.Service
	snapshots cache.Cache
}

// NewHandler wires the handler. snapshots may be nil.
func NewHandler(svc *app.Service, snapshots cache.Cache) *Handler {
	return &Handler{svc: svc, snapshots: snapshots}
}

// UpdateFulfillmentTracking applies a tracking-number update to a
// fulfillment and responds with the mutation contract: a non-empty error
// list with a null order, or an empty list with the full snapshot.
func (h *Handler) UpdateFulfillmentTracking(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	fulfillmentID := chi.URLParam(r, "fulfillmentID")

	var req TrackingUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	order, errs := h.svc.UpdateFulfillmentTracking(r.Context(), orderID, fulfillmentID, app.TrackingInput{
		TrackingNumber: req.TrackingNumber,
		NotifyCustomer: req.NotifyCustomer,
	}, nil)
	h.writeMutation(w, r, order, errs)
}

// CreateFulfillment allocates order-line quantities to a new fulfillment.
func (h *Handler) CreateFulfillment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req CreateFulfillmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	in := app.FulfillmentInput{WarehouseID: req.WarehouseID, WarehouseName: req.WarehouseName}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, app.FulfillmentLineInput{OrderLineID: l.OrderLineID, Quantity: l.Quantity})
	}

	order, errs := h.svc.CreateFulfillment(r.Context(), orderID, in, nil)
	h.writeMutation(w, r, order, errs)
}

// CancelFulfillment releases a fulfillment's allocations.
func (h *Handler) CancelFulfillment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	fulfillmentID := chi.URLParam(r, "fulfillmentID")

	order, errs := h.svc.CancelFulfillment(r.Context(), orderID, fulfillmentID, nil)
	h.writeMutation(w, r, order, errs)
}

// AddNote appends a note event to the order's ledger.
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req AddNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	order, errs := h.svc.AddNote(r.Context(), orderID, req.Message, nil)
	h.writeMutation(w, r, order, errs)
}

// CreateDraftOrder builds a new draft order from boundary input.
func (h *Handler) CreateDraftOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateDraftOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	in := app.DraftOrderInput{
		Number:       req.Number,
		CurrencyCode: req.Currency,
		UserEmail:    req.UserEmail,
		CustomerNote: req.CustomerNote,
	}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, app.LineInput{
			ProductName: l.ProductName,
			ProductSKU:  l.ProductSKU,
			VariantName: l.VariantName,
			Quantity:    l.Quantity,
			UnitGross:   l.UnitGross,
			UnitNet:     l.UnitNet,
		})
	}

	order, errs := h.svc.CreateDraftOrder(r.Context(), in)
	if len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, MutationResponse{Errors: mapErrors(errs)})
		return
	}
	dto, err := mapOrder(order)
	if err != nil {
		slog.ErrorContext(r.Context(), "rendering order snapshot failed", "order_id", order.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "snapshot_error", "")
		return
	}
	writeJSON(w, http.StatusCreated, MutationResponse{Errors: []OrderErrorDTO{}, Order: dto})
}

// GetOrder serves an order snapshot, read-through the redis cache.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "order_id_required", "")
		return
	}

	if body, ok := h.cachedSnapshot(r, orderID); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
		return
	}

	order, errs := h.svc.GetOrder(r.Context(), orderID)
	if len(errs) > 0 {
		writeError(w, http.StatusNotFound, "order_not_found", "")
		return
	}
	dto, err := mapOrder(order)
	if err != nil {
		slog.ErrorContext(r.Context(), "rendering order snapshot failed", "order_id", orderID, "error", err)
		writeError(w, http.StatusInternalServerError, "snapshot_error", "")
		return
	}

	h.storeSnapshot(r, orderID, dto)
	writeJSON(w, http.StatusOK, dto)
}

// ListEvents serves the durable ledger rows for an order.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	entries, err := h.svc.ListEvents(r.Context(), orderID)
	if err != nil {
		slog.ErrorContext(r.Context(), "listing order events failed", "order_id", orderID, "error", err)
		writeError(w, http.StatusInternalServerError, "event_log_error", "")
		return
	}

	out := make([]EventLogEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = EventLogEntryDTO{
			OrderID:    e.OrderID,
			EventID:    e.EventID,
			EventType:  e.EventType,
			Payload:    e.Payload,
			UserEmail:  e.UserEmail,
			TraceID:    e.TraceID,
			SpanID:     e.SpanID,
			RecordedAt: e.RecordedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// writeMutation renders the {errors, order} contract and keeps the snapshot
// cache coherent: a successful mutation drops the cached snapshot.
func (h *Handler) writeMutation(w http.ResponseWriter, r *http.Request, order *domain.Order, errs []domain.OrderError) {
	if len(errs) > 0 {
		status := http.StatusUnprocessableEntity
		for _, e := range errs {
			if e.Code == domain.CodeNotFound {
				status = http.StatusNotFound
			}
		}
		writeJSON(w, status, MutationResponse{Errors: mapErrors(errs)})
		return
	}

	h.dropSnapshot(r, order.ID)

	dto, err := mapOrder(order)
	if err != nil {
		slog.ErrorContext(r.Context(), "rendering order snapshot failed", "order_id", order.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "snapshot_error", "")
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Errors: []OrderErrorDTO{}, Order: dto})
}

func (h *Handler) cachedSnapshot(r *http.Request, orderID string) (string, bool) {
	if h.snapshots == nil {
		return "", false
	}
	key := h.snapshots.GenerateKey("snapshot", orderID)
	body, err := h.snapshots.Get(r.Context(), key)
	if err != nil {
		slog.WarnContext(r.Context(), "snapshot cache read failed", "order_id", orderID, "error", err)
		return "", false
	}
	return body, body != ""
}

func (h *Handler) storeSnapshot(r *http.Request, orderID string, dto *OrderDTO) {
	if h.snapshots == nil {
		return
	}
	body, err := json.Marshal(dto)
	if err != nil {
		return
	}
	key := h.snapshots.GenerateKey("snapshot", orderID)
	if err := h.snapshots.Set(r.Context(), key, string(body), snapshotTTL); err != nil {
		slog.WarnContext(r.Context(), "snapshot cache write failed", "order_id", orderID, "error", err)
	}
}

func (h *Handler) dropSnapshot(r *http.Request, orderID string) {
	if h.snapshots == nil {
		return
	}
	key := h.snapshots.GenerateKey("snapshot", orderID)
	if err := h.snapshots.Delete(r.Context(), key); err != nil {
		slog.WarnContext(r.Context(), "snapshot cache invalidation failed", "order_id", orderID, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
