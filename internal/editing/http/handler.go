// Package editinghttp exposes the edit session lifecycle over HTTP. Every
// endpoint loads the session from the store, runs the staging engine, and
// persists the result; the handler itself keeps no state between calls.
package editinghttp

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/orderbench/orderbench/internal/audit"
	"github.com/orderbench/orderbench/internal/editing"
	"github.com/orderbench/orderbench/internal/observability"
	"github.com/orderbench/orderbench/internal/orders"
	"github.com/orderbench/orderbench/internal/platform/httpx"
)

// saveLockTTL bounds how long a crashed save can block the session.
const saveLockTTL = 30 * time.Second

// Staging operation names used for metrics labels.
const (
	opItemEdit   = "item_edit"
	opItemAdd    = "item_add"
	opItemRemove = "item_remove"
	opFieldEdit  = "field_edit"
)

// Handler wires HTTP endpoints for edit sessions.
type Handler struct {
	logger    *slog.Logger
	store     *editing.Store
	orders    *orders.Client
	audit     *audit.Recorder
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, store *editing.Store, ordersClient *orders.Client, recorder *audit.Recorder, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		store:     store,
		orders:    ordersClient,
		audit:     recorder,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// MountRoutes registers session routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.createSession)
	r.Route("/{sid}", func(r chi.Router) {
		r.Get("/", h.showSession)
		r.Delete("/", h.discardSession)
		r.Put("/items/{itemID}", h.stageItemEdit)
		r.Delete("/items/{itemID}", h.stageRemoval)
		r.Post("/items/{itemID}/restore", h.undoRemoval)
		r.Post("/new-items", h.stageNewItem)
		r.Delete("/new-items/{index}", h.unstageNewItem)
		r.Put("/fields", h.stageFieldEdits)
		r.Get("/payload", h.showPayload)
		r.Post("/save", h.save)
		r.Post("/reset", h.reset)
	})
}

type createSessionRequest struct {
	OrderID int64 `json:"order_id" validate:"required,gt=0"`
}

type slotEditRequest struct {
	ID       *int64  `json:"id"`
	Quantity float64 `json:"quantity"`
	Date     string  `json:"delivery_date"`
	Time     string  `json:"delivery_time"`
}

type itemEditRequest struct {
	Quantity   float64           `json:"quantity"`
	Deliveries []slotEditRequest `json:"deliveries"`
}

type newItemRequest struct {
	ProductID  int64             `json:"product_id"`
	Quantity   float64           `json:"quantity"`
	Deliveries []slotEditRequest `json:"deliveries"`
}

// stageResponse reports a staging outcome together with the running
// pending-change count. Violations come back with a 422 and an untouched
// ledger.
type stageResponse struct {
	editing.StageResult
	PendingChanges int  `json:"pending_changes"`
	Index          *int `json:"index,omitempty"`
}

type removalResponse struct {
	Removed        bool `json:"removed"`
	PendingChanges int  `json:"pending_changes"`
}

type fieldsResponse struct {
	Fields         map[string]string `json:"fields"`
	PendingChanges int               `json:"pending_changes"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "order_id must be a positive integer")
		return
	}

	order, items, err := h.orders.GetOrder(r.Context(), req.OrderID, r.Header.Get("Authorization"))
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "order does not exist")
			return
		}
		h.logger.Error("fetch order", slog.Int64("order_id", req.OrderID), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Unavailable", "order service is unreachable")
		return
	}

	sess := editing.NewSession(order, items)
	if err := h.store.Put(r.Context(), sess); err != nil {
		h.logger.Error("persist session", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	h.metrics.AddSessionEvent(observability.EventStarted)
	h.recordAudit(r, audit.ActionSessionStarted, sess, nil)
	httpx.JSON(w, http.StatusCreated, buildSessionView(sess))
}

func (h *Handler) showSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, buildSessionView(sess))
}

func (h *Handler) discardSession(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	if sess, err := h.store.Get(r.Context(), sid); err == nil {
		h.metrics.AddSessionEvent(observability.EventDiscarded)
		h.recordAudit(r, audit.ActionSessionDiscarded, sess, nil)
	}
	if err := h.store.Delete(r.Context(), sid); err != nil {
		h.logger.Error("discard session", slog.String("session_id", sid), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) stageItemEdit(w http.ResponseWriter, r *http.Request) {
	sess, itemID, ok := h.loadSessionItem(w, r)
	if !ok {
		return
	}
	var req itemEditRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "request body must be valid JSON")
		return
	}

	res, err := sess.StageItemEdit(itemID, editing.ItemEdit{
		Quantity:   req.Quantity,
		Deliveries: slotEdits(req.Deliveries),
	})
	if err != nil {
		h.respondEditingError(w, err)
		return
	}
	h.metrics.AddStagingResult(opItemEdit, res.Staged)
	if !res.Staged {
		httpx.JSON(w, http.StatusUnprocessableEntity, stageResponse{StageResult: res, PendingChanges: sess.PendingChangeCount()})
		return
	}
	if !h.persist(w, r, sess) {
		return
	}
	httpx.JSON(w, http.StatusOK, stageResponse{StageResult: res, PendingChanges: sess.PendingChangeCount()})
}

func (h *Handler) stageRemoval(w http.ResponseWriter, r *http.Request) {
	sess, itemID, ok := h.loadSessionItem(w, r)
	if !ok {
		return
	}
	if err := sess.StageRemoval(itemID); err != nil {
		if errors.Is(err, editing.ErrRemovalBlocked) {
			h.metrics.AddStagingResult(opItemRemove, false)
		}
		h.respondEditingError(w, err)
		return
	}
	h.metrics.AddStagingResult(opItemRemove, true)
	if !h.persist(w, r, sess) {
		return
	}
	httpx.JSON(w, http.StatusOK, removalResponse{Removed: true, PendingChanges: sess.PendingChangeCount()})
}

func (h *Handler) undoRemoval(w http.ResponseWriter, r *http.Request) {
	sess, itemID, ok := h.loadSessionItem(w, r)
	if !ok {
		return
	}
	if err := sess.UndoRemoval(itemID); err != nil {
		h.respondEditingError(w, err)
		return
	}
	if !h.persist(w, r, sess) {
		return
	}
	httpx.JSON(w, http.StatusOK, removalResponse{Removed: false, PendingChanges: sess.PendingChangeCount()})
}

func (h *Handler) stageNewItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSessionForStaging(w, r)
	if !ok {
		return
	}
	var req newItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "request body must be valid JSON")
		return
	}

	res, err := sess.StageNewItem(editing.NewItemInput{
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		Deliveries: slotEdits(req.Deliveries),
	})
	if err != nil {
		h.respondEditingError(w, err)
		return
	}
	h.metrics.AddStagingResult(opItemAdd, res.Staged)
	if !res.Staged {
		httpx.JSON(w, http.StatusUnprocessableEntity, stageResponse{StageResult: res, PendingChanges: sess.PendingChangeCount()})
		return
	}
	if !h.persist(w, r, sess) {
		return
	}
	index := len(sess.Ledger.ItemsAdd) - 1
	httpx.JSON(w, http.StatusOK, stageResponse{StageResult: res, PendingChanges: sess.PendingChangeCount(), Index: &index})
}

func (h *Handler) unstageNewItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSessionForStaging(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid new item index")
		return
	}
	if err := sess.UnstageNewItem(index); err != nil {
		h.respondEditingError(w, err)
		return
	}
	if !h.persist(w, r, sess) {
		return
	}
	httpx.JSON(w, http.StatusOK, removalResponse{Removed: true, PendingChanges: sess.PendingChangeCount()})
}

func (h *Handler) stageFieldEdits(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSessionForStaging(w, r)
	if !ok {
		return
	}
	var req map[string]string
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "request body must be valid JSON")
		return
	}
	if len(req) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "at least one field is required")
		return
	}

	// Reject the whole batch before staging anything.
	var unknown []string
	for name := range req {
		if !editing.Field(name).IsValid() {
			unknown = append(unknown, "unknown field: "+name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		h.metrics.AddStagingResult(opFieldEdit, false)
		httpx.ValidationProblem(w, "one or more fields are not editable", unknown)
		return
	}

	for name, value := range req {
		if err := sess.StageFieldEdit(editing.Field(name), value); err != nil {
			h.respondEditingError(w, err)
			return
		}
	}
	h.metrics.AddStagingResult(opFieldEdit, true)
	if !h.persist(w, r, sess) {
		return
	}

	fields := make(map[string]string, len(sess.Ledger.FieldEdits))
	for f, v := range sess.Ledger.FieldEdits {
		fields[string(f)] = v
	}
	httpx.JSON(w, http.StatusOK, fieldsResponse{Fields: fields, PendingChanges: sess.PendingChangeCount()})
}

func (h *Handler) showPayload(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	payload := sess.BuildPayload()
	if payload == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpx.JSON(w, http.StatusOK, payload)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if err := h.store.AcquireSaveLock(r.Context(), sess.ID, saveLockTTL); err != nil {
		h.respondEditingError(w, err)
		return
	}
	defer func() {
		if err := h.store.ReleaseSaveLock(r.Context(), sess.ID); err != nil {
			h.logger.Warn("release save lock", slog.String("session_id", sess.ID), slog.Any("error", err))
		}
	}()

	payload := sess.BuildPayload()
	if payload == nil {
		h.respondEditingError(w, editing.ErrNoPendingChanges)
		return
	}
	summary := payloadSummary(payload)

	order, items, err := h.orders.SubmitEdits(r.Context(), sess.Order.ID, payload, r.Header.Get("Authorization"))
	if err != nil {
		h.respondSaveFailure(w, r, sess, err)
		return
	}

	sess.Rebase(order, items)
	if !h.persist(w, r, sess) {
		return
	}
	h.metrics.AddSessionEvent(observability.EventSaved)
	h.recordAudit(r, audit.ActionSessionSaved, sess, summary)
	httpx.JSON(w, http.StatusOK, buildSessionView(sess))
}

// respondSaveFailure maps a failed submit. The session is left untouched in
// the store, so the operator's staged work survives the failure.
func (h *Handler) respondSaveFailure(w http.ResponseWriter, r *http.Request, sess *editing.Session, err error) {
	var rej *orders.Rejection
	switch {
	case errors.As(err, &rej):
		h.metrics.AddSaveFailure("rejected")
		detail := rej.Message
		if detail == "" {
			detail = "the order service rejected the submitted changes"
		}
		httpx.ValidationProblem(w, detail, rej.Errors)
	case errors.Is(err, orders.ErrOrderNotFound):
		h.metrics.AddSaveFailure("order_missing")
		httpx.Problem(w, http.StatusNotFound, "Not Found", "order no longer exists")
	default:
		h.metrics.AddSaveFailure("unavailable")
		h.logger.Error("submit edits", slog.String("session_id", sess.ID), slog.Int64("order_id", sess.Order.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Unavailable", "order service is unreachable")
	}
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSessionForStaging(w, r)
	if !ok {
		return
	}
	sess.Reset()
	if !h.persist(w, r, sess) {
		return
	}
	h.metrics.AddSessionEvent(observability.EventReset)
	h.recordAudit(r, audit.ActionSessionReset, sess, nil)
	httpx.JSON(w, http.StatusOK, buildSessionView(sess))
}

// loadSession fetches the session or responds 404.
func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request) (*editing.Session, bool) {
	sid := chi.URLParam(r, "sid")
	sess, err := h.store.Get(r.Context(), sid)
	if err != nil {
		if errors.Is(err, editing.ErrSessionNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "edit session does not exist or has expired")
			return nil, false
		}
		h.logger.Error("load session", slog.String("session_id", sid), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return nil, false
	}
	return sess, true
}

// loadSessionForStaging additionally rejects staging while a save is in
// flight, so the ledger being submitted cannot shift under the save.
func (h *Handler) loadSessionForStaging(w http.ResponseWriter, r *http.Request) (*editing.Session, bool) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return nil, false
	}
	inFlight, err := h.store.SaveInFlight(r.Context(), sess.ID)
	if err != nil {
		h.logger.Error("check save lock", slog.String("session_id", sess.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return nil, false
	}
	if inFlight {
		httpx.Problem(w, http.StatusConflict, "Conflict", "a save is in flight for this session")
		return nil, false
	}
	return sess, true
}

func (h *Handler) loadSessionItem(w http.ResponseWriter, r *http.Request) (*editing.Session, int64, bool) {
	sess, ok := h.loadSessionForStaging(w, r)
	if !ok {
		return nil, 0, false
	}
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return nil, 0, false
	}
	return sess, itemID, true
}

// persist writes the session back, responding 500 on failure.
func (h *Handler) persist(w http.ResponseWriter, r *http.Request, sess *editing.Session) bool {
	if err := h.store.Put(r.Context(), sess); err != nil {
		h.logger.Error("persist session", slog.String("session_id", sess.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return false
	}
	return true
}

// respondEditingError maps engine sentinels onto problem responses.
func (h *Handler) respondEditingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, editing.ErrItemNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "order item does not exist")
	case errors.Is(err, editing.ErrSlotNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, editing.ErrNewItemNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no pending addition at that index")
	case errors.Is(err, editing.ErrSlotLocked):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, editing.ErrRemovalBlocked):
		httpx.Problem(w, http.StatusConflict, "Conflict", "items with delivered history cannot be removed")
	case errors.Is(err, editing.ErrSaveInFlight):
		httpx.Problem(w, http.StatusConflict, "Conflict", "a save is in flight for this session")
	case errors.Is(err, editing.ErrLastSlot):
		httpx.ValidationProblem(w, "a new item needs at least one delivery", nil)
	case errors.Is(err, editing.ErrUnknownField):
		httpx.ValidationProblem(w, "field is not editable", nil)
	case errors.Is(err, editing.ErrNoPendingChanges):
		httpx.ValidationProblem(w, "the session has no pending changes to save", nil)
	default:
		h.logger.Error("editing operation", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// recordAudit writes the trail entry best-effort; a dead audit store never
// blocks the user flow.
func (h *Handler) recordAudit(r *http.Request, action string, sess *editing.Session, meta map[string]any) {
	if !h.audit.Enabled() {
		return
	}
	ev := audit.Event{
		RequestID: middleware.GetReqID(r.Context()),
		Action:    action,
		SessionID: sess.ID,
		OrderID:   sess.Order.ID,
		Meta:      meta,
	}
	if err := h.audit.Record(r.Context(), ev); err != nil {
		h.logger.Warn("record audit event", slog.String("action", action), slog.Any("error", err))
	}
}

func payloadSummary(p *editing.EditOrderPayload) map[string]any {
	return map[string]any{
		"fields":       len(p.Order),
		"items_add":    len(p.ItemsAdd),
		"items_update": len(p.ItemsUpdate),
		"items_remove": len(p.ItemsRemove),
	}
}

func slotEdits(rows []slotEditRequest) []editing.SlotEdit {
	out := make([]editing.SlotEdit, 0, len(rows))
	for _, row := range rows {
		out = append(out, editing.SlotEdit{
			ID:       row.ID,
			Quantity: row.Quantity,
			Date:     row.Date,
			Time:     row.Time,
		})
	}
	return out
}
