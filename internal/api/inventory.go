package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/qmedic/qmedic/internal/export"
	"github.com/qmedic/qmedic/internal/inventory"
	"github.com/qmedic/qmedic/internal/model"
	"github.com/qmedic/qmedic/internal/store"
)

// InventoryHandler serves scanned actions and the read-only reports.
type InventoryHandler struct {
	DB        *sqlx.DB
	Processor *inventory.Processor
	Exports   *export.Service
}

type logActionRequest struct {
	ItemID   string `json:"itemId" validate:"required,max=64"`
	Action   string `json:"action" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0,lte=2147483647"`
	CaseID   string `json:"caseId" validate:"max=64"`
}

type logActionResponse struct {
	Message string `json:"message"`
	*inventory.Result
}

type overviewResponse struct {
	Items   []model.Item           `json:"items"`
	Summary model.InventorySummary `json:"summary"`
}

// LogAction handles POST /api/action/log.
func (h *InventoryHandler) LogAction(w http.ResponseWriter, r *http.Request) {
	var req logActionRequest
	if err := decodeValid(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	action, err := model.ParseActionKind(req.Action)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Processor.ApplyAction(r.Context(), sessionFrom(r.Context()), inventory.Request{
		ScanCode: req.ItemID,
		Action:   action,
		Quantity: req.Quantity,
		CaseID:   req.CaseID,
	})
	switch {
	case err == nil:
	case errors.Is(err, inventory.ErrInvalidInput):
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, inventory.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
		return
	default:
		jsonError(w, http.StatusInternalServerError, "Failed to complete inventory transaction.")
		return
	}

	jsonResponse(w, http.StatusOK, logActionResponse{
		Message: "Action logged successfully.",
		Result:  res,
	})
}

// Overview handles GET /api/inventory.
func (h *InventoryHandler) Overview(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB, store.ItemFilter{})
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load inventory")
		return
	}
	summary, err := store.SummarizeHistory(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to summarize history", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load inventory")
		return
	}

	for _, item := range items {
		if item.Status() == model.StatusLowStock {
			summary.LowStockCount++
		}
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, overviewResponse{Items: items, Summary: summary})
}

// History handles GET /api/history. Filters: code, action, limit.
func (h *InventoryHandler) History(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := model.HistoryFilter{ItemCode: query.Get("code")}

	if v := query.Get("action"); v != "" {
		action, err := model.ParseActionKind(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Action = action
	}
	limit, err := queryLimit(r, 200)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.Limit = limit

	entries, err := store.ListHistory(r.Context(), h.DB, filter)
	if err != nil {
		slog.Error("failed to list history", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Notifications handles GET /api/notifications. ?unread=true limits the
// listing to unread alerts.
func (h *InventoryHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := false
	if v := r.URL.Query().Get("unread"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid unread flag")
			return
		}
		unreadOnly = b
	}
	limit, err := queryLimit(r, 100)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	alerts, err := store.ListAlerts(r.Context(), h.DB, unreadOnly, limit)
	if err != nil {
		slog.Error("failed to list notifications", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if alerts == nil {
		alerts = []model.Alert{}
	}
	jsonResponse(w, http.StatusOK, alerts)
}

// MarkRead handles POST /api/notifications/read/{id}.
func (h *InventoryHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	found, err := store.MarkAlertRead(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to mark notification read", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update notification")
		return
	}
	if !found {
		jsonError(w, http.StatusNotFound, "notification not found")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "notification marked as read"})
}

// Export handles GET /api/export/{format}.
func (h *InventoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, ok := export.ParseFormat(r.PathValue("format"))
	if !ok {
		jsonError(w, http.StatusNotFound, "unknown export format")
		return
	}

	file, err := h.Exports.Export(r.Context(), sessionFrom(r.Context()), format)
	if err != nil {
		slog.Error("export failed", "format", format, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to export inventory")
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}

// ExportHistory handles GET /api/export/history.
func (h *InventoryHandler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, 100)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	logs, err := store.ListExportLogs(r.Context(), h.DB, limit)
	if err != nil {
		slog.Error("failed to list exports", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list exports")
		return
	}
	if logs == nil {
		logs = []model.ExportLog{}
	}
	jsonResponse(w, http.StatusOK, logs)
}
