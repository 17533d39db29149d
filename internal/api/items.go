package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/qmedic/qmedic/internal/imaging"
	"github.com/qmedic/qmedic/internal/inventory"
	"github.com/qmedic/qmedic/internal/model"
	"github.com/qmedic/qmedic/internal/store"
)

// ItemsHandler handles item CRUD endpoints.
type ItemsHandler struct {
	DB     *sqlx.DB
	Photos imaging.Processor
}

type createItemRequest struct {
	Code        string      `json:"code" validate:"required,max=64"`
	Name        string      `json:"name" validate:"required,max=200"`
	Category    string      `json:"category" validate:"required,oneof=Medication Equipment Supplies"`
	Quantity    int         `json:"quantity" validate:"gte=0,lte=2147483647"`
	MinQuantity int         `json:"min_quantity" validate:"gte=0,lte=2147483647"`
	Expiry      *model.Date `json:"expiry_date"`
	Location    string      `json:"location" validate:"max=200"`
}

type updateItemRequest struct {
	Name        string      `json:"name" validate:"required,max=200"`
	Category    string      `json:"category" validate:"required,oneof=Medication Equipment Supplies"`
	MinQuantity int         `json:"min_quantity" validate:"gte=0,lte=2147483647"`
	Expiry      *model.Date `json:"expiry_date"`
	Location    string      `json:"location" validate:"max=200"`
}

// List handles GET /api/items. Filters: category, q (name or code) and
// status, which is applied after loading since it is never stored.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.ItemFilter{
		Category: model.Category(query.Get("category")),
		Search:   strings.TrimSpace(query.Get("q")),
	}
	if filter.Category != "" && !filter.Category.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid category")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, filter)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	if status := model.StockStatus(query.Get("status")); status != "" {
		filtered := items[:0]
		for _, item := range items {
			if item.Status() == status {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeValid(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Code = strings.TrimSpace(req.Code)

	existing, err := store.GetItemByCode(r.Context(), h.DB, req.Code)
	if err != nil {
		slog.Error("failed to check item code", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}
	if existing != nil {
		jsonError(w, http.StatusConflict, "an item with this code already exists")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, store.NewItem{
		Code:        req.Code,
		Name:        req.Name,
		Category:    model.Category(req.Category),
		Quantity:    req.Quantity,
		MinQuantity: req.MinQuantity,
		Expiry:      req.Expiry,
		Location:    req.Location,
	})
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	slog.Info("item created", "user", GetClaims(r.Context()).Username, "code", item.Code, "quantity", item.Quantity)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.activeItem(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// GetByCode handles GET /api/scan/{code}, the scan lookup.
func (h *ItemsHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.PathValue("code"))
	item, err := store.GetItemByCode(r.Context(), h.DB, code)
	if err != nil {
		slog.Error("failed to get item by code", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, (&inventory.ItemNotFoundError{Code: code}).Error())
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}. Quantity is not editable here.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	item, ok := h.activeItem(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := decodeValid(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := store.UpdateItem(r.Context(), h.DB, item.ID, store.ItemUpdate{
		Name:        req.Name,
		Category:    model.Category(req.Category),
		MinQuantity: req.MinQuantity,
		Expiry:      req.Expiry,
		Location:    req.Location,
	})
	if err != nil {
		slog.Error("failed to update item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	updated, err := store.GetItem(r.Context(), h.DB, item.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	item, ok := h.activeItem(w, r)
	if !ok {
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, item.ID); err != nil {
		slog.Error("failed to delete item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	slog.Info("item deleted", "user", GetClaims(r.Context()).Username, "code", item.Code)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	item, ok := h.activeItem(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := h.Photos.Process(file)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) {
			jsonError(w, http.StatusBadRequest, "image must be JPEG or PNG")
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, item.ID, photo.Data, photo.MIME); err != nil {
		slog.Error("failed to save image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}

// GetHistory handles GET /api/items/{id}/history.
func (h *ItemsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	limit, err := queryLimit(r, 0)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	history, err := store.ListHistory(r.Context(), h.DB, model.HistoryFilter{ItemID: id, Limit: limit})
	if err != nil {
		slog.Error("failed to get item history", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item history")
		return
	}
	if history == nil {
		history = []model.HistoryEntry{}
	}
	jsonResponse(w, http.StatusOK, history)
}

// activeItem loads the non-deleted item named by {id}, writing the error
// response itself when there is none.
func (h *ItemsHandler) activeItem(w http.ResponseWriter, r *http.Request) (*model.Item, bool) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return nil, false
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return nil, false
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil, false
	}
	return item, true
}
