package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/service"
)

// ItemHandler handles the item registry endpoints
type ItemHandler struct {
	itemSvc    service.ItemService
	lendingSvc service.LendingService
}

func NewItemHandler(itemSvc service.ItemService, lendingSvc service.LendingService) *ItemHandler {
	return &ItemHandler{itemSvc: itemSvc, lendingSvc: lendingSvc}
}

type itemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Condition   string `json:"condition"`
}

func (h *ItemHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	item, err := h.itemSvc.AddItem(r.Context(), usernameFrom(r), &domain.Item{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Condition:   domain.ItemCondition(req.Condition),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]*domain.Item{"item": item})
}

func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.itemSvc.GetItem(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]*domain.Item{"item": item})
}

func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	item, err := h.itemSvc.UpdateItem(r.Context(), usernameFrom(r), &domain.Item{
		ID:          mux.Vars(r)["id"],
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Condition:   domain.ItemCondition(req.Condition),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]*domain.Item{"item": item})
}

// ListItems returns the caller's own items, or every available item when
// the "available" query flag is set.
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	var (
		items []domain.Item
		err   error
	)
	if r.URL.Query().Get("available") == "true" {
		items, err = h.itemSvc.ListAvailableItems(r.Context())
	} else {
		items, err = h.itemSvc.ListMyItems(r.Context(), usernameFrom(r))
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]domain.Item{"items": items})
}

func (h *ItemHandler) ItemHistory(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemId"]
	item, err := h.itemSvc.GetItem(r.Context(), itemID)
	if err != nil {
		respondError(w, err)
		return
	}
	if item.OwnerUsername != usernameFrom(r) {
		respondError(w, domain.Unauthorized("Only the item owner can view its history"))
		return
	}
	lendings, err := h.lendingSvc.ItemHistory(r.Context(), itemID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]domain.Lending{"lendings": lendings})
}
