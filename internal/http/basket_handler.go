package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kaniobed28/campus-sell/basket-service/internal/basket"
	"github.com/kaniobed28/campus-sell/basket-service/internal/domain"
	"github.com/kaniobed28/campus-sell/basket-service/internal/identity"
)

type BasketHandler struct {
	engine  *basket.Engine
	broker  *identity.Broker
	timeout time.Duration
}

func NewBasketHandler(engine *basket.Engine, broker *identity.Broker, timeout time.Duration) *BasketHandler {
	return &BasketHandler{
		engine:  engine,
		broker:  broker,
		timeout: timeout,
	}
}

func (h *BasketHandler) Routes(r chi.Router) {
	r.Route("/basket", func(r chi.Router) {
		r.Get("/", h.GetBasket)
		r.Delete("/", h.ClearBasket)
		r.Post("/sync", h.Sync)
		r.Post("/error/clear", h.ClearError)
		r.Get("/contains/{productID}", h.Contains)
		r.Get("/by-product/{productID}", h.ItemByProduct)
		r.Post("/items", h.AddItem)
		r.Put("/items/{id}", h.UpdateQuantity)
		r.Delete("/items/{id}", h.RemoveItem)
		r.Post("/items/{id}/save", h.SaveForLater)
	})
	r.Route("/saved", func(r chi.Router) {
		r.Post("/{id}/move", h.MoveToBasket)
		r.Post("/move-batch", h.BatchMove)
		r.Post("/remove-batch", h.BatchRemove)
	})
	r.Route("/session", func(r chi.Router) {
		r.Post("/sign-in", h.SignIn)
		r.Post("/sign-out", h.SignOut)
	})
}

type AddItemRequestDTO struct {
	Product  domain.ProductSnapshot `json:"product"`
	Quantity int                    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type BatchRequestDTO struct {
	IDs []string `json:"ids"`
}

type SignInRequestDTO struct {
	OwnerID string `json:"owner_id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *BasketHandler) GetBasket(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, stateDTO(h.engine.State()))
}

func (h *BasketHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Product.ID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product", "product.id is required")
		return
	}

	if err := h.engine.AddItem(ctx, req.Product, req.Quantity); err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, stateDTO(h.engine.State()))
}

func (h *BasketHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.engine.UpdateQuantity(ctx, chi.URLParam(r, "id"), req.Quantity); err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stateDTO(h.engine.State()))
}

func (h *BasketHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.engine.RemoveItem(ctx, chi.URLParam(r, "id")); err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stateDTO(h.engine.State()))
}

func (h *BasketHandler) SaveForLater(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.engine.SaveForLater(ctx, chi.URLParam(r, "id")); err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stateDTO(h.engine.State()))
}

func (h *BasketHandler) MoveToBasket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.engine.MoveToBasket(ctx, chi.URLParam(r, "id")); err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stateDTO(h.engine.State()))
}

func (h *BasketHandler) BatchMove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req BatchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "ids are required")
		return
	}

	if err := h.engine.BatchMoveToBasket(ctx, req.IDs); err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stateDTO(h.engine.State()))
}

func (h *BasketHandler) BatchRemove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req BatchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "ids are required")
		return
	}

	if err := h.engine.BatchRemoveSavedItems(ctx, req.IDs); err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stateDTO(h.engine.State()))
}

func (h *BasketHandler) ClearBasket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.engine.ClearBasket(ctx); err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stateDTO(h.engine.State()))
}

func (h *BasketHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.engine.Sync(ctx); err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stateDTO(h.engine.State()))
}

func (h *BasketHandler) Contains(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	respondJSON(w, http.StatusOK, map[string]bool{"in_basket": h.engine.IsInBasket(productID)})
}

func (h *BasketHandler) ItemByProduct(w http.ResponseWriter, r *http.Request) {
	item, ok := h.engine.ItemByProductID(chi.URLParam(r, "productID"))
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "product is not in the basket")
		return
	}
	respondJSON(w, http.StatusOK, itemDTO(item))
}

func (h *BasketHandler) ClearError(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearError()
	respondJSON(w, http.StatusOK, stateDTO(h.engine.State()))
}

func (h *BasketHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OwnerID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "owner_id is required")
		return
	}

	h.broker.SignIn(req.OwnerID)
	respondJSON(w, http.StatusOK, map[string]string{"owner_id": req.OwnerID})
}

func (h *BasketHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.broker.SignOut()
	respondJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func handleEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, basket.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, basket.ErrAuthenticationRequired):
		respondError(w, http.StatusUnauthorized, "authentication_required", err.Error())
	case errors.Is(err, basket.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		respondError(w, http.StatusBadGateway, "remote_failure", err.Error())
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Details: details,
	})
}
