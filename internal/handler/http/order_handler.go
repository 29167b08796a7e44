package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gamestore/order-service/internal/order"
)

type CreateOrderRequest struct {
	AccountID string `json:"account_id" validate:"required"`
}

type AddLineRequest struct {
	GameID   string `json:"game_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING CONFIRMED CANCELLED"`
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders", h.handleCreateOrder)
	router.Get("/orders", h.handleListOrders)
	router.Get("/orders/{id}", h.handleGetOrder)
	router.Patch("/orders/{id}/status", h.handleUpdateStatus)
	router.Post("/orders/{id}/confirm", h.handleConfirm)
	router.Get("/orders/{id}/summary", h.handleSummary)
	router.Post("/orders/{id}/details", h.handleAddLine)
	router.Get("/orders/{id}/details", h.handleListLines)
	router.Get("/orders/{id}/details/{detailId}", h.handleGetLine)
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.service.CreateOrder(r.Context(), req.AccountID)
	if err != nil {
		log.Info().Err(err).Str("account_id", req.AccountID).Msg("handler: failed to create order")
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	f := order.OrderFilter{
		AccountID: r.URL.Query().Get("account_id"),
		Status:    order.Status(r.URL.Query().Get("status")),
		Page:      queryInt(r, "page", 0),
		Size:      queryInt(r, "size", 20),
	}

	orders, err := h.service.ListOrders(r.Context(), f)
	if err != nil {
		log.Info().Err(err).Msg("handler: failed to list orders")
		respondWithDomainError(w, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	o, err := h.service.GetOrderByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.service.UpdateStatus(r.Context(), id, order.Status(req.Status))
	if err != nil {
		log.Info().Err(err).Stringer("order_id", id).Msg("handler: failed to update order status")
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	o, err := h.service.Confirm(r.Context(), id)
	if err != nil {
		log.Info().Err(err).Stringer("order_id", id).Msg("handler: failed to confirm order")
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	summary, err := h.service.BuildSummary(r.Context(), id)
	if err != nil {
		log.Info().Err(err).Stringer("order_id", id).Msg("handler: failed to build summary")
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func (h *OrderHandler) handleAddLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req AddLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	line, err := h.service.AddLine(r.Context(), id, req.GameID, req.Quantity)
	if err != nil {
		log.Info().Err(err).Stringer("order_id", id).Str("game_id", req.GameID).Msg("handler: failed to add line")
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, line)
}

func (h *OrderHandler) handleListLines(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	lines, err := h.service.ListLines(r.Context(), id, queryInt(r, "page", 0), queryInt(r, "size", 50))
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if lines == nil {
		lines = []order.DetailLine{}
	}
	respondWithJSON(w, http.StatusOK, lines)
}

func (h *OrderHandler) handleGetLine(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := pathUUID(w, r, "detailId")
	if !ok {
		return
	}

	line, err := h.service.GetLine(r.Context(), orderID, lineID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, line)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(chi.URLParam(r, name))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
