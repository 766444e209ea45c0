package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/linemk/qris-shop/internal/domain/models"
	"github.com/linemk/qris-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/qris-shop/internal/service"
)

// CreateOrderRequest выбор позиции каталога, "0" - отмена
type CreateOrderRequest struct {
	ProductCode string `json:"product_code" validate:"required,max=32"`
}

type OrderResponse struct {
	OrderID        string             `json:"order_id"`
	ProductCode    string             `json:"product_code"`
	ProductName    string             `json:"product_name"`
	AmountExpected int64              `json:"amount_expected"`
	Status         models.OrderStatus `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
	ExpiresAt      time.Time          `json:"expires_at"`
	PaidRef        string             `json:"paid_ref,omitempty"`
	PaidAt         string             `json:"paid_at,omitempty"`
	InviteLink     string             `json:"invite_link,omitempty"`
}

// CreateOrderResponse заказ и инструкция по оплате
type CreateOrderResponse struct {
	Order   OrderResponse               `json:"order"`
	Payment service.PaymentInstructions `json:"payment"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ListOrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
}

// toOrderResponse invite-ссылка отдаётся только по оплаченному заказу
func toOrderResponse(o models.Order) OrderResponse {
	resp := OrderResponse{
		OrderID:        o.OrderID,
		ProductCode:    o.ProductCode,
		ProductName:    o.ProductName,
		AmountExpected: o.AmountExpected,
		Status:         o.Status,
		CreatedAt:      o.CreatedAt,
		ExpiresAt:      o.ExpiresAt,
		PaidRef:        o.PaidRef,
		PaidAt:         o.PaidAt,
	}
	if o.Status == models.OrderStatusPaid {
		resp.InviteLink = o.InviteLink
	}
	return resp
}

// CreateOrderHandler обрабатывает POST /api/orders
func CreateOrderHandler(log *slog.Logger, orderService service.OrderServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		order, payment, err := orderService.CreateOrder(r.Context(), userID, req.ProductCode)
		switch {
		case errors.Is(err, service.ErrSelectionCancelled):
			writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "selection cancelled"})
			return
		case errors.Is(err, service.ErrProductNotFound):
			http.Error(w, "product not found", http.StatusNotFound)
			return
		case err != nil:
			logger.Error("failed to create order", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, http.StatusCreated, CreateOrderResponse{
			Order:   toOrderResponse(*order),
			Payment: payment,
		})
	}
}

// ListOrdersHandler обрабатывает GET /api/orders?limit=N
func ListOrdersHandler(log *slog.Logger, orderService service.OrderServiceInterface, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		limit := defaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 100 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		orders, err := orderService.ListOrders(r.Context(), userID, limit)
		if err != nil {
			logger.Error("failed to list orders", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		resp := ListOrdersResponse{Orders: make([]OrderResponse, 0, len(orders))}
		for _, o := range orders {
			resp.Orders = append(resp.Orders, toOrderResponse(o))
		}
		writeJSON(w, logger, http.StatusOK, resp)
	}
}
