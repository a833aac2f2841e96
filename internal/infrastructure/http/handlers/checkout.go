package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fadedwholesale/wholesale-service/internal/application/use_cases"
	"github.com/fadedwholesale/wholesale-service/internal/domain/cart"
	"github.com/fadedwholesale/wholesale-service/internal/domain/order"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/http/response"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/monitoring"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

type CheckoutHandler struct {
	checkout *use_cases.CheckoutUseCase
	log      *logger.Logger
}

func NewCheckoutHandler(checkout *use_cases.CheckoutUseCase, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		log:      log,
	}
}

type orderLineResponse struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type orderResponse struct {
	Code            string              `json:"code"`
	Lines           []orderLineResponse `json:"lines"`
	Subtotal        float64             `json:"subtotal"`
	ShippingFee     float64             `json:"shipping_fee"`
	DiscountPercent float64             `json:"discount_percent"`
	DiscountAmount  float64             `json:"discount_amount"`
	Total           float64             `json:"total"`
	CreatedAt       string              `json:"created_at"`
}

func (h *CheckoutHandler) HandleCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			response.WriteValidationError(w, "Validation failed", map[string]string{
				"user_id": "user_id is required",
			})
			return
		}

		metrics := monitoring.NewCheckoutMetrics()
		metrics.RecordAttempt()

		o, err := h.checkout.Execute(r.Context(), userID)
		if err != nil {
			h.log.Error("Checkout failed", "user_id", userID, "error", err.Error())
			metrics.RecordFailure(err.Error())
			response.WriteDomainError(w, err)
			return
		}

		metrics.RecordSuccess(o.Total)
		response.WriteJSON(w, http.StatusCreated, response.Success(toOrderResponse(o)))
	}
}

// HandleOrders serves GET /orders (by user) and GET /orders/{code}.
func (h *CheckoutHandler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	code := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/orders"), "/")
	if code != "" {
		h.handleGetOrder(w, r, code)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		response.WriteValidationError(w, "Validation failed", map[string]string{
			"user_id": "user_id is required",
		})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.checkout.GetOrdersByUserID(r.Context(), userID, limit, offset)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}

	response.WriteSuccess(w, resp)
}

func (h *CheckoutHandler) handleGetOrder(w http.ResponseWriter, r *http.Request, code string) {
	o, err := h.checkout.GetOrderByCode(r.Context(), code)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteSuccess(w, toOrderResponse(o))
}

func toOrderResponse(o *order.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineResponse{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	// Stored amounts carry full float64 precision; round for presentation,
	// same as the cart snapshot does.
	return orderResponse{
		Code:            o.Code,
		Lines:           lines,
		Subtotal:        cart.RoundCurrency(o.Subtotal),
		ShippingFee:     cart.RoundCurrency(o.ShippingFee),
		DiscountPercent: o.DiscountPercent,
		DiscountAmount:  cart.RoundCurrency(o.DiscountAmount),
		Total:           cart.RoundCurrency(o.Total),
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
	}
}
