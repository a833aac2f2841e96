package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fadedwholesale/wholesale-service/internal/application/commands"
	"github.com/fadedwholesale/wholesale-service/internal/application/use_cases"
	"github.com/fadedwholesale/wholesale-service/internal/domain/cart"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/http/response"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/monitoring"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

type CartHandler struct {
	carts       *use_cases.CartUseCase
	applyPreset *commands.ApplyPresetHandler
	log         *logger.Logger
}

func NewCartHandler(carts *use_cases.CartUseCase, applyPreset *commands.ApplyPresetHandler, log *logger.Logger) *CartHandler {
	return &CartHandler{
		carts:       carts,
		applyPreset: applyPreset,
		log:         log,
	}
}

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type cartSnapshotResponse struct {
	UserID string             `json:"user_id"`
	Lines  []cart.Line        `json:"lines"`
	Totals cart.PricingResult `json:"totals"`
}

// HandleCart serves GET (snapshot) and DELETE (clear) on the cart root.
func (h *CartHandler) HandleCart(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		response.WriteValidationError(w, "Validation failed", map[string]string{
			"user_id": "user_id is required",
		})
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleSnapshot(w, r, userID)
	case http.MethodDelete:
		h.handleClear(w, r, userID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// HandleCartItems serves POST (add), PUT (set quantity) and DELETE (remove)
// on cart lines.
func (h *CartHandler) HandleCartItems(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		response.WriteValidationError(w, "Validation failed", map[string]string{
			"user_id": "user_id is required",
		})
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.handleAdd(w, r, userID)
	case http.MethodPut:
		h.handleSetQuantity(w, r, userID)
	case http.MethodDelete:
		h.handleRemove(w, r, userID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *CartHandler) HandleApplyPreset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("user_id")

	var req struct {
		PresetID string `json:"preset_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.StatusValidationError, "Invalid request body", err.Error())
		return
	}

	validationErrors := make(map[string]string)
	if userID == "" {
		validationErrors["user_id"] = "user_id is required"
	}
	if req.PresetID == "" {
		validationErrors["preset_id"] = "preset_id is required"
	}
	if len(validationErrors) > 0 {
		response.WriteValidationError(w, "Validation failed", validationErrors)
		return
	}

	resp, err := h.applyPreset.Handle(r.Context(), commands.ApplyPresetCommand{
		UserID:   userID,
		PresetID: req.PresetID,
	})
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteSuccess(w, resp)
}

func (h *CartHandler) handleSnapshot(w http.ResponseWriter, r *http.Request, userID string) {
	lines, totals, err := h.carts.Snapshot(r.Context(), userID)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	if lines == nil {
		lines = []cart.Line{}
	}

	response.WriteSuccess(w, cartSnapshotResponse{
		UserID: userID,
		Lines:  lines,
		Totals: totals.Rounded(),
	})
}

func (h *CartHandler) handleAdd(w http.ResponseWriter, r *http.Request, userID string) {
	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.StatusValidationError, "Invalid request body", err.Error())
		return
	}
	if req.ProductID == "" {
		response.WriteValidationError(w, "Validation failed", map[string]string{
			"product_id": "product_id is required",
		})
		return
	}

	metrics := monitoring.NewCartMetrics("add")

	result, err := h.carts.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		metrics.RecordFailure(err.Error())
		response.WriteDomainError(w, err)
		return
	}

	metrics.RecordSuccess(result.Clamped)
	if !result.Persisted {
		metrics.RecordUnpersisted()
	}
	response.WriteSuccess(w, result)
}

func (h *CartHandler) handleSetQuantity(w http.ResponseWriter, r *http.Request, userID string) {
	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.StatusValidationError, "Invalid request body", err.Error())
		return
	}
	if req.ProductID == "" {
		response.WriteValidationError(w, "Validation failed", map[string]string{
			"product_id": "product_id is required",
		})
		return
	}

	metrics := monitoring.NewCartMetrics("set_quantity")

	result, err := h.carts.SetQuantity(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		metrics.RecordFailure(err.Error())
		response.WriteDomainError(w, err)
		return
	}

	metrics.RecordSuccess(result.Clamped)
	if !result.Persisted {
		metrics.RecordUnpersisted()
	}
	response.WriteSuccess(w, result)
}

func (h *CartHandler) handleRemove(w http.ResponseWriter, r *http.Request, userID string) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		// Also accept /cart/items/{product_id}.
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/cart/items"), "/")
		for _, p := range parts {
			if p != "" {
				productID = p
				break
			}
		}
	}
	if productID == "" {
		response.WriteValidationError(w, "Validation failed", map[string]string{
			"product_id": "product_id is required",
		})
		return
	}

	metrics := monitoring.NewCartMetrics("remove")

	result, err := h.carts.RemoveItem(r.Context(), userID, productID)
	if err != nil {
		metrics.RecordFailure(err.Error())
		response.WriteDomainError(w, err)
		return
	}

	metrics.RecordSuccess(false)
	response.WriteSuccess(w, result)
}

func (h *CartHandler) handleClear(w http.ResponseWriter, r *http.Request, userID string) {
	metrics := monitoring.NewCartMetrics("clear")

	if err := h.carts.Clear(r.Context(), userID); err != nil {
		metrics.RecordFailure(err.Error())
		response.WriteDomainError(w, err)
		return
	}

	metrics.RecordSuccess(false)
	response.WriteSuccess(w, map[string]string{"status": "cleared"})
}
