package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fadedwholesale/wholesale-service/internal/application/bus"
	"github.com/fadedwholesale/wholesale-service/internal/application/ports"
	"github.com/fadedwholesale/wholesale-service/internal/domain/catalog"
	"github.com/fadedwholesale/wholesale-service/internal/domain/event"
	"github.com/fadedwholesale/wholesale-service/internal/domain/intake"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/http/response"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/generator"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

type AdminHandler struct {
	catalogRepo     ports.CatalogRepository
	presetRepo      ports.PresetRepository
	applicationRepo ports.ApplicationRepository
	activityLog     ports.ActivityLog
	stockFilter     ports.StockFilter
	syncBus         *bus.Bus
	gen             *generator.CodeGenerator
	log             *logger.Logger
}

func NewAdminHandler(
	catalogRepo ports.CatalogRepository,
	presetRepo ports.PresetRepository,
	applicationRepo ports.ApplicationRepository,
	activityLog ports.ActivityLog,
	stockFilter ports.StockFilter,
	syncBus *bus.Bus,
	log *logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		catalogRepo:     catalogRepo,
		presetRepo:      presetRepo,
		applicationRepo: applicationRepo,
		activityLog:     activityLog,
		stockFilter:     stockFilter,
		syncBus:         syncBus,
		gen:             generator.NewCodeGenerator(),
		log:             log,
	}
}

type createProductRequest struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	UnitPrice    float64 `json:"unit_price"`
	UnitLabel    string  `json:"unit_label"`
	StockCeiling int     `json:"stock_ceiling"`
}

func (h *AdminHandler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.StatusValidationError, "Invalid request body", err.Error())
		return
	}

	validationErrors := make(map[string]string)
	if req.Name == "" {
		validationErrors["name"] = "name is required"
	}
	if req.UnitPrice <= 0 {
		validationErrors["unit_price"] = "unit_price must be greater than 0"
	}
	if req.StockCeiling < 0 {
		validationErrors["stock_ceiling"] = "stock_ceiling must not be negative"
	}
	if len(validationErrors) > 0 {
		response.WriteValidationError(w, "Validation failed", validationErrors)
		return
	}

	p := catalog.NewProduct(
		h.gen.GenerateProductID(),
		req.Name,
		req.Category,
		req.UnitPrice,
		catalog.UnitLabel(req.UnitLabel),
		req.StockCeiling,
	)

	if err := h.catalogRepo.CreateProduct(r.Context(), p); err != nil {
		h.log.Error("Failed to create product", "name", req.Name, "error", err.Error())
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, response.Success(toProductResponse(p)))
}

type updateStockRequest struct {
	StockCeiling int `json:"stock_ceiling"`
}

// HandleUpdateStock serves PUT /admin/products/{id}/stock. A restock above
// zero resets the sold-out filter so the product stops tripping the fast path.
func (h *AdminHandler) HandleUpdateStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1/admin/products/")
	productID := strings.TrimSuffix(path, "/stock")
	if productID == "" || productID == path {
		http.NotFound(w, r)
		return
	}

	var req updateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.StatusValidationError, "Invalid request body", err.Error())
		return
	}
	if req.StockCeiling < 0 {
		response.WriteValidationError(w, "Validation failed", map[string]string{
			"stock_ceiling": "stock_ceiling must not be negative",
		})
		return
	}

	if err := h.catalogRepo.UpdateStockCeiling(r.Context(), productID, req.StockCeiling); err != nil {
		response.WriteDomainError(w, err)
		return
	}

	if req.StockCeiling > 0 && h.stockFilter != nil {
		if err := h.stockFilter.Reset(r.Context()); err != nil {
			h.log.Warn("Failed to reset stock filter after restock", "product_id", productID, "error", err)
		}
	}

	h.publish(r.Context(), event.TypeStockChanged, map[string]interface{}{
		"product_id": productID,
		"remaining":  req.StockCeiling,
	})

	response.WriteSuccess(w, map[string]interface{}{
		"product_id":    productID,
		"stock_ceiling": req.StockCeiling,
	})
}

type createPresetRequest struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Lines       []catalog.PresetLine `json:"lines"`
}

func (h *AdminHandler) HandleCreatePreset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req createPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.StatusValidationError, "Invalid request body", err.Error())
		return
	}

	validationErrors := make(map[string]string)
	if req.Name == "" {
		validationErrors["name"] = "name is required"
	}
	if len(req.Lines) == 0 {
		validationErrors["lines"] = "at least one line is required"
	}
	for _, line := range req.Lines {
		if line.ProductID == "" || line.Quantity <= 0 {
			validationErrors["lines"] = "every line needs a product_id and a positive quantity"
			break
		}
	}
	if len(validationErrors) > 0 {
		response.WriteValidationError(w, "Validation failed", validationErrors)
		return
	}

	p := &catalog.Preset{
		ID:          h.gen.GeneratePresetID(),
		Name:        req.Name,
		Description: req.Description,
		Lines:       req.Lines,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.presetRepo.CreatePreset(r.Context(), p); err != nil {
		h.log.Error("Failed to create preset", "name", req.Name, "error", err.Error())
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, response.Success(presetResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Lines:       p.Lines,
		TotalItems:  p.TotalItems(),
	}))
}

type updateApplicationRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandler) HandleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1/admin/applications/")
	applicationID := strings.TrimSuffix(path, "/status")
	if applicationID == "" || applicationID == path {
		http.NotFound(w, r)
		return
	}

	var req updateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.StatusValidationError, "Invalid request body", err.Error())
		return
	}

	status := intake.Status(req.Status)
	if status != intake.StatusApproved && status != intake.StatusRejected {
		response.WriteValidationError(w, "Validation failed", map[string]string{
			"status": "status must be approved or rejected",
		})
		return
	}

	if err := h.applicationRepo.UpdateStatus(r.Context(), applicationID, status); err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteSuccess(w, map[string]string{
		"application_id": applicationID,
		"status":         string(status),
	})
}

type activityEntryResponse struct {
	Actor     string          `json:"actor"`
	Action    string          `json:"action"`
	Kind      string          `json:"kind"`
	Message   string          `json:"message"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	CreatedAt string          `json:"created_at"`
}

func (h *AdminHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.activityLog.Recent(r.Context(), limit)
	if err != nil {
		h.log.Error("Failed to read activity log", "error", err.Error())
		response.WriteDomainError(w, err)
		return
	}

	resp := make([]activityEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, activityEntryResponse{
			Actor:     e.Actor,
			Action:    e.Action,
			Kind:      e.Kind,
			Message:   e.Message,
			Detail:    json.RawMessage(e.Detail),
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}

	response.WriteSuccess(w, resp)
}

func (h *AdminHandler) publish(ctx context.Context, eventType string, payload interface{}) {
	if h.syncBus == nil {
		return
	}
	if err := h.syncBus.Publish(ctx, eventType, payload); err != nil {
		h.log.Warn("Failed to publish sync event", "event_type", eventType, "error", err)
	}
}
