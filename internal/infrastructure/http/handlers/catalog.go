package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/fadedwholesale/wholesale-service/internal/application/ports"
	"github.com/fadedwholesale/wholesale-service/internal/domain/catalog"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/http/response"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

type CatalogHandler struct {
	catalog ports.CatalogProvider
	presets ports.PresetRepository
	log     *logger.Logger
}

func NewCatalogHandler(catalog ports.CatalogProvider, presets ports.PresetRepository, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		presets: presets,
		log:     log,
	}
}

type productResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	UnitPrice    float64 `json:"unit_price"`
	UnitLabel    string  `json:"unit_label"`
	StockCeiling int     `json:"stock_ceiling"`
	InStock      bool    `json:"in_stock"`
	CreatedAt    string  `json:"created_at"`
}

type presetResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Lines       []catalog.PresetLine `json:"lines"`
	TotalItems  int                  `json:"total_items"`
}

// HandleProducts serves GET /products and GET /products/{id}.
func (h *CatalogHandler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/products"), "/")
	if id != "" {
		h.handleGetProduct(w, r, id)
		return
	}

	products, err := h.catalog.GetProducts(r.Context())
	if err != nil {
		h.log.Error("Failed to list products", "error", err.Error())
		response.WriteDomainError(w, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}

	response.WriteSuccess(w, resp)
}

func (h *CatalogHandler) HandlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	presets, err := h.presets.GetPresets(r.Context())
	if err != nil {
		h.log.Error("Failed to list presets", "error", err.Error())
		response.WriteDomainError(w, err)
		return
	}

	resp := make([]presetResponse, 0, len(presets))
	for _, p := range presets {
		resp = append(resp, presetResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Lines:       p.Lines,
			TotalItems:  p.TotalItems(),
		})
	}

	response.WriteSuccess(w, resp)
}

func (h *CatalogHandler) handleGetProduct(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.catalog.GetProductByID(r.Context(), id)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteSuccess(w, toProductResponse(p))
}

func toProductResponse(p *catalog.Product) productResponse {
	return productResponse{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		UnitPrice:    p.UnitPrice,
		UnitLabel:    string(p.UnitLabel),
		StockCeiling: p.StockCeiling,
		InStock:      p.InStock(),
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
}
