package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/http/middleware"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/monitoring"
)

func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", s.healthHandler.HandleHealth())

	mux.HandleFunc("/api/v1/cart", s.cartHandler.HandleCart)
	mux.HandleFunc("/api/v1/cart/items", s.cartHandler.HandleCartItems)
	mux.HandleFunc("/api/v1/cart/items/", s.cartHandler.HandleCartItems)
	mux.HandleFunc("/api/v1/cart/preset", s.cartHandler.HandleApplyPreset)

	mux.HandleFunc("/api/v1/checkout", s.checkoutHandler.HandleCheckout())
	mux.HandleFunc("/api/v1/orders", s.checkoutHandler.HandleOrders)
	mux.HandleFunc("/api/v1/orders/", s.checkoutHandler.HandleOrders)

	mux.HandleFunc("/api/v1/products", s.catalogHandler.HandleProducts)
	mux.HandleFunc("/api/v1/products/", s.catalogHandler.HandleProducts)
	mux.HandleFunc("/api/v1/presets", s.catalogHandler.HandlePresets)

	mux.HandleFunc("/api/v1/applications", s.applicationHandler.HandleSubmit())

	mux.HandleFunc("/api/v1/admin/products", s.adminHandler.HandleCreateProduct)
	mux.HandleFunc("/api/v1/admin/products/", s.handleAdminProductRoutes)
	mux.HandleFunc("/api/v1/admin/presets", s.adminHandler.HandleCreatePreset)
	mux.HandleFunc("/api/v1/admin/applications/", s.adminHandler.HandleUpdateApplication)
	mux.HandleFunc("/api/v1/activity", s.adminHandler.HandleActivity)

	handler := middleware.NewRecoveryMiddleware(s.logger)(mux)
	handler = middleware.NewLoggingMiddleware(s.logger)(handler)
	handler = monitoring.WrapHandler(handler)
	handler = s.corsMiddleware(handler)
	handler = s.timeoutMiddleware(handler)

	return handler
}

func (s *Server) handleAdminProductRoutes(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/stock") {
		s.adminHandler.HandleUpdateStock(w, r)
		return
	}

	http.NotFound(w, r)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Expose-Headers", "Link")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "300")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.TimeoutHandler(next, 90*time.Second, "Request timeout")
}
