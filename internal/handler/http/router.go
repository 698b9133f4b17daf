package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oakmart/storefront/pkg/health"
	"github.com/oakmart/storefront/pkg/middleware"

	"github.com/oakmart/storefront/internal/service"
)

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	cartService *service.CartService,
	orderService *service.OrderService,
	productService *service.ProductService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics())
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	cartHandler := NewCartHandler(cartService, productService, logger)
	orderHandler := NewOrderHandler(orderService, cartService, logger)
	productHandler := NewProductHandler(productService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Catalog, public.
		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{productID}", productHandler.GetProduct)
		r.Get("/products/slug/{slug}", productHandler.GetProductBySlug)

		// Cart, keyed by browser session.
		r.Route("/cart", func(r chi.Router) {
			r.Use(SessionFromHeader)

			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productID}", cartHandler.UpdateItemQuantity)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
			r.Post("/items/{productID}/increment", cartHandler.IncrementItem)
			r.Post("/items/{productID}/decrement", cartHandler.DecrementItem)

			r.Post("/panel/open", cartHandler.OpenPanel)
			r.Post("/panel/close", cartHandler.ClosePanel)
			r.Post("/panel/toggle", cartHandler.TogglePanel)
		})

		// Orders, authenticated.
		r.Route("/orders", func(r chi.Router) {
			r.Use(UserIDFromHeader)

			r.Get("/", orderHandler.ListOrders)
			r.Get("/{orderID}", orderHandler.GetOrder)
			r.Post("/{orderID}/cancel", orderHandler.CancelOrder)

			// Checkout additionally needs the cart session.
			r.With(SessionFromHeader).Post("/", orderHandler.Checkout)
		})

		// Admin surface.
		r.Route("/admin", func(r chi.Router) {
			r.Use(UserIDFromHeader)
			r.Use(AdminOnly)

			r.Get("/orders", orderHandler.AdminListOrders)
			r.Patch("/orders/{orderID}/status", orderHandler.UpdateOrderStatus)
			r.Patch("/orders/{orderID}/payment", orderHandler.UpdatePaymentStatus)

			r.Get("/products", productHandler.AdminListProducts)
			r.Post("/products", productHandler.CreateProduct)
			r.Get("/products/{productID}", productHandler.AdminGetProduct)
			r.Patch("/products/{productID}", productHandler.UpdateProduct)
			r.Delete("/products/{productID}", productHandler.DeleteProduct)
		})
	})

	return r
}
