package httpx

import (
	"context"
	"log/slog"
	"time"

	"github.com/ariefcatur/go-marketplace/internal/auth"
	"github.com/ariefcatur/go-marketplace/internal/catalog"
	"github.com/ariefcatur/go-marketplace/internal/market"
	"github.com/ariefcatur/go-marketplace/internal/orders"
	"github.com/ariefcatur/go-marketplace/internal/ratelimit"
	"github.com/ariefcatur/go-marketplace/internal/redisx"
	"github.com/go-chi/chi/v5"
)

// SellerStatsReader serves the counters kept by the stats worker.
type SellerStatsReader interface {
	SellerStats(ctx context.Context, sellerID string) (redisx.SellerStats, error)
}

// Handler mounts the marketplace API. Stats and Limiter are optional.
type Handler struct {
	Auth    *auth.Service
	Catalog *catalog.Service
	Orders  *orders.Service
	Stats   SellerStatsReader
	Limiter *ratelimit.KeyLimiter
	Logger  *slog.Logger
	Timeout time.Duration
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		if h.Limiter != nil {
			r.Use(RateLimit(h.Limiter))
		}
		r.Post("/register", h.register)
		r.Post("/login", h.login)
	})

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(h.Auth, h.Logger))

		r.Route("/buyer", func(r chi.Router) {
			r.Use(RequireRole(market.RoleBuyer))
			r.Get("/list-of-sellers", h.listSellers)
			r.Get("/seller-catalog/{seller_id}", h.sellerCatalog)
			r.Post("/create-order/{seller_id}", h.createOrder)
		})

		r.Route("/seller", func(r chi.Router) {
			r.Use(RequireRole(market.RoleSeller))
			r.Post("/create-catalog", h.createCatalog)
			r.Get("/orders", h.sellerOrders)
			if h.Stats != nil {
				r.Get("/stats", h.sellerStats)
			}
		})
	})
}

func (h *Handler) timeout() time.Duration {
	if h.Timeout <= 0 {
		return 10 * time.Second
	}
	return h.Timeout
}

// mutationContext detaches a write from the client connection so the
// transaction, not a dropped request, decides the outcome.
func (h *Handler) mutationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), h.timeout())
}

func (h *Handler) readContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, h.timeout())
}
