// Package catalog replaces a seller's catalog atomically and serves catalog
// reads for buyers.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ariefcatur/go-marketplace/internal/market"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cache stores catalog reads per seller under a generation. Invalidate bumps
// the generation so entries written under an older one are never read again.
type Cache interface {
	Get(ctx context.Context, sellerID string) (c *market.Catalog, gen int64, hit bool, err error)
	Set(ctx context.Context, sellerID string, gen int64, c *market.Catalog) error
	Invalidate(ctx context.Context, sellerID string) error
}

type ProductInput struct {
	Name  string
	Price *decimal.Decimal
}

type ReplaceInput struct {
	Name     string
	Products []ProductInput
}

type Service struct {
	store     market.Store
	cache     Cache
	publisher market.Publisher
	producer  string
	logger    *slog.Logger
}

// NewService wires the catalog workflow. cache and publisher may be nil.
func NewService(store market.Store, cache Cache, publisher market.Publisher, producer string, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = market.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cache: cache, publisher: publisher, producer: producer, logger: logger}
}

func validate(in ReplaceInput) (string, []decimal.Decimal, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", nil, market.Validation("Catalog name is required")
	}
	if len(in.Products) == 0 {
		return "", nil, market.ErrNoProducts
	}
	prices := make([]decimal.Decimal, 0, len(in.Products))
	for i, p := range in.Products {
		if strings.TrimSpace(p.Name) == "" {
			return "", nil, market.Validation(fmt.Sprintf("Product %d: name is required", i))
		}
		if p.Price == nil {
			return "", nil, market.Validation(fmt.Sprintf("Product %d: price is required", i))
		}
		price, err := normalizePrice(*p.Price)
		if err != nil {
			return "", nil, market.Validation(fmt.Sprintf("Product %d: %s", i, err))
		}
		prices = append(prices, price)
	}
	return name, prices, nil
}

const (
	priceScale     = 2  // digits after the decimal point
	priceIntDigits = 12 // digits before it
)

// normalizePrice keeps prices within NUMERIC(14,2). Only the exponent and the
// coefficient's digit count are inspected before anything is rescaled, so a
// price like 1e200000000 is rejected without being expanded.
func normalizePrice(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsNegative() {
		return decimal.Decimal{}, errors.New("price must not be negative")
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}
	exp := d.Exponent()
	if int64(d.NumDigits())+int64(exp) > priceIntDigits {
		return decimal.Decimal{}, fmt.Errorf("price must be below 10^%d", priceIntDigits)
	}
	if exp < -priceScale {
		// trailing zeros (2.500) are accepted; anything finer than a cent is not
		if exp < -(priceScale+priceIntDigits) || !d.Equal(d.Truncate(priceScale)) {
			return decimal.Decimal{}, fmt.Errorf("price must have at most %d decimal places", priceScale)
		}
		d = d.Truncate(priceScale)
	}
	return d, nil
}

// Replace swaps the seller's catalog for a new one built from in. The old
// catalog and its products are removed in the same transaction.
func (s *Service) Replace(ctx context.Context, sellerID string, in ReplaceInput) (market.Catalog, error) {
	name, prices, err := validate(in)
	if err != nil {
		return market.Catalog{}, err
	}

	next := market.Catalog{ID: uuid.NewString(), Name: name, SellerID: sellerID}
	next.Products = make([]market.Product, 0, len(in.Products))
	for i, p := range in.Products {
		next.Products = append(next.Products, market.Product{
			ID:        uuid.NewString(),
			CatalogID: next.ID,
			Name:      strings.TrimSpace(p.Name),
			Price:     prices[i],
			Position:  i,
		})
	}

	var previousID string
	err = s.store.Atomic(ctx, func(tx market.Tx) error {
		if err := tx.LockSeller(ctx, sellerID); err != nil {
			return err
		}
		prev, err := tx.CatalogBySeller(ctx, sellerID)
		switch {
		case err == nil:
			previousID = prev.ID
		case errors.Is(err, market.ErrNotFound):
		default:
			return err
		}

		if err := tx.InsertCatalog(ctx, next); err != nil {
			return err
		}
		if err := tx.InsertProducts(ctx, next.Products); err != nil {
			return err
		}
		if previousID == "" {
			return nil
		}
		if err := tx.DeleteProductsByCatalog(ctx, previousID); err != nil {
			return err
		}
		return tx.DeleteCatalog(ctx, previousID)
	})
	if errors.Is(err, market.ErrNotFound) {
		return market.Catalog{}, market.ErrUnauthorized
	}
	if err != nil {
		return market.Catalog{}, fmt.Errorf("replace catalog: %w", err)
	}

	// committed: follow-ups must not depend on the caller still waiting
	after := context.WithoutCancel(ctx)
	if s.cache != nil {
		if err := s.cache.Invalidate(after, sellerID); err != nil {
			s.logger.Error("catalog cache invalidation failed",
				"event", "catalog_cache_invalidate_failed", "seller_id", sellerID, "error", err.Error())
		}
	}
	s.publish(after, next, previousID)

	s.logger.Info("catalog replaced",
		"event", "catalog_replaced",
		"seller_id", sellerID,
		"catalog_id", next.ID,
		"previous_catalog_id", previousID,
		"products", len(next.Products),
	)
	return next, nil
}

func (s *Service) publish(ctx context.Context, c market.Catalog, previousID string) {
	env, err := market.NewEnvelope(market.EventCatalogReplaced, s.producer, market.TraceID(ctx), c.SellerID,
		market.CatalogReplacedPayload{
			SellerID:          c.SellerID,
			CatalogID:         c.ID,
			PreviousCatalogID: previousID,
			ProductCount:      len(c.Products),
		})
	if err != nil {
		s.logger.Error("encode catalog event", "event", "catalog_event_encode_failed", "error", err.Error())
		return
	}
	s.publisher.PublishEvent(market.TopicCatalogReplaced, env)
}

// SellerCatalog returns the live catalog of sellerID, or nil when the seller
// has none yet.
func (s *Service) SellerCatalog(ctx context.Context, sellerID string) (*market.Catalog, error) {
	u, err := uuid.Parse(sellerID)
	if err != nil {
		return nil, market.ErrInvalidSeller
	}
	// cache keys and the generation bumped by Replace use the canonical form
	sellerID = u.String()

	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		c, g, hit, err := s.cache.Get(ctx, sellerID)
		switch {
		case err != nil:
			s.logger.Warn("catalog cache read failed",
				"event", "catalog_cache_get_failed", "seller_id", sellerID, "error", err.Error())
		case hit:
			return c, nil
		default:
			gen, cacheable = g, true
		}
	}

	var out *market.Catalog
	err = s.store.Read(ctx, func(tx market.Tx) error {
		if _, err := tx.GetSeller(ctx, sellerID); err != nil {
			return err
		}
		c, err := tx.CatalogBySeller(ctx, sellerID)
		if errors.Is(err, market.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out = &c
		return nil
	})
	if errors.Is(err, market.ErrNotFound) {
		return nil, market.ErrSellerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	if cacheable {
		setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := s.cache.Set(setCtx, sellerID, gen, out); err != nil {
			s.logger.Warn("catalog cache write failed",
				"event", "catalog_cache_set_failed", "seller_id", sellerID, "error", err.Error())
		}
	}
	return out, nil
}

func (s *Service) Sellers(ctx context.Context) ([]market.SellerSummary, error) {
	var out []market.SellerSummary
	err := s.store.Read(ctx, func(tx market.Tx) error {
		var err error
		out, err = tx.ListSellers(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list sellers: %w", err)
	}
	return out, nil
}
