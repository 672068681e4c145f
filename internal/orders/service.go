// Package orders places buyer orders against one seller's live catalog and
// lists a seller's orders.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ariefcatur/go-marketplace/internal/market"
	"github.com/google/uuid"
)

type Service struct {
	store     market.Store
	publisher market.Publisher
	producer  string
	logger    *slog.Logger
}

func NewService(store market.Store, publisher market.Publisher, producer string, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = market.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, publisher: publisher, producer: producer, logger: logger}
}

// checkProductIDs rejects empty and duplicate lists and returns the ids in
// canonical form. Ids that are not uuids can never match a product and are
// reported as unknown.
func checkProductIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, market.ErrNoProducts
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		u, err := uuid.Parse(raw)
		if err != nil {
			return nil, market.ErrUnknownProduct
		}
		id := u.String()
		if _, dup := seen[id]; dup {
			return nil, market.ErrDuplicateProduct
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// Create places an order of productIDs from sellerID for buyerID. The order
// and all of its items are written in one transaction while the products are
// share-locked.
func (s *Service) Create(ctx context.Context, buyerID, sellerID string, productIDs []string) (market.Order, error) {
	u, err := uuid.Parse(sellerID)
	if err != nil {
		return market.Order{}, market.ErrInvalidSeller
	}
	sellerID = u.String()
	productIDs, err = checkProductIDs(productIDs)
	if err != nil {
		return market.Order{}, err
	}

	order := market.Order{ID: uuid.NewString(), BuyerID: buyerID, SellerID: sellerID}
	err = s.store.Atomic(ctx, func(tx market.Tx) error {
		if _, err := tx.GetSeller(ctx, sellerID); err != nil {
			if errors.Is(err, market.ErrNotFound) {
				return market.ErrUnknownSeller
			}
			return err
		}

		found, err := tx.ProductsForOrder(ctx, productIDs)
		if err != nil {
			return err
		}
		if len(found) != len(productIDs) {
			return market.ErrUnknownProduct
		}
		byID := make(map[string]market.OwnedProduct, len(found))
		for _, p := range found {
			if p.SellerID != sellerID {
				return market.ErrForeignProduct
			}
			byID[p.ID] = p
		}

		order.Items = make([]market.OrderItem, 0, len(productIDs))
		for i, id := range productIDs {
			p, ok := byID[id]
			if !ok {
				return market.ErrUnknownProduct
			}
			order.Items = append(order.Items, market.OrderItem{ProductID: p.ID, Name: p.Name, Price: p.Price, Position: i})
		}
		return tx.InsertOrder(ctx, order)
	})
	if err != nil {
		if market.KindOf(err) != market.KindInternal {
			return market.Order{}, err
		}
		return market.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.publish(context.WithoutCancel(ctx), order)
	s.logger.Info("order created",
		"event", "order_created",
		"order_id", order.ID,
		"seller_id", sellerID,
		"buyer_id", buyerID,
		"items", len(order.Items),
	)
	return order, nil
}

func (s *Service) publish(ctx context.Context, o market.Order) {
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ProductID)
	}
	env, err := market.NewEnvelope(market.EventOrderCreated, s.producer, market.TraceID(ctx), o.SellerID,
		market.OrderCreatedPayload{
			OrderID:    o.ID,
			SellerID:   o.SellerID,
			BuyerID:    o.BuyerID,
			ProductIDs: ids,
			Total:      o.Total().String(),
		})
	if err != nil {
		s.logger.Error("encode order event", "event", "order_event_encode_failed", "error", err.Error())
		return
	}
	s.publisher.PublishEvent(market.TopicOrderCreated, env)
}

// ForSeller lists the seller's orders oldest first.
func (s *Service) ForSeller(ctx context.Context, sellerID string) ([]market.Order, error) {
	var out []market.Order
	err := s.store.Read(ctx, func(tx market.Tx) error {
		var err error
		out, err = tx.OrdersBySeller(ctx, sellerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}
