package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/ariefcatur/go-marketplace/internal/market"
	"github.com/ariefcatur/go-marketplace/internal/memstore"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type recorder struct {
	mu     sync.Mutex
	topics []string
	events []market.Envelope
}

func (r *recorder) PublishEvent(topic string, env market.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.events = append(r.events, env)
}

type fixture struct {
	store    *memstore.Store
	svc      *Service
	pub      *recorder
	buyerID  string
	sellerID string
	products []string // p1, p2
}

func seedUser(t *testing.T, st *memstore.Store, role market.Role) string {
	t.Helper()
	userID, roleID := uuid.NewString(), uuid.NewString()
	err := st.Atomic(context.Background(), func(tx market.Tx) error {
		ctx := context.Background()
		if err := tx.InsertUser(ctx, market.User{ID: userID, Username: role.String() + "-" + userID[:8], PasswordHash: "x"}); err != nil {
			return err
		}
		if role == market.RoleBuyer {
			return tx.InsertBuyer(ctx, market.Buyer{ID: roleID, UserID: userID})
		}
		return tx.InsertSeller(ctx, market.Seller{ID: roleID, UserID: userID})
	})
	if err != nil {
		t.Fatalf("seed %s: %v", role, err)
	}
	return roleID
}

func seedCatalog(t *testing.T, st *memstore.Store, sellerID string, names ...string) []string {
	t.Helper()
	catalogID := uuid.NewString()
	var ids []string
	var products []market.Product
	for i, n := range names {
		id := uuid.NewString()
		ids = append(ids, id)
		products = append(products, market.Product{ID: id, CatalogID: catalogID, Name: n, Price: decimal.NewFromInt(int64(i + 1)), Position: i})
	}
	err := st.Atomic(context.Background(), func(tx market.Tx) error {
		if err := tx.InsertCatalog(context.Background(), market.Catalog{ID: catalogID, Name: "c", SellerID: sellerID}); err != nil {
			return err
		}
		return tx.InsertProducts(context.Background(), products)
	})
	if err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	return ids
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	pub := &recorder{}
	f := &fixture{
		store:    st,
		pub:      pub,
		svc:      NewService(st, pub, "test", slog.New(slog.NewTextHandler(io.Discard, nil))),
		buyerID:  seedUser(t, st, market.RoleBuyer),
		sellerID: seedUser(t, st, market.RoleSeller),
	}
	f.products = seedCatalog(t, st, f.sellerID, "product 1", "product 2")
	return f
}

func (f *fixture) orderCount(t *testing.T) int {
	t.Helper()
	list, err := f.svc.ForSeller(context.Background(), f.sellerID)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	return len(list)
}

func TestCreateOrderForEverySubset(t *testing.T) {
	p1, p2 := 0, 1
	subsets := map[string][]int{
		"p1":    {p1},
		"p2":    {p2},
		"p1,p2": {p1, p2},
		"p2,p1": {p2, p1},
	}
	for name, subset := range subsets {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			var ids []string
			for _, i := range subset {
				ids = append(ids, f.products[i])
			}
			order, err := f.svc.Create(context.Background(), f.buyerID, f.sellerID, ids)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			list, err := f.svc.ForSeller(context.Background(), f.sellerID)
			if err != nil || len(list) != 1 {
				t.Fatalf("expected one order, got %d (%v)", len(list), err)
			}
			got := list[0]
			if got.ID != order.ID || len(got.Items) != len(ids) {
				t.Fatalf("unexpected order %+v", got)
			}
			for i, it := range got.Items {
				if it.ProductID != ids[i] {
					t.Fatalf("item %d: expected %s, got %s", i, ids[i], it.ProductID)
				}
			}
			if got.BuyerUsername == "" {
				t.Fatalf("expected buyer username on read side")
			}
		})
	}
}

func TestCreateOrderRejections(t *testing.T) {
	f := newFixture(t)
	otherSeller := seedUser(t, f.store, market.RoleSeller)
	foreign := seedCatalog(t, f.store, otherSeller, "elsewhere")

	cases := []struct {
		name     string
		sellerID string
		ids      []string
		want     error
	}{
		{"bad seller id", "not-a-uuid", []string{f.products[0]}, market.ErrInvalidSeller},
		{"unknown seller", uuid.NewString(), []string{f.products[0]}, market.ErrUnknownSeller},
		{"empty", f.sellerID, nil, market.ErrNoProducts},
		{"unknown product", f.sellerID, []string{f.products[0], uuid.NewString()}, market.ErrUnknownProduct},
		{"malformed product", f.sellerID, []string{"nope"}, market.ErrUnknownProduct},
		{"duplicate", f.sellerID, []string{f.products[0], f.products[0]}, market.ErrDuplicateProduct},
		{"duplicate in another spelling", f.sellerID, []string{f.products[0], strings.ToUpper(f.products[0])}, market.ErrDuplicateProduct},
		{"other seller's product", f.sellerID, []string{f.products[0], foreign[0]}, market.ErrForeignProduct},
		{"products under wrong seller", otherSeller, []string{f.products[0]}, market.ErrForeignProduct},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.buyerID, tc.sellerID, tc.ids)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if market.KindOf(err) != market.KindValidation {
				t.Fatalf("expected validation kind, got %v", market.KindOf(err))
			}
		})
	}
	if n := f.orderCount(t); n != 0 {
		t.Fatalf("rejected orders must not be stored, found %d", n)
	}
	if len(f.pub.events) != 0 {
		t.Fatalf("rejected orders must not publish events")
	}
}

func TestCreateOrderAcceptsNonCanonicalIDs(t *testing.T) {
	f := newFixture(t)
	ids := []string{strings.ToUpper(f.products[0]), "{" + f.products[1] + "}"}

	order, err := f.svc.Create(context.Background(), f.buyerID, strings.ToUpper(f.sellerID), ids)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.SellerID != f.sellerID {
		t.Fatalf("expected canonical seller id %s, got %s", f.sellerID, order.SellerID)
	}
	for i, it := range order.Items {
		if it.ProductID != f.products[i] {
			t.Fatalf("item %d: expected %s, got %s", i, f.products[i], it.ProductID)
		}
	}
	if n := f.orderCount(t); n != 1 {
		t.Fatalf("expected 1 order, got %d", n)
	}
}

func TestOrderSurvivesCatalogReplacement(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Create(context.Background(), f.buyerID, f.sellerID, f.products); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := f.store.Atomic(context.Background(), func(tx market.Tx) error {
		ctx := context.Background()
		c, err := tx.CatalogBySeller(ctx, f.sellerID)
		if err != nil {
			return err
		}
		if err := tx.DeleteProductsByCatalog(ctx, c.ID); err != nil {
			return err
		}
		return tx.DeleteCatalog(ctx, c.ID)
	})
	if err != nil {
		t.Fatalf("drop catalog: %v", err)
	}

	list, err := f.svc.ForSeller(context.Background(), f.sellerID)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected order to remain, got %d (%v)", len(list), err)
	}
	items := list[0].Items
	if len(items) != 2 || items[0].Name != "product 1" || !items[1].Price.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("snapshot lost: %+v", items)
	}

	if _, err := f.svc.Create(context.Background(), f.buyerID, f.sellerID, f.products[:1]); !errors.Is(err, market.ErrUnknownProduct) {
		t.Fatalf("expected removed product to be unknown, got %v", err)
	}
}

func TestCreateOrderPublishesEvent(t *testing.T) {
	f := newFixture(t)
	order, err := f.svc.Create(context.Background(), f.buyerID, f.sellerID, f.products)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(f.pub.events) != 1 || f.pub.topics[0] != market.TopicOrderCreated {
		t.Fatalf("expected one order event, got %v", f.pub.topics)
	}
	env := f.pub.events[0]
	if env.EventType != market.EventOrderCreated || env.CorrelationID != f.sellerID {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if !order.Total().Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected total 3, got %s", order.Total())
	}
}
