// Package memstore is an in-process market.Store used by tests and by
// STORE_DRIVER=memory. Writers are fully serialized: Atomic works on a copy of
// the state and swaps it in only when fn succeeds.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-marketplace/internal/market"
)

type state struct {
	users     map[string]market.User
	usernames map[string]string // username -> user id
	buyers    map[string]market.Buyer
	sellers   map[string]market.Seller
	catalogs  map[string]market.Catalog // products kept in the products map
	products  map[string]market.Product
	orders    map[string]market.Order
	orderSeq  []string
}

func newState() *state {
	return &state{
		users:     map[string]market.User{},
		usernames: map[string]string{},
		buyers:    map[string]market.Buyer{},
		sellers:   map[string]market.Seller{},
		catalogs:  map[string]market.Catalog{},
		products:  map[string]market.Product{},
		orders:    map[string]market.Order{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.usernames {
		c.usernames[k] = v
	}
	for k, v := range s.buyers {
		c.buyers[k] = v
	}
	for k, v := range s.sellers {
		c.sellers[k] = v
	}
	for k, v := range s.catalogs {
		c.catalogs[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	c.orderSeq = append([]string(nil), s.orderSeq...)
	return c
}

// checkCatalogs enforces one catalog per seller at commit time, like the
// deferred unique constraint in Postgres.
func (s *state) checkCatalogs() error {
	seen := make(map[string]bool, len(s.catalogs))
	for _, c := range s.catalogs {
		if seen[c.SellerID] {
			return market.ErrMultipleCatalogs
		}
		seen[c.SellerID] = true
	}
	return nil
}

var errCatalogHasProducts = errors.New("catalog still has products")

type Store struct {
	mu  sync.RWMutex
	st  *state
	now func() time.Time
}

func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

func (s *Store) Atomic(ctx context.Context, fn func(tx market.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&tx{st: work, now: s.now}); err != nil {
		return err
	}
	if err := work.checkCatalogs(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) Read(ctx context.Context, fn func(tx market.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&tx{st: s.st, now: s.now, readOnly: true})
}

type tx struct {
	st       *state
	now      func() time.Time
	readOnly bool
}

func (t *tx) writable() error {
	if t.readOnly {
		return market.ErrReadOnlyTx
	}
	return nil
}

func (t *tx) InsertUser(_ context.Context, u market.User) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.usernames[u.Username]; ok {
		return market.ErrUsernameTaken
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = t.now().UTC()
	}
	t.st.users[u.ID] = u
	t.st.usernames[u.Username] = u.ID
	return nil
}

func (t *tx) InsertBuyer(_ context.Context, b market.Buyer) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.users[b.UserID]; !ok {
		return market.ErrNotFound
	}
	t.st.buyers[b.ID] = b
	return nil
}

func (t *tx) InsertSeller(_ context.Context, s market.Seller) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.users[s.UserID]; !ok {
		return market.ErrNotFound
	}
	t.st.sellers[s.ID] = s
	return nil
}

func (t *tx) UserByUsername(_ context.Context, username string) (market.User, error) {
	id, ok := t.st.usernames[username]
	if !ok {
		return market.User{}, market.ErrNotFound
	}
	return t.st.users[id], nil
}

func (t *tx) IdentityByUserID(_ context.Context, userID string) (market.Identity, error) {
	u, ok := t.st.users[userID]
	if !ok {
		return market.Identity{}, market.ErrNotFound
	}
	id := market.Identity{UserID: u.ID, Username: u.Username}
	for _, b := range t.st.buyers {
		if b.UserID == u.ID {
			id.Role, id.RoleID = market.RoleBuyer, b.ID
			return id, nil
		}
	}
	for _, s := range t.st.sellers {
		if s.UserID == u.ID {
			id.Role, id.RoleID = market.RoleSeller, s.ID
			return id, nil
		}
	}
	return id, nil
}

func (t *tx) ListSellers(_ context.Context) ([]market.SellerSummary, error) {
	out := make([]market.SellerSummary, 0, len(t.st.sellers))
	for _, s := range t.st.sellers {
		out = append(out, market.SellerSummary{ID: s.ID, Username: t.st.users[s.UserID].Username})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (t *tx) GetSeller(_ context.Context, sellerID string) (market.Seller, error) {
	s, ok := t.st.sellers[sellerID]
	if !ok {
		return market.Seller{}, market.ErrNotFound
	}
	return s, nil
}

// LockSeller only checks existence; Atomic already holds the writer lock.
func (t *tx) LockSeller(ctx context.Context, sellerID string) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.GetSeller(ctx, sellerID)
	return err
}

func (t *tx) CatalogBySeller(_ context.Context, sellerID string) (market.Catalog, error) {
	for _, c := range t.st.catalogs {
		if c.SellerID != sellerID {
			continue
		}
		c.Products = nil
		for _, p := range t.st.products {
			if p.CatalogID == c.ID {
				c.Products = append(c.Products, p)
			}
		}
		sort.Slice(c.Products, func(i, j int) bool { return c.Products[i].Position < c.Products[j].Position })
		return c, nil
	}
	return market.Catalog{}, market.ErrNotFound
}

func (t *tx) InsertCatalog(_ context.Context, c market.Catalog) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.sellers[c.SellerID]; !ok {
		return market.ErrNotFound
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = t.now().UTC()
	}
	c.Products = nil
	t.st.catalogs[c.ID] = c
	return nil
}

func (t *tx) InsertProducts(_ context.Context, ps []market.Product) error {
	if err := t.writable(); err != nil {
		return err
	}
	for _, p := range ps {
		if _, ok := t.st.catalogs[p.CatalogID]; !ok {
			return market.ErrNotFound
		}
		t.st.products[p.ID] = p
	}
	return nil
}

func (t *tx) DeleteProductsByCatalog(_ context.Context, catalogID string) error {
	if err := t.writable(); err != nil {
		return err
	}
	for id, p := range t.st.products {
		if p.CatalogID == catalogID {
			delete(t.st.products, id)
		}
	}
	return nil
}

func (t *tx) DeleteCatalog(_ context.Context, catalogID string) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.catalogs[catalogID]; !ok {
		return market.ErrNotFound
	}
	for _, p := range t.st.products {
		if p.CatalogID == catalogID {
			return errCatalogHasProducts
		}
	}
	delete(t.st.catalogs, catalogID)
	return nil
}

func (t *tx) ProductsForOrder(_ context.Context, ids []string) ([]market.OwnedProduct, error) {
	out := make([]market.OwnedProduct, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		p, ok := t.st.products[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, market.OwnedProduct{Product: p, SellerID: t.st.catalogs[p.CatalogID].SellerID})
	}
	return out, nil
}

func (t *tx) InsertOrder(_ context.Context, o market.Order) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.buyers[o.BuyerID]; !ok {
		return market.ErrNotFound
	}
	if _, ok := t.st.sellers[o.SellerID]; !ok {
		return market.ErrNotFound
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = t.now().UTC()
	}
	o.BuyerUsername = ""
	o.Items = append([]market.OrderItem(nil), o.Items...)
	t.st.orders[o.ID] = o
	t.st.orderSeq = append(t.st.orderSeq, o.ID)
	return nil
}

func (t *tx) OrdersBySeller(_ context.Context, sellerID string) ([]market.Order, error) {
	var out []market.Order
	for _, id := range t.st.orderSeq {
		o := t.st.orders[id]
		if o.SellerID != sellerID {
			continue
		}
		o.BuyerUsername = t.st.users[t.st.buyers[o.BuyerID].UserID].Username
		out = append(out, o)
	}
	return out, nil
}
