package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-marketplace/internal/market"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	codeUniqueViolation = "23505"
	constraintUsername  = "users_username_key"
	constraintCatalog   = "catalogs_one_per_seller"
)

// Store implements market.Store on a pgx pool.
type Store struct{ DB *pgxpool.Pool }

func (s *Store) Atomic(ctx context.Context, fn func(tx market.Tx) error) error {
	t, err := s.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = t.Rollback(ctx) }()

	if err := fn(&tx{q: t}); err != nil {
		return err
	}
	if err := t.Commit(ctx); err != nil {
		return mapErr(err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, fn func(tx market.Tx) error) error {
	t, err := s.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin read tx: %w", err)
	}
	defer func() { _ = t.Rollback(ctx) }()

	if err := fn(&tx{q: t}); err != nil {
		return err
	}
	return t.Commit(ctx)
}

func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		switch pgErr.ConstraintName {
		case constraintUsername:
			return market.ErrUsernameTaken
		case constraintCatalog:
			return market.ErrMultipleCatalogs
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return market.ErrNotFound
	}
	return err
}

type tx struct{ q pgx.Tx }

func (t *tx) InsertUser(ctx context.Context, u market.User) error {
	_, err := t.q.Exec(ctx, `INSERT INTO users(id, username, password_hash) VALUES ($1, $2, $3)`,
		u.ID, u.Username, u.PasswordHash)
	return mapErr(err)
}

func (t *tx) InsertBuyer(ctx context.Context, b market.Buyer) error {
	_, err := t.q.Exec(ctx, `INSERT INTO buyers(id, user_id) VALUES ($1, $2)`, b.ID, b.UserID)
	return mapErr(err)
}

func (t *tx) InsertSeller(ctx context.Context, s market.Seller) error {
	_, err := t.q.Exec(ctx, `INSERT INTO sellers(id, user_id) VALUES ($1, $2)`, s.ID, s.UserID)
	return mapErr(err)
}

func (t *tx) UserByUsername(ctx context.Context, username string) (market.User, error) {
	var u market.User
	err := t.q.QueryRow(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE username=$1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return market.User{}, mapErr(err)
	}
	return u, nil
}

func (t *tx) IdentityByUserID(ctx context.Context, userID string) (market.Identity, error) {
	var (
		id       market.Identity
		buyerID  *string
		sellerID *string
	)
	err := t.q.QueryRow(ctx, `
		SELECT u.id, u.username, b.id, s.id
		FROM users u
		LEFT JOIN buyers b ON b.user_id = u.id
		LEFT JOIN sellers s ON s.user_id = u.id
		WHERE u.id = $1`, userID).Scan(&id.UserID, &id.Username, &buyerID, &sellerID)
	if err != nil {
		return market.Identity{}, mapErr(err)
	}
	switch {
	case buyerID != nil:
		id.Role, id.RoleID = market.RoleBuyer, *buyerID
	case sellerID != nil:
		id.Role, id.RoleID = market.RoleSeller, *sellerID
	}
	return id, nil
}

func (t *tx) ListSellers(ctx context.Context) ([]market.SellerSummary, error) {
	rows, err := t.q.Query(ctx, `
		SELECT s.id, u.username FROM sellers s JOIN users u ON u.id = s.user_id
		ORDER BY u.username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []market.SellerSummary{}
	for rows.Next() {
		var s market.SellerSummary
		if err := rows.Scan(&s.ID, &s.Username); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (t *tx) GetSeller(ctx context.Context, sellerID string) (market.Seller, error) {
	var s market.Seller
	err := t.q.QueryRow(ctx, `SELECT id, user_id FROM sellers WHERE id=$1`, sellerID).Scan(&s.ID, &s.UserID)
	if err != nil {
		return market.Seller{}, mapErr(err)
	}
	return s, nil
}

func (t *tx) LockSeller(ctx context.Context, sellerID string) error {
	var id string
	err := t.q.QueryRow(ctx, `SELECT id FROM sellers WHERE id=$1 FOR UPDATE`, sellerID).Scan(&id)
	return mapErr(err)
}

func (t *tx) CatalogBySeller(ctx context.Context, sellerID string) (market.Catalog, error) {
	var c market.Catalog
	err := t.q.QueryRow(ctx, `SELECT id, name, seller_id, created_at FROM catalogs WHERE seller_id=$1`, sellerID).
		Scan(&c.ID, &c.Name, &c.SellerID, &c.CreatedAt)
	if err != nil {
		return market.Catalog{}, mapErr(err)
	}

	rows, err := t.q.Query(ctx, `
		SELECT id, catalog_id, name, price::text, position
		FROM products WHERE catalog_id=$1 ORDER BY position`, c.ID)
	if err != nil {
		return market.Catalog{}, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return market.Catalog{}, err
		}
		c.Products = append(c.Products, p)
	}
	return c, rows.Err()
}

func scanProduct(row pgx.Row, extra ...any) (market.Product, error) {
	var (
		p     market.Product
		price string
	)
	dest := append([]any{&p.ID, &p.CatalogID, &p.Name, &price, &p.Position}, extra...)
	if err := row.Scan(dest...); err != nil {
		return market.Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return market.Product{}, fmt.Errorf("product %s price %q: %w", p.ID, price, err)
	}
	p.Price = d
	return p, nil
}

func (t *tx) InsertCatalog(ctx context.Context, c market.Catalog) error {
	_, err := t.q.Exec(ctx, `INSERT INTO catalogs(id, name, seller_id) VALUES ($1, $2, $3)`, c.ID, c.Name, c.SellerID)
	return mapErr(err)
}

func (t *tx) InsertProducts(ctx context.Context, ps []market.Product) error {
	batch := &pgx.Batch{}
	for _, p := range ps {
		batch.Queue(`INSERT INTO products(id, catalog_id, name, price, position) VALUES ($1, $2, $3, $4::text::numeric, $5)`,
			p.ID, p.CatalogID, p.Name, p.Price.String(), p.Position)
	}
	return mapErr(t.q.SendBatch(ctx, batch).Close())
}

func (t *tx) DeleteProductsByCatalog(ctx context.Context, catalogID string) error {
	_, err := t.q.Exec(ctx, `DELETE FROM products WHERE catalog_id=$1`, catalogID)
	return mapErr(err)
}

func (t *tx) DeleteCatalog(ctx context.Context, catalogID string) error {
	ct, err := t.q.Exec(ctx, `DELETE FROM catalogs WHERE id=$1`, catalogID)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() != 1 {
		return market.ErrNotFound
	}
	return nil
}

// ProductsForOrder share-locks the rows: a concurrent catalog replace blocks
// on its DELETE until this transaction ends.
func (t *tx) ProductsForOrder(ctx context.Context, ids []string) ([]market.OwnedProduct, error) {
	rows, err := t.q.Query(ctx, `
		SELECT p.id, p.catalog_id, p.name, p.price::text, p.position, c.seller_id
		FROM products p JOIN catalogs c ON c.id = p.catalog_id
		WHERE p.id = ANY($1::uuid[])
		FOR SHARE OF p`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.OwnedProduct
	for rows.Next() {
		var sellerID string
		p, err := scanProduct(rows, &sellerID)
		if err != nil {
			return nil, err
		}
		out = append(out, market.OwnedProduct{Product: p, SellerID: sellerID})
	}
	return out, rows.Err()
}

func (t *tx) InsertOrder(ctx context.Context, o market.Order) error {
	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO orders(id, buyer_id, seller_id) VALUES ($1, $2, $3)`, o.ID, o.BuyerID, o.SellerID)
	for _, it := range o.Items {
		batch.Queue(`
			INSERT INTO order_items(order_id, product_id, name, price, position)
			VALUES ($1, $2, $3, $4::text::numeric, $5)`,
			o.ID, it.ProductID, it.Name, it.Price.String(), it.Position)
	}
	return mapErr(t.q.SendBatch(ctx, batch).Close())
}

func (t *tx) OrdersBySeller(ctx context.Context, sellerID string) ([]market.Order, error) {
	rows, err := t.q.Query(ctx, `
		SELECT o.id, o.buyer_id, u.username, o.seller_id, o.created_at
		FROM orders o
		JOIN buyers b ON b.id = o.buyer_id
		JOIN users u ON u.id = b.user_id
		WHERE o.seller_id = $1
		ORDER BY o.created_at, o.id`, sellerID)
	if err != nil {
		return nil, err
	}
	var (
		out   []market.Order
		index = map[string]int{}
		ids   []string
	)
	for rows.Next() {
		var o market.Order
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.BuyerUsername, &o.SellerID, &o.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		index[o.ID] = len(out)
		ids = append(ids, o.ID)
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	items, err := t.q.Query(ctx, `
		SELECT order_id, product_id, name, price::text, position
		FROM order_items WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position`, ids)
	if err != nil {
		return nil, err
	}
	defer items.Close()
	for items.Next() {
		var (
			orderID string
			it      market.OrderItem
			price   string
		)
		if err := items.Scan(&orderID, &it.ProductID, &it.Name, &price, &it.Position); err != nil {
			return nil, err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("order item %s price %q: %w", orderID, price, err)
		}
		i := index[orderID]
		out[i].Items = append(out[i].Items, it)
	}
	return out, items.Err()
}
