package market

import "context"

// Store is the transactional storage boundary shared by every workflow.
type Store interface {
	// Atomic runs fn in one transaction. Writes made through tx become
	// visible together on a nil return and are discarded otherwise.
	Atomic(ctx context.Context, fn func(tx Tx) error) error
	// Read runs fn against a consistent read-only view.
	Read(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is entity CRUD scoped to one transaction. Lookups that match nothing
// return ErrNotFound.
type Tx interface {
	InsertUser(ctx context.Context, u User) error // ErrUsernameTaken on duplicate
	InsertBuyer(ctx context.Context, b Buyer) error
	InsertSeller(ctx context.Context, s Seller) error
	UserByUsername(ctx context.Context, username string) (User, error)
	IdentityByUserID(ctx context.Context, userID string) (Identity, error)

	ListSellers(ctx context.Context) ([]SellerSummary, error)
	GetSeller(ctx context.Context, sellerID string) (Seller, error)
	// LockSeller takes the seller row for update until the transaction ends.
	LockSeller(ctx context.Context, sellerID string) error

	CatalogBySeller(ctx context.Context, sellerID string) (Catalog, error)
	InsertCatalog(ctx context.Context, c Catalog) error
	InsertProducts(ctx context.Context, ps []Product) error
	DeleteProductsByCatalog(ctx context.Context, catalogID string) error
	DeleteCatalog(ctx context.Context, catalogID string) error

	// ProductsForOrder loads live products and share-locks them.
	ProductsForOrder(ctx context.Context, ids []string) ([]OwnedProduct, error)
	InsertOrder(ctx context.Context, o Order) error
	OrdersBySeller(ctx context.Context, sellerID string) ([]Order, error)
}
