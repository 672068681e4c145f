package market

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type Buyer struct {
	ID     string
	UserID string
}

type Seller struct {
	ID     string
	UserID string
}

// SellerSummary is a seller joined with its user's public fields.
type SellerSummary struct {
	ID       string
	Username string
}

type Catalog struct {
	ID        string
	Name      string
	SellerID  string
	Products  []Product // ordered by Position
	CreatedAt time.Time
}

type Product struct {
	ID        string
	CatalogID string
	Name      string
	Price     decimal.Decimal
	Position  int
}

// OwnedProduct is a live product together with the seller owning its catalog.
type OwnedProduct struct {
	Product
	SellerID string
}

type Order struct {
	ID            string
	BuyerID       string
	BuyerUsername string // read side only
	SellerID      string
	Items         []OrderItem
	CreatedAt     time.Time
}

// OrderItem snapshots the product as it was when the order was placed.
type OrderItem struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Position  int
}

// Total sums the snapshotted prices.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Price)
	}
	return total
}
