package httpx

import (
	"encoding/json"

	"github.com/ariefcatur/go-marketplace/internal/market"
	"github.com/shopspring/decimal"
)

type messageView struct {
	Message string `json:"message"`
}

type userView struct {
	Username string `json:"username"`
}

type sellerView struct {
	ID   string   `json:"id"`
	User userView `json:"user"`
}

type buyerView struct {
	ID   string   `json:"id"`
	User userView `json:"user"`
}

type productView struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
}

type catalogView struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Products []productView `json:"products"`
}

type orderView struct {
	ID       string        `json:"id"`
	Products []productView `json:"products"`
	Buyer    buyerView     `json:"buyer"`
}

// price renders a decimal as a bare JSON number.
func price(d decimal.Decimal) json.Number { return json.Number(d.String()) }

func newCatalogView(c *market.Catalog) *catalogView {
	if c == nil {
		return nil
	}
	v := &catalogView{ID: c.ID, Name: c.Name, Products: make([]productView, 0, len(c.Products))}
	for _, p := range c.Products {
		v.Products = append(v.Products, productView{ID: p.ID, Name: p.Name, Price: price(p.Price)})
	}
	return v
}

func newOrderView(o market.Order) orderView {
	v := orderView{
		ID:       o.ID,
		Products: make([]productView, 0, len(o.Items)),
		Buyer:    buyerView{ID: o.BuyerID, User: userView{Username: o.BuyerUsername}},
	}
	for _, it := range o.Items {
		v.Products = append(v.Products, productView{ID: it.ProductID, Name: it.Name, Price: price(it.Price)})
	}
	return v
}
