package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-marketplace/internal/catalog"
	"github.com/ariefcatur/go-marketplace/internal/market"
	"github.com/shopspring/decimal"
)

type createCatalogRequest struct {
	Name     string `json:"name"`
	Products []struct {
		Name  string     `json:"name"`
		Price priceField `json:"price"`
	} `json:"products"`
}

// priceField accepts a bare JSON number only; null leaves it unset.
type priceField struct{ d *decimal.Decimal }

type quotedNumberError struct{ field string }

func (e *quotedNumberError) Error() string { return e.field + " must be a JSON number" }

func (p *priceField) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		return &quotedNumberError{field: "price"}
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	p.d = &d
	return nil
}

func sellerFrom(r *http.Request) (string, bool) {
	id, _ := market.IdentityFromContext(r.Context())
	return id.SellerID()
}

func (h *Handler) createCatalog(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := sellerFrom(r)
	if !ok {
		writeError(w, r, h.Logger, market.ErrUnauthorized)
		return
	}
	var req createCatalogRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	in := catalog.ReplaceInput{Name: req.Name, Products: make([]catalog.ProductInput, 0, len(req.Products))}
	for _, p := range req.Products {
		in.Products = append(in.Products, catalog.ProductInput{Name: p.Name, Price: p.Price.d})
	}

	ctx, cancel := h.mutationContext(r.Context())
	defer cancel()
	c, err := h.Catalog.Replace(ctx, sellerID, in)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Catalog updated", "catalogId": c.ID})
}

func (h *Handler) sellerOrders(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := sellerFrom(r)
	if !ok {
		writeError(w, r, h.Logger, market.ErrUnauthorized)
		return
	}
	ctx, cancel := h.readContext(r.Context())
	defer cancel()
	list, err := h.Orders.ForSeller(ctx, sellerID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	out := make([]orderView, 0, len(list))
	for _, o := range list {
		out = append(out, newOrderView(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (h *Handler) sellerStats(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := sellerFrom(r)
	if !ok {
		writeError(w, r, h.Logger, market.ErrUnauthorized)
		return
	}
	ctx, cancel := h.readContext(r.Context())
	defer cancel()
	st, err := h.Stats.SellerStats(ctx, sellerID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"orders": st.Orders, "products": st.Products})
}
