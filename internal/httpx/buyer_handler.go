package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-marketplace/internal/market"
	"github.com/go-chi/chi/v5"
)

type createOrderRequest struct {
	ProductIDs []string `json:"productIds"`
}

func (h *Handler) listSellers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.readContext(r.Context())
	defer cancel()
	sellers, err := h.Catalog.Sellers(ctx)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	out := make([]sellerView, 0, len(sellers))
	for _, s := range sellers {
		out = append(out, sellerView{ID: s.ID, User: userView{Username: s.Username}})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sellers": out})
}

func (h *Handler) sellerCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.readContext(r.Context())
	defer cancel()
	c, err := h.Catalog.SellerCatalog(ctx, chi.URLParam(r, "seller_id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"catalog": newCatalogView(c)})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := market.IdentityFromContext(r.Context())
	buyerID, ok := id.BuyerID()
	if !ok {
		writeError(w, r, h.Logger, market.ErrUnauthorized)
		return
	}
	var req createOrderRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	ctx, cancel := h.mutationContext(r.Context())
	defer cancel()
	o, err := h.Orders.Create(ctx, buyerID, chi.URLParam(r, "seller_id"), req.ProductIDs)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Order created", "orderId": o.ID})
}
