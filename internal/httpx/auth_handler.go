package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-marketplace/internal/auth"
	"github.com/ariefcatur/go-marketplace/internal/market"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Buyer    *bool  `json:"buyer"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	in := auth.RegisterInput{Username: req.Username, Password: req.Password}
	if req.Buyer != nil {
		in.Role = market.RoleSeller
		if *req.Buyer {
			in.Role = market.RoleBuyer
		}
	}

	ctx, cancel := h.mutationContext(r.Context())
	defer cancel()
	if _, err := h.Auth.Register(ctx, in); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageView{Message: "User created"})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	ctx, cancel := h.readContext(r.Context())
	defer cancel()
	token, err := h.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
