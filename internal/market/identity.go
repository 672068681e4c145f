package market

import "context"

type Role int

const (
	RoleNone Role = iota
	RoleBuyer
	RoleSeller
)

func (r Role) String() string {
	switch r {
	case RoleBuyer:
		return "buyer"
	case RoleSeller:
		return "seller"
	default:
		return "none"
	}
}

// Identity is the authenticated principal. RoleID holds the buyer id or the
// seller id depending on Role; it is empty for RoleNone.
type Identity struct {
	UserID   string
	Username string
	Role     Role
	RoleID   string
}

// BuyerID returns the buyer id when the identity is a buyer.
func (i Identity) BuyerID() (string, bool) {
	if i.Role != RoleBuyer || i.RoleID == "" {
		return "", false
	}
	return i.RoleID, true
}

// SellerID returns the seller id when the identity is a seller.
func (i Identity) SellerID() (string, bool) {
	if i.Role != RoleSeller || i.RoleID == "" {
		return "", false
	}
	return i.RoleID, true
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext reports false when no identity was attached.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
