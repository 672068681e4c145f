package market

import "errors"

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindConflict
)

// Error is a classified failure whose Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// KindOf returns KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ErrNotFound is returned by storage lookups that match no row.
var ErrNotFound = errors.New("not found")

var (
	ErrUnauthorized      = &Error{Kind: KindUnauthorized, Message: "Unauthorized"}
	ErrAccountNotFound   = &Error{Kind: KindUnauthorized, Message: "Account not found"}
	ErrInvalidCredential = &Error{Kind: KindUnauthorized, Message: "Invalid password"}
	ErrUsernameTaken     = &Error{Kind: KindConflict, Message: "Username already exists"}

	ErrSellerNotFound = &Error{Kind: KindNotFound, Message: "Seller not found"}
	ErrInvalidSeller  = &Error{Kind: KindValidation, Message: "Invalid seller id"}
	ErrUnknownSeller  = &Error{Kind: KindValidation, Message: "Unknown seller"}

	ErrNoProducts       = &Error{Kind: KindValidation, Message: "At least one product is required"}
	ErrDuplicateProduct = &Error{Kind: KindValidation, Message: "Duplicate product id"}
	ErrUnknownProduct   = &Error{Kind: KindValidation, Message: "Unknown product"}
	ErrForeignProduct   = &Error{Kind: KindValidation, Message: "Product does not belong to seller"}
	ErrMultipleCatalogs = errors.New("seller has more than one catalog")
	ErrReadOnlyTx       = errors.New("write in read-only transaction")
)
