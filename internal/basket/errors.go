package basket

import "errors"

var (
	ErrInvalidQuantity        = errors.New("quantity must be at least 1")
	ErrAuthenticationRequired = errors.New("sign in required for this operation")
	ErrItemNotFound           = errors.New("item not found in basket")
)
