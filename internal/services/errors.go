package services

import "errors"

// Domain errors returned by the services. Handlers map them to HTTP statuses
// with errors.Is.
var (
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptyPassword      = errors.New("password must not be empty")

	ErrAccessDenied = errors.New("access denied")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenInvalid = errors.New("token signature or format is invalid")
	ErrTokenExpired = errors.New("token has expired")

	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
	ErrCartConflict = errors.New("cart was modified concurrently")

	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	ErrProductNotFound = errors.New("product not found")
)

