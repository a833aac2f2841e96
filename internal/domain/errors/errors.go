package errors

import (
	"errors"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("product is out of stock")

	ErrLineNotFound    = errors.New("product not in cart")
	ErrAtCapacity      = errors.New("cart line already at stock ceiling")
	ErrInvalidQuantity = errors.New("quantity must be a non-negative integer")
	ErrCartEmpty       = errors.New("cart is empty")

	ErrPersistenceFailure = errors.New("failed to persist cart state")

	ErrPresetNotFound = errors.New("bulk order preset not found")

	ErrOrderNotFound = errors.New("order not found")

	ErrApplicationNotFound  = errors.New("application not found")
	ErrInvalidApplication   = errors.New("application is missing required fields")
	ErrDuplicateApplication = errors.New("an application with this license number already exists")

	ErrBusClosed = errors.New("sync bus has been destroyed")
)
