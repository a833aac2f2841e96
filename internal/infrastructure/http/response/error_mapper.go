package response

import (
	"errors"
	"net/http"

	domainErrors "github.com/fadedwholesale/wholesale-service/internal/domain/errors"
)

type ErrorMapping struct {
	HTTPStatus int
	Status     Status
	Message    string
}

var errorMappings = map[error]ErrorMapping{
	domainErrors.ErrProductNotFound: {
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Product not found",
	},
	domainErrors.ErrOutOfStock: {
		HTTPStatus: http.StatusConflict,
		Status:     StatusConflict,
		Message:    "Product is out of stock",
	},
	domainErrors.ErrLineNotFound: {
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Product is not in the cart",
	},
	domainErrors.ErrAtCapacity: {
		HTTPStatus: http.StatusConflict,
		Status:     StatusConflict,
		Message:    "Cart already holds the maximum available quantity",
	},
	domainErrors.ErrInvalidQuantity: {
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusValidationError,
		Message:    "Quantity must be a non-negative integer",
	},
	domainErrors.ErrCartEmpty: {
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusError,
		Message:    "Cart is empty",
	},
	domainErrors.ErrPersistenceFailure: {
		HTTPStatus: http.StatusServiceUnavailable,
		Status:     StatusServiceUnavailable,
		Message:    "Cart state could not be persisted",
	},
	domainErrors.ErrPresetNotFound: {
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Bulk order preset not found",
	},
	domainErrors.ErrOrderNotFound: {
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Order not found",
	},
	domainErrors.ErrApplicationNotFound: {
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Application not found",
	},
	domainErrors.ErrInvalidApplication: {
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusValidationError,
		Message:    "Application is missing required fields",
	},
	domainErrors.ErrDuplicateApplication: {
		HTTPStatus: http.StatusConflict,
		Status:     StatusConflict,
		Message:    "An application with this license number already exists",
	},
	domainErrors.ErrBusClosed: {
		HTTPStatus: http.StatusServiceUnavailable,
		Status:     StatusServiceUnavailable,
		Message:    "Service is shutting down",
	},
}

func MapDomainError(err error) (int, *ErrorResponse) {
	for domainErr, mapping := range errorMappings {
		if errors.Is(err, domainErr) {
			return mapping.HTTPStatus, Error(mapping.Status, mapping.Message, err.Error())
		}
	}

	return http.StatusInternalServerError, Error(StatusInternalError, "Internal server error", err.Error())
}

func WriteDomainError(w http.ResponseWriter, err error) {
	statusCode, errorResponse := MapDomainError(err)
	WriteJSON(w, statusCode, errorResponse)
}
