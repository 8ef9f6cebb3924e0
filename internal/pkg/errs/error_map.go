/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrUnknownQuery:         {Code: ErrUnknownQuery, Message: "Unknown query: %s."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Session, Cart, Order and Menu Business Logic Errors
	ErrSessionNotFound:    {Code: ErrSessionNotFound, Message: "Check your connection"},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "Account not found."},
	ErrSessionBound:       {Code: ErrSessionBound, Message: "This session belongs to another account.", Status: http.StatusConflict},
	ErrCartEmpty:          {Code: ErrCartEmpty, Message: "Your cart is empty."},
	ErrDishNotFound:       {Code: ErrDishNotFound, Message: "Dish not found.", Status: http.StatusNotFound},
	ErrOrderNotFound:      {Code: ErrOrderNotFound, Message: "Order not found.", Status: http.StatusNotFound},
	ErrOrderStatusInvalid: {Code: ErrOrderStatusInvalid, Message: "Invalid order status."},
	ErrImageUnavailable:   {Code: ErrImageUnavailable, Message: "Image is not available.", Status: http.StatusNotFound},

	// 3xxx: User and Security Errors
	ErrIncorrectPassword: {Code: ErrIncorrectPassword, Message: "error: incorrect password"},
	ErrNoUserWithEmail:   {Code: ErrNoUserWithEmail, Message: "error: no user with this email"},
	ErrEmailTaken:        {Code: ErrEmailTaken, Message: "error: user with this email already exists"},
	ErrInvalidPassword:   {Code: ErrInvalidPassword, Message: "Password must be between %d and %d characters."},
	ErrUnauthorized:      {Code: ErrUnauthorized, Message: "Staff authorization required.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown:       {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStorageFailed: {Code: ErrStorageFailed, Message: "Service temporarily unavailable.", Status: http.StatusServiceUnavailable},
}
