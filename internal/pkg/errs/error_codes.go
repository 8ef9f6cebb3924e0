/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrUnknownQuery indicates that the "query" field of a command body names no supported command.
	ErrUnknownQuery = 1005

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Session, Cart, Order and Menu Business Logic Errors
const (
	// ErrSessionNotFound indicates that the Session-ID header references no live session.
	// Clients must restart the poll handshake.
	ErrSessionNotFound = 2001

	// ErrUserNotFound indicates that the User-ID header references no known client.
	ErrUserNotFound = 2002

	// ErrSessionBound indicates that the session is already bound to a different account.
	ErrSessionBound = 2003

	// ErrCartEmpty indicates that an order was requested for an empty cart.
	ErrCartEmpty = 2101

	// ErrDishNotFound indicates that the referenced dish does not exist.
	ErrDishNotFound = 2102

	// ErrOrderNotFound indicates that the referenced order does not exist.
	ErrOrderNotFound = 2201

	// ErrOrderStatusInvalid indicates that an unsupported order status was requested.
	ErrOrderStatusInvalid = 2202

	// ErrImageUnavailable indicates that the dish has no image or image storage is disabled.
	ErrImageUnavailable = 2301
)

// 3xxx: User and Security Errors
const (
	// ErrIncorrectPassword indicates that the password does not match the account.
	ErrIncorrectPassword = 3001

	// ErrNoUserWithEmail indicates that no account is registered under the email.
	ErrNoUserWithEmail = 3002

	// ErrEmailTaken indicates that sign-up used an email that is already registered.
	ErrEmailTaken = 3003

	// ErrInvalidPassword indicates that a sign-up password does not satisfy length rules.
	ErrInvalidPassword = 3004

	// ErrUnauthorized indicates that a staff route was called without a valid staff token.
	ErrUnauthorized = 3101
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStorageFailed indicates that the persistence or object storage layer failed.
	ErrStorageFailed = 5001
)
