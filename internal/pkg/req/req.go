/*
Package req provides helper functions for HTTP request parsing and data binding.

It encapsulates JSON body binding with strict decoding, and the parsing of the
Session-ID, User-ID and Order-ID headers exchanged by poll clients.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"menupoll/internal/pkg/errs"
)

const (
	// SessionIDHeader carries the poll session identifier in both directions.
	SessionIDHeader = "Session-ID"

	// UserIDHeader carries the signed-in client identifier.
	UserIDHeader = "User-ID"

	// OrderIDHeader carries the order identifier for order lookups.
	OrderIDHeader = "Order-ID"

	// MaxBodySize bounds JSON request bodies (1 MB).
	MaxBodySize int64 = 1 << 20
)

// BindJSON attempts to bind the JSON data from the HTTP request body to the destination struct dst.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// SessionID returns the Session-ID header as a positive integer, or 0 when it is absent or malformed.
func SessionID(r *http.Request) uint64 {
	id, err := strconv.ParseUint(strings.TrimSpace(r.Header.Get(SessionIDHeader)), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// UserID returns the User-ID header, or "" when it is absent or not a positive integer.
func UserID(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if _, ok := ParseID(raw); !ok {
		return ""
	}
	return raw
}

// OrderID returns the Order-ID header as a positive integer.
func OrderID(r *http.Request) (int64, bool) {
	return ParseID(strings.TrimSpace(r.Header.Get(OrderIDHeader)))
}

// ParseID parses a positive decimal identifier.
func ParseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
