package jwt

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"menupoll/internal/pkg/errs"
	"menupoll/internal/pkg/logx"
	"menupoll/internal/pkg/resp"
)

// Define Context Key for storing the Payload struct, preventing key collisions with other packages.
type contextKey string

const (
	// ContextAuthPayloadKey is the key used to store the parsed jwt.Payload (staff identity) in the request Context.
	ContextAuthPayloadKey contextKey = "auth_payload"
)

// RequireStaff validates the bearer token of the request and rejects it with 401
// unless it is a valid token with RoleStaff. The Payload is injected into the Context.
func RequireStaff(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Expected format: "Bearer <token>"
			parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			payload, err := ParseToken(parts[1], secretKey)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, ErrTokenExpired) {
					reason = "expired"
				}
				logx.Warn("Staff JWT rejected", "reason", reason, "error", err.Error())
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			if payload.Role != RoleStaff {
				logx.Warn("Non-staff token used on staff route", "staff_id", payload.StaffID, "role", payload.Role)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPayloadFromContext safely extracts the authenticated Payload from the request Context.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)

	if !ok {
		return nil
	}

	return payload
}
