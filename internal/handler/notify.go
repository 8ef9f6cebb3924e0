package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"menupoll/internal/app/db"
	"menupoll/internal/app/poll"
	"menupoll/internal/pkg/errs"
	"menupoll/internal/pkg/logx"
	"menupoll/internal/pkg/req"
)

// requireSession checks that the Session-ID header names a live session.
func requireSession(deps *AppDeps, r *http.Request) (*poll.Session, *errs.CustomError) {
	sessionID := req.SessionID(r)
	if sessionID == 0 {
		return nil, errs.NewError(errs.ErrSessionNotFound)
	}

	s := deps.Hub.LookupSession(sessionID)
	if s == nil {
		return nil, errs.NewError(errs.ErrSessionNotFound)
	}
	return s, nil
}

// requireUser checks that the User-ID header names the user bound to s.
// Anonymous sessions and sessions bound to someone else are rejected.
func requireUser(deps *AppDeps, r *http.Request, s *poll.Session) (string, int64, *errs.CustomError) {
	userID := req.UserID(r)
	bound := s.UserID()
	if userID == "" || bound != userID || deps.Hub.LookupUser(userID) == nil {
		if userID != "" {
			logx.Warn("User-ID does not match session binding.",
				"session_id", s.ID(), "user_id", userID, "bound_user", bound)
		}
		return "", 0, errs.NewError(errs.ErrUserNotFound)
	}

	id, ok := req.ParseID(userID)
	if !ok {
		return "", 0, errs.NewError(errs.ErrUserNotFound)
	}
	return userID, id, nil
}

// requireSessionUser runs requireSession and then requireUser.
func requireSessionUser(deps *AppDeps, r *http.Request) (string, int64, *errs.CustomError) {
	s, customErr := requireSession(deps, r)
	if customErr != nil {
		return "", 0, customErr
	}
	return requireUser(deps, r, s)
}

// storeError maps persistence failures onto client errors.
func storeError(err error, notFoundCode int) *errs.CustomError {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return errs.Wrap(notFoundCode, err)
	case errors.Is(err, db.ErrEmptyCart):
		return errs.NewError(errs.ErrCartEmpty)
	case errors.Is(err, context.Canceled):
		return errs.NewError(errs.ErrUnknown)
	default:
		logx.Error(err, "store operation failed")
		return errs.Wrap(errs.ErrStorageFailed, err)
	}
}

// decodeBody strictly decodes the "body" member of a command request.
func decodeBody(raw json.RawMessage, dst any) *errs.CustomError {
	if len(raw) == 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}
	return nil
}

// notifyCartChanged tells every open session of userID that the cart changed, stamped with the database clock.
// It runs after the response was written, so failures are only logged.
func notifyCartChanged(ctx context.Context, deps *AppDeps, userID string) {
	now, err := deps.Store.Now(ctx)
	if err != nil {
		logx.Error(err, "cart_changed notification skipped: clock unavailable", "user_id", userID)
		return
	}

	deps.Hub.NotifyUser(userID, poll.NewEnvelope(poll.CartChangedBody{}, now))
}

// notifyOrderChanged tells the order's owner that the order changed, stamped with its last modification.
func notifyOrderChanged(deps *AppDeps, order db.Order) int {
	env := poll.NewEnvelope(poll.OrderChangedBody{OrderID: order.ID}, order.LastModified)
	return deps.Hub.NotifyUser(strconv.FormatInt(order.ClientID, 10), env)
}
