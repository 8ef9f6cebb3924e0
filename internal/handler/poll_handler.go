/*
Package handler provides the HTTP handlers and routing setup for the MenuPoll server.

This file contains HandlePoll, the long-poll endpoint. It attaches the request to a session,
sends the Session-ID and Poll-Status headers at once, then holds the body open until an event
envelope arrives, the poll timeout elapses or the client goes away.
*/
package handler

import (
	"net/http"
	"strconv"
	"time"

	"menupoll/internal/app/poll"
	"menupoll/internal/pkg/errs"
	"menupoll/internal/pkg/logx"
	"menupoll/internal/pkg/req"
	"menupoll/internal/pkg/resp"
)

// PollStatusHeader reports how the poll was attached: created, reconnected or replaced.
const PollStatusHeader = "Poll-Status"

// HandlePoll creates an HTTP HandlerFunc for the long-poll endpoint.
func HandlePoll(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, userName := resolvePollUser(deps, r)

		conn := poll.NewPendingConn(ctx)

		result, err := deps.Hub.Poll(poll.PollRequest{
			SessionID: req.SessionID(r),
			UserID:    userID,
			UserName:  userName,
			Conn:      conn,
		})
		if err != nil {
			resp.RespondError(w, r, errs.From(err))
			return
		}

		w.Header().Set(req.SessionIDHeader, strconv.FormatUint(result.SessionID, 10))
		w.Header().Set(PollStatusHeader, string(result.Outcome))
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)

		if err := resp.Flush(w); err != nil {
			deps.Hub.Release(result.SessionID, conn)
			return
		}

		timer := time.NewTimer(deps.Config.PollTimeout)
		defer timer.Stop()

		select {
		case <-conn.Done():
		case <-timer.C:
			deps.Hub.Release(result.SessionID, conn)
		case <-ctx.Done():
			deps.Hub.Release(result.SessionID, conn)
			return
		}

		env, ok := conn.Result()
		if !ok {
			return
		}

		if err := resp.WriteEvent(w, env); err != nil {
			logx.Warn("poll: failed to write event", "session_id", result.SessionID, "event", string(env.Event()), "error", err.Error())
		}
	}
}

// resolvePollUser returns the User-ID of the poll and, for users the hub does not know yet, their name.
// Identifiers that match no client are ignored.
func resolvePollUser(deps *AppDeps, r *http.Request) (string, string) {
	userID := req.UserID(r)
	if userID == "" {
		return "", ""
	}

	if u := deps.Hub.LookupUser(userID); u != nil {
		return userID, u.Name()
	}

	id, _ := req.ParseID(userID)
	client, err := deps.Store.ClientByID(r.Context(), id)
	if err != nil {
		logx.Warn("poll: ignoring User-ID without client", "user_id", userID, "error", err.Error())
		return "", ""
	}

	return userID, client.Name
}
