/*
Package handler provides HTTP handler functions for client sign-in and sign-up.
*/
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"menupoll/internal/app/db"
	"menupoll/internal/app/poll"
	"menupoll/internal/pkg/errs"
	"menupoll/internal/pkg/logx"
	"menupoll/internal/pkg/req"
	"menupoll/internal/pkg/resp"
)

const (
	minPasswordLength = 6

	// bcrypt ignores input beyond 72 bytes.
	maxPasswordLength = 72
)

// AuthorizationInput is the command body of POST /authorization.
type AuthorizationInput struct {
	Query string `json:"query"`
	Body  struct {
		Email      string        `json:"email"`
		Password   string        `json:"password"`
		Name       string        `json:"name,omitempty"`
		UpdateCart bool          `json:"update_cart"`
		Cart       []db.CartItem `json:"cart,omitempty"`
	} `json:"body"`
}

// HandleAuthorization processes sign_in and sign_up commands and binds the client to the calling session.
func HandleAuthorization(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, customErr := requireSession(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input AuthorizationInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.Body.Email = strings.ToLower(strings.TrimSpace(input.Body.Email))
		if input.Body.Email == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var client db.Client
		switch input.Query {
		case "sign_in":
			client, customErr = signIn(deps, r, input)
		case "sign_up":
			client, customErr = signUp(deps, r, input)
		default:
			customErr = errs.NewError(errs.ErrUnknownQuery, input.Query)
		}
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		userID := strconv.FormatInt(client.ID, 10)
		bound, err := deps.Hub.AssignUser(session.ID(), userID, client.Name)
		if err != nil {
			if errors.Is(err, poll.ErrSessionNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrSessionNotFound))
				return
			}
			resp.RespondError(w, r, errs.From(err))
			return
		}
		if bound != userID {
			logx.Warn("Authorization rejected: session bound to another user.",
				"session_id", session.ID(), "user_id", userID, "bound_user", bound)
			resp.RespondError(w, r, errs.NewError(errs.ErrSessionBound))
			return
		}

		if input.Body.UpdateCart {
			if err := deps.Store.SetCart(r.Context(), client.ID, input.Body.Cart); err != nil {
				resp.RespondError(w, r, storeError(err, errs.ErrDishNotFound))
				return
			}
		}

		orders, err := deps.Store.ClientOrders(r.Context(), client.ID)
		if err != nil {
			resp.RespondError(w, r, storeError(err, errs.ErrUserNotFound))
			return
		}

		summaries := make([]map[string]any, 0, len(orders))
		for _, o := range orders {
			summaries = append(summaries, map[string]any{
				"order_id":      o.ID,
				"status":        o.Status,
				"timestamp":     o.CreatedAt,
				"last_modified": o.LastModified,
			})
		}

		resp.RespondSuccess(w, r, map[string]any{
			"query":   input.Query,
			"item":    "user",
			"user_id": client.ID,
			"name":    client.Name,
			"email":   client.Email,
			"orders":  summaries,
		})

		if input.Body.UpdateCart {
			notifyCartChanged(r.Context(), deps, userID)
		}
	}
}

func signIn(deps *AppDeps, r *http.Request, input AuthorizationInput) (db.Client, *errs.CustomError) {
	client, err := deps.Store.ClientByEmail(r.Context(), input.Body.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			logx.Warn("sign_in: unknown email", "email", input.Body.Email)
			return db.Client{}, errs.NewError(errs.ErrNoUserWithEmail)
		}
		return db.Client{}, storeError(err, errs.ErrNoUserWithEmail)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(client.PasswordHash), []byte(input.Body.Password)); err != nil {
		logx.Warn("sign_in: password mismatch", "user_id", client.ID)
		return db.Client{}, errs.NewError(errs.ErrIncorrectPassword)
	}

	return client, nil
}

func signUp(deps *AppDeps, r *http.Request, input AuthorizationInput) (db.Client, *errs.CustomError) {
	name := strings.TrimSpace(input.Body.Name)
	if name == "" {
		return db.Client{}, errs.NewError(errs.ErrInvalidParams)
	}

	passwordLen := utf8.RuneCountInString(input.Body.Password)
	if passwordLen < minPasswordLength || len(input.Body.Password) > maxPasswordLength {
		return db.Client{}, errs.NewError(errs.ErrInvalidPassword, minPasswordLength, maxPasswordLength)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Body.Password), bcrypt.DefaultCost)
	if err != nil {
		return db.Client{}, errs.NewError(errs.ErrUnknown, err)
	}

	client, err := deps.Store.CreateClient(r.Context(), name, input.Body.Email, string(hashedPassword))
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			logx.Warn("sign_up conflict: email already registered", "email", input.Body.Email)
			return db.Client{}, errs.NewError(errs.ErrEmailTaken)
		}
		return db.Client{}, storeError(err, errs.ErrUserNotFound)
	}

	return client, nil
}
