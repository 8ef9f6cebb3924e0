package handler

import (
	"encoding/json"
	"net/http"

	"menupoll/internal/app/db"
	"menupoll/internal/pkg/errs"
	"menupoll/internal/pkg/logx"
	"menupoll/internal/pkg/req"
	"menupoll/internal/pkg/resp"
)

// CommandInput is the generic {"query": ..., "body": ...} request shape.
type CommandInput struct {
	Query string          `json:"query"`
	Body  json.RawMessage `json:"body,omitempty"`
}

type setItemCountBody struct {
	DishID int64 `json:"dish_id"`
	Count  int64 `json:"count"`
}

type setCartBody struct {
	Cart []db.CartItem `json:"cart"`
}

// HandleGetCart returns the cart contents of the signed-in client.
func HandleGetCart(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, clientID, customErr := requireSessionUser(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		items, err := deps.Store.Cart(r.Context(), clientID)
		if err != nil {
			resp.RespondError(w, r, storeError(err, errs.ErrUserNotFound))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"item":     "cart",
			"contents": items,
		})
	}
}

// HandleUpdateCart applies set_item_count or set_cart and notifies every session of the client.
func HandleUpdateCart(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, clientID, customErr := requireSessionUser(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input CommandInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		switch input.Query {
		case "set_item_count":
			var body setItemCountBody
			if customErr := decodeBody(input.Body, &body); customErr != nil {
				resp.RespondError(w, r, customErr)
				return
			}
			if body.DishID <= 0 || body.Count < 0 {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			if err := deps.Store.SetItemCount(r.Context(), clientID, body.DishID, body.Count); err != nil {
				resp.RespondError(w, r, storeError(err, errs.ErrDishNotFound))
				return
			}

		case "set_cart":
			var body setCartBody
			if customErr := decodeBody(input.Body, &body); customErr != nil {
				resp.RespondError(w, r, customErr)
				return
			}
			for _, item := range body.Cart {
				if item.DishID <= 0 || item.Count < 0 {
					resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
					return
				}
			}
			if err := deps.Store.SetCart(r.Context(), clientID, body.Cart); err != nil {
				resp.RespondError(w, r, storeError(err, errs.ErrDishNotFound))
				return
			}

		default:
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknownQuery, input.Query))
			return
		}

		now, err := deps.Store.Now(r.Context())
		if err != nil {
			resp.RespondError(w, r, storeError(err, errs.ErrUnknown))
			return
		}

		logx.Info("Cart updated.", "user_id", userID, "query", input.Query)

		resp.RespondSuccess(w, r, map[string]any{
			"query":     "cart_changed",
			"timestamp": now,
		})

		notifyCartChanged(r.Context(), deps, userID)
	}
}
