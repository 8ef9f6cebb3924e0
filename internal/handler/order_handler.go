/*
Package handler provides HTTP handler functions for placing and inspecting orders.
*/
package handler

import (
	"net/http"

	"menupoll/internal/app/db"
	"menupoll/internal/pkg/errs"
	"menupoll/internal/pkg/logx"
	"menupoll/internal/pkg/req"
	"menupoll/internal/pkg/resp"
)

// CreateOrderInput is the body of POST /order.
type CreateOrderInput struct {
	Query string `json:"query,omitempty"`
	Body  struct {
		Address string `json:"address"`
		Comment string `json:"comment,omitempty"`
	} `json:"body"`
}

// HandleCreateOrder turns the client's cart into an order.
func HandleCreateOrder(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, clientID, customErr := requireSessionUser(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input CreateOrderInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Query != "" && input.Query != "create_order" {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknownQuery, input.Query))
			return
		}

		if input.Body.Address == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		order, err := deps.Store.CreateOrder(r.Context(), clientID, input.Body.Address, input.Body.Comment)
		if err != nil {
			resp.RespondError(w, r, storeError(err, errs.ErrUserNotFound))
			return
		}

		logx.Info("Order created.", "user_id", userID, "order_id", order.ID, "cost", order.Cost)

		resp.RespondSuccess(w, r, map[string]any{
			"query":     "create_order",
			"order_id":  order.ID,
			"timestamp": order.CreatedAt,
		})

		notifyOrderChanged(deps, order)
		notifyCartChanged(r.Context(), deps, userID)
	}
}

// HandleGetOrder returns the order named by the Order-ID header, if it belongs to the caller.
func HandleGetOrder(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, clientID, customErr := requireSessionUser(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		orderID, ok := req.OrderID(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		order, err := deps.Store.Order(r.Context(), orderID)
		if err != nil {
			resp.RespondError(w, r, storeError(err, errs.ErrOrderNotFound))
			return
		}

		// Foreign orders are reported as missing.
		if order.ClientID != clientID {
			resp.RespondError(w, r, errs.NewError(errs.ErrOrderNotFound))
			return
		}

		resp.RespondSuccess(w, r, orderView(order))
	}
}

func orderView(o db.Order) map[string]any {
	items := o.Items
	if items == nil {
		items = []db.CartItem{}
	}

	return map[string]any{
		"item":          "order",
		"order_id":      o.ID,
		"address":       o.Address,
		"comment":       o.Comment,
		"contents":      items,
		"cost":          o.Cost,
		"status":        o.Status,
		"timestamp":     o.CreatedAt,
		"last_modified": o.LastModified,
	}
}
