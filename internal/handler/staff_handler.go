/*
Package handler provides HTTP handler functions for staff operations on dishes and orders.

Both handlers run behind jwt.RequireStaff and fan out notifications through the Hub.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"menupoll/internal/app/db"
	"menupoll/internal/app/poll"
	"menupoll/internal/pkg/auth/jwt"
	"menupoll/internal/pkg/errs"
	"menupoll/internal/pkg/logx"
	"menupoll/internal/pkg/req"
	"menupoll/internal/pkg/resp"
)

// StatusInput is the body of the staff status routes.
type StatusInput struct {
	Status *int64 `json:"status"`
}

// HandleSetDishStatus toggles dish availability and broadcasts menu_changed to every open session.
func HandleSetDishStatus(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dishID, ok := req.ParseID(chi.URLParam(r, "id"))
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input StatusInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Status == nil || (*input.Status != db.DishHidden && *input.Status != db.DishAvailable) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		timestamp, err := deps.Store.SetDishStatus(r.Context(), dishID, *input.Status)
		if err != nil {
			resp.RespondError(w, r, storeError(err, errs.ErrDishNotFound))
			return
		}

		delivered := deps.Hub.Broadcast(poll.NewEnvelope(poll.MenuChangedBody{}, timestamp))

		logx.Info("Dish status changed.",
			"staff_id", staffID(r),
			"dish_id", dishID,
			"status", *input.Status,
			"delivered", delivered,
		)

		resp.RespondSuccess(w, r, map[string]any{
			"query":     "menu_changed",
			"timestamp": timestamp,
			"delivered": delivered,
		})
	}
}

// HandleSetOrderStatus moves an order to a new status and notifies its owner.
func HandleSetOrderStatus(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := req.ParseID(chi.URLParam(r, "id"))
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input StatusInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Status == nil || !db.OrderStatus(*input.Status).Valid() {
			resp.RespondError(w, r, errs.NewError(errs.ErrOrderStatusInvalid))
			return
		}

		order, err := deps.Store.SetOrderStatus(r.Context(), orderID, db.OrderStatus(*input.Status))
		if err != nil {
			resp.RespondError(w, r, storeError(err, errs.ErrOrderNotFound))
			return
		}

		delivered := notifyOrderChanged(deps, order)

		logx.Info("Order status changed.",
			"staff_id", staffID(r),
			"order_id", order.ID,
			"status", order.Status,
			"delivered", delivered,
		)

		resp.RespondSuccess(w, r, map[string]any{
			"query":     "order_changed",
			"order_id":  order.ID,
			"timestamp": order.LastModified,
			"delivered": delivered,
		})
	}
}

func staffID(r *http.Request) string {
	if p := jwt.GetPayloadFromContext(r); p != nil {
		return p.StaffID
	}
	return ""
}
