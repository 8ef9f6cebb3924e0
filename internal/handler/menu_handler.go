package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"menupoll/internal/app/db"
	"menupoll/internal/app/storage"
	"menupoll/internal/pkg/errs"
	"menupoll/internal/pkg/logx"
	"menupoll/internal/pkg/req"
	"menupoll/internal/pkg/resp"
)

type dishView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Image string `json:"image,omitempty"`
}

// HandleMenu returns the available dishes and the menu timestamp.
func HandleMenu(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menu, err := deps.Store.Menu(r.Context())
		if err != nil {
			resp.RespondError(w, r, storeError(err, errs.ErrStorageFailed))
			return
		}

		dishes := make([]dishView, 0, len(menu.Dishes))
		for _, d := range menu.Dishes {
			view := dishView{ID: d.ID, Name: d.Name, Price: d.Price}
			if d.ImageKey != "" {
				view.Image = dishImagePath(d.ID)
			}
			dishes = append(dishes, view)
		}

		resp.RespondSuccess(w, r, map[string]any{
			"item":      "menu",
			"timestamp": menu.Timestamp,
			"dishes":    dishes,
		})
	}
}

// HandleDishImage redirects to a short-lived presigned URL of the dish image.
func HandleDishImage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dishID, ok := req.ParseID(chi.URLParam(r, "id"))
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		dish, err := deps.Store.Dish(r.Context(), dishID)
		if err != nil {
			resp.RespondError(w, r, storeError(err, errs.ErrDishNotFound))
			return
		}

		if dish.ImageKey == "" || dish.Status == db.DishHidden {
			resp.RespondError(w, r, errs.NewError(errs.ErrImageUnavailable))
			return
		}

		url, err := deps.Images.PresignImage(r.Context(), dish.ImageKey, storage.ImageURLDuration)
		if err != nil {
			if errors.Is(err, storage.ErrDisabled) {
				resp.RespondError(w, r, errs.NewError(errs.ErrImageUnavailable))
				return
			}
			logx.Error(err, "Failed to presign dish image", "dish_id", dishID, "key", dish.ImageKey)
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		w.Header().Set("Cache-Control", "private, max-age=600")
		http.Redirect(w, r, url, http.StatusFound)
	}
}

func dishImagePath(id int64) string {
	return "/menu/dishes/" + strconv.FormatInt(id, 10) + "/image"
}
