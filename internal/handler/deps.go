package handler

import (
	"context"

	"menupoll/internal/app/db"
	"menupoll/internal/app/poll"
	"menupoll/internal/app/storage"
	"menupoll/internal/configs"
)

// Store is the persistence consulted by the handlers. *db.Store implements it.
type Store interface {
	Now(ctx context.Context) (int64, error)

	Menu(ctx context.Context) (db.Menu, error)
	Dish(ctx context.Context, id int64) (db.Dish, error)
	SetDishStatus(ctx context.Context, id, status int64) (int64, error)

	ClientByEmail(ctx context.Context, email string) (db.Client, error)
	ClientByID(ctx context.Context, id int64) (db.Client, error)
	CreateClient(ctx context.Context, name, email, passwordHash string) (db.Client, error)

	Cart(ctx context.Context, clientID int64) ([]db.CartItem, error)
	SetCart(ctx context.Context, clientID int64, items []db.CartItem) error
	SetItemCount(ctx context.Context, clientID, dishID, count int64) error

	CreateOrder(ctx context.Context, clientID int64, address, comment string) (db.Order, error)
	ClientOrders(ctx context.Context, clientID int64) ([]db.Order, error)
	Order(ctx context.Context, id int64) (db.Order, error)
	SetOrderStatus(ctx context.Context, id int64, status db.OrderStatus) (db.Order, error)
}

// AppDeps holds the process-wide collaborators shared by every handler.
type AppDeps struct {
	Hub    *poll.Hub
	Config *configs.AppConfig
	Store  Store
	Images storage.ImageService
}
