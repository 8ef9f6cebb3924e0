package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrDuplicate is returned when a unique value such as a client email is already taken.
	ErrDuplicate = errors.New("duplicate record")

	// ErrEmptyCart is returned when an order is created from an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
)

// Dish availability values.
const (
	DishHidden    int64 = 0
	DishAvailable int64 = 1
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus int64

const (
	OrderAccepted OrderStatus = iota
	OrderCooking
	OrderDelivering
	OrderDone
	OrderCanceled
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	return s >= OrderAccepted && s <= OrderCanceled
}

// Dish is a menu entry.
type Dish struct {
	ID       int64
	Name     string
	ImageKey string
	Price    int64
	Status   int64
}

// Menu is the list of available dishes and the time the menu last changed.
type Menu struct {
	Timestamp int64
	Dishes    []Dish
}

// Client is a registered customer.
type Client struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
}

// CartItem is a dish and its quantity, in a cart or in an order.
type CartItem struct {
	DishID int64 `json:"dish_id"`
	Count  int64 `json:"count"`
}

// Order is a placed order.
type Order struct {
	ID           int64
	ClientID     int64
	Address      string
	Comment      string
	Items        []CartItem
	Cost         int64
	Status       OrderStatus
	CreatedAt    int64
	LastModified int64
}

// Store serves the persistent data consulted by the HTTP handlers.
// Every timestamp it returns is produced by the database clock, in epoch seconds.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an initialized pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Now returns the database clock.
func (s *Store) Now(ctx context.Context) (int64, error) {
	var now int64
	if err := s.pool.QueryRow(ctx, `SELECT EXTRACT(EPOCH FROM now())::BIGINT`).Scan(&now); err != nil {
		return 0, fmt.Errorf("read database clock: %w", err)
	}
	return now, nil
}

// Menu returns the available dishes ordered by id.
func (s *Store) Menu(ctx context.Context) (Menu, error) {
	var menu Menu

	if err := s.pool.QueryRow(ctx, `SELECT updated_at FROM menu_meta WHERE id = 1`).Scan(&menu.Timestamp); err != nil {
		return Menu{}, fmt.Errorf("read menu timestamp: %w", notFound(err))
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, image_key, price, status FROM dish WHERE status = $1 ORDER BY id`, DishAvailable)
	if err != nil {
		return Menu{}, fmt.Errorf("query dishes: %w", err)
	}

	menu.Dishes, err = pgx.CollectRows(rows, pgx.RowToStructByPos[Dish])
	if err != nil {
		return Menu{}, fmt.Errorf("scan dishes: %w", err)
	}

	return menu, nil
}

// Dish returns a single dish regardless of its availability.
func (s *Store) Dish(ctx context.Context, id int64) (Dish, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, image_key, price, status FROM dish WHERE id = $1`, id)
	if err != nil {
		return Dish{}, fmt.Errorf("query dish %d: %w", id, err)
	}

	dish, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[Dish])
	if err != nil {
		return Dish{}, notFound(err)
	}
	return dish, nil
}

// SetDishStatus changes dish availability and advances the menu timestamp, which it returns.
func (s *Store) SetDishStatus(ctx context.Context, id, status int64) (int64, error) {
	var updatedAt int64

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE dish SET status = $2 WHERE id = $1`, id, status)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		return tx.QueryRow(ctx, `
			UPDATE menu_meta
			SET updated_at = GREATEST(updated_at + 1, EXTRACT(EPOCH FROM now())::BIGINT)
			WHERE id = 1
			RETURNING updated_at`).Scan(&updatedAt)
	})
	if err != nil {
		return 0, fmt.Errorf("set dish %d status: %w", id, err)
	}

	return updatedAt, nil
}

// ClientByEmail looks a client up by email.
func (s *Store) ClientByEmail(ctx context.Context, email string) (Client, error) {
	return s.client(ctx, `SELECT id, name, email, password_hash FROM client WHERE email = $1`, email)
}

// ClientByID looks a client up by id.
func (s *Store) ClientByID(ctx context.Context, id int64) (Client, error) {
	return s.client(ctx, `SELECT id, name, email, password_hash FROM client WHERE id = $1`, id)
}

func (s *Store) client(ctx context.Context, query string, arg any) (Client, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return Client{}, fmt.Errorf("query client: %w", err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[Client])
	if err != nil {
		return Client{}, notFound(err)
	}
	return c, nil
}

// CreateClient registers a client. It returns ErrDuplicate when the email is taken.
func (s *Store) CreateClient(ctx context.Context, name, email, passwordHash string) (Client, error) {
	c := Client{Name: name, Email: email, PasswordHash: passwordHash}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO client (name, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		name, email, passwordHash,
	).Scan(&c.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return Client{}, ErrDuplicate
		}
		return Client{}, fmt.Errorf("insert client: %w", err)
	}

	return c, nil
}

// Cart returns the cart of a client ordered by dish id.
func (s *Store) Cart(ctx context.Context, clientID int64) ([]CartItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT dish_id, count FROM cart_item WHERE client_id = $1 ORDER BY dish_id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[CartItem])
	if err != nil {
		return nil, fmt.Errorf("scan cart: %w", err)
	}
	return items, nil
}

// SetCart replaces the whole cart. Items with a non-positive count are skipped.
func (s *Store) SetCart(ctx context.Context, clientID int64, items []CartItem) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM cart_item WHERE client_id = $1`, clientID); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, item := range items {
			if item.Count <= 0 {
				continue
			}
			batch.Queue(`
				INSERT INTO cart_item (client_id, dish_id, count) VALUES ($1, $2, $3)
				ON CONFLICT (client_id, dish_id) DO UPDATE SET count = EXCLUDED.count`,
				clientID, item.DishID, item.Count)
		}

		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		if IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("set cart: %w", err)
	}
	return nil
}

// SetItemCount sets the quantity of one dish in the cart, removing it when count is not positive.
func (s *Store) SetItemCount(ctx context.Context, clientID, dishID, count int64) error {
	var err error
	if count <= 0 {
		_, err = s.pool.Exec(ctx, `DELETE FROM cart_item WHERE client_id = $1 AND dish_id = $2`, clientID, dishID)
	} else {
		_, err = s.pool.Exec(ctx, `
			INSERT INTO cart_item (client_id, dish_id, count) VALUES ($1, $2, $3)
			ON CONFLICT (client_id, dish_id) DO UPDATE SET count = EXCLUDED.count`,
			clientID, dishID, count)
	}

	if err != nil {
		if IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("set item count: %w", err)
	}
	return nil
}

// CreateOrder turns the client's cart into an order and empties the cart.
func (s *Store) CreateOrder(ctx context.Context, clientID int64, address, comment string) (Order, error) {
	order := Order{
		ClientID: clientID,
		Address:  address,
		Comment:  comment,
		Status:   OrderAccepted,
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT c.dish_id, c.count, d.price
			FROM cart_item c JOIN dish d ON d.id = c.dish_id
			WHERE c.client_id = $1
			ORDER BY c.dish_id
			FOR UPDATE OF c`, clientID)
		if err != nil {
			return err
		}

		var item CartItem
		var price int64
		_, err = pgx.ForEachRow(rows, []any{&item.DishID, &item.Count, &price}, func() error {
			order.Items = append(order.Items, item)
			order.Cost += item.Count * price
			return nil
		})
		if err != nil {
			return err
		}

		if len(order.Items) == 0 {
			return ErrEmptyCart
		}

		items, err := json.Marshal(order.Items)
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO orders (client_id, address, comment, items, cost, status, created_at, last_modified)
			VALUES ($1, $2, $3, $4, $5, $6, EXTRACT(EPOCH FROM now())::BIGINT, EXTRACT(EPOCH FROM now())::BIGINT)
			RETURNING id, created_at, last_modified`,
			clientID, address, comment, string(items), order.Cost, order.Status,
		).Scan(&order.ID, &order.CreatedAt, &order.LastModified)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `DELETE FROM cart_item WHERE client_id = $1`, clientID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrEmptyCart) {
			return Order{}, err
		}
		return Order{}, fmt.Errorf("create order: %w", err)
	}

	return order, nil
}

// ClientOrders returns the orders of a client ordered by id.
func (s *Store) ClientOrders(ctx context.Context, clientID int64) ([]Order, error) {
	rows, err := s.pool.Query(ctx, orderColumns+` WHERE client_id = $1 ORDER BY id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}
	return orders, nil
}

// Order returns a single order.
func (s *Store) Order(ctx context.Context, id int64) (Order, error) {
	rows, err := s.pool.Query(ctx, orderColumns+` WHERE id = $1`, id)
	if err != nil {
		return Order{}, fmt.Errorf("query order %d: %w", id, err)
	}

	order, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		return Order{}, notFound(err)
	}
	return order, nil
}

// SetOrderStatus updates the status of an order and advances its last_modified timestamp.
func (s *Store) SetOrderStatus(ctx context.Context, id int64, status OrderStatus) (Order, error) {
	rows, err := s.pool.Query(ctx, `
		UPDATE orders
		SET status = $2, last_modified = GREATEST(last_modified + 1, EXTRACT(EPOCH FROM now())::BIGINT)
		WHERE id = $1
		RETURNING id, client_id, address, comment, items, cost, status, created_at, last_modified`,
		id, status)
	if err != nil {
		return Order{}, fmt.Errorf("update order %d: %w", id, err)
	}

	order, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		return Order{}, notFound(err)
	}
	return order, nil
}

const orderColumns = `SELECT id, client_id, address, comment, items, cost, status, created_at, last_modified FROM orders`

func scanOrder(row pgx.CollectableRow) (Order, error) {
	var o Order
	var items []byte

	err := row.Scan(&o.ID, &o.ClientID, &o.Address, &o.Comment, &items, &o.Cost, &o.Status, &o.CreatedAt, &o.LastModified)
	if err != nil {
		return Order{}, err
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return Order{}, fmt.Errorf("decode order %d items: %w", o.ID, err)
	}

	return o, nil
}
