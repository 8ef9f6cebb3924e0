package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"menupoll/internal/app/db"
	"menupoll/internal/app/storage"
)

// fakeStore is an in-memory Store whose clock starts at 100 and only moves when a row changes.
type fakeStore struct {
	mu sync.Mutex

	clock   int64
	menuTS  int64
	dishes  map[int64]db.Dish
	clients map[int64]db.Client
	carts   map[int64]map[int64]int64
	orders  map[int64]db.Order

	nextClientID int64
	nextOrderID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:  100,
		menuTS: 90,
		dishes: map[int64]db.Dish{
			1: {ID: 1, Name: "Borscht", ImageKey: "borscht.png", Price: 300, Status: db.DishAvailable},
			2: {ID: 2, Name: "Pelmeni", Price: 450, Status: db.DishAvailable},
			3: {ID: 3, Name: "Kvass", Price: 120, Status: db.DishHidden},
		},
		clients:      make(map[int64]db.Client),
		carts:        make(map[int64]map[int64]int64),
		orders:       make(map[int64]db.Order),
		nextClientID: 1,
		nextOrderID:  1,
	}
}

func (f *fakeStore) addClient(c db.Client) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clients[c.ID] = c
	if c.ID >= f.nextClientID {
		f.nextClientID = c.ID + 1
	}
}

func (f *fakeStore) Now(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.clock, nil
}

func (f *fakeStore) Menu(context.Context) (db.Menu, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	menu := db.Menu{Timestamp: f.menuTS}
	for _, d := range f.dishes {
		if d.Status == db.DishAvailable {
			menu.Dishes = append(menu.Dishes, d)
		}
	}
	sort.Slice(menu.Dishes, func(i, j int) bool { return menu.Dishes[i].ID < menu.Dishes[j].ID })
	return menu, nil
}

func (f *fakeStore) Dish(_ context.Context, id int64) (db.Dish, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.dishes[id]
	if !ok {
		return db.Dish{}, db.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) SetDishStatus(_ context.Context, id, status int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.dishes[id]
	if !ok {
		return 0, db.ErrNotFound
	}
	d.Status = status
	f.dishes[id] = d

	f.clock++
	f.menuTS = f.clock
	return f.menuTS, nil
}

func (f *fakeStore) ClientByEmail(_ context.Context, email string) (db.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.clients {
		if c.Email == email {
			return c, nil
		}
	}
	return db.Client{}, db.ErrNotFound
}

func (f *fakeStore) ClientByID(_ context.Context, id int64) (db.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.clients[id]
	if !ok {
		return db.Client{}, db.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) CreateClient(_ context.Context, name, email, passwordHash string) (db.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.clients {
		if c.Email == email {
			return db.Client{}, db.ErrDuplicate
		}
	}

	c := db.Client{ID: f.nextClientID, Name: name, Email: email, PasswordHash: passwordHash}
	f.nextClientID++
	f.clients[c.ID] = c
	return c, nil
}

func (f *fakeStore) Cart(_ context.Context, clientID int64) ([]db.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.cartLocked(clientID), nil
}

func (f *fakeStore) cartLocked(clientID int64) []db.CartItem {
	items := make([]db.CartItem, 0, len(f.carts[clientID]))
	for dishID, count := range f.carts[clientID] {
		items = append(items, db.CartItem{DishID: dishID, Count: count})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DishID < items[j].DishID })
	return items
}

func (f *fakeStore) SetCart(_ context.Context, clientID int64, items []db.CartItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cart := make(map[int64]int64)
	for _, item := range items {
		if item.Count <= 0 {
			continue
		}
		if _, ok := f.dishes[item.DishID]; !ok {
			return db.ErrNotFound
		}
		cart[item.DishID] = item.Count
	}

	f.carts[clientID] = cart
	return nil
}

func (f *fakeStore) SetItemCount(_ context.Context, clientID, dishID, count int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.dishes[dishID]; !ok {
		return db.ErrNotFound
	}

	cart, ok := f.carts[clientID]
	if !ok {
		cart = make(map[int64]int64)
		f.carts[clientID] = cart
	}

	if count <= 0 {
		delete(cart, dishID)
	} else {
		cart[dishID] = count
	}
	return nil
}

func (f *fakeStore) CreateOrder(_ context.Context, clientID int64, address, comment string) (db.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.cartLocked(clientID)
	if len(items) == 0 {
		return db.Order{}, db.ErrEmptyCart
	}

	f.clock++
	o := db.Order{
		ID:           f.nextOrderID,
		ClientID:     clientID,
		Address:      address,
		Comment:      comment,
		Items:        items,
		Status:       db.OrderAccepted,
		CreatedAt:    f.clock,
		LastModified: f.clock,
	}
	for _, item := range items {
		o.Cost += item.Count * f.dishes[item.DishID].Price
	}

	f.nextOrderID++
	f.orders[o.ID] = o
	delete(f.carts, clientID)
	return o, nil
}

func (f *fakeStore) ClientOrders(_ context.Context, clientID int64) ([]db.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var orders []db.Order
	for _, o := range f.orders {
		if o.ClientID == clientID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (f *fakeStore) Order(_ context.Context, id int64) (db.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o, ok := f.orders[id]
	if !ok {
		return db.Order{}, db.ErrNotFound
	}
	return o, nil
}

func (f *fakeStore) SetOrderStatus(_ context.Context, id int64, status db.OrderStatus) (db.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o, ok := f.orders[id]
	if !ok {
		return db.Order{}, db.ErrNotFound
	}

	f.clock++
	o.Status = status
	o.LastModified = f.clock
	f.orders[id] = o
	return o, nil
}

// fakeImages presigns by prefixing the key with a fixed host.
type fakeImages struct{}

func (fakeImages) PresignImage(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://cdn.example.test/" + key + "?sig=1", nil
}

var (
	_ Store                = (*fakeStore)(nil)
	_ storage.ImageService = fakeImages{}
)
