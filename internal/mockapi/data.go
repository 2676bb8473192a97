package mockapi

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type clientRecord struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	password  string
}

type productRecord struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

type orderRecord struct {
	ID              string          `json:"id"`
	Username        string          `json:"-"`
	Total           decimal.Decimal `json:"total"`
	ShippingAddress string          `json:"shippingAddress"`
	Status          string          `json:"status"`
}

type promoRecord struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

// dataStore is the in-memory backing state of the mock backend.
type dataStore struct {
	mu       sync.Mutex
	clients  map[string]*clientRecord
	tokens   map[string]string
	products []productRecord
	orders   map[string]*orderRecord
	promos   []promoRecord
}

// newDataStore seeds the fixtures: one demo account, a small catalog, and a
// couple of promo codes.
func newDataStore() *dataStore {
	demo := &clientRecord{
		ID:        uuid.NewString(),
		Username:  "demo",
		FirstName: "Demi",
		LastName:  "Ostrander",
		Email:     "demo@example.com",
		password:  "secret123",
	}

	return &dataStore{
		clients: map[string]*clientRecord{demo.Username: demo},
		tokens:  map[string]string{},
		orders:  map[string]*orderRecord{},
		products: []productRecord{
			{ID: uuid.NewString(), Name: "Linen Tote", Description: "Natural linen tote bag", Price: decimal.NewFromFloat(24.90)},
			{ID: uuid.NewString(), Name: "Ceramic Mug", Description: "Hand-glazed stoneware mug", Price: decimal.NewFromFloat(18.00)},
			{ID: uuid.NewString(), Name: "Beeswax Candle", Description: "Slow-burning beeswax candle", Price: decimal.NewFromFloat(12.50)},
			{ID: uuid.NewString(), Name: "Walnut Tray", Description: "Solid walnut serving tray", Price: decimal.NewFromFloat(49.99)},
			{ID: uuid.NewString(), Name: "Wool Throw", Description: "Merino wool throw blanket", Price: decimal.NewFromFloat(89.00)},
			{ID: uuid.NewString(), Name: "Glass Carafe", Description: "Mouth-blown glass carafe", Price: decimal.NewFromFloat(32.00)},
		},
		promos: []promoRecord{
			{ID: uuid.NewString(), Code: "WELCOME10", DiscountPercent: decimal.NewFromInt(10)},
			{ID: uuid.NewString(), Code: "SUMMER15", DiscountPercent: decimal.NewFromInt(15)},
		},
	}
}

func (d *dataStore) authenticate(username, password string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	client, ok := d.clients[username]
	if !ok || client.password != password {
		return "", false
	}
	token := uuid.NewString()
	d.tokens[token] = username
	return token, true
}

func (d *dataStore) clientForToken(token string) (*clientRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	username, ok := d.tokens[token]
	if !ok {
		return nil, false
	}
	client, ok := d.clients[username]
	return client, ok
}

func (d *dataStore) revokeToken(token string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.tokens, token)
}

func (d *dataStore) addClient(client *clientRecord) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.clients[client.Username]; exists {
		return false
	}
	d.clients[client.Username] = client
	return true
}

func (d *dataStore) listProducts() []productRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]productRecord, len(d.products))
	copy(out, d.products)
	return out
}

func (d *dataStore) findProduct(id string) (productRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, product := range d.products {
		if product.ID == id {
			return product, true
		}
	}
	return productRecord{}, false
}

func (d *dataStore) addOrder(order *orderRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orders[order.ID] = order
}

func (d *dataStore) updateOrderStatus(id, status string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	order, ok := d.orders[id]
	if !ok {
		return false
	}
	order.Status = status
	return true
}

func (d *dataStore) listPromos() []promoRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]promoRecord, len(d.promos))
	copy(out, d.promos)
	return out
}
