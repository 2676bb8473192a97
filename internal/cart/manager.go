package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/avelinelabs/boutiq/internal/statestore"
	"github.com/avelinelabs/boutiq/pkg/logger"
	"github.com/shopspring/decimal"
)

// ProductInfo is the display snapshot copied into a line at insertion time.
// The cart never re-fetches live prices; the locked-in price is what checkout
// charges.
type ProductInfo struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	ImageURL string
}

// Line is one product entry in the cart.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns unit price times quantity for this line.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Manager owns the cart contents and their persistence. Lines keep insertion
// order; a product appears at most once. Derived aggregates are recomputed
// from the lines on every read.
type Manager struct {
	mu     sync.Mutex
	store  statestore.Store
	logg   *logger.Logger
	lines  []Line
	onShow func()
}

// NewManager builds a cart manager on the given storage.
func NewManager(store statestore.Store, logg *logger.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Manager{store: store, logg: logg}, nil
}

// SetShowHook registers the side effect fired whenever an item is added, so
// the consuming UI can reveal the cart.
func (m *Manager) SetShowHook(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onShow = fn
}

// Restore loads the persisted snapshot. A missing snapshot means an empty
// cart; a corrupt one is discarded and replaced with an empty cart.
func (m *Manager) Restore(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := m.store.Get(ctx, statestore.KeyCartSnapshot)
	if err != nil {
		if !errors.Is(err, statestore.ErrNotFound) {
			m.logg.Warn(ctx, "cart snapshot unreadable, starting empty")
		}
		m.lines = nil
		return
	}

	var restored []Line
	if err := json.Unmarshal(raw, &restored); err != nil {
		m.logg.Warn(ctx, "cart snapshot corrupt, discarding")
		if delErr := m.store.Delete(ctx, statestore.KeyCartSnapshot); delErr != nil {
			m.logg.Error(ctx, "failed to drop corrupt cart snapshot", delErr)
		}
		m.lines = nil
		return
	}
	m.lines = sanitizeLines(restored)
}

// AddItem merges quantity into an existing line for the product or appends a
// new line snapshotting the product's display fields. Quantities below one
// count as one.
func (m *Manager) AddItem(ctx context.Context, product ProductInfo, quantity int) {
	if product.ID == "" {
		return
	}
	if quantity < 1 {
		quantity = 1
	}

	m.mu.Lock()
	if idx := m.findLocked(product.ID); idx >= 0 {
		m.lines[idx].Quantity += quantity
	} else {
		m.lines = append(m.lines, Line{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			ImageURL:  product.ImageURL,
			Quantity:  quantity,
		})
	}
	m.persistLocked(ctx)
	show := m.onShow
	m.mu.Unlock()

	if show != nil {
		show()
	}
}

// RemoveItem deletes the line for the product; absent ids are a no-op.
func (m *Manager) RemoveItem(ctx context.Context, productID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.findLocked(productID)
	if idx < 0 {
		return
	}
	m.lines = append(m.lines[:idx], m.lines[idx+1:]...)
	m.persistLocked(ctx)
}

// UpdateQuantity applies delta to the line's quantity, clamped to a minimum
// of one. It never removes the line; absent ids are a no-op.
func (m *Manager) UpdateQuantity(ctx context.Context, productID string, delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.findLocked(productID)
	if idx < 0 {
		return
	}
	next := m.lines[idx].Quantity + delta
	if next < 1 {
		next = 1
	}
	m.lines[idx].Quantity = next
	m.persistLocked(ctx)
}

// Clear empties the cart.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = nil
	m.persistLocked(ctx)
}

// Lines returns a copy of the lines in insertion order.
func (m *Manager) Lines() []Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]Line, len(m.lines))
	copy(copied, m.lines)
	return copied
}

// Count is the sum of all line quantities.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, line := range m.lines {
		total += line.Quantity
	}
	return total
}

// Total is the sum of unit price times quantity over all lines.
func (m *Manager) Total() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, line := range m.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (m *Manager) findLocked(productID string) int {
	for i, line := range m.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

// persistLocked serializes the full cart. A write failure is logged and
// swallowed; the in-memory cart stays authoritative for this session.
func (m *Manager) persistLocked(ctx context.Context) {
	encoded, err := json.Marshal(m.lines)
	if err != nil {
		m.logg.Error(ctx, "failed to encode cart snapshot", err)
		return
	}
	if err := m.store.Put(ctx, statestore.KeyCartSnapshot, encoded); err != nil {
		m.logg.Error(ctx, "failed to persist cart snapshot", err)
	}
}

// sanitizeLines enforces the cart invariants on restored data: no empty
// product ids, quantity at least one, one line per product (merged in
// insertion order).
func sanitizeLines(restored []Line) []Line {
	var clean []Line
	index := map[string]int{}
	for _, line := range restored {
		if line.ProductID == "" {
			continue
		}
		if line.Quantity < 1 {
			line.Quantity = 1
		}
		if at, ok := index[line.ProductID]; ok {
			clean[at].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(clean)
		clean = append(clean, line)
	}
	return clean
}
