// internal/store/cart.go
package store

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/models"
)

// CartStore owns the local shopping cart aggregate. All operations are
// synchronous and never touch the network; after every mutation the derived
// totals are recomputed and subscribers are notified with a copy of the cart.
type CartStore struct {
	mu       sync.Mutex
	cart     models.Cart
	onChange func(models.Cart)
	log      *logrus.Logger
}

func NewCartStore(log *logrus.Logger) *CartStore {
	return &CartStore{
		cart: models.NewCart(),
		log:  log,
	}
}

// OnChange registers the persistence subscriber. It must be set during wiring,
// before the store is used concurrently.
func (s *CartStore) OnChange(fn func(models.Cart)) {
	s.onChange = fn
}

// Seed replaces the cart with a restored snapshot. Called once at startup
// before first use; it does not notify subscribers.
func (s *CartStore) Seed(cart models.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	s.cart = cart
	s.recomputeLocked()
}

// AddItem merges the product into the cart: an existing line for the same
// product gains quantity and is re-priced at the product's current unit
// price; otherwise a new line is appended. Callers are expected to pass a
// quantity of at least 1.
func (s *CartStore) AddItem(product models.Product, quantity int) {
	s.mu.Lock()
	if item := s.findByProductLocked(product.ID); item != nil {
		item.Quantity += quantity
		item.Product = product
		item.Subtotal = product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	} else {
		s.cart.Items = append(s.cart.Items, models.CartItem{
			ID:        uuid.NewString(),
			ProductID: product.ID,
			Product:   product,
			Quantity:  quantity,
			Subtotal:  product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		})
	}
	s.recomputeLocked()
	snap := s.copyLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// RemoveItem deletes the line item if present. Removing an absent item is a
// no-op, not a failure.
func (s *CartStore) RemoveItem(itemID string) {
	s.mu.Lock()
	s.removeLocked(itemID)
	s.recomputeLocked()
	snap := s.copyLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// UpdateQuantity sets the line's quantity, re-pricing from the stored unit
// price. A quantity of zero or less removes the line.
func (s *CartStore) UpdateQuantity(itemID string, quantity int) {
	s.mu.Lock()
	if quantity <= 0 {
		s.removeLocked(itemID)
	} else {
		for i := range s.cart.Items {
			if s.cart.Items[i].ID == itemID {
				item := &s.cart.Items[i]
				item.Quantity = quantity
				item.Subtotal = item.Product.Price.Mul(decimal.NewFromInt(int64(quantity)))
				break
			}
		}
	}
	s.recomputeLocked()
	snap := s.copyLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// ClearCart resets to an empty cart with a new identity.
func (s *CartStore) ClearCart() {
	s.mu.Lock()
	s.cart = models.NewCart()
	snap := s.copyLocked()
	s.mu.Unlock()

	s.log.Debug("cart cleared")
	s.notify(snap)
}

// Cart returns a copy of the current cart.
func (s *CartStore) Cart() models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *CartStore) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount
}

func (s *CartStore) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total
}

// Item returns the line item holding the given product, if any.
func (s *CartStore) Item(productID int64) (models.CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item := s.findByProductLocked(productID); item != nil {
		return *item, true
	}
	return models.CartItem{}, false
}

func (s *CartStore) findByProductLocked(productID int64) *models.CartItem {
	for i := range s.cart.Items {
		if s.cart.Items[i].ProductID == productID {
			return &s.cart.Items[i]
		}
	}
	return nil
}

func (s *CartStore) removeLocked(itemID string) {
	for i := range s.cart.Items {
		if s.cart.Items[i].ID == itemID {
			s.cart.Items = append(s.cart.Items[:i], s.cart.Items[i+1:]...)
			return
		}
	}
}

// recomputeLocked rederives Total and ItemCount from the line items. Totals
// are never stored independently of this step.
func (s *CartStore) recomputeLocked() {
	total := decimal.Zero
	count := 0
	for _, item := range s.cart.Items {
		total = total.Add(item.Subtotal)
		count += item.Quantity
	}
	s.cart.Total = total
	s.cart.ItemCount = count
}

func (s *CartStore) copyLocked() models.Cart {
	snap := s.cart
	snap.Items = make([]models.CartItem, len(s.cart.Items))
	copy(snap.Items, s.cart.Items)
	return snap
}

// notify runs outside the lock; the subscriber must not block the mutation.
func (s *CartStore) notify(snap models.Cart) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}
