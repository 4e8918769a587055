// internal/models/cart.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is a single line in a cart: one product with a requested quantity
// and a denormalized product snapshot for pricing.
type CartItem struct {
	ID        string          `json:"id"`
	ProductID int64           `json:"productId"`
	Product   Product         `json:"product"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Cart is the local shopping cart aggregate. Total and ItemCount are derived
// sums over Items; they are recomputed on every mutation, never stored
// independently.
type Cart struct {
	ID        string          `json:"id"`
	Items     []CartItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

// NewCart returns an empty cart with a fresh identity.
func NewCart() Cart {
	return Cart{
		ID:    uuid.NewString(),
		Items: []CartItem{},
		Total: decimal.Zero,
	}
}
