// internal/models/product.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Seller is the denormalized seller block embedded in product responses.
type Seller struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Product mirrors the remote service's product representation. Prices are
// decimals so cart arithmetic stays exact.
type Product struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"price"`
	Stock            int             `json:"stock"`
	Active           bool            `json:"active"`
	Available        bool            `json:"available"`
	ImageData        string          `json:"imageData,omitempty"`
	ImageContentType string          `json:"imageContentType,omitempty"`
	Seller           Seller          `json:"seller"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// InStock reports whether the product has remaining inventory.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

type ProductCreateRequest struct {
	Name             string          `json:"name" validate:"required,min=3,max=255"`
	Description      string          `json:"description" validate:"required,min=10"`
	Price            decimal.Decimal `json:"price"`
	Stock            int             `json:"stock" validate:"min=0"`
	SellerID         int64           `json:"sellerId" validate:"required"`
	ImageData        string          `json:"imageData,omitempty"`
	ImageContentType string          `json:"imageContentType,omitempty"`
}

type ProductUpdateRequest struct {
	Name             *string          `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	Description      *string          `json:"description,omitempty" validate:"omitempty,min=10"`
	Price            *decimal.Decimal `json:"price,omitempty"`
	Stock            *int             `json:"stock,omitempty" validate:"omitempty,min=0"`
	Active           *bool            `json:"active,omitempty"`
	ImageData        *string          `json:"imageData,omitempty"`
	ImageContentType *string          `json:"imageContentType,omitempty"`
}
