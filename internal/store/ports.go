// internal/store/ports.go
package store

import (
	"context"
	"errors"

	"github.com/javajoker/storefront/internal/apperrors"
	"github.com/javajoker/storefront/internal/models"
)

// CatalogGateway is the remote API surface the product store depends on.
type CatalogGateway interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListAvailable(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]models.Product, error)
	SearchProducts(ctx context.Context, name string) ([]models.Product, error)
	CreateProduct(ctx context.Context, req *models.ProductCreateRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, req *models.ProductUpdateRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// AuthGateway is the remote API surface the session store depends on.
type AuthGateway interface {
	Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error)
	CurrentUser(ctx context.Context) (*models.User, error)
}

// errorMessage converts a gateway failure into the human-readable text the
// UI renders verbatim. The server's own message wins when it sent one.
func errorMessage(err error, fallback string) string {
	var valErr *apperrors.ValidationError
	if errors.As(err, &valErr) {
		return valErr.Reason
	}

	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	var netErr *apperrors.NetworkError
	if errors.As(err, &netErr) {
		return "cannot connect to server"
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return "not found"
	case errors.Is(err, apperrors.ErrUnauthorized):
		return "authentication required"
	case errors.Is(err, apperrors.ErrForbidden):
		return "permission denied"
	}
	return fallback
}
