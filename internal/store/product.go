// internal/store/product.go
package store

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/apperrors"
	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/validate"
)

// ProductStore coordinates all reads and writes of remote catalog data. It
// owns the in-memory product collection, the currently viewed product, and
// the fetch concurrency controls: a single-flight guard that drops duplicate
// fetches while one is in flight, and a seller-scoped cache that skips the
// network when the same seller's products are already held.
//
// Fetch operations record failures as a human-readable message and return
// nothing; Create/Update/Delete record the message and also return the error
// so forms can react. The collection is only changed on success.
type ProductStore struct {
	gw  CatalogGateway
	log *logrus.Logger

	// fetching is the single-flight guard. CAS instead of a plain flag: the
	// check and the transition must be one step.
	fetching atomic.Bool

	mu         sync.Mutex
	products   []models.Product
	current    *models.Product
	lastSeller *int64
	loading    bool
	errMsg     string
}

func NewProductStore(gw CatalogGateway, log *logrus.Logger) *ProductStore {
	return &ProductStore{gw: gw, log: log}
}

// FetchAll replaces the collection with every product the service knows. A
// concurrent fetch already in flight causes this call to return immediately
// with no state change.
func (s *ProductStore) FetchAll(ctx context.Context) {
	if !s.fetching.CompareAndSwap(false, true) {
		s.log.Debug("fetch already in flight, dropping")
		return
	}
	defer s.fetching.Store(false)

	s.beginLoad()
	products, err := s.gw.ListProducts(ctx)
	s.finishList(products, err, "failed to fetch products")
}

// FetchAvailable is FetchAll restricted to purchasable products.
func (s *ProductStore) FetchAvailable(ctx context.Context) {
	if !s.fetching.CompareAndSwap(false, true) {
		s.log.Debug("fetch already in flight, dropping")
		return
	}
	defer s.fetching.Store(false)

	s.beginLoad()
	products, err := s.gw.ListAvailable(ctx)
	s.finishList(products, err, "failed to fetch available products")
}

// FetchByID loads a single product and sets it as the current product.
func (s *ProductStore) FetchByID(ctx context.Context, id int64) {
	if !s.fetching.CompareAndSwap(false, true) {
		s.log.Debug("fetch already in flight, dropping")
		return
	}
	defer s.fetching.Store(false)

	s.beginLoad()
	product, err := s.gw.GetProduct(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = errorMessage(err, "product not found")
		return
	}
	s.current = product
}

// FetchBySeller loads the seller's products. When the collection is non-empty
// and the last successful fetch was for the same seller, the call is served
// from the held collection without touching the network.
func (s *ProductStore) FetchBySeller(ctx context.Context, sellerID int64) {
	s.mu.Lock()
	cached := s.lastSeller != nil && *s.lastSeller == sellerID && len(s.products) > 0
	s.mu.Unlock()
	if cached {
		s.log.WithField("seller_id", sellerID).Debug("seller products already held, skipping fetch")
		return
	}

	if !s.fetching.CompareAndSwap(false, true) {
		s.log.Debug("fetch already in flight, dropping")
		return
	}
	defer s.fetching.Store(false)

	s.beginLoad()
	products, err := s.gw.ListBySeller(ctx, sellerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = errorMessage(err, "failed to fetch seller products")
		return
	}
	s.products = products
	seller := sellerID
	s.lastSeller = &seller
}

// Search replaces the collection with the matches for name. A blank query
// clears the collection locally without a network call; a non-blank query
// always fetches, regardless of the seller cache.
func (s *ProductStore) Search(ctx context.Context, name string) {
	if strings.TrimSpace(name) == "" {
		s.mu.Lock()
		s.products = nil
		s.mu.Unlock()
		return
	}

	if !s.fetching.CompareAndSwap(false, true) {
		s.log.Debug("fetch already in flight, dropping")
		return
	}
	defer s.fetching.Store(false)

	s.beginLoad()
	products, err := s.gw.SearchProducts(ctx, name)
	s.finishList(products, err, "search failed")
}

// Create validates the payload, performs the remote create, and appends the
// result to the collection on success.
func (s *ProductStore) Create(ctx context.Context, req *models.ProductCreateRequest) (*models.Product, error) {
	if err := validateCreate(req); err != nil {
		s.recordError(err, "invalid product")
		return nil, err
	}

	s.beginLoad()
	product, err := s.gw.CreateProduct(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = errorMessage(err, "failed to create product")
		return nil, err
	}
	s.products = append(s.products, *product)
	return product, nil
}

// Update performs the remote update, then replaces the held entry in place
// and reconciles the current-product reference when it points at id.
func (s *ProductStore) Update(ctx context.Context, id int64, req *models.ProductUpdateRequest) (*models.Product, error) {
	if err := validateUpdate(req); err != nil {
		s.recordError(err, "invalid product")
		return nil, err
	}

	s.beginLoad()
	product, err := s.gw.UpdateProduct(ctx, id, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = errorMessage(err, "failed to update product")
		return nil, err
	}
	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i] = *product
			break
		}
	}
	if s.current != nil && s.current.ID == id {
		s.current = product
	}
	return product, nil
}

// Delete performs the remote delete, then drops the held entry and clears the
// current-product reference when it points at id.
func (s *ProductStore) Delete(ctx context.Context, id int64) error {
	s.beginLoad()
	err := s.gw.DeleteProduct(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = errorMessage(err, "failed to delete product")
		return err
	}
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			break
		}
	}
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	return nil
}

// SetCurrent replaces the currently viewed product.
func (s *ProductStore) SetCurrent(product *models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = product
}

// ClearError discards the stored error message.
func (s *ProductStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}

// ClearAll drops the collection, the current product, and the seller cache
// marker. Called on logout or navigation away from a scoped view.
func (s *ProductStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = nil
	s.current = nil
	s.lastSeller = nil
}

// Products returns a copy of the held collection.
func (s *ProductStore) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Current returns the currently viewed product, or nil.
func (s *ProductStore) Current() *models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	p := *s.current
	return &p
}

func (s *ProductStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the stored human-readable error message, empty when the last
// operation succeeded.
func (s *ProductStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *ProductStore) beginLoad() {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()
}

// finishList applies a bulk fetch result: replace wholesale on success, leave
// the previous collection untouched on failure.
func (s *ProductStore) finishList(products []models.Product, err error, fallback string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = errorMessage(err, fallback)
		return
	}
	s.products = products
}

func (s *ProductStore) recordError(err error, fallback string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = errorMessage(err, fallback)
}

func validateCreate(req *models.ProductCreateRequest) error {
	if err := validate.Struct(req); err != nil {
		return &apperrors.ValidationError{Reason: err.Error()}
	}
	if req.Price.Sign() <= 0 {
		return &apperrors.ValidationError{Reason: "price must be greater than zero"}
	}
	return nil
}

func validateUpdate(req *models.ProductUpdateRequest) error {
	if err := validate.Struct(req); err != nil {
		return &apperrors.ValidationError{Reason: err.Error()}
	}
	if req.Price != nil && req.Price.Sign() <= 0 {
		return &apperrors.ValidationError{Reason: "price must be greater than zero"}
	}
	return nil
}
