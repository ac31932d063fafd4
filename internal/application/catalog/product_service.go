package catalog

import (
	"context"
	"strings"

	appinv "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrDuplicateSKU is returned when another product already uses the SKU
	ErrDuplicateSKU = shared.NewDomainError("DUPLICATE_SKU", "Product with this SKU already exists")
	// ErrProductInUse is returned when deleting a product that the ledger references
	ErrProductInUse = shared.NewDomainError("PRODUCT_IN_USE", "Product is referenced by movements, shipments or production orders")
)

// SearchCache stores product lookups by search term.
// Implementations must tolerate being unavailable: a miss is always safe.
type SearchCache interface {
	Get(ctx context.Context, term string) ([]ProductLookup, bool)
	Set(ctx context.Context, term string, items []ProductLookup)
	Invalidate(ctx context.Context)
}

// StockSummarizer provides the per-product stock picture for product lists
type StockSummarizer interface {
	Summaries(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]appinv.StockSummary, error)
}

// ProductService handles product-related business operations
type ProductService struct {
	productRepo  catalog.ProductRepository
	movementRepo inventory.StockMovementRepository
	incomingRepo inventory.IncomingStockRepository
	orderRepo    inventory.ProductionOrderRepository
	stock        StockSummarizer
	cache        SearchCache
	searchLimit  int
	logger       *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	movementRepo inventory.StockMovementRepository,
	incomingRepo inventory.IncomingStockRepository,
	orderRepo inventory.ProductionOrderRepository,
	stock StockSummarizer,
	logger *zap.Logger,
) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		incomingRepo: incomingRepo,
		orderRepo:    orderRepo,
		stock:        stock,
		searchLimit:  SearchLimit,
		logger:       logger,
	}
}

// SetSearchCache sets the lookup cache (optional)
func (s *ProductService) SetSearchCache(cache SearchCache) {
	s.cache = cache
}

// SetSearchLimit overrides the maximum number of lookup results
func (s *ProductService) SetSearchLimit(limit int) {
	if limit > 0 {
		s.searchLimit = limit
	}
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	exists, err := s.productRepo.ExistsBySKU(ctx, strings.TrimSpace(req.SKU), nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateSKU
	}

	product, err := catalog.NewProduct(req.SKU, req.Name)
	if err != nil {
		return nil, err
	}
	if err := product.SetFNSKU(req.FNSKU); err != nil {
		return nil, err
	}
	if err := product.SetDimensions(mergeDimensions(product.Dimensions, req.Weight, req.Length, req.Width, req.Height)); err != nil {
		return nil, err
	}
	if req.LowStockThreshold != nil {
		if err := product.SetLowStockThreshold(*req.LowStockThreshold); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.logger.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("sku", product.SKU))
	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// GetBySKU retrieves a product by SKU
func (s *ProductService) GetBySKU(ctx context.Context, sku string) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves products matching the search term on SKU or name, each with
// its stock per warehouse, pending incoming and open production quantities.
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductListItem, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "sku"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
	}

	products, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	summaries, err := s.stock.Summaries(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	items := make([]ProductListItem, len(products))
	for i := range products {
		items[i] = ProductListItem{
			ProductResponse: ToProductResponse(&products[i]),
			Stock:           summaries[products[i].ID],
		}
	}
	return items, total, nil
}

// Search returns up to the search limit of products whose SKU contains term,
// case-insensitively. Results are served from the cache when one is set.
func (s *ProductService) Search(ctx context.Context, term string) ([]ProductLookup, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if s.cache != nil {
		if items, ok := s.cache.Get(ctx, term); ok {
			return items, nil
		}
	}

	products, err := s.productRepo.SearchBySKU(ctx, term, s.searchLimit)
	if err != nil {
		return nil, err
	}
	items := make([]ProductLookup, len(products))
	for i := range products {
		items[i] = ToProductLookup(&products[i])
	}

	if s.cache != nil {
		s.cache.Set(ctx, term, items)
	}
	return items, nil
}

// Update updates a product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SKU != nil && strings.TrimSpace(*req.SKU) != product.SKU {
		exists, err := s.productRepo.ExistsBySKU(ctx, strings.TrimSpace(*req.SKU), &product.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrDuplicateSKU
		}
		if err := product.ChangeSKU(*req.SKU); err != nil {
			return nil, err
		}
	}
	if req.Name != nil {
		if err := product.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.FNSKU != nil {
		if err := product.SetFNSKU(*req.FNSKU); err != nil {
			return nil, err
		}
	}
	if req.Weight != nil || req.Length != nil || req.Width != nil || req.Height != nil {
		if err := product.SetDimensions(mergeDimensions(product.Dimensions, req.Weight, req.Length, req.Width, req.Height)); err != nil {
			return nil, err
		}
	}
	if req.LowStockThreshold != nil {
		if err := product.SetLowStockThreshold(*req.LowStockThreshold); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	response := ToProductResponse(product)
	return &response, nil
}

// Delete deletes a product that nothing in the ledger references
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	inUse, err := s.isReferenced(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return ErrProductInUse
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if shared.CodeOf(err) == shared.ErrInUse.Code {
			return ErrProductInUse
		}
		return err
	}
	s.invalidate(ctx)

	s.logger.Info("Product deleted", zap.String("product_id", id.String()), zap.String("sku", product.SKU))
	return nil
}

// BatchDelete deletes each product independently
func (s *ProductService) BatchDelete(ctx context.Context, ids []uuid.UUID) *appinv.BatchResult {
	result := appinv.NewBatchResult(len(ids))
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			result.Fail(id, errorCode(err), err.Error())
			continue
		}
		result.Succeeded++
	}
	return result
}

func (s *ProductService) isReferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	checks := []func(context.Context, uuid.UUID) (bool, error){
		s.movementRepo.ExistsByProduct,
		s.incomingRepo.ExistsByProduct,
		s.orderRepo.ExistsByProduct,
	}
	for _, check := range checks {
		found, err := check(ctx, id)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

func (s *ProductService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// mergeDimensions overlays the given values on the current dimensions
func mergeDimensions(current catalog.Dimensions, weight, length, width, height *decimal.Decimal) catalog.Dimensions {
	if weight != nil {
		current.Weight = *weight
	}
	if length != nil {
		current.Length = *length
	}
	if width != nil {
		current.Width = *width
	}
	if height != nil {
		current.Height = *height
	}
	return current
}

// errorCode returns the domain code of err, or INTERNAL_ERROR
func errorCode(err error) string {
	if code := shared.CodeOf(err); code != "" {
		return code
	}
	return "INTERNAL_ERROR"
}
